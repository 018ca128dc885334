package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type ServerOptions struct {
	APIAccessKey string
	RateLimit    float64 // requests per second per client IP, 0 disables
	RateBurst    int
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, opts ServerOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, opts)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, opts ServerOptions) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	if opts.RateLimit > 0 {
		api.Use(newRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst).middleware())
	}
	if opts.APIAccessKey != "" {
		api.Use(authMiddleware(opts.APIAccessKey))
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled (API_ACCESS_KEY not set)")
	}

	{
		api.GET("/podcasts", handler.ListPodcasts)
		api.POST("/podcasts", handler.Subscribe)
		api.GET("/podcasts/:id", handler.GetPodcast)
		api.DELETE("/podcasts/:id", handler.DeletePodcast)
		api.POST("/podcasts/:id/refresh", handler.RefreshPodcast)
		api.PUT("/podcasts/:id/prompt", handler.SetCustomPrompt)
		api.GET("/podcasts/:id/episodes", handler.ListEpisodes)

		api.GET("/episodes/:id", handler.GetEpisode)
		api.POST("/episodes/:id/download", handler.DownloadEpisode)
		api.DELETE("/episodes/:id/download", handler.ClearDownload)
		api.POST("/episodes/:id/summary", handler.GenerateSummary)
		api.GET("/episodes/:id/documents", handler.ListDocuments)

		api.GET("/documents/:id", handler.GetDocument)
		api.DELETE("/documents/:id", handler.DeleteDocument)
		api.GET("/summary/status", handler.GetGenerationStatus)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Podcast Digest",
			"version": handler.version,
			"endpoints": map[string]string{
				"health":   "/health",
				"podcasts": "/api/podcasts",
				"episodes": "/api/episodes/<id>",
				"summary":  "/api/episodes/<id>/summary (POST)",
				"status":   "/api/summary/status",
			},
			"api_status": map[string]interface{}{
				"auth_required": opts.APIAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
