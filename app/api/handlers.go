package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/podcast-digest/app/feed"
	"github.com/lysyi3m/podcast-digest/app/media"
)

func NewHandler(library LibraryInterface, audio AudioInterface, summaries SummaryInterface,
	configCache *feed.ConfigCache, version string) *Handler {
	return &Handler{
		library:     library,
		audio:       audio,
		summaries:   summaries,
		configCache: configCache,
		version:     version,
	}
}

func (h *Handler) ListPodcasts(c *gin.Context) {
	podcasts, err := h.library.ListPodcasts(c.Request.Context())
	if err != nil {
		respondError(c, "list_podcasts", err)
		return
	}

	response := make([]podcastResponse, 0, len(podcasts))
	for _, p := range podcasts {
		response = append(response, newPodcastResponse(p))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feed_url is required"})
		return
	}

	result, err := h.library.Sync(c.Request.Context(), req.FeedURL, req.ArtworkURL)
	if err != nil {
		respondError(c, "sync_feed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetPodcast(c *gin.Context) {
	podcast, err := h.library.GetPodcast(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get_podcast", err)
		return
	}
	c.JSON(http.StatusOK, newPodcastResponse(*podcast))
}

func (h *Handler) RefreshPodcast(c *gin.Context) {
	result, err := h.library.Refresh(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "refresh_podcast", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) SetCustomPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	if err := h.library.SetCustomPrompt(c.Request.Context(), id, req.Prompt); err != nil {
		respondError(c, "set_custom_prompt", err)
		return
	}

	podcast, err := h.library.GetPodcast(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get_podcast", err)
		return
	}
	c.JSON(http.StatusOK, newPodcastResponse(*podcast))
}

func (h *Handler) DeletePodcast(c *gin.Context) {
	if err := h.library.DeletePodcast(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "delete_podcast", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListEpisodes(c *gin.Context) {
	episodes, err := h.library.ListEpisodes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "list_episodes", err)
		return
	}

	response := make([]episodeResponse, 0, len(episodes))
	for _, e := range episodes {
		response = append(response, newEpisodeResponse(e))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetEpisode(c *gin.Context) {
	episode, err := h.library.GetEpisode(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get_episode", err)
		return
	}
	c.JSON(http.StatusOK, newEpisodeResponse(*episode))
}

func (h *Handler) DownloadEpisode(c *gin.Context) {
	ctx := c.Request.Context()

	episode, err := h.library.GetEpisode(ctx, c.Param("id"))
	if err != nil {
		respondError(c, "get_episode", err)
		return
	}

	podcast, err := h.library.GetPodcast(ctx, episode.PodcastID)
	if err != nil {
		respondError(c, "get_podcast", err)
		return
	}

	path, err := h.audio.DownloadToPersistent(ctx, episode.ID, podcast.Title)
	if err != nil {
		respondError(c, "download_episode", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"episode_id":      episode.ID,
		"local_file_path": path,
	})
}

func (h *Handler) ClearDownload(c *gin.Context) {
	id := c.Param("id")

	path, err := h.audio.ClearDownload(c.Request.Context(), id)
	if err != nil {
		respondError(c, "clear_download", err)
		return
	}

	if path != "" {
		if err := media.RemoveFile(path); err != nil {
			// The row is already cleared; a leftover file is harmless.
			slog.Warn("Failed to remove downloaded file", "episode_id", id, "path", path, "error", err)
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GenerateSummary(c *gin.Context) {
	doc, err := h.summaries.Generate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "generate_summary", err)
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(*doc))
}

func (h *Handler) GetGenerationStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.summaries.Status())
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.library.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "list_documents", err)
		return
	}

	response := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		response = append(response, newDocumentResponse(d))
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.library.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get_document", err)
		return
	}
	c.JSON(http.StatusOK, newDocumentResponse(*doc))
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.library.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "delete_document", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if h.configCache != nil {
		health["feed_configs"] = h.configCache.GetConfigCount()
	}

	count, err := h.library.CountPodcasts(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_podcasts", "error", err)
		health["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["podcasts"] = count
	health["generation"] = h.summaries.Status()

	c.JSON(http.StatusOK, health)
}
