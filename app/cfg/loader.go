package cfg

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./data/podcast-digest.db" description:"SQLite database file"`
	MediaDir string `long:"media-dir" env:"MEDIA_DIR" default:"./media" description:"Directory for persistent episode downloads"`
	CacheDir string `long:"cache-dir" env:"CACHE_DIR" description:"Directory for ephemeral audio files (defaults to the system temp dir)"`
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed seed files"`

	// API configuration
	Port         string  `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string  `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	RateLimit    float64 `long:"rate-limit" env:"RATE_LIMIT" default:"10" description:"API requests per second allowed per client IP (0 disables)"`
	RateBurst    int     `long:"rate-burst" env:"RATE_BURST" default:"20" description:"API request burst allowed per client IP"`

	// Generative AI configuration
	GeminiAPIKey  string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key used for summaries"`
	GeminiModel   string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.5-flash" description:"Gemini model used for summaries"`
	GeminiBaseURL string `long:"gemini-base-url" env:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com" description:"Gemini API base URL"`

	// Pipeline configuration
	WorkerCount         int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of isolated feed fetch workers"`
	SchedulerInterval   int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Background refresh scan interval in seconds"`
	FeedTimeout         int `long:"feed-timeout" env:"FEED_TIMEOUT" default:"15" description:"HTTP timeout for feed requests in seconds"`
	FeedHardTimeout     int `long:"feed-hard-timeout" env:"FEED_HARD_TIMEOUT" default:"30" description:"Wall clock limit for fetch and parse in seconds"`
	DownloadIdleTimeout int `long:"download-idle-timeout" env:"DOWNLOAD_IDLE_TIMEOUT" default:"60" description:"Seconds without progress before an audio download aborts"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Podcast Digest/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		MediaDir:            raw.MediaDir,
		CacheDir:            cmp.Or(raw.CacheDir, filepath.Join(os.TempDir(), "podcast-digest")),
		FeedsDir:            raw.FeedsDir,
		Port:                raw.Port,
		APIAccessKey:        raw.APIAccessKey,
		RateLimit:           raw.RateLimit,
		RateBurst:           raw.RateBurst,
		GeminiAPIKey:        raw.GeminiAPIKey,
		GeminiModel:         raw.GeminiModel,
		GeminiBaseURL:       raw.GeminiBaseURL,
		WorkerCount:         raw.WorkerCount,
		SchedulerInterval:   raw.SchedulerInterval,
		FeedTimeout:         raw.FeedTimeout,
		FeedHardTimeout:     raw.FeedHardTimeout,
		DownloadIdleTimeout: raw.DownloadIdleTimeout,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
