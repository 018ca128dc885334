package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBPath   string
	MediaDir string
	CacheDir string
	FeedsDir string

	// API configuration
	Port         string
	APIAccessKey string
	RateLimit    float64
	RateBurst    int

	// Generative AI configuration
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	// Pipeline configuration
	WorkerCount         int
	SchedulerInterval   int
	FeedTimeout         int
	FeedHardTimeout     int
	DownloadIdleTimeout int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) FeedTimeoutDuration() time.Duration {
	return secondsOr(c.FeedTimeout, 15)
}

func (c *Cfg) FeedHardTimeoutDuration() time.Duration {
	return secondsOr(c.FeedHardTimeout, 30)
}

func (c *Cfg) DownloadIdleTimeoutDuration() time.Duration {
	return secondsOr(c.DownloadIdleTimeout, 60)
}

func (c *Cfg) SchedulerIntervalDuration() time.Duration {
	return secondsOr(c.SchedulerInterval, 300)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
