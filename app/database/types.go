package database

import (
	"time"
)

type Podcast struct {
	ID            string
	Title         string
	FeedURL       string
	ArtworkURL    string // empty when the feed has no artwork
	CustomPrompt  string // empty means the built-in prompt is used
	LastFetchedAt time.Time
}

type Episode struct {
	ID            string
	PodcastID     string
	Title         string
	PubDate       time.Time
	Duration      int // seconds, 0 when unknown
	AudioURL      string
	IsDownloaded  bool
	LocalFilePath string
}

// EpisodeUpsert carries the feed-owned episode fields. Download state is not
// part of it so a refresh can never touch it.
type EpisodeUpsert struct {
	ID        string
	PodcastID string
	Title     string
	PubDate   time.Time
	Duration  int
	AudioURL  string
}

type Document struct {
	ID         string
	EpisodeID  string
	Content    string
	CreatedAt  time.Time
	PromptUsed string
}
