package api

import (
	"context"
	"time"

	"github.com/lysyi3m/podcast-digest/app/database"
	"github.com/lysyi3m/podcast-digest/app/feed"
	"github.com/lysyi3m/podcast-digest/app/library"
	"github.com/lysyi3m/podcast-digest/app/media"
	"github.com/lysyi3m/podcast-digest/app/summary"
)

type LibraryInterface interface {
	Sync(ctx context.Context, feedURL string, artworkOverride string) (*library.SyncResult, error)
	Refresh(ctx context.Context, podcastID string) (*library.SyncResult, error)
	ListPodcasts(ctx context.Context) ([]database.Podcast, error)
	CountPodcasts(ctx context.Context) (int, error)
	GetPodcast(ctx context.Context, id string) (*database.Podcast, error)
	SetCustomPrompt(ctx context.Context, podcastID string, prompt string) error
	DeletePodcast(ctx context.Context, podcastID string) error
	ListEpisodes(ctx context.Context, podcastID string) ([]database.Episode, error)
	GetEpisode(ctx context.Context, id string) (*database.Episode, error)
	ListDocuments(ctx context.Context, episodeID string) ([]database.Document, error)
	GetDocument(ctx context.Context, id string) (*database.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type AudioInterface interface {
	DownloadToPersistent(ctx context.Context, episodeID string, podcastTitle string) (string, error)
	ClearDownload(ctx context.Context, episodeID string) (string, error)
}

type SummaryInterface interface {
	Generate(ctx context.Context, episodeID string) (*database.Document, error)
	Status() summary.Status
}

var (
	_ LibraryInterface = (*library.Library)(nil)
	_ AudioInterface   = (*media.Provisioner)(nil)
	_ SummaryInterface = (*summary.Orchestrator)(nil)
)

type Handler struct {
	library     LibraryInterface
	audio       AudioInterface
	summaries   SummaryInterface
	configCache *feed.ConfigCache
	version     string
}

// Request payloads

type subscribeRequest struct {
	FeedURL    string `json:"feed_url" binding:"required"`
	ArtworkURL string `json:"artwork_url"`
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// Response payloads

type podcastResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	FeedURL       string    `json:"feed_url"`
	ArtworkURL    *string   `json:"artwork_url"`
	CustomPrompt  *string   `json:"custom_prompt"`
	LastFetchedAt time.Time `json:"last_fetched_at"`
}

type episodeResponse struct {
	ID            string    `json:"id"`
	PodcastID     string    `json:"podcast_id"`
	Title         string    `json:"title"`
	PubDate       time.Time `json:"pub_date"`
	Duration      int       `json:"duration"`
	AudioURL      string    `json:"audio_url"`
	IsDownloaded  bool      `json:"is_downloaded"`
	LocalFilePath *string   `json:"local_file_path"`
}

type documentResponse struct {
	ID         string    `json:"id"`
	EpisodeID  string    `json:"episode_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	PromptUsed string    `json:"prompt_used"`
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func newPodcastResponse(p database.Podcast) podcastResponse {
	return podcastResponse{
		ID:            p.ID,
		Title:         p.Title,
		FeedURL:       p.FeedURL,
		ArtworkURL:    optional(p.ArtworkURL),
		CustomPrompt:  optional(p.CustomPrompt),
		LastFetchedAt: p.LastFetchedAt,
	}
}

func newEpisodeResponse(e database.Episode) episodeResponse {
	return episodeResponse{
		ID:            e.ID,
		PodcastID:     e.PodcastID,
		Title:         e.Title,
		PubDate:       e.PubDate,
		Duration:      e.Duration,
		AudioURL:      e.AudioURL,
		IsDownloaded:  e.IsDownloaded,
		LocalFilePath: optional(e.LocalFilePath),
	}
}

func newDocumentResponse(d database.Document) documentResponse {
	return documentResponse{
		ID:         d.ID,
		EpisodeID:  d.EpisodeID,
		Content:    d.Content,
		CreatedAt:  d.CreatedAt,
		PromptUsed: d.PromptUsed,
	}
}
