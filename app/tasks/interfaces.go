package tasks

import (
	"context"

	"github.com/lysyi3m/podcast-digest/app/database"
	"github.com/lysyi3m/podcast-digest/app/feed"
	"github.com/lysyi3m/podcast-digest/app/library"
)

// TaskPoolInterface runs tasks on a fixed set of workers.
//
//	pool := NewPool("fetch", 2, 64)
//	pool.Start()
//	defer pool.Stop()
//	pool.Submit(ctx, NewFetchFeedTask(...))
type TaskPoolInterface interface {
	Start()
	Stop()
	Submit(ctx context.Context, task TaskInterface) error
	EnqueueTask(task TaskInterface) error
}

// TaskSchedulerInterface drives the periodic refresh of seeded feeds.
type TaskSchedulerInterface interface {
	Start()
	Stop()
}

// FeedSource downloads a raw feed document.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FeedDecoder turns raw feed bytes into a normalized feed.
type FeedDecoder interface {
	Run(ctx context.Context, data []byte) (*feed.Feed, error)
}

// PodcastSyncer is the part of the library the refresh scheduler drives.
type PodcastSyncer interface {
	Sync(ctx context.Context, feedURL string, artworkOverride string) (*library.SyncResult, error)
	SetCustomPrompt(ctx context.Context, podcastID string, prompt string) error
	GetPodcastByFeedURL(ctx context.Context, feedURL string) (*database.Podcast, error)
}
