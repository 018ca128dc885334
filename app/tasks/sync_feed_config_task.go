package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/podcast-digest/app/feed"
)

// SyncFeedConfigTask subscribes to or refreshes a seeded feed and applies the
// seed's prompt to the resulting podcast.
type SyncFeedConfigTask struct {
	Task
	FeedConfig *feed.Config
	syncer     PodcastSyncer
	done       func()
}

func NewSyncFeedConfigTask(feedConfig *feed.Config, syncer PodcastSyncer) *SyncFeedConfigTask {
	return &SyncFeedConfigTask{
		Task:       NewTask(TaskTypeSyncFeedConfig, feedConfig.Name),
		FeedConfig: feedConfig,
		syncer:     syncer,
	}
}

func (t *SyncFeedConfigTask) Execute(ctx context.Context) error {
	if t.done != nil {
		defer t.done()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.syncer.Sync(ctx, t.FeedConfig.URL, t.FeedConfig.Artwork)
	if err != nil {
		return fmt.Errorf("failed to sync feed: %w", err)
	}

	if t.FeedConfig.Prompt != "" {
		if err := t.syncer.SetCustomPrompt(ctx, result.PodcastID, t.FeedConfig.Prompt); err != nil {
			return fmt.Errorf("failed to apply feed prompt: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"feed", t.FeedName,
		"podcast_id", result.PodcastID,
		"episodes", result.EpisodeCount,
		"duration", t.GetDuration())

	return nil
}
