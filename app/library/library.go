package library

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/podcast-digest/app/database"
	"github.com/lysyi3m/podcast-digest/app/feed"
)

// FeedFetcher retrieves and parses a feed. Implementations must not touch the
// database.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Feed, error)
}

type SyncResult struct {
	PodcastID    string `json:"podcast_id"`
	EpisodeCount int    `json:"episode_count"`
}

// Library owns podcast subscriptions and exposes read and mutation accessors
// over podcasts, episodes and documents.
type Library struct {
	db       *database.DB
	fetcher  FeedFetcher
	podcasts *database.PodcastRepository
	episodes *database.EpisodeRepository
	docs     *database.DocumentRepository
	now      func() time.Time
}

func New(db *database.DB, fetcher FeedFetcher) *Library {
	return &Library{
		db:       db,
		fetcher:  fetcher,
		podcasts: database.NewPodcastRepository(db),
		episodes: database.NewEpisodeRepository(db),
		docs:     database.NewDocumentRepository(db),
		now:      time.Now,
	}
}

// Sync subscribes to or refreshes the feed at feedURL. The feed is fetched
// before any write; the podcast row and every episode are then written in a
// single transaction. The returned count is the number of episodes seen in
// this fetch.
func (l *Library) Sync(ctx context.Context, feedURL string, artworkOverride string) (*SyncResult, error) {
	feedURL = strings.TrimSpace(feedURL)
	if err := validateFeedURL(feedURL); err != nil {
		return nil, err
	}

	parsed, err := l.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	var podcastID string
	err = l.db.RunInTransaction(ctx, func(q database.Querier) error {
		podcasts := database.NewPodcastRepository(q)
		episodes := database.NewEpisodeRepository(q)

		existing, err := podcasts.GetPodcastByFeedURL(ctx, feedURL)
		if err != nil {
			return err
		}

		podcastID = uuid.NewString()
		existingArtwork := ""
		if existing != nil {
			podcastID = existing.ID
			existingArtwork = existing.ArtworkURL
		}

		podcast := database.Podcast{
			ID:            podcastID,
			Title:         cmp.Or(parsed.Metadata.Title, feedURL),
			FeedURL:       feedURL,
			ArtworkURL:    cmp.Or(strings.TrimSpace(artworkOverride), existingArtwork, parsed.Metadata.ImageURL),
			LastFetchedAt: l.now().UTC(),
		}
		if err := podcasts.UpsertPodcast(ctx, podcast); err != nil {
			return err
		}

		for _, item := range parsed.Items {
			if err := episodes.UpsertEpisode(ctx, database.EpisodeUpsert{
				ID:        item.GUID,
				PodcastID: podcastID,
				Title:     item.Title,
				PubDate:   item.PubDate,
				Duration:  item.Duration,
				AudioURL:  item.AudioURL,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store feed: %w", err)
	}

	slog.Info("Feed synced", "feed_url", feedURL, "podcast_id", podcastID, "episodes", len(parsed.Items))

	return &SyncResult{PodcastID: podcastID, EpisodeCount: len(parsed.Items)}, nil
}

// Refresh re-syncs an existing podcast from its stored feed URL.
func (l *Library) Refresh(ctx context.Context, podcastID string) (*SyncResult, error) {
	podcast, err := l.GetPodcast(ctx, podcastID)
	if err != nil {
		return nil, err
	}
	return l.Sync(ctx, podcast.FeedURL, "")
}

func validateFeedURL(feedURL string) error {
	parsed, err := url.Parse(feedURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidFeedURL
	}
	return nil
}
