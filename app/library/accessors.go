package library

import (
	"context"
	"strings"

	"github.com/lysyi3m/podcast-digest/app/database"
)

func (l *Library) ListPodcasts(ctx context.Context) ([]database.Podcast, error) {
	return l.podcasts.ListPodcasts(ctx)
}

func (l *Library) CountPodcasts(ctx context.Context) (int, error) {
	return l.podcasts.GetPodcastCount(ctx)
}

func (l *Library) GetPodcast(ctx context.Context, id string) (*database.Podcast, error) {
	podcast, err := l.podcasts.GetPodcast(ctx, id)
	if err != nil {
		return nil, err
	}
	if podcast == nil {
		return nil, ErrPodcastNotFound
	}
	return podcast, nil
}

// GetPodcastByFeedURL returns nil when the feed has never been synced.
func (l *Library) GetPodcastByFeedURL(ctx context.Context, feedURL string) (*database.Podcast, error) {
	return l.podcasts.GetPodcastByFeedURL(ctx, strings.TrimSpace(feedURL))
}

// SetCustomPrompt overrides the summary prompt for a podcast. A blank prompt
// restores the built-in one.
func (l *Library) SetCustomPrompt(ctx context.Context, podcastID string, prompt string) error {
	updated, err := l.podcasts.UpdateCustomPrompt(ctx, podcastID, strings.TrimSpace(prompt))
	if err != nil {
		return err
	}
	if !updated {
		return ErrPodcastNotFound
	}
	return nil
}

func (l *Library) DeletePodcast(ctx context.Context, podcastID string) error {
	deleted, err := l.podcasts.DeletePodcast(ctx, podcastID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPodcastNotFound
	}
	return nil
}

func (l *Library) ListEpisodes(ctx context.Context, podcastID string) ([]database.Episode, error) {
	if _, err := l.GetPodcast(ctx, podcastID); err != nil {
		return nil, err
	}
	return l.episodes.ListEpisodes(ctx, podcastID)
}

func (l *Library) GetEpisode(ctx context.Context, id string) (*database.Episode, error) {
	episode, err := l.episodes.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, ErrEpisodeNotFound
	}
	return episode, nil
}

func (l *Library) ListDocuments(ctx context.Context, episodeID string) ([]database.Document, error) {
	if _, err := l.GetEpisode(ctx, episodeID); err != nil {
		return nil, err
	}
	return l.docs.ListDocuments(ctx, episodeID)
}

func (l *Library) GetDocument(ctx context.Context, id string) (*database.Document, error) {
	document, err := l.docs.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, ErrDocumentNotFound
	}
	return document, nil
}

func (l *Library) DeleteDocument(ctx context.Context, id string) error {
	deleted, err := l.docs.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDocumentNotFound
	}
	return nil
}
