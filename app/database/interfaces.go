package database

import (
	"context"
	"database/sql"
)

// Querier is satisfied by both *DB and *sql.Tx so repositories work the same
// inside and outside RunInTransaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

type PodcastStore interface {
	GetPodcast(ctx context.Context, id string) (*Podcast, error)
	GetPodcastByFeedURL(ctx context.Context, feedURL string) (*Podcast, error)
	ListPodcasts(ctx context.Context) ([]Podcast, error)
	GetPodcastCount(ctx context.Context) (int, error)

	UpsertPodcast(ctx context.Context, podcast Podcast) error
	UpdateCustomPrompt(ctx context.Context, id string, prompt string) (bool, error)
	DeletePodcast(ctx context.Context, id string) (bool, error)
}

type EpisodeStore interface {
	GetEpisode(ctx context.Context, id string) (*Episode, error)
	ListEpisodes(ctx context.Context, podcastID string) ([]Episode, error)

	UpsertEpisode(ctx context.Context, episode EpisodeUpsert) error
	MarkDownloaded(ctx context.Context, id string, path string) error
	ClearDownload(ctx context.Context, id string) (string, error)
}

type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, episodeID string) ([]Document, error)

	CreateDocument(ctx context.Context, document Document) error
	DeleteDocument(ctx context.Context, id string) (bool, error)
	DeleteDocumentsForEpisode(ctx context.Context, episodeID string) (int64, error)
}

var (
	_ PodcastStore  = (*PodcastRepository)(nil)
	_ EpisodeStore  = (*EpisodeRepository)(nil)
	_ DocumentStore = (*DocumentRepository)(nil)
)
