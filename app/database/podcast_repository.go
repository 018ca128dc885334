package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const podcastColumns = `id, title, feed_url, COALESCE(artwork_url, ''), COALESCE(custom_prompt, ''), last_fetched_at`

// PodcastRepository handles database operations for podcasts
type PodcastRepository struct {
	q Querier
}

// NewPodcastRepository creates a podcast repository bound to q, which may be
// the shared connection or an open transaction.
func NewPodcastRepository(q Querier) *PodcastRepository {
	return &PodcastRepository{q: q}
}

// UpsertPodcast inserts a podcast or, when the feed URL is already known,
// refreshes its title, artwork and fetch timestamp. The custom prompt is never
// written here.
func (r *PodcastRepository) UpsertPodcast(ctx context.Context, podcast Podcast) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO podcasts (id, title, feed_url, artwork_url, last_fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (feed_url) DO UPDATE SET
			title = excluded.title,
			artwork_url = excluded.artwork_url,
			last_fetched_at = excluded.last_fetched_at
	`, podcast.ID, podcast.Title, podcast.FeedURL, nullableString(podcast.ArtworkURL), formatTime(podcast.LastFetchedAt))

	if err != nil {
		return fmt.Errorf("failed to upsert podcast: %w", err)
	}

	return nil
}

// GetPodcast retrieves a podcast by ID. It returns nil when no row exists.
func (r *PodcastRepository) GetPodcast(ctx context.Context, id string) (*Podcast, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+podcastColumns+` FROM podcasts WHERE id = ?`, id)

	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get podcast: %w", err)
	}

	return podcast, nil
}

// GetPodcastByFeedURL retrieves a podcast by its feed URL
func (r *PodcastRepository) GetPodcastByFeedURL(ctx context.Context, feedURL string) (*Podcast, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+podcastColumns+` FROM podcasts WHERE feed_url = ?`, feedURL)

	podcast, err := scanPodcast(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get podcast by feed URL: %w", err)
	}

	return podcast, nil
}

func (r *PodcastRepository) ListPodcasts(ctx context.Context) ([]Podcast, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+podcastColumns+` FROM podcasts ORDER BY title COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list podcasts: %w", err)
	}
	defer rows.Close()

	podcasts := []Podcast{}
	for rows.Next() {
		podcast, err := scanPodcast(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan podcast row: %w", err)
		}
		podcasts = append(podcasts, *podcast)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating podcast rows: %w", err)
	}

	return podcasts, nil
}

func (r *PodcastRepository) GetPodcastCount(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM podcasts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get podcast count: %w", err)
	}
	return count, nil
}

// UpdateCustomPrompt sets the podcast prompt override; an empty prompt clears it.
func (r *PodcastRepository) UpdateCustomPrompt(ctx context.Context, id string, prompt string) (bool, error) {
	result, err := r.q.ExecContext(ctx, `UPDATE podcasts SET custom_prompt = ? WHERE id = ?`, nullableString(prompt), id)
	if err != nil {
		return false, fmt.Errorf("failed to update custom prompt: %w", err)
	}
	return rowsAffected(result)
}

// DeletePodcast removes a podcast; episodes and documents go with it.
func (r *PodcastRepository) DeletePodcast(ctx context.Context, id string) (bool, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM podcasts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete podcast: %w", err)
	}
	return rowsAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPodcast(row rowScanner) (*Podcast, error) {
	var podcast Podcast
	var lastFetchedAt string

	err := row.Scan(
		&podcast.ID, &podcast.Title, &podcast.FeedURL,
		&podcast.ArtworkURL, &podcast.CustomPrompt, &lastFetchedAt,
	)
	if err != nil {
		return nil, err
	}

	podcast.LastFetchedAt, err = parseTime(lastFetchedAt)
	if err != nil {
		return nil, err
	}

	return &podcast, nil
}

func rowsAffected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
