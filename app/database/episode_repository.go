package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const episodeColumns = `id, podcast_id, title, pub_date, duration, audio_url, is_downloaded, COALESCE(local_file_path, '')`

// EpisodeRepository handles database operations for episodes
type EpisodeRepository struct {
	q Querier
}

func NewEpisodeRepository(q Querier) *EpisodeRepository {
	return &EpisodeRepository{q: q}
}

// UpsertEpisode inserts a new episode or updates title, duration and audio URL
// of an existing one. is_downloaded and local_file_path are absent from the
// update clause, so feed refreshes cannot reset download state.
func (r *EpisodeRepository) UpsertEpisode(ctx context.Context, episode EpisodeUpsert) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO episodes (id, podcast_id, title, pub_date, duration, audio_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			duration = excluded.duration,
			audio_url = excluded.audio_url
	`, episode.ID, episode.PodcastID, episode.Title, formatTime(episode.PubDate), episode.Duration, episode.AudioURL)

	if err != nil {
		return fmt.Errorf("failed to upsert episode %s: %w", episode.ID, err)
	}

	return nil
}

func (r *EpisodeRepository) GetEpisode(ctx context.Context, id string) (*Episode, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)

	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}

	return episode, nil
}

// ListEpisodes returns the episodes of a podcast, newest first
func (r *EpisodeRepository) ListEpisodes(ctx context.Context, podcastID string) ([]Episode, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+episodeColumns+`
		FROM episodes
		WHERE podcast_id = ?
		ORDER BY pub_date DESC, id
	`, podcastID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	episodes := []Episode{}
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		episodes = append(episodes, *episode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}

	return episodes, nil
}

// MarkDownloaded records a persistent local copy for the episode
func (r *EpisodeRepository) MarkDownloaded(ctx context.Context, id string, path string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE episodes
		SET is_downloaded = 1, local_file_path = ?
		WHERE id = ?
	`, path, id)

	if err != nil {
		return fmt.Errorf("failed to mark episode downloaded: %w", err)
	}

	return nil
}

// ClearDownload resets the download state and returns the path that was
// recorded before the reset (empty if there was none).
func (r *EpisodeRepository) ClearDownload(ctx context.Context, id string) (string, error) {
	var previous string
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(local_file_path, '') FROM episodes WHERE id = ?`, id).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read episode download path: %w", err)
	}

	_, err = r.q.ExecContext(ctx, `
		UPDATE episodes
		SET is_downloaded = 0, local_file_path = NULL
		WHERE id = ?
	`, id)
	if err != nil {
		return "", fmt.Errorf("failed to clear episode download: %w", err)
	}

	return previous, nil
}

func scanEpisode(row rowScanner) (*Episode, error) {
	var episode Episode
	var pubDate string

	err := row.Scan(
		&episode.ID, &episode.PodcastID, &episode.Title, &pubDate,
		&episode.Duration, &episode.AudioURL, &episode.IsDownloaded, &episode.LocalFilePath,
	)
	if err != nil {
		return nil, err
	}

	episode.PubDate, err = parseTime(pubDate)
	if err != nil {
		return nil, err
	}

	return &episode, nil
}
