package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const documentColumns = `id, episode_id, content, created_at, prompt_used`

// DocumentRepository handles database operations for generated documents
type DocumentRepository struct {
	q Querier
}

func NewDocumentRepository(q Querier) *DocumentRepository {
	return &DocumentRepository{q: q}
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, document Document) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO documents (id, episode_id, content, created_at, prompt_used)
		VALUES (?, ?, ?, ?, ?)
	`, document.ID, document.EpisodeID, document.Content, formatTime(document.CreatedAt), document.PromptUsed)

	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	document, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return document, nil
}

// ListDocuments returns documents for an episode, newest first
func (r *DocumentRepository) ListDocuments(ctx context.Context, episodeID string) ([]Document, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE episode_id = ?
		ORDER BY created_at DESC, id
	`, episodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	documents := []Document{}
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		documents = append(documents, *document)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return documents, nil
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) (bool, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	return rowsAffected(result)
}

func (r *DocumentRepository) DeleteDocumentsForEpisode(ctx context.Context, episodeID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM documents WHERE episode_id = ?`, episodeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete episode documents: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func scanDocument(row rowScanner) (*Document, error) {
	var document Document
	var createdAt string

	err := row.Scan(&document.ID, &document.EpisodeID, &document.Content, &createdAt, &document.PromptUsed)
	if err != nil {
		return nil, err
	}

	document.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &document, nil
}
