package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Singh-Codes/youtube-downloader/internal/domain"
)

// DownloadRepositoryPG implements domain.DownloadRepository backed by
// PostgreSQL. Status updates guard against leaving a terminal state in SQL,
// so a late MarkFailed cannot clobber a completed download.
type DownloadRepositoryPG struct {
	pool *pgxpool.Pool
}

func NewDownloadRepository(pool *pgxpool.Pool) *DownloadRepositoryPG {
	return &DownloadRepositoryPG{pool: pool}
}

// Create inserts a new download record.
func (r *DownloadRepositoryPG) Create(ctx context.Context, d *domain.Download) error {
	query := `
INSERT INTO downloads (id, user_id, url, format_id, title, status, file_path, error_message, requested_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		d.ID,
		d.UserID,
		d.URL,
		d.FormatID,
		d.Title,
		d.Status,
		d.FilePath,
		d.ErrorMessage,
		d.RequestedAt,
	)
	return err
}

// GetByID fetches a download by its identifier.
func (r *DownloadRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Download, error) {
	query := `
SELECT id, user_id, url, format_id, title, status, file_path, error_message, requested_at, updated_at
FROM downloads
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	var d domain.Download
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.URL,
		&d.FormatID,
		&d.Title,
		&d.Status,
		&d.FilePath,
		&d.ErrorMessage,
		&d.RequestedAt,
		&d.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// ListByUser returns a user's downloads, newest first.
func (r *DownloadRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Download, error) {
	query := `
SELECT id, user_id, url, format_id, title, status, file_path, error_message, requested_at, updated_at
FROM downloads
WHERE user_id = $1
ORDER BY requested_at DESC;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Download
	for rows.Next() {
		var d domain.Download
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.URL,
			&d.FormatID,
			&d.Title,
			&d.Status,
			&d.FilePath,
			&d.ErrorMessage,
			&d.RequestedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkRunning transitions a pending download to running.
func (r *DownloadRepositoryPG) MarkRunning(ctx context.Context, id string) error {
	query := `
UPDATE downloads
SET status = $2, updated_at = NOW()
WHERE id = $1 AND status = $3;
`
	_, err := r.pool.Exec(ctx, query, id, domain.DownloadStatusRunning, domain.DownloadStatusPending)
	return err
}

// MarkCompleted records the terminal success state with the resolved title
// and output path.
func (r *DownloadRepositoryPG) MarkCompleted(ctx context.Context, id, title, filePath string) error {
	query := `
UPDATE downloads
SET status = $2, title = $3, file_path = $4, updated_at = NOW()
WHERE id = $1 AND status NOT IN ($5, $6);
`
	_, err := r.pool.Exec(ctx, query, id,
		domain.DownloadStatusCompleted, title, filePath,
		domain.DownloadStatusCompleted, domain.DownloadStatusFailed,
	)
	return err
}

// MarkFailed records the terminal failure state with a human-readable error.
func (r *DownloadRepositoryPG) MarkFailed(ctx context.Context, id, errMsg string) error {
	query := `
UPDATE downloads
SET status = $2, error_message = $3, updated_at = NOW()
WHERE id = $1 AND status NOT IN ($4, $5);
`
	_, err := r.pool.Exec(ctx, query, id,
		domain.DownloadStatusFailed, errMsg,
		domain.DownloadStatusCompleted, domain.DownloadStatusFailed,
	)
	return err
}
