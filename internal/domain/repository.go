package domain

import "context"

// DownloadRepository defines persistence for download entities. It is the
// durable source of truth for job state; the progress registry is only a
// volatile overlay on top of it.
//
// Mutations for the same id are serialized by the implementation. MarkRunning,
// MarkCompleted and MarkFailed must refuse to move a download out of a
// terminal status.
type DownloadRepository interface {
	Create(ctx context.Context, d *Download) error
	GetByID(ctx context.Context, id string) (*Download, error)
	ListByUser(ctx context.Context, userID string) ([]Download, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, title, filePath string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
}
