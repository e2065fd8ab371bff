package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Singh-Codes/youtube-downloader/internal/domain"
)

// DownloadRepositoryMemory implements domain.DownloadRepository with a
// mutex-guarded map. It backs tests and database-less deployments; the
// terminal-state guarantees match the PostgreSQL implementation.
type DownloadRepositoryMemory struct {
	mu        sync.RWMutex
	downloads map[string]domain.Download
}

func NewMemoryRepository() *DownloadRepositoryMemory {
	return &DownloadRepositoryMemory{downloads: make(map[string]domain.Download)}
}

func (r *DownloadRepositoryMemory) Create(_ context.Context, d *domain.Download) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	cp.UpdatedAt = cp.RequestedAt
	r.downloads[d.ID] = cp
	return nil
}

func (r *DownloadRepositoryMemory) GetByID(_ context.Context, id string) (*domain.Download, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.downloads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := d
	return &cp, nil
}

func (r *DownloadRepositoryMemory) ListByUser(_ context.Context, userID string) ([]domain.Download, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Download
	for _, d := range r.downloads {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.After(out[j].RequestedAt)
	})
	return out, nil
}

func (r *DownloadRepositoryMemory) MarkRunning(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.downloads[id]
	if !ok || d.Status != domain.DownloadStatusPending {
		return nil
	}
	d.Status = domain.DownloadStatusRunning
	d.UpdatedAt = time.Now().UTC()
	r.downloads[id] = d
	return nil
}

func (r *DownloadRepositoryMemory) MarkCompleted(_ context.Context, id, title, filePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.downloads[id]
	if !ok || d.Status.Terminal() {
		return nil
	}
	d.Status = domain.DownloadStatusCompleted
	d.Title = title
	d.FilePath = filePath
	d.UpdatedAt = time.Now().UTC()
	r.downloads[id] = d
	return nil
}

func (r *DownloadRepositoryMemory) MarkFailed(_ context.Context, id, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.downloads[id]
	if !ok || d.Status.Terminal() {
		return nil
	}
	d.Status = domain.DownloadStatusFailed
	d.ErrorMessage = errMsg
	d.UpdatedAt = time.Now().UTC()
	r.downloads[id] = d
	return nil
}
