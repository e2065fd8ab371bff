// Package downloads owns the download job lifecycle: submission, worker
// dispatch, progress reporting and status queries.
package downloads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Singh-Codes/youtube-downloader/internal/domain"
	"github.com/Singh-Codes/youtube-downloader/internal/extractor"
	"github.com/Singh-Codes/youtube-downloader/internal/format"
	"github.com/Singh-Codes/youtube-downloader/internal/progress"
)

// Service orchestrates download jobs. Exactly one worker goroutine is
// dispatched per accepted submission; admission beyond the configured
// concurrency cap waits inside the worker, never in Submit.
type Service struct {
	repo     domain.DownloadRepository
	registry *progress.Registry
	gateway  extractor.Gateway
	baseDir  string
	sem      chan struct{}
	wg       sync.WaitGroup
	logger   zerolog.Logger
}

func NewService(repo domain.DownloadRepository, registry *progress.Registry, gateway extractor.Gateway, baseDir string, maxConcurrent int, logger zerolog.Logger) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		repo:     repo,
		registry: registry,
		gateway:  gateway,
		baseDir:  baseDir,
		sem:      make(chan struct{}, maxConcurrent),
		logger:   logger.With().Str("component", "downloads").Logger(),
	}
}

// Submit probes the URL for its title, persists a pending download and
// dispatches a worker. It returns the new download id immediately; the
// fetch itself runs in the background. A failed probe creates no record.
func (s *Service) Submit(ctx context.Context, userID, url, formatID string) (string, error) {
	if userID == "" {
		return "", domain.ErrUnauthorized
	}

	probe, err := s.gateway.Probe(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProbeFailed, err)
	}

	d := &domain.Download{
		ID:          uuid.NewString(),
		UserID:      userID,
		URL:         url,
		FormatID:    formatID,
		Title:       probe.Title,
		Status:      domain.DownloadStatusPending,
		RequestedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return "", fmt.Errorf("create download: %w", err)
	}

	s.wg.Add(1)
	go s.run(d.ID, userID, url, formatID)

	s.logger.Info().Str("download_id", d.ID).Str("user_id", userID).Str("format_id", formatID).Msg("download submitted")
	return d.ID, nil
}

// run is the worker body. It always ends in exactly one of MarkCompleted or
// MarkFailed; it never terminates silently.
func (s *Service) run(id, userID, url, formatID string) {
	defer s.wg.Done()

	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	ctx := context.Background()
	if err := s.repo.MarkRunning(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("download_id", id).Msg("mark running")
	}

	destDir := filepath.Join(s.baseDir, userID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		s.fail(ctx, id, fmt.Sprintf("create destination directory: %v", err))
		return
	}

	res, err := s.gateway.Fetch(ctx, url, formatID, destDir, func(p extractor.Progress) {
		s.registry.Set(id, progress.Snapshot{
			Status:          progress.StateDownloading,
			DownloadedBytes: p.DownloadedBytes,
			TotalBytes:      p.TotalBytes,
			Speed:           p.Speed,
			ETASeconds:      p.ETASeconds,
			Filename:        p.Filename,
		})
	})
	if err != nil {
		s.fail(ctx, id, err.Error())
		return
	}

	s.registry.Set(id, progress.Snapshot{Status: progress.StateFinished, Filename: filepath.Base(res.Path)})
	if err := s.repo.MarkCompleted(ctx, id, res.Title, res.Path); err != nil {
		s.logger.Error().Err(err).Str("download_id", id).Msg("mark completed")
	}
	s.logger.Info().Str("download_id", id).Str("path", res.Path).Msg("download completed")
}

func (s *Service) fail(ctx context.Context, id, msg string) {
	s.registry.Set(id, progress.Snapshot{Status: progress.StateError, Error: msg})
	if err := s.repo.MarkFailed(ctx, id, msg); err != nil {
		s.logger.Error().Err(err).Str("download_id", id).Msg("mark failed")
	}
	s.logger.Warn().Str("download_id", id).Str("error", msg).Msg("download failed")
}

// StatusView is the answer to a progress query: either a live snapshot from
// the registry or, once no snapshot exists (e.g. after a restart), the
// stored download record.
type StatusView struct {
	Live   *progress.Snapshot
	Stored *domain.Download
}

// Status returns the progress view for a download owned by userID. Unknown
// ids yield ErrNotFound; ids owned by someone else yield ErrUnauthorized
// without disclosing the record.
func (s *Service) Status(ctx context.Context, userID, id string) (*StatusView, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	if snap, ok := s.registry.Get(id); ok {
		return &StatusView{Live: &snap}, nil
	}
	return &StatusView{Stored: d}, nil
}

// Get returns the stored download owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Download, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return d, nil
}

// List returns userID's download history, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Download, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Formats probes the URL and returns its title with the normalized,
// ranked quality list. Probe failures and an empty normalized list are
// distinct errors so callers can tell "couldn't reach it" from "nothing
// downloadable".
func (s *Service) Formats(ctx context.Context, url string) (string, []format.Option, error) {
	probe, err := s.gateway.Probe(ctx, url)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrProbeFailed, err)
	}
	opts := format.Normalize(probe.Streams, probe.Best)
	if len(opts) == 0 {
		return "", nil, domain.ErrNoFormats
	}
	return probe.Title, opts, nil
}

// Wait blocks until all dispatched workers have finished. Used during
// graceful shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}
