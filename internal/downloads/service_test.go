package downloads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Singh-Codes/youtube-downloader/internal/adapter/repo"
	"github.com/Singh-Codes/youtube-downloader/internal/domain"
	"github.com/Singh-Codes/youtube-downloader/internal/extractor"
	"github.com/Singh-Codes/youtube-downloader/internal/format"
	"github.com/Singh-Codes/youtube-downloader/internal/progress"
)

type fakeGateway struct {
	probeTitle   string
	probeStreams []format.StreamDescriptor
	probeErr     error

	fetchErr    error
	fetchEvents []extractor.Progress
	fetchExt    string
}

func (g *fakeGateway) Probe(_ context.Context, _ string) (*extractor.ProbeResult, error) {
	if g.probeErr != nil {
		return nil, g.probeErr
	}
	return &extractor.ProbeResult{Title: g.probeTitle, Streams: g.probeStreams}, nil
}

func (g *fakeGateway) Fetch(_ context.Context, _, _, destDir string, onProgress extractor.ProgressFunc) (*extractor.FetchResult, error) {
	for _, p := range g.fetchEvents {
		onProgress(p)
	}
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	ext := g.fetchExt
	if ext == "" {
		ext = "mp4"
	}
	name := extractor.SanitizeFilename(g.probeTitle) + "." + ext
	path := filepath.Join(destDir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		return nil, err
	}
	return &extractor.FetchResult{Title: g.probeTitle, Ext: ext, Path: path}, nil
}

func newTestService(t *testing.T, g extractor.Gateway) (*Service, *repo.DownloadRepositoryMemory, *progress.Registry) {
	t.Helper()
	store := repo.NewMemoryRepository()
	registry := progress.NewRegistry()
	svc := NewService(store, registry, g, t.TempDir(), 2, zerolog.Nop())
	return svc, store, registry
}

func TestSubmitProbeFailureCreatesNoRecord(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{probeErr: errors.New("video unavailable")}
	svc, store, _ := newTestService(t, g)

	_, err := svc.Submit(ctx, "u1", "https://example.com/watch?v=x", "22")
	if !errors.Is(err, domain.ErrProbeFailed) {
		t.Fatalf("Submit() error = %v, want ErrProbeFailed", err)
	}
	if errors.Is(err, domain.ErrNoFormats) {
		t.Fatalf("probe failure must be distinguishable from no-formats")
	}
	if list, _ := store.ListByUser(ctx, "u1"); len(list) != 0 {
		t.Fatalf("Submit() persisted %d records after probe failure, want 0", len(list))
	}
}

func TestSubmitRunsWorkerToCompletion(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{
		probeTitle: "My Video",
		fetchEvents: []extractor.Progress{
			{DownloadedBytes: 10, TotalBytes: 100, Filename: "My_Video.mp4"},
			{DownloadedBytes: 100, TotalBytes: 100, Filename: "My_Video.mp4"},
		},
	}
	svc, store, registry := newTestService(t, g)

	id, err := svc.Submit(ctx, "u1", "https://example.com/watch?v=x", "22")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	svc.Wait()

	d, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if d.Status != domain.DownloadStatusCompleted {
		t.Fatalf("Status = %q, want completed (error=%q)", d.Status, d.ErrorMessage)
	}
	if d.Title != "My Video" || d.FilePath == "" {
		t.Fatalf("completed download = %+v, want title and path", d)
	}
	if !strings.Contains(d.FilePath, string(filepath.Separator)+"u1"+string(filepath.Separator)) {
		t.Fatalf("FilePath = %q, want per-user subdirectory", d.FilePath)
	}
	if _, err := os.Stat(d.FilePath); err != nil {
		t.Fatalf("output file missing: %v", err)
	}

	snap, ok := registry.Get(id)
	if !ok || snap.Status != progress.StateFinished {
		t.Fatalf("registry snapshot = %+v, want finished", snap)
	}
}

func TestSubmitFetchFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{probeTitle: "My Video", fetchErr: errors.New("403 forbidden")}
	svc, store, registry := newTestService(t, g)

	id, err := svc.Submit(ctx, "u1", "https://example.com/watch?v=x", "22")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	svc.Wait()

	d, _ := store.GetByID(ctx, id)
	if d.Status != domain.DownloadStatusFailed {
		t.Fatalf("Status = %q, want failed", d.Status)
	}
	if d.ErrorMessage == "" {
		t.Fatalf("ErrorMessage empty after failed fetch")
	}
	snap, ok := registry.Get(id)
	if !ok || snap.Status != progress.StateError {
		t.Fatalf("registry snapshot = %+v, want error", snap)
	}
}

func TestStatusPrefersLiveSnapshot(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{probeTitle: "My Video"}
	svc, store, registry := newTestService(t, g)

	d := &domain.Download{ID: "d1", UserID: "u1", Status: domain.DownloadStatusRunning}
	if err := store.Create(ctx, d); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	registry.Set("d1", progress.Snapshot{Status: progress.StateDownloading, DownloadedBytes: 42, TotalBytes: 100})

	view, err := svc.Status(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if view.Live == nil || view.Live.DownloadedBytes != 42 {
		t.Fatalf("Status() = %+v, want live snapshot", view)
	}
}

func TestStatusFallsBackToStoredRecord(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t, &fakeGateway{})

	d := &domain.Download{ID: "d1", UserID: "u1", Status: domain.DownloadStatusCompleted, FilePath: "/data/u1/x.mp4"}
	if err := store.Create(ctx, d); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	view, err := svc.Status(ctx, "u1", "d1")
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if view.Live != nil {
		t.Fatalf("Status() returned live snapshot, want stored fallback")
	}
	if view.Stored == nil || view.Stored.Status != domain.DownloadStatusCompleted || view.Stored.FilePath == "" {
		t.Fatalf("Status() stored = %+v, want completed with path", view.Stored)
	}
}

func TestStatusUnknownAndForeignIDs(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t, &fakeGateway{})

	if _, err := svc.Status(ctx, "u1", "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Status(unknown) error = %v, want ErrNotFound", err)
	}

	d := &domain.Download{ID: "d1", UserID: "owner", Status: domain.DownloadStatusCompleted}
	if err := store.Create(ctx, d); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := svc.Status(ctx, "intruder", "d1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Status(foreign) error = %v, want ErrUnauthorized", err)
	}
}

func TestFormatsDistinguishesProbeAndEmpty(t *testing.T) {
	ctx := context.Background()

	svc, _, _ := newTestService(t, &fakeGateway{probeErr: errors.New("geo blocked")})
	if _, _, err := svc.Formats(ctx, "https://example.com/x"); !errors.Is(err, domain.ErrProbeFailed) {
		t.Fatalf("Formats() error = %v, want ErrProbeFailed", err)
	}

	svc, _, _ = newTestService(t, &fakeGateway{
		probeTitle:   "My Video",
		probeStreams: []format.StreamDescriptor{{ID: "1", Ext: "avi", Height: 720}},
	})
	if _, _, err := svc.Formats(ctx, "https://example.com/x"); !errors.Is(err, domain.ErrNoFormats) {
		t.Fatalf("Formats() error = %v, want ErrNoFormats", err)
	}

	svc, _, _ = newTestService(t, &fakeGateway{
		probeTitle: "My Video",
		probeStreams: []format.StreamDescriptor{
			{ID: "22", Ext: "mp4", Height: 720},
			{ID: "37", Ext: "mp4", Height: 1080},
		},
	})
	title, opts, err := svc.Formats(ctx, "https://example.com/x")
	if err != nil {
		t.Fatalf("Formats() error: %v", err)
	}
	if title != "My Video" {
		t.Fatalf("title = %q, want %q", title, "My Video")
	}
	if len(opts) != 2 || opts[0].FormatID != "37" {
		t.Fatalf("Formats() = %+v, want ranked options", opts)
	}
}
