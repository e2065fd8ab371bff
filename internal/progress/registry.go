// Package progress keeps the latest in-flight fetch state per download.
//
// The registry is a volatile, high-frequency overlay on top of the persisted
// download store: workers overwrite the entry for their download id on every
// gateway event, status queries read the most recent value. Only the latest
// snapshot per id is retained, never a history.
package progress

import "sync"

// State tags a snapshot.
type State string

const (
	StateDownloading State = "downloading"
	StateFinished    State = "finished"
	StateError       State = "error"
)

// Snapshot is the latest known state of one in-flight or just-finished
// fetch. Only the fields relevant to its State carry meaning: byte counts,
// speed and ETA for downloading, the final filename for finished, the error
// text for error.
type Snapshot struct {
	Status          State   `json:"status"`
	DownloadedBytes int64   `json:"downloaded_bytes,omitempty"`
	TotalBytes      int64   `json:"total_bytes,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	ETASeconds      int64   `json:"eta,omitempty"`
	Filename        string  `json:"filename,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// Registry is a concurrency-safe map of download id to latest snapshot.
// Snapshots are stored and returned by value, so a reader can never observe
// a partially written entry. Critical sections only copy a struct; no I/O
// happens under the lock.
type Registry struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewRegistry() *Registry {
	return &Registry{snapshots: make(map[string]Snapshot)}
}

// Set overwrites the snapshot for id.
func (r *Registry) Set(id string, s Snapshot) {
	r.mu.Lock()
	r.snapshots[id] = s
	r.mu.Unlock()
}

// Get returns the most recently written snapshot for id, if any.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.RLock()
	s, ok := r.snapshots[id]
	r.mu.RUnlock()
	return s, ok
}
