// Package extractor wraps the media extraction engine behind a small
// gateway interface: probe a URL for metadata, or actually fetch one chosen
// format while streaming byte-level progress events.
package extractor

import (
	"context"

	"github.com/Singh-Codes/youtube-downloader/internal/format"
)

// ProbeResult carries the metadata resolved for a URL without fetching any
// media. Best, when present, is a single best-effort descriptor used as a
// fallback if Streams is empty.
type ProbeResult struct {
	Title   string
	Streams []format.StreamDescriptor
	Best    *format.StreamDescriptor
}

// Progress is one byte-level progress event emitted during a fetch.
// TotalBytes is zero when the total is unknown; Speed and ETASeconds are
// zero until enough data has flowed to estimate them.
type Progress struct {
	DownloadedBytes int64
	TotalBytes      int64
	Speed           float64
	ETASeconds      int64
	Filename        string
}

// ProgressFunc receives progress events. The gateway invokes it from a
// single goroutine per fetch, in emission order.
type ProgressFunc func(Progress)

// FetchResult reports what was actually written on a successful fetch. Ext
// is the container extension the engine settled on, which may differ from
// the requested format's nominal extension.
type FetchResult struct {
	Title string
	Ext   string
	Path  string
}

// Gateway resolves a URL to metadata and performs the actual media transfer.
type Gateway interface {
	Probe(ctx context.Context, url string) (*ProbeResult, error)
	Fetch(ctx context.Context, url, formatID, destDir string, onProgress ProgressFunc) (*FetchResult, error)
}
