package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var allowedExts = map[string]struct{}{
	"mp4":  {},
	"webm": {},
	"mkv":  {},
}

// Normalize turns a heterogeneous list of raw stream descriptors into a
// clean, ranked quality list. It is pure and deterministic: the same input
// always yields the same output.
//
// Descriptors with a disallowed container or no resolvable positive height
// are dropped, never emitted as zero-quality entries. The surviving options
// are sorted by height descending; ties keep their relative input order.
// When the raw list is empty, best is used as a single fallback descriptor
// if it is non-nil.
func Normalize(streams []StreamDescriptor, best *StreamDescriptor) []Option {
	if len(streams) == 0 && best != nil {
		streams = []StreamDescriptor{*best}
	}

	opts := make([]Option, 0, len(streams))
	for _, s := range streams {
		opt, ok := normalizeOne(s)
		if !ok {
			continue
		}
		opts = append(opts, opt)
	}

	// Stable: equal heights keep input order.
	sort.SliceStable(opts, func(i, j int) bool {
		return opts[i].height > opts[j].height
	})

	return opts
}

func normalizeOne(s StreamDescriptor) (Option, bool) {
	ext := strings.ToLower(strings.TrimSpace(s.Ext))
	if _, ok := allowedExts[ext]; !ok {
		return Option{}, false
	}

	height := resolveHeight(s)
	if height <= 0 {
		return Option{}, false
	}

	size := s.Filesize
	if size <= 0 {
		size = s.FilesizeApprox
	}
	if size < 0 {
		size = 0
	}

	codec := s.Codec
	if codec == "" {
		codec = "unknown"
	}

	fps := "N/A"
	if s.FPS > 0 {
		fps = strconv.Itoa(s.FPS)
	}

	return Option{
		FormatID:        s.ID,
		Ext:             ext,
		Quality:         qualityLabel(height),
		Filesize:        size,
		FilesizeDisplay: humanSize(size),
		Codec:           codec,
		FPS:             fps,
		height:          height,
	}, true
}

// resolveHeight prefers the numeric height field and falls back to a leading
// "<N>p" token in the free-text format note ("720p60fps" resolves to 720).
func resolveHeight(s StreamDescriptor) int {
	if s.Height > 0 {
		return s.Height
	}
	note := s.FormatNote
	idx := strings.IndexByte(note, 'p')
	if idx <= 0 {
		return 0
	}
	h, err := strconv.Atoi(note[:idx])
	if err != nil {
		return 0
	}
	return h
}

func qualityLabel(height int) string {
	switch {
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	default:
		return fmt.Sprintf("%dp", height)
	}
}

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

// humanSize renders the byte count using the largest unit whose value
// exceeds one, or "Unknown size" when the count is zero.
func humanSize(n int64) string {
	switch {
	case n > gb:
		return fmt.Sprintf("%.1f GB", float64(n)/float64(gb))
	case n > mb:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mb))
	case n > kb:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(kb))
	case n > 0:
		return fmt.Sprintf("%d B", n)
	default:
		return "Unknown size"
	}
}
