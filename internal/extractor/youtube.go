package extractor

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"

	"github.com/Singh-Codes/youtube-downloader/internal/format"
)

// progressInterval throttles how often fetch progress events are emitted.
const progressInterval = 250 * time.Millisecond

// socketTimeout bounds dialing and header waits on extraction calls. A
// whole-request timeout would cut long media transfers short, so none is set.
const socketTimeout = 30 * time.Second

// Client implements Gateway on top of the youtube extraction library.
type Client struct {
	yt           youtube.Client
	probeTimeout time.Duration
	logger       zerolog.Logger
}

func NewClient(probeTimeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		yt: youtube.Client{
			HTTPClient: &http.Client{
				Transport: &http.Transport{
					Proxy: http.ProxyFromEnvironment,
					DialContext: (&net.Dialer{
						Timeout:   socketTimeout,
						KeepAlive: 30 * time.Second,
					}).DialContext,
					TLSHandshakeTimeout:   10 * time.Second,
					ResponseHeaderTimeout: socketTimeout,
					IdleConnTimeout:       90 * time.Second,
				},
			},
		},
		probeTimeout: probeTimeout,
		logger:       logger.With().Str("component", "extractor").Logger(),
	}
}

// Probe resolves metadata for url without fetching any media. The call is
// bounded by the configured probe timeout.
func (c *Client) Probe(ctx context.Context, url string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	video, err := c.yt.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", url, err)
	}

	streams := make([]format.StreamDescriptor, 0, len(video.Formats))
	for _, f := range video.Formats {
		streams = append(streams, descriptorFromFormat(f))
	}

	return &ProbeResult{Title: video.Title, Streams: streams}, nil
}

// Fetch downloads the chosen format into destDir, emitting progress events
// along the way. The destination file name is derived from the resolved
// title and the container extension the engine reports, not from the
// request.
func (c *Client) Fetch(ctx context.Context, url, formatID, destDir string, onProgress ProgressFunc) (*FetchResult, error) {
	video, err := c.yt.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", url, err)
	}

	itag, err := strconv.Atoi(formatID)
	if err != nil {
		return nil, fmt.Errorf("invalid format id %q", formatID)
	}
	f := formatByItag(video.Formats, itag)
	if f == nil {
		return nil, fmt.Errorf("format %q not offered for %s", formatID, url)
	}

	stream, total, err := c.yt.GetStreamContext(ctx, video, f)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	ext := extFromMimeType(f.MimeType)
	filename := SanitizeFilename(video.Title) + "." + ext
	path := filepath.Join(destDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if err := c.copyWithProgress(file, stream, total, filename, onProgress); err != nil {
		os.Remove(path)
		return nil, err
	}

	c.logger.Debug().Str("path", path).Int64("bytes", total).Msg("fetch complete")
	return &FetchResult{Title: video.Title, Ext: ext, Path: path}, nil
}

func (c *Client) copyWithProgress(dst io.Writer, src io.Reader, total int64, filename string, onProgress ProgressFunc) error {
	start := time.Now()
	lastEmit := time.Time{}
	var written int64

	emit := func() {
		if onProgress == nil {
			return
		}
		elapsed := time.Since(start).Seconds()
		var speed float64
		var eta int64
		if elapsed > 0 {
			speed = float64(written) / elapsed
		}
		if speed > 0 && total > written {
			eta = int64(float64(total-written) / speed)
		}
		onProgress(Progress{
			DownloadedBytes: written,
			TotalBytes:      total,
			Speed:           speed,
			ETASeconds:      eta,
			Filename:        filename,
		})
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write %s: %w", filename, werr)
			}
			written += int64(n)
			if time.Since(lastEmit) >= progressInterval {
				emit()
				lastEmit = time.Now()
			}
		}
		if err == io.EOF {
			emit()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// formatByItag picks the first offered format with the given itag, or nil
// when the video does not offer it.
func formatByItag(formats youtube.FormatList, itag int) *youtube.Format {
	matches := formats.Itag(itag)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}

func descriptorFromFormat(f youtube.Format) format.StreamDescriptor {
	return format.StreamDescriptor{
		ID:         strconv.Itoa(f.ItagNo),
		Ext:        extFromMimeType(f.MimeType),
		Height:     f.Height,
		FormatNote: f.QualityLabel,
		Filesize:   f.ContentLength,
		Codec:      codecFromMimeType(f.MimeType),
		FPS:        f.FPS,
	}
}

// extFromMimeType extracts the container from a MIME type such as
// `video/mp4; codecs="avc1.640028"`.
func extFromMimeType(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	_, sub, ok := strings.Cut(strings.TrimSpace(base), "/")
	if !ok || sub == "" {
		return "mp4"
	}
	return strings.ToLower(strings.TrimSpace(sub))
}

func codecFromMimeType(mime string) string {
	_, params, ok := strings.Cut(mime, ";")
	if !ok {
		return "unknown"
	}
	params = strings.TrimSpace(params)
	const prefix = `codecs="`
	if !strings.HasPrefix(params, prefix) {
		return "unknown"
	}
	codec := strings.TrimPrefix(params, prefix)
	codec = strings.TrimSuffix(codec, `"`)
	if codec == "" {
		return "unknown"
	}
	return codec
}

// SanitizeFilename strips path separators and other characters that are not
// safe in a file name derived from an arbitrary video title.
func SanitizeFilename(name string) string {
	safe := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	safe = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return -1
		}
		return r
	}, safe)
	if safe == "" {
		return "download"
	}
	return safe
}
