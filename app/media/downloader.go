package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	DefaultIdleTimeout = 60 * time.Second
	defaultExtension   = ".mp3"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".m4a": true, ".mp4": true, ".aac": true, ".ogg": true,
	".oga": true, ".opus": true, ".wav": true, ".flac": true, ".webm": true,
}

var mimeExtensionFallback = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/aac":   ".aac",
	"audio/ogg":   ".ogg",
	"audio/opus":  ".opus",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/flac":  ".flac",
	"audio/webm":  ".webm",
	"video/mp4":   ".mp4",
}

// Downloader streams remote audio to local files.
type Downloader struct {
	httpClient  *http.Client
	userAgent   string
	idleTimeout time.Duration
}

func NewDownloader(userAgent string, idleTimeout time.Duration) *Downloader {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Downloader{
		httpClient:  &http.Client{},
		userAgent:   userAgent,
		idleTimeout: idleTimeout,
	}
}

// Download fetches audioURL into the path returned by destFor, which receives
// the file extension resolved from the URL or the response content type. The
// transfer aborts with ErrDownloadStalled when no data arrives for the idle
// timeout. On any failure nothing is left at the destination.
func (d *Downloader) Download(ctx context.Context, audioURL string, destFor func(ext string) string) (string, int64, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	watchdog := time.AfterFunc(d.idleTimeout, func() { cancel(ErrDownloadStalled) })
	defer watchdog.Stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("invalid audio URL: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", 0, d.transferError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, &DownloadStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	dest := destFor(resolveExtension(audioURL, resp.Header.Get("Content-Type")))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create audio directory: %w", err)
	}

	partial := dest + ".part"
	file, err := os.Create(partial)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create audio file: %w", err)
	}

	written, copyErr := io.Copy(file, &idleReader{r: resp.Body, watchdog: watchdog, timeout: d.idleTimeout})
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		os.Remove(partial)
		return "", 0, d.transferError(ctx, copyErr)
	case closeErr != nil:
		os.Remove(partial)
		return "", 0, fmt.Errorf("failed to write audio file: %w", closeErr)
	}

	info, err := os.Stat(partial)
	if err != nil || info.Size() == 0 {
		os.Remove(partial)
		return "", 0, ErrEmptyDownload
	}

	if err := os.Rename(partial, dest); err != nil {
		os.Remove(partial)
		return "", 0, fmt.Errorf("failed to finalize audio file: %w", err)
	}

	slog.Debug("Audio downloaded", "url", audioURL, "path", dest, "size", humanize.Bytes(uint64(written)))

	return dest, info.Size(), nil
}

func (d *Downloader) transferError(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, ErrDownloadStalled) {
		return fmt.Errorf("%w: no data received for %s", ErrDownloadStalled, d.idleTimeout)
	}
	return fmt.Errorf("failed to download audio: %w", err)
}

type idleReader struct {
	r        io.Reader
	watchdog *time.Timer
	timeout  time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.watchdog.Reset(r.timeout)
	}
	return n, err
}

func resolveExtension(audioURL string, contentType string) string {
	if parsed, err := url.Parse(audioURL); err == nil {
		ext := strings.ToLower(path.Ext(parsed.Path))
		if audioExtensions[ext] {
			return ext
		}
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := mimeExtensionFallback[strings.ToLower(mediaType)]; ok {
			return ext
		}
	}

	return defaultExtension
}
