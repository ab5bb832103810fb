// Package download persists remote content to disk: a retrying file
// downloader for binary assets and a pipeline that walks a course's
// chapters and exercises.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dcget/dc-downloader/internal/logger"
	"github.com/dcget/dc-downloader/internal/platform"
)

const (
	// downloadTimeout bounds a single transfer attempt.
	downloadTimeout = 10 * time.Minute

	// progressChunk is the transfer granularity used for progress logging.
	progressChunk = 1 << 20
)

// FileDownloader fetches a URL to a local file with bounded retries.
type FileDownloader struct {
	client     *http.Client
	maxRetries int
	overwrite  bool
	log        *logger.Logger
}

// NewFileDownloader creates a downloader performing at most maxRetries
// attempts per file. When overwrite is false, existing files are skipped.
func NewFileDownloader(maxRetries int, overwrite bool, log *logger.Logger) *FileDownloader {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &FileDownloader{
		client:     &http.Client{Timeout: downloadTimeout},
		maxRetries: maxRetries,
		overwrite:  overwrite,
		log:        log,
	}
}

// Download fetches url into dest, creating parent directories as needed.
// An existing dest is left untouched unless the downloader overwrites.
// The transfer goes through a uniquely named temp file in the target
// directory and is renamed into place only once complete, so dest is
// never observable half-written.
func (d *FileDownloader) Download(ctx context.Context, url, dest string) error {
	if !d.overwrite && platform.FileExists(dest) {
		d.log.Debug("file exists, skipping", "path", dest)
		return nil
	}
	if err := platform.EnsureDir(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.fetchOnce(ctx, url, dest); err != nil {
			lastErr = err
			d.log.Warn("download attempt failed",
				"url", url, "attempt", attempt, "max", d.maxRetries, "error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("download %s after %d attempts: %w", url, d.maxRetries, lastErr)
}

func (d *FileDownloader) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp := dest + "." + uuid.NewString() + ".part"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, platform.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := d.copyWithProgress(out, resp.Body, resp.ContentLength, dest); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("flush temp file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func (d *FileDownloader) copyWithProgress(dst io.Writer, src io.Reader, total int64, dest string) error {
	var written int64
	buf := make([]byte, progressChunk)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write: %w", werr)
			}
			written += int64(n)
			if total > 0 {
				d.log.Debug("downloading",
					"path", filepath.Base(dest),
					"progress", fmt.Sprintf("%d%%", written*100/total))
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
	}
}
