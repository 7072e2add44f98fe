package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/mudler/xlog"
)

// chunkSize is the unit of both disk writes and cancellation checks.
const chunkSize = 64 * 1024

// FetchFile streams one remote file to dest, creating parent directories as
// needed. cancel is checked before every chunk; on cancellation the partial
// file is removed and ErrCancelled returned. onChunk receives the size of
// each chunk written so the caller can advance its running total.
func FetchFile(ctx context.Context, client *http.Client, url, dest, token string, cancel *atomic.Bool, onChunk func(n int64)) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return 0, fmt.Errorf("failed to create directory for %q: %w", dest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %q: %w", dest, err)
	}

	var written int64
	buf := make([]byte, chunkSize)
	for {
		if cancel != nil && cancel.Load() {
			out.Close()
			removePartial(dest)
			return written, ErrCancelled
		}

		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				return written, fmt.Errorf("failed to write %q: %w", dest, werr)
			}
			written += int64(n)
			if onChunk != nil {
				onChunk(int64(n))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			return written, fmt.Errorf("fetching %s: %w", url, rerr)
		}
	}

	if err := out.Close(); err != nil {
		return written, fmt.Errorf("failed to close %q: %w", dest, err)
	}
	return written, nil
}

func removePartial(dest string) {
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		xlog.Warn("failed to remove partial download", "path", dest, "error", err)
	}
}
