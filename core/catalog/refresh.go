package catalog

import (
	"io"
	"net/http"
	"time"

	"github.com/mudler/xlog"
)

// DefaultRegistryURL is the remote catalog document fetched by RefreshAsync.
const DefaultRegistryURL = "https://registry.ominix.ai/models_registry.json"

// refreshTimeout bounds the whole remote fetch; a registry document is
// small, anything slower is treated like an outage.
const refreshTimeout = 10 * time.Second

// RefreshAsync fetches an updated catalog document in the background and
// writes it to the override path so it takes effect on the next Load. Every
// failure mode is logged and swallowed: an unreachable or corrupt registry
// must never disturb the running process.
func (s *Store) RefreshAsync(url string) {
	if url == "" {
		url = DefaultRegistryURL
	}
	go s.Refresh(url)
}

// Refresh is the synchronous body of RefreshAsync. It reports nothing:
// the result is observable only through the override document.
func (s *Store) Refresh(url string) {
	client := &http.Client{Timeout: refreshTimeout}

	resp, err := client.Get(url)
	if err != nil {
		xlog.Debug("catalog refresh request failed", "url", url, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		xlog.Debug("catalog refresh returned non-success status", "url", url, "status", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		xlog.Debug("catalog refresh read failed", "url", url, "error", err)
		return
	}

	remote, err := ParseDocument(body, url)
	if err != nil {
		xlog.Debug("catalog refresh returned malformed document", "url", url, "error", err)
		return
	}

	if err := s.SaveOverride(remote); err != nil {
		xlog.Warn("catalog refresh could not save override", "error", err)
		return
	}
	xlog.Info("catalog refreshed", "url", url, "models", len(remote.Models))
}
