package hub

import (
	"os"
	"strings"
	"time"

	"github.com/mudler/xlog"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
)

// DiskState is the reconciler's verdict about one model's storage
// directory. It is derived from the filesystem alone, never from session
// flags or persisted status.
type DiskState int

const (
	NotDownloaded DiskState = iota
	Downloaded
)

// Scan inspects a model's storage location. A model counts as downloaded
// when its directory exists and holds at least one entry that is not a
// hidden file.
func Scan(entry catalog.Entry) DiskState {
	path := entry.Storage.ExpandedPath()
	entries, err := os.ReadDir(path)
	if err != nil {
		return NotDownloaded
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			return Downloaded
		}
	}
	return NotDownloaded
}

// StartupScan reconciles every model in the local config against the disk.
// It deliberately overrides a stale "downloading" left behind by a crashed
// run: at process start no session exists, so the disk is the only truth.
func (s *Service) StartupScan() {
	if s.local == nil {
		return
	}
	s.local.UpdateAll(reconcileStatus)
}

// Rescan refreshes one model's persisted status from the disk, used after
// removal or external tampering. It may run from the watcher goroutine, so
// the mutation goes through the config's locked update path.
func (s *Service) Rescan(id string) {
	if s.local == nil {
		return
	}
	s.local.Update(id, reconcileStatus)
}

// Remove deletes a model's storage directory and reconciles. The session
// registry is untouched; callers cancel any active session first.
func (s *Service) Remove(entry catalog.Entry) error {
	path := entry.Storage.ExpandedPath()
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	xlog.Info("removed model files", "model", entry.ID, "path", path)
	s.Rescan(entry.ID)
	return nil
}

func reconcileStatus(m *catalog.LocalModel) {
	m.LastChecked = time.Now().UTC().Format(time.RFC3339)
	switch Scan(m.Entry) {
	case Downloaded:
		m.Status = catalog.StatusReady
		m.ErrorMessage = ""
	case NotDownloaded:
		// An error status survives a scan so the message stays visible;
		// anything else collapses to not downloaded.
		if m.Status != catalog.StatusError {
			m.Status = catalog.StatusNotDownloaded
		}
	}
}
