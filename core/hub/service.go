// Package hub coordinates model acquisition: one short-lived worker
// goroutine per downloading model, a shared session registry read by the
// control thread, and the filesystem reconciler that decides what is
// actually present on disk.
package hub

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
	"github.com/OminiX-ai/ominix-hub/pkg/converter"
	"github.com/OminiX-ai/ominix-hub/pkg/downloader"
	"github.com/OminiX-ai/ominix-hub/pkg/xsync"
)

// ErrAlreadyDownloading reports a start request for a model whose session
// is still active.
var ErrAlreadyDownloading = errors.New("model is already downloading")

// Service owns the download sessions of all models. It is safe for use
// from one control thread plus the workers it spawns.
type Service struct {
	sessions *xsync.SyncedMap[string, *Session]
	local    *catalog.LocalConfig

	listClient  *http.Client
	fetchClient *http.Client
}

// NewService returns a hub service persisting status transitions into
// local.
func NewService(local *catalog.LocalConfig) *Service {
	return &Service{
		sessions:    xsync.NewSyncedMap[string, *Session](),
		local:       local,
		listClient:  downloader.NewListClient(),
		fetchClient: downloader.NewFetchClient(),
	}
}

// Session returns the live session for a model id, or nil.
func (s *Service) Session(modelID string) *Session {
	return s.sessions.Get(modelID)
}

// Start begins acquiring a model. Manual sources never touch the network:
// their session is terminal immediately, carrying installation guidance.
// The entry is copied into the worker so the caller's catalog snapshot can
// be discarded freely.
func (s *Service) Start(entry catalog.Entry) (*Session, error) {
	sess := s.sessions.Get(entry.ID)
	if sess != nil && sess.Active() {
		return sess, ErrAlreadyDownloading
	}
	if sess == nil {
		sess = NewSession(entry.ID)
		s.sessions.Set(entry.ID, sess)
	}
	sess.Reset()
	sess.OpID = uuid.New().String()

	if entry.Source.Kind == catalog.SourceManual {
		sess.fail(fmt.Sprintf("%s requires manual installation; see the model description for instructions", entry.Name))
		return sess, nil
	}
	if len(entry.Source.AllURLs()) == 0 {
		sess.fail(fmt.Sprintf("%s has no download source configured", entry.Name))
		return sess, nil
	}

	s.memoryPreflight(entry)

	sess.active.Store(true)
	if s.local != nil {
		s.local.SetStatus(entry.ID, catalog.StatusDownloading, "")
	}

	xlog.Info("starting model download", "model", entry.ID, "op", sess.OpID, "source", string(entry.Source.Kind))
	go s.worker(cloneEntry(entry), sess)
	return sess, nil
}

// Cancel requests cancellation of a model's download, if one is running.
func (s *Service) Cancel(modelID string) {
	if sess := s.sessions.Get(modelID); sess != nil {
		xlog.Info("cancelling model download", "model", modelID)
		sess.Cancel()
	}
}

// worker drives listing and fetching across the candidate URLs, in order.
// Each candidate restarts file enumeration from zero; nothing is carried
// over from a failed attempt.
func (s *Service) worker(entry catalog.Entry, sess *Session) {
	defer sess.active.Store(false)

	token := downloader.Token()
	ctx := context.Background()
	candidates := entry.Source.AllURLs()

	var lastErr error
	for i, candidate := range candidates {
		if sess.CancelRequested() {
			if i > 0 {
				// A failed earlier candidate may have left partial files
				// behind; a cancelled session must not.
				removeAttemptDir(entry.Storage.ExpandedPath())
			}
			xlog.Info("model download cancelled", "model", entry.ID, "op", sess.OpID)
			return
		}
		if i > 0 {
			xlog.Info("trying backup URL", "model", entry.ID, "candidate", candidate)
			sess.progressBytes.Store(0)
			sess.totalBytes.Store(0)
			sess.setCurrentFile("", 0)
		}

		err := s.attempt(ctx, entry, candidate, token, sess)
		if err == nil {
			sess.completed.Store(true)
			xlog.Info("model download completed", "model", entry.ID, "op", sess.OpID)
			return
		}
		if errors.Is(err, downloader.ErrCancelled) {
			xlog.Info("model download cancelled", "model", entry.ID, "op", sess.OpID)
			return
		}
		lastErr = err
		xlog.Warn("download candidate failed", "model", entry.ID, "candidate", candidate, "error", err)
	}

	sess.fail(lastErr.Error())
	xlog.Error("model download failed", "model", entry.ID, "op", sess.OpID, "error", lastErr)
}

// attempt downloads the whole model from one candidate URL. Conversion
// sources stage under a temporary directory that is removed whether the
// conversion succeeds or not.
func (s *Service) attempt(ctx context.Context, entry catalog.Entry, candidate, token string, sess *Session) error {
	dest := entry.Storage.ExpandedPath()

	downloadDir := dest
	var staging string
	if entry.Source.Convert != "" {
		var err error
		staging, err = os.MkdirTemp("", "ominix-staging-")
		if err != nil {
			return fmt.Errorf("failed to create staging directory: %w", err)
		}
		defer os.RemoveAll(staging)
		downloadDir = staging
	}

	files, err := downloader.ListFiles(ctx, s.listClient, entry.Source, candidate, token)
	if err != nil {
		return err
	}

	var total uint64
	for _, f := range files {
		total += f.Size
	}
	sess.totalBytes.Store(total)
	sess.fileCount.Store(uint64(len(files)))

	for i, f := range files {
		if sess.CancelRequested() {
			removeAttemptDir(downloadDir)
			return downloader.ErrCancelled
		}
		sess.setCurrentFile(f.Path, uint64(i))

		url := downloader.FileURL(entry.Source, candidate, f)
		xlog.Debug("downloading file", "model", entry.ID, "file", f.Path, "index", i+1, "of", len(files))
		_, err := downloader.FetchFile(ctx, s.fetchClient, url, filepath.Join(downloadDir, f.Path), token, &sess.cancelRequested, sess.addProgress)
		if err != nil {
			if errors.Is(err, downloader.ErrCancelled) {
				removeAttemptDir(downloadDir)
			}
			return err
		}
	}

	if entry.Source.Convert != "" {
		conv, err := converter.Get(entry.Source.Convert)
		if err != nil {
			return err
		}
		xlog.Info("converting downloaded checkpoint", "model", entry.ID, "converter", entry.Source.Convert)
		if err := conv.Convert(staging, dest); err != nil {
			return fmt.Errorf("conversion failed for %s: %w", entry.ID, err)
		}
		sess.progressBytes.Store(sess.totalBytes.Load())
	}

	return nil
}

// memoryPreflight warns when a model's declared memory requirement exceeds
// what the host can currently offer. Advisory only.
func (s *Service) memoryPreflight(entry catalog.Entry) {
	if entry.Runtime.MemoryGB <= 0 {
		return
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	required := uint64(entry.Runtime.MemoryGB * 1024 * 1024 * 1024)
	if required > vm.Total {
		xlog.Warn("model may not fit in memory",
			"model", entry.ID,
			"required", formatBytes(required),
			"total", formatBytes(vm.Total))
	}
}

func removeAttemptDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		xlog.Warn("failed to remove partial download directory", "path", dir, "error", err)
	}
}

// cloneEntry deep-copies the slices of an entry so the worker holds no
// reference into the caller's catalog snapshot.
func cloneEntry(e catalog.Entry) catalog.Entry {
	e.Tags = append([]string(nil), e.Tags...)
	e.Source.BackupURLs = append([]string(nil), e.Source.BackupURLs...)
	e.Runtime.Platforms = append([]string(nil), e.Runtime.Platforms...)
	return e
}
