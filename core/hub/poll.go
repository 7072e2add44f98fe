package hub

import (
	"github.com/mudler/xlog"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
)

// PollResult is what one UI tick sees: a snapshot per live session and
// whether another tick is needed. There is no push notification from
// workers to the UI; polling is the only signal path.
type PollResult struct {
	Snapshots []Snapshot
	// Again is true while any session is still active; the caller must
	// schedule another poll.
	Again bool
}

// Poll snapshots every live session and drains the terminal ones: their
// persisted status is transitioned, the on-disk state re-checked, and the
// session dropped from the registry. Sessions whose cancellation raced the
// outcome flags are treated as cancelled, not failed.
func (s *Service) Poll() PollResult {
	var res PollResult

	for _, id := range s.sessions.Keys() {
		sess := s.sessions.Get(id)
		if sess == nil {
			continue
		}
		snap := sess.Snapshot()
		res.Snapshots = append(res.Snapshots, snap)

		if snap.Active {
			res.Again = true
			continue
		}

		switch {
		case snap.Completed:
			s.transition(id, catalog.StatusReady, "")
		case snap.Failed:
			s.transition(id, catalog.StatusError, snap.Error)
		case snap.Cancelled:
			s.transition(id, catalog.StatusNotDownloaded, "")
		default:
			// Idle session that never started; nothing to drain.
			continue
		}
		s.sessions.Delete(id)
	}

	return res
}

// transition persists a terminal status, reconciling against the
// filesystem so the stored state never contradicts what is on disk.
func (s *Service) transition(id string, status catalog.Status, errMsg string) {
	if s.local == nil {
		return
	}
	m := s.local.Get(id)
	if m == nil {
		return
	}

	if status == catalog.StatusReady && Scan(m.Entry) == NotDownloaded {
		// The worker reported success but the files are not there; trust
		// the disk.
		xlog.Warn("completed download left no files on disk", "model", id)
		status = catalog.StatusError
		errMsg = "download completed but no files were found on disk"
	}
	s.local.SetStatus(id, status, errMsg)
	xlog.Debug("model status transition", "model", id, "status", string(status))
}
