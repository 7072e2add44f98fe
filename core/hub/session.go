package hub

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
)

// Session is the shared mutable state of one in-flight model acquisition.
// The worker goroutine writes, the control thread reads; every numeric and
// boolean field is an independent atomic so a read never stalls behind a
// worker write. Only the two string fields sit behind a lock, held just for
// the single read or write.
type Session struct {
	ModelID string
	OpID    string

	active          atomic.Bool
	cancelRequested atomic.Bool
	completed       atomic.Bool
	failed          atomic.Bool

	progressBytes atomic.Uint64
	totalBytes    atomic.Uint64
	fileIndex     atomic.Uint64
	fileCount     atomic.Uint64

	mu          sync.Mutex
	currentFile string
	errMsg      string
}

// NewSession returns an idle session for one model id.
func NewSession(modelID string) *Session {
	return &Session{ModelID: modelID}
}

// Reset zeroes every field so the session can be reused for a retry. The
// previous run's counters have no effect on the new one.
func (s *Session) Reset() {
	s.active.Store(false)
	s.cancelRequested.Store(false)
	s.completed.Store(false)
	s.failed.Store(false)
	s.progressBytes.Store(0)
	s.totalBytes.Store(0)
	s.fileIndex.Store(0)
	s.fileCount.Store(0)
	s.mu.Lock()
	s.currentFile = ""
	s.errMsg = ""
	s.mu.Unlock()
}

// Cancel requests a cooperative stop. Safe from any goroutine at any time;
// the worker observes it at per-file and per-chunk checkpoints.
func (s *Session) Cancel() {
	s.cancelRequested.Store(true)
}

func (s *Session) Active() bool          { return s.active.Load() }
func (s *Session) CancelRequested() bool { return s.cancelRequested.Load() }
func (s *Session) Completed() bool       { return s.completed.Load() }
func (s *Session) Failed() bool          { return s.failed.Load() }

// Cancelled is derived: a cancellation races active/completed/failed all to
// false, so callers cannot read it from a single flag.
func (s *Session) Cancelled() bool {
	return s.cancelRequested.Load() && !s.completed.Load() && !s.failed.Load()
}

// Error returns the worker's terminal error message, if any.
func (s *Session) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// CurrentFile returns the path currently being fetched, for display.
func (s *Session) CurrentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentFile
}

// fail records the terminal error. The message is set at most once, before
// the failed flag is asserted, so readers that observe failed always see it.
func (s *Session) fail(msg string) {
	s.mu.Lock()
	if s.errMsg == "" {
		s.errMsg = msg
	}
	s.mu.Unlock()
	s.failed.Store(true)
}

func (s *Session) setCurrentFile(path string, index uint64) {
	s.mu.Lock()
	s.currentFile = path
	s.mu.Unlock()
	s.fileIndex.Store(index)
}

// addProgress advances the byte counter, never past a known total. Only
// the worker writes progress, so the load-then-store is not racy.
func (s *Session) addProgress(n int64) {
	if n <= 0 {
		return
	}
	cur := s.progressBytes.Add(uint64(n))
	if total := s.totalBytes.Load(); total > 0 && cur > total {
		s.progressBytes.Store(total)
	}
}

// Fraction is the overall progress in [0,1]; 0 while the total is unknown.
func (s *Session) Fraction() float64 {
	total := s.totalBytes.Load()
	if total == 0 {
		return 0
	}
	f := float64(s.progressBytes.Load()) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

// ProgressText renders the human-readable progress line shown next to the
// model while it downloads.
func (s *Session) ProgressText() string {
	pct := s.Fraction() * 100
	file := s.CurrentFile()
	if file == "" {
		return fmt.Sprintf("%.1f%%  (%s/%s)", pct,
			formatBytes(s.progressBytes.Load()), formatBytes(s.totalBytes.Load()))
	}
	return fmt.Sprintf("%.1f%%  %s", pct, file)
}

// Snapshot is a point-in-time copy of a session for lock-free consumption
// by a UI tick.
type Snapshot struct {
	ModelID       string
	OpID          string
	Active        bool
	Completed     bool
	Failed        bool
	Cancelled     bool
	ProgressBytes uint64
	TotalBytes    uint64
	FileIndex     uint64
	FileCount     uint64
	CurrentFile   string
	Error         string
	Fraction      float64
	Text          string
}

// Snapshot reads every field once and returns the projection; no lock is
// held by the caller afterwards.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ModelID:       s.ModelID,
		OpID:          s.OpID,
		Active:        s.active.Load(),
		Completed:     s.completed.Load(),
		Failed:        s.failed.Load(),
		Cancelled:     s.Cancelled(),
		ProgressBytes: s.progressBytes.Load(),
		TotalBytes:    s.totalBytes.Load(),
		FileIndex:     s.fileIndex.Load(),
		FileCount:     s.fileCount.Load(),
		CurrentFile:   s.CurrentFile(),
		Error:         s.Error(),
		Fraction:      s.Fraction(),
		Text:          s.ProgressText(),
	}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatUint(bytes, 10) + " B"
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
