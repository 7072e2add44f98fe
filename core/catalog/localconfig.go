package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/mudler/xlog"
)

// Status is the persisted download state of one model.
type Status string

const (
	StatusNotDownloaded Status = "not_downloaded"
	StatusDownloading   Status = "downloading"
	StatusReady         Status = "ready"
	StatusError         Status = "error"
)

func (s Status) Label() string {
	switch s {
	case StatusNotDownloaded:
		return "Not Downloaded"
	case StatusDownloading:
		return "Downloading..."
	case StatusReady:
		return "Ready"
	case StatusError:
		return "Error"
	}
	return string(s)
}

// LocalModel is one entry of the local models config: a catalog entry plus
// its mutable persisted status.
type LocalModel struct {
	Entry
	Status         Status `json:"status"`
	ErrorMessage   string `json:"error_message,omitempty"`
	LastDownloaded string `json:"last_downloaded,omitempty"`
	LastChecked    string `json:"last_checked,omitempty"`
}

// LocalConfig is the disk-backed "installed models" view. The whole
// document is rewritten after every status transition, under a file lock so
// concurrent processes never interleave writes. The mutex covers in-process
// mutation and the marshal that follows it: status transitions come from
// the control thread while rescans may come from a watcher goroutine.
type LocalConfig struct {
	Version string        `json:"version"`
	Models  []*LocalModel `json:"models"`

	mu   sync.Mutex
	path string
	lock *flock.Flock
}

const localConfigVersion = "1.0.0"

// LoadLocalConfig reads the local models document from dir, or starts an
// empty one when the file is missing or unparseable. The catalog entries
// are merged in so every known model has a row.
func LoadLocalConfig(dir string, cat *Catalog) *LocalConfig {
	if dir == "" {
		dir = DefaultConfigDir()
	}
	path := filepath.Join(dir, LocalConfigFilename)
	cfg := &LocalConfig{
		Version: localConfigVersion,
		path:    path,
		lock:    flock.New(path + ".lock"),
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			xlog.Warn("ignoring unparseable local models config", "path", path, "error", err)
			cfg.Version = localConfigVersion
			cfg.Models = nil
		}
	} else if !os.IsNotExist(err) {
		xlog.Warn("unable to read local models config", "path", path, "error", err)
	}

	cfg.MergeDefaults(cat)
	return cfg
}

// MergeDefaults appends a row for every catalog entry the document does not
// know yet, and refreshes descriptor fields of known rows from the catalog
// (status survives, the descriptor does not).
func (c *LocalConfig) MergeDefaults(cat *Catalog) {
	if cat == nil {
		return
	}
	for _, entry := range cat.Models {
		if m := c.Get(entry.ID); m != nil {
			m.Entry = entry
			continue
		}
		c.Models = append(c.Models, &LocalModel{
			Entry:  entry,
			Status: StatusNotDownloaded,
		})
	}
}

// Get returns the row for one model id, or nil.
func (c *LocalConfig) Get(id string) *LocalModel {
	for _, m := range c.Models {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// SetStatus records a status transition and rewrites the document.
func (c *LocalConfig) SetStatus(id string, status Status, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.Get(id)
	if m == nil {
		return
	}
	m.Status = status
	m.ErrorMessage = errMsg
	if status == StatusReady {
		m.LastDownloaded = time.Now().UTC().Format(time.RFC3339)
	}
	if err := c.saveLocked(); err != nil {
		xlog.Error("failed to persist local models config", "model", id, "error", err)
	}
}

// Update runs fn against the row for id, then rewrites the document. The
// config mutex is held across the mutation and the marshal, so it is the
// entry point for goroutines other than the control thread.
func (c *LocalConfig) Update(id string, fn func(*LocalModel)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.Get(id)
	if m == nil {
		return
	}
	fn(m)
	if err := c.saveLocked(); err != nil {
		xlog.Error("failed to persist local models config", "model", id, "error", err)
	}
}

// UpdateAll runs fn against every row, then rewrites the document once.
func (c *LocalConfig) UpdateAll(fn func(*LocalModel)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.Models {
		fn(m)
	}
	if err := c.saveLocked(); err != nil {
		xlog.Error("failed to persist local models config", "error", err)
	}
}

// Save rewrites the whole document under the config mutex and an exclusive
// file lock.
func (c *LocalConfig) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *LocalConfig) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory %q: %w", filepath.Dir(c.path), err)
	}

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %q: %w", c.path, err)
	}
	defer c.lock.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize local models config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %q: %w", c.path, err)
	}
	return nil
}
