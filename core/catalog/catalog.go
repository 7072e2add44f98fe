package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mudler/xlog"
	"gopkg.in/yaml.v3"
)

const (
	// OverrideFilename is the user-writable catalog document merged on top
	// of the bundled defaults at load time.
	OverrideFilename = "models_registry.json"
	// LocalConfigFilename is the persisted "installed models" document.
	LocalConfigFilename = "local_models.json"
)

//go:embed registry.json
var bundledRegistry []byte

// Catalog is the full list of known model descriptors. The store is the
// sole writer; readers get value copies scoped to one interaction.
type Catalog struct {
	Version string  `json:"version" yaml:"version"`
	Models  []Entry `json:"models" yaml:"models"`
}

// Store loads and refreshes catalogs rooted at one per-user config
// directory.
type Store struct {
	configDir string
}

// DefaultConfigDir is the per-user directory holding the override document
// and the local models config.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ominix"
	}
	return filepath.Join(home, ".ominix")
}

// NewStore returns a store rooted at dir. An empty dir selects the default
// per-user location.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Store{configDir: dir}
}

// ConfigDir returns the directory this store reads and writes.
func (s *Store) ConfigDir() string {
	return s.configDir
}

// OverridePath is the well-known location of the user override document.
func (s *Store) OverridePath() string {
	return filepath.Join(s.configDir, OverrideFilename)
}

// Load parses the bundled default catalog and merges the user override on
// top of it when one exists and parses. A broken override is logged and
// ignored so the bundled defaults always stand alone.
func (s *Store) Load() *Catalog {
	base, err := ParseDocument(bundledRegistry, "registry.json")
	if err != nil {
		// The bundled registry is compiled in; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("bundled registry.json is invalid: %v", err))
	}

	overridePath := s.OverridePath()
	data, err := os.ReadFile(overridePath)
	if err != nil {
		if !os.IsNotExist(err) {
			xlog.Warn("unable to read catalog override", "path", overridePath, "error", err)
		}
		xlog.Debug("catalog loaded from bundled defaults", "models", len(base.Models))
		return base
	}

	override, err := ParseDocument(data, overridePath)
	if err != nil {
		xlog.Warn("ignoring unparseable catalog override", "path", overridePath, "error", err)
		return base
	}

	base.Merge(override)
	xlog.Info("catalog loaded", "models", len(base.Models), "override", overridePath)
	return base
}

// SaveOverride writes a catalog to the override path, creating the config
// directory if needed.
func (s *Store) SaveOverride(c *Catalog) error {
	path := s.OverridePath()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory %q: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog override %q: %w", path, err)
	}
	return nil
}

// ParseDocument decodes a catalog document. Documents are JSON by contract
// but remotely hosted catalogs may be YAML, so fall back when the name
// says so.
func ParseDocument(data []byte, name string) (*Catalog, error) {
	var c Catalog
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	} else if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if c.Models == nil {
		c.Models = []Entry{}
	}
	return &c, nil
}

// Merge applies another catalog on top of this one. An incoming entry with
// a known id replaces the existing entry wholesale; unknown ids are
// appended. The incoming version wins when set.
func (c *Catalog) Merge(other *Catalog) {
	for _, incoming := range other.Models {
		replaced := false
		for i := range c.Models {
			if c.Models[i].ID == incoming.ID {
				c.Models[i] = incoming
				replaced = true
				break
			}
		}
		if !replaced {
			c.Models = append(c.Models, incoming)
		}
	}
	if other.Version != "" {
		c.Version = other.Version
	}
}

// Get returns the entry with the given id, or nil.
func (c *Catalog) Get(id string) *Entry {
	for i := range c.Models {
		if c.Models[i].ID == id {
			e := c.Models[i]
			return &e
		}
	}
	return nil
}

// ByCategory returns the entries belonging to one category.
func (c *Catalog) ByCategory(cat Category) []Entry {
	var out []Entry
	for _, m := range c.Models {
		if m.Category == cat {
			out = append(out, m)
		}
	}
	return out
}

// Search returns entries whose name, description or tags contain the term,
// case-insensitively. Fuzzy name matches are included as well.
func (c *Catalog) Search(term string) []Entry {
	term = strings.ToLower(term)
	var out []Entry
	for _, m := range c.Models {
		if strings.Contains(strings.ToLower(m.Name), term) ||
			strings.Contains(strings.ToLower(m.Description), term) ||
			strings.Contains(strings.ToLower(strings.Join(m.Tags, ",")), term) ||
			fuzzy.Match(term, strings.ToLower(m.Name)) {
			out = append(out, m)
		}
	}
	return out
}
