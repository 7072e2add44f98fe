package catalog

import (
	"os"
	"path/filepath"
	"strings"
)

// Category drives filtering in the model hub list.
type Category string

const (
	CategoryLLM      Category = "llm"
	CategoryVLM      Category = "vlm"
	CategoryASR      Category = "asr"
	CategoryTTS      Category = "tts"
	CategoryImageGen Category = "image_gen"
)

func (c Category) Label() string {
	switch c {
	case CategoryLLM:
		return "LLM"
	case CategoryVLM:
		return "VLM"
	case CategoryASR:
		return "ASR"
	case CategoryTTS:
		return "TTS"
	case CategoryImageGen:
		return "Image"
	}
	return string(c)
}

// SourceKind selects the listing backend used to enumerate a model's files.
type SourceKind string

const (
	// SourceHuggingFace lists files through the tree API, one request per
	// directory level.
	SourceHuggingFace SourceKind = "huggingface"
	// SourceModelScope lists files through the recursive repo/files API.
	SourceModelScope SourceKind = "modelscope"
	// SourceDirectURL downloads a single file from a fixed URL.
	SourceDirectURL SourceKind = "direct_url"
	// SourceManual cannot be downloaded automatically.
	SourceManual SourceKind = "manual"
)

// Source describes where a model's files come from.
type Source struct {
	Kind SourceKind `json:"kind" yaml:"kind"`
	// Repo is the repository identifier, e.g. "mlx-community/Qwen3-8B-bf16".
	Repo string `json:"repo,omitempty" yaml:"repo,omitempty"`
	// URL is the primary download URL. For repository-backed kinds it names
	// the host serving the repo; for direct_url it is the file itself.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Revision is a branch, tag or commit. Defaults to "main".
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	// BackupURLs are mirrors tried in order after URL fails.
	BackupURLs []string `json:"backup_urls,omitempty" yaml:"backup_urls,omitempty"`
	// Convert names a post-download conversion routine. Empty means the
	// downloaded files are used as-is.
	Convert string `json:"convert,omitempty" yaml:"convert,omitempty"`
}

// AllURLs returns the candidate URLs in fallback order, primary first.
func (s Source) AllURLs() []string {
	urls := make([]string, 0, len(s.BackupURLs)+1)
	if s.URL != "" {
		urls = append(urls, s.URL)
	}
	urls = append(urls, s.BackupURLs...)
	return urls
}

// Storage describes where a model lives on disk.
type Storage struct {
	// LocalPath supports the "~/" home prefix, expanded at use time.
	LocalPath string `json:"local_path" yaml:"local_path"`
	// SizeBytes is informational only (0 = unknown).
	SizeBytes uint64 `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	// SizeDisplay is the human-readable size shown in listings, e.g. "~8 GB".
	SizeDisplay string `json:"size_display,omitempty" yaml:"size_display,omitempty"`
}

// ExpandedPath returns LocalPath with "~/" resolved.
func (s Storage) ExpandedPath() string {
	return ExpandPath(s.LocalPath)
}

// Runtime carries the requirements and capabilities needed to run a model.
type Runtime struct {
	MemoryGB          float64  `json:"memory_gb,omitempty" yaml:"memory_gb,omitempty"`
	Platforms         []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Quantization      string   `json:"quantization,omitempty" yaml:"quantization,omitempty"`
	Engine            string   `json:"engine,omitempty" yaml:"engine,omitempty"`
	SupportsImages    bool     `json:"supports_images,omitempty" yaml:"supports_images,omitempty"`
	SupportsStreaming bool     `json:"supports_streaming,omitempty" yaml:"supports_streaming,omitempty"`
}

// Entry is one model descriptor in the catalog. Entries are immutable once
// loaded; the catalog replaces them wholesale on reload.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    Category `json:"category" yaml:"category"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Source      Source   `json:"source" yaml:"source"`
	Storage     Storage  `json:"storage" yaml:"storage"`
	Runtime     Runtime  `json:"runtime,omitempty" yaml:"runtime,omitempty"`
}

// ExpandPath resolves a leading "~/" against the current user's home
// directory. Paths without the prefix are returned unchanged.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
