// Package downloader enumerates and transfers the remote files of one
// model source. It knows two listing backends (the HuggingFace tree API
// and the ModelScope recursive file API) plus plain direct URLs, and a
// chunked streaming fetcher with cooperative cancellation.
package downloader

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrCancelled reports a user-initiated cancellation; it is not a
	// failure.
	ErrCancelled = errors.New("download cancelled")
	// ErrNoFiles reports an empty repository listing, which is never
	// treated as success.
	ErrNoFiles = errors.New("no files in repository")
)

// RemoteFile is one file of a model source, relative to the repo root.
type RemoteFile struct {
	Path string
	Size uint64
}

// ListTimeout bounds a single listing request; FetchTimeout bounds one
// whole file transfer, which for multi-gigabyte weights has to be generous.
const (
	ListTimeout  = 30 * time.Second
	FetchTimeout = 60 * time.Minute
)

// NewListClient returns the client used for listing calls.
func NewListClient() *http.Client {
	return &http.Client{Timeout: ListTimeout}
}

// NewFetchClient returns the client used for file transfers.
func NewFetchClient() *http.Client {
	return &http.Client{Timeout: FetchTimeout}
}

const userAgent = "ominix-hub/1.0"

// Token returns the bearer token for authenticated repositories: the
// OMINIX_HF_TOKEN or HF_TOKEN environment variable, then the well-known
// token file under the user's home.
func Token() string {
	for _, env := range []string{"OMINIX_HF_TOKEN", "HF_TOKEN"} {
		if t := strings.TrimSpace(os.Getenv(env)); t != "" {
			return t
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, ".cache", "huggingface", "token"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// HostOf reduces a candidate URL to its scheme://host root, so mirror
// candidates expressed as full repo URLs and bare hosts behave the same.
func HostOf(candidate string) string {
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(candidate, "/")
	}
	return u.Scheme + "://" + u.Host
}

// FileNameFromURL derives a destination file name for a direct URL.
func FileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "download"
	}
	return path.Base(u.Path)
}
