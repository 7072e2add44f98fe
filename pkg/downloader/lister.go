package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/OminiX-ai/ominix-hub/core/catalog"
)

// ListFiles enumerates the remote files of src as served by the candidate
// URL (primary or mirror), in listing order. An empty result is ErrNoFiles.
func ListFiles(ctx context.Context, client *http.Client, src catalog.Source, candidate, token string) ([]RemoteFile, error) {
	host := HostOf(candidate)

	var files []RemoteFile
	var err error
	switch src.Kind {
	case catalog.SourceHuggingFace:
		files, err = listTree(ctx, client, host, src.Repo, revisionOf(src), "", token)
	case catalog.SourceModelScope:
		files, err = listRecursive(ctx, client, host, src.Repo, revisionOf(src), "")
	case catalog.SourceDirectURL:
		files = []RemoteFile{{Path: FileNameFromURL(candidate)}}
	default:
		err = fmt.Errorf("source kind %q cannot be listed", src.Kind)
	}
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, candidate)
	}
	return files, nil
}

// FileURL returns the content URL for one listed file under a candidate.
func FileURL(src catalog.Source, candidate string, file RemoteFile) string {
	host := HostOf(candidate)
	switch src.Kind {
	case catalog.SourceHuggingFace:
		return fmt.Sprintf("%s/%s/resolve/%s/%s", host, src.Repo, revisionOf(src), file.Path)
	case catalog.SourceModelScope:
		return fmt.Sprintf("%s/api/v1/models/%s/repo?Revision=%s&FilePath=%s",
			host, src.Repo, url.QueryEscape(revisionOf(src)), url.QueryEscape(file.Path))
	default:
		return candidate
	}
}

func revisionOf(src catalog.Source) string {
	if src.Revision == "" {
		return "main"
	}
	return src.Revision
}

// treeItem is one child in a HuggingFace tree listing.
type treeItem struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size uint64 `json:"size"`
}

// listTree walks the tree API one directory per request, flattening the
// results in listing order.
func listTree(ctx context.Context, client *http.Client, host, repo, revision, subpath, token string) ([]RemoteFile, error) {
	apiURL := fmt.Sprintf("%s/api/models/%s/tree/%s", host, repo, revision)
	if subpath != "" {
		apiURL += "/" + subpath
	}

	var items []treeItem
	if err := getJSON(ctx, client, apiURL, token, &items); err != nil {
		return nil, err
	}

	var files []RemoteFile
	for _, item := range items {
		switch item.Type {
		case "file":
			files = append(files, RemoteFile{Path: item.Path, Size: item.Size})
		case "directory":
			sub, err := listTree(ctx, client, host, repo, revision, item.Path, token)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}
	return files, nil
}

// recursiveResponse is the envelope of the ModelScope file-listing API.
type recursiveResponse struct {
	Code int    `json:"Code"`
	Msg  string `json:"Message"`
	Data *struct {
		Files []struct {
			Path string `json:"Path"`
			Size uint64 `json:"Size"`
			Type string `json:"Type"`
		} `json:"Files"`
	} `json:"Data"`
}

// listRecursive uses the repo/files API; "tree" entries still need their
// own scoped request, "blob" entries are leaves.
func listRecursive(ctx context.Context, client *http.Client, host, repo, revision, root string) ([]RemoteFile, error) {
	apiURL := fmt.Sprintf("%s/api/v1/models/%s/repo/files?Revision=%s", host, repo, url.QueryEscape(revision))
	if root != "" {
		apiURL += "&Root=" + url.QueryEscape(root)
	}

	var resp recursiveResponse
	if err := getJSON(ctx, client, apiURL, "", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("listing %s: backend error code %d %s", apiURL, resp.Code, resp.Msg)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("listing %s: empty response data", apiURL)
	}

	var files []RemoteFile
	for _, item := range resp.Data.Files {
		switch item.Type {
		case "blob":
			files = append(files, RemoteFile{Path: item.Path, Size: item.Size})
		case "tree":
			sub, err := listRecursive(ctx, client, host, repo, revision, item.Path)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}
	return files, nil
}

func getJSON(ctx context.Context, client *http.Client, apiURL, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("listing %s: %w", apiURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("listing %s: %w", apiURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("listing %s: access denied, the repository requires authentication (set HF_TOKEN or accept the model license)", apiURL)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listing %s: unexpected status %d", apiURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("listing %s: %w", apiURL, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("listing %s: malformed response: %w", apiURL, err)
	}
	return nil
}
