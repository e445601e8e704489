package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// URL prefixes accepted by the public export adapters
const (
	SheetURLPrefix = "https://docs.google.com/spreadsheets/d/"
	DocURLPrefix   = "https://docs.google.com/document/d/"
)

// DefaultFetchTTL is how long a fetched export is reused
const DefaultFetchTTL = 5 * time.Minute

const maxExportBytes = 32 << 20

var editSuffix = regexp.MustCompile(`/edit.*$`)

// LoadInlineJSON validates pasted JSON and wraps it as a dataset
func LoadInlineJSON(raw []byte) (*Dataset, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, &DataLoadError{Mode: ModeJSON, Err: errors.New("Data input cannot be empty.")}
	}
	if !json.Valid(trimmed) {
		return nil, &DataLoadError{Mode: ModeJSON, Err: errors.New("Invalid JSON format. Please check your data.")}
	}
	ds := &Dataset{Mode: ModeJSON, JSON: json.RawMessage(append([]byte(nil), trimmed...))}
	if !ds.IsLoaded() {
		return nil, &DataLoadError{Mode: ModeJSON, Err: errors.New("Data input cannot be empty.")}
	}
	return ds, nil
}

// Fetcher retrieves public Google export documents over HTTP and keeps
// recent bodies in a TTL cache
type Fetcher struct {
	client *http.Client
	cache  *cache.Cache
	origin string
}

// NewFetcher creates a fetcher. A nil client uses a client with a 30s
// timeout; a ttl of zero disables caching.
func NewFetcher(client *http.Client, ttl time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	f := &Fetcher{client: client}
	if ttl > 0 {
		f.cache = cache.New(ttl, 2*ttl)
	}
	return f
}

// WithOrigin sends requests to origin (scheme://host) instead of the
// host in the export URL
func (f *Fetcher) WithOrigin(origin string) *Fetcher {
	f.origin = strings.TrimRight(origin, "/")
	return f
}

// Forget drops every cached export
func (f *Fetcher) Forget() {
	if f.cache != nil {
		f.cache.Flush()
	}
}

// LoadDoc fetches a public document as plain text
func (f *Fetcher) LoadDoc(ctx context.Context, docURL string) (*Dataset, error) {
	docURL = strings.TrimSpace(docURL)
	fail := func(msg string) error {
		return &DataLoadError{Mode: ModeGoogleDoc, URL: docURL, Err: errors.New(msg)}
	}
	if docURL == "" {
		return nil, fail("Google Document URL cannot be empty.")
	}
	if !strings.HasPrefix(docURL, DocURLPrefix) {
		return nil, fail("Invalid Google Document URL format.")
	}

	exportURL := DocExportURL(docURL)
	body, status, err := f.get(ctx, exportURL)
	if err != nil {
		return nil, &DataLoadError{Mode: ModeGoogleDoc, URL: docURL, Err: fmt.Errorf("Failed to fetch document content: %w", err)}
	}
	if status < 200 || status > 299 {
		if publicAccessStatus(status) {
			return nil, fail(fmt.Sprintf(`Failed to fetch document. Status: %d. Ensure the document is public ("Anyone with the link can view").`, status))
		}
		return nil, fail(fmt.Sprintf("Failed to fetch document content. Status: %d", status))
	}
	if strings.TrimSpace(body) == "" {
		return nil, fail("Fetched document content is empty. The document might be empty or inaccessible.")
	}

	return &Dataset{Mode: ModeGoogleDoc, Doc: body, FileName: exportFileName("Doc", docURL)}, nil
}

// DocExportURL rewrites a document URL to its text export
func DocExportURL(docURL string) string {
	out := editSuffix.ReplaceAllString(docURL, "/export?format=txt")
	if !strings.Contains(out, "/export") {
		out = strings.TrimRight(out, "/") + "/export?format=txt"
	}
	return out
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, int, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(rawURL); ok {
			LogDebug("Using cached export for %s", rawURL)
			return cached.(string), http.StatusOK, nil
		}
	}

	target := rawURL
	if f.origin != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", 0, err
		}
		target = f.origin + u.RequestURI()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, err
	}
	LogDebug("Fetching %s", target)
	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return "", resp.StatusCode, err
	}
	body := string(data)
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 && f.cache != nil && strings.TrimSpace(body) != "" {
		f.cache.SetDefault(rawURL, body)
	}
	return body, resp.StatusCode, nil
}

func publicAccessStatus(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// exportFileName builds a short display name from the document id
func exportFileName(kind, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i, s := range segments {
		if s == "d" && i+1 < len(segments) && segments[i+1] != "" {
			id := segments[i+1]
			if len(id) > 15 {
				id = id[:15]
			}
			return fmt.Sprintf("%s: %s...", kind, id)
		}
	}
	return ""
}
