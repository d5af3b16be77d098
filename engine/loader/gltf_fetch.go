package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrExternalResource is returned when an asset references an external file that cannot be
// resolved, either because the fetch failed or because the load was synchronous.
var ErrExternalResource = errors.New("external resource unavailable")

// Fetcher resolves URIs referenced by an asset (external buffers and images) into bytes.
type Fetcher interface {
	// Fetch reads the resource at uri, resolved against base.
	//
	// Parameters:
	//   - ctx: the context bounding the request
	//   - base: the directory or URL of the asset that references uri; may be empty
	//   - uri: the reference as written in the asset (percent-encoded)
	//
	// Returns:
	//   - []byte: the resource contents
	//   - error: error if the resource cannot be read
	Fetch(ctx context.Context, base, uri string) ([]byte, error)
}

// fetcher reads local files and http(s) URLs.
type fetcher struct {
	client *http.Client
}

var _ Fetcher = &fetcher{}

// NewFetcher creates a Fetcher that reads files from disk and fetches http(s) URLs.
//
// Parameters:
//   - timeout: the per-request timeout for remote fetches; zero means no timeout
//
// Returns:
//   - Fetcher: the fetcher
func NewFetcher(timeout time.Duration) Fetcher {
	return &fetcher{client: &http.Client{Timeout: timeout}}
}

func (f *fetcher) Fetch(ctx context.Context, base, uri string) ([]byte, error) {
	target, remote, err := resolveURI(base, uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExternalResource, uri, err)
	}
	if remote {
		return f.get(ctx, target)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalResource, err)
	}
	return data, nil
}

func (f *fetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalResource, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalResource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: %s", ErrExternalResource, target, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrExternalResource, target, err)
	}
	return data, nil
}

// isRemote reports whether s is an http(s) URL.
func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// resolveURI turns an asset reference into a file path or an absolute URL.
//
// Parameters:
//   - base: the directory or URL of the referencing asset
//   - uri: the reference
//
// Returns:
//   - string: the resolved path or URL
//   - bool: true when the result is a URL
//   - error: error if uri or base cannot be parsed
func resolveURI(base, uri string) (string, bool, error) {
	if isRemote(uri) {
		return uri, true, nil
	}

	if isRemote(base) {
		b, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
		if err != nil {
			return "", false, err
		}
		ref, err := url.Parse(uri)
		if err != nil {
			return "", false, err
		}
		return b.ResolveReference(ref).String(), true, nil
	}

	if rest, ok := strings.CutPrefix(uri, "file://"); ok {
		uri = rest
	}
	p, err := url.PathUnescape(uri)
	if err != nil {
		return "", false, err
	}
	if filepath.IsAbs(p) || base == "" {
		return filepath.Clean(p), false, nil
	}
	return filepath.Join(base, filepath.FromSlash(p)), false, nil
}

// baseOf returns the directory or URL prefix that references inside the asset at location
// resolve against.
func baseOf(location string) string {
	if isRemote(location) {
		if i := strings.LastIndex(location, "/"); i > len("https://") {
			return location[:i]
		}
		return location
	}
	return filepath.Dir(location)
}
