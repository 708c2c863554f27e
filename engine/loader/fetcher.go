package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher resolves an opaque locator (file path or URL) to a readable stream.
type Fetcher interface {
	// Open returns a stream for locator. The caller closes it.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - locator: the path or URL to open
	//
	// Returns:
	//   - io.ReadCloser: the source stream
	//   - error: an error wrapping ErrSourceUnavailable if the source cannot be opened
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// FileFetcher opens locators from the local filesystem. Relative locators are resolved under BaseDir.
type FileFetcher struct {
	BaseDir string
}

var _ Fetcher = FileFetcher{}

func (f FileFetcher) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, locator, err)
	}
	path := filepath.FromSlash(locator)
	if f.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.BaseDir, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return file, nil
}

// HTTPFetcher opens http and https locators with a GET request. A nil Client uses http.DefaultClient.
type HTTPFetcher struct {
	Client *http.Client
}

var _ Fetcher = HTTPFetcher{}

func (f HTTPFetcher) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, locator, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: %s", ErrSourceUnavailable, locator, resp.Status)
	}
	return resp.Body, nil
}

// MultiFetcher routes http and https locators to HTTP and everything else to File.
type MultiFetcher struct {
	File FileFetcher
	HTTP HTTPFetcher
}

var _ Fetcher = MultiFetcher{}

func (f MultiFetcher) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	if isRemote(locator) {
		return f.HTTP.Open(ctx, locator)
	}
	return f.File.Open(ctx, locator)
}

// isRemote reports whether locator is an http(s) URL.
func isRemote(locator string) bool {
	u, err := url.Parse(locator)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
