// Package fetch implements the bounded source fetcher: rate-limited,
// robots-aware HTTP retrieval of allowlisted pages plus HTML-to-text and
// best-effort legal metadata extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ppiankov/veridex/internal/model"
)

// Page is the result of fetching one source URL
type Page struct {
	RequestURL  string
	FinalURL    string
	Text        string // Extracted plain text, whitespace collapsed
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	FromCache   bool
}

// Fetcher retrieves source pages within hard bounds: client timeout,
// redirect cap, response size cap, per-domain rate limit
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *robotsGate // nil when robots compliance is disabled
	limiter    *limiter
	cache      *PageCache // nil when caching is disabled
}

// NewFetcher creates a fetcher from config
func NewFetcher(cfg model.HTTPConfig, cache *PageCache) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		limiter:   newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cache:     cache,
	}
	if cfg.RespectRobots {
		f.robots = newRobotsGate(cfg.UserAgent, cfg.Timeout)
	}
	return f
}

// FetchText retrieves a URL and returns its extracted plain text.
// Failures here are fatal only to the individual candidate; callers in the
// bounded fan-out loop swallow them.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (*Page, error) {
	if text, found := f.cache.Get(rawURL); found {
		return &Page{
			RequestURL: rawURL,
			FinalURL:   rawURL,
			Text:       text,
			StatusCode: http.StatusOK,
			FetchedAt:  time.Now().UTC(),
			FromCache:  true,
		}, nil
	}

	if f.robots != nil && !f.robots.allowed(ctx, rawURL) {
		return nil, fmt.Errorf("robots.txt disallows %s", rawURL)
	}

	if err := f.limiter.wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	text := ExtractText(string(body))
	if text == "" {
		return nil, fmt.Errorf("no extractable text at %s", rawURL)
	}

	if err := f.cache.Put(rawURL, text); err != nil {
		// Cache write failures never fail the fetch
		fmt.Fprintf(os.Stderr, "Warning: page cache write failed: %v\n", err)
	}

	return &Page{
		RequestURL:  rawURL,
		FinalURL:    resp.Request.URL.String(),
		Text:        text,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now().UTC(),
	}, nil
}
