package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/veridex/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:           5 * time.Second,
		UserAgent:         "VeridexBot/test",
		MaxBodyBytes:      1_000_000,
		RequestsPerSecond: 100,
		Burst:             10,
		RespectRobots:     false,
	}
}

func TestFetcher_FetchText_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "VeridexBot/test" {
			t.Errorf("Expected bot user agent, got %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>Hearsay is not admissible unless an exception applies.</p></body></html>"))
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil)
	page, err := fetcher.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}

	if !strings.Contains(page.Text, "Hearsay is not admissible") {
		t.Errorf("Expected extracted text, got %q", page.Text)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", page.StatusCode)
	}
	if page.FromCache {
		t.Error("Expected a fresh fetch, not a cache hit")
	}
}

func TestFetcher_FetchText_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil)
	if _, err := fetcher.FetchText(context.Background(), server.URL); err == nil {
		t.Fatal("Expected 404 to fail the fetch")
	}
}

func TestFetcher_FetchText_BodyCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>" + strings.Repeat("word ", 10_000) + "</p>"))
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 500

	fetcher := NewFetcher(cfg, nil)
	page, err := fetcher.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchText: %v", err)
	}
	if len(page.Text) > 600 {
		t.Errorf("Expected body cap to bound extracted text, got %d bytes", len(page.Text))
	}
}

func TestFetcher_FetchText_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.Timeout = 100 * time.Millisecond

	fetcher := NewFetcher(cfg, nil)
	if _, err := fetcher.FetchText(context.Background(), server.URL); err == nil {
		t.Fatal("Expected timeout to fail the fetch")
	}
}

func TestFetcher_FetchText_CacheSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<p>The statute of frauds requires a signed writing for these contracts.</p>"))
	}))
	defer server.Close()

	cache := NewPageCache(model.CacheConfig{
		Enabled:   true,
		MemoryTTL: time.Minute,
		DiskTTL:   time.Minute,
		// No Dir: memory layer only
	})

	fetcher := NewFetcher(testHTTPConfig(), cache)

	first, err := fetcher.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("first FetchText: %v", err)
	}
	second, err := fetcher.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("second FetchText: %v", err)
	}

	if hits.Load() != 1 {
		t.Errorf("Expected one network hit, got %d", hits.Load())
	}
	if !second.FromCache {
		t.Error("Expected second fetch to come from cache")
	}
	if first.Text != second.Text {
		t.Error("Expected identical text from cache")
	}
}

func TestFetcher_FetchText_CacheWriteFailureIsWarnOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>An offer lapses after a reasonable time when no duration is stated.</p>"))
	}))
	defer server.Close()

	// Cache dir under a regular file so the disk write cannot succeed
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cache := NewPageCache(model.CacheConfig{
		Enabled:   true,
		Dir:       filepath.Join(blocker, "cache"),
		MemoryTTL: time.Minute,
		DiskTTL:   time.Minute,
	})

	fetcher := NewFetcher(testHTTPConfig(), cache)
	page, err := fetcher.FetchText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Cache write failure must not fail the fetch: %v", err)
	}
	if !strings.Contains(page.Text, "reasonable time") {
		t.Errorf("Expected extracted text, got %q", page.Text)
	}
}

func TestFetcher_RobotsDisallow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>This page is long enough to count as real extractable content.</p>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.RespectRobots = true

	fetcher := NewFetcher(cfg, nil)

	if _, err := fetcher.FetchText(context.Background(), server.URL+"/private/opinion.html"); err == nil {
		t.Error("Expected robots.txt to block the disallowed path")
	}
	if _, err := fetcher.FetchText(context.Background(), server.URL+"/public.html"); err != nil {
		t.Errorf("Expected allowed path to fetch, got %v", err)
	}
}

func TestPageCache_DiskLayer(t *testing.T) {
	dir := t.TempDir()
	cache := NewPageCache(model.CacheConfig{
		Enabled:   true,
		Dir:       dir,
		MemoryTTL: time.Minute,
		DiskTTL:   time.Minute,
	})

	if err := cache.Put("https://example.gov/a", "stored text"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A fresh cache over the same dir must hit via disk
	fresh := NewPageCache(model.CacheConfig{
		Enabled:   true,
		Dir:       dir,
		MemoryTTL: time.Minute,
		DiskTTL:   time.Minute,
	})
	text, found := fresh.Get("https://example.gov/a")
	if !found || text != "stored text" {
		t.Errorf("Expected disk hit, got (%q, %v)", text, found)
	}

	if _, found := fresh.Get("https://example.gov/other"); found {
		t.Error("Expected miss for unknown URL")
	}
}
