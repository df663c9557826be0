package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/veridex/internal/model"
)

// PageCache stores extracted page text keyed by URL, memory first with a
// disk layer underneath so repeat retrievals across runs skip the network
type PageCache struct {
	mem     *gocache.Cache
	dir     string
	diskTTL time.Duration
}

// NewPageCache creates a page cache from config. Returns nil when disabled;
// a nil cache is a valid no-op for the fetcher.
func NewPageCache(cfg model.CacheConfig) *PageCache {
	if !cfg.Enabled {
		return nil
	}
	return &PageCache{
		mem:     gocache.New(cfg.MemoryTTL, 10*time.Minute),
		dir:     cfg.Dir,
		diskTTL: cfg.DiskTTL,
	}
}

type diskEntry struct {
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves cached page text, promoting disk hits to memory
func (c *PageCache) Get(url string) (string, bool) {
	if c == nil {
		return "", false
	}

	key := pageKey(url)
	if val, found := c.mem.Get(key); found {
		return val.(string), true
	}

	if c.dir == "" {
		return "", false
	}

	data, err := os.ReadFile(filepath.Join(c.dir, key+".cache"))
	if err != nil {
		return "", false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(filepath.Join(c.dir, key+".cache"))
		return "", false
	}

	c.mem.Set(key, entry.Text, gocache.DefaultExpiration)
	return entry.Text, true
}

// Put stores page text in both layers
func (c *PageCache) Put(url, text string) error {
	if c == nil {
		return nil
	}

	key := pageKey(url)
	c.mem.Set(key, text, gocache.DefaultExpiration)

	if c.dir == "" {
		return nil
	}

	entry := diskEntry{Text: text, ExpiresAt: time.Now().Add(c.diskTTL)}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, key+".cache"), data, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// pageKey generates a stable cache key from a URL
func pageKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "veridex:v1:" + hex.EncodeToString(sum[:])
}
