package resultcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"etymon/internal/logging"
)

// schemaVersion prefixes every key so a payload shape change invalidates
// older mirror files without a migration.
const schemaVersion = "v2"

// Key builds a cache key for one artifact kind of one normalized word.
func Key(kind, word string) string {
	return schemaVersion + "|" + kind + "|" + word
}

// Entry is one cached artifact together with its freshness metadata.
type Entry struct {
	Key      string          `json:"key"`
	Payload  json.RawMessage `json:"payload"`
	Degraded bool            `json:"degraded"`
	StoredAt time.Time       `json:"stored_at"`
}

// Options configures a Cache.
type Options struct {
	Capacity    int
	SuccessTTL  time.Duration
	DegradedTTL time.Duration
	MirrorPath  string
	Logger      *slog.Logger
	Now         func() time.Time
}

// Cache is the two-tier result cache. All methods are safe for concurrent
// use.
type Cache struct {
	capacity    int
	successTTL  time.Duration
	degradedTTL time.Duration
	path        string
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
	order   []string // insertion order, oldest first
}

// New builds a cache and loads the mirror file when one is configured.
// Entries that expired while the process was down are dropped during load.
func New(opts Options) (*Cache, error) {
	if opts.Capacity <= 0 {
		return nil, errors.New("cache capacity must be positive")
	}
	if opts.SuccessTTL <= 0 || opts.DegradedTTL <= 0 {
		return nil, errors.New("cache ttls must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "resultcache")
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	c := &Cache{
		capacity:    opts.Capacity,
		successTTL:  opts.SuccessTTL,
		degradedTTL: opts.DegradedTTL,
		path:        strings.TrimSpace(opts.MirrorPath),
		logger:      logger,
		now:         now,
		entries:     make(map[string]Entry),
	}

	if c.path != "" {
		if err := c.load(); err != nil {
			logger.Warn("failed to load cache mirror, starting empty",
				logging.String("path", c.path),
				logging.Error(err))
		}
	}
	return c, nil
}

// Get returns the cached entry for key when present and still fresh.
// Expired entries are removed on access.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found {
		return Entry{}, false
	}
	if c.expired(entry) {
		c.evict(key)
		return Entry{}, false
	}
	return entry, true
}

// Put stores payload under key, evicting the oldest entry when the cache
// is full and persisting the mirror when configured.
func (c *Cache) Put(key string, payload json.RawMessage, degraded bool) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.evict(oldest)
			c.logger.Debug("evicted oldest cache entry",
				logging.String("key", oldest),
				logging.Int("capacity", c.capacity))
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = Entry{
		Key:      key,
		Payload:  payload,
		Degraded: degraded,
		StoredAt: c.now(),
	}

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache mirror: %w", err)
	}
	return nil
}

// Delete removes one key.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.entries[key]; !found {
		return nil
	}
	c.evict(key)
	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache mirror: %w", err)
	}
	return nil
}

// Len reports the number of live entries, dropping any that have expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range append([]string(nil), c.order...) {
		if entry, found := c.entries[key]; found && c.expired(entry) {
			c.evict(key)
		}
	}
	return len(c.entries)
}

func (c *Cache) expired(entry Entry) bool {
	ttl := c.successTTL
	if entry.Degraded {
		ttl = c.degradedTTL
	}
	return c.now().Sub(entry.StoredAt) >= ttl
}

// evict removes key from both the map and the order slice. Caller holds mu.
func (c *Cache) evict(key string) {
	delete(c.entries, key)
	for i, candidate := range c.order {
		if candidate == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// load reads the mirror file into memory, preserving insertion order and
// skipping stale or foreign-version entries.
func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read mirror file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse mirror file: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Key, schemaVersion+"|") {
			continue
		}
		if c.expired(entry) {
			continue
		}
		if _, exists := c.entries[entry.Key]; exists {
			continue
		}
		if len(c.entries) >= c.capacity {
			break
		}
		c.entries[entry.Key] = entry
		c.order = append(c.order, entry.Key)
		loaded++
	}

	c.logger.Debug("loaded cache mirror",
		logging.Int("entry_count", loaded),
		logging.String("path", c.path))
	return nil
}

// save writes the mirror atomically. Caller holds mu.
func (c *Cache) save() error {
	if c.path == "" {
		return nil
	}

	entries := make([]Entry, 0, len(c.order))
	for _, key := range c.order {
		if entry, found := c.entries[key]; found {
			entries = append(entries, entry)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mirror: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create mirror directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
