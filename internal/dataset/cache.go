package dataset

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheEntry is a cached workbook with its bookkeeping
type CacheEntry struct {
	Workbook *Workbook
	Path     string
	CachedAt time.Time
	Expires  time.Time
	HitCount int
}

// CacheStats is a snapshot of cache counters
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxSize    int     `json:"max_size"`
	HitCount   int64   `json:"hit_count"`
	MissCount  int64   `json:"miss_count"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// Cache holds loaded workbooks keyed by path and modification time. Entries
// expire after the TTL; expired entries are dropped lazily on lookup. Loads
// of the same key that overlap in time share one read.
type Cache struct {
	entries   map[string]CacheEntry
	byPath    map[string]string
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	group     singleflight.Group
	now       func() time.Time
}

// NewCache creates a workbook cache. A maxSize of zero disables storage.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		byPath:  make(map[string]string),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves a workbook from cache
func (c *Cache) Get(key string) (*Workbook, bool) {
	c.mutex.Lock()
	entry, exists := c.entries[key]
	if exists && !c.now().Before(entry.Expires) {
		c.removeLocked(key)
		exists = false
	}
	if exists {
		entry.HitCount++
		c.entries[key] = entry
		c.hitCount++
	} else {
		c.missCount++
	}
	c.mutex.Unlock()

	if !exists {
		return nil, false
	}
	return entry.Workbook, true
}

// Set stores a workbook under key. Any entry cached for the same path under
// an older key is replaced.
func (c *Cache) Set(key, path string, wb *Workbook) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	if old, ok := c.byPath[path]; ok && old != key {
		c.removeLocked(old)
	}

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.entries[key] = CacheEntry{
		Workbook: wb,
		Path:     path,
		CachedAt: now,
		Expires:  now.Add(c.ttl),
	}
	c.byPath[path] = key
}

// GetOrLoad returns the cached workbook for key or calls load once, however
// many callers ask for the same key concurrently, and caches a successful
// result.
func (c *Cache) GetOrLoad(key, path string, load func() (*Workbook, error)) (*Workbook, bool, error) {
	if wb, ok := c.Get(key); ok {
		return wb, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		wb, err := load()
		if err != nil {
			return nil, err
		}
		c.Set(key, path, wb)
		return wb, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Workbook), false, nil
}

// Invalidate removes the entry cached for path, whatever its key
func (c *Cache) Invalidate(path string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if key, ok := c.byPath[path]; ok {
		c.removeLocked(key)
	}
}

// Purge drops all entries and keeps the counters
func (c *Cache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]CacheEntry)
	c.byPath = make(map[string]string)
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hitCount + c.missCount
	ratio := float64(0)
	if total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}

	return CacheStats{
		Entries:    len(c.entries),
		MaxSize:    c.maxSize,
		HitCount:   c.hitCount,
		MissCount:  c.missCount,
		HitRatio:   ratio,
		TTLSeconds: c.ttl.Seconds(),
	}
}

func (c *Cache) removeLocked(key string) {
	if entry, ok := c.entries[key]; ok {
		if c.byPath[entry.Path] == key {
			delete(c.byPath, entry.Path)
		}
		delete(c.entries, key)
	}
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
		}
	}

	if oldestKey != "" {
		c.removeLocked(oldestKey)
	}
}
