package workload

import (
	"fmt"
	"sync"
)

// TraceCache persists generated traces so that repeated runs with the same key replay
// exactly the same arrivals. Cached traces must be treated as read-only.
type TraceCache interface {
	// Load returns the traces stored under key. The bool is false on a miss.
	Load(key TraceKey) ([]Trace, bool, error)
	// Store saves traces under key, replacing any previous entry.
	Store(key TraceKey, traces []Trace) error
	// Close releases the cache's resources.
	Close() error
}

// Trace cache kinds accepted by NewTraceCache.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheSQLite = "sqlite"
)

var validCaches = map[string]bool{
	CacheNone:   true,
	CacheMemory: true,
	CacheFile:   true,
	CacheSQLite: true,
	"":          true, // empty defaults to none
}

// IsValidCache returns true if kind is a recognized trace cache kind.
func IsValidCache(kind string) bool { return validCaches[kind] }

// NewTraceCache creates the trace cache of the given kind. path is a directory for
// the file cache and a database file for the SQLite cache; it is ignored otherwise.
func NewTraceCache(kind, path string) (TraceCache, error) {
	switch kind {
	case CacheNone, "":
		return NopCache{}, nil
	case CacheMemory:
		return NewMemoryCache(), nil
	case CacheFile:
		return NewFileCache(path)
	case CacheSQLite:
		return NewSQLiteCache(path)
	default:
		return nil, fmt.Errorf("unknown trace cache %q", kind)
	}
}

// NopCache never hits and discards stores.
type NopCache struct{}

func (NopCache) Load(TraceKey) ([]Trace, bool, error) { return nil, false, nil }
func (NopCache) Store(TraceKey, []Trace) error        { return nil }
func (NopCache) Close() error                         { return nil }

// MemoryCache keeps traces in process memory. Safe for concurrent use.
type MemoryCache struct {
	mu     sync.Mutex
	traces map[string][]Trace
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{traces: make(map[string][]Trace)}
}

func (c *MemoryCache) Load(key TraceKey) ([]Trace, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	traces, ok := c.traces[key.String()]
	return traces, ok, nil
}

func (c *MemoryCache) Store(key TraceKey, traces []Trace) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.traces[key.String()] = traces
	return nil
}

func (c *MemoryCache) Close() error { return nil }
