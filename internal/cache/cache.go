package cache

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// shardCount stripes the cache's lock domain across GOMAXPROCS shards so
// concurrent GetOrCreate calls for different keys rarely contend on the
// same mutex, per SPEC_FULL.md §4.B.
func shardCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

type inflightCall struct {
	done  chan struct{}
	value string
	err   error
}

type shard struct {
	mu       sync.Mutex
	data     map[string]string
	inflight map[string]*inflightCall
}

// Cache is the Selective Mapping Cache: a bounded, sharded, single-flight
// original→synthetic map shared across a run's table workers.
type Cache struct {
	shards     []*shard
	maxEntries int64
	count      atomic.Int64
	degraded   atomic.Bool
	warnOnce   sync.Once
	logger     *slog.Logger
}

// New builds a Cache bounded to maxEntries total stored entries, per
// Global.MaxCacheSize.
func New(maxEntries int, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	n := shardCount()
	shards := make([]*shard, n)
	for i := range shards {
		shards[i] = &shard{
			data:     make(map[string]string),
			inflight: make(map[string]*inflightCall),
		}
	}
	return &Cache{
		shards:     shards,
		maxEntries: int64(maxEntries),
		logger:     logger,
	}
}

func (c *Cache) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	return c.shards[h%uint64(len(c.shards))]
}

// GetOrCreate implements §4.B's contract. When shouldCache is false, compute
// is invoked and returned directly without touching storage. When true, a
// cache hit returns the stored value; a miss invokes compute exactly once
// per key even under concurrent callers (single-flight), stores the result,
// and returns it — unless the cache has hit maxEntries, in which case it
// degrades to pass-through for new keys only, logging a warning once, while
// entries already stored remain authoritative forever.
func (c *Cache) GetOrCreate(dataType, original string, shouldCache bool, compute func() (string, error)) (string, error) {
	if !shouldCache {
		return compute()
	}

	key := dataType + "|" + original
	sh := c.shardFor(key)

	sh.mu.Lock()
	if v, ok := sh.data[key]; ok {
		sh.mu.Unlock()
		return v, nil
	}
	if call, ok := sh.inflight[key]; ok {
		sh.mu.Unlock()
		<-call.done
		return call.value, call.err
	}

	if c.degraded.Load() {
		sh.mu.Unlock()
		c.logDegradedOnce()
		return compute()
	}

	call := &inflightCall{done: make(chan struct{})}
	sh.inflight[key] = call
	sh.mu.Unlock()

	value, err := compute()
	call.value, call.err = value, err
	close(call.done)

	sh.mu.Lock()
	delete(sh.inflight, key)
	if err == nil {
		if c.count.Load() >= c.maxEntries {
			c.degraded.Store(true)
		} else {
			sh.data[key] = value
			c.count.Add(1)
		}
	}
	sh.mu.Unlock()

	return value, err
}

func (c *Cache) logDegradedOnce() {
	c.warnOnce.Do(func() {
		c.logger.Warn("mapping cache reached MaxCacheSize; switching to pass-through for new keys",
			"maxEntries", c.maxEntries)
	})
}

// Len returns the number of entries currently stored across all shards and
// types, for the run report and tests.
func (c *Cache) Len() int {
	return int(c.count.Load())
}

// Degraded reports whether the cache has switched to pass-through mode.
func (c *Cache) Degraded() bool {
	return c.degraded.Load()
}

// snapshotType returns every stored (dataType, original) → synthetic entry for a
// given dataType, for Flush in persist.go.
func (c *Cache) snapshotType(dataType string) map[string]string {
	prefix := dataType + "|"
	out := make(map[string]string)
	for _, sh := range c.shards {
		sh.mu.Lock()
		for key, value := range sh.data {
			if len(key) > len(prefix) && key[:len(prefix)] == prefix {
				out[key[len(prefix):]] = value
			}
		}
		sh.mu.Unlock()
	}
	return out
}

// loadType inserts entries from a persisted dataType file, used by Load.
// It never triggers the single-flight path or counts toward degradation
// checks mid-insert; the bound is enforced by truncating the load itself.
func (c *Cache) loadType(dataType string, entries map[string]string) {
	for original, synthetic := range entries {
		if c.count.Load() >= c.maxEntries {
			c.degraded.Store(true)
			return
		}
		key := dataType + "|" + original
		sh := c.shardFor(key)
		sh.mu.Lock()
		if _, exists := sh.data[key]; !exists {
			sh.data[key] = synthetic
			c.count.Add(1)
		}
		sh.mu.Unlock()
	}
}
