package iocache

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync/atomic"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/logger"
	"github.com/huangsam/catiq/internal/metrics"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// snapshotTable is the name of the table for persisted snapshots.
const snapshotTable = "snapshot_cache"

type cacheEntry struct {
	snapshot *schema.Snapshot
	storedAt time.Time
}

// SnapshotCache serves snapshots from memory for a TTL, then from the
// persistent store, then from the loader. Concurrent misses for the same key
// share one load. The entry map is immutable and replaced atomically.
type SnapshotCache struct {
	loader     contract.SnapshotLoader
	store      contract.CacheStore
	ttl        time.Duration
	persistTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger

	entries atomic.Pointer[map[string]cacheEntry]
	group   singleflight.Group
}

var (
	_ contract.SnapshotSource = &SnapshotCache{} // Compile-time check
	_ contract.TableProvider  = &SnapshotCache{} // Compile-time check
	_ contract.IndexProvider  = &SnapshotCache{} // Compile-time check
)

// SnapshotCacheOption customizes a SnapshotCache.
type SnapshotCacheOption func(*SnapshotCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) SnapshotCacheOption {
	return func(c *SnapshotCache) { c.now = now }
}

// WithPersistentStore adds a durable tier behind the in-memory one.
func WithPersistentStore(store contract.CacheStore, persistTTL time.Duration) SnapshotCacheOption {
	return func(c *SnapshotCache) {
		c.store = store
		c.persistTTL = persistTTL
	}
}

// WithLogger sets the logger. Nil means no logging.
func WithLogger(l *zap.Logger) SnapshotCacheOption {
	return func(c *SnapshotCache) { c.logger = logger.OrNop(l) }
}

// NewSnapshotCache creates a cache in front of loader.
func NewSnapshotCache(loader contract.SnapshotLoader, ttl time.Duration, opts ...SnapshotCacheOption) *SnapshotCache {
	c := &SnapshotCache{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	empty := map[string]cacheEntry{}
	c.entries.Store(&empty)
	return c
}

// Snapshot returns the snapshot for key, loading it when the cached copy is stale.
func (c *SnapshotCache) Snapshot(ctx context.Context, key schema.SnapshotKey) (*schema.Snapshot, error) {
	cacheKey := key.String()
	if entry, ok := (*c.entries.Load())[cacheKey]; ok && c.now().Sub(entry.storedAt) < c.ttl {
		metrics.SnapshotCache.WithLabelValues("hit").Inc()
		return entry.snapshot, nil
	}

	// The load is shared, so one caller's cancellation must not fail the others
	v, err, _ := c.group.Do(cacheKey, func() (any, error) {
		snap, source, err := c.fetch(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		metrics.SnapshotCache.WithLabelValues(source).Inc()
		c.put(cacheKey, cacheEntry{snapshot: snap, storedAt: c.now()})
		return snap, nil
	})
	if err != nil {
		metrics.SnapshotCache.WithLabelValues("error").Inc()
		return nil, err
	}
	return v.(*schema.Snapshot), nil
}

// LoadTables returns the tables of a cached snapshot.
func (c *SnapshotCache) LoadTables(ctx context.Context, key schema.SnapshotKey) (schema.Tables, error) {
	snap, err := c.Snapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	return snap.Tables, nil
}

// LoadIndex returns the product index of a cached snapshot.
func (c *SnapshotCache) LoadIndex(ctx context.Context, key schema.SnapshotKey) (*schema.ProductIndex, error) {
	snap, err := c.Snapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	return snap.Index, nil
}

func (c *SnapshotCache) put(cacheKey string, entry cacheEntry) {
	for {
		old := c.entries.Load()
		next := maps.Clone(*old)
		next[cacheKey] = entry
		if c.entries.CompareAndSwap(old, &next) {
			return
		}
	}
}

// fetch consults the persistent tier, then the loader. It returns the metrics label of the source.
func (c *SnapshotCache) fetch(ctx context.Context, key schema.SnapshotKey) (*schema.Snapshot, string, error) {
	if c.store != nil {
		if snap, ok := c.readPersisted(key); ok {
			return snap, "persisted", nil
		}
	}

	snap, err := c.loader.LoadSnapshot(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if snap.Index == nil {
		snap.Index = schema.BuildIndex(snap.Tables, snap.BrandAliases, snap.ProductAliases)
	}
	if c.store != nil {
		c.writePersisted(key, snap)
	}
	return snap, "load", nil
}

func (c *SnapshotCache) readPersisted(key schema.SnapshotKey) (*schema.Snapshot, bool) {
	value, version, ts, err := c.store.Get(key.String())
	if err != nil {
		return nil, false
	}
	if version != schema.SnapshotVersion || c.now().Sub(time.Unix(ts, 0)) >= c.persistTTL {
		return nil, false
	}
	snap, err := DecodeSnapshot(value)
	if err != nil {
		c.logger.Warn("discarding unreadable persisted snapshot", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}
	return snap, true
}

func (c *SnapshotCache) writePersisted(key schema.SnapshotKey, snap *schema.Snapshot) {
	value, err := EncodeSnapshot(snap)
	if err == nil {
		err = c.store.Set(key.String(), value, schema.SnapshotVersion, c.now().Unix())
	}
	if err != nil {
		c.logger.Warn("failed to persist snapshot", zap.String("key", key.String()), zap.Error(err))
	}
}

// EncodeSnapshot serializes a snapshot without its index.
func EncodeSnapshot(snap *schema.Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// DecodeSnapshot deserializes a snapshot and rebuilds its index.
func DecodeSnapshot(data []byte) (*schema.Snapshot, error) {
	var snap schema.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Tables == nil {
		return nil, fmt.Errorf("failed to decode snapshot: no tables")
	}
	snap.Index = schema.BuildIndex(snap.Tables, snap.BrandAliases, snap.ProductAliases)
	return &snap, nil
}
