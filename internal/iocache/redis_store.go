package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds every round trip to redis.
const redisOpTimeout = 5 * time.Second

// RedisCacheStore keeps snapshot payloads in redis hashes under a key prefix.
// A sorted set indexed by timestamp backs GetStatus.
type RedisCacheStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisCacheStore{} // Compile-time check

// NewRedisCacheStore connects to redis using a redis:// or rediss:// URL.
func NewRedisCacheStore(prefix, connStr string) (*RedisCacheStore, error) {
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid redis connection string: %w. Expected redis://host:port/db", err)
	}
	store := NewRedisCacheStoreFromClient(prefix, redis.NewClient(opts))

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := store.client.Ping(ctx).Err(); err != nil {
		_ = store.client.Close()
		return nil, fmt.Errorf("failed to connect to redis. Check that the server is running: %w", err)
	}
	return store, nil
}

// NewRedisCacheStoreFromClient wraps an existing client.
func NewRedisCacheStoreFromClient(prefix string, client *redis.Client) *RedisCacheStore {
	return &RedisCacheStore{client: client, prefix: prefix}
}

func (rs *RedisCacheStore) entryKey(key string) string { return rs.prefix + ":entry:" + key }
func (rs *RedisCacheStore) indexKey() string          { return rs.prefix + ":index" }

// Get retrieves a snapshot payload. Missing keys return sql.ErrNoRows like the SQL stores.
func (rs *RedisCacheStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.entryKey(key)).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	if len(fields) == 0 {
		return nil, 0, 0, sql.ErrNoRows
	}
	version, err := strconv.Atoi(fields["version"])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt redis entry %s: %w", key, err)
	}
	ts, err := strconv.ParseInt(fields["timestamp"], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt redis entry %s: %w", key, err)
	}
	return []byte(fields["value"]), version, ts, nil
}

// Set writes the payload and its index entry in one transaction.
func (rs *RedisCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, rs.entryKey(key), "value", value, "version", version, "timestamp", timestamp)
		pipe.ZAdd(ctx, rs.indexKey(), redis.Z{Score: float64(timestamp), Member: key})
		return nil
	})
	return err
}

// GetStatus reports entry count, time range and payload bytes.
func (rs *RedisCacheStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend)}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := rs.client.Ping(ctx).Err(); err != nil {
		return status, nil
	}
	status.Connected = true

	entries, err := rs.client.ZRangeWithScores(ctx, rs.indexKey(), 0, -1).Result()
	if err != nil {
		return status, fmt.Errorf("failed to read redis index: %w", err)
	}
	status.TotalEntries = len(entries)
	if len(entries) == 0 {
		return status, nil
	}
	status.OldestEntryTime = time.Unix(int64(entries[0].Score), 0)
	status.LastEntryTime = time.Unix(int64(entries[len(entries)-1].Score), 0)
	for _, z := range entries {
		member, _ := z.Member.(string)
		value, err := rs.client.HGet(ctx, rs.entryKey(member), "value").Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return status, fmt.Errorf("failed to size redis entry %s: %w", member, err)
		}
		status.TableSizeBytes += int64(len(value))
	}
	return status, nil
}

// Clear removes every entry under the prefix.
func (rs *RedisCacheStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	members, err := rs.client.ZRange(ctx, rs.indexKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, rs.entryKey(m))
	}
	keys = append(keys, rs.indexKey())
	return rs.client.Del(ctx, keys...).Err()
}

// Close closes the client.
func (rs *RedisCacheStore) Close() error {
	return rs.client.Close()
}
