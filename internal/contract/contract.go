// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"

	"github.com/huangsam/catiq/schema"
)

// Sentinel errors shared across packages.
var (
	// ErrSnapshotNotFound means no snapshot exists for the requested category and date.
	ErrSnapshotNotFound = errors.New("unknown category or snapshot")

	// ErrNoModel means a model call was needed but no model client is configured.
	ErrNoModel = errors.New("no model client configured")
)

// TableProvider returns the tables of one snapshot.
// Each call returns a fresh copy that callers may treat as immutable.
type TableProvider interface {
	LoadTables(ctx context.Context, key schema.SnapshotKey) (schema.Tables, error)
}

// IndexProvider returns the product and brand index of one snapshot.
type IndexProvider interface {
	LoadIndex(ctx context.Context, key schema.SnapshotKey) (*schema.ProductIndex, error)
}

// SnapshotLoader is the data ingestion collaborator.
type SnapshotLoader interface {
	TableProvider
	IndexProvider

	// LoadSnapshot returns the full snapshot. An empty date means the latest one.
	LoadSnapshot(ctx context.Context, key schema.SnapshotKey) (*schema.Snapshot, error)

	// ListSnapshots returns every available snapshot key, sorted.
	ListSnapshots(ctx context.Context) ([]schema.SnapshotKey, error)
}

// SnapshotSource serves snapshots to the engine, usually through a TTL cache.
type SnapshotSource interface {
	Snapshot(ctx context.Context, key schema.SnapshotKey) (*schema.Snapshot, error)
}

// ModelClient is an external generative model with tool calling.
type ModelClient interface {
	Complete(ctx context.Context, messages []schema.Message, tools []schema.ToolSpec) (schema.Completion, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetSnapshotStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore records answered questions and their evidence.
type HistoryStore interface {
	// RecordAnswer stores one answer with its evidence and returns its id
	RecordAnswer(record schema.AnswerRecord) (int64, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllAnswerRuns returns every recorded answer, oldest first
	GetAllAnswerRuns() ([]schema.AnswerRunRecord, error)

	// GetAllAnswerEvidence returns every recorded evidence row
	GetAllAnswerEvidence() ([]schema.AnswerEvidenceRecord, error)

	// Close closes the underlying connection
	Close() error
}
