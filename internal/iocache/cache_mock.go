package iocache

import (
	"context"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/mock"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetSnapshotStore implements the CacheManager interface.
func (m *MockCacheManager) GetSnapshotStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetHistoryStore implements the CacheManager interface.
func (m *MockCacheManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// RecordAnswer implements the HistoryStore interface.
func (m *MockHistoryStore) RecordAnswer(rec schema.AnswerRecord) (int64, error) {
	args := m.Called(rec)
	return args.Get(0).(int64), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllAnswerRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllAnswerRuns() ([]schema.AnswerRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.AnswerRunRecord)
	return runs, args.Error(1)
}

// GetAllAnswerEvidence implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllAnswerEvidence() ([]schema.AnswerEvidenceRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.AnswerEvidenceRecord)
	return rows, args.Error(1)
}

// MockSnapshotLoader is a mock implementation of SnapshotLoader for testing.
type MockSnapshotLoader struct {
	mock.Mock
}

var _ contract.SnapshotLoader = &MockSnapshotLoader{} // Compile-time check

// LoadTables implements the TableProvider interface.
func (m *MockSnapshotLoader) LoadTables(ctx context.Context, key schema.SnapshotKey) (schema.Tables, error) {
	args := m.Called(ctx, key)
	tables, _ := args.Get(0).(schema.Tables)
	return tables, args.Error(1)
}

// LoadIndex implements the IndexProvider interface.
func (m *MockSnapshotLoader) LoadIndex(ctx context.Context, key schema.SnapshotKey) (*schema.ProductIndex, error) {
	args := m.Called(ctx, key)
	ix, _ := args.Get(0).(*schema.ProductIndex)
	return ix, args.Error(1)
}

// LoadSnapshot implements the SnapshotLoader interface.
func (m *MockSnapshotLoader) LoadSnapshot(ctx context.Context, key schema.SnapshotKey) (*schema.Snapshot, error) {
	args := m.Called(ctx, key)
	snap, _ := args.Get(0).(*schema.Snapshot)
	return snap, args.Error(1)
}

// ListSnapshots implements the SnapshotLoader interface.
func (m *MockSnapshotLoader) ListSnapshots(ctx context.Context) ([]schema.SnapshotKey, error) {
	args := m.Called(ctx)
	keys, _ := args.Get(0).([]schema.SnapshotKey)
	return keys, args.Error(1)
}
