package iocache

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnswer(start time.Time) schema.AnswerRecord {
	return schema.AnswerRecord{
		RequestID:      "6f1c7a52-5a4e-4d2f-9d1a-1f0b8f7f3c11",
		CategoryID:     "obd2",
		SnapshotDate:   "2025-06",
		Message:        "who are the top brands?",
		Intent:         schema.TopBrandsIntent,
		Analyzer:       schema.TopBrandsAnalyzer,
		GenerationMode: schema.DeterministicMode,
		Confidence:     0.82,
		WarningCount:   0,
		StartTime:      start,
		EndTime:        start.Add(35 * time.Millisecond),
		Evidence: []schema.Evidence{
			{Label: "Top brand", Value: "Innova"},
			{Label: "Revenue share", Value: "31.0%"},
		},
	}
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.RecordAnswer(testAnswer(time.Now()))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), id)

	runs, err := store.GetAllAnswerRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestHistoryStore_UnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore(schema.RedisBackend, "redis://localhost:6379")
	assert.Error(t, err)
}

func TestHistoryStore_SQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	first, err := store.RecordAnswer(testAnswer(start))
	require.NoError(t, err)
	assert.Positive(t, first)

	second := testAnswer(start.Add(time.Hour))
	second.Evidence = nil
	second.WarningCount = 2
	secondID, err := store.RecordAnswer(second)
	require.NoError(t, err)
	assert.Greater(t, secondID, first)

	t.Run("runs", func(t *testing.T) {
		runs, err := store.GetAllAnswerRuns()
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "top_brands", runs[0].Intent)
		assert.Equal(t, "deterministic", runs[0].GenerationMode)
		assert.InDelta(t, 0.82, runs[0].Confidence, 0.0001)
		assert.True(t, start.Equal(runs[0].StartTime))
		require.NotNil(t, runs[0].EndTime)
		require.NotNil(t, runs[0].DurationMs)
		assert.Equal(t, int32(35), *runs[0].DurationMs)
		assert.Equal(t, int32(2), runs[1].WarningCount)
	})

	t.Run("evidence", func(t *testing.T) {
		evidence, err := store.GetAllAnswerEvidence()
		require.NoError(t, err)
		require.Len(t, evidence, 2)
		assert.Equal(t, first, evidence[0].AnswerID)
		assert.Equal(t, int32(1), evidence[1].Position)
		assert.Equal(t, "Revenue share", evidence[1].Label)
	})

	t.Run("status", func(t *testing.T) {
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalAnswers)
		assert.Equal(t, secondID, status.LastAnswerID)
		assert.True(t, start.Equal(status.OldestAnswerTime))
		assert.True(t, start.Add(time.Hour).Equal(status.LastAnswerTime))
		assert.Equal(t, 2, status.TotalEvidenceRows)
		assert.Equal(t, int64(2), status.TableSizes[answerRunsTable])

		var buf bytes.Buffer
		PrintHistoryStatus(&buf, status)
		assert.Contains(t, buf.String(), "Total Answers: 2")
		assert.Contains(t, buf.String(), "catiq_answer_evidence: 2 rows")
	})
}

func TestHistoryStore_PostgresReturning(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	start := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "catiq_answer_runs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"answer_id"}).AddRow(42))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "catiq_answer_evidence" (answer_id, position, label, value) VALUES ($1, $2, $3, $4)`)).
		WithArgs(int64(42), 0, "Top brand", "Innova").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "catiq_answer_evidence"`)).
		WithArgs(int64(42), 1, "Revenue share", "31.0%").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewHistoryStoreFromDB(db, schema.PostgreSQLBackend)
	id, err := store.RecordAnswer(testAnswer(start))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_MySQLLastInsertID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `catiq_answer_runs`")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `catiq_answer_evidence`")).
		WithArgs(int64(7), 0, "Top brand", "Innova").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `catiq_answer_evidence`")).
		WithArgs(int64(7), 1, "Revenue share", "31.0%").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewHistoryStoreFromDB(db, schema.MySQLBackend)
	id, err := store.RecordAnswer(testAnswer(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_RollbackOnEvidenceFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `catiq_answer_runs`")).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `catiq_answer_evidence`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	store := NewHistoryStoreFromDB(db, schema.MySQLBackend)
	_, err = store.RecordAnswer(testAnswer(time.Now()))
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	_, err = store.RecordAnswer(testAnswer(time.Now()))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))

	reopened, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	status, err := reopened.GetStatus()
	require.NoError(t, err)
	assert.Zero(t, status.TotalAnswers)
}
