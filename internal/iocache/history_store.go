package iocache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
)

// Table names for answer history.
const (
	answerRunsTable     = "catiq_answer_runs"
	answerEvidenceTable = "catiq_answer_evidence"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", backend)
	}

	db, err := openSQL(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return NewHistoryStoreFromDB(db, backend), nil
}

// NewHistoryStoreFromDB wraps an open connection whose tables already exist.
func NewHistoryStoreFromDB(db *sql.DB, backend schema.DatabaseBackend) *HistoryStoreImpl {
	return &HistoryStoreImpl{db: db, backend: backend}
}

// createHistoryTables creates the answer history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{answerRunsTable, getCreateAnswerRunsQuery(backend)},
		{answerEvidenceTable, getCreateAnswerEvidenceQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateAnswerRunsQuery returns the CREATE TABLE query for catiq_answer_runs.
func getCreateAnswerRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(answerRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				answer_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				request_id VARCHAR(36) NOT NULL,
				category_id VARCHAR(100) NOT NULL,
				snapshot_date VARCHAR(20) NOT NULL,
				message TEXT NOT NULL,
				intent VARCHAR(50) NOT NULL,
				analyzer VARCHAR(50) NOT NULL,
				generation_mode VARCHAR(20) NOT NULL,
				confidence DOUBLE NOT NULL,
				warning_count INT NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				duration_ms INT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				answer_id BIGSERIAL PRIMARY KEY,
				request_id TEXT NOT NULL,
				category_id TEXT NOT NULL,
				snapshot_date TEXT NOT NULL,
				message TEXT NOT NULL,
				intent TEXT NOT NULL,
				analyzer TEXT NOT NULL,
				generation_mode TEXT NOT NULL,
				confidence DOUBLE PRECISION NOT NULL,
				warning_count INT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				duration_ms INT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				answer_id INTEGER PRIMARY KEY AUTOINCREMENT,
				request_id TEXT NOT NULL,
				category_id TEXT NOT NULL,
				snapshot_date TEXT NOT NULL,
				message TEXT NOT NULL,
				intent TEXT NOT NULL,
				analyzer TEXT NOT NULL,
				generation_mode TEXT NOT NULL,
				confidence REAL NOT NULL,
				warning_count INTEGER NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				duration_ms INTEGER
			);
		`, quotedTableName)
	}
}

// getCreateAnswerEvidenceQuery returns the CREATE TABLE query for catiq_answer_evidence.
func getCreateAnswerEvidenceQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(answerEvidenceTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				answer_id BIGINT NOT NULL,
				position INT NOT NULL,
				label VARCHAR(255) NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (answer_id, position)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				answer_id BIGINT NOT NULL,
				position INT NOT NULL,
				label TEXT NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (answer_id, position)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				answer_id INTEGER NOT NULL,
				position INTEGER NOT NULL,
				label TEXT NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY (answer_id, position)
			);
		`, quotedTableName)
	}
}

// placeholders returns n comma-separated placeholders starting at position 1.
func placeholders(backend schema.DatabaseBackend, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = placeholder(backend, i+1)
	}
	return strings.Join(parts, ", ")
}

// RecordAnswer stores one answer and its evidence rows in a single transaction
// and returns the new answer id.
func (hs *HistoryStoreImpl) RecordAnswer(rec schema.AnswerRecord) (int64, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin answer transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	durationMs := rec.EndTime.Sub(rec.StartTime).Milliseconds()
	args := []any{
		rec.RequestID, rec.CategoryID, rec.SnapshotDate, rec.Message,
		string(rec.Intent), string(rec.Analyzer), string(rec.GenerationMode),
		rec.Confidence, rec.WarningCount,
		formatTime(rec.StartTime, hs.backend), formatTime(rec.EndTime, hs.backend), durationMs,
	}
	insert := fmt.Sprintf(`INSERT INTO %s (request_id, category_id, snapshot_date, message, intent, analyzer,
			generation_mode, confidence, warning_count, start_time, end_time, duration_ms)
			VALUES (%s)`, quoteTableName(answerRunsTable, hs.backend), placeholders(hs.backend, len(args)))

	var answerID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		err = tx.QueryRow(insert+" RETURNING answer_id", args...).Scan(&answerID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = tx.Exec(insert, args...)
		if err == nil {
			answerID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert answer run: %w", err)
	}

	evidenceInsert := fmt.Sprintf(`INSERT INTO %s (answer_id, position, label, value) VALUES (%s)`,
		quoteTableName(answerEvidenceTable, hs.backend), placeholders(hs.backend, 4))
	for i, ev := range rec.Evidence {
		if _, err := tx.Exec(evidenceInsert, answerID, i, ev.Label, ev.Value); err != nil {
			return 0, fmt.Errorf("failed to insert answer evidence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit answer: %w", err)
	}
	return answerID, nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	runs := quoteTableName(answerRunsTable, hs.backend)
	row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs))
	if err := row.Scan(&status.TotalAnswers); err != nil {
		return status, fmt.Errorf("failed to get total answers: %w", err)
	}

	if status.TotalAnswers > 0 {
		row = hs.db.QueryRow(fmt.Sprintf("SELECT answer_id, start_time FROM %s ORDER BY answer_id DESC LIMIT 1", runs))
		lastTime, err := hs.scanIDAndTime(row, &status.LastAnswerID)
		if err != nil {
			return status, fmt.Errorf("failed to get last answer info: %w", err)
		}
		status.LastAnswerTime = lastTime

		var oldestID int64
		row = hs.db.QueryRow(fmt.Sprintf("SELECT answer_id, start_time FROM %s ORDER BY answer_id ASC LIMIT 1", runs))
		oldestTime, err := hs.scanIDAndTime(row, &oldestID)
		if err != nil {
			return status, fmt.Errorf("failed to get oldest answer info: %w", err)
		}
		status.OldestAnswerTime = oldestTime
	}

	for _, table := range []string{answerRunsTable, answerEvidenceTable} {
		var count int64
		row = hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalEvidenceRows = int(status.TableSizes[answerEvidenceTable])
	return status, nil
}

// scanIDAndTime handles the per-backend time storage format.
func (hs *HistoryStoreImpl) scanIDAndTime(row *sql.Row, id *int64) (time.Time, error) {
	if hs.backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(id, &t)
		return t, err
	}
	var s string
	if err := row.Scan(id, &s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}

// GetAllAnswerRuns retrieves all answer runs from the store.
func (hs *HistoryStoreImpl) GetAllAnswerRuns() ([]schema.AnswerRunRecord, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT answer_id, request_id, category_id, snapshot_date, message, intent, analyzer,
		generation_mode, confidence, warning_count, start_time, end_time, duration_ms
		FROM %s ORDER BY answer_id`, quoteTableName(answerRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query answer runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnswerRunRecord
	for rows.Next() {
		var r schema.AnswerRunRecord
		dest := []any{
			&r.AnswerID, &r.RequestID, &r.CategoryID, &r.SnapshotDate, &r.Message, &r.Intent, &r.Analyzer,
			&r.GenerationMode, &r.Confidence, &r.WarningCount,
		}
		switch hs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(append(dest, &startStr, &endStr, &r.DurationMs)...); err != nil {
				return nil, fmt.Errorf("failed to scan answer run: %w", err)
			}
			if r.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				end, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				r.EndTime = &end
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(append(dest, &r.StartTime, &r.EndTime, &r.DurationMs)...); err != nil {
				return nil, fmt.Errorf("failed to scan answer run: %w", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer runs: %w", err)
	}
	return results, nil
}

// GetAllAnswerEvidence retrieves all evidence rows from the store.
func (hs *HistoryStoreImpl) GetAllAnswerEvidence() ([]schema.AnswerEvidenceRecord, error) {
	// Skip for NoneBackend
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT answer_id, position, label, value FROM %s ORDER BY answer_id, position`,
		quoteTableName(answerEvidenceTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query answer evidence: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnswerEvidenceRecord
	for rows.Next() {
		var r schema.AnswerEvidenceRecord
		if err := rows.Scan(&r.AnswerID, &r.Position, &r.Label, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan answer evidence: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating answer evidence: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return t
	}
}
