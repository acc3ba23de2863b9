// Package parquet provides data structures and functions for exporting catiq
// answer history and query results to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/catiq/schema"
	"github.com/parquet-go/parquet-go"
)

// AnswerRun represents a single answered question with its routing metadata.
// This struct maps to the catiq_answer_runs database table.
type AnswerRun struct {
	// AnswerID is the unique identifier for this answer
	AnswerID int64 `parquet:"answer_id,snappy"`

	// RequestID is the UUID handed back to the caller
	RequestID string `parquet:"request_id,snappy"`

	// CategoryID and SnapshotDate identify the snapshot the answer was computed from
	CategoryID   string `parquet:"category_id,snappy"`
	SnapshotDate string `parquet:"snapshot_date,snappy"`

	// Message is the question as asked
	Message string `parquet:"message,snappy"`

	Intent         string  `parquet:"intent,snappy"`
	Analyzer       string  `parquet:"analyzer,snappy"`
	GenerationMode string  `parquet:"generation_mode,snappy"`
	Confidence     float64 `parquet:"confidence,snappy"`
	WarningCount   int32   `parquet:"warning_count,snappy"`

	// StartTime is when the request was received (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the answer was produced (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// DurationMs is the end-to-end latency in milliseconds (nullable)
	DurationMs *int32 `parquet:"duration_ms,optional,snappy"`
}

// AnswerEvidence is one evidence line attached to an answer.
// This struct maps to the catiq_answer_evidence database table.
type AnswerEvidence struct {
	AnswerID int64  `parquet:"answer_id,snappy"`
	Position int32  `parquet:"position,snappy"`
	Label    string `parquet:"label,snappy"`
	Value    string `parquet:"value,snappy"`
}

// WriteAnswerRunsParquet writes answer runs to a Parquet file.
func WriteAnswerRunsParquet(data []AnswerRun, outputPath string) error {
	return writeGeneric(data, outputPath)
}

// WriteAnswerEvidenceParquet writes answer evidence rows to a Parquet file.
func WriteAnswerEvidenceParquet(data []AnswerEvidence, outputPath string) error {
	return writeGeneric(data, outputPath)
}

func writeGeneric[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// ConvertAnswerRunRecords converts schema.AnswerRunRecord to AnswerRun for Parquet export.
func ConvertAnswerRunRecords(records []schema.AnswerRunRecord) []AnswerRun {
	result := make([]AnswerRun, len(records))
	for i, record := range records {
		result[i] = AnswerRun{
			AnswerID:       record.AnswerID,
			RequestID:      record.RequestID,
			CategoryID:     record.CategoryID,
			SnapshotDate:   record.SnapshotDate,
			Message:        record.Message,
			Intent:         record.Intent,
			Analyzer:       record.Analyzer,
			GenerationMode: record.GenerationMode,
			Confidence:     record.Confidence,
			WarningCount:   record.WarningCount,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			DurationMs:     record.DurationMs,
		}
	}
	return result
}

// ConvertAnswerEvidenceRecords converts schema.AnswerEvidenceRecord to AnswerEvidence for Parquet export.
func ConvertAnswerEvidenceRecords(records []schema.AnswerEvidenceRecord) []AnswerEvidence {
	result := make([]AnswerEvidence, len(records))
	for i, record := range records {
		result[i] = AnswerEvidence{
			AnswerID: record.AnswerID,
			Position: record.Position,
			Label:    record.Label,
			Value:    record.Value,
		}
	}
	return result
}
