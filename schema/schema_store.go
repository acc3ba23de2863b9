package schema

import "time"

// AnswerRecord is what the engine hands to the history store after each answer.
type AnswerRecord struct {
	RequestID      string
	CategoryID     string
	SnapshotDate   string
	Message        string
	Intent         Intent
	Analyzer       Analyzer
	GenerationMode GenerationMode
	Confidence     float64
	WarningCount   int
	StartTime      time.Time
	EndTime        time.Time
	Evidence       []Evidence
}

// AnswerRunRecord represents a row from the catiq_answer_runs table.
type AnswerRunRecord struct {
	AnswerID       int64
	RequestID      string
	CategoryID     string
	SnapshotDate   string
	Message        string
	Intent         string
	Analyzer       string
	GenerationMode string
	Confidence     float64
	WarningCount   int32
	StartTime      time.Time
	EndTime        *time.Time
	DurationMs     *int32
}

// AnswerEvidenceRecord represents a row from the catiq_answer_evidence table.
type AnswerEvidenceRecord struct {
	AnswerID int64
	Position int32
	Label    string
	Value    string
}
