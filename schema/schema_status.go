package schema

import "time"

// CacheStatus represents the status of the snapshot cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the answer history store.
type HistoryStatus struct {
	Backend           string           `json:"backend"`
	Connected         bool             `json:"connected"`
	TotalAnswers      int              `json:"total_answers"`
	LastAnswerID      int64            `json:"last_answer_id"`
	LastAnswerTime    time.Time        `json:"last_answer_time"`
	OldestAnswerTime  time.Time        `json:"oldest_answer_time"`
	TotalEvidenceRows int              `json:"total_evidence_rows"`
	TableSizes        map[string]int64 `json:"table_sizes"`
}
