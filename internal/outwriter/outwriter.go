// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/catiq/core/rql"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnswer prints a chat answer using the configured output format.
func (ow *OutWriter) WriteAnswer(resp schema.ChatResponse, cfg *contract.Config, duration time.Duration) error {
	return WriteAnswer(resp, cfg, duration)
}

// WriteQuery prints a restricted query result using the configured output format.
func (ow *OutWriter) WriteQuery(result rql.Result, cfg *contract.Config, duration time.Duration) error {
	return WriteQueryResult(result, cfg, duration)
}

// WriteCompetitors prints scored competitors using the configured output format.
func (ow *OutWriter) WriteCompetitors(result schema.CompetitorResult, cfg *contract.Config, duration time.Duration) error {
	return WriteCompetitorResult(result, cfg, duration)
}

// WriteSignals prints proactive signals using the configured output format.
func (ow *OutWriter) WriteSignals(signals []schema.ProactiveSuggestion, cfg *contract.Config) error {
	return WriteSignals(signals, cfg)
}

// WriteTables prints the table registry using the configured output format.
func (ow *OutWriter) WriteTables(tables []schema.TableInfo, cfg *contract.Config) error {
	return WriteTables(tables, cfg)
}

// WriteTable prints the columns of one table using the configured output format.
func (ow *OutWriter) WriteTable(table schema.TableSchema, rowCount int, cfg *contract.Config) error {
	return WriteTableSchema(table, rowCount, cfg)
}
