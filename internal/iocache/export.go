package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/parquet"
)

// ExecuteHistoryExport exports the answer history to two Parquet files named after outputFile.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalAnswers == 0 {
		return errors.New("no answer history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total answers: %d\n", status.TotalAnswers)
	_, _ = fmt.Fprintf(w, "Total evidence rows: %d\n", status.TotalEvidenceRows)

	runs, err := store.GetAllAnswerRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve answer runs: %w", err)
	}
	evidence, err := store.GetAllAnswerEvidence()
	if err != nil {
		return fmt.Errorf("failed to retrieve answer evidence: %w", err)
	}

	runsFile := outputFile + ".answer_runs.parquet"
	if err := parquet.WriteAnswerRunsParquet(parquet.ConvertAnswerRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write answer runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d answer runs to: %s\n", len(runs), runsFile)

	evidenceFile := outputFile + ".answer_evidence.parquet"
	if err := parquet.WriteAnswerEvidenceParquet(parquet.ConvertAnswerEvidenceRecords(evidence), evidenceFile); err != nil {
		return fmt.Errorf("failed to write answer evidence: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d evidence rows to: %s\n", len(evidence), evidenceFile)
	return nil
}
