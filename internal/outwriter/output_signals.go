package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSignals outputs proactive signals, dispatching based on the output format configured.
func WriteSignals(signals []schema.ProactiveSuggestion, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if signals == nil {
				signals = []schema.ProactiveSuggestion{}
			}
			return writeJSON(w, signals)
		}, "Wrote JSON")
	case schema.CSVOut:
		fmtFloat := createFormatters(cfg.Precision)
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSignalsCSV(w, signals, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for sql results and history export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if len(signals) == 0 {
				_, err := fmt.Fprintln(w, "No signals for this snapshot.")
				return err
			}
			return writeSignalTable(w, signals, cfg)
		}, "Wrote table")
	}
}

func writeSignalTable(w io.Writer, signals []schema.ProactiveSuggestion, cfg *contract.Config) error {
	fmtFloat := createFormatters(cfg.Precision)
	width := maxColumnWidth(cfg, 50)
	data := make([][]string, 0, len(signals))
	for _, s := range signals {
		label := contract.GetSeverityLabel(s.Severity)
		if cfg.UseColors {
			label = contract.GetColorSeverityLabel(s.Severity)
		}
		data = append(data, []string{
			label,
			s.Title,
			contract.TruncateText(s.Summary, width),
			fmtFloat(s.Confidence),
		})
	}
	return renderTable(w, []string{"Severity", "Signal", "Summary", "Confidence"}, data, tw.AlignLeft)
}

func writeSignalsCSV(w io.Writer, signals []schema.ProactiveSuggestion, fmtFloat func(float64) string) error {
	header := []string{"id", "severity", "title", "summary", "confidence"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range signals {
			rec := []string{s.ID, string(s.Severity), s.Title, s.Summary, fmtFloat(s.Confidence)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
