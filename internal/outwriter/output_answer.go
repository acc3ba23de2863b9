package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteAnswer outputs a chat answer, dispatching based on the output format configured.
func WriteAnswer(resp schema.ChatResponse, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, resp)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnswerCSV(w, resp)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for sql results and history export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnswerText(w, resp, cfg, duration)
		}, "Wrote answer")
	}
}

// writeAnswerText renders the answer for a terminal.
func writeAnswerText(w io.Writer, resp schema.ChatResponse, cfg *contract.Config, duration time.Duration) error {
	var b strings.Builder
	b.WriteString(resp.Answer + "\n")
	if len(resp.Bullets) > 0 {
		b.WriteString("\n")
		for _, line := range resp.Bullets {
			b.WriteString("  • " + line + "\n")
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if len(resp.Evidence) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		width := maxColumnWidth(cfg, 24)
		data := make([][]string, 0, len(resp.Evidence))
		for _, ev := range resp.Evidence {
			data = append(data, []string{ev.Label, contract.TruncateText(ev.Value, width)})
		}
		if err := renderTable(w, []string{"Evidence", "Value"}, data, tw.AlignLeft); err != nil {
			return err
		}
	}

	if len(resp.Proactive) > 0 {
		if _, err := fmt.Fprintln(w, "\nSignals"); err != nil {
			return err
		}
		if err := writeSignalTable(w, resp.Proactive, cfg); err != nil {
			return err
		}
	}

	b.Reset()
	if len(resp.SuggestedQuestions) > 0 {
		b.WriteString("\nYou could also ask:\n")
		for i, q := range resp.SuggestedQuestions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, q)
		}
	}
	for _, warning := range resp.Warnings {
		line := "⚠️  " + warning
		if cfg.UseColors {
			line = contract.WatchColor.Sprint(line)
		}
		b.WriteString("\n" + line)
	}
	if len(resp.Warnings) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nIntent: %s. Answered in %v.\n", resp.Intent, duration.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}

// writeAnswerCSV flattens the answer into section,position,label,value rows.
func writeAnswerCSV(w io.Writer, resp schema.ChatResponse) error {
	header := []string{"section", "position", "label", "value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		rows := [][]string{{"answer", "1", string(resp.Intent), resp.Answer}}
		for i, line := range resp.Bullets {
			rows = append(rows, []string{"bullet", strconv.Itoa(i + 1), "", line})
		}
		for i, ev := range resp.Evidence {
			rows = append(rows, []string{"evidence", strconv.Itoa(i + 1), ev.Label, ev.Value})
		}
		for i, s := range resp.Proactive {
			rows = append(rows, []string{"signal", strconv.Itoa(i + 1), s.Title, s.Summary})
		}
		for i, q := range resp.SuggestedQuestions {
			rows = append(rows, []string{"suggestion", strconv.Itoa(i + 1), "", q})
		}
		for i, warning := range resp.Warnings {
			rows = append(rows, []string{"warning", strconv.Itoa(i + 1), "", warning})
		}
		return cw.WriteAll(rows)
	})
}
