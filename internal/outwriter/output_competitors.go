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

// WriteCompetitorResult outputs scored competitors, dispatching based on the output format configured.
func WriteCompetitorResult(result schema.CompetitorResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCompetitorCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for sql results and history export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCompetitorTable(w, result, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

func writeCompetitorTable(w io.Writer, result schema.CompetitorResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if result.Target != nil {
		if _, err := fmt.Fprintf(w, "Closest competitors of %s\n", result.Target.Label()); err != nil {
			return err
		}
	}
	width := maxColumnWidth(cfg, 60)
	data := make([][]string, 0, len(result.Candidates))
	for i, c := range result.Candidates {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			c.Product.Asin,
			c.Product.Brand,
			schema.FormatMoney(c.Product.Price),
			fmtFloat(c.Score),
			contract.TruncateText(strings.Join(c.Evidence, "; "), width),
		})
	}
	if err := renderTable(w, []string{"Rank", "ASIN", "Brand", "Price", "Score", "Why"}, data, tw.AlignLeft); err != nil {
		return err
	}
	var b strings.Builder
	for _, a := range result.Assumptions {
		b.WriteString("Note: " + a + "\n")
	}
	fmt.Fprintf(&b, "Confidence: %s (%s). Scored in %v.\n",
		fmtFloat(result.Confidence), contract.GetConfidenceLabel(result.Confidence), duration.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}

func writeCompetitorCSV(w io.Writer, result schema.CompetitorResult, fmtFloat func(float64) string) error {
	header := []string{"rank", "target_asin", "asin", "brand", "title", "price", "score", "evidence"}
	target := ""
	if result.Target != nil {
		target = result.Target.Asin
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, c := range result.Candidates {
			rec := []string{
				strconv.Itoa(i + 1),
				target,
				c.Product.Asin,
				c.Product.Brand,
				c.Product.Title,
				strconv.FormatFloat(c.Product.Price, 'f', -1, 64),
				fmtFloat(c.Score),
				strings.Join(c.Evidence, "|"),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
