package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/huangsam/catiq/core/rql"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/parquet"
	"github.com/huangsam/catiq/schema"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteQueryResult outputs a query result, dispatching based on the output format configured.
// A failed query is returned as an error.
func WriteQueryResult(result rql.Result, cfg *contract.Config, duration time.Duration) error {
	if !result.OK {
		return errors.New(result.Error)
	}
	columns := queryColumns(result)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeQueryCSV(w, columns, result.Rows)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := parquet.WriteQueryResultParquet(columns, result.Rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeQueryTable(w, columns, result, cfg, duration)
		}, "Wrote table")
	}
}

// queryColumns returns the projected columns, or the sorted keys of the rows
// when the result carries none.
func queryColumns(result rql.Result) []string {
	if len(result.Columns) > 0 {
		return result.Columns
	}
	var cols []string
	for _, row := range result.Rows {
		for k := range row {
			if !slices.Contains(cols, k) {
				cols = append(cols, k)
			}
		}
	}
	slices.Sort(cols)
	return cols
}

func writeQueryTable(w io.Writer, columns []string, result rql.Result, cfg *contract.Config, duration time.Duration) error {
	width := maxColumnWidth(cfg, 0)
	data := make([][]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		rec := make([]string, len(columns))
		for i, col := range columns {
			rec[i] = contract.TruncateText(schema.ToString(row[col]), width)
		}
		data = append(data, rec)
	}
	if err := renderTable(w, columns, data, tw.AlignRight); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d rows in %v\n", result.RowCount, duration.Round(time.Millisecond))
	return err
}

func writeQueryCSV(w io.Writer, columns []string, rows []schema.Row) error {
	return writeCSVWithHeader(w, columns, func(cw *csv.Writer) error {
		for _, row := range rows {
			rec := make([]string, len(columns))
			for i, col := range columns {
				rec[i] = schema.ToString(row[col])
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
