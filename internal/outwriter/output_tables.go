package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteTables outputs the table registry, dispatching based on the output format configured.
func WriteTables(tables []schema.TableInfo, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, tables)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"name", "description", "row_count"}, func(cw *csv.Writer) error {
				for _, t := range tables {
					if err := cw.Write([]string{t.Name, t.Description, strconv.Itoa(t.RowCount)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for sql results and history export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			width := maxColumnWidth(cfg, 32)
			data := make([][]string, 0, len(tables))
			for _, t := range tables {
				data = append(data, []string{t.Name, strconv.Itoa(t.RowCount), contract.TruncateText(t.Description, width)})
			}
			return renderTable(w, []string{"Table", "Rows", "Description"}, data, tw.AlignLeft)
		}, "Wrote table")
	}
}

// WriteTableSchema outputs the columns of one table.
func WriteTableSchema(table schema.TableSchema, rowCount int, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				schema.TableSchema
				RowCount int `json:"rowCount"`
			}{table, rowCount})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"column", "type", "description"}, func(cw *csv.Writer) error {
				for _, c := range table.Columns {
					if err := cw.Write([]string{c.Name, string(c.Type), c.Description}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only supported for sql results and history export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "%s (%d rows): %s\n", table.Name, rowCount, table.Description); err != nil {
				return err
			}
			width := maxColumnWidth(cfg, 36)
			data := make([][]string, 0, len(table.Columns))
			for _, c := range table.Columns {
				data = append(data, []string{c.Name, string(c.Type), contract.TruncateText(c.Description, width)})
			}
			return renderTable(w, []string{"Column", "Type", "Description"}, data, tw.AlignLeft)
		}, "Wrote table")
	}
}
