package parquet

import (
	"fmt"
	"os"

	"github.com/huangsam/catiq/schema"
	"github.com/parquet-go/parquet-go"
)

// QuerySchema builds a Parquet schema for a query result. Columns whose non-null
// values are all numeric become optional doubles; everything else is an optional string.
func QuerySchema(columns []string, rows []schema.Row) *parquet.Schema {
	group := parquet.Group{}
	for _, col := range columns {
		if numericColumn(col, rows) {
			group[col] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		} else {
			group[col] = parquet.Optional(parquet.String())
		}
	}
	return parquet.NewSchema("query_result", group)
}

func numericColumn(col string, rows []schema.Row) bool {
	seen := false
	for _, row := range rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		if _, isNum := schema.ToFloat(v); !isNum {
			return false
		}
		if _, isStr := v.(string); isStr {
			return false
		}
		seen = true
	}
	return seen
}

// WriteQueryResultParquet writes the rows of a query result to a Parquet file.
// Missing cells are stored as nulls.
func WriteQueryResultParquet(columns []string, rows []schema.Row, outputPath string) error {
	if len(columns) == 0 {
		return fmt.Errorf("query result has no columns")
	}
	sch := QuerySchema(columns, rows)

	type leaf struct {
		name    string
		index   int
		numeric bool
	}
	leaves := make([]leaf, 0, len(columns))
	for _, col := range columns {
		lc, ok := sch.Lookup(col)
		if !ok {
			return fmt.Errorf("column %s missing from schema", col)
		}
		leaves = append(leaves, leaf{name: col, index: lc.ColumnIndex, numeric: lc.Node.Type().Kind() == parquet.Double})
	}

	prows := make([]parquet.Row, len(rows))
	for i, row := range rows {
		prow := make(parquet.Row, len(leaves))
		for _, l := range leaves {
			prow[l.index] = cellValue(row[l.name], l.numeric).Level(0, definitionLevel(row[l.name]), l.index)
		}
		prows[i] = prow
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outputPath, err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[any](file, sch)
	if _, err := writer.WriteRows(prows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

func definitionLevel(v any) int {
	if v == nil {
		return 0
	}
	return 1
}

func cellValue(v any, numeric bool) parquet.Value {
	if v == nil {
		return parquet.NullValue()
	}
	if numeric {
		f, _ := schema.ToFloat(v)
		return parquet.DoubleValue(f)
	}
	return parquet.ByteArrayValue([]byte(schema.ToString(v)))
}
