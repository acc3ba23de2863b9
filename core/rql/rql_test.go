package rql

import (
	"fmt"
	"testing"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brandTables() schema.Tables {
	return schema.Tables{
		schema.BrandsMonthlyTable: {
			{"category_id": "code_reader_scanner", "brand": "Innova", "revenue": 500000.0, "units": 4000.0, "revenue_mom": 0.05},
			{"category_id": "code_reader_scanner", "brand": "BLCKTEC", "revenue": 300000.0, "units": 5200.0, "revenue_mom": nil},
			{"category_id": "code_reader_scanner", "brand": "Autel", "revenue": 650000.0, "units": 2100.0, "revenue_mom": -0.12},
			{"category_id": "code_reader_scanner", "brand": "Topdon", "revenue": 200000.0, "units": 1800.0, "revenue_mom": 0.31},
			{"category_id": "other_category", "brand": "Foxwell", "revenue": 90000.0, "units": 800.0, "revenue_mom": 0.02},
		},
	}
}

func TestRunOrderByExample(t *testing.T) {
	res := Run(brandTables(), `SELECT brand, revenue FROM brands_monthly WHERE category_id = 'code_reader_scanner' ORDER BY revenue DESC LIMIT 3`, 0)
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 4, res.RowCount)
	assert.Equal(t, []schema.Row{
		{"brand": "Autel", "revenue": 650000.0},
		{"brand": "Innova", "revenue": 500000.0},
		{"brand": "BLCKTEC", "revenue": 300000.0},
	}, res.Rows)
	assert.Equal(t, []string{"brand", "revenue"}, res.Columns)
}

func TestRunDisallowed(t *testing.T) {
	queries := []string{
		"INSERT INTO brands_monthly VALUES (1)",
		"  insert into brands_monthly values (1)",
		"SELECT * FROM brands_monthly; DROP TABLE brands_monthly",
		"select * from brands_monthly where brand = 'x' and Delete = 1",
		"PRAGMA table_info(brands_monthly)",
		"SELECT * FROM brands_monthly WHERE brand = 'unterminated; truncate",
		"SELECT 1 + drop.table FROM brands_monthly",
		"SELECT x.delete + 1 AS y FROM brands_monthly",
		"SELECT brand FROM brands_monthly WHERE brands_monthly.Update = 1",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			res := Run(brandTables(), q, 0)
			assert.False(t, res.OK)
			assert.Contains(t, res.Error, "Disallowed SQL keyword")
			assert.Empty(t, res.Rows)
			assert.NotNil(t, res.Rows)
		})
	}

	t.Run("keyword inside string literal", func(t *testing.T) {
		res := Run(brandTables(), "SELECT brand FROM brands_monthly WHERE brand LIKE '%drop%'", 0)
		assert.True(t, res.OK)
		assert.Equal(t, 0, res.RowCount)
	})
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"unknown table", "SELECT * FROM users", "Unknown table: users"},
		{"unknown column", "SELECT brand, asin FROM brands_monthly", "Unknown column: asin"},
		{"unknown where column", "SELECT * FROM brands_monthly WHERE colour = 'red'", "Unknown column: colour"},
		{"unknown order column", "SELECT * FROM brands_monthly ORDER BY score", "Unknown column: score"},
		{"not select", "WITH x AS (SELECT 1) SELECT * FROM x", "Unsupported SQL syntax"},
		{"or", "SELECT * FROM brands_monthly WHERE brand = 'a' OR brand = 'b'", "Unsupported SQL syntax"},
		{"join", "SELECT * FROM brands_monthly JOIN type_mix", "Unsupported SQL syntax"},
		{"missing from", "SELECT brand", "Unsupported SQL syntax"},
		{"bad limit", "SELECT * FROM brands_monthly LIMIT many", "Unsupported SQL syntax"},
		{"empty", "", "Unsupported SQL syntax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(brandTables(), tt.query, 0)
			assert.False(t, res.OK)
			assert.Contains(t, res.Error, tt.want)
			assert.Empty(t, res.Rows)
		})
	}
}

func TestRunPredicates(t *testing.T) {
	tables := brandTables()
	count := func(where string) int {
		res := Run(tables, "SELECT brand FROM brands_monthly WHERE "+where, 0)
		require.True(t, res.OK, res.Error)
		return res.RowCount
	}

	t.Run("numeric comparison", func(t *testing.T) {
		assert.Equal(t, 2, count("revenue > 400000"))
		assert.Equal(t, 3, count("revenue >= 300000"))
		assert.Equal(t, 1, count("revenue_mom < -0.1"))
		assert.Equal(t, 1, count("revenue = '650000'"))
	})

	t.Run("string comparison is case-insensitive", func(t *testing.T) {
		assert.Equal(t, 1, count("brand = 'innova'"))
		assert.Equal(t, 4, count("brand != 'INNOVA'"))
		assert.Equal(t, 4, count("brand <> 'innova'"))
		// "autel" < "blcktec" < "foxwell" as strings
		assert.Equal(t, 1, count("brand < 'b'"))
	})

	t.Run("null handling", func(t *testing.T) {
		assert.Equal(t, 1, count("revenue_mom IS NULL"))
		assert.Equal(t, 4, count("revenue_mom IS NOT NULL"))
		assert.Equal(t, 3, count("revenue_mom > -1 AND revenue_mom < 1 AND brand != 'Autel'"))
	})

	t.Run("in and like", func(t *testing.T) {
		assert.Equal(t, 2, count("brand IN ('innova', 'AUTEL')"))
		assert.Equal(t, 3, count("brand NOT IN ('innova', 'AUTEL')"))
		assert.Equal(t, 3, count("brand LIKE '%o%'"))
		assert.Equal(t, 1, count("brand LIKE 'top%'"))
		assert.Equal(t, 1, count("brand LIKE '%tec'"))
		assert.Equal(t, 4, count("brand NOT LIKE 'top%'"))
	})

	t.Run("conjunction", func(t *testing.T) {
		assert.Equal(t, 1, count("category_id = 'code_reader_scanner' AND units > 5000"))
	})
}

func TestRunOrderingAndLimit(t *testing.T) {
	tables := brandTables()

	t.Run("default direction is descending", func(t *testing.T) {
		res := Run(tables, "SELECT brand FROM brands_monthly ORDER BY units", 0)
		require.True(t, res.OK)
		assert.Equal(t, "BLCKTEC", res.Rows[0]["brand"])
	})

	t.Run("ascending with nulls last", func(t *testing.T) {
		res := Run(tables, "SELECT brand, revenue_mom FROM brands_monthly ORDER BY revenue_mom ASC", 0)
		require.True(t, res.OK)
		assert.Equal(t, "Autel", res.Rows[0]["brand"])
		assert.Equal(t, "BLCKTEC", res.Rows[len(res.Rows)-1]["brand"])
	})

	t.Run("descending with nulls last", func(t *testing.T) {
		res := Run(tables, "SELECT brand FROM brands_monthly ORDER BY revenue_mom DESC", 0)
		require.True(t, res.OK)
		assert.Equal(t, "Topdon", res.Rows[0]["brand"])
		assert.Equal(t, "BLCKTEC", res.Rows[len(res.Rows)-1]["brand"])
	})

	t.Run("caller limit overrides query limit", func(t *testing.T) {
		res := Run(tables, "SELECT * FROM brands_monthly LIMIT 1", 3)
		require.True(t, res.OK)
		assert.Len(t, res.Rows, 3)
		assert.Equal(t, 5, res.RowCount)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		res := Run(tables, "SELECT * FROM brands_monthly LIMIT 0", 0)
		require.True(t, res.OK)
		assert.Len(t, res.Rows, 1)
	})

	t.Run("never more than max limit", func(t *testing.T) {
		var rows []schema.Row
		for i := range 700 {
			rows = append(rows, schema.Row{"brand": fmt.Sprintf("b%03d", i), "revenue": float64(i)})
		}
		big := schema.Tables{schema.BrandsMonthlyTable: rows}
		res := Run(big, "SELECT brand FROM brands_monthly", 10000)
		require.True(t, res.OK)
		assert.Len(t, res.Rows, MaxLimit)
		assert.Equal(t, 700, res.RowCount)

		res = Run(big, "SELECT brand FROM brands_monthly", 0)
		assert.Len(t, res.Rows, DefaultLimit)
	})

	t.Run("empty table", func(t *testing.T) {
		res := Run(schema.Tables{}, "SELECT * FROM type_mix", 0)
		require.True(t, res.OK)
		assert.Equal(t, 0, res.RowCount)
		assert.Empty(t, res.Rows)
	})
}

func TestRunProjection(t *testing.T) {
	tables := brandTables()

	t.Run("star returns rows unmodified", func(t *testing.T) {
		res := Run(tables, "select * from brands_monthly where brand = 'Topdon'", 0)
		require.True(t, res.OK)
		assert.Equal(t, tables[schema.BrandsMonthlyTable][3], res.Rows[0])
	})

	t.Run("alias renames", func(t *testing.T) {
		res := Run(tables, "SELECT brand AS name, revenue AS rev FROM brands_monthly ORDER BY revenue LIMIT 1", 0)
		require.True(t, res.OK)
		assert.Equal(t, schema.Row{"name": "Autel", "rev": 650000.0}, res.Rows[0])
	})

	t.Run("where reads columns dropped by projection", func(t *testing.T) {
		res := Run(tables, "SELECT brand FROM brands_monthly WHERE units > 5000 ORDER BY revenue", 0)
		require.True(t, res.OK)
		assert.Equal(t, []schema.Row{{"brand": "BLCKTEC"}}, res.Rows)
	})

	t.Run("expressions return literal text", func(t *testing.T) {
		res := Run(tables, "SELECT brand, revenue * 2 AS doubled, COUNT(*) FROM brands_monthly LIMIT 1", 0)
		require.True(t, res.OK, res.Error)
		assert.Equal(t, "revenue * 2", res.Rows[0]["doubled"])
		assert.Equal(t, "COUNT(*)", res.Rows[0]["COUNT(*)"])
	})
}

func TestEffectiveLimit(t *testing.T) {
	five := 5
	huge := 9999
	negative := -4
	assert.Equal(t, DefaultLimit, EffectiveLimit(0, nil))
	assert.Equal(t, 5, EffectiveLimit(0, &five))
	assert.Equal(t, 7, EffectiveLimit(7, &five))
	assert.Equal(t, MaxLimit, EffectiveLimit(0, &huge))
	assert.Equal(t, DefaultLimit, EffectiveLimit(-3, nil))
	assert.Equal(t, 1, EffectiveLimit(0, &negative))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'O''Reilly'", Quote("O'Reilly"))
	assert.Equal(t, "('a', 'b''c')", QuoteList([]string{"a", "b'c"}))

	res := Run(schema.Tables{schema.BrandsMonthlyTable: {{"brand": "O'Reilly"}}},
		"SELECT brand FROM brands_monthly WHERE brand = "+Quote("O'Reilly"), 0)
	require.True(t, res.OK)
	assert.Equal(t, 1, res.RowCount)
}
