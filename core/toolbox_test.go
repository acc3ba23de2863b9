package core

import (
	"encoding/json"
	"testing"

	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolboxListAndDescribe(t *testing.T) {
	tb := NewToolbox(loadFixture(t, "obd2", "2025-06"))

	tables := tb.ListTables()
	require.Len(t, tables, len(schema.AllTables()))
	counts := map[string]int{}
	for _, info := range tables {
		counts[info.Name] = info.RowCount
	}
	assert.Equal(t, 4, counts[schema.ProductsMonthlyTable])
	assert.Equal(t, 0, counts[schema.BrandHistoryTable])
	assert.NotContains(t, counts, "unknown_table")

	desc, err := tb.DescribeTable(" brands_monthly ")
	require.NoError(t, err)
	assert.Equal(t, schema.BrandsMonthlyTable, desc.Name)
	assert.Equal(t, 3, desc.RowCount)
	assert.NotEmpty(t, desc.Columns)

	_, err = tb.DescribeTable("sales")
	assert.EqualError(t, err, "Unknown table: sales")
}

func TestToolboxRunSQL(t *testing.T) {
	tb := NewToolbox(loadFixture(t, "obd2", "2025-06"))

	result := tb.RunSQL("SELECT brand, revenue FROM brands_monthly ORDER BY revenue DESC", 2)
	require.True(t, result.OK, result.Error)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "Innova", result.Rows[0]["brand"])

	result = tb.RunSQL("DELETE FROM brands_monthly", 10)
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Error)
}

func TestToolboxSourceExcerpt(t *testing.T) {
	tb := NewToolbox(loadFixture(t, "obd2", "2025-06"))

	t.Run("by id", func(t *testing.T) {
		excerpt, err := tb.SourceExcerpt("METHODOLOGY", "", 0)
		require.NoError(t, err)
		assert.Equal(t, "Methodology", excerpt.Title)
		assert.Equal(t, "Revenue is estimated from sales rank and price.", excerpt.Excerpt)
		assert.False(t, excerpt.Truncated)
	})

	t.Run("by query and truncated", func(t *testing.T) {
		excerpt, err := tb.SourceExcerpt("", "sales rank", 10)
		require.NoError(t, err)
		assert.Equal(t, "sales rank", excerpt.Excerpt)
		assert.True(t, excerpt.Truncated)
	})

	t.Run("query after multibyte text", func(t *testing.T) {
		snap := &schema.Snapshot{
			Key:     schema.SnapshotKey{CategoryID: "obd2", Date: "2025-06"},
			Sources: []schema.SourceDoc{{ID: "notes", Content: "ȺȺȺȺ \u212aELVIN x ÿ"}},
		}
		multi := NewToolbox(snap)

		excerpt, err := multi.SourceExcerpt("", "x", 0)
		require.NoError(t, err)
		assert.Equal(t, "x ÿ", excerpt.Excerpt)

		excerpt, err = multi.SourceExcerpt("", "kelvin", 0)
		require.NoError(t, err)
		assert.Equal(t, "\u212aELVIN x ÿ", excerpt.Excerpt)

		excerpt, err = multi.SourceExcerpt("", "ⱥⱥ", 3)
		require.NoError(t, err)
		assert.Equal(t, "ȺȺȺ", excerpt.Excerpt)
		assert.True(t, excerpt.Truncated)

		out := multi.Call(SourceExcerptTool, `{"query":"x"}`)
		assert.Contains(t, out, "x ÿ")
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := tb.SourceExcerpt("pricing", "", 0)
		assert.EqualError(t, err, "unknown source: pricing")
	})

	t.Run("no documents", func(t *testing.T) {
		_, err := NewToolbox(loadFixture(t, "dashcam", "2025-06")).SourceExcerpt("", "", 0)
		assert.EqualError(t, err, "no source documents for dashcam 2025-06")
	})
}

func TestToolboxCall(t *testing.T) {
	tb := NewToolbox(loadFixture(t, "obd2", "2025-06"))

	decode := func(t *testing.T, s string) map[string]any {
		t.Helper()
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(s), &out))
		return out
	}

	t.Run("run_sql", func(t *testing.T) {
		out := decode(t, tb.Call(RunSQLTool, `{"query":"SELECT asin FROM products_monthly","limit":1}`))
		assert.Equal(t, true, out["ok"])
		assert.EqualValues(t, 1, out["rowCount"])
	})

	t.Run("describe_table failure", func(t *testing.T) {
		out := decode(t, tb.Call(DescribeTableTool, `{"table":"nope"}`))
		assert.Equal(t, false, out["ok"])
		assert.Equal(t, "Unknown table: nope", out["error"])
	})

	t.Run("invalid arguments", func(t *testing.T) {
		out := decode(t, tb.Call(RunSQLTool, `{"query":`))
		assert.Equal(t, false, out["ok"])
		assert.Contains(t, out["error"], "invalid arguments")
	})

	t.Run("unknown tool", func(t *testing.T) {
		out := decode(t, tb.Call("drop_everything", ""))
		assert.Equal(t, "unknown tool: drop_everything", out["error"])
	})

	t.Run("starter questions", func(t *testing.T) {
		var questions []string
		require.NoError(t, json.Unmarshal([]byte(tb.Call(StarterQuestionsTool, "{}")), &questions))
		assert.Contains(t, questions, "Who are the top brands in obd2?")
	})
}

func TestToolboxSpecsMatchCall(t *testing.T) {
	tb := NewToolbox(loadFixture(t, "obd2", "2025-06"))
	for _, spec := range tb.Specs() {
		assert.NotContains(t, tb.Call(spec.Name, "{}"), "unknown tool", spec.Name)
		assert.Equal(t, "object", spec.Parameters["type"])
	}
}
