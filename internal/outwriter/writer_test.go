package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/catiq/core/rql"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse() schema.ChatResponse {
	return schema.ChatResponse{
		Intent:  schema.Intent(schema.TopBrandsAnalyzer),
		Answer:  "Innova leads the category with $61,000 of revenue.",
		Bullets: []string{"Innova: $61,000 (49.2% share)", "Autel: $45,000 (36.3% share)"},
		Evidence: []schema.Evidence{
			{Label: "Category revenue", Value: "$124,000"},
		},
		Proactive: []schema.ProactiveSuggestion{
			{ID: "leader_gap", Title: "Leader gap", Summary: "Innova is ahead by 12.9 points.", Severity: schema.InfoSeverity, Confidence: 0.8},
		},
		SuggestedQuestions: []string{"How is Innova trending?"},
		Warnings:           []string{"Some figures could not be verified."},
	}
}

func textConfig() *contract.Config {
	return &contract.Config{Output: schema.TextOut, Precision: 2, Width: 120}
}

func TestWriteAnswerText(t *testing.T) {
	var buf bytes.Buffer
	err := writeAnswerText(&buf, sampleResponse(), textConfig(), 15*time.Millisecond)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Innova leads the category")
	assert.Contains(t, out, "• Autel: $45,000 (36.3% share)")
	assert.Contains(t, out, "Category revenue")
	assert.Contains(t, out, "Leader gap")
	assert.Contains(t, out, "1. How is Innova trending?")
	assert.Contains(t, out, "Some figures could not be verified.")
	assert.Contains(t, out, "Intent: top_brands")
}

func TestWriteAnswerCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeAnswerCSV(&buf, sampleResponse()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, []string{"section", "position", "label", "value"}, records[0])
	assert.Equal(t, "answer", records[1][0])
	assert.Equal(t, []string{"evidence", "1", "Category revenue", "$124,000"}, records[4])
	assert.Equal(t, "warning", records[7][0])
}

func TestWriteJSONAnswer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleResponse()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "top_brands", decoded["intent"])
	assert.Len(t, decoded["bullets"], 2)
}

func TestWriteQueryResult(t *testing.T) {
	result := rql.Result{
		OK:       true,
		Columns:  []string{"brand", "revenue"},
		Rows:     []schema.Row{{"brand": "Innova", "revenue": 61000.0}, {"brand": "Autel", "revenue": nil}},
		RowCount: 2,
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeQueryTable(&buf, queryColumns(result), result, textConfig(), time.Millisecond))
		assert.Contains(t, buf.String(), "61000")
		assert.Contains(t, buf.String(), "2 rows")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeQueryCSV(&buf, queryColumns(result), result.Rows))
		assert.Equal(t, "brand,revenue\nInnova,61000\nAutel,\n", buf.String())
	})

	t.Run("failed query", func(t *testing.T) {
		err := WriteQueryResult(rql.Result{OK: false, Error: "Only SELECT queries are allowed."}, textConfig(), 0)
		assert.EqualError(t, err, "Only SELECT queries are allowed.")
	})

	t.Run("parquet", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.parquet")
		cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: path, Precision: 1}
		require.NoError(t, WriteQueryResult(result, cfg, 0))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	})
}

func TestQueryColumnsFallsBackToRowKeys(t *testing.T) {
	result := rql.Result{OK: true, Rows: []schema.Row{{"b": 1.0, "a": 2.0}, {"c": "x"}}}
	assert.Equal(t, []string{"a", "b", "c"}, queryColumns(result))
}

func TestWriteCompetitorCSV(t *testing.T) {
	target := &schema.IndexedProduct{Asin: "B0INNOVA01", Brand: "Innova", Title: "Innova 5610"}
	result := schema.CompetitorResult{
		Target: target,
		Candidates: []schema.CompetitorCandidate{
			{Product: &schema.IndexedProduct{Asin: "B0AUTEL001", Brand: "Autel", Title: "Autel AL619", Price: 329}, Score: 71.456, Evidence: []string{"same type", "price within 75%"}},
		},
		Confidence: 0.7,
	}

	var buf bytes.Buffer
	require.NoError(t, writeCompetitorCSV(&buf, result, createFormatters(2)))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"1", "B0INNOVA01", "B0AUTEL001", "Autel", "Autel AL619", "329", "71.46", "same type|price within 75%"}, records[1])

	buf.Reset()
	require.NoError(t, writeCompetitorTable(&buf, result, textConfig(), createFormatters(2), 0))
	assert.Contains(t, buf.String(), "B0AUTEL001")
	assert.Contains(t, buf.String(), "Confidence: 0.70 (Moderate)")
}

func TestWriteSignalsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSignalsCSV(&buf, sampleResponse().Proactive, createFormatters(1)))
	assert.Equal(t, "id,severity,title,summary,confidence\nleader_gap,info,Leader gap,Innova is ahead by 12.9 points.,0.8\n", buf.String())
}

func TestMaxColumnWidth(t *testing.T) {
	assert.Equal(t, 20, maxColumnWidth(&contract.Config{Width: 30}, 10))
	assert.Equal(t, 90, maxColumnWidth(&contract.Config{Width: 400}, 10))
	assert.Equal(t, 58, maxColumnWidth(&contract.Config{Width: 100}, 30))
}
