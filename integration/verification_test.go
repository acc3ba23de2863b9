//go:build basic

// Package integration contains integration tests for catiq.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFixture mirrors just enough of the snapshot file to recompute figures.
type rawFixture struct {
	Snapshots []struct {
		CategoryID   string                      `json:"category_id"`
		SnapshotDate string                      `json:"snapshot_date"`
		Tables       map[string][]map[string]any `json:"tables"`
	} `json:"snapshots"`
}

func loadRawTable(t *testing.T, category, date, table string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", fixturePath))
	require.NoError(t, err)
	var fx rawFixture
	require.NoError(t, json.Unmarshal(data, &fx))
	for _, s := range fx.Snapshots {
		if s.CategoryID == category && s.SnapshotDate == date {
			return s.Tables[table]
		}
	}
	t.Fatalf("snapshot %s/%s not in fixture", category, date)
	return nil
}

// TestSQLVerification runs catiq sql and checks its rows against the raw snapshot file.
func TestSQLVerification(t *testing.T) {
	out, err := runCatiq(t, "sql", "--data", fixturePath, "-c", "obd2", "-s", "2025-06", "--output", "json",
		"SELECT brand, revenue FROM brands_monthly ORDER BY revenue DESC")
	require.NoError(t, err)

	var result struct {
		OK       bool             `json:"ok"`
		Rows     []map[string]any `json:"rows"`
		RowCount int              `json:"rowCount"`
	}
	require.NoError(t, json.Unmarshal(out, &result))
	require.True(t, result.OK)

	raw := loadRawTable(t, "obd2", "2025-06", "brands_monthly")
	sort.Slice(raw, func(i, j int) bool {
		return raw[i]["revenue"].(float64) > raw[j]["revenue"].(float64)
	})

	require.Equal(t, len(raw), result.RowCount)
	for i, row := range result.Rows {
		t.Run(row["brand"].(string), func(t *testing.T) {
			assert.Equal(t, raw[i]["brand"], row["brand"])
			assert.InDelta(t, raw[i]["revenue"].(float64), row["revenue"].(float64), 0.001)
		})
	}
}

// TestAskVerification checks that the deterministic answer names the brand
// with the highest revenue in the raw snapshot file.
func TestAskVerification(t *testing.T) {
	out, err := runCatiq(t, "ask", "--data", fixturePath, "-c", "obd2", "-s", "2025-06",
		"--mode", "deterministic", "--output", "json", "Who are the top brands?")
	require.NoError(t, err)

	var resp struct {
		Intent   string   `json:"intent"`
		Answer   string   `json:"answer"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))

	raw := loadRawTable(t, "obd2", "2025-06", "brands_monthly")
	leader := raw[0]
	for _, row := range raw[1:] {
		if row["revenue"].(float64) > leader["revenue"].(float64) {
			leader = row
		}
	}

	assert.Equal(t, "top_brands", resp.Intent)
	assert.Contains(t, resp.Answer, leader["brand"].(string))
}

// TestUnknownSnapshotFails checks that a missing month is reported as a failure.
func TestUnknownSnapshotFails(t *testing.T) {
	_, err := runCatiq(t, "ask", "--data", fixturePath, "-c", "obd2", "-s", "1999-01",
		"--mode", "deterministic", "Who are the top brands?")
	assert.Error(t, err)
}
