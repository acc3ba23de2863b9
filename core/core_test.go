package core

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/catiq/core/rql"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/iocache"
	"github.com/huangsam/catiq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeConfig returns a config that writes JSON to a temp file.
func executeConfig(t *testing.T) (*contract.Config, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.json")
	cfg := testConfig(schema.DeterministicMode)
	cfg.DataPath = fixturePath
	cfg.CategoryID = "obd2"
	cfg.SnapshotDate = "2025-06"
	cfg.Output = schema.JSONOut
	cfg.OutputFile = out
	cfg.Precision = contract.DefaultPrecision
	cfg.ResultLimit = contract.DefaultResultLimit
	cfg.SnapshotTTL = contract.DefaultSnapshotTTL
	return cfg, out
}

func noStores() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetSnapshotStore").Return(nil)
	mgr.On("GetHistoryStore").Return(nil)
	return mgr
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestExecuteAsk(t *testing.T) {
	cfg, out := executeConfig(t)
	cfg.Question = "Who are the top brands?"
	mgr := noStores()

	require.NoError(t, ExecuteAsk(context.Background(), cfg, mgr))

	var resp schema.ChatResponse
	readJSON(t, out, &resp)
	assert.Equal(t, schema.TopBrandsIntent, resp.Intent)
	assert.Contains(t, resp.Answer, "Innova")
	mgr.AssertExpectations(t)
}

func TestExecuteSQL(t *testing.T) {
	cfg, out := executeConfig(t)
	cfg.Query = "SELECT brand FROM brands_monthly WHERE revenue > 20000"

	require.NoError(t, ExecuteSQL(context.Background(), cfg, noStores()))

	var result rql.Result
	readJSON(t, out, &result)
	assert.True(t, result.OK)
	assert.Equal(t, 2, result.RowCount)

	cfg.Query = "UPDATE brands_monthly SET revenue = 0"
	assert.Error(t, ExecuteSQL(context.Background(), cfg, noStores()))
}

func TestExecuteCompetitors(t *testing.T) {
	cfg, out := executeConfig(t)
	cfg.Product = "B0INNOVA01"
	cfg.ResultLimit = 1

	require.NoError(t, ExecuteCompetitors(context.Background(), cfg, noStores()))

	var result schema.CompetitorResult
	readJSON(t, out, &result)
	require.NotNil(t, result.Target)
	assert.Equal(t, "B0INNOVA01", result.Target.Asin)
	assert.LessOrEqual(t, len(result.Candidates), 1)

	cfg.Product = ""
	assert.Error(t, ExecuteCompetitors(context.Background(), cfg, noStores()))
}

func TestExecuteSignalsAndTables(t *testing.T) {
	cfg, out := executeConfig(t)
	require.NoError(t, ExecuteSignals(context.Background(), cfg, noStores()))
	var signals []schema.ProactiveSuggestion
	readJSON(t, out, &signals)

	require.NoError(t, ExecuteTables(context.Background(), cfg, noStores()))
	var tables []schema.TableInfo
	readJSON(t, out, &tables)
	assert.Len(t, tables, len(schema.AllTables()))

	cfg.TableName = "type_mix"
	require.NoError(t, ExecuteTables(context.Background(), cfg, noStores()))
	var desc map[string]any
	readJSON(t, out, &desc)
	assert.EqualValues(t, 2, desc["rowCount"])

	cfg.TableName = "sales"
	assert.Error(t, ExecuteTables(context.Background(), cfg, noStores()))
}

func TestExecuteRequiresCategory(t *testing.T) {
	cfg, _ := executeConfig(t)
	cfg.CategoryID = ""
	for name, fn := range map[string]ExecutorFunc{
		"sql":     ExecuteSQL,
		"signals": ExecuteSignals,
		"tables":  ExecuteTables,
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, fn(context.Background(), cfg, nil), errCategoryRequired)
		})
	}
}

func TestExecuteUnknownSnapshot(t *testing.T) {
	cfg, _ := executeConfig(t)
	cfg.CategoryID = "toys"
	err := ExecuteSignals(context.Background(), cfg, noStores())
	assert.ErrorIs(t, err, contract.ErrSnapshotNotFound)
}
