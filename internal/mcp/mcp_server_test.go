package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/catiq/core"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/iocache"
	"github.com/huangsam/catiq/internal/loader"
	mcp_internal "github.com/huangsam/catiq/internal/mcp"
	"github.com/huangsam/catiq/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) *server.MCPServer {
	t.Helper()
	baseCfg := &contract.Config{
		CategoryID:     "obd2",
		GenerationMode: schema.DeterministicMode,
		OwnBrands:      contract.DefaultOwnBrands,
		ResultLimit:    contract.DefaultResultLimit,
	}
	ld, err := loader.New("../../testdata/snapshots.json")
	require.NoError(t, err)
	engine := core.NewEngine(iocache.NewSnapshotCache(ld, time.Minute), baseCfg)
	return mcp_internal.NewMCPServer(baseCfg, engine, zaptest.NewLogger(t))
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotEmpty(t, res.Content)
	return res, res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerPalette(t *testing.T) {
	s := newTestServer(t)

	t.Run("list_tables", func(t *testing.T) {
		res, text := call(t, s, "list_tables", nil)
		assert.False(t, res.IsError)
		var tables []schema.TableInfo
		require.NoError(t, json.Unmarshal([]byte(text), &tables))
		assert.Len(t, tables, len(schema.AllTables()))
	})

	t.Run("describe_table unknown", func(t *testing.T) {
		res, text := call(t, s, "describe_table", map[string]any{"table": "sales"})
		assert.True(t, res.IsError)
		assert.Contains(t, text, "Unknown table: sales")
	})

	t.Run("run_sql", func(t *testing.T) {
		res, text := call(t, s, "run_sql", map[string]any{
			"query":         "SELECT brand FROM brands_monthly ORDER BY revenue DESC",
			"snapshot_date": "2025-06",
			"limit":         1.0,
		})
		assert.False(t, res.IsError)
		assert.Contains(t, text, `"rowCount": 1`)
		assert.Contains(t, text, "Innova")
	})

	t.Run("run_sql rejection is data", func(t *testing.T) {
		res, text := call(t, s, "run_sql", map[string]any{"query": "DROP TABLE brands_monthly"})
		assert.False(t, res.IsError)
		assert.Contains(t, text, `"ok": false`)
	})

	t.Run("get_source_excerpt", func(t *testing.T) {
		_, text := call(t, s, "get_source_excerpt", map[string]any{"source_id": "methodology"})
		assert.Contains(t, text, "sales rank")
	})

	t.Run("unknown category", func(t *testing.T) {
		res, text := call(t, s, "get_starter_questions", map[string]any{"category_id": "toys"})
		assert.True(t, res.IsError)
		assert.Contains(t, text, "cannot load snapshot")
	})
}

func TestMCPServerAnswers(t *testing.T) {
	s := newTestServer(t)

	t.Run("ask", func(t *testing.T) {
		res, text := call(t, s, "ask", map[string]any{"message": "Who are the top brands?"})
		assert.False(t, res.IsError)
		var resp schema.ChatResponse
		require.NoError(t, json.Unmarshal([]byte(text), &resp))
		assert.Equal(t, schema.TopBrandsIntent, resp.Intent)
	})

	t.Run("ask without message", func(t *testing.T) {
		res, text := call(t, s, "ask", map[string]any{"message": " "})
		assert.True(t, res.IsError)
		assert.Contains(t, text, "Message is required.")
	})

	t.Run("find_competitors", func(t *testing.T) {
		res, text := call(t, s, "find_competitors", map[string]any{"product": "B0INNOVA01", "limit": 1.0})
		assert.False(t, res.IsError)
		var result schema.CompetitorResult
		require.NoError(t, json.Unmarshal([]byte(text), &result))
		assert.LessOrEqual(t, len(result.Candidates), 1)
	})

	t.Run("find_competitors missing product", func(t *testing.T) {
		res, text := call(t, s, "find_competitors", map[string]any{})
		assert.True(t, res.IsError)
		assert.Equal(t, "product is required", text)
	})

	t.Run("get_signals", func(t *testing.T) {
		res, text := call(t, s, "get_signals", nil)
		assert.False(t, res.IsError)
		var signals []schema.ProactiveSuggestion
		assert.NoError(t, json.Unmarshal([]byte(text), &signals))
	})
}
