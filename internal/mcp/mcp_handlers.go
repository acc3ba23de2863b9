package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/catiq/core"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	engine  *core.Engine
	logger  *zap.Logger
}

// key picks the snapshot from the request, falling back to the server config.
func (h *toolHandler) key(request mcp.CallToolRequest) schema.SnapshotKey {
	key := h.baseCfg.Key()
	if c := request.GetString("category_id", ""); c != "" {
		key = schema.SnapshotKey{CategoryID: c}
	}
	if d := request.GetString("snapshot_date", ""); d != "" {
		key.Date = d
	}
	return key
}

func (h *toolHandler) toolbox(ctx context.Context, request mcp.CallToolRequest) (*core.Toolbox, *mcp.CallToolResult) {
	key := h.key(request)
	if key.CategoryID == "" {
		return nil, mcp.NewToolResultError("category_id is required")
	}
	tb, err := h.engine.Toolbox(ctx, key)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("cannot load snapshot: %v", err))
	}
	return tb, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) handleListTables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tb, failed := h.toolbox(ctx, request)
	if failed != nil {
		return failed, nil
	}
	return jsonResult(tb.ListTables())
}

func (h *toolHandler) handleDescribeTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tb, failed := h.toolbox(ctx, request)
	if failed != nil {
		return failed, nil
	}
	desc, err := tb.DescribeTable(request.GetString("table", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(desc)
}

func (h *toolHandler) handleRunSQL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tb, failed := h.toolbox(ctx, request)
	if failed != nil {
		return failed, nil
	}
	result := tb.RunSQL(request.GetString("query", ""), request.GetInt("limit", h.baseCfg.ResultLimit))
	if !result.OK {
		h.logger.Debug("query rejected", zap.String("error", result.Error))
	}
	// Rejections are returned as data so clients can correct the query
	return jsonResult(result)
}

func (h *toolHandler) handleSourceExcerpt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tb, failed := h.toolbox(ctx, request)
	if failed != nil {
		return failed, nil
	}
	excerpt, err := tb.SourceExcerpt(
		request.GetString("source_id", ""),
		request.GetString("query", ""),
		request.GetInt("max_chars", core.DefaultExcerptChars),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(excerpt)
}

func (h *toolHandler) handleStarterQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tb, failed := h.toolbox(ctx, request)
	if failed != nil {
		return failed, nil
	}
	return jsonResult(tb.StarterQuestions())
}

func (h *toolHandler) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := h.key(request)
	targetBrand := request.GetString("target_brand", h.baseCfg.TargetBrand)
	resp := h.engine.Answer(ctx, schema.ChatRequest{
		Message:      request.GetString("message", ""),
		CategoryID:   key.CategoryID,
		SnapshotDate: key.Date,
		TargetBrand:  targetBrand,
	})
	if resp.Intent == schema.InvalidIntent {
		data, _ := json.Marshal(resp)
		return mcp.NewToolResultError(string(data)), nil
	}
	return jsonResult(resp)
}

func (h *toolHandler) handleFindCompetitors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := h.key(request)
	if key.CategoryID == "" {
		return mcp.NewToolResultError("category_id is required"), nil
	}
	product := request.GetString("product", "")
	if product == "" {
		return mcp.NewToolResultError("product is required"), nil
	}
	result, err := h.engine.Competitors(ctx, key, product, request.GetBool("include_same_brand", h.baseCfg.IncludeSameBrand))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("competitor scoring failed: %v", err)), nil
	}
	if limit := request.GetInt("limit", h.baseCfg.ResultLimit); limit > 0 && len(result.Candidates) > limit {
		result.Candidates = result.Candidates[:limit]
	}
	return jsonResult(result)
}

func (h *toolHandler) handleGetSignals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := h.key(request)
	if key.CategoryID == "" {
		return mcp.NewToolResultError("category_id is required"), nil
	}
	signals, err := h.engine.Signals(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot load snapshot: %v", err)), nil
	}
	if signals == nil {
		signals = []schema.ProactiveSuggestion{}
	}
	return jsonResult(signals)
}
