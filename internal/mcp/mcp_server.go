// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/catiq/core"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/metrics"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// snapshotArgs are accepted by every tool; empty values fall back to the server config.
func snapshotArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("category_id", mcp.Description("Category identifier (defaults to the server's --category).")),
		mcp.WithString("snapshot_date", mcp.Description("Snapshot month as YYYY-MM (defaults to the latest snapshot).")),
	}
}

func newTool(name string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts, snapshotArgs()...)...)
}

// NewMCPServer initializes and configures the catiq MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, engine *core.Engine, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"catiq Category Intelligence Server",
		"1.0.0",
		server.WithLogging(),
	)
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &toolHandler{
		baseCfg: baseCfg,
		engine:  engine,
		logger:  logger,
	}

	// --- Read-only snapshot palette ---
	s.AddTool(newTool(core.ListTablesTool,
		mcp.WithDescription("List the curated tables of a snapshot with descriptions and row counts."),
	), h.handleListTables)

	s.AddTool(newTool(core.DescribeTableTool,
		mcp.WithDescription("Describe the columns of one snapshot table."),
		mcp.WithString("table", mcp.Description("Table name from list_tables."), mcp.Required()),
	), h.handleDescribeTable)

	s.AddTool(newTool(core.RunSQLTool,
		mcp.WithDescription("Run a read-only SELECT against one snapshot table. Supports WHERE with AND, ORDER BY and LIMIT."),
		mcp.WithString("query", mcp.Description("The SELECT statement."), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum rows to return (1-500).")),
	), h.handleRunSQL)

	s.AddTool(newTool(core.SourceExcerptTool,
		mcp.WithDescription("Read an excerpt of a methodology or source document attached to the snapshot."),
		mcp.WithString("source_id", mcp.Description("Document id; empty picks by query.")),
		mcp.WithString("query", mcp.Description("Text to search for.")),
		mcp.WithNumber("max_chars", mcp.Description("Excerpt length in characters.")),
	), h.handleSourceExcerpt)

	s.AddTool(newTool(core.StarterQuestionsTool,
		mcp.WithDescription("List example questions for the category."),
	), h.handleStarterQuestions)

	// --- Answers ---
	s.AddTool(newTool("ask",
		mcp.WithDescription("Answer a natural-language question about the category snapshot."),
		mcp.WithString("message", mcp.Description("The question."), mcp.Required()),
		mcp.WithString("target_brand", mcp.Description("Brand that first-person questions refer to.")),
	), h.handleAsk)

	s.AddTool(newTool("find_competitors",
		mcp.WithDescription("Score the closest competitors of one product."),
		mcp.WithString("product", mcp.Description("ASIN, product alias or title words."), mcp.Required()),
		mcp.WithBoolean("include_same_brand", mcp.Description("Keep products of the target's own brand.")),
		mcp.WithNumber("limit", mcp.Description("Maximum candidates to return.")),
	), h.handleFindCompetitors)

	s.AddTool(newTool("get_signals",
		mcp.WithDescription("List the proactive signals of a snapshot, strongest first."),
	), h.handleGetSignals)

	return s
}

// StartMCPServer starts the catiq MCP server on stdio. Logs go to stderr.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	engine, err := core.NewEngineFromConfig(ctx, baseCfg, mgr)
	if err != nil {
		return err
	}
	logger := core.LoggerFromContext(ctx)
	if baseCfg.MetricsAddr != "" {
		go func() {
			logger.Info("serving metrics", zap.String("addr", baseCfg.MetricsAddr))
			if err := metrics.Serve(baseCfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}
	s := NewMCPServer(baseCfg, engine, logger)
	return server.ServeStdio(s)
}
