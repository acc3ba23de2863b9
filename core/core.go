package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/iocache"
	"github.com/huangsam/catiq/internal/llm"
	"github.com/huangsam/catiq/internal/loader"
	"github.com/huangsam/catiq/internal/outwriter"
	"github.com/huangsam/catiq/schema"
	"go.uber.org/zap"
)

var errCategoryRequired = errors.New("--category is required")

// ExecutorFunc defines the function signature for executing the CLI commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// NewEngineFromConfig wires the loader, the snapshot cache, the model client
// and the history store selected by cfg. The logger comes from ctx.
func NewEngineFromConfig(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*Engine, error) {
	logger := LoggerFromContext(ctx)

	ld, err := loader.New(cfg.DataPath, loader.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	cacheOpts := []iocache.SnapshotCacheOption{iocache.WithLogger(logger)}
	var history contract.HistoryStore
	if mgr != nil {
		if store := mgr.GetSnapshotStore(); store != nil {
			cacheOpts = append(cacheOpts, iocache.WithPersistentStore(store, cfg.PersistTTL))
		}
		history = mgr.GetHistoryStore()
	}
	source := iocache.NewSnapshotCache(ld, cfg.SnapshotTTL, cacheOpts...)

	opts := []Option{WithLogger(logger)}
	if history != nil {
		opts = append(opts, WithHistory(history))
	}
	client, err := llm.New(cfg.LLM, llm.WithLogger(logger))
	switch {
	case err == nil:
		opts = append(opts, WithModel(client))
	case errors.Is(err, contract.ErrNoModel):
		logger.Debug("no model configured", zap.String("mode", string(cfg.GenerationMode)))
	default:
		return nil, err
	}
	return NewEngine(source, cfg, opts...), nil
}

// ExecuteAsk answers the configured question and prints the response.
// It serves as the main entry point for the 'ask' command.
func ExecuteAsk(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	engine, err := NewEngineFromConfig(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	resp := engine.Answer(ctx, schema.ChatRequest{
		Message:      cfg.Question,
		CategoryID:   cfg.CategoryID,
		SnapshotDate: cfg.SnapshotDate,
		TargetBrand:  cfg.TargetBrand,
	})
	return outwriter.NewOutWriter().WriteAnswer(resp, cfg, time.Since(start))
}

// ExecuteSQL runs the configured restricted query against one snapshot.
// It serves as the main entry point for the 'sql' command.
func ExecuteSQL(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	tb, err := snapshotToolbox(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	result := tb.RunSQL(cfg.Query, cfg.ResultLimit)
	return outwriter.NewOutWriter().WriteQuery(result, cfg, time.Since(start))
}

// ExecuteCompetitors scores the closest competitors of the configured product.
// It serves as the main entry point for the 'competitors' command.
func ExecuteCompetitors(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	if cfg.CategoryID == "" {
		return errCategoryRequired
	}
	if cfg.Product == "" {
		return errors.New("a product ASIN or name is required")
	}
	engine, err := NewEngineFromConfig(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	result, err := engine.Competitors(ctx, cfg.Key(), cfg.Product, cfg.IncludeSameBrand)
	if err != nil {
		return err
	}
	if limit := cfg.ResultLimit; limit > 0 && len(result.Candidates) > limit {
		result.Candidates = result.Candidates[:limit]
	}
	return outwriter.NewOutWriter().WriteCompetitors(result, cfg, time.Since(start))
}

// ExecuteSignals prints the proactive signals of one snapshot.
// It serves as the main entry point for the 'signals' command.
func ExecuteSignals(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	if cfg.CategoryID == "" {
		return errCategoryRequired
	}
	engine, err := NewEngineFromConfig(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	signals, err := engine.Signals(ctx, cfg.Key())
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSignals(signals, cfg)
}

// ExecuteTables lists the registry tables, or the columns of cfg.TableName.
// It serves as the main entry point for the 'tables' command.
func ExecuteTables(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	tb, err := snapshotToolbox(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	ow := outwriter.NewOutWriter()
	if cfg.TableName == "" {
		return ow.WriteTables(tb.ListTables(), cfg)
	}
	desc, err := tb.DescribeTable(cfg.TableName)
	if err != nil {
		return err
	}
	return ow.WriteTable(desc.TableSchema, desc.RowCount, cfg)
}

func snapshotToolbox(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*Toolbox, error) {
	if cfg.CategoryID == "" {
		return nil, errCategoryRequired
	}
	engine, err := NewEngineFromConfig(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	tb, err := engine.Toolbox(ctx, cfg.Key())
	if err != nil {
		return nil, fmt.Errorf("cannot load %s: %w", cfg.Key(), err)
	}
	return tb, nil
}
