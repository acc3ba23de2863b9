package cmd

import (
	"github.com/huangsam/catiq/core"
	"github.com/huangsam/catiq/internal/contract"
	"github.com/spf13/cobra"
)

// askCmd answers one natural-language question.
var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Answer a question about a category snapshot.",
	Long: `Answer a natural-language question about one category snapshot.

The question is parsed into an intent, brands and products are resolved against
the snapshot, and a deterministic analyzer computes the answer. In hybrid mode a
configured model takes over when confidence is low; in generative mode the model
always answers, using read-only tools over the snapshot tables.

Examples:
  # Top brands in the latest snapshot
  catiq ask -c obd2 "Who are the top brands?"

  # A specific month, answered without a model
  catiq ask -c obd2 -s 2025-06 --mode deterministic "How did we do this month?"

  # Machine-readable answer
  catiq ask -c obd2 --output json "Who are the closest competitors to B0INNOVA01?"`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAsk(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot answer question", err)
		}
	},
}

// sqlCmd runs a restricted query.
var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a read-only SELECT against snapshot tables.",
	Long: `Run a restricted SQL query against one snapshot table.

Only SELECT is accepted, over a single table, with WHERE conditions joined by AND,
one ORDER BY column, and LIMIT. Use 'catiq tables' to see the available tables.

Examples:
  catiq sql -c obd2 "SELECT brand, revenue FROM brands_monthly ORDER BY revenue DESC LIMIT 5"

  # Export to Parquet for DuckDB or pandas
  catiq sql -c obd2 --output parquet --output-file products.parquet "SELECT * FROM products_monthly"`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSQL(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run query", err)
		}
	},
}

// competitorsCmd scores the closest competitors of a product.
var competitorsCmd = &cobra.Command{
	Use:   "competitors <asin|alias|title>",
	Short: "Score the closest competitors of a product.",
	Long: `Rank the products most similar to a target product.

Candidates are scored on price, product type, revenue, units, rating and momentum
with the configured competitor weights. Products of the target's brand are
excluded unless --include-same-brand is set.

Examples:
  catiq competitors -c obd2 B0INNOVA01
  catiq competitors -c obd2 "carscan pro" --include-same-brand --limit 5`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCompetitors(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot score competitors", err)
		}
	},
}

// signalsCmd prints the proactive signals of a snapshot.
var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Show proactive signals for a category snapshot.",
	Long: `List what stands out in a snapshot: leader vulnerability, price and
volume arbitrage, feature premiums, price cluster gaps, trend reversals and
price/quality mismatches, strongest first.

Examples:
  catiq signals -c obd2
  catiq signals -c obd2 -s 2025-06 --output csv --output-file signals.csv`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSignals(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot compute signals", err)
		}
	},
}

// tablesCmd lists tables or describes one.
var tablesCmd = &cobra.Command{
	Use:   "tables [table]",
	Short: "List snapshot tables, or describe the columns of one.",
	Long: `List the curated snapshot tables with row counts, or describe the columns
of one table when its name is given.

Examples:
  catiq tables -c obd2
  catiq tables -c obd2 products_monthly`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTables(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list tables", err)
		}
	},
}
