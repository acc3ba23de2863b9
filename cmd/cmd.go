// Package cmd defines the command-line interface for catiq.
package cmd

import (
	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(competitorsCmd)
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data", "data", "Snapshot file (JSON/YAML) or snapshot directory")
	rootCmd.PersistentFlags().StringP("category", "c", "", "Category identifier")
	rootCmd.PersistentFlags().StringP("snapshot", "s", "", "Snapshot month as YYYY-MM (defaults to the latest)")
	rootCmd.PersistentFlags().String("target-brand", "", "Brand that first-person questions refer to")
	rootCmd.PersistentFlags().StringSlice("own-brands", contract.DefaultOwnBrands, "Comma-separated brands that 'we' and 'our' refer to")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("snapshot-ttl", "", "How long loaded snapshots stay in memory (e.g. 60s)")
	rootCmd.PersistentFlags().String("persist-ttl", "", "How long persisted snapshots stay valid (e.g. 24h)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Snapshot cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., redis://localhost:6379/0)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Answer history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Connection string for answer history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")

	// Answer generation settings are shared by ask and mcp
	rootCmd.PersistentFlags().String("mode", string(schema.HybridMode), "Generation mode: deterministic or hybrid or generative")
	rootCmd.PersistentFlags().Float64("confidence-threshold", contract.DefaultConfidenceThreshold, "Hybrid mode hands answers below this confidence to the model")
	rootCmd.PersistentFlags().Int("max-tool-rounds", contract.DefaultMaxToolRounds, "Maximum tool-calling rounds per model answer")
	rootCmd.PersistentFlags().Bool("rephrase", false, "Let the model rephrase confident deterministic answers")
	rootCmd.PersistentFlags().String("llm-base-url", "", "OpenAI-compatible API base URL")
	rootCmd.PersistentFlags().String("llm-api-key", "", "API key (prefer CATIQ_LLM_API_KEY)")
	rootCmd.PersistentFlags().String("llm-model", "", "Model name")
	rootCmd.PersistentFlags().String("llm-timeout", "", "Per-request model timeout (e.g. 30s)")
	rootCmd.PersistentFlags().Int("llm-retries", contract.DefaultLLMRetries, "Retries for failed model requests")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of competitorsCmd to Viper
	competitorsCmd.Flags().Bool("include-same-brand", false, "Keep products of the target's own brand")
	if err := viper.BindPFlags(competitorsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding competitors flags", err)
	}

	// Bind all flags of mcpCmd to Viper
	mcpCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	if err := viper.BindPFlags(mcpCmd.Flags()); err != nil {
		contract.LogFatal("Error binding mcp flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
