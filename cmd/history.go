package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/huangsam/catiq/internal/iocache"
	"github.com/huangsam/catiq/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackend reads and validates the history backend settings.
func historyBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(viper.GetString("history-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidHistoryBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
func historySetup() error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyRawSetup validates settings without opening the store, so that clear
// and migrate work on databases whose tables are missing or outdated.
func historyRawSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyBackend()
	if err != nil {
		return err
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on answer history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the answer history and exports",
	Long: `Manage the history of answered questions.

When a history backend is configured, every answer is recorded with its intent,
generation path, confidence, warnings and evidence rows.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, default)

Subcommands:
  status  - Show history statistics
  export  - Export history to Parquet
  clear   - Remove all recorded answers
  migrate - Run database schema migrations

Examples:
  catiq history status --history-backend sqlite
  catiq history export --history-backend sqlite --output-file history.parquet`,
}

// historyClearCmd clears the answer history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded answers",
	Long: `Delete all recorded answers and their evidence rows.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: historyRawSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, contract.GetHistoryDBFilePath(), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	Long:    `Show the backend, connection state, answer counts, timestamps and table sizes of the answer history.`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("history store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports the answer history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the answer history to Parquet",
	Long: `Export recorded answers and their evidence rows to two Parquet files
named after --output-file, for DuckDB, pandas or BI tools.

Examples:
  catiq history export --history-backend sqlite --output-file history.parquet
  duckdb -c "SELECT intent, count(*) FROM read_parquet('history.parquet.answer_runs.parquet') GROUP BY 1"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(os.Stdout, iocache.Manager.GetHistoryStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the answer history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  catiq history migrate --history-backend postgresql --history-db-connect "host=localhost dbname=catiq"
  catiq history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyRawSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(os.Stdout, cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
