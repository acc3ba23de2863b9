package cmd

import (
	"runtime"

	"github.com/huangsam/catiq/internal/contract"
	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of catiq.",
	Long: `Display version information including build details and the default
SQLite locations of the snapshot cache and answer history.

Include this output when reporting bugs.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("catiq CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
		cmd.Printf("  Cache:   %s\n", contract.GetCacheDBFilePath())
		cmd.Printf("  History: %s\n", contract.GetHistoryDBFilePath())
	},
}
