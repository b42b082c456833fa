package cmd

import (
	"fmt"
	"os"

	"fixture-builder/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "fixture-builder",
	Short: "Fixture Builder",
	Long: `Fixture Builder regenerates YAML test fixtures from a database.
Fixtures are only rebuilt when the schema, seed or legacy fixture files
they are built from have changed, and every record gets a stable name.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps, as for any CLI failure
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
