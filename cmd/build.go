package cmd

import (
	"fmt"
	"sort"

	"fixture-builder/feature/builder"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var forceBuild bool

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Regenerate fixtures when their inputs changed",
	Long: `Fingerprints the watched files and, when they changed since the last
build, cleans the database, loads legacy fixtures, runs the seed files and
writes one fixture file per table.

Examples:
  # Build only when stale
  fixture-builder build

  # Always rebuild
  fixture-builder build --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		run := a.builder.Build
		if forceBuild {
			run = a.builder.Rebuild
		}

		result, err := run(cmd.Context(), a.populate)
		if err != nil {
			return fmt.Errorf("fixture build failed: %w", err)
		}

		if result.State == builder.Skip {
			fmt.Println("Fixtures are up to date.")
			return nil
		}

		tables := make([]string, 0, len(result.Tables))
		for table := range result.Tables {
			tables = append(tables, table)
		}
		sort.Strings(tables)

		fmt.Println("\n=== Fixtures Built ===")
		fmt.Printf("Reason: %s\n", result.Decision.Reason)
		for _, table := range tables {
			fmt.Printf("  %-32s %d\n", table, result.Tables[table])
		}
		fmt.Printf("Directory: %s\n", a.builder.Dir().Path())

		a.logger.Info("Fixture build completed",
			zap.String("build_id", result.BuildID),
			zap.Int("tables", len(result.Tables)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&forceBuild, "force", "f", false, "Rebuild even when the fixtures are up to date")
}
