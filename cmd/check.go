package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exitCode bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether the fixtures are stale",
	Long:  `Fingerprints the watched files and compares them with the last build without writing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		decision, err := a.builder.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("fixture check failed: %w", err)
		}

		if !decision.Rebuild {
			fmt.Println("Fixtures are up to date.")
			return nil
		}

		fmt.Printf("Fixtures are stale (%s).\n", decision.Reason)
		for _, change := range decision.Changes {
			fmt.Printf("  %s\n", change)
		}
		if exitCode {
			return fmt.Errorf("fixtures are stale: %s", decision.Reason)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with status 1 when the fixtures are stale")
}
