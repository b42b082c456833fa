package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the current fixtures to the storage bucket",
	Long:  `Mirrors the fixture directory to <bucket>/<prefix>, removing objects whose fixture file no longer exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.logger.Sync()

		files, err := a.builder.Dir().Files()
		if err != nil {
			return fmt.Errorf("failed to list fixtures: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no fixtures in %s, run build first", a.builder.Dir().Path())
		}

		pub, err := newPublisher(a.cfg, a.logger)
		if err != nil {
			return err
		}
		report, err := pub.Publish(cmd.Context(), files)
		if err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}

		fmt.Printf("Uploaded: %d\n", len(report.Uploaded))
		fmt.Printf("Removed: %d\n", len(report.Removed))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(publishCmd)
}
