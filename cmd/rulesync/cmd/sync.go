package cmd

import (
	"github.com/spf13/cobra"
)

var syncOnly []string

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Regenerate every tool's files from the canonical store",
	Long: `Sync rewrites each active consumer's rule artifacts from the
canonical store and reconciles skill symlink directories: stale links
are pruned, missing ones created, and real directories left alone.

A consumer that fails does not stop the others; failures are reported
at the end. Originals are backed up before being overwritten.`,
	Example: `  rulesync sync
  rulesync sync --only claude --only cursor
  rulesync sync --dry-run
  rulesync sync --diff`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringSliceVar(&syncOnly, "only", nil, "restrict the sync to the named consumers")
}

func runSync(cmd *cobra.Command, _ []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	report, err := e.Sync(syncOnly)
	if err != nil {
		return err
	}
	return printReport(report)
}
