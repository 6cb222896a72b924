package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initSources []string

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Import existing tool files into the canonical store",
	Long: `Init scans each tool's existing rule files and skill directories,
normalizes them into canonical rules, merges duplicates across tools,
and writes the canonical store under ~/.ai-agent. It finishes with a
full sync so every tool is regenerated from the new store.

Files previously generated by rulesync are recognized by their sentinel
header and skipped, so re-importing never ingests the engine's own
output.`,
	Example: `  rulesync init
  rulesync init --from cursor --from claude
  rulesync init --dry-run`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringSliceVar(&initSources, "from", nil, "consumers to import from (default: all importable)")
}

func runInit(cmd *cobra.Command, _ []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	report, err := e.Init(initSources)
	if err != nil {
		return err
	}
	if report == nil {
		fmt.Println("Init aborted.")
		return nil
	}
	return printReport(report)
}
