package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cleanCmd represents the clean command.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all generated files and restore the originals",
	Long: `Clean discovers every generated artifact and managed skill symlink
across all consumers, shows the plan, asks for confirmation, then
removes them. Originals preserved in the most recent backup session
are restored afterwards.

Only files carrying the sentinel header and symlinks pointing into the
canonical store are candidates; hand-written files are never touched.`,
	Example: `  rulesync clean
  rulesync clean --dry-run
  rulesync clean -y`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	report, err := e.Clean()
	if err != nil {
		return err
	}
	switch {
	case !report.Planned():
		fmt.Println("Nothing to clean.")
	case report.Aborted:
		fmt.Println("Clean aborted.")
	default:
		fmt.Printf("Removed %d file(s) and %d link(s), restored %d original(s).\n",
			len(report.Files), len(report.Links), report.Restored)
	}
	return nil
}
