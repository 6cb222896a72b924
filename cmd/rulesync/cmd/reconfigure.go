package cmd

import (
	"github.com/spf13/cobra"
)

// reconfigureCmd represents the reconfigure command.
var reconfigureCmd = &cobra.Command{
	Use:   "reconfigure",
	Short: "Re-select which consumers receive rules and skills",
	Long: `Reconfigure walks through every consumer and asks whether it should
receive rules and skill links, defaulting to the current selection.
Settings of targets that stay active are preserved. It finishes with a
sync so deselected consumers keep their last generated files and newly
selected ones are populated.`,
	RunE: runReconfigure,
}

func init() {
	rootCmd.AddCommand(reconfigureCmd)
}

func runReconfigure(cmd *cobra.Command, _ []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	report, err := e.Reconfigure()
	if err != nil {
		return err
	}
	return printReport(report)
}
