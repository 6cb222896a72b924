package cmd

import (
	"github.com/spf13/cobra"
)

// setCmd represents the set command.
var setCmd = &cobra.Command{
	Use:   "set <key> <value>...",
	Short: "Update a manifest configuration key",
	Long: `Set updates one of the supported manifest keys and persists the
manifest. It does not regenerate artifacts; run 'rulesync sync'
afterwards.

Supported keys:
  agents_md.paths      one or more files, directories, or glob patterns
  agents_md.header     the heading line of generated AGENTS.md files
  agents_md.preamble   the paragraph below the heading`,
	Example: `  rulesync set agents_md.paths ~/work/project ~/oss/**/AGENTS.md
  rulesync set agents_md.header "# Team Rules"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	return e.Set(args[0], args[1:])
}
