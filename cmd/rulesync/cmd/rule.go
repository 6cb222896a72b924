package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/rulesync/internal/engine"
)

var addRuleOpts engine.AddRuleOptions

// addRuleCmd represents the add-rule command.
var addRuleCmd = &cobra.Command{
	Use:   "add-rule <name>",
	Short: "Create a new canonical rule and sync it everywhere",
	Long: `Add-rule creates a new rule in the canonical store, registers it in
the manifest with alwaysApply enabled, and syncs all consumers. The
name is slugified into the rule id; a name colliding with an existing
rule fails before anything is written.

Content comes from --file when given, otherwise from a titled
scaffold.`,
	Example: `  rulesync add-rule "Code Review"
  rulesync add-rule error-handling --description "Error wrapping conventions"
  rulesync add-rule deploy-notes --file ./notes.md --exclude cursor`,
	Args: cobra.ExactArgs(1),
	RunE: runAddRule,
}

// removeRuleCmd represents the remove-rule command.
var removeRuleCmd = &cobra.Command{
	Use:   "remove-rule <id>",
	Short: "Delete a canonical rule and sync its removal everywhere",
	Long: `Remove-rule deletes a rule from the manifest and the canonical store,
backing the rule file up first, then syncs so every consumer's
artifacts drop it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemoveRule,
}

func init() {
	rootCmd.AddCommand(addRuleCmd)
	rootCmd.AddCommand(removeRuleCmd)

	addRuleCmd.Flags().StringVar(&addRuleOpts.Description, "description", "", "cursor description for the rule")
	addRuleCmd.Flags().BoolVar(&addRuleOpts.NoAlwaysApply, "no-always-apply", false, "do not mark the rule alwaysApply")
	addRuleCmd.Flags().StringVar(&addRuleOpts.FromFile, "file", "", "seed the rule content from this file")
	addRuleCmd.Flags().StringSliceVar(&addRuleOpts.Exclude, "exclude", nil, "consumers the rule is not rendered for")
}

func runAddRule(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	report, err := e.AddRule(args[0], addRuleOpts)
	if err != nil {
		return err
	}
	fmt.Printf("Added rule from %q.\n", args[0])
	return printReport(report)
}

func runRemoveRule(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	report, err := e.RemoveRule(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Removed rule %q.\n", args[0])
	return printReport(report)
}
