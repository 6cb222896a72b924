package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/rulesync/internal/engine"
)

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the canonical store and each consumer's state",
	Long: `Status reports whether the canonical store is initialized, how many
rules and skills it holds, and for each consumer whether it is active,
how many generated artifacts are on disk, and how many managed skill
links exist. It never writes anything.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return err
	}
	st, err := e.Status()
	if err != nil {
		return err
	}
	renderStatus(st)
	return nil
}

func renderStatus(st *engine.Status) {
	fmt.Printf("Canonical store: %s\n", st.Root)
	if !st.Initialized {
		fmt.Println("Not initialized. Run 'rulesync init' first.")
		return
	}
	fmt.Printf("Last updated:    %s\n", st.Updated)
	fmt.Printf("Skills:          %d", len(st.Skills))
	if len(st.Skills) > 0 {
		fmt.Printf(" (%s)", strings.Join(st.Skills, ", "))
	}
	fmt.Println()
	if len(st.AgentsMDPaths) > 0 {
		fmt.Printf("AGENTS.md paths: %s\n", strings.Join(st.AgentsMDPaths, ", "))
	}
	if st.LatestBackup != "" {
		fmt.Printf("Latest backup:   %s\n", st.LatestBackup)
	}

	fmt.Printf("\nRules (%d):\n", st.RuleCount())
	for _, rule := range st.Rules {
		flags := make([]string, 0, 2)
		if rule.AlwaysApply {
			flags = append(flags, "always")
		}
		if len(rule.Exclude) > 0 {
			flags = append(flags, "excludes "+strings.Join(rule.Exclude, ","))
		}
		line := fmt.Sprintf("  %-24s from %s", rule.ID, rule.Source)
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ", ") + "]"
		}
		if rule.Description != "" {
			line += " -- " + rule.Description
		}
		fmt.Println(line)
	}

	fmt.Println("\nConsumers:")
	for _, cs := range st.Consumers {
		marks := make([]string, 0, 2)
		if cs.RulesActive {
			marks = append(marks, fmt.Sprintf("%d generated file(s)", cs.GeneratedFiles))
		}
		if cs.SkillsActive {
			marks = append(marks, fmt.Sprintf("%d skill link(s)", cs.SkillLinks))
		}
		state := "inactive"
		if len(marks) > 0 {
			state = strings.Join(marks, ", ")
		}
		fmt.Printf("  %-12s %s\n", cs.ID, state)
	}
}
