// Package cmd implements the rulesync command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/rulesync/internal/engine"
	"github.com/agentstation/rulesync/internal/options"
	"github.com/agentstation/rulesync/internal/prompt"
	"github.com/agentstation/rulesync/pkg/logging"
)

var (
	configFile string

	flagHome    string
	flagDryRun  bool
	flagDiff    bool
	flagVerbose bool
	flagQuiet   bool
	flagYes     bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
	// BuiltBy is the build system identifier.
	BuiltBy = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "rulesync",
	Short: "Keep AI agent rules and skills in sync across tools",
	Long: `Rulesync maintains one canonical store of agent rules and skills
under ~/.ai-agent and regenerates each tool's files from it: Cursor,
Codex, Claude Code, Gemini CLI, Kiro, Antigravity, and AGENTS.md.

Edit rules once in the canonical store, run sync, and every tool sees
the same content. Generated files carry a sentinel header so the engine
never touches anything you wrote by hand.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version, commit, date, builtBy string) {
	Version = version
	Commit = commit
	Date = date
	BuiltBy = builtBy

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.rulesync.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "user home directory override (default is $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&flagDryRun, "dry-run", "n", false, "show what would change without writing anything")
	rootCmd.PersistentFlags().BoolVar(&flagDiff, "diff", false, "print unified diffs before overwriting files")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "answer yes to all confirmation prompts")

	if err := rootCmd.PersistentFlags().MarkHidden("home"); err != nil {
		panic(fmt.Sprintf("Failed to hide home flag: %v", err))
	}
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		panic(fmt.Sprintf("Failed to bind verbose flag: %v", err))
	}
	if err := viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet")); err != nil {
		panic(fmt.Sprintf("Failed to bind quiet flag: %v", err))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rulesync")
	}

	// Load .env files first (before Viper env binding).
	loadEnvFiles()

	viper.SetEnvPrefix("rulesync")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err == nil && flagVerbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	configureLogging()
}

// configureLogging sets up the logging system based on configuration.
func configureLogging() {
	level := zerolog.InfoLevel
	if flagVerbose || viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	if flagQuiet || viper.GetBool("quiet") {
		level = zerolog.WarnLevel
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}

	config := &logging.Config{
		Level:     level.String(),
		Format:    os.Getenv("LOG_FORMAT"),
		Output:    os.Getenv("LOG_OUTPUT"),
		AddCaller: level <= zerolog.DebugLevel,
	}
	if config.Format == "" {
		config.Format = "auto"
	}
	if config.Output == "" {
		config.Output = "stderr"
	}

	logging.Configure(config)
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envFile); err == nil && flagVerbose {
			fmt.Fprintf(os.Stderr, "Loaded %s\n", envFile)
		}
	}
}

// newEngine builds the engine for one command invocation from the global
// flags.
func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	home := flagHome
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
	}
	opts := options.Options{
		DryRun:      flagDryRun,
		ShowDiff:    flagDiff,
		Verbose:     flagVerbose,
		AutoConfirm: flagYes,
	}
	log := logging.FromContext(cmd.Context())
	return engine.New(home, opts, prompt.NewTerminal(), *log), nil
}

// printReport writes the one-line outcome of a sync-like command.
func printReport(report *engine.SyncReport) error {
	if report == nil {
		return nil
	}
	if report.DryRun {
		fmt.Println("Dry run, nothing written.")
		return nil
	}
	fmt.Printf("Synced %d rule consumer(s), %d skill consumer(s), %d file change(s).\n",
		len(report.RuleConsumers), len(report.SkillConsumers), report.Mutations)
	if report.Failed() {
		for id, err := range report.Failures {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", id, err)
		}
		return fmt.Errorf("%d consumer(s) failed", len(report.Failures))
	}
	return nil
}
