// Package main provides the atlas CLI entry point.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/researchatlas/atlas/internal/config"
	"github.com/researchatlas/atlas/internal/logger"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	verbose     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Research landscape rankings and question answering",
	Long: `atlas ranks the research subfields and topics of a domain using OpenAlex
and answers questions about the resulting CSV files with a retrieval-augmented
language model.

All commands output JSON by default for easy integration with scripts and
agents. Use --human for readable output.

API keys are read from the environment or a .env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		loadDotEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./atlas.yml, then the global config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging on stderr")
	rootCmd.Version = Version
}

// loadDotEnv reads .env without overriding variables already set.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("reading .env: %v", err)
	}
}

// commandContext returns a context cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// mustLoadConfig loads and validates the configuration, exiting on failure.
func mustLoadConfig() *config.AppConfig {
	cfg, path, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\n%s", err, config.HelpfulConfigMessage())
	}
	if path != "" {
		logger.Debug("using config %s", path)
	} else {
		logger.Debug("no config file found, using defaults")
	}
	mustValidateConfig(cfg)
	return cfg
}

func mustValidateConfig(cfg *config.AppConfig) {
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid configuration: %v", err)
	}
}
