package handlers

import (
	"fmt"
	"os"

	"marketpulse/internal/config"
	"marketpulse/internal/logger"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marketpulse",
		Short: "Summarize company news and score its sentiment",
		Long: `MarketPulse finds recent news articles about a company, extracts their text,
and produces an extractive summary, a sentiment label, topic keywords, a
rule-based business impact analysis and an optional translated audio clip for
each article.

Examples:
  # List news links for a company
  marketpulse news Tesla

  # Analyze the discovered articles and print a text report
  marketpulse analyze Tesla --format text

  # Analyze links from a file without audio
  marketpulse analyze --links links.json --no-audio

  # Start the HTTP API
  marketpulse serve --port 8000`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .marketpulse.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewNewsCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewCacheCmd())

	// Initialize config before running any command
	cobra.OnInitialize(initConfig)

	return rootCmd
}

// initConfig reads in config file and ENV variables and configures logging
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		return
	}
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
