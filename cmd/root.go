// Package cmd holds the smart-response command line.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"smart-response/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is injected at build time via ldflags.
var version = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "smart-response",
		Short: "Chat responder with trigger phrases and step-by-step answers",
		Long: `smart-response answers chat messages. Configured trigger phrases get
fixed replies or rich cards; everything else can be answered by a language
model, with multi-step answers delivered one step at a time.

Examples:
  smart-response serve
  smart-response match "how do I reset my password"
  smart-response steps < answer.txt`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return loadEnvFile(envFile)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the config file (default: search config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().String("triggers", "", "trigger file, overrides TRIGGERS_FILE")

	rootCmd.AddCommand(
		newServeCmd(),
		newMatchCmd(),
		newStepsCmd(),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadEnvFile loads a dotenv file. A missing file is not an error, and
// variables already set in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadConfig reads configuration honouring the global flags.
func loadConfig(cmd *cobra.Command, logger *zap.Logger) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(logger, path)
	if err != nil {
		return nil, err
	}
	if triggers, _ := cmd.Flags().GetString("triggers"); triggers != "" {
		cfg.TriggersFile = triggers
	}
	return cfg, nil
}
