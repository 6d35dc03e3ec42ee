package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitegen/internal/config"
	"sitegen/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "sitegen",
	Short: "sitegen turns a prompt into a structured landing page",
	Long: `sitegen generates landing pages and section variants as component trees
by orchestrating several AI providers with fallback, parsing their output
and normalizing it into a consistent design.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults to $SITEGEN_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
}

// loadConfig reads .env files, the config file and the environment, then
// installs the process logger
func loadConfig() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil {
		// running from cmd/sitegen during development
		_ = godotenv.Load("../../.env")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logging.New(cfg.Environment, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logging.SetGlobal(log)
	return cfg, log, nil
}
