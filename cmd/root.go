package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/viktsys/nifty50/config"
	"github.com/viktsys/nifty50/logger"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
)

var rootCMD = &cobra.Command{
	Use:   "nifty50",
	Short: "NIFTY-50 daily price fetch, merge and load tool",
	Long: `A CLI application for building a daily NIFTY-50 price history.
It downloads daily bars from a market-data provider, merges them into an
existing historical CSV without duplicate (date, ticker) rows, loads the
result into a database and serves per-ticker statistics through a REST API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logFormat
		}

		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger.Init(os.Stderr, "nifty50", cfg.Log.Format, level)
		return nil
	},
}

func Execute() {
	err := rootCMD.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCMD.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	rootCMD.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCMD.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (text, json)")

	rootCMD.AddCommand(fetchCMD, mergeCMD, loadCMD, serverCMD)
}

// validated runs the section checks a command depends on, once its flags
// have been applied.
func validated(checks ...func() error) error {
	errs := []error{cfg.ValidateLog()}
	for _, check := range checks {
		errs = append(errs, check())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Debug("configuration loaded", "config", configPath)
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
