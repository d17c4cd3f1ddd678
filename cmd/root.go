// Package cmd holds the shooting-stats command tree.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shooting_stats/internal/app"
	"shooting_stats/internal/config"
	"shooting_stats/internal/logging"
)

type globalFlags struct {
	configPath string
	dataPath   string
	outputDir  string
	logLevel   string
	dev        bool
	offline    bool
}

// session is what every subcommand works with once flags are resolved.
type session struct {
	cfg config.Config
	log *zap.Logger
	app *app.App
}

func (s *session) close() {
	if s.app != nil {
		if err := s.app.Close(); err != nil {
			s.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = s.log.Sync()
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "shooting-stats",
		Short: "Summarise a mass-shooting incident dataset into tables and charts",
		Long: `shooting-stats loads a CSV of mass-shooting incidents, normalises the
free-text categorical columns, aggregates incidents by race, gender,
month, year, state and mental-health status, and writes charts plus a
JSON report.

Quick start:
  shooting-stats report --data data/data.csv --out result
  shooting-stats summary --measure fatalities
  shooting-stats normalize --output clean.csv
  shooting-stats watch`,
		SilenceUsage: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (yaml or json), overrides CONFIG_PATH")
	pf.StringVar(&flags.dataPath, "data", "", "input CSV, overrides DATA_PATH")
	pf.StringVar(&flags.outputDir, "out", "", "output directory, overrides OUTPUT_DIR")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&flags.dev, "dev", false, "human-readable log output")
	pf.BoolVar(&flags.offline, "offline", false, "use the built-in state table instead of a geocoding provider")

	cmd.AddCommand(reportCommand(flags))
	cmd.AddCommand(normalizeCommand(flags))
	cmd.AddCommand(summaryCommand(flags))
	cmd.AddCommand(watchCommand(flags))
	return cmd
}

// newLogger is swapped in tests.
var newLogger = logging.New

// open resolves configuration for cmd and wires the application. Config
// warnings go to a logger built from the flags and environment alone, since
// the file may set a different level.
func open(cmd *cobra.Command, flags *globalFlags) (*session, error) {
	if flags.configPath != "" {
		if err := os.Setenv("CONFIG_PATH", flags.configPath); err != nil {
			return nil, err
		}
	}
	bootLevel := firstSet(flags.logLevel, os.Getenv("LOG_LEVEL"), "info")
	bootDev := flags.dev
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_DEV"))) {
	case "1", "true", "yes", "on":
		bootDev = true
	}
	boot, err := newLogger(bootLevel, bootDev)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(boot)
	if err != nil {
		_ = boot.Sync()
		return nil, err
	}
	if flags.dataPath != "" {
		cfg.DataPath = flags.dataPath
	}
	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if cmd.Flags().Changed("dev") {
		cfg.LogDev = flags.dev
	}
	if flags.offline {
		cfg.Geocode.Provider = config.ProviderOffline
	}

	log := boot
	if cfg.LogLevel != bootLevel || cfg.LogDev != bootDev {
		_ = boot.Sync()
		if log, err = newLogger(cfg.LogLevel, cfg.LogDev); err != nil {
			return nil, err
		}
	}
	a, err := app.New(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &session{cfg: cfg, log: log, app: a}, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
