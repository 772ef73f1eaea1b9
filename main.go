package main

import (
	"fmt"
	"log"
	"os"

	"copymatch/config"
	"copymatch/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	logLevel   string

	// cfg is loaded once by the root command before any subcommand runs
	cfg config.Config
	// activeLogger is closed when the command finishes
	activeLogger *logger.LimitedLogger
)

var rootCmd = &cobra.Command{
	Use:   "copymatch",
	Short: "Find and highlight copied passages between two documents",
	Long: `copymatch compares a source document with a target document and reports
which ranges of the target were copied, with exact, partial and paragraph-level highlights.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if activeLogger != nil {
			logger.Install(nil)
			log.SetOutput(os.Stderr)
			activeLogger.Close()
			activeLogger = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "trace, debug, info, warn or error")
}

func setup(*cobra.Command, []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	cfg = loaded

	ll, err := setupLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	activeLogger = ll
	logger.Debug("config loaded (engine %s, cache %v)", cfg.Engine.Type, cfg.Cache.Enabled)
	return nil
}

// setupLogger installs the process logger and routes the standard log
// package into it. An empty path logs to stderr.
func setupLogger(path, level string) (*logger.LimitedLogger, error) {
	lvl := logger.ParseLogLevel(level)

	var ll *logger.LimitedLogger
	if path == "" {
		ll = logger.New(os.Stderr, lvl)
	} else {
		var err error
		ll, err = logger.OpenFile(path, lvl)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}
	logger.Install(ll)
	log.SetOutput(ll)
	return ll, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
