// Package cmd implements the navi command line interface.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/navihq/navi/internal/appdir"
	"github.com/navihq/navi/internal/config"
	"github.com/navihq/navi/internal/logging"
)

var (
	flagConfig     string
	flagLogLevel   string
	flagLogFile    string
	flagLogJSON    bool
	flagComponents string
	flagDebug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "navi",
	Short:         "Session client for AI coding agents",
	Long:          "Navi maintains conversations with an agent backend: it streams turns, queues input, brokers permission prompts, and keeps session history on disk.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := appdir.EnsureDir(); err != nil {
			return err
		}
		path := flagConfig
		if path == "" {
			var err error
			path, err = appdir.ConfigPath()
			if err != nil {
				return err
			}
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return initLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd.Context())
	},
}

func initLogging() error {
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagDebug {
		level = "debug"
	}
	lc := logging.Config{Level: level, JSON: flagLogJSON || cfg.Log.JSON}
	if flagComponents != "" {
		lc.Components = strings.Split(flagComponents, ",")
	}
	file := cfg.Log.File
	if flagLogFile != "" {
		file = flagLogFile
	}
	if file != "" {
		lc.FileLog = &logging.FileLogConfig{
			Path:       file,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		}
	}
	return logging.Initialize(lc)
}

// Execute runs the CLI.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to config file")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFile, "log-file", "", "write logs to this file with rotation")
	pf.BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
	pf.StringVar(&flagComponents, "log-components", "", "comma-separated components to log (conn,coordinator,session,settings)")
	pf.BoolVar(&flagDebug, "debug", false, "shorthand for --log-level=debug")

	rootCmd.AddCommand(sessionsCmd)
}
