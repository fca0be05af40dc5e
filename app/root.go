// Package app implements the main application commands.
package app

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/logmonitor/logmonitor/internal/config"
	"github.com/logmonitor/logmonitor/internal/logger"
)

var (
	configPath string // Path to the configuration file
	devMode    bool

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "logmonitor",
		Short: "Log Monitor collects log lines from many clients and streams them live",
		Long: `Log Monitor is a multi-tenant log collector. Every user pushes log lines
with its own bearer token; the dashboard shows them live, old lines are
purged by the retention sweeper and new lines can be forwarded by email.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute() //nolint:wrapcheck
}

// loadConfig reads the configuration and initialises the global logger.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	// dev mode relaxes validation, so it must be known before reading
	if devMode {
		if err = os.Setenv(config.EnvPrefix+"_DEVMODE", "true"); err != nil {
			return errors.Wrap(err, "failed to enable dev mode")
		}
	}

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return errors.Wrap(err, "failed to read config")
	}

	if err = logger.Init(cfg.Log); err != nil {
		return errors.Wrap(err, "failed to init logger")
	}

	return nil
}
