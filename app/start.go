package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/logmonitor/logmonitor/internal/config"
	"github.com/logmonitor/logmonitor/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:     "start",
	Short:   "Start the Log Monitor web service",
	PreRunE: loadConfig,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.DevMode {
			if dump, err := config.DumpConfigJSON(cfg); err == nil {
				log.Debug().Msg(dump)
			}
		}

		d, err := daemon.New(&cfg)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return d.Start() //nolint:wrapcheck
	},
}
