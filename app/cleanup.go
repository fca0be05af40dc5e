package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logmonitor/logmonitor/internal/daemon"
	"github.com/logmonitor/logmonitor/internal/retention"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(cleanupCmd)
}

var cleanupCmd = &cobra.Command{
	Use:     "cleanup",
	Short:   "Remove logs older than the configured retention horizon",
	PreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, _ []string) error {
		core, err := daemon.Open(&cfg)
		if err != nil {
			return err //nolint:wrapcheck
		}

		defer func() { _ = core.Close() }()

		res, err := retention.New(core.Settings, core.Logs, nil).Sweep()
		if err != nil {
			return err //nolint:wrapcheck
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d logs older than %d days.\n", res.Removed, res.Days)

		return err //nolint:wrapcheck
	},
}
