package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/logmonitor/logmonitor/internal/daemon"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Inspect or reset the settings stored in the database",
	}

	settingsShowCmd = &cobra.Command{
		Use:     "show",
		Short:   "Print the stored settings, mail password masked",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(func(core *daemon.Core) error {
				stored, err := core.Settings.Stored()
				if err != nil {
					return err //nolint:wrapcheck
				}

				names := make([]string, 0, len(stored))
				for name := range stored {
					names = append(names, name)
				}

				sort.Strings(names)

				for _, name := range names {
					var out bytes.Buffer
					if err := json.Indent(&out, stored[name], "", "  "); err != nil {
						return err //nolint:wrapcheck
					}

					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, out.String())
				}

				return nil
			})
		},
	}

	settingsResetCmd = &cobra.Command{
		Use:   "reset [retention|mail]...",
		Short: "Delete stored settings so the configured values are seeded again",
		Long: `Delete stored settings. The next command that opens the database seeds
them again from the configuration file and environment.`,
		ValidArgs: []string{"retention", "mail"},
		Args:      cobra.OnlyValidArgs,
		PreRunE:   loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(func(core *daemon.Core) error {
				if err := core.Settings.Reset(args...); err != nil {
					return err //nolint:wrapcheck
				}

				_, err := fmt.Fprintln(cmd.OutOrStdout(), "settings reset")

				return err //nolint:wrapcheck
			})
		},
	}
)

func init() { //nolint: gochecknoinits
	settingsCmd.AddCommand(settingsShowCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}
