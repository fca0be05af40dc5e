package app

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/logmonitor/logmonitor/internal/daemon"
)

var (
	userName  string
	userEmail string

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage the users that push logs",
	}

	userCreateCmd = &cobra.Command{
		Use:     "create",
		Short:   "Create a user and print its token",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(func(core *daemon.Core) error {
				user, err := core.Users.Create(userName, userEmail)
				if err != nil {
					return err //nolint:wrapcheck
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\ntoken: %s\n", user.ID, user.Name, user.Token)

				return err //nolint:wrapcheck
			})
		},
	}

	userListCmd = &cobra.Command{
		Use:     "list",
		Short:   "List users with their tokens",
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(func(core *daemon.Core) error {
				users, err := core.Users.List()
				if err != nil {
					return err //nolint:wrapcheck
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0) //nolint:mnd
				_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tTOKEN")

				for _, u := range users {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Token)
				}

				return w.Flush() //nolint:wrapcheck
			})
		},
	}

	userDeleteCmd = &cobra.Command{
		Use:     "delete ID",
		Short:   "Delete a user and all of its logs",
		Args:    cobra.ExactArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid user id")
			}

			return withCore(func(core *daemon.Core) error {
				removed, err := core.Users.Delete(id)
				if err != nil {
					return err //nolint:wrapcheck
				}

				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d and %d logs\n", id, removed)

				return err //nolint:wrapcheck
			})
		},
	}
)

func init() { //nolint: gochecknoinits
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name of the user")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "address that receives forwarded logs")
	_ = userCreateCmd.MarkFlagRequired("name")

	userCmd.AddCommand(userCreateCmd, userListCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func withCore(fn func(core *daemon.Core) error) error {
	core, err := daemon.Open(&cfg)
	if err != nil {
		return err //nolint:wrapcheck
	}

	defer func() { _ = core.Close() }()

	return fn(core)
}
