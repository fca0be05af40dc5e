package app

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/logmonitor/logmonitor/internal/auth"
	"github.com/logmonitor/logmonitor/internal/secret"
)

// ErrEmptyPassword is returned by hash-password for blank input.
var ErrEmptyPassword = errors.New("password can not be empty")

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(keygenCmd, hashPasswordCmd)
}

var (
	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate an age identity for secrets.key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			identity, recipient, err := secret.Generate()
			if err != nil {
				return err //nolint:wrapcheck
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "# public key: %s\n", recipient)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), identity)

			return err //nolint:wrapcheck
		},
	}

	hashPasswordCmd = &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its argon2id hash for admin.passwordhash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return errors.Wrap(err, "failed to hash password")
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)

			return err //nolint:wrapcheck
		},
	}
)

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", errors.Wrap(err, "failed to read password")
		}

		return checkPassword(string(raw))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "failed to read password")
	}

	return checkPassword(strings.TrimRight(line, "\r\n"))
}

func checkPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	return password, nil
}
