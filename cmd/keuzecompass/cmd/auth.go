package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"keuzecompass/internal/domain/auth"

	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var req auth.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with your Keuze Compass account.

The password is read from --password, from KEUZECOMPASS_PASSWORD, or from
standard input when neither is set.

Example:
  keuzecompass login -u user1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("KEUZECOMPASS_PASSWORD")
			}
			if req.Password == "" {
				pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Wachtwoord: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}

			user, err := c.app.AuthService.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ingelogd als %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var req auth.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if req.Password == "" {
				pw, err := readLine(in, cmd.ErrOrStderr(), "Wachtwoord: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}
			if req.ConfirmPassword == "" {
				pw, err := readLine(in, cmd.ErrOrStderr(), "Bevestig wachtwoord: ")
				if err != nil {
					return err
				}
				req.ConfirmPassword = pw
			}

			account, user, err := c.app.AuthService.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s aangemaakt. Ingelogd als %s.\n", account.Username, user.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (at least 8 characters)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "repeat the password")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.AuthService.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Uitgelogd.")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			user := c.app.Session.Snapshot().User
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n  id:   %s\n  rol:  %s\n", user.Username, user.Email, user.ID, user.Role)
			return nil
		},
	}
}

func readSecret(r io.Reader, prompt io.Writer, label string) (string, error) {
	return readLine(bufio.NewReader(r), prompt, label)
}

func readLine(r *bufio.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
