// Package cmd provides the CLI commands for Keuze Compass.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"keuzecompass/internal/app"
	"keuzecompass/internal/config"
	"keuzecompass/internal/guard"
	"keuzecompass/internal/pkg/api"
	xerrors "keuzecompass/internal/pkg/errors"
	"keuzecompass/internal/pkg/validation"
	authservice "keuzecompass/internal/service/auth"

	"github.com/spf13/cobra"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitRedirect = 3
	ExitCanceled = 130
)

// cli carries the state shared by one command invocation.
type cli struct {
	appOpts []app.Option

	apiURL    string
	tokenFile string
	logLevel  string
	asJSON    bool

	app      *app.App
	guard    *guard.Guard
	redirect string
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	root, c := newRootCmd()
	defer c.close()

	err := root.ExecuteContext(ctx)
	return report(root.ErrOrStderr(), ctx, err)
}

func newRootCmd(appOpts ...app.Option) (*cobra.Command, *cli) {
	c := &cli{appOpts: appOpts}

	root := &cobra.Command{
		Use:   "keuzecompass",
		Short: "Keuze Compass - browse and favorite VKMs from the terminal",
		Long: `Keuze Compass lets students browse, filter and favorite free-choice
modules (VKMs) and lets admins manage modules and users.

Configuration:
  KEUZECOMPASS_API_URL      API base URL (falls back to NEXT_PUBLIC_API_URL)
  KEUZECOMPASS_TOKEN_STORE  file (default), memory or redis
  KEUZECOMPASS_TOKEN_FILE   token file (default: $HOME/.keuzecompass/token)
  KEUZECOMPASS_TIMEOUT      per-request timeout, e.g. 15s
  KEUZECOMPASS_LOG_LEVEL    debug, info, warn or error

  A .env file in the working directory is loaded first.

Quick start:
  keuzecompass login -u user1
  keuzecompass modules list --location Breda`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "API base URL (overrides KEUZECOMPASS_API_URL)")
	root.PersistentFlags().StringVar(&c.tokenFile, "token-file", "", "token file (overrides KEUZECOMPASS_TOKEN_FILE)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (overrides KEUZECOMPASS_LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newModulesCmd(c),
		newFavoritesCmd(c),
		newRecommendationsCmd(c),
		newAdminCmd(c),
	)
	return root, c
}

func (c *cli) init(ctx context.Context) error {
	cfg := config.Load()
	if c.apiURL != "" {
		cfg.APIURL = strings.TrimSuffix(c.apiURL, "/")
	}
	if c.tokenFile != "" {
		cfg.TokenFile = c.tokenFile
		cfg.TokenStore = config.StoreFile
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	a, err := app.New(ctx, cfg, c.appOpts...)
	if err != nil {
		return err
	}
	c.app = a
	c.guard = a.Guard(guard.NavigatorFunc(func(path string) {
		c.redirect = path
	}))
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}

// requireAuth runs the authenticated-only guard.
func (c *cli) requireAuth() error {
	if access := c.guard.RequireAuth(); !access.CanAccess {
		return c.redirected()
	}
	return nil
}

// requireAdmin runs the admin-only guard.
func (c *cli) requireAdmin() error {
	if access := c.guard.RequireAdmin(); !access.CanAccess() {
		return c.redirected()
	}
	return nil
}

func (c *cli) redirected() error {
	target := c.redirect
	if target == "" {
		target = guard.LoginPath
	}
	return &redirectError{path: target}
}

// fail maps API failures that mean "no valid session" to a login redirect
// and ends the local session.
func (c *cli) fail(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, api.ErrMissingToken) || api.StatusCode(err) == 401 {
		_ = c.app.Session.Logout(ctx)
		return &redirectError{path: guard.LoginPath, cause: err}
	}
	return err
}

type redirectError struct {
	path  string
	cause error
}

func (e *redirectError) Error() string {
	if e.path == guard.HomePath {
		return "Deze opdracht is alleen beschikbaar voor beheerders."
	}
	if e.cause != nil {
		return "Je sessie is verlopen. Log opnieuw in."
	}
	return "Je bent niet ingelogd."
}

func (e *redirectError) Unwrap() error {
	return e.cause
}

func (e *redirectError) hint() string {
	if e.path == guard.LoginPath {
		return `run "keuzecompass login"`
	}
	return `run "keuzecompass modules list"`
}

// report prints err for a human and picks the exit code. Cancellation is
// silent.
func report(w io.Writer, ctx context.Context, err error) int {
	if err == nil {
		return ExitOK
	}
	if api.IsCanceled(err) || errors.Is(ctx.Err(), context.Canceled) {
		return ExitCanceled
	}

	var redirect *redirectError
	if errors.As(err, &redirect) {
		fmt.Fprintf(w, "%s\n  %s\n", redirect.Error(), redirect.hint())
		return ExitRedirect
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		fmt.Fprintln(w, "Controleer je invoer:")
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
		}
		return ExitError
	}

	if errors.Is(err, authservice.ErrAutoLogin) {
		fmt.Fprintf(w, "Account aangemaakt, maar automatisch inloggen mislukte.\n  %s\n", `run "keuzecompass login"`)
		return ExitError
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		fmt.Fprintln(w, apiErr.Message)
		if apiErr.Kind == api.KindTransport {
			fmt.Fprintln(w, "  probeer het opnieuw")
		}
		return ExitError
	}

	if errors.Is(err, xerrors.ErrMisconfigured) {
		fmt.Fprintf(w, "Configuratiefout: %v\n", err)
		return ExitError
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return ExitError
}
