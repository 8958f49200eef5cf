package ctl

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"budgettracker/internal/api"
	applog "budgettracker/internal/log"
	"budgettracker/internal/output"
)

// PasswordEnv supplies the login password when --password is not given.
const PasswordEnv = "BUDGET_PASSWORD"

func newLoginCommand(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Exchange email and password for a session token and store it.

The password is read from --password or, when omitted, from the
` + PasswordEnv + ` environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			email = strings.TrimSpace(email)
			if password == "" {
				password = os.Getenv(PasswordEnv)
			}
			if email == "" || password == "" {
				return &output.CLIError{
					Summary:    "email and password are required",
					Suggestion: "Pass --email and --password, or set " + PasswordEnv,
					ExitCode:   output.ExitUsageError,
				}
			}

			res, err := app.API.Login(ctx, email, password)
			if err != nil {
				app.logger().WarnContext(ctx, "Login failed",
					applog.FieldComponent, applog.ComponentSession,
					applog.FieldOperation, applog.OpLogin,
					applog.FieldStatusCode, api.StatusOf(err),
					applog.FieldError, err.Error())
				switch {
				case api.IsUnauthorized(err):
					return apiError(err, "Invalid email or password")
				case errors.Is(err, api.ErrMalformedLogin):
					return &output.CLIError{Summary: "Login failed: unexpected response from server", ExitCode: output.ExitAPIError}
				default:
					return apiError(err, "Login failed. Please try again.")
				}
			}

			if err := app.Sessions.Login(ctx, res.Token, res.UserID); err != nil {
				return &output.CLIError{
					Summary:  "could not save the session",
					Detail:   err.Error(),
					ExitCode: output.ExitGeneral,
				}
			}
			app.Printer.Success("Logged in as %s", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (default $"+PasswordEnv+")")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.Shell.TriggerLogout(cmd.Context()); err != nil {
				return &output.CLIError{
					Summary:  "logout failed",
					Detail:   err.Error(),
					ExitCode: output.ExitGeneral,
				}
			}
			app.Printer.Success("Logged out")
			return nil
		},
	}
}

// newStatusCommand prints whether a session is stored and which pages the
// navigation bar offers for it.
func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and available pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := app.Printer
			sess := app.Sessions.CurrentSession()

			p.Header("Session")
			if sess.Empty() {
				p.Print("Not logged in")
			} else {
				p.Print("Logged in as user %s", p.Bold(sess.UserID))
			}
			if app.BaseURL != "" {
				p.Print("API: %s", p.Dim(app.BaseURL))
			}

			links := app.Shell.Links("")
			if len(links) == 0 {
				return nil
			}
			p.Header("Pages")
			table := p.NewTable("Page", "Path")
			for _, l := range links {
				table.AddRow(l.Label, l.Path)
			}
			return table.Render()
		},
	}
}
