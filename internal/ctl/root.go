// Package ctl implements budgetctl, a terminal client that shares the web
// front end's session store, API client and route guard.
package ctl

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"budgettracker/internal/api"
	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
	"budgettracker/internal/output"
	"budgettracker/internal/session"
)

// BudgetAPI is the part of the REST client budgetctl uses.
type BudgetAPI interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListBudgets(ctx context.Context, month core.Month) ([]core.Budget, error)
	Dashboard(ctx context.Context, month int) ([]core.DashboardCategory, error)
	BudgetVsExpense(ctx context.Context, month core.Month) ([]core.ReportRow, error)
}

// App holds what the commands run against.
type App struct {
	Sessions *session.Store
	API      BudgetAPI
	Guard    *nav.Guard
	Shell    *nav.Shell
	Printer  *output.Printer
	Logger   *applog.Logger
	// BaseURL is shown by status.
	BaseURL string
}

func (a *App) logger() *applog.Logger {
	if a.Logger == nil {
		return applog.FromContext(context.Background())
	}
	return a.Logger
}

// now is replaced in tests.
var now = time.Now

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	var (
		colorFlag string
		quiet     bool
	)

	root := &cobra.Command{
		Use:   "budgetctl",
		Short: "Budget tracker from the terminal",
		Long: `budgetctl signs in to the budget API and shows categories, budgets,
the monthly dashboard and the budget-vs-expense report.

With the sqlite session backend the session is shared with the web front
end: it picks up a login or logout made here on its next request, and
each budgetctl run reads the session the browser last left.

Example usage:
  budgetctl login --email me@example.com
  budgetctl dashboard --month 3
  budgetctl budgets --month 2025-03
  budgetctl report --month 2025-03
  budgetctl logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode, err := output.ParseColorMode(colorFlag)
			if err != nil {
				return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError}
			}
			app.Printer.SetColors(output.ResolveColors(mode))
			app.Printer.SetQuiet(quiet)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always or never")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")

	root.AddCommand(
		newLoginCommand(app),
		newLogoutCommand(app),
		newStatusCommand(app),
		newCategoriesCommand(app),
		newBudgetsCommand(app),
		newDashboardCommand(app),
		newReportCommand(app),
	)
	return root
}

// requireSession runs the route guard before a command that needs the API.
func requireSession(app *App) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d := app.Guard.Evaluate()
		if d.Allowed {
			return nil
		}
		app.logger().Debug("Command denied without session",
			applog.FieldComponent, applog.ComponentGuard,
			applog.FieldOperation, cmd.Name(),
			applog.FieldRedirect, d.RedirectTarget)
		return &output.CLIError{
			Summary:    "not logged in",
			Detail:     "no session is stored",
			Suggestion: "Run 'budgetctl login --email <email>' first",
			ExitCode:   output.ExitNotLoggedIn,
		}
	}
}

// apiError turns a failed API call into a CLIError, keeping the server's
// message when it sent one.
func apiError(err error, fallback string) error {
	msg := api.MessageOr(err, fallback)
	detail := ""
	if msg != err.Error() {
		detail = err.Error()
	}
	return &output.CLIError{Summary: msg, Detail: detail, ExitCode: output.ExitAPIError}
}
