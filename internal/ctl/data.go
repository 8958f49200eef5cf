package ctl

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/output"
)

func currentMonth() core.Month {
	t := now()
	return core.Month{Year: t.Year(), Month: int(t.Month())}
}

// parseMonthFlag reads a YYYY-MM flag, defaulting to the current month.
func parseMonthFlag(value string) (core.Month, error) {
	if value == "" {
		return currentMonth(), nil
	}
	m, err := core.ParseMonth(value)
	if err != nil {
		return core.Month{}, &output.CLIError{
			Summary:    fmt.Sprintf("invalid month %q", value),
			Suggestion: "Use the YYYY-MM format, e.g. 2025-03",
			ExitCode:   output.ExitUsageError,
		}
	}
	return m, nil
}

func newCategoriesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "categories",
		Short:   "List your categories",
		Args:    cobra.NoArgs,
		PreRunE: requireSession(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := app.API.ListCategories(cmd.Context())
			if err != nil {
				return apiError(err, "Failed to load categories")
			}
			p := app.Printer
			if len(cats) == 0 {
				p.Info("No categories yet")
				return nil
			}
			table := p.NewTable("ID", "Name", "Color")
			for _, c := range cats {
				table.AddRow(c.ID, c.Name, c.Color)
			}
			return table.Render()
		},
	}
}

func newBudgetsCommand(app *App) *cobra.Command {
	var monthFlag string

	cmd := &cobra.Command{
		Use:     "budgets",
		Short:   "List the budgets set for a month",
		Args:    cobra.NoArgs,
		PreRunE: requireSession(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthFlag(monthFlag)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var (
				budgets []core.Budget
				cats    []core.Category
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				cats, err = app.API.ListCategories(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				budgets, err = app.API.ListBudgets(gctx, month)
				return err
			})
			if err := g.Wait(); err != nil {
				app.logger().ErrorContext(ctx, "Failed to load budgets",
					applog.FieldComponent, applog.ComponentBudget,
					applog.FieldMonth, month.String(),
					applog.FieldError, err.Error())
				return apiError(err, "Failed to load data")
			}
			budgets = core.ResolveCategoryNames(budgets, cats)

			p := app.Printer
			p.Header(month.Label())
			if len(budgets) == 0 {
				p.Info("No budgets set for this month.")
				return nil
			}
			table := p.NewTable("ID", "Category", "Limit")
			for _, b := range budgets {
				table.AddRow(b.ID, b.Category.DisplayName(), b.Limit.String())
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&monthFlag, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}

func newDashboardCommand(app *App) *cobra.Command {
	var monthFlag int

	cmd := &cobra.Command{
		Use:     "dashboard",
		Short:   "Show spending per category for a month of this year",
		Args:    cobra.NoArgs,
		PreRunE: requireSession(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := monthFlag
			if month == 0 {
				month = int(now().Month())
			}
			if month < 1 || month > 12 {
				return &output.CLIError{
					Summary:  "invalid month " + strconv.Itoa(month),
					Detail:   "month must be between 1 and 12",
					ExitCode: output.ExitUsageError,
				}
			}

			rows, err := app.API.Dashboard(cmd.Context(), month)
			if err != nil {
				return apiError(err, "Failed to load dashboard")
			}

			p := app.Printer
			summary := core.Summarize(rows)
			p.Header("Dashboard · " + time.Month(month).String())
			p.Print("Total spent:      %s", p.Bold(summary.TotalSpent.String()))
			p.Print("Remaining budget: %s", summary.RemainingBudget.String())
			p.Print("Top category:     %s", summary.TopCategory)

			if len(rows) == 0 {
				p.Info("No categories yet. Create your first category to start tracking expenses.")
				return nil
			}
			table := p.NewTable("Category", "Spent", "Limit", "Remaining", "Usage")
			for _, r := range rows {
				limit, usage := "No Limit", p.Dim("-")
				if r.Limit.Cents > 0 {
					limit = r.Limit.String()
					usage = p.UsageBadge(core.UsagePercent(r.Spent, r.Limit))
				}
				table.AddRow(r.Name, r.Spent.String(), limit, r.Remaining.String(), usage)
			}
			return table.Render()
		},
	}
	cmd.Flags().IntVar(&monthFlag, "month", 0, "month number 1-12 (default current month)")
	return cmd
}

func newReportCommand(app *App) *cobra.Command {
	var monthFlag string

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Compare budgets with spending for a month",
		Args:    cobra.NoArgs,
		PreRunE: requireSession(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthFlag(monthFlag)
			if err != nil {
				return err
			}
			rows, err := app.API.BudgetVsExpense(cmd.Context(), month)
			if err != nil {
				return apiError(err, "Failed to load report")
			}

			p := app.Printer
			p.Header("Report · " + month.Label())
			if len(rows) == 0 {
				p.Warning("No data for selected month.")
				return nil
			}
			var total core.Money
			table := p.NewTable("Category", "Budget", "Spent", "Remaining", "Usage")
			for _, r := range rows {
				total = total.Add(r.Spent)
				table.AddRow(r.CategoryName, r.Budget.String(), r.Spent.String(), r.Remaining.String(),
					p.UsageBadge(core.UsagePercent(r.Spent, r.Budget)))
			}
			if err := table.Render(); err != nil {
				return err
			}
			p.Print("Total spent: %s", p.Bold(total.String()))
			return nil
		},
	}
	cmd.Flags().StringVar(&monthFlag, "month", "", "month as YYYY-MM (default current month)")
	return cmd
}
