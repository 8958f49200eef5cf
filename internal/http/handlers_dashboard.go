package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"budgettracker/internal/api"
	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
	"budgettracker/internal/session"
)

type dashboardRow struct {
	core.DashboardCategory
	Percent int
	Status  core.BudgetStatus
}

type dashboardPage struct {
	pageData
	Month      int
	MonthLabel string
	Months     []monthOption
	Summary    core.DashboardSummary
	Rows       []dashboardRow
	Categories []core.Category
}

// loadDashboard fetches the month's figures and the categories for the
// expense form concurrently. A failed category load leaves the form
// without options; a failed dashboard load is returned.
func (s *Server) loadDashboard(ctx context.Context, snap session.Session, month int) ([]core.DashboardCategory, []core.Category, error) {
	var (
		rows []core.DashboardCategory
		cats []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.api.Dashboard(gctx, month)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = s.loadCategories(gctx, snap)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to load categories for expense form",
				applog.FieldComponent, applog.ComponentCategory,
				applog.FieldError, err.Error())
			cats = nil
		}
		return nil
	})
	err := g.Wait()
	return rows, cats, err
}

func (s *Server) dashboardData(r *http.Request, month int, rows []core.DashboardCategory, cats []core.Category) dashboardPage {
	p := dashboardPage{
		pageData:   s.basePage(r, "Dashboard"),
		Month:      month,
		MonthLabel: time.Month(month).String(),
		Months:     monthOptions(month),
		Summary:    core.Summarize(rows),
		Categories: cats,
	}
	p.Path = nav.RouteDashboard
	for _, c := range rows {
		pct := core.UsagePercent(c.Spent, c.Limit)
		p.Rows = append(p.Rows, dashboardRow{DashboardCategory: c, Percent: pct, Status: core.StatusFor(pct)})
	}
	return p
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.sessions.CurrentSession()
	month := ParseMonthNumber(r.URL.Query())

	rows, cats, err := s.loadDashboard(ctx, snap, month)
	if s.discardIfStale(w, r, snap, r.URL.RequestURI()) {
		return
	}

	p := s.dashboardData(r, month, rows, cats)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load dashboard",
			applog.FieldComponent, applog.ComponentAPI,
			applog.FieldMonth, month,
			applog.FieldStatusCode, api.StatusOf(err),
			applog.FieldError, err.Error())
		p.Error = "Failed to load dashboard"
	}
	s.renderPage(w, r, http.StatusOK, "dashboard.html", p)
}

// handleCreateExpense posts an expense and answers with the dashboard
// reloaded from the server for the month being viewed.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	snap := s.sessions.CurrentSession()
	month := ParseMonthNumber(r.PostForm)

	exp := core.Expense{
		Description: sanitizeInput(r.PostForm.Get("description")),
		CategoryID:  sanitizeInput(r.PostForm.Get("categoryId")),
	}
	amount, err := core.ParseMoney(r.PostForm.Get("amount"))
	if err == nil {
		exp.Amount = amount
		err = exp.Validate()
	}
	if err != nil {
		msg := userMessage(err)
		UnprocessableEntityError(msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
		return
	}

	if err := s.api.CreateExpense(ctx, exp); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save expense",
			applog.FieldComponent, applog.ComponentExpense,
			applog.FieldOperation, applog.OpCreate,
			applog.FieldCategoryID, exp.CategoryID,
			applog.FieldAmountCents, exp.Amount.Cents,
			applog.FieldStatusCode, api.StatusOf(err),
			applog.FieldError, err.Error())
		msg := api.MessageOr(err, "Failed to add expense")
		ErrorResponse(http.StatusBadGateway, msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
		return
	}
	s.recordExpense()
	s.sl.LogExpenseCreated(ctx, snap.UserID, exp.Description, exp.Amount.Cents, exp.CategoryID)

	rows, cats, err := s.loadDashboard(ctx, snap, month)
	if s.discardIfStale(w, r, snap, nav.RouteDashboard+"?month="+strconv.Itoa(month)) {
		return
	}
	p := s.dashboardData(r, month, rows, cats)
	if err != nil {
		p.Error = "Failed to load dashboard"
	}
	s.partial(r, "dashboard.html", "dashboard_body", p).
		TriggerSuccessNotification("Expense added successfully").
		TriggerFormReset().
		Write(w)
}
