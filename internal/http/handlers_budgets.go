package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"budgettracker/internal/api"
	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
	"budgettracker/internal/session"
)

type budgetsPage struct {
	pageData
	Month      core.Month
	Budgets    []core.Budget
	Categories []core.Category
}

// loadBudgets fetches categories and the month's budgets concurrently and
// resolves category names the server did not populate.
func (s *Server) loadBudgets(ctx context.Context, snap session.Session, month core.Month) ([]core.Budget, []core.Category, error) {
	var (
		budgets []core.Budget
		cats    []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cats, err = s.loadCategories(gctx, snap)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.api.ListBudgets(gctx, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return core.ResolveCategoryNames(budgets, cats), cats, nil
}

func (s *Server) budgetsData(r *http.Request, month core.Month, budgets []core.Budget, cats []core.Category) budgetsPage {
	p := budgetsPage{pageData: s.basePage(r, "Budgets"), Month: month, Budgets: budgets, Categories: cats}
	p.Path = nav.RouteBudgets
	return p
}

func budgetsURL(month core.Month) string {
	return nav.RouteBudgets + "?month=" + month.String()
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.sessions.CurrentSession()
	month := ParseMonthParam(r.URL.Query(), "month")

	budgets, cats, err := s.loadBudgets(ctx, snap, month)
	if s.discardIfStale(w, r, snap, budgetsURL(month)) {
		return
	}
	p := s.budgetsData(r, month, budgets, cats)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load budgets",
			applog.FieldComponent, applog.ComponentBudget,
			applog.FieldOperation, applog.OpList,
			applog.FieldMonth, month.String(),
			applog.FieldError, err.Error())
		p.Error = "Failed to load data"
	}
	s.renderPage(w, r, http.StatusOK, "budgets.html", p)
}

// respondBudgetList reloads the viewed month after a confirmed mutation.
func (s *Server) respondBudgetList(w http.ResponseWriter, r *http.Request, snap session.Session, view core.Month, notice string) {
	if !isHTMX(r) {
		nav.Redirect(w, r, budgetsURL(view))
		return
	}
	budgets, cats, err := s.loadBudgets(r.Context(), snap, view)
	if s.discardIfStale(w, r, snap, budgetsURL(view)) {
		return
	}
	p := s.budgetsData(r, view, budgets, cats)
	if err != nil {
		p.Error = "Failed to load data"
	}
	s.partial(r, "budgets.html", "budget_list", p).
		TriggerSuccessNotification(notice).
		TriggerFormReset().
		Write(w)
}

func (s *Server) budgetFailure(w http.ResponseWriter, r *http.Request, op, id string, err error, msg string) {
	s.logger.ErrorContext(r.Context(), "Budget mutation failed",
		applog.FieldComponent, applog.ComponentBudget,
		applog.FieldOperation, op,
		applog.FieldBudgetID, id,
		applog.FieldStatusCode, api.StatusOf(err),
		applog.FieldError, err.Error())
	ErrorResponse(http.StatusBadGateway, msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
}

func invalid(msg string) *HTMXResponseBuilder {
	return UnprocessableEntityError(msg).TriggerErrorNotification(msg).Reswap("none")
}

// handleCreateBudget validates the draft against the budgets already set
// for its month, then creates it.
func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	snap := s.sessions.CurrentSession()
	view := ParseMonthParam(r.PostForm, "view")

	categoryID := sanitizeInput(r.PostForm.Get("categoryId"))
	if categoryID == "" {
		invalid(userMessage(core.ErrMissingCategory)).Write(w)
		return
	}
	limit, err := core.ParseMoney(r.PostForm.Get("limit"))
	if err != nil {
		invalid(userMessage(core.ErrInvalidLimit)).Write(w)
		return
	}
	month, err := core.ParseMonth(r.PostForm.Get("month"))
	if err != nil {
		invalid(userMessage(err)).Write(w)
		return
	}

	existing, err := s.api.ListBudgets(ctx, month)
	if err != nil {
		s.budgetFailure(w, r, applog.OpCreate, "", err, "Failed to add budget")
		return
	}
	if err := core.ValidateNewBudget(categoryID, limit, month, existing); err != nil {
		invalid(userMessage(err)).Write(w)
		return
	}

	if err := s.api.CreateBudget(ctx, categoryID, limit, month); err != nil {
		s.budgetFailure(w, r, applog.OpCreate, "", err, "Failed to add budget")
		return
	}
	s.respondBudgetList(w, r, snap, view, "Budget added successfully")
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	snap := s.sessions.CurrentSession()
	view := ParseMonthParam(r.PostForm, "view")
	id := chi.URLParam(r, "id")

	// An unparsable limit counts as zero.
	limit, _ := core.ParseMoney(r.PostForm.Get("limit"))
	if err := core.ValidateLimit(limit); err != nil {
		invalid(userMessage(err)).Write(w)
		return
	}
	if err := s.api.UpdateBudgetLimit(ctx, id, limit); err != nil {
		s.budgetFailure(w, r, applog.OpUpdate, id, err, "Failed to update budget")
		return
	}
	s.respondBudgetList(w, r, snap, view, "Budget updated successfully")
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	snap := s.sessions.CurrentSession()
	view := ParseMonthParam(r.PostForm, "view")
	id := chi.URLParam(r, "id")

	if err := s.api.DeleteBudget(ctx, id); err != nil {
		s.budgetFailure(w, r, applog.OpDelete, id, err, "Failed to delete budget")
		return
	}
	s.respondBudgetList(w, r, snap, view, "Budget deleted successfully")
}
