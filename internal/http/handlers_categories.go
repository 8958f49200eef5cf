package http

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"budgettracker/internal/api"
	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
	"budgettracker/internal/session"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type categoriesPage struct {
	pageData
	Categories []core.Category
}

func (s *Server) categoriesData(r *http.Request, cats []core.Category) categoriesPage {
	p := categoriesPage{pageData: s.basePage(r, "Categories"), Categories: cats}
	p.Path = nav.RouteCategories
	return p
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.sessions.CurrentSession()

	cats, err := s.loadCategories(ctx, snap)
	if s.discardIfStale(w, r, snap, nav.RouteCategories) {
		return
	}
	p := s.categoriesData(r, cats)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load categories",
			applog.FieldComponent, applog.ComponentCategory,
			applog.FieldOperation, applog.OpList,
			applog.FieldError, err.Error())
		p.Error = "Failed to load categories"
	}
	s.renderPage(w, r, http.StatusOK, "categories.html", p)
}

// categoryForm reads and validates the name and colour against the
// categories already loaded. editingID is empty on create.
func (s *Server) categoryForm(r *http.Request, snap session.Session, editingID string) (name, color string, resp *HTMXResponseBuilder) {
	if resp := ParseFormOrFail(r); resp != nil {
		return "", "", resp
	}
	name = sanitizeInput(r.PostForm.Get("name"))
	color = sanitizeInput(r.PostForm.Get("color"))
	if color == "" {
		color = core.DefaultCategoryColor
	}
	if !hexColor.MatchString(color) {
		msg := "Please pick a valid colour"
		return "", "", UnprocessableEntityError(msg).TriggerErrorNotification(msg).Reswap("none")
	}

	existing, err := s.loadCategories(r.Context(), snap)
	if err != nil {
		msg := "Failed to load categories"
		return "", "", ErrorResponse(http.StatusBadGateway, msg).TriggerErrorNotification(msg).Reswap("none")
	}
	if err := core.ValidateCategoryName(name, existing, editingID); err != nil {
		msg := userMessage(err)
		return "", "", UnprocessableEntityError(msg).TriggerErrorNotification(msg).Reswap("none")
	}
	return name, color, nil
}

// respondCategoryList reloads the list from the server after a confirmed
// mutation and returns it with a notification.
func (s *Server) respondCategoryList(w http.ResponseWriter, r *http.Request, snap session.Session, notice string) {
	s.invalidateCategories(snap)
	if !isHTMX(r) {
		nav.Redirect(w, r, nav.RouteCategories)
		return
	}
	cats, err := s.loadCategories(r.Context(), snap)
	if s.discardIfStale(w, r, snap, nav.RouteCategories) {
		return
	}
	p := s.categoriesData(r, cats)
	if err != nil {
		p.Error = "Failed to load categories"
	}
	s.partial(r, "categories.html", "category_list", p).
		TriggerSuccessNotification(notice).
		TriggerFormReset().
		Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.sessions.CurrentSession()
	name, color, resp := s.categoryForm(r, snap, "")
	if resp != nil {
		resp.Write(w)
		return
	}

	if err := s.api.CreateCategory(ctx, name, color); err != nil {
		s.categoryFailure(w, r, applog.OpCreate, "", err, "Failed to save category")
		return
	}
	s.respondCategoryList(w, r, snap, "Category added successfully")
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.sessions.CurrentSession()
	id := chi.URLParam(r, "id")
	name, color, resp := s.categoryForm(r, snap, id)
	if resp != nil {
		resp.Write(w)
		return
	}

	if err := s.api.UpdateCategory(ctx, id, name, color); err != nil {
		s.categoryFailure(w, r, applog.OpUpdate, id, err, "Failed to save category")
		return
	}
	s.respondCategoryList(w, r, snap, "Category updated successfully")
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.sessions.CurrentSession()
	id := chi.URLParam(r, "id")

	if err := s.api.DeleteCategory(ctx, id); err != nil {
		s.categoryFailure(w, r, applog.OpDelete, id, err, api.MessageOr(err, "Failed to delete category"))
		return
	}
	s.respondCategoryList(w, r, snap, "Category deleted successfully")
}

func (s *Server) categoryFailure(w http.ResponseWriter, r *http.Request, op, id string, err error, msg string) {
	s.logger.ErrorContext(r.Context(), "Category mutation failed",
		applog.FieldComponent, applog.ComponentCategory,
		applog.FieldOperation, op,
		applog.FieldCategoryID, id,
		applog.FieldStatusCode, api.StatusOf(err),
		applog.FieldError, err.Error())
	ErrorResponse(http.StatusBadGateway, msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
}
