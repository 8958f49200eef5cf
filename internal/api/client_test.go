package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettracker/internal/core"
	"budgettracker/internal/session"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	userID string
	body   map[string]any
}

// fakeAPI serves canned JSON per "METHOD /path" and records requests.
func fakeAPI(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var log []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			userID: r.Header.Get("userId"),
		}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.body))
		}
		log = append(log, rec)

		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w)
	}))
	t.Cleanup(srv.Close)
	return srv, &log
}

func jsonReply(status int, v any) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func newTestClient(t *testing.T, baseURL string) (*Client, *session.Store) {
	t.Helper()
	s := newStore(t)
	c, err := NewClient(baseURL+"/api", s)
	require.NoError(t, err)
	return c, s
}

func TestLoginIsNotAuthenticated(t *testing.T) {
	srv, reqs := fakeAPI(t, map[string]func(http.ResponseWriter){
		"POST /api/auth/login": jsonReply(http.StatusOK, map[string]string{"token": "abc123", "userId": "u1"}),
	})
	c, s := newTestClient(t, srv.URL)
	require.NoError(t, s.Login(context.Background(), "stale", "old"))

	res, err := c.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, LoginResult{Token: "abc123", UserID: "u1"}, res)

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Empty(t, got.auth)
	assert.Empty(t, got.userID)
	assert.Equal(t, "a@b.c", got.body["email"])

	// Login does not touch the session by itself.
	assert.Equal(t, "stale", s.CurrentSession().Token)
}

func TestLoginMalformedResponse(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]func(http.ResponseWriter){
		"POST /api/auth/login": jsonReply(http.StatusOK, map[string]string{"token": "abc123"}),
	})
	c, _ := newTestClient(t, srv.URL)

	_, err := c.Login(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrMalformedLogin)
}

func TestLoginRejected(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]func(http.ResponseWriter){
		"POST /api/auth/login": jsonReply(http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"}),
	})
	c, _ := newTestClient(t, srv.URL)

	_, err := c.Login(context.Background(), "a@b.c", "bad")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials", MessageOr(err, "Login failed"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "/auth/login", apiErr.Path)
}

func TestCreateExpenseCarriesCredentials(t *testing.T) {
	srv, reqs := fakeAPI(t, map[string]func(http.ResponseWriter){
		"POST /api/expenses": jsonReply(http.StatusCreated, map[string]string{"_id": "e1"}),
	})
	c, s := newTestClient(t, srv.URL)
	require.NoError(t, s.Login(context.Background(), "abc123", "u1"))

	err := c.CreateExpense(context.Background(), core.Expense{
		Amount:      core.Money{Cents: 1250},
		Description: "lunch",
		CategoryID:  "c1",
	})
	require.NoError(t, err)

	got := (*reqs)[0]
	assert.Equal(t, "Bearer abc123", got.auth)
	assert.Equal(t, "u1", got.userID)
	assert.Equal(t, 12.5, got.body["amount"])
	assert.Equal(t, "lunch", got.body["description"])
	assert.Equal(t, "c1", got.body["categoryId"])
}

func TestListCategoriesWithoutSession(t *testing.T) {
	srv, reqs := fakeAPI(t, map[string]func(http.ResponseWriter){
		"GET /api/categories": jsonReply(http.StatusOK, []map[string]string{
			{"_id": "c1", "name": "Food", "color": "#ff0000"},
			{"id": "c2", "name": "Rent", "color": "#00ff00"},
		}),
	})
	c, _ := newTestClient(t, srv.URL)

	cats, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Category{
		{ID: "c1", Name: "Food", Color: "#ff0000"},
		{ID: "c2", Name: "Rent", Color: "#00ff00"},
	}, cats)

	got := (*reqs)[0]
	assert.Empty(t, got.auth)
	assert.Empty(t, got.userID)
}

func TestListBudgetsDecodesCategoryShapes(t *testing.T) {
	srv, reqs := fakeAPI(t, map[string]func(http.ResponseWriter){
		"GET /api/budgets": jsonReply(http.StatusOK, []map[string]any{
			{"_id": "b1", "categoryId": map[string]string{"_id": "c1", "name": "Food", "color": "#ff0000"}, "limit": 5000, "month": "2024-03"},
			{"_id": "b2", "categoryId": "c2", "limit": 120.5, "month": "2024-03"},
			{"_id": "b3", "categoryId": nil, "limit": 10, "month": "2024-03"},
		}),
	})
	c, s := newTestClient(t, srv.URL)
	require.NoError(t, s.Login(context.Background(), "t", "u"))

	month := core.Month{Year: 2024, Month: 3}
	budgets, err := c.ListBudgets(context.Background(), month)
	require.NoError(t, err)
	require.Len(t, budgets, 3)

	assert.Equal(t, core.CategoryRef{ID: "c1", Name: "Food", Color: "#ff0000"}, budgets[0].Category)
	assert.Equal(t, core.Money{Cents: 500000}, budgets[0].Limit)
	assert.Equal(t, month, budgets[0].Month)
	assert.Equal(t, core.CategoryRef{ID: "c2"}, budgets[1].Category)
	assert.Equal(t, core.Money{Cents: 12050}, budgets[1].Limit)
	assert.Equal(t, core.DeletedCategoryName, budgets[2].Category.DisplayName())

	assert.Equal(t, "month=2024-03", (*reqs)[0].query)
}

func TestDashboardAndReport(t *testing.T) {
	srv, reqs := fakeAPI(t, map[string]func(http.ResponseWriter){
		"GET /api/dashboard": jsonReply(http.StatusOK, []map[string]any{
			{"_id": "c1", "name": "Food", "color": "#f00", "spent": 80, "limit": 100, "remaining": 20},
		}),
		"GET /api/reports/budget-vs-expense": jsonReply(http.StatusOK, []map[string]any{
			{"categoryId": "c1", "categoryName": "Food", "spent": 80, "budget": 100, "remaining": 20},
		}),
	})
	c, s := newTestClient(t, srv.URL)
	require.NoError(t, s.Login(context.Background(), "t", "u"))

	rows, err := c.Dashboard(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c1", rows[0].ID)
	assert.Equal(t, core.Money{Cents: 8000}, rows[0].Spent)
	assert.Equal(t, "month=3", (*reqs)[0].query)

	report, err := c.BudgetVsExpense(context.Background(), core.Month{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, "Food", report[0].CategoryName)
	assert.Equal(t, core.Money{Cents: 2000}, report[0].Remaining)
}

func TestMutationsUseExpectedRoutes(t *testing.T) {
	ok := jsonReply(http.StatusOK, map[string]string{})
	srv, reqs := fakeAPI(t, map[string]func(http.ResponseWriter){
		"POST /api/categories":      ok,
		"PUT /api/categories/c1":    ok,
		"DELETE /api/categories/c1": ok,
		"POST /api/budgets":         ok,
		"PUT /api/budgets/b1":       ok,
		"DELETE /api/budgets/b1":    ok,
		"POST /api/auth/signup":     ok,
	})
	c, s := newTestClient(t, srv.URL)
	require.NoError(t, s.Login(context.Background(), "t", "u"))
	ctx := context.Background()

	require.NoError(t, c.CreateCategory(ctx, "Food", "#1976d2"))
	require.NoError(t, c.UpdateCategory(ctx, "c1", "Groceries", "#000000"))
	require.NoError(t, c.DeleteCategory(ctx, "c1"))
	require.NoError(t, c.CreateBudget(ctx, "c1", core.Money{Cents: 10000}, core.Month{Year: 2024, Month: 3}))
	require.NoError(t, c.UpdateBudgetLimit(ctx, "b1", core.Money{Cents: 20000}))
	require.NoError(t, c.DeleteBudget(ctx, "b1"))
	require.NoError(t, c.Signup(ctx, "a@b.c", "pw"))

	require.Len(t, *reqs, 7)
	assert.Equal(t, "2024-03", (*reqs)[3].body["month"])
	assert.Equal(t, 200.0, (*reqs)[4].body["limit"])
	assert.Empty(t, (*reqs)[6].auth)
}

func TestDeleteCategoryServerMessage(t *testing.T) {
	srv, _ := fakeAPI(t, map[string]func(http.ResponseWriter){
		"DELETE /api/categories/c1": jsonReply(http.StatusBadRequest, map[string]string{"message": "Category has budgets"}),
	})
	c, s := newTestClient(t, srv.URL)
	require.NoError(t, s.Login(context.Background(), "t", "u"))

	err := c.DeleteCategory(context.Background(), "c1")
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	assert.Equal(t, "Category has budgets", MessageOr(err, "Failed to delete category"))
	assert.False(t, IsUnauthorized(err))
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", newStore(t))
	assert.Error(t, err)

	c, err := NewClient("", newStore(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}
