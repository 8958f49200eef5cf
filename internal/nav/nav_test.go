package nav

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettracker/internal/session"
)

func newStore(t *testing.T) (*session.Store, *session.MemoryPersister) {
	t.Helper()
	p := session.NewMemoryPersister("", "")
	s := session.NewStore(p)
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)
	return s, p
}

func paths(links []Link) []string {
	var out []string
	for _, l := range links {
		out = append(out, l.Path)
	}
	return out
}

func TestGuardFollowsToken(t *testing.T) {
	s, _ := newStore(t)
	g := NewGuard(s)

	assert.Equal(t, Decision{Allowed: false, RedirectTarget: RouteLogin}, g.Evaluate())

	require.NoError(t, s.Login(context.Background(), "t", "u"))
	assert.Equal(t, Decision{Allowed: true}, g.Evaluate())

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, Decision{Allowed: false, RedirectTarget: RouteLogin}, g.Evaluate())
}

func TestGuardAfterLogoutRedirectsBudgets(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Login(context.Background(), "abc123", "u1"))
	require.NoError(t, s.Logout(context.Background()))

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(NewGuard(s).Require)
		r.Get(RouteBudgets, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RouteBudgets, nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, RouteLogin, rec.Header().Get("Location"))
}

func TestGuardProtectsEveryRouteInGroup(t *testing.T) {
	s, _ := newStore(t)
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	r := chi.NewRouter()
	r.Get(RouteLogin, ok)
	r.Group(func(r chi.Router) {
		r.Use(NewGuard(s).Require)
		for _, p := range AuthenticatedPaths() {
			r.Get(p, ok)
		}
		r.Post(RouteBudgets+"/{id}", ok)
	})

	targets := append(AuthenticatedPaths(), RouteBudgets+"/b1")
	for _, p := range targets {
		method := http.MethodGet
		if p == RouteBudgets+"/b1" {
			method = http.MethodPost
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, p, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, p)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, RouteLogin, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.Login(context.Background(), "t", "u"))
	for _, p := range AuthenticatedPaths() {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
}

func TestGuardHTMXRedirect(t *testing.T) {
	s, _ := newStore(t)
	h := NewGuard(s).Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/expenses", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, RouteLogin, rec.Header().Get("HX-Redirect"))
}

func TestShellVisibleSet(t *testing.T) {
	s, _ := newStore(t)
	shell := NewShell(s)
	defer shell.Close()

	assert.Empty(t, shell.Links(RouteLogin))
	assert.False(t, shell.LoggedIn())

	require.NoError(t, s.Login(context.Background(), "abc123", "u1"))
	assert.Equal(t, []string{RouteDashboard, RouteCategories, RouteBudgets, RouteReports}, paths(shell.Links(RouteDashboard)))
	assert.True(t, shell.LoggedIn())

	require.NoError(t, s.Logout(context.Background()))
	assert.Empty(t, shell.Links(RouteDashboard))
}

func TestShellStartsFromPersistedSession(t *testing.T) {
	p := session.NewMemoryPersister("tok", "u1")
	s := session.NewStore(p)
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)

	shell := NewShell(s)
	defer shell.Close()
	assert.Len(t, shell.Links(""), 4)
}

func TestShellActiveLink(t *testing.T) {
	s, _ := newStore(t)
	shell := NewShell(s)
	defer shell.Close()
	require.NoError(t, s.Login(context.Background(), "t", "u"))

	for _, l := range shell.Links(RouteBudgets) {
		assert.Equal(t, l.Path == RouteBudgets, l.Active, l.Path)
	}
	// exact match only
	for _, l := range shell.Links(RouteBudgets + "/b1") {
		assert.False(t, l.Active, l.Path)
	}
}

func TestTriggerLogout(t *testing.T) {
	t.Run("success redirects to login", func(t *testing.T) {
		s, _ := newStore(t)
		shell := NewShell(s)
		defer shell.Close()
		require.NoError(t, s.Login(context.Background(), "t", "u"))

		target, err := shell.TriggerLogout(context.Background())
		require.NoError(t, err)
		assert.Equal(t, RouteLogin, target)
		assert.True(t, s.CurrentSession().Empty())
		assert.Empty(t, shell.Links(RouteDashboard))
	})

	t.Run("storage failure keeps session and gives no redirect", func(t *testing.T) {
		s, p := newStore(t)
		shell := NewShell(s)
		defer shell.Close()
		require.NoError(t, s.Login(context.Background(), "t", "u"))
		p.Fail(errors.New("locked"))

		target, err := shell.TriggerLogout(context.Background())
		assert.ErrorIs(t, err, session.ErrStorage)
		assert.Empty(t, target)
		assert.False(t, s.CurrentSession().Empty())
		assert.Len(t, shell.Links(RouteDashboard), 4)
	})
}

func TestShellCloseStopsUpdates(t *testing.T) {
	s, _ := newStore(t)
	shell := NewShell(s)
	shell.Close()

	require.NoError(t, s.Login(context.Background(), "t", "u"))
	assert.Empty(t, shell.Links(RouteDashboard))
}
