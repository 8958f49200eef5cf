package nav

import (
	"log/slog"
	"net/http"

	applog "budgettracker/internal/log"
	"budgettracker/internal/session"
)

// SessionSource is the read side of the session store.
type SessionSource interface {
	CurrentSession() session.Session
}

// Decision is the outcome of one guard evaluation.
type Decision struct {
	Allowed        bool
	RedirectTarget string
}

// Guard admits a navigation only while a session token is present.
type Guard struct {
	sessions SessionSource
}

func NewGuard(sessions SessionSource) *Guard {
	return &Guard{sessions: sessions}
}

// Evaluate reads the session at call time. It never modifies it.
func (g *Guard) Evaluate() Decision {
	if g.sessions.CurrentSession().Empty() {
		return Decision{Allowed: false, RedirectTarget: RouteLogin}
	}
	return Decision{Allowed: true}
}

// Require wraps the handlers of a route group. Denied requests are
// redirected with 303, or with HX-Redirect when the request came from htmx.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Evaluate()
		if d.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		slog.DebugContext(r.Context(), "Navigation denied",
			applog.FieldComponent, applog.ComponentGuard,
			applog.FieldPath, r.URL.Path,
			applog.FieldRedirect, d.RedirectTarget)

		Redirect(w, r, d.RedirectTarget)
	})
}

// Redirect sends the client to target. htmx requests get HX-Redirect so
// the whole page navigates instead of swapping a fragment.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
