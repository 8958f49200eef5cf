package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
	"budgettracker/internal/session"
)

// now is replaced in tests.
var now = time.Now

type monthOption struct {
	Number   int
	Label    string
	Selected bool
}

// monthOptions lists January to December for the dashboard selector.
func monthOptions(selected int) []monthOption {
	out := make([]monthOption, 12)
	for i := range out {
		n := i + 1
		out[i] = monthOption{Number: n, Label: time.Month(n).String(), Selected: n == selected}
	}
	return out
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// userMessage turns a validation error into a sentence for a notification.
func userMessage(err error) string {
	if errors.Is(err, core.ErrInvalidAmount) {
		return "Please enter a valid amount"
	}
	if errors.Is(err, core.ErrInvalidMonth) {
		return "Please select a valid month"
	}
	msg := err.Error()
	if msg == "" {
		return msg
	}
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// discardIfStale drops a response computed for an earlier session. The
// client is sent to target so the guard decides again with the current
// session.
func (s *Server) discardIfStale(w http.ResponseWriter, r *http.Request, snap session.Session, target string) bool {
	if s.sessions.CurrentSession().SameAs(snap) {
		return false
	}
	s.logger.DebugContext(r.Context(), "Discarding response from a previous session",
		applog.FieldComponent, applog.ComponentSession,
		applog.FieldPath, r.URL.Path,
		applog.FieldGeneration, snap.Generation,
		applog.FieldRedirect, target)
	nav.Redirect(w, r, target)
	return true
}

// syncSession re-reads the persisted session before the request is
// handled. A failed read leaves the in-memory session in place.
func (s *Server) syncSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		before := s.sessions.CurrentSession()
		after, err := s.sessions.Refresh(ctx)
		switch {
		case err != nil:
			s.sl.LogError(ctx, "Session refresh failed", err, applog.ComponentSession, applog.OpRead, applog.NewFields())
		case !after.SameAs(before):
			op := applog.OpLogin
			userID := after.UserID
			if after.Empty() {
				op, userID = applog.OpLogout, before.UserID
			}
			s.sl.LogSessionChange(ctx, op, userID, after.Generation)
		}
		next.ServeHTTP(w, r)
	})
}

// loadCategories returns the signed-in user's categories, cached per user
// when a cache is configured.
func (s *Server) loadCategories(ctx context.Context, snap session.Session) ([]core.Category, error) {
	if s.categories == nil {
		return s.api.ListCategories(ctx)
	}
	return s.categories.Get(ctx, snap.UserID, s.api.ListCategories)
}

func (s *Server) invalidateCategories(snap session.Session) {
	if s.categories != nil {
		s.categories.Invalidate(snap.UserID)
	}
}
