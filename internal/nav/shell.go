package nav

import (
	"context"
	"sync"

	"budgettracker/internal/session"
)

// SessionStore is what the shell needs from the session store.
type SessionStore interface {
	SessionSource
	Logout(ctx context.Context) error
	Subscribe(fn session.Listener) (unsubscribe func())
}

// Shell holds the navigation bar's visible destinations and the logout
// action.
type Shell struct {
	store SessionStore

	mu      sync.RWMutex
	visible []Link

	unsubscribe func()
}

// NewShell computes the visible set from the current session and keeps it
// up to date through a store subscription. Call Close to stop listening.
func NewShell(store SessionStore) *Shell {
	s := &Shell{store: store}
	s.recompute(store.CurrentSession())
	s.unsubscribe = store.Subscribe(s.recompute)
	return s
}

func (s *Shell) recompute(sess session.Session) {
	var visible []Link
	if !sess.Empty() {
		visible = append(visible, authenticatedLinks...)
	}
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
}

// Links returns the visible destinations with Active set on the one whose
// path equals currentPath exactly. It is empty without a session.
func (s *Shell) Links(currentPath string) []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Link, len(s.visible))
	for i, l := range s.visible {
		l.Active = l.Path == currentPath
		out[i] = l
	}
	return out
}

// LoggedIn reports whether the shell currently shows the authenticated set.
func (s *Shell) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visible) > 0
}

// TriggerLogout logs out and returns where to navigate. When the store
// fails, no redirect is returned and the session is unchanged.
func (s *Shell) TriggerLogout(ctx context.Context) (string, error) {
	if err := s.store.Logout(ctx); err != nil {
		return "", err
	}
	return RouteLogin, nil
}

func (s *Shell) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}
