// Package session owns the front end's authentication state: the token and
// user identifier issued by the budget API at login, persisted so they
// survive restarts.
//
// Every other component reads the session through Store.CurrentSession and
// never keeps its own copy.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Session is a snapshot of the authentication state. Token and UserID are
// either both set or both empty.
type Session struct {
	Token  string
	UserID string
	// Generation changes on every login or logout. A caller that captured
	// a snapshot before a slow operation can compare generations to tell
	// whether the session changed underneath it.
	Generation uint64
}

// Empty reports whether no user is logged in.
func (s Session) Empty() bool {
	return s.Token == ""
}

// SameAs reports whether s and o are the same point in the session's
// history.
func (s Session) SameAs(o Session) bool {
	return s.Generation == o.Generation
}

// Persister stores the token and user identifier durably.
type Persister interface {
	// Load returns the persisted values. Missing values are returned as
	// empty strings, not as an error.
	Load(ctx context.Context) (token, userID string, err error)

	// Save writes both values atomically.
	Save(ctx context.Context, token, userID string) error

	// Clear removes both values. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Listener is notified after the session changed.
type Listener func(Session)

var (
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("session storage failure")

	ErrInvalidCredentials = errors.New("token and user id must both be non-empty")
	ErrAlreadyInitialized = errors.New("session store already initialized")
	ErrNotInitialized     = errors.New("session store not initialized")
)

// StorageError reports a failed read or write of the durable session.
// The in-memory session is unchanged when one is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Store is the single source of truth for the session.
type Store struct {
	persister Persister

	// writeMu serializes Login/Logout and the notifications they emit.
	writeMu sync.Mutex

	mu          sync.RWMutex
	current     Session
	initialized bool

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewStore returns a store backed by p. Call Initialize before use.
func NewStore(p Persister) *Store {
	return &Store{
		persister: p,
		listeners: make(map[int]Listener),
	}
}

// Initialize loads the persisted session. It may only be called once.
// A half-persisted session (one value without the other) is treated as
// no session.
func (s *Store) Initialize(ctx context.Context) (Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	done := s.initialized
	s.mu.RUnlock()
	if done {
		return Session{}, ErrAlreadyInitialized
	}

	token, userID, err := s.persister.Load(ctx)
	if err != nil {
		return Session{}, &StorageError{Op: "load", Err: err}
	}
	if token == "" || userID == "" {
		token, userID = "", ""
	}

	s.mu.Lock()
	s.current = Session{Token: token, UserID: userID}
	s.initialized = true
	snap := s.current
	s.mu.Unlock()

	return snap, nil
}

// Refresh re-reads the persisted session and adopts it when it differs
// from the in-memory one, so a login or logout made by another process
// sharing the same storage is seen here. Listeners are notified as for
// Login and Logout. On a read failure the in-memory session is kept.
func (s *Store) Refresh(ctx context.Context) (Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.isInitialized() {
		return Session{}, ErrNotInitialized
	}
	token, userID, err := s.persister.Load(ctx)
	if err != nil {
		return s.CurrentSession(), &StorageError{Op: "load", Err: err}
	}
	if token == "" || userID == "" {
		token, userID = "", ""
	}

	s.mu.Lock()
	if s.current.Token == token && s.current.UserID == userID {
		snap := s.current
		s.mu.Unlock()
		return snap, nil
	}
	s.current = Session{Token: token, UserID: userID, Generation: s.current.Generation + 1}
	snap := s.current
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// Login persists the credentials returned by a successful authentication
// exchange and makes them the current session. The token is not
// validated.
func (s *Store) Login(ctx context.Context, token, userID string) error {
	if token == "" || userID == "" {
		return ErrInvalidCredentials
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.isInitialized() {
		return ErrNotInitialized
	}
	if err := s.persister.Save(ctx, token, userID); err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	s.mu.Lock()
	s.current = Session{Token: token, UserID: userID, Generation: s.current.Generation + 1}
	snap := s.current
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Logout erases the persisted credentials and empties the session. It is
// idempotent; listeners are only notified when a session was present.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.isInitialized() {
		return ErrNotInitialized
	}
	if err := s.persister.Clear(ctx); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}

	s.mu.Lock()
	if s.current.Empty() {
		s.mu.Unlock()
		return nil
	}
	s.current = Session{Generation: s.current.Generation + 1}
	snap := s.current
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// CurrentSession returns a snapshot of the session. Re-read it on the next
// relevant event instead of holding on to it.
func (s *Store) CurrentSession() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers fn to be called after every session change, in
// change order. Listeners run synchronously and must not call Login or
// Logout.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) isInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Store) notify(snap Session) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	// registration order
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
