package session

import (
	"context"
	"sync"
)

var _ Persister = (*MemoryPersister)(nil)

// MemoryPersister keeps the session in process memory. It backs the
// "memory" session backend and tests.
type MemoryPersister struct {
	mu     sync.Mutex
	token  string
	userID string

	// FailWith, when set, is returned by every operation.
	FailWith error
}

// NewMemoryPersister returns a persister seeded with token and userID,
// which may be empty.
func NewMemoryPersister(token, userID string) *MemoryPersister {
	return &MemoryPersister{token: token, userID: userID}
}

func (m *MemoryPersister) Load(ctx context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", "", m.FailWith
	}
	return m.token, m.userID, nil
}

func (m *MemoryPersister) Save(ctx context.Context, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.token, m.userID = token, userID
	return nil
}

func (m *MemoryPersister) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.token, m.userID = "", ""
	return nil
}

// Fail makes subsequent operations return err; nil restores normal
// behaviour.
func (m *MemoryPersister) Fail(err error) {
	m.mu.Lock()
	m.FailWith = err
	m.mu.Unlock()
}

// Values returns what is currently persisted.
func (m *MemoryPersister) Values() (token, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.userID
}
