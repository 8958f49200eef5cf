package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, token, userID string) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister(token, userID)
	s := NewStore(p)
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)
	return s, p
}

func TestInitialize(t *testing.T) {
	t.Run("empty storage gives empty session", func(t *testing.T) {
		s, _ := newTestStore(t, "", "")
		assert.True(t, s.CurrentSession().Empty())
	})

	t.Run("persisted values are restored", func(t *testing.T) {
		s, _ := newTestStore(t, "tok", "u1")
		got := s.CurrentSession()
		assert.Equal(t, "tok", got.Token)
		assert.Equal(t, "u1", got.UserID)
	})

	t.Run("half persisted session is no session", func(t *testing.T) {
		s, _ := newTestStore(t, "tok", "")
		got := s.CurrentSession()
		assert.True(t, got.Empty())
		assert.Empty(t, got.UserID)
	})

	t.Run("runs once", func(t *testing.T) {
		s, _ := newTestStore(t, "", "")
		_, err := s.Initialize(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
	})

	t.Run("load failure is a storage error", func(t *testing.T) {
		p := NewMemoryPersister("", "")
		p.Fail(errors.New("disk gone"))
		_, err := NewStore(p).Initialize(context.Background())
		var se *StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "load", se.Op)
		assert.ErrorIs(t, err, ErrStorage)
	})
}

func TestLoginThenCurrentSession(t *testing.T) {
	cases := []struct{ token, userID string }{
		{"abc123", "u1"},
		{"t", "x"},
		{"eyJhbGciOi.payload.sig", "650f1c2e9b"},
	}
	for _, tc := range cases {
		s, p := newTestStore(t, "", "")
		require.NoError(t, s.Login(context.Background(), tc.token, tc.userID))

		got := s.CurrentSession()
		assert.Equal(t, tc.token, got.Token)
		assert.Equal(t, tc.userID, got.UserID)

		tok, uid := p.Values()
		assert.Equal(t, tc.token, tok)
		assert.Equal(t, tc.userID, uid)
	}
}

func TestLoginRejectsPartialCredentials(t *testing.T) {
	s, p := newTestStore(t, "", "")
	assert.ErrorIs(t, s.Login(context.Background(), "tok", ""), ErrInvalidCredentials)
	assert.ErrorIs(t, s.Login(context.Background(), "", "u1"), ErrInvalidCredentials)
	assert.True(t, s.CurrentSession().Empty())
	tok, uid := p.Values()
	assert.Empty(t, tok)
	assert.Empty(t, uid)
}

func TestLogoutAlwaysEmpties(t *testing.T) {
	sequences := map[string]func(s *Store){
		"fresh":        func(s *Store) {},
		"after login":  func(s *Store) { _ = s.Login(context.Background(), "t", "u") },
		"after relog":  func(s *Store) { _ = s.Login(context.Background(), "t", "u"); _ = s.Login(context.Background(), "t2", "u2") },
		"after logout": func(s *Store) { _ = s.Login(context.Background(), "t", "u"); _ = s.Logout(context.Background()) },
	}
	for name, prepare := range sequences {
		t.Run(name, func(t *testing.T) {
			s, p := newTestStore(t, "", "")
			prepare(s)
			require.NoError(t, s.Logout(context.Background()))
			assert.True(t, s.CurrentSession().Empty())
			assert.Empty(t, s.CurrentSession().UserID)
			tok, uid := p.Values()
			assert.Empty(t, tok)
			assert.Empty(t, uid)
		})
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, "tok", "u1")
	require.NoError(t, s.Logout(context.Background()))
	once := s.CurrentSession()
	require.NoError(t, s.Logout(context.Background()))
	twice := s.CurrentSession()

	assert.Equal(t, once, twice)
	assert.True(t, twice.Empty())
}

func TestStorageFailureLeavesSessionUntouched(t *testing.T) {
	s, p := newTestStore(t, "tok", "u1")
	before := s.CurrentSession()
	p.Fail(errors.New("read-only filesystem"))

	err := s.Logout(context.Background())
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, before, s.CurrentSession())

	err = s.Login(context.Background(), "new", "u2")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)
	assert.Equal(t, before, s.CurrentSession())
}

func TestMutationsBeforeInitialize(t *testing.T) {
	s := NewStore(NewMemoryPersister("", ""))
	assert.ErrorIs(t, s.Login(context.Background(), "t", "u"), ErrNotInitialized)
	assert.ErrorIs(t, s.Logout(context.Background()), ErrNotInitialized)
}

func TestGenerationTracksChanges(t *testing.T) {
	s, _ := newTestStore(t, "", "")
	g0 := s.CurrentSession()

	require.NoError(t, s.Login(context.Background(), "t", "u"))
	g1 := s.CurrentSession()
	assert.False(t, g0.SameAs(g1))

	require.NoError(t, s.Logout(context.Background()))
	g2 := s.CurrentSession()
	assert.False(t, g1.SameAs(g2))

	require.NoError(t, s.Logout(context.Background()))
	assert.True(t, g2.SameAs(s.CurrentSession()))
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t, "", "")

	var seen []Session
	var order []string
	unsubscribe := s.Subscribe(func(sess Session) {
		seen = append(seen, sess)
		order = append(order, "first")
	})
	s.Subscribe(func(Session) { order = append(order, "second") })

	require.NoError(t, s.Login(context.Background(), "t", "u"))
	require.NoError(t, s.Logout(context.Background()))
	require.NoError(t, s.Logout(context.Background())) // no change, no event

	require.Len(t, seen, 2)
	assert.Equal(t, "t", seen[0].Token)
	assert.True(t, seen[1].Empty())
	assert.Equal(t, []string{"first", "second", "first", "second"}, order)

	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Login(context.Background(), "t", "u"))
	assert.Len(t, seen, 2)
}

func TestListenerCanReadSession(t *testing.T) {
	s, _ := newTestStore(t, "", "")
	var inside Session
	s.Subscribe(func(Session) { inside = s.CurrentSession() })

	require.NoError(t, s.Login(context.Background(), "t", "u"))
	assert.Equal(t, "t", inside.Token)
}

func TestRefreshAdoptsSharedStorage(t *testing.T) {
	p := NewMemoryPersister("tok", "u1")
	web := NewStore(p)
	cli := NewStore(p)
	_, err := web.Initialize(context.Background())
	require.NoError(t, err)
	_, err = cli.Initialize(context.Background())
	require.NoError(t, err)

	var events []Session
	web.Subscribe(func(sess Session) { events = append(events, sess) })

	require.NoError(t, cli.Logout(context.Background()))
	assert.Equal(t, "tok", web.CurrentSession().Token)

	got, err := web.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.True(t, web.CurrentSession().Empty())
	require.Len(t, events, 1)

	// Unchanged storage is not a change.
	_, err = web.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)

	require.NoError(t, cli.Login(context.Background(), "tok-2", "u2"))
	got, err = web.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)
	assert.Equal(t, "u2", got.UserID)
	assert.Len(t, events, 2)
}

func TestRefreshFailureKeepsSession(t *testing.T) {
	s, p := newTestStore(t, "tok", "u1")
	before := s.CurrentSession()
	p.Fail(errors.New("disk gone"))

	got, err := s.Refresh(context.Background())
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)
	assert.Equal(t, before, got)
	assert.Equal(t, before, s.CurrentSession())
}

func TestRefreshBeforeInitialize(t *testing.T) {
	_, err := NewStore(NewMemoryPersister("", "")).Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}
