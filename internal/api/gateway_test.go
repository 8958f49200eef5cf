package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettracker/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	s := session.NewStore(session.NewMemoryPersister("", ""))
	_, err := s.Initialize(context.Background())
	require.NoError(t, err)
	return s
}

func TestPrepareWithSession(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Login(context.Background(), "abc123", "u1"))

	req := httptest.NewRequest(http.MethodPost, "/expenses", nil)
	NewGateway(s, http.DefaultTransport).Prepare(req)

	assert.Equal(t, "Bearer abc123", req.Header.Get("Authorization"))
	assert.Equal(t, "u1", req.Header.Get("userId"))
	assert.Len(t, req.Header, 2)
}

func TestPrepareWithoutSession(t *testing.T) {
	s := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	// stale values from a caller must not leak through
	req.Header.Set("Authorization", "Bearer old")
	req.Header.Set("userId", "old")
	NewGateway(s, http.DefaultTransport).Prepare(req)

	assert.Empty(t, req.Header.Values("Authorization"))
	assert.Empty(t, req.Header.Values("userId"))
}

func TestHeaderPresenceFollowsSession(t *testing.T) {
	s := newStore(t)
	gw := NewGateway(s, http.DefaultTransport)

	steps := []struct {
		name    string
		mutate  func() error
		present bool
	}{
		{"initial", func() error { return nil }, false},
		{"login", func() error { return s.Login(context.Background(), "t1", "u1") }, true},
		{"relogin", func() error { return s.Login(context.Background(), "t2", "u2") }, true},
		{"logout", func() error { return s.Logout(context.Background()) }, false},
		{"logout again", func() error { return s.Logout(context.Background()) }, false},
	}
	for _, step := range steps {
		require.NoError(t, step.mutate(), step.name)
		req := httptest.NewRequest(http.MethodGet, "/budgets", nil)
		gw.Prepare(req)

		hasAuth := req.Header.Get("Authorization") != ""
		hasUser := req.Header.Get("userId") != ""
		assert.Equal(t, step.present, hasAuth, step.name)
		assert.Equal(t, step.present, hasUser, step.name)
		if step.present {
			sess := s.CurrentSession()
			assert.Equal(t, "Bearer "+sess.Token, req.Header.Get("Authorization"), step.name)
			assert.Equal(t, sess.UserID, req.Header.Get("userId"), step.name)
		}
	}
}

func TestRoundTripReadsSessionAtSendTime(t *testing.T) {
	var gotAuth, gotUser []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		gotUser = append(gotUser, r.Header.Get("userId"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := newStore(t)
	hc := &http.Client{Transport: NewGateway(s, http.DefaultTransport)}

	// built while logged out, sent after login
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/categories", nil)
	require.NoError(t, err)
	require.NoError(t, s.Login(context.Background(), "abc123", "u1"))
	resp, err := hc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, s.Logout(context.Background()))
	req, err = http.NewRequest(http.MethodGet, srv.URL+"/categories", nil)
	require.NoError(t, err)
	resp, err = hc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"Bearer abc123", ""}, gotAuth)
	assert.Equal(t, []string{"u1", ""}, gotUser)
}

func TestRoundTripDoesNotMutateCallerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	s := newStore(t)
	require.NoError(t, s.Login(context.Background(), "abc123", "u1"))

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: NewGateway(s, nil)}).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
