package api

import (
	"net"
	"net/http"
	"time"

	"budgettracker/internal/session"
)

const (
	HeaderAuthorization = "Authorization"
	// HeaderUserID carries the raw user identifier. HTTP header names are
	// case-insensitive; Go sends it canonicalized as "Userid".
	HeaderUserID = "userId"
	BearerScheme = "Bearer"
)

// SessionSource is the read side of the session store.
type SessionSource interface {
	CurrentSession() session.Session
}

// Gateway is an http.RoundTripper that attaches the current session's
// credentials to every outbound request.
type Gateway struct {
	sessions SessionSource
	base     http.RoundTripper
}

var _ http.RoundTripper = (*Gateway)(nil)

// NewGateway wraps base. A nil base uses NewTransport().
func NewGateway(sessions SessionSource, base http.RoundTripper) *Gateway {
	if base == nil {
		base = NewTransport()
	}
	return &Gateway{sessions: sessions, base: base}
}

// Prepare sets the credential headers on req from the session as it is
// right now. Without a session both headers are removed, never sent empty.
func (g *Gateway) Prepare(req *http.Request) {
	sess := g.sessions.CurrentSession()
	if sess.Empty() {
		req.Header.Del(HeaderAuthorization)
		req.Header.Del(HeaderUserID)
		return
	}
	req.Header.Set(HeaderAuthorization, BearerScheme+" "+sess.Token)
	if sess.UserID != "" {
		req.Header.Set(HeaderUserID, sess.UserID)
	} else {
		req.Header.Del(HeaderUserID)
	}
}

// RoundTrip prepares a copy of req immediately before sending it, so a
// login or logout between building and sending the request is honoured.
func (g *Gateway) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	g.Prepare(out)
	return g.base.RoundTrip(out)
}

// NewTransport creates a transport with connection pooling and sane
// timeouts for talking to the budget API.
func NewTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
