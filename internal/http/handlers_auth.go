package http

import (
	"errors"
	"net/http"

	"budgettracker/internal/api"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
)

type authPage struct {
	pageData
	Email string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	p := authPage{pageData: s.basePage(r, "Login")}
	if r.URL.Query().Get("registered") == "1" {
		p.Notice = "Account created. Please log in."
	}
	s.renderPage(w, r, http.StatusOK, "login.html", p)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "signup.html", authPage{pageData: s.basePage(r, "Create Account")})
}

// readCredentials parses email and password from a form or JSON body.
func readCredentials(r *http.Request) (email, password string, resp *HTMXResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return "", "", BadRequestError("Invalid request format").TriggerErrorNotification("Invalid request format")
	}
	email, password = p.Get("email"), p.GetRaw("password")
	if email == "" || password == "" {
		msg := "Email and password are required"
		return "", "", UnprocessableEntityError(msg).TriggerErrorNotification(msg)
	}
	return email, password, nil
}

// handleLogin exchanges credentials with the API and, on success, stores
// the session and sends the client to the dashboard. On any failure the
// session is left as it was.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, password, resp := readCredentials(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		msg := "Login failed. Please try again."
		status := http.StatusBadGateway
		switch {
		case api.IsUnauthorized(err):
			msg = api.MessageOr(err, "Invalid email or password")
			status = http.StatusUnauthorized
		case errors.Is(err, api.ErrMalformedLogin):
			msg = "Login failed: unexpected response from server"
		default:
			msg = api.MessageOr(err, msg)
		}
		s.logger.WarnContext(ctx, "Login failed",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpLogin,
			applog.FieldStatusCode, api.StatusOf(err),
			applog.FieldError, err.Error())
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}

	if err := s.sessions.Login(ctx, res.Token, res.UserID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store session",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpLogin,
			applog.FieldUserID, res.UserID,
			applog.FieldError, err.Error(),
			"error_type", applog.ErrorTypeDatabase)
		msg := "Could not save your session. Please try again."
		InternalServerError(msg).TriggerErrorNotification(msg).Write(w)
		return
	}

	sess := s.sessions.CurrentSession()
	s.sl.LogSessionChange(ctx, applog.OpLogin, sess.UserID, sess.Generation)
	nav.Redirect(w, r, nav.RouteDashboard)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email, password, resp := readCredentials(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	if err := s.api.Signup(ctx, email, password); err != nil {
		s.logger.WarnContext(ctx, "Signup failed",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpCreate,
			applog.FieldStatusCode, api.StatusOf(err),
			applog.FieldError, err.Error())
		msg := api.MessageOr(err, "Signup failed. Please try again.")
		status := http.StatusBadGateway
		if code := api.StatusOf(err); code >= 400 && code < 500 {
			status = http.StatusUnprocessableEntity
		}
		ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
		return
	}

	nav.Redirect(w, r, nav.RouteLogin+"?registered=1")
}

// handleLogout ends the session through the navigation shell. Only after
// the store confirms does the client navigate to the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	before := s.sessions.CurrentSession()

	target, err := s.shell.TriggerLogout(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Logout failed",
			applog.FieldComponent, applog.ComponentSession,
			applog.FieldOperation, applog.OpLogout,
			applog.FieldUserID, before.UserID,
			applog.FieldError, err.Error(),
			"error_type", applog.ErrorTypeDatabase)
		msg := "Logout failed. Please try again."
		InternalServerError(msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
		return
	}

	after := s.sessions.CurrentSession()
	if !after.SameAs(before) {
		s.sl.LogSessionChange(ctx, applog.OpLogout, before.UserID, after.Generation)
	}
	nav.Redirect(w, r, target)
}
