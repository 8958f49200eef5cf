// Package http serves the budget tracker's pages.
//
// Pages are rendered server side and updated with htmx partials. Every
// page except login and signup sits in one chi route group behind the
// route guard.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"budgettracker/internal/api"
	"budgettracker/internal/cache"
	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/middleware/ratelimit"
	"budgettracker/internal/middleware/security"
	"budgettracker/internal/middleware/trace"
	"budgettracker/internal/nav"
	"budgettracker/internal/session"
	"budgettracker/internal/sheets"
	appweb "budgettracker/web"
)

// SessionStore is the part of the session store the handlers use.
// Logout goes through the navigation shell.
type SessionStore interface {
	CurrentSession() session.Session
	Refresh(ctx context.Context) (session.Session, error)
	Login(ctx context.Context, token, userID string) error
}

// BudgetAPI is the budget REST API as the pages use it.
type BudgetAPI interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Signup(ctx context.Context, email, password string) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, name, color string) error
	UpdateCategory(ctx context.Context, id, name, color string) error
	DeleteCategory(ctx context.Context, id string) error

	ListBudgets(ctx context.Context, month core.Month) ([]core.Budget, error)
	CreateBudget(ctx context.Context, categoryID string, limit core.Money, month core.Month) error
	UpdateBudgetLimit(ctx context.Context, id string, limit core.Money) error
	DeleteBudget(ctx context.Context, id string) error

	CreateExpense(ctx context.Context, e core.Expense) error
	Dashboard(ctx context.Context, month int) ([]core.DashboardCategory, error)
	BudgetVsExpense(ctx context.Context, month core.Month) ([]core.ReportRow, error)
}

// Deps are the collaborators the server is built from.
type Deps struct {
	Sessions SessionStore
	API      BudgetAPI
	Guard    *nav.Guard
	Shell    *nav.Shell

	// Categories caches category lists per user; nil disables caching.
	Categories *cache.Categories
	// Exporter is nil when report export is disabled.
	Exporter sheets.ReportExporter
	// Ready checks the session storage for /readyz.
	Ready func(ctx context.Context) error

	// GuardEnabled puts the authenticated pages behind the route guard.
	// When false they are reachable without a session and only the
	// navigation bar hides them.
	GuardEnabled bool

	RateLimitPerMinute int
	Logger             *applog.Logger

	// Templates overrides the embedded web assets, mainly for tests.
	Templates fs.FS
}

type Server struct {
	http.Server

	sessions   SessionStore
	api        BudgetAPI
	guard      *nav.Guard
	shell      *nav.Shell
	categories *cache.Categories
	exporter   sheets.ReportExporter
	ready      func(ctx context.Context) error

	templates   map[string]*template.Template
	templateErr error

	logger   *applog.Logger
	sl       *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	started         time.Time
	expensesCreated int64

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		sessions:   deps.Sessions,
		api:        deps.API,
		guard:      deps.Guard,
		shell:      deps.Shell,
		categories: deps.Categories,
		exporter:   deps.Exporter,
		ready:      deps.Ready,
		logger:     logger,
		sl:         applog.NewStructuredLogger(logger),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:   security.NewDetector(),
		started:    time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	assets := deps.Templates
	if assets == nil {
		assets = appweb.TemplatesFS
	}
	s.templates, s.templateErr = loadTemplates(assets)
	if s.templateErr != nil {
		logger.Warn("Failed parsing templates",
			applog.FieldError, s.templateErr.Error(),
			"error_type", applog.ErrorTypeConfiguration)
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	// Every page sees the persisted session, which budgetctl may have
	// changed since the last request.
	r.Group(func(r chi.Router) {
		r.Use(s.syncSession)

		// Public pages. Credential submissions are rate limited per client.
		r.Get(nav.RouteLogin, s.handleLoginPage)
		r.Get(nav.RouteSignup, s.handleSignupPage)
		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))
			r.Post(nav.RouteLogin, s.handleLogin)
			r.Post(nav.RouteSignup, s.handleSignup)
		})
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			if deps.GuardEnabled && deps.Guard != nil {
				r.Use(deps.Guard.Require)
			} else {
				logger.Warn("Route guard disabled: authenticated pages are reachable without a session",
					applog.FieldOperation, applog.OpStartup)
			}

			r.Get(nav.RouteDashboard, s.handleDashboard)
			r.Post("/expenses", s.handleCreateExpense)

			r.Get(nav.RouteCategories, s.handleCategories)
			r.Post(nav.RouteCategories, s.handleCreateCategory)
			r.Post(nav.RouteCategories+"/{id}", s.handleUpdateCategory)
			r.Post(nav.RouteCategories+"/{id}/delete", s.handleDeleteCategory)

			r.Get(nav.RouteBudgets, s.handleBudgets)
			r.Post(nav.RouteBudgets, s.handleCreateBudget)
			r.Post(nav.RouteBudgets+"/{id}", s.handleUpdateBudget)
			r.Post(nav.RouteBudgets+"/{id}/delete", s.handleDeleteBudget)

			r.Get(nav.RouteReports, s.handleReports)
			r.Post(nav.RouteReports+"/export", s.handleExportReport)
		})
	})

	r.NotFound(s.handleNotFound)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.categories != nil {
		s.cacheManager = cache.NewManager()
		s.cacheManager.Register(s.categories)
		s.cacheManager.StartCleanup(10 * time.Minute)
	}
	return s
}

// Shutdown stops background work and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	msg := "Too many attempts. Please try again later."
	ErrorResponse(http.StatusTooManyRequests, msg).
		TriggerErrorNotification(msg).
		Write(w)
}

func (s *Server) recordExpense() {
	atomic.AddInt64(&s.expensesCreated, 1)
}
