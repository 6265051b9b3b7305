package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const (
	defaultHandlerTimeout = 7 * time.Second
	readyTimeout          = 5 * time.Second
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer is satisfied by caches whose entry count is exported on /metrics.
type Sizer interface {
	Size() int
}

// Config holds the server settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	HandlerTimeout     time.Duration
}

// Deps are the collaborators the handlers call into. StatsCache may be nil.
type Deps struct {
	Expenses   *services.ExpenseService
	Goals      *services.GoalService
	Tasks      *services.TaskService
	Store      Pinger
	Verifier   *auth.Verifier
	StatsCache Sizer
	Logger     *applog.Logger
}

type Server struct {
	http.Server

	expenses   *services.ExpenseService
	goals      *services.GoalService
	tasks      *services.TaskService
	store      Pinger
	verifier   *auth.Verifier
	statsCache Sizer
	logger     *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	handlerTimeout   time.Duration
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	timeout := cfg.HandlerTimeout
	if timeout <= 0 {
		timeout = defaultHandlerTimeout
	}

	detector := security.NewDetector()
	s := &Server{
		expenses:         deps.Expenses,
		goals:            deps.Goals,
		tasks:            deps.Tasks,
		store:            deps.Store,
		verifier:         deps.Verifier,
		statsCache:       deps.StatsCache,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		handlerTimeout:   timeout,
		startedAt:        time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	for _, prefix := range []string{"", "/api"} {
		s.registerAPI(mux, prefix)
	}

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) registerAPI(mux *http.ServeMux, prefix string) {
	route := func(method, path string, h handlerFunc) {
		mux.Handle(method+" "+prefix+path, s.authenticated(s.bind(h)))
	}

	route(http.MethodGet, "/expenses", s.handleListExpenses)
	route(http.MethodPost, "/expenses", s.handleCreateExpense)
	route(http.MethodGet, "/expenses/stats", s.handleExpenseStats)
	route(http.MethodGet, "/expenses/{id}", s.handleGetExpense)
	route(http.MethodPut, "/expenses/{id}", s.handleUpdateExpense)
	route(http.MethodDelete, "/expenses/{id}", s.handleDeleteExpense)

	for _, base := range []string{"/savinggoals", "/saving-goals"} {
		route(http.MethodGet, base, s.handleListGoals)
		route(http.MethodPost, base, s.handleCreateGoal)
		route(http.MethodGet, base+"/summary", s.handleGoalsSummary)
		route(http.MethodGet, base+"/{id}", s.handleGetGoal)
		route(http.MethodPut, base+"/{id}", s.handleUpdateGoal)
		route(http.MethodDelete, base+"/{id}", s.handleDeleteGoal)
	}

	route(http.MethodGet, "/tasks", s.handleListTasks)
	route(http.MethodPost, "/tasks", s.handleCreateTask)
	route(http.MethodGet, "/tasks/summary", s.handleTasksSummary)
	route(http.MethodGet, "/tasks/{id}", s.handleGetTask)
	route(http.MethodPut, "/tasks/{id}", s.handleUpdateTask)
	route(http.MethodDelete, "/tasks/{id}", s.handleDeleteTask)
}

// middleware wraps the mux with trace, logger injection, security headers,
// suspicious request detection and write rate limiting, outermost first.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.WritesOnly, s.onRateLimited)

	h := limit(next)
	h = s.securityDetector.Middleware(h)
	h = headers.Middleware(h)
	h = applog.Middleware(s.logger, trace.GetRequestID)(h)
	return s.traceMiddleware.Middleware(h)
}

func (s *Server) authenticated(next http.Handler) http.Handler {
	return auth.Middleware(s.verifier, func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.WarnContext(r.Context(), "Rejected unauthenticated request",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		ErrorResponse(apperrUnauthorized(err)).Write(w)
	})(next)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequests().Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
