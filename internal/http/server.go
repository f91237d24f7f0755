package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"ledgerdash/internal/apiclient"
	"ledgerdash/internal/cache"
	"ledgerdash/internal/dashboard"
	"ledgerdash/internal/guard"
	"ledgerdash/internal/log"
	"ledgerdash/internal/middleware/ratelimit"
	"ledgerdash/internal/middleware/security"
	"ledgerdash/internal/middleware/trace"
	"ledgerdash/internal/pdf"
	"ledgerdash/internal/services"
	"ledgerdash/internal/session"
	"ledgerdash/internal/storage"
	appweb "ledgerdash/web"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Sessions  *session.Manager
	Store     storage.Store
	API       *apiclient.Client // unauthenticated, used for the health probe
	Dashboard *dashboard.Service
	Invoices  *pdf.InvoiceRenderer
	Activity  *services.ActivityService
	Caches    *cache.Manager
	Logger    *log.Logger
}

// Options tune the server.
type Options struct {
	CookieSecure       bool
	RateLimitPerMinute int
	DashboardTimeout   time.Duration
	HealthTimeout      time.Duration
	// Now is the clock used for report default ranges; nil means time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server
	deps      Deps
	opts      Options
	logger    *log.Logger
	templates *template.Template

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	appMetrics appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	logins    int64
	mutations int64
	pdfs      int64
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, opts Options) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Dashboard == nil {
		deps.Dashboard = dashboard.NewService(deps.Logger)
	}
	if deps.Invoices == nil {
		deps.Invoices = pdf.NewInvoiceRenderer(deps.Logger)
	}
	if deps.Activity == nil {
		deps.Activity = services.NewActivityService(nil, log.Discard())
	}
	if opts.DashboardTimeout <= 0 {
		opts.DashboardTimeout = 10 * time.Second
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector()
	s := &Server{
		deps:      deps,
		opts:      opts,
		logger:    logger,
		templates: t,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(deps.Logger, detector.ExtractClientIP),
	}
	if deps.Caches != nil {
		deps.Caches.Register("rate_limit_clients", cache.CleanerFunc(s.limiter.CleanStale))
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// middleware wraps the mux, outermost first: logger, trace, security
// headers, suspicious request logging, rate limit.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	h := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(next)
	h = s.detector.Middleware(s.deps.Logger)(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)
	return log.Middleware(s.deps.Logger)(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /ui/connection", s.handleConnection)

	// Session-bound routes. Auth pages need a session but no guard.
	page := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(s.withSession(h))
	}
	mux.Handle("GET /login", page(s.handleLoginPage))
	mux.Handle("POST /login", page(s.handleLogin))
	mux.Handle("GET /register", page(s.handleRegisterPage))
	mux.Handle("POST /register", page(s.handleRegister))
	mux.Handle("POST /logout", page(s.handleLogout))
	mux.Handle("GET /{$}", page(s.handleRoot))

	// Guarded routes.
	guarded := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(s.withSession(s.guard(h).ServeHTTP))
	}
	mux.Handle("GET /companies", guarded(s.handleCompanies))
	mux.Handle("POST /companies", guarded(s.handleCreateCompany))
	mux.Handle("POST /companies/{companyID}/select", guarded(s.handleSelectCompany))
	mux.Handle("GET /companies/{companyID}/dashboard", guarded(s.handleDashboard))
	mux.Handle("GET /companies/{companyID}/reports", guarded(s.handleReports))
	mux.Handle("GET /companies/{companyID}/invoices/{id}/pdf", guarded(s.handleInvoicePDF))
	mux.Handle("GET /companies/{companyID}/{resource}", guarded(s.handleResource))
	mux.Handle("POST /companies/{companyID}/{resource}", guarded(s.handleResourceSubmit))
	mux.Handle("GET /companies/{companyID}/{resource}/new", guarded(s.handleResourceNew))
	mux.Handle("POST /companies/{companyID}/{resource}/close", guarded(s.handleResourceClose))
	mux.Handle("GET /companies/{companyID}/{resource}/{id}/edit", guarded(s.handleResourceEdit))
	mux.Handle("POST /companies/{companyID}/{resource}/{id}", guarded(s.handleResourceUpdate))
	mux.Handle("POST /companies/{companyID}/{resource}/{id}/delete", guarded(s.handleResourceDelete))
	mux.Handle("DELETE /companies/{companyID}/{resource}/{id}/delete", guarded(s.handleResourceDelete))
}

func (s *Server) guard(next http.HandlerFunc) http.Handler {
	resolve := func(r *http.Request) *session.Session { return sessionFrom(r.Context()) }
	return guard.Middleware(resolve, s.renderChecking, s.deps.Logger)(next)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldComponent, log.ComponentStorage, log.FieldError, err.Error())
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops background loops and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs the server until Shutdown; a clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) countMutation() { atomic.AddInt64(&s.appMetrics.mutations, 1) }
