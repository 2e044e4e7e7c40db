package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gastos/internal/cache"
	"gastos/internal/clock"
	"gastos/internal/config"
	"gastos/internal/ledger"
	"gastos/internal/log"
	"gastos/internal/middleware/ratelimit"
	"gastos/internal/middleware/security"
	"gastos/internal/middleware/trace"
	appweb "gastos/web"
)

type Server struct {
	http.Server
	templates *template.Template
	ledger    *ledger.Service
	clock     *clock.Clock
	view      *config.View
	logger    *log.Logger

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	ipResolver      *security.ClientIPResolver
	clockPollSecs   int

	// workbooks holds rendered exports keyed by ledger version
	workbooks *cache.LRU[[]byte]

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	submitted  atomic.Int64
	rejected   atomic.Int64
	resets     atomic.Int64
	draftEdits atomic.Int64
	uptime     time.Time
}

// Options tunes the server. Zero values pick defaults.
type Options struct {
	View               *config.View
	Logger             *log.Logger
	RateLimitPerMinute int
	// ClockPoll is how often the page refreshes the clock partial.
	ClockPoll time.Duration
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *ledger.Service, clk *clock.Clock, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	view := opts.View
	if view == nil {
		view = config.DefaultView()
	}
	pollSecs := int(opts.ClockPoll / time.Second)
	if pollSecs < 1 {
		pollSecs = 1
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:        svc,
		clock:         clk,
		view:          view,
		logger:        logger.WithComponent(log.ComponentHTTP),
		ipResolver:    security.NewClientIPResolver(),
		clockPollSecs: pollSecs,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		workbooks:  cache.NewLRU[[]byte](4, 10*time.Minute),
		appMetrics: &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.ipResolver.ClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Mutations
	mux.Handle("/draft", s.limited(s.handleDraftEdit))
	mux.Handle("/expenses", s.limited(s.handleSubmit))
	mux.Handle("/reset", s.limited(s.handleReset))

	// UI partials
	mux.HandleFunc("/ui/ledger", s.handleLedgerPartial)
	mux.HandleFunc("/ui/clock", s.handleClockPartial)

	// Read-only exports
	mux.Handle("/api/ledger", security.NoStoreMiddleware(http.HandlerFunc(s.handleLedgerJSON)))
	mux.Handle("/export.xlsx", security.NoStoreMiddleware(http.HandlerFunc(s.handleExport)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.traceMiddleware.Middleware(headers.Middleware(mux))
	return s
}

// limited applies the per-IP rate limit to the handler.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	return s.rateLimiter.Middleware(s.ipResolver.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.ipResolver.ClientIP(r),
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(h)
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
