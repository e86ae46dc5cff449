package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"tsdash/internal/cache"
	"tsdash/internal/chart"
	"tsdash/internal/core"
	applog "tsdash/internal/log"
	"tsdash/internal/middleware/ratelimit"
	"tsdash/internal/middleware/security"
	"tsdash/internal/middleware/trace"
	"tsdash/internal/store"
	appweb "tsdash/web"
)

// ExportRequester creates and looks up export jobs. services.ExportService
// implements it.
type ExportRequester interface {
	RequestExport(ctx context.Context, seed int64, f core.Filter) (core.ExportJob, error)
	ExportStatus(ctx context.Context, id string) (core.ExportJob, error)
}

type Options struct {
	Data   store.DatasetReader
	Logger *applog.Logger

	// Exports enables the export endpoints; nil disables them.
	Exports ExportRequester

	CacheSize          int
	CacheTTL           time.Duration
	HistogramBins      int
	RateLimitPerMinute int
	Chart              chart.Options
}

type Server struct {
	http.Server
	templates *template.Template

	data      store.DatasetReader
	views     *cache.Loader[core.Dataset]
	caches    *cache.Manager
	exports   ExportRequester

	bins      int
	chartOpts chart.Options

	logger  *applog.Logger
	events  *applog.StructuredLogger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates. Template parse
// failures are logged; the pages then answer 500 and /readyz reports it.
func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = 20
	}
	if opts.Chart.Width <= 0 || opts.Chart.Height <= 0 {
		opts.Chart = chart.DefaultOptions()
	}

	logger := opts.Logger.WithComponent(applog.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		data:      opts.Data,
		views:     cache.NewLoader(cache.NewLRUCache[core.Dataset](opts.CacheSize, opts.CacheTTL)),
		caches:    cache.NewManager(),
		exports:   opts.Exports,
		bins:      opts.HistogramBins,
		chartOpts: opts.Chart,
		logger:    logger,
		events:    applog.NewStructuredLogger(opts.Logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		startedAt: time.Now(),
	}

	s.caches.Register(s.views.Cache())
	s.caches.StartCleanup(opts.CacheTTL)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
		t = nil
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.CacheControl(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /explorer", s.handleExplorer)

	mux.HandleFunc("GET /ui/stats", s.handleStats)
	mux.HandleFunc("GET /ui/table", s.handleTable)
	mux.HandleFunc("GET /ui/summary", s.handleSummary)

	mux.HandleFunc("GET /charts/timeseries.svg", s.handleTimeSeriesChart)
	mux.HandleFunc("GET /charts/distribution.svg", s.handleDistributionChart)
	mux.HandleFunc("GET /charts/scatter.svg", s.handleScatterChart)

	mux.HandleFunc("GET /data.csv", s.handleCSV)

	mux.HandleFunc("POST /exports", s.handleCreateExport)
	mux.HandleFunc("GET /exports/{id}", s.handleExportStatus)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	ips := security.NewClientIPResolver()
	s.tracer = trace.NewMiddleware(opts.Logger, ips.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(ips.ClientIP, s.onRateLimited, http.MethodPost)

	s.Handler = s.tracer.Middleware(headers.Middleware(limited(mux)))
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded", applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// ExportsEnabled reports whether the export endpoints are wired.
func (s *Server) ExportsEnabled() bool {
	return s.exports != nil
}

// Shutdown stops background goroutines and then the HTTP server. Safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// view returns the filtered dataset for f, computing it at most once per
// TTL for the same seed and filter.
func (s *Server) view(ctx context.Context, f core.Filter) (core.Dataset, bool, error) {
	key := fmt.Sprintf("%d|%s", s.data.Seed(), f.Key())
	return s.views.Get(key, func() (core.Dataset, error) {
		ds, err := s.data.Dataset(ctx)
		if err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
		return core.Apply(ds, f)
	})
}

// filteredView parses the filter from the query and loads its view. On
// failure it writes the error response and returns ok=false.
func (s *Server) filteredView(w http.ResponseWriter, r *http.Request) (core.Filter, core.Dataset, bool) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		ErrorFor(err).Write(w)
		return core.Filter{}, nil, false
	}

	view, hit, err := s.view(r.Context(), f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to compute view",
			applog.FieldFilterKey, f.Key(), applog.FieldError, err)
		ErrorFor(err).Write(w)
		return core.Filter{}, nil, false
	}

	s.events.LogView(r.Context(), s.data.Seed(), f.Key(), len(view), hit)
	return f, view, true
}
