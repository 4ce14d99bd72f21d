package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"taskboard/internal/adapters/export"
	"taskboard/internal/adapters/http/middleware"
	"taskboard/internal/adapters/http/perf"
	"taskboard/internal/adapters/http/views"
	"taskboard/internal/application/orchestrators"
	"taskboard/internal/domain/project"
)

//go:embed static
var staticFS embed.FS

// Board is everything the handlers need from the board.
type Board interface {
	views.Board
	orchestrators.ProjectAdder
	Subscribers() int
}

// Deps holds the collaborators built at startup.
type Deps struct {
	Board     Board
	Active    *views.ListView
	Finished  *views.ListView
	Exporter  *export.Exporter
	Collector *perf.Collector
}

// Options configures the middleware stack.
type Options struct {
	CSRFKey            []byte
	CSRF               middleware.CSRFOptions
	RateLimitPerSecond int
	SlowRequest        time.Duration
}

// Server serves the board. Handlers are methods so tests can build one around fakes.
type Server struct {
	board     Board
	lists     map[project.Status]*views.ListView
	exporter  *export.Exporter
	collector *perf.Collector
	now       func() time.Time
	heartbeat time.Duration
}

// NewServer wires handlers around deps.
// PRE: deps.Active and deps.Finished are configured list views over deps.Board
func NewServer(deps Deps) *Server {
	return &Server{
		board: deps.Board,
		lists: map[project.Status]*views.ListView{
			project.StatusActive:   deps.Active,
			project.StatusFinished: deps.Finished,
		},
		exporter:  deps.Exporter,
		collector: deps.Collector,
		now:       time.Now,
		heartbeat: 25 * time.Second,
	}
}

// Routes returns the bare mux without middleware.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /projects", s.handleProjectCreate)
	mux.HandleFunc("GET /lists/{status}", s.handleList)
	mux.HandleFunc("POST /lists/{status}/drop", s.handleDrop)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /debug/perf", s.handlePerf)
	return mux
}

// NewMux wires HTTP handlers and the middleware stack. ctx bounds background work such as rate-limit sweeping.
func NewMux(ctx context.Context, deps Deps, opts Options) http.Handler {
	s := NewServer(deps)
	limiter := middleware.NewRateLimiter(ctx, opts.RateLimitPerSecond, time.Second)

	// Outer to inner: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(s.Routes(),
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.CSRF),
		middleware.RateLimit(limiter),
		middleware.Timing(deps.Collector, opts.SlowRequest),
	)
}
