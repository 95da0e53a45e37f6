// Package health serves the status page, the health check and Prometheus
// metrics over HTTP.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/salonbot/core/buildinfo"
	"github.com/m3rciful/salonbot/core/logger"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	requestTimeout  = 15 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Reviews is the part of reviews.Store the health check reads.
type Reviews interface {
	Len() int
	Path() string
}

// Assets reports which uploaded images are present.
type Assets interface {
	Exists(name string) bool
}

// Options configures a Server.
type Options struct {
	Listen      string
	Environment string

	// RunMode is shown on the status page.
	RunMode string

	// Dirs must all exist for the check to report directories=true.
	Dirs []string

	Reviews Reviews
	Assets  Assets // optional
	Metrics http.Handler
	Now     func() time.Time
}

// Report is the /health response body.
type Report struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp,omitempty"`
	Directories  bool   `json:"directories"`
	Files        bool   `json:"files"`
	ReviewsCount int    `json:"reviews_count"`
	PriceSet     bool   `json:"price_set"`
	SlotsSet     bool   `json:"availability_set"`
	Environment  string `json:"environment"`
	Error        string `json:"error,omitempty"`
}

// Server is the health HTTP server.
type Server struct {
	opts Options
	mux  *chi.Mux
}

// New builds the router. Reviews is required.
func New(opts Options) (*Server, error) {
	if opts.Reviews == nil {
		return nil, errors.New("health: reviews source is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Environment == "" {
		opts.Environment = "development"
	}

	m := chi.NewRouter()
	m.Use(chimw.RealIP)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(requestTimeout))
	m.Use(Observe)

	s := &Server{opts: opts, mux: m}
	m.Get("/", s.home)
	m.Get("/health", s.health)
	if opts.Metrics != nil {
		m.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves on opts.Listen until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.LogEvent(ctx, logger.HTTP, slog.LevelInfo, "http.start", slog.String("listen", s.opts.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("health: serve %s: %w", s.opts.Listen, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health: shutdown: %w", err)
	}
	logger.LogEvent(ctx, logger.HTTP, slog.LevelInfo, "http.stop", slog.String("outcome", "ok"))
	return nil
}

// Check builds a report of the current state.
func (s *Server) Check() (rep Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("health: check panicked: %v", r)
		}
	}()

	rep = Report{
		Status:      statusHealthy,
		Timestamp:   s.opts.Now().Format(time.RFC3339),
		Directories: true,
		Environment: s.opts.Environment,
	}
	for _, dir := range s.opts.Dirs {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			rep.Directories = false
			break
		}
	}
	rep.ReviewsCount = s.opts.Reviews.Len()
	// An empty collection may not have been written yet.
	_, statErr := os.Stat(s.opts.Reviews.Path())
	rep.Files = statErr == nil || rep.ReviewsCount == 0
	if s.opts.Assets != nil {
		rep.PriceSet = s.opts.Assets.Exists("price")
		rep.SlotsSet = s.opts.Assets.Exists("availability")
	}
	return rep, nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Check()
	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
		rep = Report{Status: statusUnhealthy, Error: err.Error()}
		logger.LogEvent(r.Context(), logger.HTTP, slog.LevelError, "http.health",
			slog.String("outcome", "fail"),
			slog.Any("err", err),
		)
	}
	writeJSON(w, status, rep)
}

var homeTemplate = template.Must(template.New("home").Parse(`<!doctype html>
<h1>salonbot</h1>
<p><strong>Status:</strong> ✅ Running</p>
<p><strong>Environment:</strong> {{.Environment}}</p>
<p><strong>Mode:</strong> {{.RunMode}}</p>
<p><strong>Version:</strong> {{.Version}}</p>
<hr>
<p><a href="/health">Health check</a></p>
`))

func (s *Server) home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = homeTemplate.Execute(w, struct {
		Environment, RunMode, Version string
	}{s.opts.Environment, s.opts.RunMode, buildinfo.Version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
