package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/feed"
	"github.com/couchcryptid/sightings/internal/mapview"
	"github.com/couchcryptid/sightings/internal/media"
	"github.com/couchcryptid/sightings/internal/observability"
	"github.com/couchcryptid/sightings/internal/submission"
)

// Submitter runs the report submission flow.
type Submitter interface {
	Submit(ctx context.Context, sub submission.Submission) (submission.Result, error)
	Locate(ctx context.Context, lat, lon float64) (submission.Location, error)
	Resolve(ctx context.Context, query string) (submission.Location, error)
}

// ReportStore reads reports and stores contact messages.
type ReportStore interface {
	sharedobs.ReadinessChecker
	List(ctx context.Context, r domain.DateRange) domain.ListResult
	ListRecent(ctx context.Context, limit int) domain.ListResult
	Get(ctx context.Context, id string) (domain.Report, error)
	SubmitContact(ctx context.Context, m domain.ContactMessage) (string, error)
}

// Feed serves the recent reports snapshot.
type Feed interface {
	Snapshot() feed.Snapshot
	Refresh(ctx context.Context) feed.Snapshot
}

// MapViewer builds map views.
type MapViewer interface {
	Build(ctx context.Context, r domain.DateRange, mode mapview.Mode) (mapview.View, error)
	Settings() mapview.Settings
}

// Deps are the collaborators behind the HTTP surface.
type Deps struct {
	Submitter    Submitter
	Store        ReportStore
	Feed         Feed
	Map          MapViewer
	Limits       media.Limits
	StoreTimeout time.Duration
	Clock        clockwork.Clock
	Metrics      *observability.Metrics
}

// Server exposes the pages, the JSON API, and health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	pages      *pageRenderer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes mounted.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.StoreTimeout <= 0 {
		deps.StoreTimeout = 8 * time.Second
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		deps:   deps,
		pages:  newPageRenderer(),
		logger: logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(s.deps.Store))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handleHome)
	r.Post("/", s.handleHomeSubmit)
	r.Get("/about", s.handleAbout)
	r.Get("/contact", s.handleContactPage)
	r.Post("/contact", s.handleContactForm)
	r.Get("/gallery/{id}", s.handleGallery)

	r.Route("/api", func(r chi.Router) {
		r.Post("/reports", s.handleCreateReport)
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/recent", s.handleRecentReports)
		r.Get("/feed", s.handleFeed)
		r.Post("/feed/refresh", s.handleFeedRefresh)
		r.Get("/map", s.handleMap)
		r.Get("/locate", s.handleLocate)
		r.Get("/geocode", s.handleGeocode)
		r.Post("/media/validate", s.handleValidateMedia)
		r.Post("/contact", s.handleCreateContact)
	})
	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// storeContext bounds a single store call.
func (s *Server) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.deps.StoreTimeout)
}

// submitContext bounds a submission: one store write plus one upload per image.
func (s *Server) submitContext(r *http.Request) (context.Context, context.CancelFunc) {
	n := time.Duration(max(s.deps.Limits.MaxImages, 0) + 1)
	return context.WithTimeout(r.Context(), n*s.deps.StoreTimeout)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
