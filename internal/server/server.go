package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portfolioBot/internal/metrics"
	"portfolioBot/internal/portfolio"
	"portfolioBot/internal/taxlots"
)

// Portfolio is what the HTTP surface reads.
type Portfolio interface {
	ComputeAdvancedMetrics(ctx context.Context, userID int64) metrics.Bundle
	Holdings(ctx context.Context, userID int64) ([]portfolio.Holding, error)
	TaxReport(ctx context.Context, userID int64) (taxlots.Report, error)
	ValueChart(ctx context.Context, userID int64) ([]byte, error)
}

// Positions is what the HTTP surface writes.
type Positions interface {
	SetPosition(ctx context.Context, userID int64, symbol string, qty decimal.Decimal) error
	RemovePosition(ctx context.Context, userID int64, symbol string) (bool, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration. Webhook is optional.
type Config struct {
	Port      string
	Log       zerolog.Logger
	Portfolio Portfolio
	Positions Positions
	DB        Pinger
	Registry  *prometheus.Registry
	Webhook   http.HandlerFunc
}

type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	cfg      Config
	duration *prometheus.HistogramVec
}

func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portfoliobot_http_request_duration_seconds",
			Help:    "HTTP request duration by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	cfg.Registry.MustRegister(s.duration)

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.cfg.Registry, promhttp.HandlerOpts{}))
	if s.cfg.Webhook != nil {
		s.router.Post("/telegram/webhook", s.cfg.Webhook)
	}

	s.router.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/metrics", s.handleMetrics)
		r.Get("/holdings", s.handleHoldings)
		r.Put("/holdings/{symbol}", s.handleSetHolding)
		r.Delete("/holdings/{symbol}", s.handleRemoveHolding)
		r.Get("/tax-report", s.handleTaxReport)
		r.Get("/chart.png", s.handleChart)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http: listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http: shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.duration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
