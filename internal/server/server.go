// Package server is the HTTP prediction service behind the form.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/smukkama/bike-demand/internal/metrics"
	"github.com/smukkama/bike-demand/internal/protocol"
	"github.com/smukkama/bike-demand/pkg/config"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Predictor evaluates the demand model
type Predictor interface {
	Name() string
	Predict(req protocol.PredictRequest) int
}

// Cache stores model outputs keyed by model and request
type Cache interface {
	Get(ctx context.Context, model string, req protocol.PredictRequest) (int, bool, error)
	Set(ctx context.Context, model string, req protocol.PredictRequest, prediction int) error
}

// EventPublisher receives one event per served prediction
type EventPublisher interface {
	PublishPrediction(ctx context.Context, event *protocol.PredictionEvent) error
}

// Options carries the optional collaborators. Nil fields are disabled.
type Options struct {
	Cache     Cache
	Publisher EventPublisher
	Limiter   *rate.Limiter
	Registry  *prometheus.Registry
}

// Server serves the prediction API and the form page
type Server struct {
	config     *config.HTTPConfig
	predictor  Predictor
	cache      Cache
	publisher  EventPublisher
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
	handler    http.Handler
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New creates a server. A Registry in opts enables /metrics.
func New(cfg *config.HTTPConfig, predictor Predictor, opts Options) *Server {
	s := &Server{
		config:    cfg,
		predictor: predictor,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		limiter:   opts.Limiter,
		registry:  opts.Registry,
	}
	if s.registry != nil {
		s.metrics = metrics.New(s.registry)
	}
	s.handler = s.routes()
	return s
}

// NewLimiter builds the /predict limiter from config, or nil when disabled
func NewLimiter(cfg config.RateLimitConfig) *rate.Limiter {
	if !cfg.Enabled {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/predict", s.handlePredict)
	r.Get("/health", s.handleHealth)

	if s.registry != nil {
		r.Mount("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured port and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener in the background
func (s *Server) Serve(listener net.Listener) error {
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	logrus.WithField("addr", listener.Addr().String()).Infoln("HTTP server listening")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Errorln("HTTP server stopped unexpectedly")
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	logrus.Infoln("HTTP server stopped")
	return err
}
