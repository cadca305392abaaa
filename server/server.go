// Package server exposes the CO2 analysis over HTTP: demo and upload
// analysis, the live monitor payload, a websocket push of that payload,
// health and metrics.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/sartorproj/co2trend/analysis"
	"github.com/sartorproj/co2trend/metrics"
	"github.com/sartorproj/co2trend/stats"
	"github.com/sartorproj/co2trend/timeseries"
)

// ReadingSource supplies the most recent live readings in ascending order.
type ReadingSource interface {
	Latest(ctx context.Context, limit int) ([]timeseries.Reading, error)
}

// Pinger is implemented by sources whose health can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config configures the server.
type Config struct {
	DemoFile       string
	MaxPoints      int
	PollInterval   time.Duration
	Status         stats.StatusThresholds
	Analysis       analysis.Options
	MaxUploadBytes int64
	AllowedOrigins []string  // CORS origins; empty allows any
	AccessLog      io.Writer // combined log format; nil disables
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		DemoFile:       "DATA.CSV",
		MaxPoints:      2000,
		PollInterval:   5 * time.Second,
		Status:         stats.DefaultStatusThresholds(),
		Analysis:       analysis.DefaultOptions(),
		MaxUploadBytes: 32 << 20,
	}
}

// Server serves the HTTP API.
type Server struct {
	config   Config
	source   ReadingSource
	logger   *slog.Logger
	metrics  *metrics.Metrics
	router   *mux.Router
	upgrader websocket.Upgrader
	now      func() time.Time
}

// New creates a server. source may be nil, in which case the live endpoints
// report no data.
func New(config Config, source ReadingSource, logger *slog.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 32 << 20
	}

	s := &Server{
		config:  config,
		source:  source,
		logger:  logger.With("component", "server"),
		metrics: m,
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.handle("/health", s.handleHealth, http.MethodGet)
	s.handle("/api/demo", s.handleDemo, http.MethodGet)
	s.handle("/api/upload", s.handleUpload, http.MethodPost)
	s.handle("/api/monitor_data", s.handleMonitorData, http.MethodGet)
	s.router.HandleFunc("/ws/monitor", s.handleMonitorSocket).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

func (s *Server) handle(path string, h http.HandlerFunc, methods ...string) {
	s.router.Handle(path, s.metrics.WrapHandler(path, h)).Methods(methods...)
}

// Handler returns the router wrapped with request ids, CORS, panic
// recovery and the optional access log.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = requestID(h)

	corsOpts := []handlers.CORSOption{
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
	}
	if len(s.config.AllowedOrigins) > 0 {
		corsOpts = append(corsOpts, handlers.AllowedOrigins(s.config.AllowedOrigins))
	}
	h = handlers.CORS(corsOpts...)(h)

	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slogRecoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(h)

	if s.config.AccessLog != nil {
		h = handlers.CombinedLoggingHandler(s.config.AccessLog, h)
	}
	return h
}

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// requestID propagates or assigns an X-Request-ID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type slogRecoveryLogger struct{ logger *slog.Logger }

func (l slogRecoveryLogger) Println(args ...any) {
	l.logger.Error("panic recovered", "panic", args)
}
