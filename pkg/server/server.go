package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/gesture/pkg/gesture"
	"github.com/vango-dev/gesture/pkg/lifecycle"
	"github.com/vango-dev/gesture/pkg/protocol"
	"github.com/vango-dev/gesture/pkg/record"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the OpenTelemetry instrumentation name.
const TracerName = "github.com/vango-dev/gesture/pkg/server"

// Server is the HTTP/WebSocket server for touch surfaces.
type Server struct {
	config   *ServerConfig
	sessions *SessionManager
	upgrader websocket.Upgrader

	registry *prometheus.Registry
	metrics  *Metrics

	httpServer *http.Server
	mu         sync.Mutex

	logger *slog.Logger
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	deps     sessionDeps
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry registers metrics with registry and serves it on /metrics.
// Default: a new registry with Go and process collectors.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithTracer sets the tracer used for gesture.evaluate spans.
// Default: otel.Tracer(TracerName).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.deps.tracer = tracer
	}
}

// WithSink records every finished gesture to sink.
func WithSink(sink record.Sink) Option {
	return func(o *options) {
		o.deps.sink = sink
	}
}

// WithSaver forces a save when a client's page is hidden.
func WithSaver(saver lifecycle.Saver) Option {
	return func(o *options) {
		o.deps.saver = saver
	}
}

// WithRepainter refreshes the UI when a client's page becomes visible.
func WithRepainter(repainter lifecycle.Repainter) Option {
	return func(o *options) {
		o.deps.repainter = repainter
	}
}

// WithOnSwipe sets a callback run on the session's read loop for every
// recognized swipe.
func WithOnSwipe(fn func(*Session, gesture.Direction)) Option {
	return func(o *options) {
		o.deps.onSwipe = fn
	}
}

// New creates a new Server with the given configuration.
func New(config *ServerConfig, opts ...Option) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	config.applyDefaults()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "server")
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if o.deps.tracer == nil {
		o.deps.tracer = otel.Tracer(TracerName)
	}

	metrics := NewMetrics(WithMetricsRegistry(o.registry))
	deps := o.deps
	deps.metrics = metrics

	return &Server{
		config:   config,
		sessions: newSessionManager(config.SessionConfig, config.MaxSessions, &deps, o.logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		registry: o.registry,
		metrics:  metrics,
		logger:   o.logger,
	}
}

// Handler returns the HTTP handler: /ws, /metrics, and /healthz.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.HandleWebSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// HandleWebSocket upgrades the request and runs the handshake. On success
// the session's loops are started and the handler returns.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sc := s.config.SessionConfig
	conn.SetReadLimit(sc.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(sc.HandshakeTimeout))

	hello, status, err := s.readClientHello(conn)
	if err != nil {
		s.logger.Warn("handshake rejected", "status", status, "error", err)
		s.sendHandshakeError(conn, status)
		conn.Close()
		return
	}

	session, err := s.sessions.Create(conn, hello.Surface)
	if err != nil {
		s.logger.Warn("session rejected", "error", err)
		s.sendHandshakeError(conn, protocol.HandshakeServerBusy)
		conn.Close()
		return
	}

	if err := s.sendServerHello(session); err != nil {
		s.logger.Error("server hello failed", "session_id", session.ID, "error", err)
		session.Close()
		return
	}

	session.Start()
}

// readClientHello reads and validates the first frame.
func (s *Server) readClientHello(conn *websocket.Conn) (*protocol.ClientHello, protocol.HandshakeStatus, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, protocol.HandshakeInvalidFormat, err
	}

	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return nil, protocol.HandshakeInvalidFormat, err
	}
	if frame.Type != protocol.FrameHandshake {
		return nil, protocol.HandshakeInvalidFormat, ErrInvalidHandshake
	}

	hello, err := protocol.DecodeClientHello(frame.Payload)
	if err != nil {
		return nil, protocol.HandshakeInvalidFormat, err
	}
	if !hello.Version.Compatible(protocol.CurrentVersion) {
		return nil, protocol.HandshakeVersionMismatch, ErrVersionMismatch
	}
	return hello, protocol.HandshakeOK, nil
}

func (s *Server) sendHandshakeError(conn *websocket.Conn, status protocol.HandshakeStatus) {
	payload := protocol.EncodeServerHello(protocol.NewServerHelloError(status))
	frame := protocol.NewFrame(protocol.FrameHandshake, payload)

	conn.SetWriteDeadline(time.Now().Add(s.config.SessionConfig.WriteTimeout))
	conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

// sendServerHello accepts the session and tells the client the effective
// thresholds.
func (s *Server) sendServerHello(session *Session) error {
	cfg := session.Recognizer().Config()
	maxTime := cfg.MaxSwipeTime.Milliseconds()
	if cfg.MaxSwipeTime < 0 {
		maxTime = -1
	}
	hello := &protocol.ServerHello{
		Status:           protocol.HandshakeOK,
		SessionID:        session.ID,
		ServerTime:       uint64(time.Now().UnixMilli()),
		MinSwipeDistance: cfg.MinSwipeDistance,
		MaxSwipeTimeMs:   maxTime,
		MinSwipeSpeed:    cfg.MinSwipeSpeed,
	}
	return session.writeFrame(protocol.FrameHandshake, protocol.EncodeServerHello(hello))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.sessions.CloseAll(ctx); err != nil {
		s.logger.Warn("sessions did not close in time", "error", err)
	}

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Registry returns the Prometheus registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}
