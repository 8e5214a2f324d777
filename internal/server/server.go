// Package server provides the HTTP server for the chakra interaction engine.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/chakra/internal/app"
	"github.com/ayusman/chakra/internal/hand"
	"github.com/ayusman/chakra/internal/logger"
	"github.com/ayusman/chakra/internal/metrics"
	"github.com/ayusman/chakra/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	// App is the running application. Without it only /api/health and
	// static files are served.
	App *app.App

	// StaticDir, when set, is served at /.
	StaticDir string

	// TraceRenderer overrides the default gocv trace renderer.
	TraceRenderer JPEGRenderer

	Logger logger.Logger
}

// Server represents the HTTP server for the chakra application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	start   time.Time
	metrics *metrics.Manager
	log     logger.Logger

	hub         *EventHub
	unsubscribe func()
	httpServer  *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    logger.OrNop(config.Logger).Named("server"),
	}
	if config.App != nil {
		s.metrics = config.App.Metrics()
	} else {
		s.metrics = metrics.NewManager(metrics.WithMetricsEnabled(false))
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.handle("/api/health", http.HandlerFunc(s.handleHealth))

	a := s.config.App
	if a == nil {
		s.serveStatic()
		return
	}
	engine := a.Engine()

	s.handle("/api/hands", api.NewHandsHandler(engine))
	s.handle("/api/engine", http.HandlerFunc(s.handleEngine))

	if st := a.Store(); st != nil {
		interactables := api.NewInteractableHandler(st, a)
		s.handle("/api/interactables", interactables)
		s.handle("/api/interactables/", interactables)

		profiles := api.NewProfileHandler(st, a)
		s.handle("/api/profiles", profiles)
		s.handle("/api/profiles/", profiles)
	}

	// Frame ingest needs a tracker fed from outside
	if sink, ok := a.Tracker().(FrameSink); ok {
		s.handle("/api/frames", NewFramesHandler(sink, s.log.Named("frames")))
	}

	s.hub = NewEventHub(s.log.Named("events"))
	s.unsubscribe = engine.Subscribe(s.hub)
	s.handle("/api/events", s.hub)

	s.handle("/api/trace", NewTraceHandler(engine, s.config.TraceRenderer, DefaultTraceInterval))

	if a.Config().Metrics {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	s.serveStatic()
}

func (s *Server) serveStatic() {
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// handle registers h under pattern with request metrics.
func (s *Server) handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, s.instrument(pattern, h))
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Hub returns the event broadcaster, nil without an App.
func (s *Server) Hub() *EventHub { return s.hub }

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["session"] = a.Engine().SessionID()
		response["enabled"] = a.IsEnabled()
		if e, ok := a.LastEvent(); ok {
			response["last_event"] = e
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// handleEngine reports and toggles gesture processing. Disabling resets
// every hand to Idle.
func (s *Server) handleEngine(w http.ResponseWriter, r *http.Request) {
	a := s.config.App
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
			return
		}
		a.SetEnabled(*req.Enabled)
		s.log.Info(r.Context(), "engine toggled", logger.Bool("enabled", *req.Enabled))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"enabled": a.IsEnabled()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ListenAndServe starts the HTTP server on the given address and blocks
// until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info(context.Background(), "listening", logger.String("addr", addr))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown disconnects event clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// instrument records request count and latency per route.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordHTTPRequest(route, r.Method, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status. It passes Flush and Hijack
// through for the MJPEG and WebSocket handlers.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	r.wroteHeader = true
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

var _ FrameSink = (*hand.StreamTracker)(nil)
