// ABOUTME: Local HTTP server that exposes sessions, prompts and exports to a chat UI
// ABOUTME: Owns routing, request ids, optional bearer auth and graceful shutdown

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/gemini-bridge/internal/auth"
	"github.com/2389/gemini-bridge/internal/config"
	"github.com/2389/gemini-bridge/internal/conversation"
	"github.com/2389/gemini-bridge/internal/dedupe"
	"github.com/2389/gemini-bridge/internal/export"
	"github.com/2389/gemini-bridge/internal/store"
)

const (
	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 1 << 20

	shutdownTimeout   = 5 * time.Second
	heartbeatInterval = 30 * time.Second
)

// ToolConfigurer reads and replaces the tool configuration.
type ToolConfigurer interface {
	Snapshot() config.Tool
	Set(config.Tool) error
}

// Resolver locates the tool executable.
type Resolver interface {
	Resolve(ctx context.Context) (string, bool)
}

// Options holds the collaborators of a Server. Store, Conversation and
// Prompter are required.
type Options struct {
	Addr         string
	Store        store.Store
	Conversation *conversation.Service
	Prompter     conversation.Prompter
	Exporter     *export.Exporter
	Tool         ToolConfigurer
	Resolver     Resolver
	Broadcaster  *conversation.Broadcaster
	Dedupe       *dedupe.Cache
	// Verifier enables bearer auth on /api/ when non-nil.
	Verifier auth.TokenVerifier
	Logger   *slog.Logger
}

// Server is the bridge's HTTP API.
type Server struct {
	store        store.Store
	conversation *conversation.Service
	prompter     conversation.Prompter
	exporter     *export.Exporter
	tool         ToolConfigurer
	resolver     Resolver
	broadcaster  *conversation.Broadcaster
	dedupe       *dedupe.Cache
	logger       *slog.Logger

	httpServer *http.Server

	// baseCtx outlives individual requests so a prompt keeps running when
	// the client disconnects. It is cancelled at the end of Shutdown.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	closing   chan struct{}
	closeOnce sync.Once
}

// New wires the routes and returns a Server ready to Run.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if opts.Conversation == nil {
		return nil, errors.New("api: conversation service is required")
	}
	if opts.Prompter == nil {
		return nil, errors.New("api: prompter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exporter := opts.Exporter
	if exporter == nil {
		exporter = export.New(opts.Store, logger)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store:        opts.Store,
		conversation: opts.Conversation,
		prompter:     opts.Prompter,
		exporter:     exporter,
		tool:         opts.Tool,
		resolver:     opts.Resolver,
		broadcaster:  opts.Broadcaster,
		dedupe:       opts.Dedupe,
		logger:       logger.With("component", "api"),
		baseCtx:      baseCtx,
		cancelBase:   cancel,
		closing:      make(chan struct{}),
	}

	mux := http.NewServeMux()

	// Health endpoint - no auth required
	mux.HandleFunc("GET /health", s.handleHealth)

	// API endpoints - auth required if a verifier is configured
	mux.Handle("/api/", auth.HTTPAuthMiddleware(opts.Verifier)(withSubject(s.apiRoutes())))
	if opts.Verifier != nil {
		s.logger.Info("bearer authentication enabled for /api/")
	}

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.withRequestID(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) apiRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/prompt", s.handlePrompt)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleAppendMessage)
	mux.HandleFunc("POST /api/sessions/{id}/send", s.handleSend)
	mux.HandleFunc("GET /api/sessions/{id}/export", s.handleExport)
	mux.HandleFunc("GET /api/sessions/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/config", s.handlePutConfig)
	mux.HandleFunc("GET /api/resolve", s.handleResolve)
	return mux
}

// Handler returns the root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// ctx is already canceled here, so shut down with a fresh one.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown ends event streams, waits for in-flight requests, and then
// cancels any prompt still running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	s.closeOnce.Do(func() { close(s.closing) })

	err := s.httpServer.Shutdown(ctx)
	s.cancelBase()
	if err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestMeta is filled in as a request moves through the middleware chain
// and read back by withRequestID once the handler returns.
type requestMeta struct {
	id      string
	subject string
}

type requestMetaKey struct{}

// RequestID returns the id assigned to the request carrying ctx.
func RequestID(ctx context.Context) string {
	if m, ok := ctx.Value(requestMetaKey{}).(*requestMeta); ok {
		return m.id
	}
	return ""
}

// withSubject copies the authenticated token subject into the request's
// metadata. It must sit inside the auth middleware.
func withSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m, ok := r.Context().Value(requestMetaKey{}).(*requestMeta); ok {
			m.subject = auth.SubjectFrom(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withRequestID tags each request with an X-Request-ID (honoring one sent by
// the client) and logs it on completion.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)

		meta := &requestMeta{id: id}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestMetaKey{}, meta)))

		s.logger.Debug("request",
			"request_id", id,
			"subject", meta.subject,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
