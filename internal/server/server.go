// Package server exposes the chord pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz
//	POST   /api/v1/detect          {text}
//	POST   /api/v1/render          {text, format, interval, to_key, spelling, output}
//	GET    /api/v1/previews        ?limit=N
//	POST   /api/v1/previews        {text, title, artist, key}
//	GET    /api/v1/previews/{id}
//	DELETE /api/v1/previews/{id}
//	GET    /api/v1/live            WebSocket live editor
//
// Errors are JSON objects {code, message}; the status comes from
// [errors.HTTPStatus].
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/observability"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/preview"
)

// Options configures a Server.
type Options struct {
	Runner *pipeline.Runner
	Store  preview.Store
	Logger *log.Logger

	// Spelling is the default accidental spelling for requests that name
	// none ("flat" or "sharp").
	Spelling string

	// MaxBytes bounds song text. Zero means errors.MaxTextBytes.
	MaxBytes int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins lists the origins accepted by the live editor. Empty
	// means same-origin only; "*" accepts any origin.
	AllowedOrigins []string
}

func (o *Options) setDefaults() {
	if o.Runner == nil {
		o.Runner = pipeline.NewRunner(nil, nil, o.Logger)
	}
	if o.Store == nil {
		o.Store = preview.NewMemoryStore()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = errors.MaxTextBytes
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 15 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
}

// Server serves the render API.
type Server struct {
	opts     Options
	runner   *pipeline.Runner
	store    preview.Store
	logger   *log.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates a server. Nil runner, store and logger get defaults: an
// uncached runner, an in-memory store and the default logger.
func New(opts Options) *Server {
	opts.setDefaults()
	s := &Server{
		opts:   opts,
		runner: opts.Runner,
		store:  opts.Store,
		logger: opts.Logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(opts.AllowedOrigins),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Post("/render", s.handleRender)
		r.Route("/previews", func(r chi.Router) {
			r.Get("/", s.handleListPreviews)
			r.Post("/", s.handleCreatePreview)
			r.Get("/{id}", s.handleGetPreview)
			r.Delete("/{id}", s.handleDeletePreview)
		})
		r.Get("/live", s.handleLive)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Code:    errors.ErrCodeInvalidInput,
			Message: "method " + r.Method + " not allowed",
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.opts.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// logRequests logs each request and reports it to the server hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.Server().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// JSON helpers
// =============================================================================

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	msg := errors.UserMessage(err)
	if code == "" || code == errors.ErrCodeInternal {
		code, msg = errors.ErrCodeInternal, "internal error"
	}
	writeJSON(w, errors.HTTPStatus(code), errorBody{Code: code, Message: msg})
}

// decode reads a JSON request body of at most limit bytes into v.
func decode(w http.ResponseWriter, r *http.Request, limit int, v any) error {
	body := http.MaxBytesReader(w, r.Body, int64(limit))
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeTooLarge, "request body too large (max %d bytes)", limit)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

// bodyLimit leaves room for the JSON envelope and escaping around the text.
func (s *Server) bodyLimit() int {
	return 2*s.opts.MaxBytes + 4096
}
