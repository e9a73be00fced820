package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/poiesic/docket"
	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/gateway"
	"github.com/poiesic/docket/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxBodyBytes caps request bodies at the largest document the
// store accepts.
const DefaultMaxBodyBytes = 2 << 20

const shutdownTimeout = 5 * time.Second

// Store is the part of *docket.Client the server needs.
type Store interface {
	gateway.DocumentWriter
	EnsureReady(ctx context.Context) error
	Get(ctx context.Context, id string) (*core.Document, error)
	ListCollections(ctx context.Context) ([]string, error)
	Seed(ctx context.Context, docs []*core.Document, opts ...docket.SeedOption) *docket.SeedReport
}

// Server exposes a Store and its Gateway over HTTP.
type Server struct {
	store        Store
	gateway      *gateway.Gateway
	metrics      *Metrics
	router       chi.Router
	logger       *slog.Logger
	registry     *prometheus.Registry
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithRegistry registers the server metrics with registry instead of a
// private one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) error {
		s.registry = registry
		return nil
	}
}

// WithMaxBodyBytes sets the request body limit.
// Default is DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("max body bytes must be positive, got %d", n)
		}
		s.maxBodyBytes = n
		return nil
	}
}

// New creates a Server for store.
func New(store Store, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, gateway.ErrWriterRequired
	}

	s := &Server{
		store:        store,
		logger:       slog.Default(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	gw, err := gateway.New(store, gateway.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.gateway = gw

	s.metrics, err = NewMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Post("/documents", s.handleSubmit)
	r.Get("/documents/{id}", s.handleGet)
	r.Post("/seed", s.handleSeed)
	r.Get("/collections", s.handleCollections)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	s.router = r

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}

func (s *Server) instrument(next http.Handler) http.Handler {
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
		elapsed := time.Since(start)
		s.metrics.recordRequest(r.Method, route, status, elapsed)
		s.logger.Debug("request served", "method", r.Method, "route", route,
			"status", status, "elapsed", elapsed)
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := s.gateway.Submit(r.Context(), string(body))
	if err != nil {
		status, outcome := classifySubmit(err)
		s.metrics.recordSubmission(outcome)
		var submitErr *gateway.SubmitError
		if errors.As(err, &submitErr) {
			writeError(w, status, submitErr.Message, submitErr.Err, &submitErr.Input)
			return
		}
		writeError(w, status, gateway.MessageWriteFailed, err, nil)
		return
	}

	s.metrics.recordSubmission("saved")
	writeDocument(w, res.Version, []byte(res.Formatted))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, http.StatusNotFound, "Document not found", err, nil)
		case errors.Is(err, core.ErrInvalidID):
			writeError(w, http.StatusBadRequest, "Invalid document id", err, nil)
		case unavailable(err):
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err, nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to read document", err, nil)
		}
		return
	}

	formatted, err := doc.MarshalIndent()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read document", err, nil)
		return
	}
	version, _ := doc.ETag()
	writeDocument(w, version, formatted)
}

type seedFailure struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

type seedResponse struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []seedFailure `json:"failures,omitempty"`
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	docs, err := core.ParseBatch(body)
	if err != nil {
		input := string(body)
		writeError(w, http.StatusBadRequest, gateway.MessageInvalidJSON, err, &input)
		return
	}

	report := s.store.Seed(r.Context(), docs)
	s.metrics.recordSeed(report.Succeeded, report.Failed)

	resp := seedResponse{Succeeded: report.Succeeded, Failed: report.Failed}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, seedFailure{Index: f.Index, ID: f.ID, Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.ListCollections(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if unavailable(err) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "Failed to list collections", err, nil)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.EnsureReady(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readBody reads the capped request body, writing the error response
// itself when it fails.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Input exceeds size limit", err, nil)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Failed to read input", err, nil)
		return nil, false
	}
	return body, true
}

func classifySubmit(err error) (int, string) {
	switch {
	case errors.Is(err, gateway.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, gateway.ErrMalformedJSON):
		return http.StatusBadRequest, "malformed_json"
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, core.ErrInvalidDocument):
		return http.StatusBadRequest, "invalid_document"
	case unavailable(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "failed"
	}
}

func unavailable(err error) bool {
	return errors.Is(err, storage.ErrStoreUnavailable) || errors.Is(err, storage.ErrProvisioning)
}

type errorBody struct {
	Error  string  `json:"error"`
	Detail string  `json:"detail,omitempty"`
	Input  *string `json:"input,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, cause error, input *string) {
	body := errorBody{Error: message, Input: input}
	if cause != nil {
		body.Detail = cause.Error()
	}
	writeJSON(w, status, body)
}

func writeDocument(w http.ResponseWriter, version string, formatted []byte) {
	w.Header().Set("Content-Type", "application/json")
	if version != "" {
		w.Header().Set("ETag", `"`+version+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(formatted)
	_, _ = w.Write([]byte("\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
