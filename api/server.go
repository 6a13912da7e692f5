// Package api exposes the search engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/poiesic/noteshelf/search"
)

var (
	// ErrSearcherRequired is returned when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher required")
)

// Searcher is the part of search.Engine the HTTP layer needs.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
	Labels(ctx context.Context, userID string) ([]string, error)
}

var _ Searcher = (*search.Engine)(nil)

// Server routes HTTP requests to a Searcher.
type Server struct {
	searcher Searcher
	router   *mux.Router
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer builds the router:
//
//	GET /api/health
//	GET /api/users/{user_id}/search?q=...&labels=a,b
//	GET /api/users/{user_id}/labels
func NewServer(searcher Searcher, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	s := &Server{
		searcher: searcher,
		router:   mux.NewRouter(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/users/{user_id}/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/users/{user_id}/labels", s.handleLabels).Methods(http.MethodGet)
	s.router.Use(s.logRequests)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req := search.Request{
		UserID: mux.Vars(r)["user_id"],
		Query:  r.URL.Query().Get("q"),
		Labels: parseLabels(r.URL.Query().Get("labels")),
	}

	resp, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		s.respondSearchError(w, err, "search failed")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.searcher.Labels(r.Context(), mux.Vars(r)["user_id"])
	if err != nil {
		s.respondSearchError(w, err, "label lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"labels": labels})
}

// respondSearchError reports caller errors as 400 with their message and
// everything else as 500 with a fixed message.
func (s *Server) respondSearchError(w http.ResponseWriter, err error, internal string) {
	var invalid *search.InvalidRequestError
	if errors.As(err, &invalid) {
		respondError(w, http.StatusBadRequest, invalid.Message)
		return
	}
	s.logger.Error(internal, "err", err)
	respondError(w, http.StatusInternalServerError, internal)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// parseLabels splits a comma separated list, trimming entries and dropping empty ones.
func parseLabels(param string) []string {
	if strings.TrimSpace(param) == "" {
		return nil
	}
	var labels []string
	for _, l := range strings.Split(param, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		response = []byte(`{"message":"encoding failed"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
