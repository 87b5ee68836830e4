// Package api exposes the gene query engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/chr21-gene-api/internal/gene"
	"github.com/inodb/chr21-gene-api/internal/query"
)

const welcomeMessage = "Welcome to Chromosome 21 Gene API"

// errorBody is the JSON shape of every HTTP error response.
type errorBody struct {
	Detail string `json:"detail"`
}

// Server serves the gene API routes.
type Server struct {
	engine  *query.Engine
	logger  *zap.Logger
	metrics *metrics
}

// NewServer creates a server over the given query engine.
func NewServer(engine *query.Engine) *Server {
	return &Server{
		engine:  engine,
		logger:  zap.NewNop(),
		metrics: newMetrics(),
	}
}

// SetLogger sets the logger for request diagnostics.
func (s *Server) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Handler returns the route table. Non-GET methods on known routes get
// a 405, unknown paths a 404, both with JSON bodies.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /genes", s.handleList)
	mux.HandleFunc("GET /genes/{id}", s.handleGetByID)
	mux.HandleFunc("GET /genes/by-name/{name}", s.handleGetByName)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.handler())

	// Method fallbacks: the GET patterns above are more specific, so
	// these only catch disallowed methods on known routes.
	mux.HandleFunc("/{$}", s.handleMethodNotAllowed)
	mux.HandleFunc("/genes", s.handleMethodNotAllowed)
	mux.HandleFunc("/genes/{id}", s.handleMethodNotAllowed)
	mux.HandleFunc("/genes/by-name/{name}", s.handleMethodNotAllowed)
	mux.HandleFunc("/", s.handleNotFound)

	return s.metrics.instrument(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q, "page", query.DefaultPage)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	pageSize, err := intParam(q, "page_size", query.DefaultPageSize)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := s.engine.List(r.Context(), query.ListParams{
		Page:       page,
		PageSize:   pageSize,
		Chromosome: q.Get("chromosome"),
		GeneType:   q.Get("gene_type"),
		Search:     q.Get("search"),
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleGetByName(w http.ResponseWriter, r *http.Request) {
	g, err := s.engine.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "Not Found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// writeEngineError maps engine errors onto HTTP statuses. Anything
// outside the known taxonomy is a server-side failure and stays opaque
// to the client.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gene.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "Gene not found")
	case errors.Is(err, query.ErrInvalidArgument):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorBody{Detail: detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

// intParam parses an optional integer query parameter.
func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return n, nil
}
