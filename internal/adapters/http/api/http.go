// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/adapters/repository"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/domain/scoring"
	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/pipeline"
)

const (
	defaultMaxRows      = 200_000
	defaultMaxBodyBytes = 64 << 20
)

// Model is the part of a trained classifier the handlers need.
type Model interface {
	scoring.Predictor
	FeatureOrder() []string
}

// Dependencies required by HTTP handlers. Nil members disable what they back:
// no Model means /predict answers 503, no Attributes means request rows must
// carry stellar parameters, and no Store means results are not persisted.
type Dependencies struct {
	Model      Model
	Attributes pipeline.AttributeSource
	Store      repository.Store
}

// Option configures the Server.
type Option func(*Server)

// WithMaxRows caps the number of rows accepted per request.
func WithMaxRows(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithWorkers sets how many stars of one request are extracted in parallel.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithPersistRequests makes /predict and /features store the vectors they
// extract and the scores they compute.
func WithPersistRequests(on bool) Option {
	return func(s *Server) { s.persist = on }
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	deps        Dependencies
	maxRows     int
	workers     int
	corsOrigins []string
	persist     bool
	validator   *validator

	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	predictHandler    *PredictHandler
	candidatesHandler *CandidatesHandler
	starHandler       *StarHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		maxRows:   defaultMaxRows,
		workers:   runtime.NumCPU(),
		validator: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.predictHandler = NewPredictHandler(s)
	s.candidatesHandler = NewCandidatesHandler(deps.Store)
	s.starHandler = NewStarHandler(deps.Store)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	cors := CORSMiddleware(s.corsOrigins)

	mux.HandleFunc("/health", cors(MetricsMiddleware(s.healthHandler.HandleHealth, "health")))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", cors(MetricsMiddleware(s.statsHandler.HandleStats, "stats")))
	mux.HandleFunc("/predict", cors(MetricsMiddleware(s.predictHandler.HandlePredict, "predict")))
	mux.HandleFunc("/features", cors(MetricsMiddleware(s.predictHandler.HandleFeatures, "features")))
	if s.deps.Store != nil {
		mux.HandleFunc("/candidates", cors(MetricsMiddleware(s.candidatesHandler.HandleGetCandidates, "candidates")))
		mux.HandleFunc("/stars/", cors(MetricsMiddleware(s.starHandler.HandleGetStar, "stars")))
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeFailure picks the status from the error kind.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
