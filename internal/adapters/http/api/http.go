// Package api exposes the scoring service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// Scoring is the service surface the handlers call.
type Scoring interface {
	PutCompetition(ctx context.Context, c *model.Competition) error
	Load(ctx context.Context, competitionID string) error
	Reconcile(ctx context.Context, competitionID string) error
	Competition(ctx context.Context, competitionID string) (*model.Competition, error)
	Scores(ctx context.Context, competitionID string) ([]model.Score, error)

	SubmitScore(ctx context.Context, competitionID string, score model.Score) error
	DeleteScore(ctx context.Context, competitionID string, key model.ScoreKey) error
	ResetScores(ctx context.Context, competitionID string, preservePrejudged bool) (int, error)

	SetCriterionActive(ctx context.Context, competitionID, segment, criterion string, active bool) (bool, error)
	ActiveCriteria(ctx context.Context, competitionID string) ([]model.ActiveCriterion, error)
	FinalizeJudge(ctx context.Context, competitionID, judge, segment string) error
	IsFinalized(ctx context.Context, competitionID, judge, segment string) (bool, error)

	SetRankingConfig(ctx context.Context, competitionID string, cfg model.RankingConfig) error
	RankingConfig(ctx context.Context, competitionID string) (model.RankingConfig, error)
	Rankings(ctx context.Context, competitionID, segment string) ([]model.Standing, error)
	MinorAward(ctx context.Context, competitionID, segment, criterion string) ([]model.AwardEntry, error)

	PreviewCarryForward(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error)
	CommitCarryForward(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error)
	SetPrejudgedRaw(ctx context.Context, competitionID, segment, criterionID, contestant string, raw float64) error
	PreviewPrejudged(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error)
	CommitPrejudged(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error)
	SetPrejudgedMaxRaw(ctx context.Context, competitionID, segment, criterionID string, maxRaw float64) (map[string]float64, error)
}

// StatsProvider reports service statistics.
type StatsProvider interface {
	Stats() service.Stats
}

// Router is the route table handlers are attached to.
type Router = chi.Router

// Server wires HTTP routes for the scoring API.
type Server struct {
	svc      Scoring
	stats    StatsProvider
	validate *validator.Validate
	maxBody  int64
	logger   logger.Logger
}

// NewServer creates a Server over svc.
func NewServer(svc Scoring, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		validate: validator.New(),
		maxBody:  defaultMaxRequestBytes,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("http")
	return s
}

// Routes builds the router. Callers may mount further routes on it.
func (s *Server) Routes() Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(s.maxBody))

	r.Get("/healthz", MetricsMiddleware(handleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.handleStats, "stats"))

	r.Route("/competitions/{cid}", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.handleGetCompetition, "competition"))
		r.Put("/", MetricsMiddleware(s.handlePutCompetition, "competition"))
		r.Post("/load", MetricsMiddleware(s.handleLoad, "load"))
		r.Post("/reconcile", MetricsMiddleware(s.handleReconcile, "reconcile"))
		r.Post("/reset", MetricsMiddleware(s.handleReset, "reset"))

		r.Get("/scores", MetricsMiddleware(s.handleListScores, "scores"))
		r.Post("/scores", MetricsMiddleware(s.handleSubmitScore, "scores"))
		r.Delete("/scores", MetricsMiddleware(s.handleDeleteScore, "scores"))

		r.Get("/ranking-config", MetricsMiddleware(s.handleGetRankingConfig, "ranking_config"))
		r.Put("/ranking-config", MetricsMiddleware(s.handlePutRankingConfig, "ranking_config"))

		r.Get("/active-criteria", MetricsMiddleware(s.handleListActive, "active_criteria"))
		r.Put("/active-criteria/{sid}/{crid}", MetricsMiddleware(s.handleSetActive(true), "active_criteria"))
		r.Delete("/active-criteria/{sid}/{crid}", MetricsMiddleware(s.handleSetActive(false), "active_criteria"))

		r.Post("/judges/{jid}/segments/{sid}/finalize", MetricsMiddleware(s.handleFinalize, "finalize"))
		r.Get("/judges/{jid}/segments/{sid}/finalize", MetricsMiddleware(s.handleIsFinalized, "finalize"))

		r.Route("/segments/{sid}", func(r chi.Router) {
			r.Get("/rankings", MetricsMiddleware(s.handleRankings, "rankings"))
			r.Get("/rankings.xlsx", MetricsMiddleware(s.handleRankingsXLSX, "rankings_xlsx"))
			r.Get("/awards/{crid}", MetricsMiddleware(s.handleAward, "awards"))

			r.Get("/carry-forward/{crid}", MetricsMiddleware(s.handlePreviewCarryForward, "carry_forward"))
			r.Post("/carry-forward/{crid}", MetricsMiddleware(s.handleCommitCarryForward, "carry_forward"))

			r.Get("/prejudged/{crid}", MetricsMiddleware(s.handlePreviewPrejudged, "prejudged"))
			r.Post("/prejudged/{crid}", MetricsMiddleware(s.handleCommitPrejudged, "prejudged"))
			r.Put("/prejudged/{crid}/raw/{ctid}", MetricsMiddleware(s.handleSetRaw, "prejudged"))
			r.Put("/prejudged/{crid}/max-raw", MetricsMiddleware(s.handleSetMaxRaw, "prejudged"))
		})
	})
	return r
}

type ackResponse struct {
	Status string `json:"status"`
}

type valuesResponse struct {
	Segment   string             `json:"segment"`
	Criterion string             `json:"criterion"`
	Committed bool               `json:"committed"`
	Values    map[string]float64 `json:"values"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail writes err with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
