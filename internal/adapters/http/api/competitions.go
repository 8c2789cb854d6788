package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/podium/internal/domain/model"
)

// scoreRequest mirrors the OpenAPI schema for POST /competitions/{cid}/scores.
type scoreRequest struct {
	Segment    string   `json:"segment" validate:"required"`
	Contestant string   `json:"contestant" validate:"required"`
	Judge      string   `json:"judge" validate:"required"`
	Criterion  string   `json:"criterion" validate:"required"`
	Value      *float64 `json:"value" validate:"required,gte=0"`
}

// keyRequest identifies one score for DELETE /competitions/{cid}/scores.
type keyRequest struct {
	Segment    string `json:"segment" validate:"required"`
	Contestant string `json:"contestant" validate:"required"`
	Judge      string `json:"judge" validate:"required"`
	Criterion  string `json:"criterion" validate:"required"`
}

func (k keyRequest) key() model.ScoreKey {
	return model.ScoreKey{Segment: k.Segment, Contestant: k.Contestant, Judge: k.Judge, Criterion: k.Criterion}
}

type resetResponse struct {
	Deleted           int  `json:"deleted"`
	PreservePrejudged bool `json:"preserve_prejudged"`
}

func (s *Server) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_competition"
	c, err := s.svc.Competition(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handlePutCompetition(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_competition"
	var c model.Competition
	if err := s.decode(r, &c); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if cid := chi.URLParam(r, "cid"); c.ID != cid {
		s.fail(w, r, NewKind(op, ErrMismatch))
		return
	}
	if err := s.svc.PutCompetition(r.Context(), &c); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "saved"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	const op = "api.load"
	if err := s.svc.Load(r.Context(), chi.URLParam(r, "cid")); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "loaded"})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "api.reconcile"
	if err := s.svc.Reconcile(r.Context(), chi.URLParam(r, "cid")); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "reconciled"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset"
	preserve, err := queryBool(r, "preserve_prejudged")
	if err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	n, err := s.svc.ResetScores(r.Context(), chi.URLParam(r, "cid"), preserve)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{Deleted: n, PreservePrejudged: preserve})
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_scores"
	list, err := s.svc.Scores(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if list == nil {
		list = []model.Score{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_score"
	var req scoreRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	score := model.Score{
		ScoreKey: model.ScoreKey{Segment: req.Segment, Contestant: req.Contestant, Judge: req.Judge, Criterion: req.Criterion},
		Value:    *req.Value,
	}
	if err := s.svc.SubmitScore(r.Context(), chi.URLParam(r, "cid"), score); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

func (s *Server) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_score"
	var req keyRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := s.svc.DeleteScore(r.Context(), chi.URLParam(r, "cid"), req.key()); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "deleted"})
}
