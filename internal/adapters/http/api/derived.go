package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type rawRequest struct {
	Raw *float64 `json:"raw" validate:"required,gte=0"`
}

type maxRawRequest struct {
	MaxRaw float64 `json:"max_raw" validate:"gt=0"`
}

// derivedCall is a preview or commit of one derived criterion.
type derivedCall func(r *http.Request, cid, seg, crit string) (map[string]float64, error)

func (s *Server) handleDerived(op string, committed bool, call derivedCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seg, crit := chi.URLParam(r, "sid"), chi.URLParam(r, "crid")
		values, err := call(r, chi.URLParam(r, "cid"), seg, crit)
		if err != nil {
			s.fail(w, r, Wrap(op, err))
			return
		}
		if values == nil {
			values = map[string]float64{}
		}
		writeJSON(w, http.StatusOK, valuesResponse{Segment: seg, Criterion: crit, Committed: committed, Values: values})
	}
}

func (s *Server) handlePreviewCarryForward(w http.ResponseWriter, r *http.Request) {
	s.handleDerived("api.preview_carry_forward", false, func(r *http.Request, cid, seg, crit string) (map[string]float64, error) {
		return s.svc.PreviewCarryForward(r.Context(), cid, seg, crit)
	})(w, r)
}

func (s *Server) handleCommitCarryForward(w http.ResponseWriter, r *http.Request) {
	s.handleDerived("api.commit_carry_forward", true, func(r *http.Request, cid, seg, crit string) (map[string]float64, error) {
		return s.svc.CommitCarryForward(r.Context(), cid, seg, crit)
	})(w, r)
}

func (s *Server) handlePreviewPrejudged(w http.ResponseWriter, r *http.Request) {
	s.handleDerived("api.preview_prejudged", false, func(r *http.Request, cid, seg, crit string) (map[string]float64, error) {
		return s.svc.PreviewPrejudged(r.Context(), cid, seg, crit)
	})(w, r)
}

func (s *Server) handleCommitPrejudged(w http.ResponseWriter, r *http.Request) {
	s.handleDerived("api.commit_prejudged", true, func(r *http.Request, cid, seg, crit string) (map[string]float64, error) {
		return s.svc.CommitPrejudged(r.Context(), cid, seg, crit)
	})(w, r)
}

func (s *Server) handleSetRaw(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_prejudged_raw"
	var req rawRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	err := s.svc.SetPrejudgedRaw(r.Context(), chi.URLParam(r, "cid"),
		chi.URLParam(r, "sid"), chi.URLParam(r, "crid"), chi.URLParam(r, "ctid"), *req.Raw)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "recorded"})
}

func (s *Server) handleSetMaxRaw(w http.ResponseWriter, r *http.Request) {
	const op = "api.set_prejudged_max_raw"
	var req maxRawRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	s.handleDerived(op, true, func(r *http.Request, cid, seg, crit string) (map[string]float64, error) {
		return s.svc.SetPrejudgedMaxRaw(r.Context(), cid, seg, crit, req.MaxRaw)
	})(w, r)
}
