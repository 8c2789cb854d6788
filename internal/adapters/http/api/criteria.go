package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/podium/internal/domain/model"
)

type activeResponse struct {
	Segment   string `json:"segment"`
	Criterion string `json:"criterion"`
	Active    bool   `json:"active"`
	Changed   bool   `json:"changed"`
}

type finalizeResponse struct {
	Judge     string `json:"judge"`
	Segment   string `json:"segment"`
	Finalized bool   `json:"finalized"`
}

func (s *Server) handleListActive(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_active"
	list, err := s.svc.ActiveCriteria(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if list == nil {
		list = []model.ActiveCriterion{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSetActive(active bool) http.HandlerFunc {
	op := "api.deactivate"
	if active {
		op = "api.activate"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		seg, crit := chi.URLParam(r, "sid"), chi.URLParam(r, "crid")
		changed, err := s.svc.SetCriterionActive(r.Context(), chi.URLParam(r, "cid"), seg, crit, active)
		if err != nil {
			s.fail(w, r, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, activeResponse{Segment: seg, Criterion: crit, Active: active, Changed: changed})
	}
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	const op = "api.finalize"
	judge, seg := chi.URLParam(r, "jid"), chi.URLParam(r, "sid")
	if err := s.svc.FinalizeJudge(r.Context(), chi.URLParam(r, "cid"), judge, seg); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponse{Judge: judge, Segment: seg, Finalized: true})
}

func (s *Server) handleIsFinalized(w http.ResponseWriter, r *http.Request) {
	const op = "api.is_finalized"
	judge, seg := chi.URLParam(r, "jid"), chi.URLParam(r, "sid")
	done, err := s.svc.IsFinalized(r.Context(), chi.URLParam(r, "cid"), judge, seg)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponse{Judge: judge, Segment: seg, Finalized: done})
}

func (s *Server) handleGetRankingConfig(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking_config"
	cfg, err := s.svc.RankingConfig(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutRankingConfig(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_ranking_config"
	var cfg model.RankingConfig
	if err := s.decode(r, &cfg); err != nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	cid := chi.URLParam(r, "cid")
	if err := s.svc.SetRankingConfig(r.Context(), cid, cfg); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	saved, err := s.svc.RankingConfig(r.Context(), cid)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
