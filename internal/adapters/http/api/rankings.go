package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/podium/internal/adapters/export"
	"github.com/okian/podium/internal/domain/model"
)

type rankingsResponse struct {
	Segment   string           `json:"segment"`
	Method    model.Method     `json:"method"`
	Standings []model.Standing `json:"standings"`
}

type awardResponse struct {
	Segment   string             `json:"segment"`
	Criterion string             `json:"criterion"`
	Entries   []model.AwardEntry `json:"entries"`
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.rankings"
	cid, seg := chi.URLParam(r, "cid"), chi.URLParam(r, "sid")
	standings, err := s.svc.Rankings(r.Context(), cid, seg)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	cfg, err := s.svc.RankingConfig(r.Context(), cid)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rankingsResponse{Segment: seg, Method: cfg.Method, Standings: standings})
}

func (s *Server) handleRankingsXLSX(w http.ResponseWriter, r *http.Request) {
	const op = "api.rankings_xlsx"
	cid, seg := chi.URLParam(r, "cid"), chi.URLParam(r, "sid")
	standings, err := s.svc.Rankings(r.Context(), cid, seg)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	title := seg
	if c, err := s.svc.Competition(r.Context(), cid); err == nil {
		if sg, ok := c.Segment(seg); ok && sg.Name != "" {
			title = fmt.Sprintf("%s: %s", c.Name, sg.Name)
		}
	}

	var buf bytes.Buffer
	if err := export.WriteRankingsXLSX(&buf, title, standings); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s-%s.xlsx\"", cid, seg))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAward(w http.ResponseWriter, r *http.Request) {
	const op = "api.award"
	seg, crit := chi.URLParam(r, "sid"), chi.URLParam(r, "crid")
	entries, err := s.svc.MinorAward(r.Context(), chi.URLParam(r, "cid"), seg, crit)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, awardResponse{Segment: seg, Criterion: crit, Entries: entries})
}
