package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/podium/internal/domain/formula"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/pkg/logger"
)

// SetRankingConfig validates and stores the competition's ranking config.
func (s *Service) SetRankingConfig(ctx context.Context, competitionID string, cfg model.RankingConfig) error {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return err
	}
	if cfg.Tiebreaker == "" {
		cfg.Tiebreaker = model.TiebreakNone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Method == model.MethodCustom && cfg.CustomFormula != "" {
		if _, err := formula.Compile(cfg.CustomFormula); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	c := sess.competition()
	for seg := range cfg.SegmentWeights {
		if _, ok := c.Segment(seg); !ok {
			return fmt.Errorf("%w: weight for unknown segment %s", ErrInvalidConfig, seg)
		}
	}

	next := sess.update(func(c *model.Competition) { c.Settings.Ranking = cfg.Clone() })
	if err := s.store.SaveCompetition(ctx, next); err != nil {
		return fmt.Errorf("save ranking config: %w", err)
	}
	s.logger.Info(ctx, "ranking config changed",
		logger.String("competition", competitionID),
		logger.String("method", string(cfg.Method)),
		logger.String("tiebreaker", string(cfg.Tiebreaker)),
	)
	s.publishReload(ctx, competitionID)
	return nil
}

// RankingConfig returns the config rankings are computed with.
func (s *Service) RankingConfig(ctx context.Context, competitionID string) (model.RankingConfig, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return model.RankingConfig{}, err
	}
	return s.rankingConfig(sess.competition()), nil
}

func (s *Service) rankingConfig(c *model.Competition) model.RankingConfig {
	if c.Settings.Ranking.Method == "" {
		return s.defaultRanking.Clone()
	}
	return c.Settings.Ranking.Clone()
}

// Rankings ranks the contestants currently in a segment. With gender
// separation each gender is ranked on its own.
func (s *Service) Rankings(ctx context.Context, competitionID, segment string) ([]model.Standing, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	c := sess.competition()
	seg, ok := c.Segment(segment)
	if !ok {
		return nil, fmt.Errorf("%w: segment %s", ErrNotFound, segment)
	}

	contestants := c.ContestantsIn(segment)
	groups := [][]model.Contestant{contestants}
	if c.Settings.SeparateByGender {
		groups = byGender(contestants)
	}

	cfg := s.rankingConfig(c)
	judges := c.JudgeIDs()
	out := make([]model.Standing, 0, len(contestants))
	for _, group := range groups {
		results := s.calc.Calculate(ctx, ranking.Input{
			Segment:     segment,
			Contestants: contestantIDs(group),
			Judges:      judges,
			Scores:      sess.scores,
			Config:      cfg,
		})
		for _, r := range results {
			ct, _ := c.Contestant(r.ContestantID)
			out = append(out, model.Standing{
				ContestantID: r.ContestantID,
				Name:         ct.Name,
				Gender:       ct.Gender,
				Score:        r.Score,
				Rank:         r.Rank,
				Advancing:    seg.Advancing > 0 && r.Rank <= seg.Advancing,
			})
		}
	}
	return out, nil
}

// byGender splits contestants into one group per gender, in gender order.
func byGender(list []model.Contestant) [][]model.Contestant {
	idx := make(map[model.Gender][]model.Contestant)
	for _, c := range list {
		idx[c.Gender] = append(idx[c.Gender], c)
	}
	genders := make([]model.Gender, 0, len(idx))
	for g := range idx {
		genders = append(genders, g)
	}
	sort.Slice(genders, func(i, j int) bool { return genders[i] < genders[j] })
	out := make([][]model.Contestant, len(genders))
	for i, g := range genders {
		out[i] = idx[g]
	}
	return out
}

// MinorAward ranks the segment's contestants on a single criterion with
// fractional tie ranks.
func (s *Service) MinorAward(ctx context.Context, competitionID, segment, criterion string) ([]model.AwardEntry, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	c := sess.competition()
	if _, ok := c.Criterion(segment, criterion); !ok {
		return nil, fmt.Errorf("%w: criterion %s/%s", ErrNotFound, segment, criterion)
	}

	ids := contestantIDs(c.ContestantsIn(segment))
	avgs, ranks := ranking.Award(sess.scores, segment, criterion, ids, c.JudgeIDs())
	out := make([]model.AwardEntry, 0, len(ids))
	for _, id := range ids {
		ct, _ := c.Contestant(id)
		out = append(out, model.AwardEntry{ContestantID: id, Name: ct.Name, Score: avgs[id], Rank: ranks[id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ContestantID < out[j].ContestantID
	})
	return out, nil
}
