package service

import (
	"context"
	"fmt"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// SetCriterionActive opens or closes a criterion for live judging and
// reports whether the set changed. Opening a criterion that was closed
// reopens every judge's scoring of that segment.
func (s *Service) SetCriterionActive(ctx context.Context, competitionID, segment, criterion string, active bool) (bool, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return false, err
	}
	crit, ok := sess.competition().Criterion(segment, criterion)
	if !ok {
		return false, fmt.Errorf("%w: criterion %s/%s", ErrNotFound, segment, criterion)
	}
	if active && crit.Derived() {
		return false, fmt.Errorf("%w: %s", ErrDerivedCriterion, criterion)
	}

	if !active {
		if !sess.gate.Deactivate(ctx, segment, criterion) {
			return false, nil
		}
		next := sess.update(func(c *model.Competition) { c.ActiveCriteria = sess.gate.Active() })
		if err := s.store.SaveActiveCriteria(ctx, competitionID, next.ActiveCriteria); err != nil {
			restored := sess.update(func(c *model.Competition) {
				c.ActiveCriteria = append(c.ActiveCriteria, model.ActiveCriterion{Segment: segment, Criterion: criterion})
			})
			sess.gate.Replace(restored.ActiveCriteria)
			return false, fmt.Errorf("save active criteria: %w", err)
		}
		s.criteriaChanged(ctx, competitionID, segment, criterion, active)
		return true, nil
	}

	if !sess.gate.Activate(ctx, segment, criterion) {
		return false, nil
	}
	// The activation callback has already cleared the segment's finalised
	// flags in the snapshot, so the whole snapshot is saved.
	next := sess.update(func(c *model.Competition) { c.ActiveCriteria = sess.gate.Active() })
	if err := s.store.SaveCompetition(ctx, next); err != nil {
		sess.gate.Deactivate(ctx, segment, criterion)
		return false, fmt.Errorf("save active criteria: %w", err)
	}
	s.criteriaChanged(ctx, competitionID, segment, criterion, active)
	return true, nil
}

func (s *Service) criteriaChanged(ctx context.Context, competitionID, segment, criterion string, active bool) {
	s.logger.Info(ctx, "active criteria changed",
		logger.String("competition", competitionID),
		logger.String("segment", segment),
		logger.String("criterion", criterion),
		logger.Bool("active", active),
	)
	metrics.UpdateActiveCriteria(s.Stats().ActiveCriteria)
	s.publishReload(ctx, competitionID)
}

// ActiveCriteria lists the open criteria.
func (s *Service) ActiveCriteria(ctx context.Context, competitionID string) ([]model.ActiveCriterion, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return sess.gate.Active(), nil
}

// FinalizeJudge marks a judge as done scoring a segment.
func (s *Service) FinalizeJudge(ctx context.Context, competitionID, judge, segment string) error {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return err
	}
	c := sess.competition()
	if !c.HasJudge(judge) {
		return fmt.Errorf("%w: %s", ErrUnknownJudge, judge)
	}
	if _, ok := c.Segment(segment); !ok {
		return fmt.Errorf("%w: segment %s", ErrNotFound, segment)
	}
	if sess.finalized(judge, segment) {
		return nil
	}
	next := sess.update(func(c *model.Competition) {
		c.Finalized = append(c.Finalized, model.Finalization{Judge: judge, Segment: segment})
	})
	if err := s.store.SaveCompetition(ctx, next); err != nil {
		return fmt.Errorf("save finalization: %w", err)
	}
	s.publishReload(ctx, competitionID)
	return nil
}

// IsFinalized reports whether a judge is done scoring a segment.
func (s *Service) IsFinalized(ctx context.Context, competitionID, judge, segment string) (bool, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return false, err
	}
	if !sess.competition().HasJudge(judge) {
		return false, fmt.Errorf("%w: %s", ErrUnknownJudge, judge)
	}
	return sess.finalized(judge, segment), nil
}
