package service

import (
	"context"
	"fmt"

	"github.com/okian/podium/internal/domain/derive"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// criterion resolves a criterion or returns ErrNotFound.
func criterion(c *model.Competition, segment, criterion string) (model.Criterion, error) {
	crit, ok := c.Criterion(segment, criterion)
	if !ok {
		return model.Criterion{}, fmt.Errorf("%w: criterion %s/%s", ErrNotFound, segment, criterion)
	}
	return crit, nil
}

func (s *Service) carryForwardRequest(sess *session, segment, criterionID string) (derive.Request, error) {
	c := sess.competition()
	crit, err := criterion(c, segment, criterionID)
	if err != nil {
		return derive.Request{}, err
	}
	return derive.Request{
		Segment:      segment,
		Criterion:    crit,
		Contestants:  contestantIDs(c.ContestantsIn(segment)),
		Judges:       c.JudgeIDs(),
		Scores:       sess.scores,
		SegmentIndex: c.SegmentIndex,
	}, nil
}

// PreviewCarryForward computes the carry-forward value of every contestant
// in the segment without writing anything.
func (s *Service) PreviewCarryForward(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	req, err := s.carryForwardRequest(sess, segment, criterionID)
	if err != nil {
		return nil, err
	}
	return s.carryForward.Preview(ctx, req)
}

// CommitCarryForward computes the carry-forward values and fans them out to
// every judge as one batch.
func (s *Service) CommitCarryForward(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	req, err := s.carryForwardRequest(sess, segment, criterionID)
	if err != nil {
		return nil, err
	}
	return s.carryForward.Commit(ctx, s.batchWriter(competitionID, sess), req)
}

// SetPrejudgedRaw records a contestant's raw prejudged score. It is not
// fanned out until CommitPrejudged.
func (s *Service) SetPrejudgedRaw(ctx context.Context, competitionID, segment, criterionID, contestant string, raw float64) error {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return err
	}
	c := sess.competition()
	crit, err := criterion(c, segment, criterionID)
	if err != nil {
		return err
	}
	if _, ok := c.Contestant(contestant); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContestant, contestant)
	}
	if err := sess.prejudged.SetRaw(segment, crit, contestant, raw); err != nil {
		return err
	}
	next := sess.update(func(c *model.Competition) { c.Prejudged = sess.prejudged.Entries() })
	if err := s.store.SaveCompetition(ctx, next); err != nil {
		return fmt.Errorf("save prejudged raw: %w", err)
	}
	return nil
}

// PreviewPrejudged returns the scaled value of every entered raw score.
func (s *Service) PreviewPrejudged(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	crit, err := criterion(sess.competition(), segment, criterionID)
	if err != nil {
		return nil, err
	}
	return sess.prejudged.Preview(segment, crit)
}

// CommitPrejudged fans every scaled prejudged value out to every judge.
func (s *Service) CommitPrejudged(ctx context.Context, competitionID, segment, criterionID string) (map[string]float64, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	c := sess.competition()
	crit, err := criterion(c, segment, criterionID)
	if err != nil {
		return nil, err
	}
	return sess.prejudged.Commit(ctx, s.batchWriter(competitionID, sess), segment, crit, c.JudgeIDs())
}

// SetPrejudgedMaxRaw changes the raw scale of a prejudged criterion and
// recommits every raw score already entered for it.
func (s *Service) SetPrejudgedMaxRaw(ctx context.Context, competitionID, segment, criterionID string, maxRaw float64) (map[string]float64, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	c := sess.competition()
	crit, err := criterion(c, segment, criterionID)
	if err != nil {
		return nil, err
	}
	values, err := sess.prejudged.Rescale(ctx, s.batchWriter(competitionID, sess), segment, crit, c.JudgeIDs(), maxRaw)
	if err != nil {
		return nil, err
	}
	next := sess.update(func(c *model.Competition) {
		for i := range c.Segments {
			if c.Segments[i].ID != segment {
				continue
			}
			for j := range c.Segments[i].Criteria {
				if c.Segments[i].Criteria[j].ID == criterionID {
					c.Segments[i].Criteria[j].MaxRawScore = maxRaw
				}
			}
		}
	})
	if err := s.store.SaveCompetition(ctx, next); err != nil {
		s.logger.Error(ctx, "max raw applied but not saved",
			logger.String("competition", competitionID),
			logger.String("criterion", criterionID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("save max raw: %w", err)
	}
	return values, nil
}
