package service

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/podium/internal/adapters/mq/notify"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/derive"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scores"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// SubmitScore validates a judge's score, persists it, applies it locally and
// announces the change.
func (s *Service) SubmitScore(ctx context.Context, competitionID string, score model.Score) error {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return err
	}
	if err := s.checkSubmission(sess, score); err != nil {
		metrics.RecordScoreRejected("validation")
		s.logger.Warn(ctx, "score rejected",
			logger.String("competition", competitionID),
			logger.String("segment", score.Segment),
			logger.String("contestant", score.Contestant),
			logger.String("judge", score.Judge),
			logger.String("criterion", score.Criterion),
			logger.Float64("value", score.Value),
			logger.Error(err),
		)
		return err
	}

	score.Value = scores.Round2(score.Value)
	if err := repository.PersistScore(ctx, s.store, competitionID, score); err != nil {
		return fmt.Errorf("persist score: %w", err)
	}
	if !sess.scores.SetScore(ctx, score) {
		return fmt.Errorf("%w: %+v", ErrInvalidScore, score.ScoreKey)
	}
	metrics.RecordScoreWritten("judge")
	s.publish(ctx, notify.New(competitionID, score.ScoreKey, false))
	return nil
}

func (s *Service) checkSubmission(sess *session, score model.Score) error {
	if err := score.Validate(); err != nil {
		return err
	}
	if math.IsNaN(score.Value) || math.IsInf(score.Value, 0) {
		return fmt.Errorf("%w: value is not finite", ErrInvalidScore)
	}
	c := sess.competition()
	if !c.HasJudge(score.Judge) {
		return fmt.Errorf("%w: %s", ErrUnknownJudge, score.Judge)
	}
	if _, ok := c.Contestant(score.Contestant); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContestant, score.Contestant)
	}
	crit, ok := c.Criterion(score.Segment, score.Criterion)
	if !ok {
		return fmt.Errorf("%w: criterion %s/%s", ErrNotFound, score.Segment, score.Criterion)
	}
	if crit.Derived() {
		return fmt.Errorf("%w: %s", ErrDerivedCriterion, crit.ID)
	}
	if !sess.gate.IsActive(score.Segment, score.Criterion) {
		return fmt.Errorf("%w: %s/%s", ErrCriterionInactive, score.Segment, score.Criterion)
	}
	if scores.Round2(score.Value) > crit.MaxScore {
		return fmt.Errorf("%w: %.2f > %.2f", ErrScoreOutOfRange, score.Value, crit.MaxScore)
	}
	return nil
}

// DeleteScore removes one score from the store and the session.
func (s *Service) DeleteScore(ctx context.Context, competitionID string, key model.ScoreKey) error {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return err
	}
	if !key.Valid() {
		return fmt.Errorf("%w: incomplete key", ErrInvalidScore)
	}
	if err := s.store.DeleteScores(ctx, competitionID, []model.ScoreKey{key}); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	sess.scores.Delete(ctx, key.Segment, key.Contestant, key.Judge, key.Criterion)
	metrics.RecordScoreDeleted()
	s.publish(ctx, notify.New(competitionID, key, true))
	return nil
}

// ResetScores deletes every score of the competition. With preservePrejudged
// the scores of prejudged criteria stay. Judges' finalised flags are cleared.
func (s *Service) ResetScores(ctx context.Context, competitionID string, preservePrejudged bool) (int, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return 0, err
	}
	c := sess.competition()
	doomed := func(k model.ScoreKey) bool {
		if !preservePrejudged {
			return true
		}
		crit, ok := c.Criterion(k.Segment, k.Criterion)
		return !ok || !crit.IsPrejudged
	}

	stored, err := s.store.FetchScores(ctx, competitionID)
	if err != nil {
		return 0, storeErr(competitionID, err)
	}
	keys := make([]model.ScoreKey, 0, len(stored))
	for _, sc := range stored {
		if doomed(sc.ScoreKey) {
			keys = append(keys, sc.ScoreKey)
		}
	}
	if err := s.store.DeleteScores(ctx, competitionID, keys); err != nil {
		return 0, fmt.Errorf("reset scores: %w", err)
	}
	sess.scores.DeleteWhere(doomed)

	next := sess.update(func(c *model.Competition) { c.Finalized = nil })
	if err := s.store.SaveCompetition(ctx, next); err != nil {
		return len(keys), fmt.Errorf("reset finalizations: %w", err)
	}

	s.logger.Info(ctx, "scores reset",
		logger.String("competition", competitionID),
		logger.Bool("preserve_prejudged", preservePrejudged),
		logger.Int("deleted", len(keys)),
	)
	s.publishReload(ctx, competitionID)
	return len(keys), nil
}

// HandleNotification applies a change heard on the notification channel.
// Deletions are applied directly; anything else triggers a full reconcile.
// Notifications for competitions this instance has not loaded are ignored.
func (s *Service) HandleNotification(ctx context.Context, n model.Notification) error {
	sess, ok := s.loaded(n.CompetitionID)
	if !ok {
		return nil
	}
	if n.Deleted {
		k := n.Key()
		if !k.Valid() {
			return s.Load(ctx, n.CompetitionID)
		}
		sess.scores.Delete(ctx, k.Segment, k.Contestant, k.Judge, k.Criterion)
		return nil
	}
	return s.Load(ctx, n.CompetitionID)
}

// batchWriter persists a fan-out batch in one store write, so every judge
// gets the value or none does, and applies it to the session afterwards.
func (s *Service) batchWriter(competitionID string, sess *session) derive.BatchWriter {
	return derive.BatchWriterFunc(func(ctx context.Context, batch []model.Score) error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.PersistScores(ctx, competitionID, batch); err != nil {
			return fmt.Errorf("persist %d scores: %w", len(batch), err)
		}
		if err := sess.scores.ApplyBatch(ctx, batch); err != nil {
			return err
		}
		first := batch[0]
		s.publish(ctx, notify.New(competitionID, model.ScoreKey{Segment: first.Segment, Criterion: first.Criterion}, false))
		return nil
	})
}

// publishReload tells other instances to reconcile the whole competition.
func (s *Service) publishReload(ctx context.Context, competitionID string) {
	s.publish(ctx, notify.New(competitionID, model.ScoreKey{}, false))
}
