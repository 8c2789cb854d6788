package scores

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Aggregate is the score table of one competition. Writes are applied in
// call order and the last write for a tuple wins.
type Aggregate struct {
	mu     sync.RWMutex
	data   Nested
	logger logger.Logger
}

// New creates an empty Aggregate.
func New(opts ...Option) *Aggregate {
	a := &Aggregate{
		data:   make(Nested),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregate) reject(ctx context.Context, k model.ScoreKey, value float64, reason string) {
	metrics.RecordScoreRejected(reason)
	a.logger.Warn(ctx, "score rejected",
		logger.String("reason", reason),
		logger.String("segment", k.Segment),
		logger.String("contestant", k.Contestant),
		logger.String("judge", k.Judge),
		logger.String("criterion", k.Criterion),
		logger.Float64("value", value),
	)
}

func check(k model.ScoreKey, value float64) string {
	switch {
	case !k.Valid():
		return "empty_id"
	case !validValue(value):
		return "invalid_value"
	default:
		return ""
	}
}

// Set stores a rounded score. It is a logged no-op if an identifier is empty
// or value is not a finite number >= 0; the return value reports whether the
// score was stored.
func (a *Aggregate) Set(ctx context.Context, seg, cont, judge, crit string, value float64) bool {
	return a.SetScore(ctx, model.Score{
		ScoreKey: model.ScoreKey{Segment: seg, Contestant: cont, Judge: judge, Criterion: crit},
		Value:    value,
	})
}

// SetScore is Set for a model.Score.
func (a *Aggregate) SetScore(ctx context.Context, s model.Score) bool {
	if reason := check(s.ScoreKey, s.Value); reason != "" {
		a.reject(ctx, s.ScoreKey, s.Value, reason)
		return false
	}
	a.mu.Lock()
	a.data.set(s.ScoreKey, Round2(s.Value))
	a.mu.Unlock()
	return true
}

// Delete removes a score and prunes empty parents. Absent tuples are a no-op.
func (a *Aggregate) Delete(_ context.Context, seg, cont, judge, crit string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data.remove(model.ScoreKey{Segment: seg, Contestant: cont, Judge: judge, Criterion: crit})
}

// ApplyBatch writes every score under one lock, or none of them if any is invalid.
func (a *Aggregate) ApplyBatch(ctx context.Context, batch []model.Score) error {
	for _, s := range batch {
		if reason := check(s.ScoreKey, s.Value); reason != "" {
			a.reject(ctx, s.ScoreKey, s.Value, reason)
			return fmt.Errorf("%w: %s %s/%s/%s/%s", ErrInvalidScore, reason, s.Segment, s.Contestant, s.Judge, s.Criterion)
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range batch {
		a.data.set(s.ScoreKey, Round2(s.Value))
	}
	return nil
}

// DeleteWhere removes every tuple matching pred and returns how many went.
func (a *Aggregate) DeleteWhere(pred func(model.ScoreKey) bool) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	var doomed []model.ScoreKey
	for _, s := range Flatten(a.data) {
		if pred(s.ScoreKey) {
			doomed = append(doomed, s.ScoreKey)
		}
	}
	for _, k := range doomed {
		a.data.remove(k)
	}
	return len(doomed)
}

// Replace swaps the whole table for the given flat list.
func (a *Aggregate) Replace(list []model.Score) {
	n := Nest(list)
	a.mu.Lock()
	a.data = n
	a.mu.Unlock()
}

// Get returns one score.
func (a *Aggregate) Get(seg, cont, judge, crit string) (float64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.Get(seg, cont, judge, crit)
}

// Has reports whether a score is present.
func (a *Aggregate) Has(seg, cont, judge, crit string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.Has(seg, cont, judge, crit)
}

// TotalForJudge sums one judge's scores for a contestant in a segment.
func (a *Aggregate) TotalForJudge(seg, cont, judge string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.TotalForJudge(seg, cont, judge)
}

// TotalForContestant sums the per-judge totals of a contestant in a segment.
func (a *Aggregate) TotalForContestant(seg, cont string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.TotalForContestant(seg, cont)
}

// JudgeTotals returns one total per judge who scored the contestant.
func (a *Aggregate) JudgeTotals(seg, cont string) map[string]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.JudgeTotals(seg, cont)
}

// CriterionScores returns a copy of one judge's criterion scores.
func (a *Aggregate) CriterionScores(seg, cont, judge string) map[string]float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.CriterionScores(seg, cont, judge)
}

// Snapshot returns a deep copy safe to read without locking.
func (a *Aggregate) Snapshot() Nested {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.Clone()
}

// Scores returns the table as a sorted flat list.
func (a *Aggregate) Scores() []model.Score {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Flatten(a.data)
}

// Len returns the number of stored scores.
func (a *Aggregate) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data.Len()
}
