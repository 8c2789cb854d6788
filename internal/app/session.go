package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/okian/podium/internal/domain/derive"
	"github.com/okian/podium/internal/domain/gate"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scores"
	"github.com/okian/podium/pkg/logger"
)

// session is the live state of one loaded competition. The competition
// snapshot is copy-on-write so readers never take a lock; mu serialises
// writers.
type session struct {
	id        string
	mu        sync.Mutex
	comp      atomic.Pointer[model.Competition]
	scores    *scores.Aggregate
	gate      *gate.Gate
	prejudged *derive.PrejudgedScaler
}

func newSession(id string, lg logger.Logger) *session {
	s := &session{
		id:        id,
		scores:    scores.New(scores.WithLogger(lg)),
		prejudged: derive.NewPrejudgedScaler(derive.WithLogger(lg)),
	}
	s.comp.Store(&model.Competition{ID: id})
	s.gate = gate.New(s.lookup,
		gate.WithLogger(lg),
		gate.WithOnActivate(func(ctx context.Context, ac model.ActiveCriterion) {
			if n := s.reopen(ac.Segment); n > 0 {
				lg.Info(ctx, "judges reopened for new criterion",
					logger.String("competition", id),
					logger.String("segment", ac.Segment),
					logger.String("criterion", ac.Criterion),
					logger.Int("judges", n),
				)
			}
		}),
	)
	return s
}

func (s *session) competition() *model.Competition {
	return s.comp.Load()
}

func (s *session) lookup(segment, criterion string) (model.Criterion, bool) {
	return s.competition().Criterion(segment, criterion)
}

// update applies fn to a copy of the snapshot and publishes the copy.
func (s *session) update(fn func(c *model.Competition)) *model.Competition {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.competition().Clone()
	fn(next)
	s.comp.Store(next)
	return next
}

// reset replaces every piece of local state with the authoritative one.
func (s *session) reset(c *model.Competition, list []model.Score) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comp.Store(c.Clone())
	s.scores.Replace(list)
	s.gate.Replace(c.ActiveCriteria)
	s.prejudged.Load(c.Prejudged)
}

// reopen clears every judge's finalised flag for segment.
func (s *session) reopen(segment string) int {
	removed := 0
	s.update(func(c *model.Competition) {
		kept := c.Finalized[:0]
		for _, f := range c.Finalized {
			if f.Segment == segment {
				removed++
				continue
			}
			kept = append(kept, f)
		}
		c.Finalized = kept
	})
	return removed
}

func (s *session) finalized(judge, segment string) bool {
	for _, f := range s.competition().Finalized {
		if f.Judge == judge && f.Segment == segment {
			return true
		}
	}
	return false
}

// contestantIDs lists the contestants currently in segment, in display order.
func contestantIDs(list []model.Contestant) []string {
	sorted := append([]model.Contestant(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayOrder != sorted[j].DisplayOrder {
			return sorted[i].DisplayOrder < sorted[j].DisplayOrder
		}
		return sorted[i].ID < sorted[j].ID
	})
	out := make([]string, len(sorted))
	for i, c := range sorted {
		out[i] = c.ID
	}
	return out
}
