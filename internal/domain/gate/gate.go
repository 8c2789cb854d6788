// Package gate tracks which (segment, criterion) pairs are open for live judging.
package gate

import (
	"context"
	"sort"
	"sync"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// CriterionLookup resolves a criterion definition.
type CriterionLookup func(segment, criterion string) (model.Criterion, bool)

// ActivateFunc is called after a previously inactive criterion becomes active.
type ActivateFunc func(ctx context.Context, ac model.ActiveCriterion)

// Gate is the active criteria set of one competition.
type Gate struct {
	mu         sync.RWMutex
	active     map[model.ActiveCriterion]struct{}
	lookup     CriterionLookup
	onActivate []ActivateFunc
	logger     logger.Logger
}

// New creates an empty Gate. Criteria unknown to lookup, prejudged criteria
// and carry-forward criteria can never become active.
func New(lookup CriterionLookup, opts ...Option) *Gate {
	g := &Gate{
		active: make(map[model.ActiveCriterion]struct{}),
		lookup: lookup,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) judgeable(segment, criterion string) bool {
	if g.lookup == nil {
		return false
	}
	c, ok := g.lookup(segment, criterion)
	return ok && !c.Derived()
}

// Activate opens a criterion for judging. It returns true only when the
// criterion was inactive before; activate callbacks run in that case.
func (g *Gate) Activate(ctx context.Context, segment, criterion string) bool {
	if !g.judgeable(segment, criterion) {
		g.logger.Debug(ctx, "activation ignored",
			logger.String("segment", segment),
			logger.String("criterion", criterion),
		)
		return false
	}
	ac := model.ActiveCriterion{Segment: segment, Criterion: criterion}

	g.mu.Lock()
	if _, ok := g.active[ac]; ok {
		g.mu.Unlock()
		return false
	}
	g.active[ac] = struct{}{}
	callbacks := append([]ActivateFunc(nil), g.onActivate...)
	g.mu.Unlock()

	for _, fn := range callbacks {
		fn(ctx, ac)
	}
	return true
}

// Deactivate closes a criterion. It returns true if it was active.
func (g *Gate) Deactivate(_ context.Context, segment, criterion string) bool {
	ac := model.ActiveCriterion{Segment: segment, Criterion: criterion}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.active[ac]; !ok {
		return false
	}
	delete(g.active, ac)
	return true
}

// Clear closes every criterion.
func (g *Gate) Clear() {
	g.mu.Lock()
	g.active = make(map[model.ActiveCriterion]struct{})
	g.mu.Unlock()
}

// IsActive reports whether a criterion is open for judging.
func (g *Gate) IsActive(segment, criterion string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.active[model.ActiveCriterion{Segment: segment, Criterion: criterion}]
	return ok
}

// Active returns the open criteria sorted by segment then criterion.
func (g *Gate) Active() []model.ActiveCriterion {
	g.mu.RLock()
	out := make([]model.ActiveCriterion, 0, len(g.active))
	for ac := range g.active {
		out = append(out, ac)
	}
	g.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Segment != out[j].Segment {
			return out[i].Segment < out[j].Segment
		}
		return out[i].Criterion < out[j].Criterion
	})
	return out
}

// Replace sets the open criteria wholesale, dropping anything not judgeable.
// Callbacks do not run; Replace mirrors state that was already announced.
func (g *Gate) Replace(list []model.ActiveCriterion) {
	next := make(map[model.ActiveCriterion]struct{}, len(list))
	for _, ac := range list {
		if g.judgeable(ac.Segment, ac.Criterion) {
			next[ac] = struct{}{}
		}
	}
	g.mu.Lock()
	g.active = next
	g.mu.Unlock()
}

// DeleteSegment closes every criterion of a segment and returns how many were open.
func (g *Gate) DeleteSegment(segment string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for ac := range g.active {
		if ac.Segment == segment {
			delete(g.active, ac)
			n++
		}
	}
	return n
}

// Len returns the number of open criteria.
func (g *Gate) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.active)
}
