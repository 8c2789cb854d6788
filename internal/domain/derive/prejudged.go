package derive

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scores"
	"github.com/okian/podium/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type critKey struct {
	segment   string
	criterion string
}

// Scale maps raw on a 0..maxRaw scale to 0..maxScore, rounded to two decimals.
func Scale(raw, maxScore, maxRaw float64) float64 {
	if maxRaw <= 0 {
		maxRaw = model.DefaultMaxRawScore
	}
	return scores.Round2(raw * (maxScore / maxRaw))
}

// PrejudgedScaler keeps externally supplied raw scores and their configured
// raw maximum, and fans the scaled value out to every judge.
type PrejudgedScaler struct {
	common
	mu     sync.RWMutex
	raw    map[critKey]map[string]float64
	maxRaw map[critKey]float64
}

// NewPrejudgedScaler creates an empty PrejudgedScaler.
func NewPrejudgedScaler(opts ...Option) *PrejudgedScaler {
	p := &PrejudgedScaler{
		common: defaults("prejudged-scaler"),
		raw:    make(map[critKey]map[string]float64),
		maxRaw: make(map[critKey]float64),
	}
	for _, opt := range opts {
		opt(&p.common)
	}
	return p
}

func validRaw(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// SetRaw records a contestant's raw score for a prejudged criterion.
func (p *PrejudgedScaler) SetRaw(segment string, crit model.Criterion, contestant string, raw float64) error {
	if !crit.IsPrejudged {
		return fmt.Errorf("%w: %s", ErrNotPrejudged, crit.ID)
	}
	if segment == "" || contestant == "" || !validRaw(raw) {
		return fmt.Errorf("%w: %s/%s/%s=%v", ErrInvalidRaw, segment, crit.ID, contestant, raw)
	}
	k := critKey{segment: segment, criterion: crit.ID}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.raw[k] == nil {
		p.raw[k] = make(map[string]float64)
	}
	p.raw[k][contestant] = raw
	return nil
}

// Raw returns a recorded raw score.
func (p *PrejudgedScaler) Raw(segment, criterion, contestant string) (float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.raw[critKey{segment: segment, criterion: criterion}][contestant]
	return v, ok
}

// MaxRaw returns the raw maximum for a criterion: an override set through
// SetMaxRaw, else the criterion's own RawScale.
func (p *PrejudgedScaler) MaxRaw(segment string, crit model.Criterion) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.maxRaw[critKey{segment: segment, criterion: crit.ID}]; ok {
		return v
	}
	return crit.RawScale()
}

// SetMaxRaw changes the raw maximum. Callers must re-commit; see Rescale.
func (p *PrejudgedScaler) SetMaxRaw(segment string, crit model.Criterion, maxRaw float64) error {
	if !crit.IsPrejudged {
		return fmt.Errorf("%w: %s", ErrNotPrejudged, crit.ID)
	}
	if !validRaw(maxRaw) || maxRaw == 0 {
		return fmt.Errorf("%w: max raw %v", ErrInvalidRaw, maxRaw)
	}
	p.mu.Lock()
	p.maxRaw[critKey{segment: segment, criterion: crit.ID}] = maxRaw
	p.mu.Unlock()
	return nil
}

// Preview returns the scaled value of every entered raw score for a criterion.
func (p *PrejudgedScaler) Preview(segment string, crit model.Criterion) (map[string]float64, error) {
	if !crit.IsPrejudged {
		return nil, fmt.Errorf("%w: %s", ErrNotPrejudged, crit.ID)
	}
	maxRaw := p.MaxRaw(segment, crit)
	p.mu.RLock()
	defer p.mu.RUnlock()
	raws := p.raw[critKey{segment: segment, criterion: crit.ID}]
	out := make(map[string]float64, len(raws))
	for cont, raw := range raws {
		out[cont] = Scale(raw, crit.MaxScore, maxRaw)
	}
	return out, nil
}

// Commit fans out the scaled value of every entered raw score to every judge
// in a single batch.
func (p *PrejudgedScaler) Commit(ctx context.Context, w BatchWriter, segment string, crit model.Criterion, judges []string) (map[string]float64, error) {
	ctx, span := p.tracer.Start(ctx, "PrejudgedScaler.Commit",
		trace.WithAttributes(
			attribute.String("segment", segment),
			attribute.String("criterion", crit.ID),
			attribute.Int("judges", len(judges)),
		))
	defer span.End()

	values, err := p.Preview(segment, crit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(judges) == 0 {
		span.SetStatus(codes.Error, ErrNoJudges.Error())
		return nil, ErrNoJudges
	}
	if len(values) == 0 {
		return values, nil
	}
	if err := commit(ctx, w, "prejudged", fanOutAll(segment, crit.ID, judges, values)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error(ctx, "prejudged fan-out failed",
			logger.String("segment", segment),
			logger.String("criterion", crit.ID),
			logger.Error(err),
		)
		return nil, err
	}
	return values, nil
}

// Rescale sets a new raw maximum and recommits every entered raw score. If
// the commit fails the previous maximum is restored.
func (p *PrejudgedScaler) Rescale(ctx context.Context, w BatchWriter, segment string, crit model.Criterion, judges []string, maxRaw float64) (map[string]float64, error) {
	k := critKey{segment: segment, criterion: crit.ID}
	p.mu.RLock()
	prev, had := p.maxRaw[k]
	p.mu.RUnlock()

	if err := p.SetMaxRaw(segment, crit, maxRaw); err != nil {
		return nil, err
	}
	values, err := p.Commit(ctx, w, segment, crit, judges)
	if err != nil {
		p.mu.Lock()
		if had {
			p.maxRaw[k] = prev
		} else {
			delete(p.maxRaw, k)
		}
		p.mu.Unlock()
		return nil, err
	}
	p.logger.Info(ctx, "prejudged max raw changed",
		logger.String("segment", segment),
		logger.String("criterion", crit.ID),
		logger.Float64("max_raw", maxRaw),
		logger.Int("recomputed", len(values)),
	)
	return values, nil
}

// Entries lists every raw score, sorted.
func (p *PrejudgedScaler) Entries() []model.PrejudgedRaw {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []model.PrejudgedRaw
	for k, raws := range p.raw {
		for cont, raw := range raws {
			out = append(out, model.PrejudgedRaw{Segment: k.segment, Criterion: k.criterion, Contestant: cont, Raw: raw})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Segment != b.Segment {
			return a.Segment < b.Segment
		}
		if a.Criterion != b.Criterion {
			return a.Criterion < b.Criterion
		}
		return a.Contestant < b.Contestant
	})
	return out
}

// Load replaces every raw score and drops max-raw overrides, so the
// criterion's own MaxRawScore applies again. Entries with invalid values are
// skipped.
func (p *PrejudgedScaler) Load(entries []model.PrejudgedRaw) {
	next := make(map[critKey]map[string]float64)
	for _, e := range entries {
		if e.Segment == "" || e.Criterion == "" || e.Contestant == "" || !validRaw(e.Raw) {
			continue
		}
		k := critKey{segment: e.Segment, criterion: e.Criterion}
		if next[k] == nil {
			next[k] = make(map[string]float64)
		}
		next[k][e.Contestant] = e.Raw
	}
	p.mu.Lock()
	p.raw = next
	p.maxRaw = make(map[critKey]float64)
	p.mu.Unlock()
}
