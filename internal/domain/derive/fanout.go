// Package derive computes carry-forward and prejudged criterion values and
// fans each value out identically to every judge.
package derive

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scores"
	"github.com/okian/podium/pkg/metrics"
)

// BatchWriter applies a fan-out batch as one unit. An error means the caller
// must treat the whole batch as not applied and retry all of it.
type BatchWriter interface {
	ApplyBatch(ctx context.Context, batch []model.Score) error
}

// BatchWriterFunc adapts a function to BatchWriter.
type BatchWriterFunc func(ctx context.Context, batch []model.Score) error

// ApplyBatch calls f.
func (f BatchWriterFunc) ApplyBatch(ctx context.Context, batch []model.Score) error {
	return f(ctx, batch)
}

// FanOut returns one score per judge for the tuple, all with the same rounded value.
func FanOut(segment, contestant, criterion string, judges []string, value float64) []model.Score {
	v := scores.Round2(value)
	out := make([]model.Score, 0, len(judges))
	for _, j := range judges {
		out = append(out, model.Score{
			ScoreKey: model.ScoreKey{Segment: segment, Contestant: contestant, Judge: j, Criterion: criterion},
			Value:    v,
		})
	}
	return out
}

// fanOutAll builds the batch for every contestant in values, in contestant order.
func fanOutAll(segment, criterion string, judges []string, values map[string]float64) []model.Score {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	batch := make([]model.Score, 0, len(ids)*len(judges))
	for _, id := range ids {
		batch = append(batch, FanOut(segment, id, criterion, judges, values[id])...)
	}
	return batch
}

func commit(ctx context.Context, w BatchWriter, kind string, batch []model.Score) error {
	if err := w.ApplyBatch(ctx, batch); err != nil {
		metrics.RecordFanOutFailure(kind)
		return fmt.Errorf("%w: %s: %v", ErrFanOut, kind, err)
	}
	metrics.RecordFanOut(kind)
	return nil
}
