package derive

import (
	"context"
	"fmt"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scores"
	"github.com/okian/podium/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SourceTable is the read side of a score table.
type SourceTable interface {
	JudgeTotals(segment, contestant string) map[string]float64
}

// Request describes one carry-forward derivation.
type Request struct {
	Segment     string
	Criterion   model.Criterion
	Contestants []string
	// Judges are the real judges; only they count and only they receive the value.
	Judges []string
	Scores SourceTable
	// SegmentIndex gives segment order. Sources must precede Segment.
	SegmentIndex func(segment string) int
}

// CarryForward derives a criterion's value from earlier segment totals.
type CarryForward struct {
	common
}

// NewCarryForward creates a CarryForward.
func NewCarryForward(opts ...Option) *CarryForward {
	cf := &CarryForward{common: defaults("carry-forward")}
	for _, opt := range opts {
		opt(&cf.common)
	}
	return cf
}

func (cf *CarryForward) check(req Request) error {
	if !req.Criterion.IsCarryForward {
		return fmt.Errorf("%w: %s", ErrNotCarryForward, req.Criterion.ID)
	}
	if len(req.Criterion.SourceSegments) == 0 {
		return fmt.Errorf("%w: %s has no sources", ErrInvalidSource, req.Criterion.ID)
	}
	if req.SegmentIndex != nil {
		target := req.SegmentIndex(req.Segment)
		for _, src := range req.Criterion.SourceSegments {
			if i := req.SegmentIndex(src); i < 0 || i >= target {
				return fmt.Errorf("%w: %s", ErrInvalidSource, src)
			}
		}
	}
	return nil
}

// Value computes the rounded derived value for one contestant.
func (cf *CarryForward) Value(req Request, contestant string) float64 {
	allowed := make(map[string]struct{}, len(req.Judges))
	for _, j := range req.Judges {
		allowed[j] = struct{}{}
	}

	// judge totals summed over every source segment
	perJudge := make(map[string]float64)
	for _, src := range req.Criterion.SourceSegments {
		for j, total := range req.Scores.JudgeTotals(src, contestant) {
			if _, ok := allowed[j]; !ok {
				continue
			}
			perJudge[j] += total
		}
	}

	var sum float64
	for _, t := range perJudge {
		sum += t
	}
	var avg float64
	if len(perJudge) > 0 {
		avg = sum / float64(len(perJudge))
	}

	var v float64
	switch req.Criterion.CalculationMethod {
	case model.CalcPercentage:
		v = avg * req.Criterion.ScalingFactor
	case model.CalcAccumulatedPoints:
		v = sum * req.Criterion.ScalingFactor
	default:
		v = avg
	}
	return scores.Round2(v)
}

// Preview computes every contestant's derived value without writing anything.
func (cf *CarryForward) Preview(_ context.Context, req Request) (map[string]float64, error) {
	if err := cf.check(req); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(req.Contestants))
	for _, cont := range req.Contestants {
		out[cont] = cf.Value(req, cont)
	}
	return out, nil
}

// Commit computes every derived value and fans it out to every judge in a
// single batch. Re-running with unchanged inputs overwrites with the same values.
func (cf *CarryForward) Commit(ctx context.Context, w BatchWriter, req Request) (map[string]float64, error) {
	ctx, span := cf.tracer.Start(ctx, "CarryForward.Commit",
		trace.WithAttributes(
			attribute.String("segment", req.Segment),
			attribute.String("criterion", req.Criterion.ID),
			attribute.Int("contestants", len(req.Contestants)),
			attribute.Int("judges", len(req.Judges)),
		))
	defer span.End()

	values, err := cf.Preview(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(req.Judges) == 0 {
		span.SetStatus(codes.Error, ErrNoJudges.Error())
		return nil, ErrNoJudges
	}

	if err := commit(ctx, w, "carry_forward", fanOutAll(req.Segment, req.Criterion.ID, req.Judges, values)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		cf.logger.Error(ctx, "carry-forward fan-out failed",
			logger.String("segment", req.Segment),
			logger.String("criterion", req.Criterion.ID),
			logger.Error(err),
		)
		return nil, err
	}
	cf.logger.Info(ctx, "carry-forward committed",
		logger.String("segment", req.Segment),
		logger.String("criterion", req.Criterion.ID),
		logger.Int("contestants", len(values)),
	)
	return values, nil
}
