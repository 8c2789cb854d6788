package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/okian/podium/internal/domain/formula"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Table is the read side of a score table. scores.Nested and
// scores.Aggregate both satisfy it.
type Table interface {
	JudgeTotals(segment, contestant string) map[string]float64
	TotalForJudge(segment, contestant, judge string) float64
	CriterionScores(segment, contestant, judge string) map[string]float64
}

// Input is everything a ranking needs.
type Input struct {
	Segment     string
	Contestants []string
	// Judges are the real judges; totals from anyone else are ignored.
	// When empty, every judge present in Scores counts.
	Judges []string
	Scores Table
	Config model.RankingConfig
}

// Calculator computes rankings. It is stateless and safe for concurrent use.
type Calculator struct {
	logger      logger.Logger
	defaultTrim float64
	tracer      trace.Tracer
}

// NewCalculator creates a Calculator.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		logger:      logger.Discard(),
		defaultTrim: model.DefaultTrimPercentage,
		tracer:      otel.Tracer("ranking-calculator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sheet holds the per-judge totals of every contestant. totals[c] lists the
// totals of judges who scored c, in judge order.
type sheet struct {
	in      Input
	judges  []string
	totals  map[string][]float64
	byJudge map[string]map[string]float64
}

func (c *Calculator) buildSheet(in Input) *sheet {
	s := &sheet{
		in:      in,
		totals:  make(map[string][]float64, len(in.Contestants)),
		byJudge: make(map[string]map[string]float64, len(in.Contestants)),
	}
	allowed := make(map[string]struct{}, len(in.Judges))
	for _, j := range in.Judges {
		allowed[j] = struct{}{}
	}
	seen := make(map[string]struct{})
	for _, cont := range in.Contestants {
		jt := in.Scores.JudgeTotals(in.Segment, cont)
		kept := make(map[string]float64, len(jt))
		for j, v := range jt {
			if len(allowed) > 0 {
				if _, ok := allowed[j]; !ok {
					continue
				}
			}
			kept[j] = v
			seen[j] = struct{}{}
		}
		s.byJudge[cont] = kept
	}

	if len(in.Judges) > 0 {
		s.judges = append(s.judges, in.Judges...)
	} else {
		for j := range seen {
			s.judges = append(s.judges, j)
		}
		sort.Strings(s.judges)
	}
	for _, cont := range in.Contestants {
		vals := make([]float64, 0, len(s.byJudge[cont]))
		for _, j := range s.judges {
			if v, ok := s.byJudge[cont][j]; ok {
				vals = append(vals, v)
			}
		}
		s.totals[cont] = vals
	}
	return s
}

// activeJudges returns judges who scored at least one contestant.
func (s *sheet) activeJudges() []string {
	out := make([]string, 0, len(s.judges))
	for _, j := range s.judges {
		for _, cont := range s.in.Contestants {
			if _, ok := s.byJudge[cont][j]; ok {
				out = append(out, j)
				break
			}
		}
	}
	return out
}

// judgeRanks converts one judge's totals to competition ranks over every
// contestant; contestants the judge did not score count as 0.
func (s *sheet) judgeRanks(judge string) map[string]int {
	local := make(map[string]float64, len(s.in.Contestants))
	for _, cont := range s.in.Contestants {
		local[cont] = s.byJudge[cont][judge]
	}
	return CompetitionRanks(local, false)
}

// Calculate returns one result per contestant, ordered by rank. The reported
// score is the method's score before any tiebreak adjustment.
func (c *Calculator) Calculate(ctx context.Context, in Input) []model.Result {
	start := time.Now()
	cfg := c.normalize(ctx, in.Config)
	in.Config = cfg

	ctx, span := c.tracer.Start(ctx, "Calculator.Calculate",
		trace.WithAttributes(
			attribute.String("segment", in.Segment),
			attribute.String("method", string(cfg.Method)),
			attribute.String("tiebreaker", string(cfg.Tiebreaker)),
			attribute.Int("contestants", len(in.Contestants)),
			attribute.Int("judges", len(in.Judges)),
		))
	defer span.End()

	s := c.buildSheet(in)
	final := c.scores(ctx, s, cfg)

	lower := cfg.Method.LowerIsBetter()
	adjusted := final
	if cfg.Tiebreaker != model.TiebreakNone {
		adjusted = NewTiebreaker(WithTiebreakLogger(c.logger)).Apply(ctx, TiebreakInput{
			Segment:     in.Segment,
			Scores:      final,
			Judges:      s.judges,
			Table:       in.Scores,
			Strategy:    cfg.Tiebreaker,
			Criterion:   cfg.TiebreakCriterion,
			LowerBetter: lower,
		})
	}

	ranks := CompetitionRanks(adjusted, lower)
	order := Order(adjusted, lower)
	out := make([]model.Result, 0, len(order))
	for _, id := range order {
		out = append(out, model.Result{ContestantID: id, Score: final[id], Rank: ranks[id]})
	}

	elapsed := time.Since(start)
	metrics.RecordRankingComputed(string(cfg.Method), float64(elapsed.Microseconds())/1000)
	c.logger.Debug(ctx, "ranking computed",
		logger.String("segment", in.Segment),
		logger.String("method", string(cfg.Method)),
		logger.Int("contestants", len(out)),
		logger.Duration("took", elapsed),
	)
	return out
}

// normalize fills defaults and downgrades invalid configs to avg.
func (c *Calculator) normalize(ctx context.Context, cfg model.RankingConfig) model.RankingConfig {
	cfg = cfg.Clone()
	if cfg.Tiebreaker == "" {
		cfg.Tiebreaker = model.TiebreakNone
	}
	if cfg.TrimPercentage <= 0 {
		cfg.TrimPercentage = c.defaultTrim
	}
	if cfg.Method == "" {
		cfg.Method = model.MethodAvg
	}
	if err := cfg.Validate(); err != nil {
		c.logger.Warn(ctx, "invalid ranking config, using avg", logger.Error(err))
		cfg.Method = model.MethodAvg
		if cfg.TrimPercentage > 100 {
			cfg.TrimPercentage = c.defaultTrim
		}
		if cfg.Tiebreaker == model.TiebreakSpecificCriteria && cfg.TiebreakCriterion == "" {
			cfg.Tiebreaker = model.TiebreakNone
		}
	}
	return cfg
}

func (c *Calculator) scores(ctx context.Context, s *sheet, cfg model.RankingConfig) map[string]float64 {
	out := make(map[string]float64, len(s.in.Contestants))
	switch cfg.Method {
	case model.MethodMedian:
		for cont, vals := range s.totals {
			out[cont] = median(vals)
		}
	case model.MethodTrimmed:
		for cont, vals := range s.totals {
			out[cont] = trimmedMean(vals, cfg.TrimPercentage)
		}
	case model.MethodWeighted:
		w := cfg.SegmentWeights[s.in.Segment]
		if w <= 0 {
			w = 1
		}
		for cont, vals := range s.totals {
			out[cont] = mean(vals) * w
		}
	case model.MethodAvgRank:
		avgs := make(map[string]float64, len(s.totals))
		for cont, vals := range s.totals {
			avgs[cont] = mean(vals)
		}
		for cont, r := range CompetitionRanks(avgs, false) {
			out[cont] = float64(r)
		}
	case model.MethodRankAvgRank:
		sums := make(map[string]float64, len(s.in.Contestants))
		judges := s.activeJudges()
		for _, j := range judges {
			for cont, r := range s.judgeRanks(j) {
				sums[cont] += float64(r)
			}
		}
		for _, cont := range s.in.Contestants {
			if len(judges) > 0 {
				out[cont] = sums[cont] / float64(len(judges))
			} else {
				out[cont] = 0
			}
		}
	case model.MethodBorda:
		n := len(s.in.Contestants)
		for _, cont := range s.in.Contestants {
			out[cont] = 0
		}
		for _, j := range s.activeJudges() {
			for cont, r := range s.judgeRanks(j) {
				out[cont] += float64(n - r + 1)
			}
		}
	case model.MethodCustom:
		c.custom(ctx, s, cfg.CustomFormula, out)
	default:
		for cont, vals := range s.totals {
			out[cont] = mean(vals)
		}
	}
	return out
}

// custom evaluates the formula per contestant, falling back to avg_score on
// any error. Contestants nobody scored tie for last place.
func (c *Calculator) custom(ctx context.Context, s *sheet, src string, out map[string]float64) {
	expr, compileErr := formula.Compile(src)
	if compileErr != nil {
		c.logger.Warn(ctx, "custom formula unusable, falling back to avg_score",
			logger.String("formula", src), logger.Error(compileErr))
	}

	var unscored []string
	floor := 0.0
	for _, cont := range s.in.Contestants {
		vals := s.totals[cont]
		if len(vals) == 0 {
			unscored = append(unscored, cont)
			continue
		}
		lo, hi := minMax(vals)
		vars := formula.Vars{
			Avg:        mean(vals),
			Median:     median(vals),
			Min:        lo,
			Max:        hi,
			JudgeCount: float64(len(vals)),
		}
		v := vars.Avg
		if compileErr != nil {
			metrics.RecordFormulaFallback()
		} else if got, err := expr.Eval(vars); err != nil {
			metrics.RecordFormulaFallback()
			c.logger.Warn(ctx, "custom formula failed, falling back to avg_score",
				logger.String("contestant", cont), logger.String("formula", src), logger.Error(err))
		} else {
			v = got
		}
		out[cont] = v
		if v < floor {
			floor = v
		}
	}
	for _, cont := range unscored {
		out[cont] = floor
	}
}
