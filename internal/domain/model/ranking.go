package model

// Method names a ranking algorithm.
type Method string

const (
	MethodAvg         Method = "avg"
	MethodAvgRank     Method = "avg-rank"
	MethodRankAvgRank Method = "rank-avg-rank"
	MethodWeighted    Method = "weighted"
	MethodTrimmed     Method = "trimmed"
	MethodMedian      Method = "median"
	MethodBorda       Method = "borda"
	MethodCustom      Method = "custom"
)

// Methods lists every supported ranking method.
var Methods = []Method{ //nolint:gochecknoglobals // read-only list
	MethodAvg, MethodAvgRank, MethodRankAvgRank, MethodWeighted,
	MethodTrimmed, MethodMedian, MethodBorda, MethodCustom,
}

// LowerIsBetter reports whether the method's final score is rank-like.
func (m Method) LowerIsBetter() bool {
	return m == MethodAvgRank || m == MethodRankAvgRank
}

// Tiebreak names a tiebreak strategy.
type Tiebreak string

const (
	TiebreakHighestScore     Tiebreak = "highest-score"
	TiebreakHeadToHead       Tiebreak = "head-to-head"
	TiebreakSpecificCriteria Tiebreak = "specific-criteria"
	TiebreakNone             Tiebreak = "none"
)

// DefaultTrimPercentage is the trimmed-mean percentage used when unset.
const DefaultTrimPercentage = 20

// RankingConfig selects a method, its parameters and a tiebreaker.
type RankingConfig struct {
	Method         Method             `json:"method" yaml:"method" validate:"required,oneof=avg avg-rank rank-avg-rank weighted trimmed median borda custom"`
	TrimPercentage float64            `json:"trim_percentage,omitempty" yaml:"trim_percentage" validate:"min=0,max=100"`
	SegmentWeights map[string]float64 `json:"segment_weights,omitempty" yaml:"segment_weights" validate:"dive,min=0"`
	CustomFormula  string             `json:"custom_formula,omitempty" yaml:"custom_formula" validate:"max=512"`

	Tiebreaker        Tiebreak `json:"tiebreaker,omitempty" yaml:"tiebreaker" validate:"omitempty,oneof=highest-score head-to-head specific-criteria none"`
	TiebreakCriterion string   `json:"tiebreak_criterion,omitempty" yaml:"tiebreak_criterion" validate:"required_if=Tiebreaker specific-criteria"`
}

// Clone returns a copy that shares no maps with c.
func (c RankingConfig) Clone() RankingConfig {
	if c.SegmentWeights != nil {
		w := make(map[string]float64, len(c.SegmentWeights))
		for k, v := range c.SegmentWeights {
			w[k] = v
		}
		c.SegmentWeights = w
	}
	return c
}

// Result is one contestant's computed score and rank.
type Result struct {
	ContestantID string  `json:"contestant_id"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
}

// Standing is a ranked contestant as reported to callers.
type Standing struct {
	ContestantID string  `json:"contestant_id"`
	Name         string  `json:"name"`
	Gender       Gender  `json:"gender,omitempty"`
	Score        float64 `json:"score"`
	Rank         int     `json:"rank"`
	Advancing    bool    `json:"advancing"`
}

// AwardEntry is one row of a minor-award table. Rank is fractional for ties.
type AwardEntry struct {
	ContestantID string  `json:"contestant_id"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Rank         float64 `json:"rank"`
}
