// Package model contains domain models passed between layers.
package model

// Gender is used only for optional gender-separated ranking.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// CalculationMethod selects how a carry-forward criterion turns earlier
// segment totals into a value.
type CalculationMethod string

const (
	CalcRawAverage        CalculationMethod = "rawAverage"
	CalcPercentage        CalculationMethod = "percentage"
	CalcAccumulatedPoints CalculationMethod = "accumulatedPoints"
)

// DefaultMaxRawScore is the prejudged raw scale used when a criterion does not set one.
const DefaultMaxRawScore = 100

// Segment is an ordered phase of the competition. Order is the position in
// Competition.Segments.
type Segment struct {
	ID        string      `json:"id" yaml:"id" validate:"required"`
	Name      string      `json:"name" yaml:"name"`
	Advancing int         `json:"advancing" yaml:"advancing" validate:"min=0"`
	Criteria  []Criterion `json:"criteria" yaml:"criteria" validate:"dive"`
}

// Criterion is a scoring dimension within a segment.
type Criterion struct {
	ID          string  `json:"id" yaml:"id" validate:"required"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	MaxScore    float64 `json:"max_score" yaml:"max_score" validate:"gt=0"`

	IsPrejudged bool `json:"is_prejudged,omitempty" yaml:"is_prejudged"`
	// MaxRawScore is the external scale of prejudged raw scores; 0 means DefaultMaxRawScore.
	MaxRawScore float64 `json:"max_raw_score,omitempty" yaml:"max_raw_score" validate:"min=0"`

	IsCarryForward    bool              `json:"is_carry_forward,omitempty" yaml:"is_carry_forward"`
	SourceSegments    []string          `json:"source_segments,omitempty" yaml:"source_segments" validate:"required_if=IsCarryForward true"`
	ScalingFactor     float64           `json:"scaling_factor,omitempty" yaml:"scaling_factor" validate:"min=0,max=1"`
	CalculationMethod CalculationMethod `json:"calculation_method,omitempty" yaml:"calculation_method" validate:"omitempty,oneof=rawAverage percentage accumulatedPoints"`
}

// Derived reports whether judges never score this criterion directly.
func (c Criterion) Derived() bool {
	return c.IsPrejudged || c.IsCarryForward
}

// RawScale returns the configured prejudged raw maximum.
func (c Criterion) RawScale() float64 {
	if c.MaxRawScore <= 0 {
		return DefaultMaxRawScore
	}
	return c.MaxRawScore
}

// Contestant is a competitor.
type Contestant struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	Name         string `json:"name" yaml:"name"`
	Gender       Gender `json:"gender,omitempty" yaml:"gender" validate:"omitempty,oneof=Male Female"`
	SegmentID    string `json:"segment_id" yaml:"segment_id"`
	DisplayOrder int    `json:"display_order" yaml:"display_order"`
}

// Judge is a scorer.
type Judge struct {
	ID         string `json:"id" yaml:"id" validate:"required"`
	Name       string `json:"name" yaml:"name"`
	AccessCode string `json:"access_code,omitempty" yaml:"access_code"`
}

// ActiveCriterion is a (segment, criterion) pair open for live judging.
type ActiveCriterion struct {
	Segment   string `json:"segment" yaml:"segment"`
	Criterion string `json:"criterion" yaml:"criterion"`
}

// PrejudgedRaw is an externally supplied raw score for a prejudged criterion.
type PrejudgedRaw struct {
	Segment    string  `json:"segment" yaml:"segment"`
	Criterion  string  `json:"criterion" yaml:"criterion"`
	Contestant string  `json:"contestant" yaml:"contestant"`
	Raw        float64 `json:"raw" yaml:"raw"`
}

// Finalization records that a judge is done scoring a segment.
type Finalization struct {
	Judge   string `json:"judge"`
	Segment string `json:"segment"`
}

// Settings holds competition-wide options.
type Settings struct {
	SeparateByGender bool          `json:"separate_by_gender" yaml:"separate_by_gender"`
	Ranking          RankingConfig `json:"ranking" yaml:"ranking" validate:"-"`
}

// Competition is the authoritative snapshot of one competition.
type Competition struct {
	ID             string            `json:"id" yaml:"id" validate:"required"`
	Name           string            `json:"name" yaml:"name"`
	Settings       Settings          `json:"settings" yaml:"settings"`
	Segments       []Segment         `json:"segments" yaml:"segments" validate:"dive"`
	Contestants    []Contestant      `json:"contestants" yaml:"contestants" validate:"dive"`
	Judges         []Judge           `json:"judges" yaml:"judges" validate:"dive"`
	ActiveCriteria []ActiveCriterion `json:"active_criteria" yaml:"active_criteria"`
	Prejudged      []PrejudgedRaw    `json:"prejudged,omitempty" yaml:"prejudged"`
	Finalized      []Finalization    `json:"finalized,omitempty" yaml:"-"`
}

// SegmentIndex returns the position of a segment, or -1.
func (c *Competition) SegmentIndex(id string) int {
	for i := range c.Segments {
		if c.Segments[i].ID == id {
			return i
		}
	}
	return -1
}

// Segment looks up a segment by id.
func (c *Competition) Segment(id string) (Segment, bool) {
	if i := c.SegmentIndex(id); i >= 0 {
		return c.Segments[i], true
	}
	return Segment{}, false
}

// Criterion looks up a criterion within a segment.
func (c *Competition) Criterion(segmentID, criterionID string) (Criterion, bool) {
	seg, ok := c.Segment(segmentID)
	if !ok {
		return Criterion{}, false
	}
	for _, cr := range seg.Criteria {
		if cr.ID == criterionID {
			return cr, true
		}
	}
	return Criterion{}, false
}

// JudgeIDs returns judge identifiers in declaration order.
func (c *Competition) JudgeIDs() []string {
	ids := make([]string, len(c.Judges))
	for i, j := range c.Judges {
		ids[i] = j.ID
	}
	return ids
}

// HasJudge reports whether id is a real judge of this competition.
func (c *Competition) HasJudge(id string) bool {
	for _, j := range c.Judges {
		if j.ID == id {
			return true
		}
	}
	return false
}

// Contestant looks up a contestant by id.
func (c *Competition) Contestant(id string) (Contestant, bool) {
	for _, ct := range c.Contestants {
		if ct.ID == id {
			return ct, true
		}
	}
	return Contestant{}, false
}

// ContestantsIn returns the contestants currently in a segment.
func (c *Competition) ContestantsIn(segmentID string) []Contestant {
	out := make([]Contestant, 0, len(c.Contestants))
	for _, ct := range c.Contestants {
		if ct.SegmentID == segmentID {
			out = append(out, ct)
		}
	}
	return out
}

// Clone returns a deep copy.
func (c *Competition) Clone() *Competition {
	out := *c
	out.Segments = make([]Segment, len(c.Segments))
	for i, s := range c.Segments {
		s.Criteria = append([]Criterion(nil), s.Criteria...)
		for j := range s.Criteria {
			s.Criteria[j].SourceSegments = append([]string(nil), s.Criteria[j].SourceSegments...)
		}
		out.Segments[i] = s
	}
	out.Contestants = append([]Contestant(nil), c.Contestants...)
	out.Judges = append([]Judge(nil), c.Judges...)
	out.ActiveCriteria = append([]ActiveCriterion(nil), c.ActiveCriteria...)
	out.Prejudged = append([]PrejudgedRaw(nil), c.Prejudged...)
	out.Finalized = append([]Finalization(nil), c.Finalized...)
	out.Settings.Ranking = c.Settings.Ranking.Clone()
	return &out
}
