package simulate

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/fixture"
)

// Plan is a generated judging session.
type Plan struct {
	Competition *model.Competition
	// Criteria are the judgeable criteria opened before scoring.
	Criteria []model.ActiveCriterion
	Scores   []model.Score
}

// Generate derives a fresh competition from the fixture under a new id, adds
// extra contestants to the first segment and draws one score per judge for
// every judgeable criterion of every segment that holds contestants. Stored
// scores and prejudged raws of the fixture are dropped.
func Generate(f *fixture.Fixture, extra int, seed uint64) (*Plan, error) {
	if len(f.Competition.Segments) == 0 {
		return nil, fmt.Errorf("%w: fixture has no segments", fixture.ErrInvalid)
	}
	c := f.Competition.Clone()
	base := c.ID
	if base == "" {
		base = defaultCompetition
	}
	c.ID = base + "-" + uuid.NewString()[:idPrefixLength]
	c.Prejudged = nil
	c.Finalized = nil
	c.ActiveCriteria = nil

	first := c.Segments[0].ID
	for i := range extra {
		gender := model.GenderFemale
		if i%2 == 1 {
			gender = model.GenderMale
		}
		c.Contestants = append(c.Contestants, model.Contestant{
			ID:           uuid.NewString(),
			Name:         fmt.Sprintf("Contestant %d", len(c.Contestants)+1),
			Gender:       gender,
			SegmentID:    first,
			DisplayOrder: len(c.Contestants) + 1,
		})
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	p := &Plan{Competition: c}
	for _, seg := range c.Segments {
		contestants := c.ContestantsIn(seg.ID)
		if len(contestants) == 0 {
			continue
		}
		for _, cr := range seg.Criteria {
			if cr.Derived() {
				continue
			}
			p.Criteria = append(p.Criteria, model.ActiveCriterion{Segment: seg.ID, Criterion: cr.ID})
			for _, ct := range contestants {
				for _, j := range c.Judges {
					p.Scores = append(p.Scores, model.Score{
						ScoreKey: model.ScoreKey{Segment: seg.ID, Contestant: ct.ID, Judge: j.ID, Criterion: cr.ID},
						Value:    draw(rng, cr.MaxScore),
					})
				}
			}
		}
	}
	return p, nil
}

// draw picks a value in [0, max] on a half-point grid.
func draw(rng *rand.Rand, maxScore float64) float64 {
	steps := int(math.Floor(maxScore / scoreStep))
	return float64(rng.IntN(steps+1)) * scoreStep
}
