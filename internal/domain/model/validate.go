package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New() //nolint:gochecknoglobals // validator caches struct metadata

// Validate checks a ranking config.
func (c RankingConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks a score's identifiers and value.
func (s Score) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScore, err)
	}
	return nil
}

// Validate checks field constraints and cross references.
func (c *Competition) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCompetition, err)
	}
	if c.Settings.Ranking.Method != "" {
		if err := c.Settings.Ranking.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCompetition, err)
		}
	}

	seen := make(map[string]int, len(c.Segments))
	for i, seg := range c.Segments {
		if _, dup := seen[seg.ID]; dup {
			return fmt.Errorf("%w: duplicate segment %q", ErrInvalidCompetition, seg.ID)
		}
		seen[seg.ID] = i

		crit := make(map[string]struct{}, len(seg.Criteria))
		for _, cr := range seg.Criteria {
			if _, dup := crit[cr.ID]; dup {
				return fmt.Errorf("%w: duplicate criterion %q in segment %q", ErrInvalidCompetition, cr.ID, seg.ID)
			}
			crit[cr.ID] = struct{}{}
			if cr.IsPrejudged && cr.IsCarryForward {
				return fmt.Errorf("%w: criterion %q is both prejudged and carry-forward", ErrInvalidCompetition, cr.ID)
			}
			for _, src := range cr.SourceSegments {
				j, ok := seen[src]
				if !ok || j >= i {
					return fmt.Errorf("%w: criterion %q source %q is not an earlier segment", ErrInvalidCompetition, cr.ID, src)
				}
			}
		}
	}

	judges := make(map[string]struct{}, len(c.Judges))
	for _, j := range c.Judges {
		if _, dup := judges[j.ID]; dup {
			return fmt.Errorf("%w: duplicate judge %q", ErrInvalidCompetition, j.ID)
		}
		judges[j.ID] = struct{}{}
	}

	contestants := make(map[string]struct{}, len(c.Contestants))
	for _, ct := range c.Contestants {
		if _, dup := contestants[ct.ID]; dup {
			return fmt.Errorf("%w: duplicate contestant %q", ErrInvalidCompetition, ct.ID)
		}
		contestants[ct.ID] = struct{}{}
		if ct.SegmentID != "" {
			if _, ok := seen[ct.SegmentID]; !ok {
				return fmt.Errorf("%w: contestant %q in unknown segment %q", ErrInvalidCompetition, ct.ID, ct.SegmentID)
			}
		}
	}
	return nil
}
