// Package repository persists competitions and their scores.
package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/okian/podium/internal/domain/model"
)

// Store provides read/write access to the authoritative competition state.
// Score values are rounded to two decimals on both read and write.
type Store interface {
	// FetchCompetition returns the competition snapshot.
	// Returns ErrNotFound if the competition is unknown.
	FetchCompetition(ctx context.Context, competitionID string) (*model.Competition, error)

	// SaveCompetition replaces the competition snapshot.
	SaveCompetition(ctx context.Context, c *model.Competition) error

	// FetchScores returns every stored score of the competition.
	FetchScores(ctx context.Context, competitionID string) ([]model.Score, error)

	// PersistScores upserts scores. Either all are written or none.
	PersistScores(ctx context.Context, competitionID string, list []model.Score) error

	// DeleteScores removes the given tuples. Missing tuples are ignored.
	DeleteScores(ctx context.Context, competitionID string, keys []model.ScoreKey) error

	// SaveActiveCriteria replaces the active criteria of the competition.
	SaveActiveCriteria(ctx context.Context, competitionID string, active []model.ActiveCriterion) error
}

// PersistScore upserts a single score.
func PersistScore(ctx context.Context, s Store, competitionID string, score model.Score) error {
	return s.PersistScores(ctx, competitionID, []model.Score{score})
}

const fieldSep = "|"

// field encodes a score tuple as a flat key.
func field(k model.ScoreKey) string {
	return k.Segment + fieldSep + k.Contestant + fieldSep + k.Judge + fieldSep + k.Criterion
}

// parseField is the inverse of field.
func parseField(f string) (model.ScoreKey, error) {
	parts := strings.Split(f, fieldSep)
	if len(parts) != 4 {
		return model.ScoreKey{}, fmt.Errorf("%w: %q", ErrCorruptField, f)
	}
	k := model.ScoreKey{Segment: parts[0], Contestant: parts[1], Judge: parts[2], Criterion: parts[3]}
	if !k.Valid() {
		return model.ScoreKey{}, fmt.Errorf("%w: %q", ErrCorruptField, f)
	}
	return k, nil
}

func checkScores(list []model.Score) error {
	for _, s := range list {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidScore, err)
		}
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return fmt.Errorf("%w: value %v", ErrInvalidScore, s.Value)
		}
		for _, id := range []string{s.Segment, s.Contestant, s.Judge, s.Criterion} {
			if strings.Contains(id, fieldSep) {
				return fmt.Errorf("%w: id %q contains %q", ErrInvalidScore, id, fieldSep)
			}
		}
	}
	return nil
}
