// Package fixture loads competitions and their scores from YAML files and
// seeds a store with them.
package fixture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/model"
)

// ErrInvalid marks a fixture that does not decode or validate.
var ErrInvalid = errors.New("invalid fixture")

// ScoreRow is one judged score.
type ScoreRow struct {
	Segment    string  `yaml:"segment"`
	Contestant string  `yaml:"contestant"`
	Judge      string  `yaml:"judge"`
	Criterion  string  `yaml:"criterion"`
	Value      float64 `yaml:"value"`
}

// Score converts the row.
func (r ScoreRow) Score() model.Score {
	return model.Score{
		ScoreKey: model.ScoreKey{Segment: r.Segment, Contestant: r.Contestant, Judge: r.Judge, Criterion: r.Criterion},
		Value:    r.Value,
	}
}

// Fixture is one competition and, optionally, scores already given.
type Fixture struct {
	Competition model.Competition `yaml:"competition"`
	Scores      []ScoreRow        `yaml:"scores"`
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a fixture, rejecting unknown keys, and validates it.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the competition and that every score refers to it.
func (f *Fixture) Validate() error {
	c := &f.Competition
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for i, row := range f.Scores {
		s := row.Score()
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: score %d: %v", ErrInvalid, i, err)
		}
		crit, ok := c.Criterion(s.Segment, s.Criterion)
		if !ok {
			return fmt.Errorf("%w: score %d: unknown criterion %s/%s", ErrInvalid, i, s.Segment, s.Criterion)
		}
		if !c.HasJudge(s.Judge) {
			return fmt.Errorf("%w: score %d: unknown judge %s", ErrInvalid, i, s.Judge)
		}
		if _, ok := c.Contestant(s.Contestant); !ok {
			return fmt.Errorf("%w: score %d: unknown contestant %s", ErrInvalid, i, s.Contestant)
		}
		if s.Value > crit.MaxScore {
			return fmt.Errorf("%w: score %d: %.2f exceeds %.2f", ErrInvalid, i, s.Value, crit.MaxScore)
		}
	}
	return nil
}

// Seed writes the competition and its scores to store.
func Seed(ctx context.Context, store repository.Store, f *Fixture) error {
	c := f.Competition
	if err := store.SaveCompetition(ctx, &c); err != nil {
		return fmt.Errorf("seed competition %s: %w", c.ID, err)
	}
	if len(f.Scores) == 0 {
		return nil
	}
	list := make([]model.Score, len(f.Scores))
	for i, row := range f.Scores {
		list[i] = row.Score()
	}
	if err := store.PersistScores(ctx, c.ID, list); err != nil {
		return fmt.Errorf("seed scores %s: %w", c.ID, err)
	}
	return nil
}
