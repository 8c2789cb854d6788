package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scores"
	"github.com/okian/podium/pkg/metrics"
)

// MemoryStore keeps competitions in process. It serves tests and
// single-instance deployments.
type MemoryStore struct {
	mu           sync.RWMutex
	competitions map[string]*model.Competition
	scores       map[string]map[string]float64 // competition -> field -> value
	opts         options
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		competitions: make(map[string]*model.Competition),
		scores:       make(map[string]map[string]float64),
		opts:         newOptions(opts),
	}
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

func (m *MemoryStore) FetchCompetition(_ context.Context, competitionID string) (*model.Competition, error) {
	defer observe("fetch_competition", time.Now())
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.competitions[competitionID]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *MemoryStore) SaveCompetition(_ context.Context, c *model.Competition) error {
	defer observe("save_competition", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.competitions[c.ID] = c.Clone()
	return nil
}

func (m *MemoryStore) FetchScores(_ context.Context, competitionID string) ([]model.Score, error) {
	defer observe("fetch_scores", time.Now())
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.competitions[competitionID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]model.Score, 0, len(m.scores[competitionID]))
	for f, v := range m.scores[competitionID] {
		k, err := parseField(f)
		if err != nil {
			continue
		}
		out = append(out, model.Score{ScoreKey: k, Value: scores.Round2(v)})
	}
	sort.Slice(out, func(i, j int) bool { return field(out[i].ScoreKey) < field(out[j].ScoreKey) })
	return out, nil
}

func (m *MemoryStore) PersistScores(_ context.Context, competitionID string, list []model.Score) error {
	defer observe("persist_scores", time.Now())
	if err := checkScores(list); err != nil {
		metrics.RecordStoreError("persist_scores")
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.competitions[competitionID]; !ok {
		return ErrNotFound
	}
	table := m.scores[competitionID]
	if table == nil {
		table = make(map[string]float64, len(list))
		m.scores[competitionID] = table
	}
	for _, s := range list {
		table[field(s.ScoreKey)] = scores.Round2(s.Value)
	}
	return nil
}

func (m *MemoryStore) DeleteScores(_ context.Context, competitionID string, keys []model.ScoreKey) error {
	defer observe("delete_scores", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.competitions[competitionID]; !ok {
		return ErrNotFound
	}
	table := m.scores[competitionID]
	for _, k := range keys {
		delete(table, field(k))
	}
	return nil
}

func (m *MemoryStore) SaveActiveCriteria(_ context.Context, competitionID string, active []model.ActiveCriterion) error {
	defer observe("save_active_criteria", time.Now())
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.competitions[competitionID]
	if !ok {
		return ErrNotFound
	}
	c.ActiveCriteria = append([]model.ActiveCriterion(nil), active...)
	return nil
}
