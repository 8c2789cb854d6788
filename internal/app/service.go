// Package service is the scoring façade: it owns one session per loaded
// competition and keeps it consistent with the authoritative store.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/derive"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/poller"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Publisher sends change notifications to other instances.
type Publisher interface {
	Publish(ctx context.Context, n model.Notification) error
}

// Service implements the scoring operations behind the HTTP API.
type Service struct {
	store   repository.Store
	bus     Publisher
	deduper dedupe.Deduper

	calc         *ranking.Calculator
	carryForward *derive.CarryForward

	defaultTrim    float64
	defaultRanking model.RankingConfig

	mu       sync.RWMutex
	sessions map[string]*session
	pollers  map[string]*poller.Poller[snapshot]
	stopped  bool

	logger logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		defaultTrim:    model.DefaultTrimPercentage,
		defaultRanking: model.RankingConfig{Method: model.MethodAvg, Tiebreaker: model.TiebreakNone},
		sessions:       make(map[string]*session),
		pollers:        make(map[string]*poller.Poller[snapshot]),
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	s.calc = ranking.NewCalculator(
		ranking.WithLogger(s.logger),
		ranking.WithDefaultTrimPercentage(s.defaultTrim),
	)
	s.carryForward = derive.NewCarryForward(derive.WithLogger(s.logger))
	return s
}

// PutCompetition validates and stores a competition, then loads it.
func (s *Service) PutCompetition(ctx context.Context, c *model.Competition) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveCompetition(ctx, c); err != nil {
		return fmt.Errorf("save competition %s: %w", c.ID, err)
	}
	return s.Load(ctx, c.ID)
}

// Load fetches the competition and its scores wholesale and rebuilds the
// session from them.
func (s *Service) Load(ctx context.Context, competitionID string) error {
	snap, err := s.fetch(ctx, competitionID)
	if err != nil {
		return err
	}
	sess := s.sessionFor(competitionID)
	sess.reset(snap.Competition, snap.Scores)
	s.logger.Info(ctx, "competition loaded",
		logger.String("competition", competitionID),
		logger.Int("scores", len(snap.Scores)),
		logger.Int("active", len(snap.Competition.ActiveCriteria)),
	)
	metrics.UpdateScoresCached(s.scoreCount())
	return nil
}

// snapshot is the authoritative state of one competition.
type snapshot struct {
	Competition *model.Competition
	Scores      []model.Score
}

func (s *Service) fetch(ctx context.Context, competitionID string) (snapshot, error) {
	c, err := s.store.FetchCompetition(ctx, competitionID)
	if err != nil {
		return snapshot{}, storeErr(competitionID, err)
	}
	list, err := s.store.FetchScores(ctx, competitionID)
	if err != nil {
		return snapshot{}, storeErr(competitionID, err)
	}
	return snapshot{Competition: c, Scores: list}, nil
}

func storeErr(competitionID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: competition %s", ErrNotFound, competitionID)
	}
	return fmt.Errorf("competition %s: %w", competitionID, err)
}

func (s *Service) sessionFor(competitionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[competitionID]
	if !ok {
		sess = newSession(competitionID, s.logger)
		s.sessions[competitionID] = sess
		metrics.UpdateSessionCount(len(s.sessions))
	}
	return sess
}

// session returns the loaded session, loading it on first use.
func (s *Service) session(ctx context.Context, competitionID string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[competitionID]
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return nil, ErrStopped
	}
	if ok {
		return sess, nil
	}
	if err := s.Load(ctx, competitionID); err != nil {
		return nil, err
	}
	return s.sessionFor(competitionID), nil
}

// loaded returns the session only if it is already loaded.
func (s *Service) loaded(competitionID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[competitionID]
	return sess, ok
}

// Competition returns a copy of the loaded competition snapshot.
func (s *Service) Competition(ctx context.Context, competitionID string) (*model.Competition, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return sess.competition().Clone(), nil
}

// Scores returns every score of the competition as held locally.
func (s *Service) Scores(ctx context.Context, competitionID string) ([]model.Score, error) {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return sess.scores.Scores(), nil
}

// Unload forgets a session and stops its watcher.
func (s *Service) Unload(competitionID string) {
	s.mu.Lock()
	delete(s.sessions, competitionID)
	p := s.pollers[competitionID]
	delete(s.pollers, competitionID)
	metrics.UpdateSessionCount(len(s.sessions))
	s.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// Stop halts every watcher. Further operations return ErrStopped.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	pollers := s.pollers
	s.pollers = make(map[string]*poller.Poller[snapshot])
	s.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
	s.logger.Info(context.Background(), "scoring service stopped")
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Sessions       int                      `json:"sessions"`
	Scores         int                      `json:"scores"`
	ActiveCriteria int                      `json:"active_criteria"`
	DedupeSize     int64                    `json:"dedupe_size"`
	Competitions   []string                 `json:"competitions"`
	Pollers        map[string]poller.Status `json:"pollers,omitempty"`
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Sessions: len(s.sessions), Competitions: make([]string, 0, len(s.sessions))}
	for id, sess := range s.sessions {
		st.Competitions = append(st.Competitions, id)
		st.Scores += sess.scores.Len()
		st.ActiveCriteria += sess.gate.Len()
	}
	sort.Strings(st.Competitions)
	if len(s.pollers) > 0 {
		st.Pollers = make(map[string]poller.Status, len(s.pollers))
		for id, p := range s.pollers {
			st.Pollers[id] = p.Status()
		}
	}
	if s.deduper != nil {
		st.DedupeSize = s.deduper.Size()
	}

	metrics.UpdateSessionCount(st.Sessions)
	metrics.UpdateScoresCached(st.Scores)
	metrics.UpdateActiveCriteria(st.ActiveCriteria)
	return st
}

func (s *Service) scoreCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		n += sess.scores.Len()
	}
	return n
}

// publish announces a change. Failures are logged; the store already holds
// the change and other instances converge on their next reconcile.
func (s *Service) publish(ctx context.Context, n model.Notification) {
	if s.bus == nil {
		return
	}
	if s.deduper != nil {
		s.deduper.SeenAndRecord(ctx, n.ID)
	}
	if err := s.bus.Publish(ctx, n); err != nil {
		s.logger.Warn(ctx, "notification publish failed",
			logger.String("competition", n.CompetitionID),
			logger.Error(err),
		)
	}
}
