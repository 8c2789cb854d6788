package service

import (
	"context"
	"time"

	"github.com/okian/podium/internal/domain/poller"
	"github.com/okian/podium/pkg/logger"
)

// Watch starts a reconciliation poller for a competition. Every interval the
// authoritative state is fetched; when it differs from the last fetch the
// session is rebuilt from it. The poller outlives ctx and runs until Unwatch
// or Stop. Watching an already watched competition is a no-op.
func (s *Service) Watch(ctx context.Context, competitionID string, interval time.Duration) error {
	sess, err := s.session(ctx, competitionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if _, ok := s.pollers[competitionID]; ok {
		s.mu.Unlock()
		return nil
	}
	p := poller.New[snapshot](
		func(ctx context.Context) (snapshot, error) { return s.fetch(ctx, competitionID) },
		interval,
		poller.WithName[snapshot]("competition:"+competitionID),
		poller.WithLogger[snapshot](s.logger),
		poller.WithOnChange(func(ctx context.Context, snap snapshot) {
			sess.reset(snap.Competition, snap.Scores)
			s.logger.Debug(ctx, "session reconciled",
				logger.String("competition", competitionID),
				logger.Int("scores", len(snap.Scores)),
			)
		}),
	)
	s.pollers[competitionID] = p
	s.mu.Unlock()

	return p.Start(context.WithoutCancel(ctx))
}

// Unwatch stops a competition's poller.
func (s *Service) Unwatch(competitionID string) {
	s.mu.Lock()
	p := s.pollers[competitionID]
	delete(s.pollers, competitionID)
	s.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// Reconcile runs the competition's poller once now. Without a poller it
// reloads the session directly.
func (s *Service) Reconcile(ctx context.Context, competitionID string) error {
	s.mu.RLock()
	p := s.pollers[competitionID]
	s.mu.RUnlock()
	if p == nil {
		return s.Load(ctx, competitionID)
	}
	return p.Refresh(ctx)
}

// WatchStatus reports a competition's poller state.
func (s *Service) WatchStatus(competitionID string) (poller.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pollers[competitionID]
	if !ok {
		return poller.Status{}, false
	}
	return p.Status(), true
}
