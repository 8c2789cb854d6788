package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/http/swagger"
	"github.com/okian/podium/internal/adapters/mq/notify"
	"github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/repository"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/config"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/fixture"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Our registry carries its own system gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWith(logger.Options{Format: logger.Format(cfg.LogFormat), Level: cfg.LogLevel}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "podium exited", logger.Error(err))
		os.Exit(1)
	}
}

// node is one wired scoring process.
type node struct {
	cfg      *config.Config
	store    repository.Store
	bus      notify.Bus
	svc      *service.Service
	listener *worker.Listener
	handler  http.Handler
	loaded   []string
	closers  []func() error
	log      logger.Logger
}

// build wires the store, bus, service, listener and routes chosen by cfg,
// and seeds the store from the fixture when one is configured.
func build(ctx context.Context, cfg *config.Config, lg logger.Logger) (*node, error) {
	n := &node{cfg: cfg, log: lg}

	switch cfg.Store {
	case config.StoreRedis:
		client, err := repository.NewUniversalClient(ctx, cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		n.closers = append(n.closers, client.Close)
		store, err := repository.NewRedisStore(client, repository.WithLogger(lg))
		if err != nil {
			return nil, err
		}
		bus, err := notify.NewRedisBus(client,
			notify.WithChannel(cfg.NotifyChannel),
			notify.WithBufferSize(cfg.NotifyBuffer),
			notify.WithLogger(lg),
		)
		if err != nil {
			return nil, err
		}
		n.store, n.bus = store, bus
	default:
		n.store = repository.NewMemoryStore(repository.WithLogger(lg))
		n.bus = notify.NewInMemoryBus(notify.WithBufferSize(cfg.NotifyBuffer), notify.WithLogger(lg))
	}
	n.closers = append([]func() error{n.bus.Close}, n.closers...)

	deduper := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))
	n.svc = service.New(n.store,
		service.WithLogger(lg),
		service.WithPublisher(n.bus),
		service.WithDeduper(deduper),
		service.WithDefaultTrimPercentage(cfg.DefaultTrimPercentage),
	)
	n.listener = worker.NewListener(n.bus, n.svc,
		worker.WithName("notifications"),
		worker.WithLogger(lg),
		worker.WithDeduper(deduper),
	)

	if cfg.FixturePath != "" {
		f, err := fixture.Load(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		if err := n.seed(ctx, f); err != nil {
			return nil, err
		}
	}

	r := api.NewServer(n.svc, api.WithStats(n.svc), api.WithLogger(lg), api.WithMaxRequestBytes(cfg.MaxRequestBytes)).Routes()
	swagger.Register(r)
	n.handler = r
	return n, nil
}

// seed writes a fixture unless the store already holds its competition,
// then loads it and starts reconciliation when polling is enabled.
func (n *node) seed(ctx context.Context, f *fixture.Fixture) error {
	id := f.Competition.ID
	_, err := n.store.FetchCompetition(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := fixture.Seed(ctx, n.store, f); err != nil {
			return err
		}
		n.log.Info(ctx, "fixture seeded", logger.String("competition", id), logger.Int("scores", len(f.Scores)))
	case err != nil:
		return fmt.Errorf("check fixture competition %s: %w", id, err)
	}
	if err := n.svc.Load(ctx, id); err != nil {
		return err
	}
	n.loaded = append(n.loaded, id)
	if n.cfg.PollIntervalMS > 0 {
		return n.svc.Watch(ctx, id, time.Duration(n.cfg.PollIntervalMS)*time.Millisecond)
	}
	return nil
}

func (n *node) close() {
	n.svc.Stop()
	for _, c := range n.closers {
		if err := c(); err != nil {
			n.log.Warn(context.Background(), "close failed", logger.Error(err))
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	lg := logger.Get()
	n, err := build(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer n.close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           n.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return n.listener.Run(gctx)
	})
	g.Go(func() error {
		lg.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		startServiceMetricsUpdater(gctx, n.svc)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
		}
		return n.listener.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	lg.Info(ctx, "server stopped")
	return err
}

// startSystemMetricsUpdater updates system metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the service gauges until ctx ends.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stats updates the session, score and criteria gauges itself.
			_ = svc.Stats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
