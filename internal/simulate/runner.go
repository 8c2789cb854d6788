package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/fixture"
	"github.com/okian/podium/pkg/logger"
)

// Run executes a complete simulation: create the competition, open its
// criteria, submit every generated score and verify the served rankings.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	lg := logger.Get().Named("simulate")

	f, err := fixture.Load(cfg.FixturePath)
	if err != nil {
		return stats, err
	}
	plan, err := Generate(f, cfg.Contestants, cfg.Seed)
	if err != nil {
		return stats, err
	}
	stats.CompetitionID = plan.Competition.ID
	stats.ScoresGenerated = len(plan.Scores)

	lg.Info(ctx, "starting podium simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("competition", plan.Competition.ID),
		logger.Int("contestants", len(plan.Competition.Contestants)),
		logger.Int("scores", len(plan.Scores)),
		logger.Int("workers", cfg.Workers),
		logger.Float64("rate", cfg.RatePerSecond),
	)

	c := newClient(cfg.BaseURL, cfg.Timeout)

	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	base := "/competitions/" + url.PathEscape(plan.Competition.ID)
	if err := c.do(ctx, http.MethodPut, base+"/", plan.Competition, nil); err != nil {
		return stats, fmt.Errorf("create competition: %w", err)
	}

	for _, ac := range plan.Criteria {
		path := fmt.Sprintf("%s/active-criteria/%s/%s", base, url.PathEscape(ac.Segment), url.PathEscape(ac.Criterion))
		if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
			return stats, fmt.Errorf("open criterion %s/%s: %w", ac.Segment, ac.Criterion, err)
		}
		stats.CriteriaOpened++
	}

	if err := submit(ctx, c, base, cfg, plan.Scores, stats, lg); err != nil {
		return stats, fmt.Errorf("score submission failed: %w", err)
	}

	if err := verify(ctx, c, base, plan, stats, lg); err != nil {
		return stats, err
	}

	if cfg.OutputFile != "" {
		if err := saveScores(cfg.OutputFile, plan.Scores); err != nil {
			lg.Warn(ctx, "failed to save scores to file", logger.Error(err))
		} else {
			lg.Info(ctx, "scores saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, lg, stats)
	return stats, nil
}

// submit posts every score under the configured rate and concurrency. A
// rejected score fails the run: generated values are always valid.
func submit(ctx context.Context, c *client, base string, cfg *Config, list []model.Score, stats *Stats, lg logger.Logger) error {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	limiter := rate.NewLimiter(limit, submitBurst)

	var submitted, failed atomic.Int64
	var lastReport atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, s := range list {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		g.Go(func() error {
			err := c.do(gctx, http.MethodPost, base+"/scores", s, &ackResponse{})
			n := submitted.Add(1)
			if err != nil {
				failed.Add(1)
				return fmt.Errorf("score %s/%s/%s/%s: %w", s.Segment, s.Contestant, s.Judge, s.Criterion, err)
			}
			now := time.Now().UnixNano()
			if last := lastReport.Load(); now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
				lg.Info(gctx, "submission progress", logger.Int("submitted", int(n)), logger.Int("total", len(list)))
			} else if cfg.Verbose {
				lg.Debug(gctx, "score submitted", logger.String("contestant", s.Contestant), logger.String("judge", s.Judge))
			}
			return nil
		})
	}
	err := g.Wait()

	stats.ScoresSubmitted = int(submitted.Load())
	stats.ScoresFailed = int(failed.Load())
	stats.ScoresSuccessful = stats.ScoresSubmitted - stats.ScoresFailed
	lg.Info(ctx, "score submission completed",
		logger.Int("successful", stats.ScoresSuccessful),
		logger.Int("failed", stats.ScoresFailed),
	)
	if err != nil {
		return err
	}
	return ctx.Err()
}

type rankingsResponse struct {
	Segment   string           `json:"segment"`
	Method    string           `json:"method"`
	Standings []model.Standing `json:"standings"`
}

// verify compares the served rankings of every scored segment with a local
// computation under the service's ranking config.
func verify(ctx context.Context, c *client, base string, plan *Plan, stats *Stats, lg logger.Logger) error {
	var rc model.RankingConfig
	if err := c.do(ctx, http.MethodGet, base+"/ranking-config", nil, &rc); err != nil {
		return fmt.Errorf("fetch ranking config: %w", err)
	}
	comp := plan.Competition.Clone()
	comp.Settings.Ranking = rc

	seen := make(map[string]struct{})
	for _, ac := range plan.Criteria {
		if _, ok := seen[ac.Segment]; ok {
			continue
		}
		seen[ac.Segment] = struct{}{}

		var got rankingsResponse
		path := fmt.Sprintf("%s/segments/%s/rankings", base, url.PathEscape(ac.Segment))
		if err := c.do(ctx, http.MethodGet, path, nil, &got); err != nil {
			return fmt.Errorf("fetch rankings %s: %w", ac.Segment, err)
		}
		want := Expected(ctx, comp, plan.Scores, ac.Segment)
		if err := Compare(want, got.Standings); err != nil {
			return fmt.Errorf("segment %s: %w", ac.Segment, err)
		}
		stats.SegmentsVerified++
		if len(got.Standings) > 0 {
			top := got.Standings[0]
			lg.Info(ctx, "segment verified",
				logger.String("segment", ac.Segment),
				logger.String("method", got.Method),
				logger.String("leader", top.ContestantID),
				logger.Float64("score", top.Score),
			)
		}
	}
	return nil
}

func saveScores(filename string, list []model.Score) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPerm); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	return os.WriteFile(filename, data, outputPermission)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, lg logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.ScoresSubmitted > 0 {
		successRate = float64(stats.ScoresSuccessful) / float64(stats.ScoresSubmitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.ScoresSubmitted) / stats.Duration.Seconds()
	}
	lg.Info(ctx, "final statistics",
		logger.String("competition", stats.CompetitionID),
		logger.Int("scoresGenerated", stats.ScoresGenerated),
		logger.Int("scoresSubmitted", stats.ScoresSubmitted),
		logger.Int("scoresFailed", stats.ScoresFailed),
		logger.Int("criteriaOpened", stats.CriteriaOpened),
		logger.Int("segmentsVerified", stats.SegmentsVerified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("scoresPerSecond", perSecond),
	)
}
