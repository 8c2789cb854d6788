package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/scores"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// RedisStore keeps competitions in Redis. Scores live in one hash per
// competition with field "segment|contestant|judge|criterion" and a "%.2f"
// value; the competition snapshot is JSON under its own key. Both keys share
// the {competitionID} hash tag so they land on one cluster slot.
type RedisStore struct {
	client redis.UniversalClient
	opts   options
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &RedisStore{client: client, opts: newOptions(opts)}, nil
}

// NewUniversalClient creates a client for single, sentinel or cluster
// deployments and checks the connection.
func NewUniversalClient(ctx context.Context, addrs []string, password string, db int) (redis.UniversalClient, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis configuration error: no addresses")
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis (addrs: %v): %w", addrs, err)
	}
	return client, nil
}

func (r *RedisStore) scoresKey(id string) string {
	return fmt.Sprintf("%s:{%s}:scores", r.opts.keyPrefix, id)
}

func (r *RedisStore) competitionKey(id string) string {
	return fmt.Sprintf("%s:{%s}:competition", r.opts.keyPrefix, id)
}

func (r *RedisStore) fail(ctx context.Context, op string, err error) error {
	metrics.RecordStoreError(op)
	r.opts.logger.Error(ctx, "redis operation failed", logger.String("op", op), logger.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func (r *RedisStore) FetchCompetition(ctx context.Context, competitionID string) (*model.Competition, error) {
	defer observe("fetch_competition", time.Now())
	data, err := r.client.Get(ctx, r.competitionKey(competitionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.fail(ctx, "fetch_competition", err)
	}
	var c model.Competition
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, r.fail(ctx, "fetch_competition", err)
	}
	return &c, nil
}

func (r *RedisStore) SaveCompetition(ctx context.Context, c *model.Competition) error {
	defer observe("save_competition", time.Now())
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("save_competition: %w", err)
	}
	if err := r.client.Set(ctx, r.competitionKey(c.ID), data, 0).Err(); err != nil {
		return r.fail(ctx, "save_competition", err)
	}
	return nil
}

func (r *RedisStore) exists(ctx context.Context, competitionID string) error {
	n, err := r.client.Exists(ctx, r.competitionKey(competitionID)).Result()
	if err != nil {
		return r.fail(ctx, "exists", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) FetchScores(ctx context.Context, competitionID string) ([]model.Score, error) {
	defer observe("fetch_scores", time.Now())
	if err := r.exists(ctx, competitionID); err != nil {
		return nil, err
	}
	raw, err := r.client.HGetAll(ctx, r.scoresKey(competitionID)).Result()
	if err != nil {
		return nil, r.fail(ctx, "fetch_scores", err)
	}
	out := make([]model.Score, 0, len(raw))
	for f, v := range raw {
		k, err := parseField(f)
		if err != nil {
			r.opts.logger.Warn(ctx, "skipping corrupt score field", logger.String("field", f))
			continue
		}
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.opts.logger.Warn(ctx, "skipping corrupt score value", logger.String("field", f), logger.String("value", v))
			continue
		}
		out = append(out, model.Score{ScoreKey: k, Value: scores.Round2(val)})
	}
	sort.Slice(out, func(i, j int) bool { return field(out[i].ScoreKey) < field(out[j].ScoreKey) })
	return out, nil
}

func (r *RedisStore) PersistScores(ctx context.Context, competitionID string, list []model.Score) error {
	defer observe("persist_scores", time.Now())
	if err := checkScores(list); err != nil {
		metrics.RecordStoreError("persist_scores")
		return err
	}
	if len(list) == 0 {
		return nil
	}
	if err := r.exists(ctx, competitionID); err != nil {
		return err
	}
	values := make([]interface{}, 0, 2*len(list))
	for _, s := range list {
		values = append(values, field(s.ScoreKey), fmt.Sprintf("%.2f", scores.Round2(s.Value)))
	}
	if err := r.client.HSet(ctx, r.scoresKey(competitionID), values...).Err(); err != nil {
		return r.fail(ctx, "persist_scores", err)
	}
	return nil
}

func (r *RedisStore) DeleteScores(ctx context.Context, competitionID string, keys []model.ScoreKey) error {
	defer observe("delete_scores", time.Now())
	if len(keys) == 0 {
		return nil
	}
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = field(k)
	}
	if err := r.client.HDel(ctx, r.scoresKey(competitionID), fields...).Err(); err != nil {
		return r.fail(ctx, "delete_scores", err)
	}
	return nil
}

// SaveActiveCriteria rewrites the snapshot under WATCH so a concurrent
// SaveCompetition is not lost.
func (r *RedisStore) SaveActiveCriteria(ctx context.Context, competitionID string, active []model.ActiveCriterion) error {
	defer observe("save_active_criteria", time.Now())
	key := r.competitionKey(competitionID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var c model.Competition
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		c.ActiveCriteria = append([]model.ActiveCriterion(nil), active...)
		out, err := json.Marshal(&c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrNotFound):
			return err
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return r.fail(ctx, "save_active_criteria", err)
		}
	}
	return r.fail(ctx, "save_active_criteria", redis.TxFailedErr)
}
