package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

// Key patterns for Redis weight tables. The weights hash maps feature name
// to coefficient; the meta hash holds the episode count and update time.
func weightsKey(agent, role string) string { return "weights:" + agent + ":" + role }
func metaKey(agent, role string) string    { return "weights:" + agent + ":" + role + ":meta" }

// LoadWeights returns the stored table, or nil if none exists.
func (c *Client) LoadWeights(ctx context.Context, agent, role string) (*model.WeightTable, error) {
	raw, err := c.rdb.HGetAll(ctx, weightsKey(agent, role)).Result()
	if err != nil {
		return nil, fmt.Errorf("get weights: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	t := &model.WeightTable{Agent: agent, Role: role, Weights: make(map[string]float64, len(raw))}
	for name, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse weight %s: %w", name, err)
		}
		t.Weights[name] = f
	}

	meta, err := c.rdb.HGetAll(ctx, metaKey(agent, role)).Result()
	if err != nil {
		return nil, fmt.Errorf("get weights meta: %w", err)
	}
	if v, ok := meta["episodes"]; ok {
		if t.Episodes, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parse episodes: %w", err)
		}
	}
	if v, ok := meta["updated_at"]; ok {
		if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
	}
	return t, nil
}

// SaveWeights replaces the stored table atomically.
func (c *Client) SaveWeights(ctx context.Context, t *model.WeightTable) error {
	fields := make(map[string]any, len(t.Weights))
	for name, v := range t.Weights {
		fields[name] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	updated := t.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, weightsKey(t.Agent, t.Role))
		if len(fields) > 0 {
			pipe.HSet(ctx, weightsKey(t.Agent, t.Role), fields)
		}
		pipe.HSet(ctx, metaKey(t.Agent, t.Role),
			"episodes", t.Episodes,
			"updated_at", updated.Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	return nil
}

// DeleteWeights removes a stored table. Deleting a missing table is not an error.
func (c *Client) DeleteWeights(ctx context.Context, agent, role string) error {
	if err := c.rdb.Del(ctx, weightsKey(agent, role), metaKey(agent, role)).Err(); err != nil {
		return fmt.Errorf("delete weights: %w", err)
	}
	return nil
}
