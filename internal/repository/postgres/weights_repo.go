package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

// WeightRepo stores weight tables as JSONB rows keyed by (agent, role).
type WeightRepo struct {
	db *sql.DB
}

// NewWeightRepo creates a WeightRepo.
func NewWeightRepo(db *sql.DB) *WeightRepo {
	return &WeightRepo{db: db}
}

// LoadWeights returns the stored table, or nil if none exists.
func (r *WeightRepo) LoadWeights(ctx context.Context, agent, role string) (*model.WeightTable, error) {
	t := model.WeightTable{Agent: agent, Role: role}
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT weights, episodes, updated_at FROM weight_tables WHERE agent = $1 AND role = $2`,
		agent, role,
	).Scan(&raw, &t.Episodes, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	if err := json.Unmarshal(raw, &t.Weights); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	return &t, nil
}

// SaveWeights inserts or replaces a table.
func (r *WeightRepo) SaveWeights(ctx context.Context, t *model.WeightTable) error {
	raw, err := json.Marshal(t.Weights)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO weight_tables (agent, role, weights, episodes, updated_at)
		 VALUES ($1, $2, $3, $4, COALESCE($5, now()))
		 ON CONFLICT (agent, role) DO UPDATE
		 SET weights = EXCLUDED.weights, episodes = EXCLUDED.episodes, updated_at = EXCLUDED.updated_at`,
		t.Agent, t.Role, raw, t.Episodes, nullTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	return nil
}

// DeleteWeights removes a table. Deleting a missing table is not an error.
func (r *WeightRepo) DeleteWeights(ctx context.Context, agent, role string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM weight_tables WHERE agent = $1 AND role = $2`, agent, role)
	if err != nil {
		return fmt.Errorf("delete weights: %w", err)
	}
	return nil
}
