package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

// EpisodeRepo handles episode database operations.
type EpisodeRepo struct {
	db *sql.DB
}

// NewEpisodeRepo creates an EpisodeRepo.
func NewEpisodeRepo(db *sql.DB) *EpisodeRepo {
	return &EpisodeRepo{db: db}
}

// SaveEpisode inserts a finished episode.
func (r *EpisodeRepo) SaveEpisode(ctx context.Context, ep *model.Episode) error {
	var state any
	if len(ep.FinalState) > 0 {
		state = []byte(ep.FinalState)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO episodes (id, label, layout, red_policy, blue_policy, score, winner, turns, training,
		                       final_state, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12)`,
		ep.ID, ep.Label, ep.Layout, ep.RedPolicy, ep.BluePolicy, ep.Score, ep.Winner, ep.Turns, ep.Training,
		state, ep.StartedAt, ep.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save episode: %w", err)
	}
	return nil
}

// ListEpisodes returns the most recently finished episodes, newest first.
// The final state is not loaded.
func (r *EpisodeRepo) ListEpisodes(ctx context.Context, limit int) ([]model.Episode, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, label, layout, red_policy, blue_policy, score, winner, turns, training, started_at, finished_at
		 FROM episodes ORDER BY finished_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var eps []model.Episode
	for rows.Next() {
		var ep model.Episode
		var winner sql.NullString
		if err := rows.Scan(&ep.ID, &ep.Label, &ep.Layout, &ep.RedPolicy, &ep.BluePolicy, &ep.Score, &winner,
			&ep.Turns, &ep.Training, &ep.StartedAt, &ep.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		ep.Winner = winner.String
		eps = append(eps, ep)
	}
	return eps, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
