package repository

import (
	"context"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

// WeightStore persists learned weight tables between runs. Load returns
// nil, nil when nothing has been saved for the key.
type WeightStore interface {
	LoadWeights(ctx context.Context, agent, role string) (*model.WeightTable, error)
	SaveWeights(ctx context.Context, table *model.WeightTable) error
	DeleteWeights(ctx context.Context, agent, role string) error
}

// EpisodeRepository records finished games.
type EpisodeRepository interface {
	SaveEpisode(ctx context.Context, ep *model.Episode) error
	ListEpisodes(ctx context.Context, limit int) ([]model.Episode, error)
}

// TransitionSink receives one record per weight update. Implementations
// buffer; Close flushes.
type TransitionSink interface {
	Record(t model.Transition) error
	Close() error
}
