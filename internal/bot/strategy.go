package bot

import (
	"context"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// Policy plays one agent through a game. The engine calls Initialize once,
// ChooseAction once per turn with the agent's observation, and Final when
// the game ends.
type Policy interface {
	Name() string
	Initialize(gs *capture.GameState) error
	ChooseAction(gs *capture.GameState) capture.Direction
	Final(ctx context.Context, gs *capture.GameState) error
}

// EpisodeTagger is implemented by policies that label their records with
// the current episode. Not all policies learn; use a type assertion to check.
type EpisodeTagger interface {
	SetEpisode(id string)
}

// WeightLoader is implemented by policies with persisted weight tables.
type WeightLoader interface {
	LoadWeights(ctx context.Context) error
}

// Policy kinds accepted by PolicyForKind.
const (
	KindOffense    = "offense"
	KindDefense    = "defense"
	KindOffenseLed = "offense-led"
	KindDefenseLed = "defense-led"
	KindRandom     = "random"
)

// PolicyForKind returns a fresh policy of the given kind for agent index.
// Unknown kinds get the offense-led composite.
func PolicyForKind(kind string, index int, params TrainingParams, seed int64) Policy {
	switch kind {
	case KindOffense:
		return NewOffenseLearner(index, params, seed)
	case KindDefense:
		return NewDefenseLearner(index, params, seed)
	case KindDefenseLed:
		return NewComposite(DefenseLed, index, params, seed)
	case KindRandom:
		return NewRandomPolicy(index, seed)
	default:
		return NewComposite(OffenseLed, index, params, seed)
	}
}

// --- RandomPolicy ---

// RandomPolicy plays a uniformly random legal move, preferring to keep
// moving. It is the baseline opponent for training.
type RandomPolicy struct {
	index int
	rng   rng
}

// NewRandomPolicy returns a random baseline for agent index.
func NewRandomPolicy(index int, seed int64) *RandomPolicy {
	return &RandomPolicy{index: index, rng: newRng(seed)}
}

func (*RandomPolicy) Name() string { return KindRandom }

func (*RandomPolicy) Initialize(*capture.GameState) error { return nil }

// ChooseAction picks among the legal moves other than Stop, falling back to
// Stop when boxed in.
func (p *RandomPolicy) ChooseAction(gs *capture.GameState) capture.Direction {
	legal := gs.LegalActions(p.index)
	if len(legal) == 0 {
		return capture.NoAction
	}
	moves := without(legal, capture.Stop)
	return moves[p.rng.Intn(len(moves))]
}

func (*RandomPolicy) Final(context.Context, *capture.GameState) error { return nil }
