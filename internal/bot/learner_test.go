package bot

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
	"github.com/linhozo/UnimelbS2-Pacman/internal/repository/memory"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// stubExtractor has a bias feature plus one indicator per direction, and a
// constant reward.
type stubExtractor struct {
	reward float64
}

func (stubExtractor) Role() Role                                     { return RoleOffense }
func (stubExtractor) Initialize(*capture.GameState, Distancer) error { return nil }
func (stubExtractor) BeginTurn(gs, prev *capture.GameState)          {}

func (stubExtractor) Features(_ *capture.GameState, a capture.Direction) Features {
	return Features{"bias": 1, string(a): 1}
}

func (s stubExtractor) Reward(prev, cur *capture.GameState) float64 { return s.reward }

func newStubLearner(t *testing.T, w Weights, params TrainingParams, breakLoops bool) (*Learner, *capture.GameState) {
	t.Helper()
	gs := newRingState(t, 1000)
	l := NewLearner(LearnerConfig{
		Index:      0,
		Extractor:  stubExtractor{reward: 1},
		Weights:    w,
		Params:     params,
		Seed:       42,
		BreakLoops: breakLoops,
	})
	require.NoError(t, l.Initialize(gs))
	return l, gs
}

func TestDefaultTraining(t *testing.T) {
	assert.Equal(t, TrainingParams{NumTraining: 10, Epsilon: 0.1, Alpha: 0.1, Discount: 0.9}, DefaultTraining(10))
	assert.Equal(t, TrainingParams{Discount: 0.9}, DefaultTraining(0))
}

func TestLearnerName(t *testing.T) {
	assert.Equal(t, "agent-2/offense", NewOffenseLearner(2, DefaultTraining(0), 0).Name())
	assert.Equal(t, "agent-3/defense", NewDefenseLearner(3, DefaultTraining(0), 0).Name())
}

func TestLearnerQ(t *testing.T) {
	l, gs := newStubLearner(t, Weights{"bias": 2, string(capture.South): 3}, TrainingParams{}, false)
	assert.Equal(t, 5.0, l.Q(gs, capture.South))
	assert.Equal(t, 2.0, l.Q(gs, capture.East))
	assert.Equal(t, 5.0, l.MaxQ(gs))
}

func TestMaxQDominatesEveryAction(t *testing.T) {
	gs := newDefaultState(t, 1200)
	for i := range gs.Agents {
		for _, l := range []*Learner{NewOffenseLearner(i, DefaultTraining(0), 1), NewDefenseLearner(i, DefaultTraining(0), 1)} {
			obs := gs.Observation(i)
			require.NoError(t, l.Initialize(obs))
			l.extractor.BeginTurn(obs, nil)
			maxQ := l.MaxQ(obs)
			for _, a := range obs.LegalActions(i) {
				assert.GreaterOrEqual(t, maxQ, l.Q(obs, a), "%s action %s", l.Name(), a)
			}
		}
	}
}

func TestMaxQNoLegalActions(t *testing.T) {
	l, gs := newStubLearner(t, nil, TrainingParams{}, false)
	l.index = 7 // no such agent
	assert.Equal(t, 0.0, l.MaxQ(gs))
}

func TestUpdateStep(t *testing.T) {
	l, gs := newStubLearner(t, Weights{}, TrainingParams{Alpha: 0.1, Discount: 0.9}, false)

	l.Update(gs, capture.Stop, gs, 1)
	// q=0, max=0, delta=1: both active features move by alpha.
	assert.InDelta(t, 0.1, l.weights["bias"], 1e-12)
	assert.InDelta(t, 0.1, l.weights[string(capture.Stop)], 1e-12)

	l.Update(gs, capture.East, gs, 1)
	// q=0.1 (bias), max=0.2 (Stop), delta=1+0.18-0.1.
	assert.InDelta(t, 0.1+0.1*1.08, l.weights["bias"], 1e-12)
	assert.InDelta(t, 0.108, l.weights[string(capture.East)], 1e-12)
	assert.InDelta(t, 0.1, l.weights[string(capture.Stop)], 1e-12, "inactive features are untouched")
}

func TestUpdateConverges(t *testing.T) {
	// One action, constant reward 1, discount 0.5: the fixed point of
	// 2w = 1 + 0.5*2w is w = 1 per feature.
	l, gs := newStubLearner(t, Weights{}, TrainingParams{Alpha: 0.1, Discount: 0.5}, false)
	for i := 0; i < 2000; i++ {
		l.Update(gs, capture.Stop, gs, 1)
	}
	assert.InDelta(t, 2.0, l.Q(gs, capture.Stop), 1e-6)
}

func TestUpdateRecordsTransition(t *testing.T) {
	store := memory.New()
	l, gs := newStubLearner(t, Weights{}, TrainingParams{Alpha: 0.1, Discount: 0.9}, false)
	l.AttachSink(store)
	l.SetEpisode("ep-7")

	l.ChooseAction(gs)
	l.ChooseAction(gs)
	assert.Empty(t, store.Transitions(), "no update before two decisions")
	l.ChooseAction(gs)

	got := store.Transitions()
	require.Len(t, got, 1)
	assert.Equal(t, "ep-7", got[0].EpisodeID)
	assert.Equal(t, "offense", got[0].Role)
	assert.Equal(t, 1.0, got[0].Reward)
	assert.Equal(t, 1.0, got[0].Delta)
}

func TestLoopBreak(t *testing.T) {
	w := Weights{string(capture.South): 10}
	l, gs := newStubLearner(t, w, TrainingParams{Discount: 0.9}, true)
	assert.Equal(t, capture.South, l.ChooseAction(gs), "greedy pick without a loop")

	tests := []struct {
		name     string
		favoured capture.Direction
		history  []capture.Direction
		excluded capture.Direction
	}{
		{"north-south", capture.South, []capture.Direction{capture.North, capture.South, capture.North, capture.South}, capture.South},
		{"south-east", capture.East, []capture.Direction{capture.South, capture.East, capture.South, capture.East}, capture.East},
		{"south-north keeps south", capture.South, []capture.Direction{capture.South, capture.North, capture.South, capture.North}, capture.North},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, gs := newStubLearner(t, Weights{string(tt.favoured): 10}, TrainingParams{Discount: 0.9}, true)
			for _, a := range tt.history {
				l.record(gs, a)
			}
			excluded, ok := l.loopAction()
			require.True(t, ok)
			assert.Equal(t, tt.excluded, excluded)

			for _, a := range tt.history {
				l.record(gs, a)
			}
			action := l.ChooseAction(gs)
			assert.NotEqual(t, tt.excluded, action)
			assert.Equal(t, []capture.Direction{action}, l.history, "history restarts after a break")
		})
	}
}

func TestLoopBreakIgnoresRepeats(t *testing.T) {
	w := Weights{string(capture.South): 10}
	l, gs := newStubLearner(t, w, TrainingParams{Discount: 0.9}, true)
	for _, a := range []capture.Direction{capture.South, capture.South, capture.South, capture.South} {
		l.record(gs, a)
	}
	assert.Equal(t, capture.South, l.ChooseAction(gs))
}

func TestLoopBreakDisabled(t *testing.T) {
	w := Weights{string(capture.South): 10}
	l, gs := newStubLearner(t, w, TrainingParams{Discount: 0.9}, false)
	for _, a := range []capture.Direction{capture.South, capture.North, capture.South, capture.North} {
		l.record(gs, a)
	}
	assert.Equal(t, capture.South, l.ChooseAction(gs))
}

func TestChooseActionAlwaysLegal(t *testing.T) {
	gs := newDefaultState(t, 1200)
	l := NewOffenseLearner(0, TrainingParams{Epsilon: 0.5, Alpha: 0.1, Discount: 0.9, NumTraining: 1}, 9)
	require.NoError(t, l.Initialize(gs.Observation(0)))
	for turn := 0; turn < 200 && !gs.IsOver(); turn++ {
		obs := gs.Observation(0)
		a := l.ChooseAction(obs)
		require.True(t, gs.IsLegal(0, a), "turn %d: %s", turn, a)
		next, err := gs.Successor(0, a)
		require.NoError(t, err)
		gs = next
	}
}

func TestFinalEndsTraining(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	l, gs := newStubLearner(t, Weights{"bias": 1}, DefaultTraining(2), false)
	l.AttachStore(store)

	require.NoError(t, l.Final(ctx, gs))
	assert.Equal(t, 1, l.Episodes())
	assert.Equal(t, 0.1, l.Params().Epsilon, "still training after one of two episodes")

	require.NoError(t, l.Final(ctx, gs))
	assert.Equal(t, 2, l.Episodes())
	assert.Zero(t, l.Params().Epsilon)
	assert.Zero(t, l.Params().Alpha)

	saved, err := store.LoadWeights(ctx, "agent-0", "offense")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 2, saved.Episodes)
	assert.Equal(t, 1.0, saved.Weights["bias"])
}

func TestLoadWeights(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.SaveWeights(ctx, &model.WeightTable{
		Agent: "agent-0", Role: "offense", Weights: map[string]float64{"bias": 4}, Episodes: 12,
	}))

	l, _ := newStubLearner(t, nil, TrainingParams{}, false)
	require.NoError(t, l.LoadWeights(ctx))
	l.AttachStore(store)
	require.NoError(t, l.LoadWeights(ctx))
	assert.Equal(t, Weights{"bias": 4}, l.Weights())
	assert.Equal(t, 12, l.Episodes())

	missing := NewDefenseLearner(0, TrainingParams{}, 0)
	missing.AttachStore(store)
	require.NoError(t, missing.LoadWeights(ctx))
	assert.Equal(t, DefaultDefenseWeights(), missing.Weights(), "prior kept when nothing is stored")
}

func TestNonFiniteValuePanics(t *testing.T) {
	l, gs := newStubLearner(t, Weights{"bias": math.Inf(1)}, TrainingParams{}, false)
	assert.Panics(t, func() { l.Q(gs, capture.Stop) })
}

func TestWithout(t *testing.T) {
	all := []capture.Direction{capture.North, capture.South, capture.Stop}
	assert.Equal(t, []capture.Direction{capture.North, capture.Stop}, without(all, capture.South))
	assert.Equal(t, []capture.Direction{capture.Stop}, without([]capture.Direction{capture.Stop}, capture.Stop))
}
