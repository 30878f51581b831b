package bot

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
	"github.com/linhozo/UnimelbS2-Pacman/internal/repository"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// historyLen is how many executed actions are kept for loop detection.
const historyLen = 4

// TrainingParams are the learning constants of a Learner.
type TrainingParams struct {
	NumTraining int     // episodes before exploration and learning switch off
	Epsilon     float64 // exploration probability
	Alpha       float64 // learning rate
	Discount    float64
}

// DefaultTraining returns the standard constants: exploration and learning
// are only enabled when there are training episodes to play.
func DefaultTraining(numTraining int) TrainingParams {
	if numTraining > 0 {
		return TrainingParams{NumTraining: numTraining, Epsilon: 0.1, Alpha: 0.1, Discount: 0.9}
	}
	return TrainingParams{Discount: 0.9}
}

// LearnerConfig configures a Learner.
type LearnerConfig struct {
	Index      int
	Name       string    // persistence key, defaults to "agent-<index>"
	Extractor  Extractor // required
	Weights    Weights   // nil uses the role's default prior
	Params     TrainingParams
	Seed       int64 // 0 uses the global random source
	BreakLoops bool
	Store      repository.WeightStore    // optional
	Sink       repository.TransitionSink // optional
}

// Learner is a linear approximate Q-learning policy for one agent and role.
// It owns its weight table, action history and previous snapshot.
type Learner struct {
	index      int
	name       string
	extractor  Extractor
	weights    Weights
	params     TrainingParams
	rng        rng
	breakLoops bool
	store      repository.WeightStore
	sink       repository.TransitionSink

	history    []capture.Direction
	prevState  *capture.GameState
	prevAction capture.Direction
	pairs      int
	turn       int
	episodes   int
	episodeID  string
	rewardSum  float64
}

// NewLearner builds a Learner from cfg.
func NewLearner(cfg LearnerConfig) *Learner {
	w := cfg.Weights
	if w == nil {
		w = DefaultWeights(cfg.Extractor.Role())
	}
	name := cfg.Name
	if name == "" {
		name = fmt.Sprintf("agent-%d", cfg.Index)
	}
	return &Learner{
		index:      cfg.Index,
		name:       name,
		extractor:  cfg.Extractor,
		weights:    w.Clone(),
		params:     cfg.Params,
		rng:        newRng(cfg.Seed),
		breakLoops: cfg.BreakLoops,
		store:      cfg.Store,
		sink:       cfg.Sink,
	}
}

// NewOffenseLearner returns a loop-breaking learner with offense features.
func NewOffenseLearner(index int, params TrainingParams, seed int64) *Learner {
	return NewLearner(LearnerConfig{
		Index:      index,
		Extractor:  NewOffenseExtractor(index),
		Params:     params,
		Seed:       seed,
		BreakLoops: true,
	})
}

// NewDefenseLearner returns a learner with defense features.
func NewDefenseLearner(index int, params TrainingParams, seed int64) *Learner {
	return NewLearner(LearnerConfig{
		Index:     index,
		Extractor: NewDefenseExtractor(index),
		Params:    params,
		Seed:      seed,
	})
}

func (l *Learner) Name() string { return l.name + "/" + l.Role().String() }

// Role returns the role of the learner's feature vocabulary.
func (l *Learner) Role() Role { return l.extractor.Role() }

// Weights returns a copy of the current weight table.
func (l *Learner) Weights() Weights { return l.weights.Clone() }

// Params returns the current learning constants.
func (l *Learner) Params() TrainingParams { return l.params }

// Episodes returns the number of finished episodes.
func (l *Learner) Episodes() int { return l.episodes }

// SetEpisode tags subsequent transition records.
func (l *Learner) SetEpisode(id string) { l.episodeID = id }

// AttachStore sets the weight store used by LoadWeights and Final.
func (l *Learner) AttachStore(s repository.WeightStore) { l.store = s }

// AttachSink sets the transition sink fed by Update.
func (l *Learner) AttachSink(s repository.TransitionSink) { l.sink = s }

// Initialize prepares the learner for a new game.
func (l *Learner) Initialize(gs *capture.GameState) error {
	return l.initializeWith(gs, capture.NewDistancer(gs.Layout))
}

func (l *Learner) initializeWith(gs *capture.GameState, dist Distancer) error {
	if err := l.extractor.Initialize(gs, dist); err != nil {
		return fmt.Errorf("initialize %s: %w", l.Name(), err)
	}
	l.history = l.history[:0]
	l.prevState = nil
	l.prevAction = capture.NoAction
	l.pairs = 0
	l.turn = 0
	l.rewardSum = 0
	return nil
}

// LoadWeights replaces the weight table with the stored one, if any.
func (l *Learner) LoadWeights(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	t, err := l.store.LoadWeights(ctx, l.name, l.Role().String())
	if err != nil {
		return fmt.Errorf("load weights for %s: %w", l.Name(), err)
	}
	if t == nil {
		return nil
	}
	l.weights = Weights(t.Weights).Clone()
	l.episodes = t.Episodes
	log.Debug().Str("learner", l.Name()).Int("episodes", t.Episodes).Msg("Loaded weights")
	return nil
}

// Q returns the value of taking action in gs.
func (l *Learner) Q(gs *capture.GameState, action capture.Direction) float64 {
	return mustFinite("q-value", l.extractor.Features(gs, action).Dot(l.weights))
}

// MaxQ returns the best action value in gs, or 0 without legal actions.
func (l *Learner) MaxQ(gs *capture.GameState) float64 {
	actions := gs.LegalActions(l.index)
	if len(actions) == 0 {
		return 0
	}
	best := math.Inf(-1)
	for _, a := range actions {
		if q := l.Q(gs, a); q > best {
			best = q
		}
	}
	return best
}

// Update applies one temporal-difference step for (prev, action) -> next.
func (l *Learner) Update(prev *capture.GameState, action capture.Direction, next *capture.GameState, reward float64) {
	f := l.extractor.Features(prev, action)
	q := mustFinite("q-value", f.Dot(l.weights))
	nextMax := l.MaxQ(next)
	delta := mustFinite("td error", reward+l.params.Discount*nextMax-q)
	for name, v := range f {
		if v != 0 {
			l.weights[name] += l.params.Alpha * delta * v
		}
	}
	if l.sink == nil {
		return
	}
	err := l.sink.Record(model.Transition{
		EpisodeID: l.episodeID,
		Agent:     l.index,
		Role:      l.Role().String(),
		Turn:      l.turn,
		Action:    string(action),
		Reward:    reward,
		QValue:    q,
		NextMaxQ:  nextMax,
		Delta:     delta,
		Features:  f,
	})
	if err != nil {
		log.Warn().Err(err).Str("learner", l.Name()).Msg("Failed to record transition")
	}
}

// observe scores the previous decision against gs once two decisions have
// been recorded.
func (l *Learner) observe(gs *capture.GameState) {
	if l.pairs < 2 {
		return
	}
	reward := l.extractor.Reward(l.prevState, gs)
	l.rewardSum += reward
	l.Update(l.prevState, l.prevAction, gs, reward)
}

// ChooseAction updates the weights from the last transition and picks the
// move to play in gs. It returns capture.NoAction when no move is legal.
func (l *Learner) ChooseAction(gs *capture.GameState) capture.Direction {
	l.extractor.BeginTurn(gs, l.prevState)
	l.observe(gs)

	legal := gs.LegalActions(l.index)
	if len(legal) == 0 {
		return capture.NoAction
	}
	candidates := legal
	if l.breakLoops {
		if loop, ok := l.loopAction(); ok {
			candidates = without(legal, loop)
			log.Debug().Str("learner", l.Name()).Str("excluded", string(loop)).Msg("Breaking action loop")
		}
	}

	var action capture.Direction
	if l.rng.Float64() < l.params.Epsilon {
		action = candidates[l.rng.Intn(len(candidates))]
	} else {
		action = l.greedy(gs, candidates)
	}
	l.record(gs, action)
	return action
}

// greedy returns a highest-valued candidate, breaking ties at random.
func (l *Learner) greedy(gs *capture.GameState, candidates []capture.Direction) capture.Direction {
	best := math.Inf(-1)
	var bestActions []capture.Direction
	for _, a := range candidates {
		q := l.Q(gs, a)
		switch {
		case q > best:
			best = q
			bestActions = append(bestActions[:0], a)
		case q == best:
			bestActions = append(bestActions, a)
		}
	}
	if len(bestActions) == 0 {
		return candidates[l.rng.Intn(len(candidates))]
	}
	return bestActions[l.rng.Intn(len(bestActions))]
}

// loopAction detects an X,Y,X,Y oscillation in the last four actions and
// returns Y, the most recent move, to drop this turn. The history is cleared
// when a loop is found.
func (l *Learner) loopAction() (capture.Direction, bool) {
	h := l.history
	if len(h) < historyLen {
		return capture.NoAction, false
	}
	if h[3] == h[1] && h[2] == h[0] && h[3] != h[2] {
		loop := h[3]
		l.history = l.history[:0]
		return loop, true
	}
	return capture.NoAction, false
}

func (l *Learner) record(gs *capture.GameState, action capture.Direction) {
	l.prevState = gs
	l.prevAction = action
	l.pairs++
	l.turn++
	l.history = append(l.history, action)
	if len(l.history) > historyLen {
		l.history = append(l.history[:0], l.history[len(l.history)-historyLen:]...)
	}
}

// Final applies the terminal update, closes the episode and persists the
// weights when a store is attached. Exploration and learning switch off once
// the training episodes are used up.
func (l *Learner) Final(ctx context.Context, gs *capture.GameState) error {
	l.observe(gs)
	l.episodes++
	if l.episodes >= l.params.NumTraining && (l.params.Epsilon != 0 || l.params.Alpha != 0) {
		l.params.Epsilon = 0
		l.params.Alpha = 0
		log.Info().Str("learner", l.Name()).Int("episodes", l.episodes).Msg("Training done, exploration and learning off")
	}
	log.Debug().
		Str("learner", l.Name()).
		Int("episode", l.episodes).
		Float64("reward", l.rewardSum).
		Int("score", gs.TeamScore(l.index)).
		Msg("Episode finished")

	if l.store == nil {
		return nil
	}
	err := l.store.SaveWeights(ctx, &model.WeightTable{
		Agent:     l.name,
		Role:      l.Role().String(),
		Weights:   l.Weights(),
		Episodes:  l.episodes,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save weights for %s: %w", l.Name(), err)
	}
	return nil
}

// without returns actions minus drop; if that leaves nothing, actions is
// returned unchanged.
func without(actions []capture.Direction, drop capture.Direction) []capture.Direction {
	out := make([]capture.Direction, 0, len(actions))
	for _, a := range actions {
		if a != drop {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return actions
	}
	return out
}

// mustFinite panics on NaN or infinity; the value function never produces
// them for finite weights and features.
func mustFinite(what string, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(fmt.Sprintf("bot: non-finite %s: %v", what, v))
	}
	return v
}
