package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/linhozo/UnimelbS2-Pacman/internal/repository"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// MatchConfig configures a single headless game.
type MatchConfig struct {
	Layout     *capture.Layout // nil = capture.DefaultLayout
	LayoutName string          // recorded with episodes
	TimeLeft   int             // 0 = capture.DefaultTimeLeft
	Red        []Policy        // Red[k] plays agent 2k
	Blue       []Policy        // Blue[k] plays agent 2k+1
}

// MatchResult describes the outcome of a finished game.
type MatchResult struct {
	EpisodeID  string
	Score      int    // positive favours red
	Winner     string // "red", "blue" or "" for a tie
	Turns      int
	Final      *capture.GameState
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunMatch plays one game to the end. Agents move in index order, each
// seeing only its own observation. An illegal or missing action is played
// as Stop.
func RunMatch(ctx context.Context, cfg MatchConfig) (*MatchResult, error) {
	l := cfg.Layout
	if l == nil {
		var err error
		if l, err = capture.ParseLayout(capture.DefaultLayout); err != nil {
			return nil, err
		}
	}
	timeLeft := cfg.TimeLeft
	if timeLeft == 0 {
		timeLeft = capture.DefaultTimeLeft
	}
	policies, err := seatPolicies(l, cfg.Red, cfg.Blue)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{EpisodeID: uuid.NewString(), StartedAt: time.Now().UTC()}
	gs := capture.NewGameState(l, timeLeft)
	for i, p := range policies {
		if t, ok := p.(EpisodeTagger); ok {
			t.SetEpisode(result.EpisodeID)
		}
		if err := p.Initialize(gs.Observation(i)); err != nil {
			return nil, fmt.Errorf("initialize agent %d (%s): %w", i, p.Name(), err)
		}
	}

	for !gs.IsOver() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		i := result.Turns % len(policies)
		action := policies[i].ChooseAction(gs.Observation(i))
		if !gs.IsLegal(i, action) {
			log.Warn().Int("agent", i).Str("action", string(action)).Msg("Illegal action, playing Stop")
			action = capture.Stop
		}
		next, err := gs.Successor(i, action)
		if err != nil {
			return nil, fmt.Errorf("agent %d turn %d: %w", i, result.Turns, err)
		}
		gs = next
		result.Turns++
	}

	var finalErr error
	for i, p := range policies {
		finalErr = errors.Join(finalErr, p.Final(ctx, gs.Observation(i)))
	}
	if finalErr != nil {
		return nil, fmt.Errorf("finalize: %w", finalErr)
	}

	result.Final = gs
	result.Score = gs.Score
	result.Winner = winnerOf(gs.Score)
	result.FinishedAt = time.Now().UTC()
	log.Debug().
		Str("episode", result.EpisodeID).
		Int("score", result.Score).
		Int("turns", result.Turns).
		Msg("Match finished")
	return result, nil
}

// seatPolicies orders the team rosters by agent index.
func seatPolicies(l *capture.Layout, red, blue []Policy) ([]Policy, error) {
	n := l.NumAgents()
	if len(red)+len(blue) != n || len(red) != (n+1)/2 {
		return nil, fmt.Errorf("layout seats %d agents, got %d red and %d blue policies", n, len(red), len(blue))
	}
	out := make([]Policy, n)
	for i := range out {
		if capture.TeamOf(i) == capture.Red {
			out[i] = red[i/2]
		} else {
			out[i] = blue[i/2]
		}
	}
	return out, nil
}

func winnerOf(score int) string {
	switch {
	case score > 0:
		return capture.Red.String()
	case score < 0:
		return capture.Blue.String()
	}
	return ""
}

// TrainConfig configures a run of consecutive games between the same
// policies, so learned weights carry over from one game to the next.
type TrainConfig struct {
	Match       MatchConfig
	Episodes    int
	NumTraining int                          // leading episodes recorded as training games
	Label       string                       // stored with every episode
	EpisodeRepo repository.EpisodeRepository // nil = do not persist
	OnEpisode   func(n int, r *MatchResult)
}

// TrainSummary aggregates the results of a training run.
type TrainSummary struct {
	Episodes   int
	RedWins    int
	BlueWins   int
	Ties       int
	TotalScore int
}

// Train plays cfg.Episodes games and records each one.
func Train(ctx context.Context, cfg TrainConfig) (*TrainSummary, error) {
	if cfg.Episodes <= 0 {
		return nil, fmt.Errorf("episodes must be positive, got %d", cfg.Episodes)
	}
	sum := &TrainSummary{}
	for n := 0; n < cfg.Episodes; n++ {
		r, err := RunMatch(ctx, cfg.Match)
		if err != nil {
			return sum, fmt.Errorf("episode %d: %w", n+1, err)
		}
		sum.Episodes++
		sum.TotalScore += r.Score
		switch r.Winner {
		case capture.Red.String():
			sum.RedWins++
		case capture.Blue.String():
			sum.BlueWins++
		default:
			sum.Ties++
		}

		if cfg.EpisodeRepo != nil {
			ep, err := episodeFromResult(r, cfg, n < cfg.NumTraining)
			if err != nil {
				return sum, err
			}
			if err := cfg.EpisodeRepo.SaveEpisode(ctx, ep); err != nil {
				return sum, fmt.Errorf("save episode %s: %w", r.EpisodeID, err)
			}
		}
		if cfg.OnEpisode != nil {
			cfg.OnEpisode(n+1, r)
		}
		log.Info().
			Int("episode", n+1).
			Str("id", r.EpisodeID).
			Int("score", r.Score).
			Str("winner", r.Winner).
			Int("turns", r.Turns).
			Msg("Episode complete")
	}
	return sum, nil
}
