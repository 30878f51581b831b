package bot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

// Model conversion helpers

func episodeFromResult(r *MatchResult, cfg TrainConfig, training bool) (*model.Episode, error) {
	state, err := json.Marshal(r.Final)
	if err != nil {
		return nil, fmt.Errorf("marshal final state: %w", err)
	}
	layoutName := cfg.Match.LayoutName
	if layoutName == "" {
		layoutName = "default"
	}
	return &model.Episode{
		ID:         r.EpisodeID,
		Label:      cfg.Label,
		Layout:     layoutName,
		RedPolicy:  rosterName(cfg.Match.Red),
		BluePolicy: rosterName(cfg.Match.Blue),
		Score:      r.Score,
		Winner:     r.Winner,
		Turns:      r.Turns,
		Training:   training,
		FinalState: state,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}, nil
}

func rosterName(ps []Policy) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name()
	}
	return strings.Join(names, ",")
}
