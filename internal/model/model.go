package model

import (
	"encoding/json"
	"time"
)

// Episode records one finished game played by the arena.
type Episode struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Layout     string          `json:"layout"`
	RedPolicy  string          `json:"red_policy"`
	BluePolicy string          `json:"blue_policy"`
	Score      int             `json:"score"` // positive favours red
	Winner     string          `json:"winner,omitempty"`
	Turns      int             `json:"turns"`
	Training   bool            `json:"training"`
	FinalState json.RawMessage `json:"final_state,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Transition is one temporal-difference update applied by a learner.
type Transition struct {
	EpisodeID string             `json:"episode_id"`
	Agent     int                `json:"agent"`
	Role      string             `json:"role"`
	Turn      int                `json:"turn"`
	Action    string             `json:"action"`
	Reward    float64            `json:"reward"`
	QValue    float64            `json:"q_value"`
	NextMaxQ  float64            `json:"next_max_q"`
	Delta     float64            `json:"delta"`
	Features  map[string]float64 `json:"features"`
}

// WeightTable is a persisted weight table for one agent role.
type WeightTable struct {
	Agent     string             `json:"agent"`
	Role      string             `json:"role"`
	Weights   map[string]float64 `json:"weights"`
	Episodes  int                `json:"episodes"`
	UpdatedAt time.Time          `json:"updated_at"`
}
