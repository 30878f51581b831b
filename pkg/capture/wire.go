package capture

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AgentMessage is the JSON form of an AgentState. Position is omitted when
// the agent is not observed.
type AgentMessage struct {
	Start       Cell      `json:"start"`
	Position    *Cell     `json:"position,omitempty"`
	Direction   Direction `json:"direction"`
	IsPacman    bool      `json:"is_pacman"`
	ScaredTimer int       `json:"scared_timer"`
	NumCarrying int       `json:"num_carrying"`
	NumReturned int       `json:"num_returned"`
}

// StateMessage is the JSON form of a GameState exchanged with a remote
// engine. Layout rows are only sent with the first message of a game.
type StateMessage struct {
	Layout   []string       `json:"layout,omitempty"`
	Agents   []AgentMessage `json:"agents"`
	Food     []Cell         `json:"food"`
	Capsules []Cell         `json:"capsules"`
	TimeLeft int            `json:"time_left"`
	Score    int            `json:"score"`
}

// Envelope types exchanged with a remote engine. The engine sends init,
// turn and final; the agent answers each turn with an action.
const (
	MsgInit   = "init"
	MsgTurn   = "turn"
	MsgFinal  = "final"
	MsgAction = "action"
	MsgError  = "error"
)

// Envelope is one websocket message between an engine and a remote agent.
type Envelope struct {
	Type   string        `json:"type"`
	Agent  int           `json:"agent"`
	State  *StateMessage `json:"state,omitempty"`
	Action Direction     `json:"action,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// EncodeState converts a state to its wire form.
func EncodeState(gs *GameState, withLayout bool) StateMessage {
	msg := StateMessage{
		Food:     gs.Food.Cells(),
		Capsules: append([]Cell{}, gs.Capsules...),
		TimeLeft: gs.TimeLeft,
		Score:    gs.Score,
	}
	if withLayout {
		msg.Layout = gs.Layout.Rows()
	}
	for _, a := range gs.Agents {
		am := AgentMessage{
			Start:       a.Start,
			Direction:   a.Direction,
			IsPacman:    a.IsPacman,
			ScaredTimer: a.ScaredTimer,
			NumCarrying: a.NumCarrying,
			NumReturned: a.NumReturned,
		}
		if a.Observed {
			pos := a.Position
			am.Position = &pos
		}
		msg.Agents = append(msg.Agents, am)
	}
	return msg
}

// DecodeState rebuilds a state from its wire form. When msg carries layout
// rows they are parsed; otherwise l must be the layout of the game.
func DecodeState(msg StateMessage, l *Layout) (*GameState, error) {
	if len(msg.Layout) > 0 {
		parsed, err := ParseLayout(strings.Join(msg.Layout, "\n"))
		if err != nil {
			return nil, fmt.Errorf("decode layout: %w", err)
		}
		l = parsed
	}
	if l == nil {
		return nil, fmt.Errorf("%w: state without layout", ErrBadLayout)
	}
	if len(msg.Agents) != l.NumAgents() {
		return nil, fmt.Errorf("decode state: %d agents, layout has %d", len(msg.Agents), l.NumAgents())
	}
	gs := &GameState{
		Layout:   l,
		Food:     NewGrid(l.Width, l.Height),
		Capsules: append([]Cell(nil), msg.Capsules...),
		TimeLeft: msg.TimeLeft,
		Score:    msg.Score,
	}
	for _, c := range msg.Food {
		gs.Food.Set(c, true)
	}
	for _, am := range msg.Agents {
		a := AgentState{
			Start:       am.Start,
			Direction:   am.Direction,
			IsPacman:    am.IsPacman,
			ScaredTimer: am.ScaredTimer,
			NumCarrying: am.NumCarrying,
			NumReturned: am.NumReturned,
		}
		if am.Position != nil {
			a.Position = *am.Position
			a.Observed = true
		}
		gs.Agents = append(gs.Agents, a)
	}
	return gs, nil
}

// MarshalJSON encodes the full state, layout included.
func (gs *GameState) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeState(gs, true))
}

