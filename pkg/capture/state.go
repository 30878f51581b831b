package capture

// Team identifies a side. Even agent indices play red, odd play blue.
type Team int

const (
	Red Team = iota
	Blue
)

func (t Team) String() string {
	if t == Red {
		return "red"
	}
	return "blue"
}

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == Red {
		return Blue
	}
	return Red
}

// TeamOf returns the team of an agent index.
func TeamOf(index int) Team {
	if index%2 == 0 {
		return Red
	}
	return Blue
}

const (
	// ScaredTime is the number of moves opponents stay scared after a capsule is eaten.
	ScaredTime = 40
	// SightRange is the Manhattan distance within which opponents are observed.
	SightRange = 5
	// MinFood is the food count at which a side has been eaten out.
	MinFood = 2
	// DefaultTimeLeft is the standard game length in agent moves.
	DefaultTimeLeft = 1200
)

// AgentState is one agent's slice of a snapshot.
type AgentState struct {
	Start       Cell
	Position    Cell
	Observed    bool // false when the position is unknown to the observer
	Direction   Direction
	IsPacman    bool
	ScaredTimer int
	NumCarrying int
	NumReturned int
}

// GameState is a complete snapshot of the board at a point in time.
type GameState struct {
	Layout   *Layout
	Agents   []AgentState
	Food     Grid
	Capsules []Cell
	TimeLeft int // agent moves remaining, summed over all agents
	Score    int // positive favours red
}

// NewGameState returns the starting position for a layout.
func NewGameState(l *Layout, timeLeft int) *GameState {
	gs := &GameState{
		Layout:   l,
		Food:     l.Food.Copy(),
		Capsules: append([]Cell(nil), l.Capsules...),
		TimeLeft: timeLeft,
	}
	for _, s := range l.Starts {
		gs.Agents = append(gs.Agents, AgentState{
			Start:     s,
			Position:  s,
			Observed:  true,
			Direction: Stop,
		})
	}
	return gs
}

// Clone performs a deep copy of the game state. The layout is shared.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	out := *gs
	out.Agents = append([]AgentState(nil), gs.Agents...)
	out.Food = gs.Food.Copy()
	out.Capsules = append([]Cell(nil), gs.Capsules...)
	return &out
}

// Agent returns the state of agent i.
func (gs *GameState) Agent(i int) AgentState {
	return gs.Agents[i]
}

// Opponents returns the agent indices on the other team from i.
func (gs *GameState) Opponents(i int) []int {
	return gs.teamIndices(TeamOf(i).Other())
}

// Teammates returns the agent indices on i's team, i included.
func (gs *GameState) Teammates(i int) []int {
	return gs.teamIndices(TeamOf(i))
}

// Teammate returns the first teammate of i other than i, or -1.
func (gs *GameState) Teammate(i int) int {
	for _, j := range gs.Teammates(i) {
		if j != i {
			return j
		}
	}
	return -1
}

func (gs *GameState) teamIndices(t Team) []int {
	var out []int
	for i := range gs.Agents {
		if TeamOf(i) == t {
			out = append(out, i)
		}
	}
	return out
}

// FoodFor returns the food team t can eat, which lies on the opponent side.
func (gs *GameState) FoodFor(t Team) Grid {
	return gs.foodOn(t.Other())
}

// DefendingFood returns the food on team t's own side.
func (gs *GameState) DefendingFood(t Team) Grid {
	return gs.foodOn(t)
}

func (gs *GameState) foodOn(side Team) Grid {
	out := NewGrid(gs.Food.Width, gs.Food.Height)
	for _, c := range gs.Food.Cells() {
		if gs.Layout.InHome(side, c) {
			out.Set(c, true)
		}
	}
	return out
}

// CapsulesFor returns the capsules team t can eat.
func (gs *GameState) CapsulesFor(t Team) []Cell {
	return gs.capsulesOn(t.Other())
}

// DefendingCapsules returns the capsules on team t's own side.
func (gs *GameState) DefendingCapsules(t Team) []Cell {
	return gs.capsulesOn(t)
}

func (gs *GameState) capsulesOn(side Team) []Cell {
	var out []Cell
	for _, c := range gs.Capsules {
		if gs.Layout.InHome(side, c) {
			out = append(out, c)
		}
	}
	return out
}

// TeamScore returns the score from agent i's point of view.
func (gs *GameState) TeamScore(i int) int {
	if TeamOf(i) == Red {
		return gs.Score
	}
	return -gs.Score
}

// IsOver reports whether the game has ended.
func (gs *GameState) IsOver() bool {
	if gs.TimeLeft <= 0 {
		return true
	}
	return gs.FoodFor(Red).Count() <= MinFood || gs.FoodFor(Blue).Count() <= MinFood
}

// Observation returns the state as seen by agent i: opponents farther than
// SightRange from every member of i's team lose their position.
func (gs *GameState) Observation(i int) *GameState {
	obs := gs.Clone()
	team := gs.Teammates(i)
	for _, o := range gs.Opponents(i) {
		pos := gs.Agents[o].Position
		seen := false
		for _, m := range team {
			if gs.Agents[m].Position.Manhattan(pos) <= SightRange {
				seen = true
				break
			}
		}
		if !seen {
			obs.Agents[o].Observed = false
			obs.Agents[o].Position = Cell{}
		}
	}
	return obs
}
