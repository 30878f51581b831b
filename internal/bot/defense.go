package bot

import (
	"fmt"
	"math"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// contactRange is the invader distance at which a scared defender backs off.
const contactRange = 3

// DefenseExtractor computes guard features for one agent.
type DefenseExtractor struct {
	index int
	team  capture.Team
	dist  Distancer
	doors []capture.Cell
	home  []capture.Cell

	guard      *capture.Cell
	nextPellet *capture.Cell // defended pellet nearest the latest theft
}

// NewDefenseExtractor returns an extractor for agent index.
func NewDefenseExtractor(index int) *DefenseExtractor {
	return &DefenseExtractor{index: index, team: capture.TeamOf(index)}
}

func (e *DefenseExtractor) Role() Role { return RoleDefense }

// Initialize finds the doors and home cells for a new game.
func (e *DefenseExtractor) Initialize(gs *capture.GameState, dist Distancer) error {
	l := gs.Layout
	e.doors = FindDoors(l.Walls, l.BorderX(e.team))
	if len(e.doors) == 0 {
		return fmt.Errorf("%w: team %s, column %d", ErrNoDoors, e.team, l.BorderX(e.team))
	}
	e.dist = dist
	e.home = HomeCells(l, e.team)
	e.guard = nil
	e.nextPellet = nil
	return nil
}

// GuardPosition returns the current patrol target, if any.
func (e *DefenseExtractor) GuardPosition() (capture.Cell, bool) {
	if e.guard == nil {
		return capture.Cell{}, false
	}
	return *e.guard, true
}

// NextPellet returns the pellet chosen after the latest theft, if any.
func (e *DefenseExtractor) NextPellet() (capture.Cell, bool) {
	if e.nextPellet == nil {
		return capture.Cell{}, false
	}
	return *e.nextPellet, true
}

// BeginTurn recomputes the guard position and tracks stolen pellets.
func (e *DefenseExtractor) BeginTurn(gs, prev *capture.GameState) {
	priority := DoorCapsules(gs.DefendingCapsules(e.team), e.doors, e.dist)
	if g, ok := SelectGuardPosition(e.home, e.doors, priority, e.dist); ok {
		e.guard = &g
	}

	if len(e.invaders(gs)) > 0 {
		e.nextPellet = nil
		return
	}
	if prev == nil {
		return
	}
	current := gs.DefendingFood(e.team)
	var stolen []capture.Cell
	for _, c := range prev.DefendingFood(e.team).Cells() {
		if !current.Get(c) {
			stolen = append(stolen, c)
		}
	}
	if len(stolen) == 0 {
		return
	}
	best := math.MaxInt
	for _, p := range current.Cells() {
		for _, s := range stolen {
			if d := e.dist.Distance(p, s); d < best {
				best = d
				pellet := p
				e.nextPellet = &pellet
			}
		}
	}
}

// Features evaluates action against the successor it produces. Invader
// features take precedence over the theft marker, which takes precedence
// over the guard position.
func (e *DefenseExtractor) Features(gs *capture.GameState, action capture.Direction) Features {
	me := gs.Agents[e.index]
	next := successor(gs, e.index, action).Agents[e.index]

	f := Features{}
	if !next.IsPacman {
		f[FeatDefenseMode] = 1
	}
	if action == capture.Stop {
		f[FeatStopsMoving] = 1
	}

	invaders := e.invaders(gs)
	f[FeatNumInvaders] = float64(len(invaders))
	switch {
	case len(invaders) > 0:
		nearest := math.MaxInt
		for _, c := range invaders {
			if d := e.dist.Distance(next.Position, c); d < nearest {
				nearest = d
			}
		}
		if nearest <= contactRange && me.ScaredTimer > 0 {
			f[FeatDistInvader] = -float64(nearest)
		} else {
			f[FeatDistInvader] = float64(nearest)
		}
	case e.nextPellet != nil:
		f[FeatDistNextPallet] = float64(e.dist.Distance(next.Position, *e.nextPellet))
	case e.guard != nil:
		f[FeatDistGuard] = float64(e.dist.Distance(next.Position, *e.guard))
	}

	if action == me.Direction.Reverse() {
		f[FeatReverse] = 1
	}
	return f
}

// Reward is the change in team score.
func (e *DefenseExtractor) Reward(prev, cur *capture.GameState) float64 {
	return float64(cur.TeamScore(e.index) - prev.TeamScore(e.index))
}

// invaders returns the positions of observed opponents on our side.
func (e *DefenseExtractor) invaders(gs *capture.GameState) []capture.Cell {
	var out []capture.Cell
	for _, o := range gs.Opponents(e.index) {
		a := gs.Agents[o]
		if a.IsPacman && a.Observed {
			out = append(out, a.Position)
		}
	}
	return out
}
