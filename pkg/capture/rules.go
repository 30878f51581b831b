package capture

import (
	"errors"
	"fmt"
)

// ErrIllegalAction is returned by Successor for a move into a wall.
var ErrIllegalAction = errors.New("illegal action")

// LegalActions returns the moves available to agent i. Stop is always legal.
func (gs *GameState) LegalActions(i int) []Direction {
	if i < 0 || i >= len(gs.Agents) {
		return nil
	}
	pos := gs.Agents[i].Position
	var out []Direction
	for _, d := range Directions {
		if d == Stop || !gs.Layout.IsWall(pos.Add(d)) {
			out = append(out, d)
		}
	}
	return out
}

// IsLegal reports whether agent i may take action a.
func (gs *GameState) IsLegal(i int, a Direction) bool {
	for _, d := range gs.LegalActions(i) {
		if d == a {
			return true
		}
	}
	return false
}

// Successor returns the state after agent i takes action a. The receiver is
// not modified.
func (gs *GameState) Successor(i int, a Direction) (*GameState, error) {
	if !gs.IsLegal(i, a) {
		return nil, fmt.Errorf("%w: agent %d cannot move %q", ErrIllegalAction, i, a)
	}
	next := gs.Clone()
	team := TeamOf(i)
	ag := &next.Agents[i]

	ag.Position = ag.Position.Add(a)
	if a != Stop {
		ag.Direction = a
	}
	ag.IsPacman = !next.Layout.InHome(team, ag.Position)
	if ag.ScaredTimer > 0 {
		ag.ScaredTimer--
	}

	if ag.IsPacman {
		if next.Food.Get(ag.Position) {
			next.Food.Set(ag.Position, false)
			ag.NumCarrying++
		}
		if next.removeCapsule(ag.Position) {
			for _, o := range next.Opponents(i) {
				next.Agents[o].ScaredTimer = ScaredTime
			}
		}
	} else if ag.NumCarrying > 0 {
		if team == Red {
			next.Score += ag.NumCarrying
		} else {
			next.Score -= ag.NumCarrying
		}
		ag.NumReturned += ag.NumCarrying
		ag.NumCarrying = 0
	}

	next.resolveCollisions(i)
	next.TimeLeft--
	return next, nil
}

func (gs *GameState) removeCapsule(c Cell) bool {
	for k, cc := range gs.Capsules {
		if cc == c {
			gs.Capsules = append(gs.Capsules[:k], gs.Capsules[k+1:]...)
			return true
		}
	}
	return false
}

// resolveCollisions handles agent i sharing a cell with observed opponents.
func (gs *GameState) resolveCollisions(i int) {
	for _, o := range gs.Opponents(i) {
		me, opp := &gs.Agents[i], &gs.Agents[o]
		if !opp.Observed || opp.Position != me.Position {
			continue
		}
		switch {
		case me.IsPacman && !opp.IsPacman:
			if opp.ScaredTimer <= 0 {
				gs.capturePacman(i)
				return
			}
			gs.respawnGhost(o)
		case !me.IsPacman && opp.IsPacman:
			if me.ScaredTimer <= 0 {
				gs.capturePacman(o)
				continue
			}
			gs.respawnGhost(i)
			return
		}
	}
}

func (gs *GameState) capturePacman(p int) {
	ag := &gs.Agents[p]
	if ag.NumCarrying > 0 {
		gs.scatterFood(ag.Position, ag.NumCarrying, TeamOf(p).Other())
	}
	ag.NumCarrying = 0
	ag.Position = ag.Start
	ag.Direction = Stop
	ag.IsPacman = false
	ag.ScaredTimer = 0
}

func (gs *GameState) respawnGhost(g int) {
	ag := &gs.Agents[g]
	ag.Position = ag.Start
	ag.Direction = Stop
	ag.ScaredTimer = 0
}

// scatterFood puts n food back on side's territory, filling the free cells
// nearest to from in BFS order.
func (gs *GameState) scatterFood(from Cell, n int, side Team) {
	seen := map[Cell]bool{from: true}
	queue := []Cell{from}
	for len(queue) > 0 && n > 0 {
		c := queue[0]
		queue = queue[1:]
		if gs.Layout.InHome(side, c) && !gs.Food.Get(c) && !gs.hasCapsule(c) {
			gs.Food.Set(c, true)
			n--
		}
		for _, d := range Directions[:4] {
			nc := c.Add(d)
			if seen[nc] || gs.Layout.IsWall(nc) {
				continue
			}
			seen[nc] = true
			queue = append(queue, nc)
		}
	}
}

func (gs *GameState) hasCapsule(c Cell) bool {
	for _, cc := range gs.Capsules {
		if cc == c {
			return true
		}
	}
	return false
}
