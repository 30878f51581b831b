package bot

import (
	"errors"
	"fmt"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// ErrNoDoors is returned when a layout has no open cell on a team's border
// column.
var ErrNoDoors = errors.New("layout has no door cells")

// Spatial is the per-game map analysis for one team.
type Spatial struct {
	Doors    []capture.Cell
	DeadEnds map[capture.Cell]bool // within the invaded half
	Open     []capture.Cell        // invaded half minus dead ends

	// nearOpen marks dead-end cells within distance 1 of an open cell.
	nearOpen map[capture.Cell]bool
}

// Analyze runs the spatial precomputation for team t.
func Analyze(l *capture.Layout, t capture.Team) (*Spatial, error) {
	doors := FindDoors(l.Walls, l.BorderX(t))
	if len(doors) == 0 {
		return nil, fmt.Errorf("%w: team %s, column %d", ErrNoDoors, t, l.BorderX(t))
	}
	lo, hi := l.HomeRange(t.Other())
	dead := FindDeadEnds(l.Walls, lo, hi)

	s := &Spatial{
		Doors:    doors,
		DeadEnds: make(map[capture.Cell]bool, len(dead)),
		nearOpen: make(map[capture.Cell]bool),
	}
	for _, c := range dead {
		s.DeadEnds[c] = true
	}
	for x := lo; x <= hi; x++ {
		for y := 0; y < l.Height; y++ {
			c := capture.Cell{X: x, Y: y}
			if !l.IsWall(c) && !s.DeadEnds[c] {
				s.Open = append(s.Open, c)
			}
		}
	}
	for _, c := range dead {
		for _, d := range capture.Directions[:4] {
			n := c.Add(d)
			if !l.IsWall(n) && !s.DeadEnds[n] && n.X >= lo && n.X <= hi {
				s.nearOpen[c] = true
				break
			}
		}
	}
	return s, nil
}

// IsDeadEnd reports whether c was flagged as a dead end.
func (s *Spatial) IsDeadEnd(c capture.Cell) bool {
	return s.DeadEnds[c]
}

// SafePellet reports whether a pellet is worth chasing when threats are
// around: it is not in a dead end, or it sits next to an open cell.
func (s *Spatial) SafePellet(c capture.Cell) bool {
	return !s.DeadEnds[c] || s.nearOpen[c]
}

// FindDoors returns the open cells of column x, bottom to top.
func FindDoors(walls capture.Grid, x int) []capture.Cell {
	var out []capture.Cell
	for y := 0; y < walls.Height; y++ {
		c := capture.Cell{X: x, Y: y}
		if !walls.Get(c) {
			out = append(out, c)
		}
	}
	return out
}

// FindDeadEnds flags, within columns lo..hi, every open cell with at least
// three walled neighbours. Flagged cells become walls for the next pass and
// passes repeat until one flags nothing, so corridors leading only into dead
// ends are flagged too. Cells are returned in the order they were flagged.
func FindDeadEnds(walls capture.Grid, lo, hi int) []capture.Cell {
	walls = walls.Copy()
	var dead []capture.Cell
	for {
		var flagged []capture.Cell
		for x := lo; x <= hi; x++ {
			for y := 0; y < walls.Height; y++ {
				c := capture.Cell{X: x, Y: y}
				if !walls.Get(c) && blocked(walls, c) {
					flagged = append(flagged, c)
				}
			}
		}
		if len(flagged) == 0 {
			return dead
		}
		for _, c := range flagged {
			walls.Set(c, true)
		}
		dead = append(dead, flagged...)
	}
}

// blocked counts on-board walled neighbours; the board edge does not count.
func blocked(walls capture.Grid, c capture.Cell) bool {
	n := 0
	for _, d := range capture.Directions[:4] {
		nc := c.Add(d)
		if walls.In(nc) && walls.Get(nc) {
			n++
		}
	}
	return n >= 3
}
