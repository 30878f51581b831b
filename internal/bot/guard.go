package bot

import (
	"math"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// capsuleDoorRadius is how close to a door a defended capsule must be to
// pull the guard position toward it.
const capsuleDoorRadius = 2

// HomeCells returns the open cells of team t's territory in scan order.
func HomeCells(l *capture.Layout, t capture.Team) []capture.Cell {
	lo, hi := l.HomeRange(t)
	var out []capture.Cell
	for x := lo; x <= hi; x++ {
		for y := 0; y < l.Height; y++ {
			c := capture.Cell{X: x, Y: y}
			if !l.IsWall(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// SelectGuardPosition returns the candidate minimizing the mean distance to
// the doors, plus the mean distance to the priority cells when there are
// any. Ties go to the earliest candidate. ok is false when there are no
// candidates or no doors.
func SelectGuardPosition(candidates, doors, priority []capture.Cell, dist Distancer) (capture.Cell, bool) {
	if len(candidates) == 0 || len(doors) == 0 {
		return capture.Cell{}, false
	}
	best := math.Inf(1)
	var guard capture.Cell
	found := false
	for _, c := range candidates {
		score := meanDistance(c, doors, dist)
		if len(priority) > 0 {
			score += meanDistance(c, priority, dist)
		}
		if score < best {
			best = score
			guard = c
			found = true
		}
	}
	return guard, found
}

// DoorCapsules returns the defended capsules within capsuleDoorRadius of any
// door, each listed once.
func DoorCapsules(capsules, doors []capture.Cell, dist Distancer) []capture.Cell {
	var out []capture.Cell
	for _, c := range capsules {
		for _, d := range doors {
			if dd := dist.Distance(d, c); dd >= 0 && dd <= capsuleDoorRadius {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func meanDistance(from capture.Cell, to []capture.Cell, dist Distancer) float64 {
	sum := 0
	for _, c := range to {
		sum += dist.Distance(from, c)
	}
	return float64(sum) / float64(len(to))
}
