package bot

import (
	"testing"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

// ringLayout is two corridors joined at both ends, with a two-cell pocket
// hanging off the red side at x=1. Red home is x 0-2, blue home x 3-6.
const ringLayout = `
%%%%%%%
%1...2%
%.%%%.%
%.....%
%.%%%%%
%.%%%%%
%%%%%%%
`

func mustLayout(t *testing.T, text string) *capture.Layout {
	t.Helper()
	l, err := capture.ParseLayout(text)
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	return l
}

func newRingState(t *testing.T, timeLeft int) *capture.GameState {
	t.Helper()
	return capture.NewGameState(mustLayout(t, ringLayout), timeLeft)
}

func newDefaultState(t *testing.T, timeLeft int) *capture.GameState {
	t.Helper()
	return capture.NewGameState(mustLayout(t, capture.DefaultLayout), timeLeft)
}

// manhattan is a wall-blind distance oracle for geometry-only tests.
type manhattan struct{}

func (manhattan) Distance(a, b capture.Cell) int { return a.Manhattan(b) }

func cell(x, y int) capture.Cell { return capture.Cell{X: x, Y: y} }
