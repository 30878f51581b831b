package capture

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBadLayout is returned when a layout cannot be parsed.
var ErrBadLayout = errors.New("bad layout")

// Layout is the static part of a game: walls, initial food and capsules, and
// the start cell of every agent.
type Layout struct {
	Width    int
	Height   int
	Walls    Grid
	Food     Grid
	Capsules []Cell
	Starts   []Cell // indexed by agent
	rows     []string
}

// ParseLayout reads the classic text format. The first line is the top row
// (highest y). '%' is a wall, '.' food, 'o' a capsule and '1'-'4' the start
// of agent 0-3.
func ParseLayout(text string) (*Layout, error) {
	var rows []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadLayout)
	}
	width, height := len(rows[0]), len(rows)
	l := &Layout{
		Width:  width,
		Height: height,
		Walls:  NewGrid(width, height),
		Food:   NewGrid(width, height),
		rows:   rows,
	}
	starts := map[int]Cell{}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrBadLayout, i, len(row), width)
		}
		y := height - 1 - i
		for x, ch := range row {
			c := Cell{X: x, Y: y}
			switch ch {
			case '%':
				l.Walls.Set(c, true)
			case '.':
				l.Food.Set(c, true)
			case 'o':
				l.Capsules = append(l.Capsules, c)
			case ' ':
			case '1', '2', '3', '4':
				starts[int(ch-'1')] = c
			default:
				return nil, fmt.Errorf("%w: unknown glyph %q at (%d,%d)", ErrBadLayout, ch, x, y)
			}
		}
	}
	if len(starts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 agent starts, got %d", ErrBadLayout, len(starts))
	}
	idx := make([]int, 0, len(starts))
	for i := range starts {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	for n, i := range idx {
		if n != i {
			return nil, fmt.Errorf("%w: agent starts must be numbered from 1 without gaps", ErrBadLayout)
		}
		l.Starts = append(l.Starts, starts[i])
	}
	return l, nil
}

// MustParseLayout is ParseLayout for fixed layouts; it panics on error.
func MustParseLayout(text string) *Layout {
	l, err := ParseLayout(text)
	if err != nil {
		panic(err)
	}
	return l
}

// Rows returns the layout text rows, top row first.
func (l *Layout) Rows() []string {
	out := make([]string, len(l.rows))
	copy(out, l.rows)
	return out
}

// IsWall reports whether c is a wall or off the board.
func (l *Layout) IsWall(c Cell) bool {
	return l.Walls.Get(c)
}

// NumAgents returns the number of agents in the layout.
func (l *Layout) NumAgents() int {
	return len(l.Starts)
}

// BorderX returns the home-side column adjacent to the center line for a team.
func (l *Layout) BorderX(t Team) int {
	if t == Red {
		return l.Width/2 - 1
	}
	return l.Width / 2
}

// HomeRange returns the inclusive x range of a team's territory.
func (l *Layout) HomeRange(t Team) (int, int) {
	if t == Red {
		return 0, l.Width/2 - 1
	}
	return l.Width / 2, l.Width - 1
}

// InHome reports whether c is on team t's side of the board.
func (l *Layout) InHome(t Team, c Cell) bool {
	lo, hi := l.HomeRange(t)
	return c.X >= lo && c.X <= hi
}

// DefaultLayout is a small symmetric map used by the CLI when no layout file
// is given.
const DefaultLayout = `
%%%%%%%%%%%%%%%%%%%%
%o...%.............%
%.%%.%.%%.%.%%%%%%.%
%.%...........%...2%
%.%.%%%%.%.%.%.%%%%%
%3....%......%....4%
%%%%%.%.%.%.%%%%.%.%
%1...%...........%.%
%.%%%%%%.%.%%.%.%%.%
%.............%...o%
%%%%%%%%%%%%%%%%%%%%
`
