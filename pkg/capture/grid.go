package capture

// Cell is a board coordinate. (0,0) is the bottom-left corner.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the cell offset by the given direction.
func (c Cell) Add(d Direction) Cell {
	dx, dy := d.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Manhattan returns the L1 distance between two cells.
func (c Cell) Manhattan(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is a move an agent can make in one turn.
type Direction string

const (
	North Direction = "North"
	South Direction = "South"
	East  Direction = "East"
	West  Direction = "West"
	Stop  Direction = "Stop"

	// NoAction is returned by a policy that has no legal move.
	NoAction Direction = ""
)

// Directions lists the moves in the order legal actions are reported.
var Directions = []Direction{North, South, East, West, Stop}

// Delta returns the (dx, dy) step for a direction.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// Reverse returns the opposite heading. Stop reverses to Stop.
func (d Direction) Reverse() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// Grid is a width×height field of booleans used for walls and food.
type Grid struct {
	Width  int
	Height int
	cells  []bool
}

// NewGrid returns an all-false grid.
func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, cells: make([]bool, width*height)}
}

// In reports whether the cell lies on the grid.
func (g Grid) In(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Get returns the value at c; cells off the grid read as true so that the
// border behaves like a wall.
func (g Grid) Get(c Cell) bool {
	if !g.In(c) {
		return true
	}
	return g.cells[c.X*g.Height+c.Y]
}

// Set writes v at c. Writes off the grid are ignored.
func (g Grid) Set(c Cell, v bool) {
	if !g.In(c) {
		return
	}
	g.cells[c.X*g.Height+c.Y] = v
}

// Copy returns an independent copy of the grid.
func (g Grid) Copy() Grid {
	out := Grid{Width: g.Width, Height: g.Height, cells: make([]bool, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// Cells returns every true cell in column-major order (x outer, y inner).
func (g Grid) Cells() []Cell {
	var out []Cell
	for x := 0; x < g.Width; x++ {
		for y := 0; y < g.Height; y++ {
			if g.cells[x*g.Height+y] {
				out = append(out, Cell{X: x, Y: y})
			}
		}
	}
	return out
}

// Count returns the number of true cells.
func (g Grid) Count() int {
	n := 0
	for _, v := range g.cells {
		if v {
			n++
		}
	}
	return n
}
