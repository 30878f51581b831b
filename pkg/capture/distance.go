package capture

// Distancer holds pre-computed shortest-path distances between all pairs of
// open cells of a layout. Computed once per layout via BFS from each cell.
type Distancer struct {
	index map[Cell]int
	dist  []int16 // flat [i*n + j]; -1 = unreachable
	n     int
}

// NewDistancer builds the distance matrix for a layout.
func NewDistancer(l *Layout) *Distancer {
	idx := make(map[Cell]int)
	var cells []Cell
	for x := 0; x < l.Width; x++ {
		for y := 0; y < l.Height; y++ {
			c := Cell{X: x, Y: y}
			if !l.IsWall(c) {
				idx[c] = len(cells)
				cells = append(cells, c)
			}
		}
	}
	n := len(cells)

	dist := make([]int16, n*n)
	for i := range dist {
		dist[i] = -1
	}

	type item struct {
		idx  int
		dist int16
	}
	for src := range n {
		dist[src*n+src] = 0
		queue := []item{{src, 0}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, d := range Directions[:4] {
				di, ok := idx[cells[cur.idx].Add(d)]
				if !ok {
					continue
				}
				if dist[src*n+di] == -1 {
					dist[src*n+di] = cur.dist + 1
					queue = append(queue, item{di, cur.dist + 1})
				}
			}
		}
	}
	return &Distancer{index: idx, dist: dist, n: n}
}

// Distance returns the maze distance between two cells, or -1 when either is
// a wall or no path exists.
func (d *Distancer) Distance(a, b Cell) int {
	ai, ok1 := d.index[a]
	bi, ok2 := d.index[b]
	if !ok1 || !ok2 {
		return -1
	}
	return int(d.dist[ai*d.n+bi])
}
