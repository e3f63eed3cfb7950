package systems

// OccupancyGrid indexes agents by the cell they occupy.
// It is rebuilt once per tick, so readers see a consistent snapshot even as
// agents move.
type OccupancyGrid struct {
	width, height int
	cells         [][]Agent
	order         []int // non-empty cells in first-insert order
}

// NewOccupancyGrid creates an index covering a width x height grid.
func NewOccupancyGrid(width, height int) *OccupancyGrid {
	cells := make([][]Agent, width*height)
	for i := range cells {
		cells[i] = make([]Agent, 0, 2)
	}
	return &OccupancyGrid{
		width:  width,
		height: height,
		cells:  cells,
	}
}

// Clear removes all agents from the grid.
func (g *OccupancyGrid) Clear() {
	for _, idx := range g.order {
		g.cells[idx] = g.cells[idx][:0]
	}
	g.order = g.order[:0]
}

// Insert adds an agent at its current position.
func (g *OccupancyGrid) Insert(a Agent) {
	idx := g.cellIndex(a.Pos.X, a.Pos.Y)
	if len(g.cells[idx]) == 0 {
		g.order = append(g.order, idx)
	}
	g.cells[idx] = append(g.cells[idx], a)
}

// At returns the agents indexed at (x, y), wrapped. The slice is owned by
// the grid and valid until the next Clear.
func (g *OccupancyGrid) At(x, y int) []Agent {
	return g.cells[g.cellIndex(x, y)]
}

// Occupied reports whether any agent is indexed at (x, y).
func (g *OccupancyGrid) Occupied(x, y int) bool {
	return len(g.cells[g.cellIndex(x, y)]) > 0
}

// Groups returns every non-empty cell's agents, ordered by the first
// insertion into each cell.
func (g *OccupancyGrid) Groups() [][]Agent {
	groups := make([][]Agent, 0, len(g.order))
	for _, idx := range g.order {
		groups = append(groups, g.cells[idx])
	}
	return groups
}

// Len returns the number of indexed agents.
func (g *OccupancyGrid) Len() int {
	n := 0
	for _, idx := range g.order {
		n += len(g.cells[idx])
	}
	return n
}

// cellIndex returns the flat index for a wrapped grid position.
func (g *OccupancyGrid) cellIndex(x, y int) int {
	return Wrap(y, g.height)*g.width + Wrap(x, g.width)
}
