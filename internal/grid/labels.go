package grid

import "sync"

// Cell addresses one grid position.
type Cell struct {
	X int
	Y int
}

// Rect is a cell rectangle with an exclusive Max corner.
type Rect struct {
	Min Cell
	Max Cell
}

func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// LabelGrid is a tile-map style sink for per-cell labels.
type LabelGrid interface {
	SetCell(x, y int, label string)
	ClearCell(x, y int)
	ClearAll()
	Cell(x, y int) (string, bool)
	// Bounds is the rectangle spanned by every cell set since the last ClearAll.
	Bounds() Rect
	// ForEachCell visits every position inside Bounds, set or not, row by row.
	ForEachCell(fn func(x, y int) bool)
}

// MemoryLabelGrid keeps labels in a map. Bounds grow on SetCell and only reset on ClearAll.
type MemoryLabelGrid struct {
	mu     sync.RWMutex
	cells  map[Cell]string
	bounds Rect
}

func NewMemoryLabelGrid() *MemoryLabelGrid {
	return &MemoryLabelGrid{cells: make(map[Cell]string)}
}

func (g *MemoryLabelGrid) SetCell(x, y int, label string) {
	if label == "" {
		g.ClearCell(x, y)
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells[Cell{X: x, Y: y}] = label
	g.grow(x, y)
}

func (g *MemoryLabelGrid) grow(x, y int) {
	if g.bounds.Empty() {
		g.bounds = Rect{Min: Cell{X: x, Y: y}, Max: Cell{X: x + 1, Y: y + 1}}
		return
	}
	if x < g.bounds.Min.X {
		g.bounds.Min.X = x
	}
	if y < g.bounds.Min.Y {
		g.bounds.Min.Y = y
	}
	if x >= g.bounds.Max.X {
		g.bounds.Max.X = x + 1
	}
	if y >= g.bounds.Max.Y {
		g.bounds.Max.Y = y + 1
	}
}

func (g *MemoryLabelGrid) ClearCell(x, y int) {
	g.mu.Lock()
	delete(g.cells, Cell{X: x, Y: y})
	g.mu.Unlock()
}

func (g *MemoryLabelGrid) ClearAll() {
	g.mu.Lock()
	g.cells = make(map[Cell]string)
	g.bounds = Rect{}
	g.mu.Unlock()
}

func (g *MemoryLabelGrid) Cell(x, y int) (string, bool) {
	g.mu.RLock()
	label, ok := g.cells[Cell{X: x, Y: y}]
	g.mu.RUnlock()
	return label, ok
}

func (g *MemoryLabelGrid) Bounds() Rect {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bounds
}

func (g *MemoryLabelGrid) ForEachCell(fn func(x, y int) bool) {
	bounds := g.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !fn(x, y) {
				return
			}
		}
	}
}

// Len returns the number of labelled cells.
func (g *MemoryLabelGrid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

// Snapshot copies the stored labels.
func (g *MemoryLabelGrid) Snapshot() map[Cell]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	dup := make(map[Cell]string, len(g.cells))
	for cell, label := range g.cells {
		dup[cell] = label
	}
	return dup
}
