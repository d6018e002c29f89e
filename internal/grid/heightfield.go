package grid

import "fmt"

// HeightField is a dense row-major elevation grid.
type HeightField struct {
	width  int
	height int
	values []float64
}

func NewHeightField(width, height int) (*HeightField, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("height field dimensions must be positive, got %dx%d", width, height)
	}
	return &HeightField{
		width:  width,
		height: height,
		values: make([]float64, width*height),
	}, nil
}

func (h *HeightField) Width() int  { return h.width }
func (h *HeightField) Height() int { return h.height }

func (h *HeightField) index(x, y int) int {
	return y*h.width + x
}

func (h *HeightField) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < h.width && y < h.height
}

// At returns the elevation at (x, y); out-of-range cells report false.
func (h *HeightField) At(x, y int) (float64, bool) {
	if !h.InBounds(x, y) {
		return 0, false
	}
	return h.values[h.index(x, y)], true
}

func (h *HeightField) Set(x, y int, elevation float64) bool {
	if !h.InBounds(x, y) {
		return false
	}
	h.values[h.index(x, y)] = elevation
	return true
}

// Range returns the lowest and highest stored elevation.
func (h *HeightField) Range() (lo, hi float64) {
	lo, hi = h.values[0], h.values[0]
	for _, v := range h.values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Mean returns the average stored elevation.
func (h *HeightField) Mean() float64 {
	var sum float64
	for _, v := range h.values {
		sum += v
	}
	return sum / float64(len(h.values))
}

// Clone returns an independent copy.
func (h *HeightField) Clone() *HeightField {
	dup := make([]float64, len(h.values))
	copy(dup, h.values)
	return &HeightField{width: h.width, height: h.height, values: dup}
}

// Equal reports whether both fields have the same dimensions and values.
func (h *HeightField) Equal(other *HeightField) bool {
	if other == nil || h.width != other.width || h.height != other.height {
		return false
	}
	for i, v := range h.values {
		if other.values[i] != v {
			return false
		}
	}
	return true
}
