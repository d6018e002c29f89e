package grid

import "testing"

func TestHeightFieldStoresValues(t *testing.T) {
	hf, err := NewHeightField(3, 2)
	if err != nil {
		t.Fatalf("NewHeightField: %v", err)
	}
	if !hf.Set(2, 1, 0.75) {
		t.Fatalf("Set in bounds should succeed")
	}
	if hf.Set(3, 0, 1) || hf.Set(0, -1, 1) {
		t.Fatalf("Set out of bounds should fail")
	}
	if v, ok := hf.At(2, 1); !ok || v != 0.75 {
		t.Fatalf("At(2,1) = %v, %v; want 0.75, true", v, ok)
	}
	if _, ok := hf.At(0, 2); ok {
		t.Fatalf("At out of bounds should report false")
	}

	lo, hi := hf.Range()
	if lo != 0 || hi != 0.75 {
		t.Fatalf("Range = %v..%v, want 0..0.75", lo, hi)
	}
	if mean := hf.Mean(); mean != 0.125 {
		t.Fatalf("Mean = %v, want 0.125", mean)
	}
}

func TestHeightFieldRejectsEmptyDimensions(t *testing.T) {
	if _, err := NewHeightField(0, 4); err == nil {
		t.Fatalf("expected zero width to fail")
	}
}

func TestHeightFieldCloneIsIndependent(t *testing.T) {
	hf, _ := NewHeightField(2, 2)
	hf.Set(0, 0, 1)
	dup := hf.Clone()
	if !dup.Equal(hf) {
		t.Fatalf("clone should equal original")
	}
	hf.Set(1, 1, 2)
	if dup.Equal(hf) {
		t.Fatalf("clone should not follow later writes")
	}
}

func TestMemoryLabelGridBoundsAndIteration(t *testing.T) {
	g := NewMemoryLabelGrid()
	if !g.Bounds().Empty() {
		t.Fatalf("fresh grid should have empty bounds")
	}

	g.SetCell(1, 1, "Plains")
	g.SetCell(3, 2, "Water")

	bounds := g.Bounds()
	want := Rect{Min: Cell{X: 1, Y: 1}, Max: Cell{X: 4, Y: 3}}
	if bounds != want {
		t.Fatalf("Bounds = %+v, want %+v", bounds, want)
	}

	visited := 0
	g.ForEachCell(func(x, y int) bool {
		visited++
		return true
	})
	if visited != 6 {
		t.Fatalf("visited %d cells, want 6", visited)
	}

	g.ClearCell(3, 2)
	if _, ok := g.Cell(3, 2); ok {
		t.Fatalf("cleared cell should be empty")
	}
	if g.Bounds() != want {
		t.Fatalf("clearing one cell should not shrink bounds")
	}

	g.SetCell(1, 1, "")
	if g.Len() != 0 {
		t.Fatalf("empty label should clear the cell, len=%d", g.Len())
	}

	g.SetCell(0, 0, "Hills")
	g.ClearAll()
	if g.Len() != 0 || !g.Bounds().Empty() {
		t.Fatalf("ClearAll should drop cells and bounds")
	}
}

func TestMemoryLabelGridForEachStops(t *testing.T) {
	g := NewMemoryLabelGrid()
	g.SetCell(0, 0, "a")
	g.SetCell(4, 4, "b")
	visited := 0
	g.ForEachCell(func(x, y int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Fatalf("iteration should stop after callback returns false, visited %d", visited)
	}
}
