package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"terraingen/internal/grid"
)

// Mesh holds a triangulated height field ready to be attached to a renderer.
type Mesh struct {
	Width     int // vertices along x
	Height    int // vertices along z
	Vertices  []mgl32.Vec3
	UVs       []mgl32.Vec2
	Triangles []int
	Normals   []mgl32.Vec3
	Tangents  []mgl32.Vec4 // w carries the bitangent sign
	Bounds    Bounds
}

// Bounds is the axis-aligned box around every vertex.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

var errEmptyHeightField = errors.New("height field is empty")

// Build lays one vertex per height-field cell at (x*unit, elevation*terrainHeight, y*unit),
// indexed x + y*width, and splits each quad into the triangles TL,BL,TR and TR,BL,BR.
func Build(hf *grid.HeightField, terrainHeight, unitDistance float64) (*Mesh, error) {
	if hf == nil || hf.Width() == 0 || hf.Height() == 0 {
		return nil, errEmptyHeightField
	}
	if unitDistance <= 0 {
		return nil, fmt.Errorf("unit distance must be positive, got %v", unitDistance)
	}

	w, h := hf.Width(), hf.Height()
	m := &Mesh{
		Width:     w,
		Height:    h,
		Vertices:  make([]mgl32.Vec3, w*h),
		UVs:       make([]mgl32.Vec2, w*h),
		Triangles: make([]int, 0, quadCount(w, h)*6),
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			i := x + y*w
			elevation, _ := hf.At(x, y)
			m.Vertices[i] = mgl32.Vec3{
				float32(float64(x) * unitDistance),
				float32(elevation * terrainHeight),
				float32(float64(y) * unitDistance),
			}
			m.UVs[i] = mgl32.Vec2{float32(x) / float32(w), float32(y) / float32(h)}

			if x < w-1 && y < h-1 {
				tl, tr := i, i+1
				bl, br := i+w, i+w+1
				m.Triangles = append(m.Triangles, tl, bl, tr, tr, bl, br)
			}
		}
	}

	m.Bounds = bounds(m.Vertices)
	m.RecalculateNormals()
	m.RecalculateTangents()
	return m, nil
}

func quadCount(w, h int) int {
	if w < 2 || h < 2 {
		return 0
	}
	return (w - 1) * (h - 1)
}

func bounds(vertices []mgl32.Vec3) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: vertices[0], Max: vertices[0]}
	for _, v := range vertices[1:] {
		for axis := 0; axis < 3; axis++ {
			if v[axis] < b.Min[axis] {
				b.Min[axis] = v[axis]
			}
			if v[axis] > b.Max[axis] {
				b.Max[axis] = v[axis]
			}
		}
	}
	return b
}

// TriangleCount returns the number of triangles in the index buffer.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// RecalculateNormals accumulates area-weighted face normals per vertex. Vertices no
// triangle touches point straight up.
func (m *Mesh) RecalculateNormals() {
	normals := make([]mgl32.Vec3, len(m.Vertices))
	for t := 0; t+2 < len(m.Triangles); t += 3 {
		a, b, c := m.Triangles[t], m.Triangles[t+1], m.Triangles[t+2]
		face := m.Vertices[b].Sub(m.Vertices[a]).Cross(m.Vertices[c].Sub(m.Vertices[a]))
		normals[a] = normals[a].Add(face)
		normals[b] = normals[b].Add(face)
		normals[c] = normals[c].Add(face)
	}
	for i, n := range normals {
		if n.Len() < 1e-12 {
			normals[i] = mgl32.Vec3{0, 1, 0}
			continue
		}
		normals[i] = n.Normalize()
	}
	m.Normals = normals
}

// RecalculateTangents derives per-vertex tangents from positions and UVs. It expects
// Normals to be current.
func (m *Mesh) RecalculateTangents() {
	if len(m.Normals) != len(m.Vertices) {
		m.RecalculateNormals()
	}

	sdirs := make([]mgl32.Vec3, len(m.Vertices))
	tdirs := make([]mgl32.Vec3, len(m.Vertices))
	for t := 0; t+2 < len(m.Triangles); t += 3 {
		a, b, c := m.Triangles[t], m.Triangles[t+1], m.Triangles[t+2]
		e1 := m.Vertices[b].Sub(m.Vertices[a])
		e2 := m.Vertices[c].Sub(m.Vertices[a])
		d1 := m.UVs[b].Sub(m.UVs[a])
		d2 := m.UVs[c].Sub(m.UVs[a])

		det := d1.X()*d2.Y() - d2.X()*d1.Y()
		if det == 0 {
			continue
		}
		r := 1 / det
		sdir := e1.Mul(d2.Y()).Sub(e2.Mul(d1.Y())).Mul(r)
		tdir := e2.Mul(d1.X()).Sub(e1.Mul(d2.X())).Mul(r)
		for _, v := range [3]int{a, b, c} {
			sdirs[v] = sdirs[v].Add(sdir)
			tdirs[v] = tdirs[v].Add(tdir)
		}
	}

	tangents := make([]mgl32.Vec4, len(m.Vertices))
	for i := range tangents {
		n := m.Normals[i]
		// Gram-Schmidt against the normal.
		tangent := sdirs[i].Sub(n.Mul(n.Dot(sdirs[i])))
		if tangent.Len() < 1e-12 {
			tangents[i] = mgl32.Vec4{1, 0, 0, 1}
			continue
		}
		tangent = tangent.Normalize()
		handedness := float32(1)
		if n.Cross(sdirs[i]).Dot(tdirs[i]) < 0 {
			handedness = -1
		}
		tangents[i] = tangent.Vec4(handedness)
	}
	m.Tangents = tangents
}

// Validate checks buffer lengths and that every index addresses a vertex.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	if len(m.UVs) != n {
		return fmt.Errorf("mesh has %d uvs for %d vertices", len(m.UVs), n)
	}
	if len(m.Normals) != n || len(m.Tangents) != n {
		return fmt.Errorf("mesh has %d normals and %d tangents for %d vertices", len(m.Normals), len(m.Tangents), n)
	}
	if len(m.Triangles)%3 != 0 {
		return fmt.Errorf("mesh index count %d is not a multiple of 3", len(m.Triangles))
	}
	for i, idx := range m.Triangles {
		if idx < 0 || idx >= n {
			return fmt.Errorf("mesh index %d = %d out of range [0,%d)", i, idx, n)
		}
	}
	return nil
}
