package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"terraingen/internal/config"
	"terraingen/internal/grid"
	"terraingen/internal/noise"
)

// positionPrecision quantizes jittered positions to 1/10000 of a unit.
const positionPrecision = 10000

// Placement is one tree ready for instantiation.
type Placement struct {
	Position mgl32.Vec3
	Prefab   int
}

// PlacementStats summarises one placement pass.
type PlacementStats struct {
	Cells int
	Trees int
}

// Placer scatters trees over the cells the mask allows.
type Placer struct {
	field         noise.Field
	settings      config.ForestConfig
	layout        Layout
	heights       *grid.HeightField
	terrainHeight float64
}

func NewPlacer(field noise.Field, settings config.ForestConfig, layout Layout) *Placer {
	return &Placer{field: field, settings: settings, layout: layout}
}

// SnapTo makes placements sit on the height field instead of at y=0.
func (p *Placer) SnapTo(heights *grid.HeightField, terrainHeight float64) {
	p.heights = heights
	p.terrainHeight = terrainHeight
}

// TreeCount interpolates between the configured bounds by a noise value in [0,1].
// Halves round to even.
func (p *Placer) TreeCount(value float64) int {
	lo := float64(p.settings.MinTreesPerCell)
	hi := float64(p.settings.MaxTreesPerCell)
	return int(math.RoundToEven(lo + (hi-lo)*value))
}

// CellBounds returns the world-space rectangle covered by the stepped cell at (x, y).
func (p *Placer) CellBounds(x, y int) (minX, minZ, maxX, maxZ float64) {
	f := float64(p.layout.factor())
	return float64(x) / f, float64(y) / f, float64(x)/f + 1, float64(y)/f + 1
}

// Place visits every stepped cell; for each masked cell it draws positions and prefabs from
// rng and hands each placement to emit as soon as it exists.
func (p *Placer) Place(ctx context.Context, mask grid.LabelGrid, rng *rand.Rand, emit func(Placement) error) (PlacementStats, error) {
	var stats PlacementStats
	if len(p.settings.Prefabs) == 0 {
		return stats, fmt.Errorf("place trees: no prefabs configured")
	}

	mark := p.settings.AllowedMark
	if mark == "" {
		mark = DefaultMark
	}
	offset := noise.Offset(p.layout.Seed, noise.LayerTrees)
	step := p.layout.factor()

	for x := 0; x < p.layout.Width; x += step {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for y := 0; y < p.layout.Height; y += step {
			value := noise.GridSample(p.field, x, y, p.layout.Width, p.layout.Height, p.settings.TreesSpreadValue, offset)

			if label, ok := mask.Cell(x, y); !ok || label != mark {
				continue
			}
			stats.Cells++

			positions := p.randomPositions(x, y, p.TreeCount(value), rng)
			for _, pos := range positions {
				placement := Placement{Position: pos, Prefab: rng.Intn(len(p.settings.Prefabs))}
				if err := emit(placement); err != nil {
					return stats, fmt.Errorf("emit tree at cell (%d,%d): %w", x, y, err)
				}
				stats.Trees++
			}
		}
	}
	return stats, nil
}

func (p *Placer) randomPositions(x, y, count int, rng *rand.Rand) []mgl32.Vec3 {
	if count <= 0 {
		return nil
	}
	f := p.layout.factor()
	positions := make([]mgl32.Vec3, 0, count)
	for i := 0; i < count; i++ {
		px := quantize(uniform(rng, float64(x), float64(x+f))) / float64(f)
		pz := quantize(uniform(rng, float64(y), float64(y+f))) / float64(f)
		positions = append(positions, mgl32.Vec3{float32(px), float32(p.surface(px, pz)), float32(pz)})
	}
	return positions
}

func (p *Placer) surface(worldX, worldZ float64) float64 {
	if p.heights == nil {
		return 0
	}
	f := float64(p.layout.factor())
	cx := clampInt(int(math.Floor(worldX*f)), 0, p.heights.Width()-1)
	cy := clampInt(int(math.Floor(worldZ*f)), 0, p.heights.Height()-1)
	elevation, _ := p.heights.At(cx, cy)
	return elevation * p.terrainHeight
}

func (l Layout) factor() int {
	if l.Factor < 1 {
		return 1
	}
	return l.Factor
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// quantize rounds through an integer scale so positions stay on a fixed 1/10000 lattice.
func quantize(v float64) float64 {
	return math.Round(v*positionPrecision) / positionPrecision
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
