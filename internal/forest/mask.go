package forest

import (
	"context"

	"terraingen/internal/config"
	"terraingen/internal/grid"
	"terraingen/internal/noise"
)

// DefaultMark is written into the mask grid when no mark is configured.
const DefaultMark = "forest"

// Layout describes the internal grid both forest passes walk.
type Layout struct {
	Width  int // internal cells
	Height int // internal cells
	Factor int // internal resolution factor
	Seed   int64
}

// NewLayout derives the forest layout from the terrain configuration.
func NewLayout(t config.TerrainConfig) Layout {
	return Layout{
		Width:  t.InternalWidth(),
		Height: t.InternalHeight(),
		Factor: t.ResolutionFactor(),
		Seed:   t.Seed,
	}
}

func (l Layout) stepped(x, y int) bool {
	f := l.Factor
	if f <= 1 {
		return true
	}
	return ((x%f)+f)%f == 0 && ((y%f)+f)%f == 0
}

// MaskStats summarises one mask pass.
type MaskStats struct {
	Visited    int
	Allowed    int
	Cleared    int
	Disallowed int // below density but with a terrain label outside the allow-list
}

// MaskGenerator decides which cells may hold trees.
type MaskGenerator struct {
	field    noise.Field
	settings config.ForestConfig
	layout   Layout
	allowed  map[string]struct{}
}

func NewMaskGenerator(field noise.Field, settings config.ForestConfig, layout Layout) *MaskGenerator {
	allowed := make(map[string]struct{}, len(settings.AllowedLabels))
	for _, label := range settings.AllowedLabels {
		allowed[label] = struct{}{}
	}
	return &MaskGenerator{
		field:    field,
		settings: settings,
		layout:   layout,
		allowed:  allowed,
	}
}

func (m *MaskGenerator) mark() string {
	if m.settings.AllowedMark == "" {
		return DefaultMark
	}
	return m.settings.AllowedMark
}

// Generate walks the label grid's bounds and writes the mask. A cell is marked iff its
// forest noise is at most the density and its label is allowed; cells over the density
// are cleared, so running it again over the same labels yields the same mask.
func (m *MaskGenerator) Generate(ctx context.Context, labels, mask grid.LabelGrid) (MaskStats, error) {
	var (
		stats  MaskStats
		err    error
		mark   = m.mark()
		offset = noise.Offset(m.layout.Seed, noise.LayerForest)
	)

	labels.ForEachCell(func(x, y int) bool {
		if !m.layout.stepped(x, y) {
			return true
		}
		if err = ctx.Err(); err != nil {
			return false
		}
		stats.Visited++

		value := noise.GridSample(m.field, x, y, m.layout.Width, m.layout.Height, m.settings.ForestsSize, offset)
		if value > m.settings.Density {
			mask.ClearCell(x, y)
			stats.Cleared++
			return true
		}

		label, _ := labels.Cell(x, y)
		if _, ok := m.allowed[label]; !ok {
			// A mark left from an earlier label set would break the allowed-iff rule.
			mask.ClearCell(x, y)
			stats.Disallowed++
			return true
		}

		mask.SetCell(x, y, mark)
		stats.Allowed++
		return true
	})
	return stats, err
}
