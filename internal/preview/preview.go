package preview

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"terraingen/internal/config"
	"terraingen/internal/grid"
	"terraingen/internal/scene"
)

const (
	defaultCellPixels = 4
	fallbackColor     = "#808080"
)

// Elevation renders the height field as grayscale, normalised to its own range.
func Elevation(hf *grid.HeightField, cellPixels int) (image.Image, error) {
	if hf == nil {
		return nil, fmt.Errorf("height field is nil")
	}
	if cellPixels <= 0 {
		cellPixels = defaultCellPixels
	}

	w, h := hf.Width(), hf.Height()
	dc := gg.NewContext(w*cellPixels, h*cellPixels)
	lo, hi := hf.Range()
	span := hi - lo

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			e, _ := hf.At(x, y)
			v := 0.0
			if span > 0 {
				v = (e - lo) / span
			}
			dc.SetRGB(v, v, v)
			dc.DrawRectangle(float64(x*cellPixels), float64(y*cellPixels), float64(cellPixels), float64(cellPixels))
			dc.Fill()
		}
	}
	return dc.Image(), nil
}

// Layers is everything the terrain preview draws, bottom to top.
type Layers struct {
	Width      int // internal cells
	Height     int // internal cells
	Factor     int // internal cells per world unit
	Thresholds []config.TerrainThreshold
	Labels     grid.LabelGrid
	Mask       grid.LabelGrid // optional
	Mark       string
	Trees      []scene.Instance // optional
}

// Terrain renders label colours, shades forest-mask cells and dots every tree.
func Terrain(layers Layers, cellPixels int) (image.Image, error) {
	if layers.Labels == nil {
		return nil, fmt.Errorf("label grid is nil")
	}
	if layers.Width <= 0 || layers.Height <= 0 {
		return nil, fmt.Errorf("invalid preview size %dx%d", layers.Width, layers.Height)
	}
	if cellPixels <= 0 {
		cellPixels = defaultCellPixels
	}
	factor := layers.Factor
	if factor < 1 {
		factor = 1
	}

	colors := labelColors(layers.Thresholds)
	dc := gg.NewContext(layers.Width*cellPixels, layers.Height*cellPixels)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	cp := float64(cellPixels)
	for y := 0; y < layers.Height; y++ {
		for x := 0; x < layers.Width; x++ {
			label, ok := layers.Labels.Cell(x, y)
			if !ok {
				continue
			}
			dc.SetHexColor(colorOr(colors[label]))
			dc.DrawRectangle(float64(x)*cp, float64(y)*cp, cp, cp)
			dc.Fill()
		}
	}

	if layers.Mask != nil {
		// Mask cells cover a whole stepped block.
		dc.SetRGBA(0.05, 0.25, 0.05, 0.45)
		layers.Mask.ForEachCell(func(x, y int) bool {
			if mark, ok := layers.Mask.Cell(x, y); ok && (layers.Mark == "" || mark == layers.Mark) {
				dc.DrawRectangle(float64(x)*cp, float64(y)*cp, cp*float64(factor), cp*float64(factor))
				dc.Fill()
			}
			return true
		})
	}

	if len(layers.Trees) > 0 {
		radius := cp * 0.35
		if radius < 1 {
			radius = 1
		}
		dc.SetHexColor("#143d14")
		for _, tree := range layers.Trees {
			px := float64(tree.Position.X()) * float64(factor) * cp
			py := float64(tree.Position.Z()) * float64(factor) * cp
			dc.DrawCircle(px, py, radius)
			dc.Fill()
		}
	}
	return dc.Image(), nil
}

func labelColors(thresholds []config.TerrainThreshold) map[string]string {
	colors := make(map[string]string, len(thresholds))
	for _, th := range thresholds {
		colors[th.Label] = th.Color
	}
	return colors
}

func colorOr(hex string) string {
	if hex == "" {
		return fallbackColor
	}
	return hex
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview directory: %w", err)
		}
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	return nil
}
