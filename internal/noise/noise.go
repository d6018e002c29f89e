package noise

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"

	"terraingen/internal/config"
)

// Field samples deterministic, continuous 2D noise in [0,1].
type Field interface {
	Sample(x, y float64) float64
}

// Layer offsets keep the three noise uses of a generation run decorrelated for one seed.
const (
	LayerElevation = 1
	LayerForest    = 2
	LayerTrees     = 3
)

// Offset returns the noise-space offset of a layer for seed.
func Offset(seed int64, layer int) float64 {
	return float64(seed) * float64(layer)
}

// GridSample maps a grid coordinate into noise space and samples f there.
func GridSample(f Field, x, y, width, height int, scale, offset float64) float64 {
	sx := float64(x)/float64(width)*scale + offset
	sy := float64(y)/float64(height)*scale + offset
	return f.Sample(sx, sy)
}

// New builds the backend named by cfg.Algorithm, seeded with seed.
func New(cfg config.NoiseConfig, seed int64) (Field, error) {
	switch cfg.Algorithm {
	case "", config.NoisePerlin:
		return NewPerlin(cfg.Alpha, cfg.Beta, cfg.Octaves, seed), nil
	case config.NoiseOpenSimplex:
		return NewOpenSimplex(seed), nil
	case config.NoiseValue:
		return NewValue(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise algorithm %q", cfg.Algorithm)
	}
}

// Perlin wraps gradient noise from go-perlin, remapped from [-1,1] into [0,1].
type Perlin struct {
	gen *perlin.Perlin
}

func NewPerlin(alpha, beta float64, octaves int, seed int64) *Perlin {
	if alpha <= 0 {
		alpha = 2
	}
	if beta <= 0 {
		beta = 2
	}
	if octaves <= 0 {
		octaves = 1
	}
	return &Perlin{gen: perlin.NewPerlin(alpha, beta, int32(octaves), seed)}
}

func (p *Perlin) Sample(x, y float64) float64 {
	return clamp01((p.gen.Noise2D(x, y) + 1) * 0.5)
}

// OpenSimplex wraps the normalized OpenSimplex evaluator, which already yields [0,1].
type OpenSimplex struct {
	gen opensimplex.Noise
}

func NewOpenSimplex(seed int64) *OpenSimplex {
	return &OpenSimplex{gen: opensimplex.NewNormalized(seed)}
}

func (o *OpenSimplex) Sample(x, y float64) float64 {
	return clamp01(o.gen.Eval2(x, y))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
