package terrain

import (
	"terraingen/internal/config"
	"terraingen/internal/noise"
)

// Flattener reshapes elevations into plains and mountains.
//
// Values at or below Min pass through, values at or above Max are shifted down by the band
// width and multiplied by Mountain. The band in between follows Policy.
type Flattener struct {
	Min      float64
	Max      float64
	Mountain float64
	Policy   config.BlendPolicy
}

// NewFlattener narrows the configured flat-terrain bounds by the threshold on both sides.
func NewFlattener(t config.TerrainConfig) Flattener {
	policy := t.Blending
	if policy == "" {
		policy = config.BlendPlateau
	}
	return Flattener{
		Min:      t.FlatTerrainMin + t.FlatTerrainThreshold,
		Max:      t.FlatTerrainMax - t.FlatTerrainThreshold,
		Mountain: t.MountainHeightMultiplier,
		Policy:   policy,
	}
}

func (f Flattener) Blend(e float64) float64 {
	switch {
	case e <= f.Min:
		return e
	case e >= f.Max:
		return f.mountain(e)
	}

	if f.Policy != config.BlendSmoothstep {
		return f.Min
	}
	// Ease from Min to the mountain ramp's value at Max so both band edges stay continuous.
	t := (e - f.Min) / (f.Max - f.Min)
	return lerp(f.Min, f.mountain(f.Max), smoothstep(t))
}

func (f Flattener) mountain(e float64) float64 {
	return (e - (f.Max - f.Min)) * f.Mountain
}

func smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Synthesizer turns internal grid coordinates into elevations.
type Synthesizer struct {
	field   noise.Field
	width   int
	height  int
	scale   float64
	details int
	offset  float64
	flatten Flattener
}

func NewSynthesizer(field noise.Field, t config.TerrainConfig) *Synthesizer {
	return &Synthesizer{
		field:   field,
		width:   t.InternalWidth(),
		height:  t.InternalHeight(),
		scale:   t.Scale,
		details: t.DetailsLevel,
		offset:  noise.Offset(t.Seed, noise.LayerElevation),
		flatten: NewFlattener(t),
	}
}

// Raw returns the base octave plus the optional detail octave, before flattening.
func (s *Synthesizer) Raw(x, y int) float64 {
	elevation := noise.GridSample(s.field, x, y, s.width, s.height, s.scale, s.offset)
	if s.details <= 1 {
		return elevation
	}

	factor := float64(s.details + 3)
	detail := noise.GridSample(s.field, x, y, s.width, s.height, s.scale*factor/2, s.offset)
	detail = detail*2 - 1
	return elevation + detail/(factor+1)
}

// Synthesize returns both the raw and the flattened elevation of a cell.
func (s *Synthesizer) Synthesize(x, y int) (raw, flattened float64) {
	raw = s.Raw(x, y)
	return raw, s.flatten.Blend(raw)
}
