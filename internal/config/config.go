package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BlendPolicy selects how elevations between the flat-terrain bounds are reshaped.
type BlendPolicy string

const (
	// BlendPlateau collapses the whole mid band onto the lower bound.
	BlendPlateau BlendPolicy = "plateau"
	// BlendSmoothstep eases the mid band from the lower bound to the mountain ramp.
	BlendSmoothstep BlendPolicy = "smoothstep"
)

// NoiseAlgorithm names a coherent-noise backend.
type NoiseAlgorithm string

const (
	NoisePerlin      NoiseAlgorithm = "perlin"
	NoiseOpenSimplex NoiseAlgorithm = "opensimplex"
	NoiseValue       NoiseAlgorithm = "value"
)

// MaxResolutionLevel bounds the internal upscaling to a factor of 8.
const MaxResolutionLevel = 4

// Config captures every tunable parameter of a generation run.
type Config struct {
	Terrain TerrainConfig `json:"terrain" yaml:"terrain"`
	Noise   NoiseConfig   `json:"noise" yaml:"noise"`
	Mesh    MeshConfig    `json:"mesh" yaml:"mesh"`
	Forest  ForestConfig  `json:"forest" yaml:"forest"`
}

type TerrainConfig struct {
	Width                    int                `json:"width" yaml:"width"`   // logical meters
	Height                   int                `json:"height" yaml:"height"` // logical meters
	Scale                    float64            `json:"scale" yaml:"scale"`
	DetailsLevel             int                `json:"detailsLevel" yaml:"detailsLevel"`       // <= 1 disables the detail octave
	ResolutionLevel          int                `json:"resolutionLevel" yaml:"resolutionLevel"` // 1..4
	Seed                     int64              `json:"seed" yaml:"seed"`
	FlatTerrainMin           float64            `json:"flatTerrainMin" yaml:"flatTerrainMin"`
	FlatTerrainMax           float64            `json:"flatTerrainMax" yaml:"flatTerrainMax"`
	FlatTerrainThreshold     float64            `json:"flatTerrainThreshold" yaml:"flatTerrainThreshold"`
	MountainHeightMultiplier float64            `json:"mountainHeightMultiplier" yaml:"mountainHeightMultiplier"`
	TerrainHeight            float64            `json:"terrainHeight" yaml:"terrainHeight"`
	Blending                 BlendPolicy        `json:"blending,omitempty" yaml:"blending,omitempty"`
	Thresholds               []TerrainThreshold `json:"thresholds" yaml:"thresholds"`
}

// TerrainThreshold pairs a terrain label with the minimum elevation it applies from.
// Thresholds are expected in ascending order; the last matching entry wins.
type TerrainThreshold struct {
	Label     string  `json:"label" yaml:"label"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Color     string  `json:"color,omitempty" yaml:"color,omitempty"` // preview colour, "#rrggbb"
}

type NoiseConfig struct {
	Algorithm NoiseAlgorithm `json:"algorithm" yaml:"algorithm"`
	Alpha     float64        `json:"alpha,omitempty" yaml:"alpha,omitempty"`     // perlin weight divisor per octave
	Beta      float64        `json:"beta,omitempty" yaml:"beta,omitempty"`       // perlin frequency multiplier per octave
	Octaves   int            `json:"octaves,omitempty" yaml:"octaves,omitempty"` // perlin octaves inside a single sample
}

type MeshConfig struct {
	Attachment   string         `json:"attachment" yaml:"attachment"`
	Material     string         `json:"material" yaml:"material"`
	UnitDistance float64        `json:"unitDistance,omitempty" yaml:"unitDistance,omitempty"` // 0 means 1/resolution factor
	Materials    []MaterialBand `json:"materials,omitempty" yaml:"materials,omitempty"`
}

// MaterialBand selects Material when the mean elevation of the mesh reaches MinElevation.
type MaterialBand struct {
	Material     string  `json:"material" yaml:"material"`
	MinElevation float64 `json:"minElevation" yaml:"minElevation"`
}

type ForestConfig struct {
	Enabled          bool     `json:"enabled" yaml:"enabled"`
	Density          float64  `json:"density" yaml:"density"`
	AllowedLabels    []string `json:"allowedLabels" yaml:"allowedLabels"`
	ForestsSize      float64  `json:"forestsSize" yaml:"forestsSize"`
	MinTreesPerCell  int      `json:"minTreesPerCell" yaml:"minTreesPerCell"`
	MaxTreesPerCell  int      `json:"maxTreesPerCell" yaml:"maxTreesPerCell"`
	TreesSpreadValue float64  `json:"treesSpreadValue" yaml:"treesSpreadValue"`
	Prefabs          []string `json:"prefabs" yaml:"prefabs"`
	Container        string   `json:"container" yaml:"container"`
	AllowedMark      string   `json:"allowedMark" yaml:"allowedMark"`
	SnapToTerrain    bool     `json:"snapToTerrain,omitempty" yaml:"snapToTerrain,omitempty"`
}

// ResolutionFactor returns 2^(resolutionLevel-1).
func (t TerrainConfig) ResolutionFactor() int {
	level := t.ResolutionLevel
	if level < 1 {
		level = 1
	}
	return 1 << (level - 1)
}

// InternalWidth is the number of simulated cells along x.
func (t TerrainConfig) InternalWidth() int {
	return t.Width * t.ResolutionFactor()
}

// InternalHeight is the number of simulated cells along y.
func (t TerrainConfig) InternalHeight() int {
	return t.Height * t.ResolutionFactor()
}

// Labels lists the threshold labels in configuration order.
func (t TerrainConfig) Labels() []string {
	labels := make([]string, 0, len(t.Thresholds))
	for _, th := range t.Thresholds {
		labels = append(labels, th.Label)
	}
	return labels
}

// Load reads configuration from a YAML or JSON file. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(data, filepath.Ext(path), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Decode unmarshals data into cfg, picking JSON for a ".json" extension and YAML otherwise.
// Fields absent from data keep the values already present in cfg.
func Decode(data []byte, ext string, cfg *Config) error {
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

// WriteFile stores cfg at path, as JSON for a ".json" extension and YAML otherwise.
func WriteFile(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Terrain.validate(); err != nil {
		return err
	}
	switch c.Noise.Algorithm {
	case "", NoisePerlin, NoiseOpenSimplex, NoiseValue:
	default:
		return errors.New("noise.algorithm must be one of 'perlin', 'opensimplex' or 'value'")
	}
	if c.Noise.Octaves < 0 {
		return errors.New("noise.octaves cannot be negative")
	}
	if c.Mesh.UnitDistance < 0 {
		return errors.New("mesh.unitDistance cannot be negative")
	}
	for i, band := range c.Mesh.Materials {
		if band.Material == "" {
			return fmt.Errorf("mesh.materials[%d].material must be set", i)
		}
	}
	return c.Forest.validate(c.Terrain.Labels())
}

func (t TerrainConfig) validate() error {
	if t.Width <= 0 || t.Height <= 0 {
		return errors.New("terrain dimensions must be positive")
	}
	if t.Scale <= 0 {
		return errors.New("terrain.scale must be positive")
	}
	if t.DetailsLevel < 0 {
		return errors.New("terrain.detailsLevel cannot be negative")
	}
	if t.ResolutionLevel < 1 || t.ResolutionLevel > MaxResolutionLevel {
		return fmt.Errorf("terrain.resolutionLevel must be within [1,%d]", MaxResolutionLevel)
	}
	if t.FlatTerrainThreshold < 0 {
		return errors.New("terrain.flatTerrainThreshold cannot be negative")
	}
	if t.TerrainHeight < 0 {
		return errors.New("terrain.terrainHeight cannot be negative")
	}
	switch t.Blending {
	case "", BlendPlateau, BlendSmoothstep:
	default:
		return errors.New("terrain.blending must be either 'plateau' or 'smoothstep'")
	}
	if len(t.Thresholds) == 0 {
		return errors.New("terrain.thresholds cannot be empty")
	}
	seen := make(map[string]int, len(t.Thresholds))
	for i, th := range t.Thresholds {
		if th.Label == "" {
			return fmt.Errorf("terrain.thresholds[%d].label must be set", i)
		}
		if prev, ok := seen[th.Label]; ok {
			return fmt.Errorf("terrain.thresholds[%d].label %q duplicates thresholds[%d]", i, th.Label, prev)
		}
		seen[th.Label] = i
		if th.Threshold < 0 || th.Threshold > 1 {
			return fmt.Errorf("terrain.thresholds[%d].threshold must be within [0,1]", i)
		}
		if th.Color != "" && !isValidHexColor(th.Color) {
			return fmt.Errorf("terrain.thresholds[%d].color must be a hex RGB value", i)
		}
	}
	return nil
}

func (f ForestConfig) validate(labels []string) error {
	if f.Density < 0 || f.Density > 1 {
		return errors.New("forest.density must be within [0,1]")
	}
	if f.MinTreesPerCell < 0 {
		return errors.New("forest.minTreesPerCell cannot be negative")
	}
	if f.MaxTreesPerCell < f.MinTreesPerCell {
		return errors.New("forest.maxTreesPerCell must be >= minTreesPerCell")
	}
	if !f.Enabled {
		return nil
	}
	if len(f.Prefabs) == 0 {
		return errors.New("forest.prefabs cannot be empty when forest is enabled")
	}
	for i, prefab := range f.Prefabs {
		if prefab == "" {
			return fmt.Errorf("forest.prefabs[%d] must be set", i)
		}
	}
	if f.Container == "" {
		return errors.New("forest.container must be set when forest is enabled")
	}
	for i, label := range f.AllowedLabels {
		if containsLabel(labels, label) {
			continue
		}
		if suggestion, ok := suggestLabel(label, labels); ok {
			return fmt.Errorf("forest.allowedLabels[%d] %q is not a terrain label (did you mean %q?)", i, label, suggestion)
		}
		return fmt.Errorf("forest.allowedLabels[%d] %q is not a terrain label", i, label)
	}
	return nil
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func isValidHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, ch := range s[1:] {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}
