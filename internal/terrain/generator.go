package terrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"terraingen/internal/config"
	"terraingen/internal/forest"
	"terraingen/internal/grid"
	"terraingen/internal/mesh"
	"terraingen/internal/noise"
	"terraingen/internal/scene"
)

var (
	// ErrNoHeightField is returned when a mesh is requested before terrain data exists.
	ErrNoHeightField = errors.New("no height field: generate terrain data first")
	// ErrNoTerrainData is returned when forests are requested before terrain data exists.
	ErrNoTerrainData = errors.New("no terrain data: generate terrain data first")
)

// Sinks are the collaborators a Generator writes into. Nil grids and a nil spawner are
// replaced with in-memory implementations; a nil mesh target skips attaching.
type Sinks struct {
	Labels     grid.LabelGrid
	ForestMask grid.LabelGrid
	Spawner    scene.Spawner
	Mesh       mesh.Target
}

// Generator runs the terrain, forest and mesh passes for one configuration.
type Generator struct {
	cfg    *config.Config
	sinks  Sinks
	logger *slog.Logger
	field  noise.Field
	synth  *Synthesizer

	heights *grid.HeightField
}

// DataSummary describes one terrain data pass.
type DataSummary struct {
	Cells        int
	Unclassified int
	Labels       map[string]int
	MinElevation float64
	MaxElevation float64
}

// ForestSummary describes one forest pass.
type ForestSummary struct {
	Mask  forest.MaskStats
	Trees forest.PlacementStats
}

func New(cfg *config.Config, sinks Sinks, logger *slog.Logger) (*Generator, error) {
	if cfg == nil {
		return nil, errors.New("terrain: config missing")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("terrain: invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	field, err := noise.New(cfg.Noise, cfg.Terrain.Seed)
	if err != nil {
		return nil, fmt.Errorf("terrain: %w", err)
	}

	if sinks.Labels == nil {
		sinks.Labels = grid.NewMemoryLabelGrid()
	}
	if sinks.ForestMask == nil {
		sinks.ForestMask = grid.NewMemoryLabelGrid()
	}
	if sinks.Spawner == nil {
		sinks.Spawner = scene.NewRegistry()
	}

	if !ascending(cfg.Terrain.Thresholds) {
		logger.Warn("terrain thresholds are not in ascending order; the last matching entry wins",
			"labels", cfg.Terrain.Labels())
	}

	return &Generator{
		cfg:    cfg,
		sinks:  sinks,
		logger: logger,
		field:  field,
		synth:  NewSynthesizer(field, cfg.Terrain),
	}, nil
}

func (g *Generator) Config() *config.Config { return g.cfg }

func (g *Generator) Sinks() Sinks { return g.sinks }

// HeightField returns the flattened elevations of the last complete terrain pass, or nil.
func (g *Generator) HeightField() *grid.HeightField { return g.heights }

// GenerateTerrainData wipes trees and both grids, then synthesizes, classifies and stores
// every internal cell. The height field is only replaced once the whole pass completes.
func (g *Generator) GenerateTerrainData(ctx context.Context) (DataSummary, error) {
	start := time.Now()
	t := g.cfg.Terrain
	width, height := t.InternalWidth(), t.InternalHeight()

	if err := g.WipeForests(); err != nil {
		return DataSummary{}, err
	}
	g.sinks.Labels.ClearAll()
	g.sinks.ForestMask.ClearAll()
	g.heights = nil

	hf, err := grid.NewHeightField(width, height)
	if err != nil {
		return DataSummary{}, fmt.Errorf("allocate height field: %w", err)
	}

	summary := DataSummary{Labels: make(map[string]int, len(t.Thresholds))}
	prog := newProgress(g.logger, "terrain generation progress", height)
	for y := 0; y < height; y++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		for x := 0; x < width; x++ {
			raw, flattened := g.synth.Synthesize(x, y)
			hf.Set(x, y, flattened)
			summary.Cells++

			label, ok := Classify(raw, t.Thresholds)
			if !ok {
				summary.Unclassified++
				continue
			}
			g.sinks.Labels.SetCell(x, y, label)
			summary.Labels[label]++
		}
		prog.step(1)
	}
	prog.finish()

	g.heights = hf
	summary.MinElevation, summary.MaxElevation = hf.Range()

	g.logger.Info("terrain data generated",
		"width", width,
		"height", height,
		"cells", summary.Cells,
		"unclassified", summary.Unclassified,
		"min_elevation", summary.MinElevation,
		"max_elevation", summary.MaxElevation,
		"elapsed", time.Since(start))
	return summary, nil
}

// GenerateForests rebuilds the forest mask from the label grid and spawns trees into the
// configured container. Existing trees in that container are destroyed first.
func (g *Generator) GenerateForests(ctx context.Context) (ForestSummary, error) {
	var summary ForestSummary
	settings := g.cfg.Forest
	if !settings.Enabled {
		g.logger.Info("forest generation disabled")
		return summary, nil
	}
	if g.heights == nil {
		return summary, ErrNoTerrainData
	}
	if err := g.WipeForests(); err != nil {
		return summary, err
	}

	start := time.Now()
	layout := forest.NewLayout(g.cfg.Terrain)

	maskStats, err := forest.NewMaskGenerator(g.field, settings, layout).
		Generate(ctx, g.sinks.Labels, g.sinks.ForestMask)
	summary.Mask = maskStats
	if err != nil {
		return summary, fmt.Errorf("forest mask: %w", err)
	}

	placer := forest.NewPlacer(g.field, settings, layout)
	if settings.SnapToTerrain {
		placer.SnapTo(g.heights, g.cfg.Terrain.TerrainHeight)
	}
	rng := rand.New(rand.NewSource(g.cfg.Terrain.Seed))

	treeStats, err := placer.Place(ctx, g.sinks.ForestMask, rng, func(p forest.Placement) error {
		_, err := g.sinks.Spawner.Spawn(settings.Container, settings.Prefabs[p.Prefab], p.Position)
		return err
	})
	summary.Trees = treeStats
	if err != nil {
		return summary, fmt.Errorf("place trees: %w", err)
	}

	g.logger.Info("forests generated",
		"forest_cells", maskStats.Allowed,
		"cleared_cells", maskStats.Cleared,
		"planted_cells", treeStats.Cells,
		"trees", treeStats.Trees,
		"elapsed", time.Since(start))
	return summary, nil
}

// WipeForests destroys every tree under the configured container.
func (g *Generator) WipeForests() error {
	container := g.cfg.Forest.Container
	if container == "" {
		return nil
	}
	if err := g.sinks.Spawner.DestroyAll(container); err != nil {
		return fmt.Errorf("wipe forests in %q: %w", container, err)
	}
	return nil
}

// GenerateTerrainMesh triangulates the current height field and attaches it to the mesh
// target, if one is configured.
func (g *Generator) GenerateTerrainMesh(ctx context.Context) (*mesh.Mesh, error) {
	if g.heights == nil {
		return nil, ErrNoHeightField
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unit := g.cfg.Mesh.UnitDistance
	if unit <= 0 {
		unit = 1 / float64(g.cfg.Terrain.ResolutionFactor())
	}

	m, err := mesh.Build(g.heights, g.cfg.Terrain.TerrainHeight, unit)
	if err != nil {
		return nil, fmt.Errorf("build mesh: %w", err)
	}

	mean := g.heights.Mean()
	material := MaterialFor(mean, g.cfg.Mesh)
	if g.sinks.Mesh != nil {
		if err := g.sinks.Mesh.Attach(g.cfg.Mesh.Attachment, m, material); err != nil {
			return nil, fmt.Errorf("attach mesh %q: %w", g.cfg.Mesh.Attachment, err)
		}
	}

	g.logger.Info("terrain mesh generated",
		"vertices", len(m.Vertices),
		"triangles", m.TriangleCount(),
		"material", material,
		"mean_elevation", mean)
	return m, nil
}

// MaterialFor returns the last band whose minimum the mean elevation reaches, or the
// default mesh material when no band matches.
func MaterialFor(mean float64, cfg config.MeshConfig) string {
	material := cfg.Material
	for _, band := range cfg.Materials {
		if mean >= band.MinElevation {
			material = band.Material
		}
	}
	return material
}
