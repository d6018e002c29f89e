package terrain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"terraingen/internal/config"
	"terraingen/internal/grid"
	"terraingen/internal/mesh"
	"terraingen/internal/scene"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func smallConfig(size int) *config.Config {
	cfg := config.Default()
	cfg.Terrain.Width = size
	cfg.Terrain.Height = size
	cfg.Terrain.ResolutionLevel = 1
	return cfg
}

// forestConfig guarantees trees on every cell: full density, every label allowed.
func forestConfig(size int) *config.Config {
	cfg := smallConfig(size)
	cfg.Forest.Density = 1
	cfg.Forest.AllowedLabels = cfg.Terrain.Labels()
	cfg.Forest.MinTreesPerCell = 1
	cfg.Forest.MaxTreesPerCell = 2
	return cfg
}

type testSinks struct {
	labels   *grid.MemoryLabelGrid
	mask     *grid.MemoryLabelGrid
	registry *scene.Registry
	meshes   *mesh.Attachments
}

func newTestGenerator(t *testing.T, cfg *config.Config, logger *slog.Logger) (*Generator, testSinks) {
	t.Helper()
	s := testSinks{
		labels:   grid.NewMemoryLabelGrid(),
		mask:     grid.NewMemoryLabelGrid(),
		registry: scene.NewRegistry(),
		meshes:   mesh.NewAttachments(),
	}
	if logger == nil {
		logger = discardLogger()
	}
	g, err := New(cfg, Sinks{Labels: s.labels, ForestMask: s.mask, Spawner: s.registry, Mesh: s.meshes}, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, s
}

func TestEndToEndSmallGrid(t *testing.T) {
	cfg := smallConfig(4)
	cfg.Terrain.Scale = 1
	cfg.Terrain.Seed = 0
	cfg.Terrain.Thresholds = []config.TerrainThreshold{
		{Label: "Water", Threshold: 0},
		{Label: "Plains", Threshold: 0.3},
		{Label: "Mountain", Threshold: 0.6},
	}
	cfg.Forest.AllowedLabels = []string{"Plains"}
	g, sinks := newTestGenerator(t, cfg, nil)
	ctx := context.Background()

	summary, err := g.GenerateTerrainData(ctx)
	if err != nil {
		t.Fatalf("GenerateTerrainData: %v", err)
	}
	if summary.Cells != 16 || summary.Unclassified != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if sinks.labels.Len() != 16 {
		t.Fatalf("expected 16 labelled cells, got %d", sinks.labels.Len())
	}

	m, err := g.GenerateTerrainMesh(ctx)
	if err != nil {
		t.Fatalf("GenerateTerrainMesh: %v", err)
	}
	if len(m.Vertices) != 16 || len(m.Triangles) != 54 {
		t.Fatalf("mesh has %d vertices and %d indices, want 16 and 54", len(m.Vertices), len(m.Triangles))
	}
	att, ok := sinks.meshes.Get(g.Config().Mesh.Attachment)
	if !ok || att.Mesh != m {
		t.Fatalf("mesh was not attached under %q", g.Config().Mesh.Attachment)
	}
}

func TestGenerationIsDeterministic(t *testing.T) {
	ctx := context.Background()
	run := func() (testSinks, *Generator) {
		g, sinks := newTestGenerator(t, forestConfig(16), nil)
		if _, err := g.GenerateTerrainData(ctx); err != nil {
			t.Fatalf("GenerateTerrainData: %v", err)
		}
		if _, err := g.GenerateForests(ctx); err != nil {
			t.Fatalf("GenerateForests: %v", err)
		}
		return sinks, g
	}

	a, ga := run()
	b, gb := run()

	if !ga.HeightField().Equal(gb.HeightField()) {
		t.Fatalf("height fields differ")
	}
	la, lb := a.labels.Snapshot(), b.labels.Snapshot()
	if len(la) != len(lb) {
		t.Fatalf("label counts differ: %d vs %d", len(la), len(lb))
	}
	for cell, label := range la {
		if lb[cell] != label {
			t.Fatalf("label at %v differs: %q vs %q", cell, label, lb[cell])
		}
	}

	ta, tb := a.registry.Instances("Trees"), b.registry.Instances("Trees")
	if len(ta) == 0 || len(ta) != len(tb) {
		t.Fatalf("tree counts differ or empty: %d vs %d", len(ta), len(tb))
	}
	for i := range ta {
		if ta[i] != tb[i] {
			t.Fatalf("tree %d differs: %+v vs %+v", i, ta[i], tb[i])
		}
	}
}

func TestGenerateForestsPlacesTreesInBounds(t *testing.T) {
	cfg := forestConfig(8)
	g, sinks := newTestGenerator(t, cfg, nil)
	ctx := context.Background()
	if _, err := g.GenerateTerrainData(ctx); err != nil {
		t.Fatalf("GenerateTerrainData: %v", err)
	}

	summary, err := g.GenerateForests(ctx)
	if err != nil {
		t.Fatalf("GenerateForests: %v", err)
	}
	if summary.Mask.Allowed != 64 {
		t.Fatalf("expected every cell in the mask, got %+v", summary.Mask)
	}
	if summary.Trees.Trees < 64 || summary.Trees.Trees > 128 {
		t.Fatalf("tree count %d outside [64,128]", summary.Trees.Trees)
	}

	trees := sinks.registry.Instances(cfg.Forest.Container)
	if len(trees) != summary.Trees.Trees {
		t.Fatalf("registry holds %d trees, summary says %d", len(trees), summary.Trees.Trees)
	}
	for _, tree := range trees {
		p := tree.Position
		if p.X() < 0 || p.X() > 8 || p.Z() < 0 || p.Z() > 8 || p.Y() != 0 {
			t.Fatalf("tree %+v outside the terrain", tree)
		}
	}
}

func TestGenerateForestsReplacesPreviousTrees(t *testing.T) {
	g, sinks := newTestGenerator(t, forestConfig(8), nil)
	ctx := context.Background()
	if _, err := g.GenerateTerrainData(ctx); err != nil {
		t.Fatalf("GenerateTerrainData: %v", err)
	}

	first, err := g.GenerateForests(ctx)
	if err != nil {
		t.Fatalf("GenerateForests: %v", err)
	}
	if _, err := g.GenerateForests(ctx); err != nil {
		t.Fatalf("GenerateForests again: %v", err)
	}
	if got := sinks.registry.Len(); got != first.Trees.Trees {
		t.Fatalf("expected %d trees after regenerating, got %d", first.Trees.Trees, got)
	}

	if err := g.WipeForests(); err != nil {
		t.Fatalf("WipeForests: %v", err)
	}
	if got := sinks.registry.Len(); got != 0 {
		t.Fatalf("expected no trees after wipe, got %d", got)
	}
}

func TestGenerateTerrainDataWipesTrees(t *testing.T) {
	g, sinks := newTestGenerator(t, forestConfig(4), nil)
	ctx := context.Background()
	if _, err := g.GenerateTerrainData(ctx); err != nil {
		t.Fatalf("GenerateTerrainData: %v", err)
	}
	if _, err := g.GenerateForests(ctx); err != nil {
		t.Fatalf("GenerateForests: %v", err)
	}
	if _, err := g.GenerateTerrainData(ctx); err != nil {
		t.Fatalf("GenerateTerrainData again: %v", err)
	}
	if sinks.registry.Len() != 0 || sinks.mask.Len() != 0 {
		t.Fatalf("terrain regeneration should clear trees and mask, got %d trees and %d mask cells",
			sinks.registry.Len(), sinks.mask.Len())
	}
}

func TestPassesRequireTerrainData(t *testing.T) {
	g, _ := newTestGenerator(t, smallConfig(4), nil)
	ctx := context.Background()

	if _, err := g.GenerateTerrainMesh(ctx); !errors.Is(err, ErrNoHeightField) {
		t.Fatalf("expected ErrNoHeightField, got %v", err)
	}
	if _, err := g.GenerateForests(ctx); !errors.Is(err, ErrNoTerrainData) {
		t.Fatalf("expected ErrNoTerrainData, got %v", err)
	}
}

func TestDisabledForestIsANoOp(t *testing.T) {
	cfg := smallConfig(4)
	cfg.Forest.Enabled = false
	g, sinks := newTestGenerator(t, cfg, nil)

	summary, err := g.GenerateForests(context.Background())
	if err != nil {
		t.Fatalf("GenerateForests: %v", err)
	}
	if summary.Trees.Trees != 0 || sinks.registry.Len() != 0 {
		t.Fatalf("disabled forest should not place trees")
	}
}

func TestUnclassifiedCellsStayUnset(t *testing.T) {
	cfg := smallConfig(6)
	cfg.Forest.Enabled = false
	cfg.Terrain.Thresholds = []config.TerrainThreshold{{Label: "Peak", Threshold: 1}}
	g, sinks := newTestGenerator(t, cfg, nil)

	summary, err := g.GenerateTerrainData(context.Background())
	if err != nil {
		t.Fatalf("GenerateTerrainData: %v", err)
	}
	if summary.Unclassified == 0 {
		t.Fatalf("expected unclassified cells")
	}
	if sinks.labels.Len() != summary.Cells-summary.Unclassified {
		t.Fatalf("label grid has %d cells, want %d", sinks.labels.Len(), summary.Cells-summary.Unclassified)
	}
}

func TestGenerateTerrainDataStopsOnCancel(t *testing.T) {
	g, _ := newTestGenerator(t, smallConfig(4), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.GenerateTerrainData(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if g.HeightField() != nil {
		t.Fatalf("an interrupted pass must not publish a height field")
	}
}

func TestTerrainProgressIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	g, _ := newTestGenerator(t, smallConfig(20), logger)

	if _, err := g.GenerateTerrainData(context.Background()); err != nil {
		t.Fatalf("GenerateTerrainData: %v", err)
	}

	out := buf.String()
	lines := strings.Count(out, "terrain generation progress")
	if lines != 11 {
		t.Fatalf("expected 11 progress lines, got %d:\n%s", lines, out)
	}
	for _, want := range []string{"percent=0", "percent=50", "percent=100", "terrain data generated"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestUnorderedThresholdsAreWarned(t *testing.T) {
	var buf bytes.Buffer
	cfg := smallConfig(4)
	cfg.Terrain.Thresholds[0], cfg.Terrain.Thresholds[4] = cfg.Terrain.Thresholds[4], cfg.Terrain.Thresholds[0]
	newTestGenerator(t, cfg, slog.New(slog.NewTextHandler(&buf, nil)))

	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("expected a warning, got %q", buf.String())
	}
}

func TestMeshUsesResolutionUnitAndMaterialBands(t *testing.T) {
	cfg := smallConfig(4)
	cfg.Terrain.ResolutionLevel = 2
	cfg.Mesh.Materials = []config.MaterialBand{
		{Material: "lowland", MinElevation: -10},
		{Material: "unreachable", MinElevation: 10},
	}
	g, sinks := newTestGenerator(t, cfg, nil)
	ctx := context.Background()
	if _, err := g.GenerateTerrainData(ctx); err != nil {
		t.Fatalf("GenerateTerrainData: %v", err)
	}
	m, err := g.GenerateTerrainMesh(ctx)
	if err != nil {
		t.Fatalf("GenerateTerrainMesh: %v", err)
	}
	if len(m.Vertices) != 64 {
		t.Fatalf("expected 8x8 vertices, got %d", len(m.Vertices))
	}
	if x := m.Vertices[1].X(); x != 0.5 {
		t.Fatalf("expected unit distance 0.5, got vertex x %v", x)
	}
	att, _ := sinks.meshes.Get(cfg.Mesh.Attachment)
	if att.Material != "lowland" {
		t.Fatalf("expected lowland material, got %q", att.Material)
	}
}

func TestMaterialFor(t *testing.T) {
	cfg := config.MeshConfig{
		Material: "terrain",
		Materials: []config.MaterialBand{
			{Material: "grass", MinElevation: 0.2},
			{Material: "rock", MinElevation: 0.6},
		},
	}
	tests := []struct {
		mean float64
		want string
	}{
		{0.1, "terrain"},
		{0.2, "grass"},
		{0.59, "grass"},
		{0.9, "rock"},
	}
	for _, tc := range tests {
		if got := MaterialFor(tc.mean, cfg); got != tc.want {
			t.Fatalf("MaterialFor(%v) = %q, want %q", tc.mean, got, tc.want)
		}
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(4)
	cfg.Terrain.Thresholds = nil
	if _, err := New(cfg, Sinks{}, discardLogger()); err == nil {
		t.Fatalf("expected invalid config to fail")
	}
	if _, err := New(nil, Sinks{}, nil); err == nil {
		t.Fatalf("expected nil config to fail")
	}
}
