package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"terraingen/internal/config"
	"terraingen/internal/forest"
	"terraingen/internal/grid"
	"terraingen/internal/mesh"
	"terraingen/internal/preview"
	"terraingen/internal/scene"
	"terraingen/internal/terrain"
)

const (
	stepData    = "data"
	stepForests = "forests"
	stepMesh    = "mesh"
	stepWipe    = "wipe"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "terraingen: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configSrc    string
	outDir       string
	steps        []string
	showMap      bool
	writePreview bool
	cellPixels   int
	logLevel     slog.Level
	writeDefault string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts     options
		steps    string
		logLevel string
	)
	flags := flag.NewFlagSet("terraingen", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.configSrc, "config", "", "configuration file (YAML or JSON) or go-getter address")
	flags.StringVar(&opts.outDir, "out", "out", "directory for the mesh, tree placements and previews")
	flags.StringVar(&steps, "steps", "data,forests,mesh", "comma separated passes to run: data, forests, mesh, wipe")
	flags.BoolVar(&opts.showMap, "map", false, "print the label map to stdout")
	flags.BoolVar(&opts.writePreview, "preview", false, "write elevation and terrain preview PNGs")
	flags.IntVar(&opts.cellPixels, "cell-pixels", 4, "preview pixels per internal cell")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&opts.writeDefault, "write-default", "", "write the default configuration to this path and exit")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	if err := opts.logLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return opts, fmt.Errorf("invalid -log-level %q", logLevel)
	}

	for _, step := range strings.Split(steps, ",") {
		step = strings.TrimSpace(strings.ToLower(step))
		switch step {
		case "":
			continue
		case stepData, stepForests, stepMesh, stepWipe:
			opts.steps = append(opts.steps, step)
		default:
			return opts, fmt.Errorf("unknown step %q", step)
		}
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: opts.logLevel}))

	if opts.writeDefault != "" {
		if err := config.WriteFile(opts.writeDefault, config.Default()); err != nil {
			return err
		}
		logger.Info("default configuration written", "path", opts.writeDefault)
		return nil
	}

	cfg, err := loadConfig(ctx, opts, logger)
	if err != nil {
		return err
	}

	labels := grid.NewMemoryLabelGrid()
	mask := grid.NewMemoryLabelGrid()
	registry := scene.NewRegistry()
	gen, err := terrain.New(cfg, terrain.Sinks{
		Labels:     labels,
		ForestMask: mask,
		Spawner:    registry,
		Mesh:       mesh.OBJTarget{Dir: opts.outDir},
	}, logger)
	if err != nil {
		return err
	}

	forestsRan := false
	for _, step := range opts.steps {
		switch step {
		case stepData:
			if _, err := gen.GenerateTerrainData(ctx); err != nil {
				return fmt.Errorf("generate terrain data: %w", err)
			}
		case stepForests:
			if _, err := gen.GenerateForests(ctx); err != nil {
				return fmt.Errorf("generate forests: %w", err)
			}
			forestsRan = true
		case stepMesh:
			if _, err := gen.GenerateTerrainMesh(ctx); err != nil {
				return fmt.Errorf("generate terrain mesh: %w", err)
			}
		case stepWipe:
			if err := gen.WipeForests(); err != nil {
				return err
			}
			forestsRan = true
		}
	}

	trees := registry.Instances(cfg.Forest.Container)
	if forestsRan {
		if err := writePlacements(filepath.Join(opts.outDir, "trees.json"), cfg.Forest.Container, trees); err != nil {
			return err
		}
	}

	layers := preview.Layers{
		Width:      cfg.Terrain.InternalWidth(),
		Height:     cfg.Terrain.InternalHeight(),
		Factor:     cfg.Terrain.ResolutionFactor(),
		Thresholds: cfg.Terrain.Thresholds,
		Labels:     labels,
		Mask:       mask,
		Mark:       forestMark(cfg.Forest),
		Trees:      trees,
	}

	if opts.writePreview {
		if err := writePreviews(opts, gen.HeightField(), layers, logger); err != nil {
			return err
		}
	}
	if opts.showMap {
		fmt.Fprint(stdout, preview.TerminalMap(layers))
		coverage := preview.Coverage(labels)
		for _, th := range cfg.Terrain.Thresholds {
			logger.Debug("label coverage", "label", th.Label, "cells", coverage[th.Label])
		}
	}
	return nil
}

func loadConfig(ctx context.Context, opts options, logger *slog.Logger) (*config.Config, error) {
	wrote, err := writeConfigFromEnv(opts.configSrc)
	if err != nil {
		return nil, err
	}
	if wrote {
		logger.Info("configuration written from environment", "path", opts.configSrc)
	}

	path, err := fetchConfig(ctx, opts.configSrc, opts.outDir)
	if err != nil {
		return nil, err
	}
	if path != opts.configSrc {
		logger.Info("remote configuration fetched", "source", opts.configSrc, "path", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func forestMark(settings config.ForestConfig) string {
	if settings.AllowedMark == "" {
		return forest.DefaultMark
	}
	return settings.AllowedMark
}

type placementFile struct {
	Container string           `json:"container"`
	Trees     []scene.Instance `json:"trees"`
}

func writePlacements(path, container string, trees []scene.Instance) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if trees == nil {
		trees = []scene.Instance{}
	}
	data, err := json.MarshalIndent(placementFile{Container: container, Trees: trees}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal placements: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write placements: %w", err)
	}
	return nil
}

func writePreviews(opts options, hf *grid.HeightField, layers preview.Layers, logger *slog.Logger) error {
	if hf == nil {
		logger.Warn("no terrain data; skipping previews")
		return nil
	}

	elevation, err := preview.Elevation(hf, opts.cellPixels)
	if err != nil {
		return err
	}
	elevationPath := filepath.Join(opts.outDir, "elevation.png")
	if err := preview.SavePNG(elevationPath, elevation); err != nil {
		return err
	}

	terrainImg, err := preview.Terrain(layers, opts.cellPixels)
	if err != nil {
		return err
	}
	terrainPath := filepath.Join(opts.outDir, "terrain.png")
	if err := preview.SavePNG(terrainPath, terrainImg); err != nil {
		return err
	}

	logger.Info("previews written", "elevation", elevationPath, "terrain", terrainPath)
	return nil
}
