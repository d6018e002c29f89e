package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"terraingen/internal/config"
)

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"terrain.yaml":                             false,
		"/etc/terrain/config.json":                 false,
		"https://example.com/terrain.yaml":         true,
		"s3::https://s3.amazonaws.com/b/t.yaml":    true,
		"git::https://example.com/repo.git//t.yml": true,
	}
	for src, want := range tests {
		if got := isRemote(src); got != want {
			t.Fatalf("isRemote(%q) = %v, want %v", src, got, want)
		}
	}
}

func TestRemoteExt(t *testing.T) {
	tests := map[string]string{
		"https://example.com/terrain.json?archive=false": ".json",
		"s3::https://s3.amazonaws.com/bucket/t.yml":      ".yml",
		"https://example.com/config":                     ".yaml",
	}
	for src, want := range tests {
		if got := remoteExt(src); got != want {
			t.Fatalf("remoteExt(%q) = %q, want %q", src, got, want)
		}
	}
}

func TestFetchConfigLeavesLocalPaths(t *testing.T) {
	got, err := fetchConfig(context.Background(), "config.yaml", t.TempDir())
	if err != nil {
		t.Fatalf("fetchConfig: %v", err)
	}
	if got != "config.yaml" {
		t.Fatalf("local path should pass through, got %q", got)
	}
}

func TestFetchConfigFromFileURL(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "remote.json")
	cfg := config.Default()
	cfg.Terrain.Seed = 4242
	if err := config.WriteFile(src, cfg); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	dst := t.TempDir()
	path, err := fetchConfig(context.Background(), "file://"+src, dst)
	if err != nil {
		t.Fatalf("fetchConfig: %v", err)
	}
	if filepath.Ext(path) != ".json" {
		t.Fatalf("fetched file should keep the json extension, got %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("fetched file missing: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Terrain.Seed != 4242 {
		t.Fatalf("unexpected seed %d", loaded.Terrain.Seed)
	}
}
