package main

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// isRemote reports whether src is a go-getter address rather than a local path.
func isRemote(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}

// fetchConfig downloads a remote configuration into dir and returns the local path.
// Local paths are returned unchanged.
func fetchConfig(ctx context.Context, src, dir string) (string, error) {
	if src == "" || !isRemote(src) {
		return src, nil
	}

	dst := filepath.Join(dir, "terrain"+remoteExt(src))
	if err := getter.GetFile(dst, src, getter.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("fetch config %q: %w", src, err)
	}
	return dst, nil
}

// remoteExt keeps the source's .json/.yaml extension so the file decodes the same way.
func remoteExt(src string) string {
	raw := src
	if i := strings.Index(raw, "::"); i >= 0 {
		raw = raw[i+2:]
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".json", ".yaml", ".yml":
		return ext
	default:
		return ".yaml"
	}
}
