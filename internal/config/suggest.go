package config

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// suggestLabel returns the configured label closest to an unknown one, if any is close enough.
func suggestLabel(unknown string, labels []string) (string, bool) {
	type scored struct {
		label string
		dist  int
	}

	needle := strings.ToLower(unknown)
	candidates := make([]scored, 0, len(labels))
	for _, label := range labels {
		dist := levenshtein.ComputeDistance(needle, strings.ToLower(label))
		if dist > suggestionLimit(len(label)) {
			continue
		}
		candidates = append(candidates, scored{label: label, dist: dist})
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].dist == candidates[j].dist {
			return candidates[i].label < candidates[j].label
		}
		return candidates[i].dist < candidates[j].dist
	})
	return candidates[0].label, true
}

func suggestionLimit(n int) int {
	switch {
	case n <= 3:
		return 1
	case n <= 7:
		return 2
	default:
		return 3
	}
}
