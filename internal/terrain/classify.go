package terrain

import "terraingen/internal/config"

// Classify sweeps thresholds in order and keeps the last entry the elevation reaches.
// Negative elevations always take the first label. The second result is false when
// nothing matched, in which case the cell stays unclassified.
func Classify(elevation float64, thresholds []config.TerrainThreshold) (string, bool) {
	if len(thresholds) == 0 {
		return "", false
	}
	if elevation < 0 {
		return thresholds[0].Label, true
	}

	label, ok := "", false
	for _, th := range thresholds {
		if elevation >= th.Threshold {
			label, ok = th.Label, true
		}
	}
	return label, ok
}

// ascending reports whether thresholds are sorted so the last match is also the highest band.
func ascending(thresholds []config.TerrainThreshold) bool {
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i].Threshold < thresholds[i-1].Threshold {
			return false
		}
	}
	return true
}
