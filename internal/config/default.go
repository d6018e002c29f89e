package config

// Default returns a configuration that generates a small island-like map with forests.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Width:                    64,
			Height:                   64,
			Scale:                    4,
			DetailsLevel:             1,
			ResolutionLevel:          1,
			Seed:                     1337,
			FlatTerrainMin:           0.35,
			FlatTerrainMax:           0.6,
			FlatTerrainThreshold:     0.02,
			MountainHeightMultiplier: 1.6,
			TerrainHeight:            20,
			Blending:                 BlendPlateau,
			Thresholds: []TerrainThreshold{
				{Label: "Water", Threshold: 0.0, Color: "#2f6fb5"},
				{Label: "Sand", Threshold: 0.32, Color: "#d8c58a"},
				{Label: "Plains", Threshold: 0.38, Color: "#6fae4b"},
				{Label: "Hills", Threshold: 0.55, Color: "#4f7f3a"},
				{Label: "Mountain", Threshold: 0.7, Color: "#8a8580"},
			},
		},
		Noise: NoiseConfig{
			Algorithm: NoisePerlin,
			Alpha:     2,
			Beta:      2,
			Octaves:   1,
		},
		Mesh: MeshConfig{
			Attachment: "terrainMesh",
			Material:   "terrain",
		},
		Forest: ForestConfig{
			Enabled:          true,
			Density:          0.45,
			AllowedLabels:    []string{"Plains", "Hills"},
			ForestsSize:      6,
			MinTreesPerCell:  1,
			MaxTreesPerCell:  4,
			TreesSpreadValue: 10,
			Prefabs:          []string{"oak", "pine", "birch"},
			Container:        "Trees",
			AllowedMark:      "forest",
		},
	}
}
