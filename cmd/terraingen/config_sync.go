package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"terraingen/internal/config"
)

const (
	envConfigJSON    = "TERRAIN_CONFIG_JSON"
	envConfigYAMLB64 = "TERRAIN_CONFIG_YAML_B64"
)

// writeConfigFromEnv materialises a configuration passed through the environment at
// cfgPath. Payload fields override the defaults. It reports whether a file was written.
func writeConfigFromEnv(cfgPath string) (bool, error) {
	jsonPayload := os.Getenv(envConfigJSON)
	yamlPayload := os.Getenv(envConfigYAMLB64)

	if jsonPayload == "" && yamlPayload == "" {
		return false, nil
	}
	if cfgPath == "" {
		return false, errors.New("environment provided configuration but no -config path supplied")
	}
	if isRemote(cfgPath) {
		return false, fmt.Errorf("environment provided configuration but -config %q is remote", cfgPath)
	}

	cfg := config.Default()
	if jsonPayload != "" {
		if err := config.Decode([]byte(jsonPayload), ".json", cfg); err != nil {
			return false, fmt.Errorf("decode %s: %w", envConfigJSON, err)
		}
	} else {
		data, err := base64.StdEncoding.DecodeString(yamlPayload)
		if err != nil {
			return false, fmt.Errorf("decode %s: %w", envConfigYAMLB64, err)
		}
		if err := config.Decode(data, ".yaml", cfg); err != nil {
			return false, fmt.Errorf("decode %s: %w", envConfigYAMLB64, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("validate environment config: %w", err)
	}
	if err := config.WriteFile(cfgPath, cfg); err != nil {
		return false, err
	}
	return true, nil
}
