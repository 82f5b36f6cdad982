package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "SQUAD_"
	configFileEnv = "SQUAD_CONFIG"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. YAML file at path, or at SQUAD_CONFIG when path is empty
//  3. env (prefix SQUAD_, e.g. SQUAD_MATCH_MINUTES -> match_minutes)
//  4. overrides, keyed like the koanf tags (explicitly set flags)
//
// The result is validated.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(configFileEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("cannot load config file %v: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("cannot load environment: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("cannot apply override %v: %w", key, err)
		}
	}

	config := New()
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
