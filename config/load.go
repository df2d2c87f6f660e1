// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file path when no explicit path is given.
const PathEnvVar = "SOMMELIER_CONFIG"

// EnvPrefix prefixes every setting's environment variable.
const EnvPrefix = "SOMMELIER_"

// DefaultPaths lists the config files searched, in order, when neither an
// explicit path nor PathEnvVar is set. The first one found is used.
var DefaultPaths = []string{
	"sommelier.yaml",
	"sommelier.yml",
	"/etc/sommelier/sommelier.yaml",
}

// envAliases maps unprefixed environment variables onto settings.
var envAliases = map[string]string{
	"OPENAI_API_KEY": "ai.api_key",
	"RE_RANK_ALPHA":  "search.alpha",
	"RE_RANK_BETA":   "search.beta",
}

// ErrConfigFileNotFound indicates an explicitly requested file is missing.
var ErrConfigFileNotFound = errors.New("config file not found")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration from defaults, the YAML file at path and
// the environment. An empty path falls back to PathEnvVar and then
// DefaultPaths; only an explicitly named file must exist. A nil logger uses
// slog.Default().
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	// Environment keys are only accepted for settings the defaults define,
	// and are parsed as the type of the default.
	known := make(map[string]string)
	kinds := make(map[string]any)
	for key, value := range k.All() {
		known[strings.ReplaceAll(key, ".", "_")] = key
		kinds[key] = value
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		logger.Debug("loaded config file", "path", configPath)
	}

	aliases := env.ProviderWithValue("", ".", func(name, value string) (string, any) {
		key, ok := envAliases[name]
		if !ok {
			return "", nil
		}
		return coerceEnv(kinds[key], logger, name, key, value)
	})
	if err := k.Load(aliases, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	prefixed := env.ProviderWithValue(EnvPrefix, ".", func(name, value string) (string, any) {
		if name == PathEnvVar {
			return "", nil
		}
		key, ok := known[strings.ToLower(strings.TrimPrefix(name, EnvPrefix))]
		if !ok {
			logger.Debug("ignoring unknown environment variable", "name", name)
			return "", nil
		}
		return coerceEnv(kinds[key], logger, name, key, value)
	})
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// findConfigFile resolves the config file to read, or "" for none.
func findConfigFile(path string) (string, error) {
	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return path, nil
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// coerceEnv parses an environment value as the type of the setting's
// default. Values that do not parse are dropped so the lower layers apply.
func coerceEnv(kind any, logger *slog.Logger, name, key, value string) (string, any) {
	value = strings.TrimSpace(value)
	var (
		parsed any
		err    error
	)
	switch kind.(type) {
	case time.Duration:
		parsed, err = time.ParseDuration(value)
	case int:
		parsed, err = strconv.Atoi(value)
	case float64:
		var f float64
		f, err = strconv.ParseFloat(value, 64)
		if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
			err = errors.New("not a finite number")
		}
		parsed = f
	case bool:
		parsed, err = strconv.ParseBool(value)
	default:
		parsed = value
	}
	if err != nil {
		logger.Warn("ignoring malformed environment variable", "name", name, "value", value, "err", err)
		return "", nil
	}
	return key, parsed
}
