// Package config loads the operator-facing XI configuration file
// (spec.md §2.3): default mode, ensemble model list, timeouts, walker
// caps, quarantine glob source, and the resource-throttle threshold.
//
// Grounded on the teacher's
// core/pkg/config/profile_loader.go (LoadProfile): a yaml.v3-tagged
// struct read with os.ReadFile + yaml.Unmarshal, absence of the file
// treated as "use defaults" rather than an error, same as a region
// with no profile file falls back to the caller's own zero value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved `.xi/config.yaml` document, already merged
// with built-in defaults. Every field has a workable zero-state
// default so a missing or partial file never blocks the CLI.
type Config struct {
	DefaultMode        string   `yaml:"default_mode"`
	EnsembleModels     []string `yaml:"ensemble_models"`
	CallTimeout        Duration `yaml:"call_timeout"`
	WallClockTimeout   Duration `yaml:"wall_clock_timeout"`
	WalkerMaxFiles     int      `yaml:"walker_max_files"`
	WalkerMaxTime      Duration `yaml:"walker_max_time"`
	QuarantineGlobFile string   `yaml:"quarantine_glob_file"`
	ThrottleThreshold  float64  `yaml:"throttle_threshold"`
	MinVersion         string   `yaml:"min_version"`
}

// Duration round-trips a YAML scalar like "30s" through time.Duration,
// since yaml.v3 doesn't know about time.ParseDuration by default.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Value() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration used when no config file
// is present or a loaded file omits a field.
func Default() Config {
	return Config{
		DefaultMode:        "CHAT",
		EnsembleModels:     []string{"primary"},
		CallTimeout:        Duration(30 * time.Second),
		WallClockTimeout:   Duration(90 * time.Second),
		WalkerMaxFiles:     50000,
		WalkerMaxTime:      Duration(3 * time.Second),
		QuarantineGlobFile: ".xi-ignore",
		ThrottleThreshold:  0.70,
	}
}

// Load resolves the config file at <workspaceRoot>/.xi/config.yaml,
// falling back to <home>/.xi-io/config.yaml, merging found fields over
// Default(). Absence of either file is not an error.
func Load(workspaceRoot string) (Config, error) {
	cfg := Default()

	path, err := locate(workspaceRoot)
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	mergeOverrides(&cfg, loaded)
	return cfg, nil
}

func locate(workspaceRoot string) (string, error) {
	if workspaceRoot != "" {
		candidate := filepath.Join(workspaceRoot, ".xi", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home: %w", err)
	}
	candidate := filepath.Join(home, ".xi-io", "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

// mergeOverrides copies every non-zero field of loaded onto base,
// leaving Default()'s values in place for anything the file omitted.
func mergeOverrides(base *Config, loaded Config) {
	if loaded.DefaultMode != "" {
		base.DefaultMode = loaded.DefaultMode
	}
	if len(loaded.EnsembleModels) > 0 {
		base.EnsembleModels = loaded.EnsembleModels
	}
	if loaded.CallTimeout != 0 {
		base.CallTimeout = loaded.CallTimeout
	}
	if loaded.WallClockTimeout != 0 {
		base.WallClockTimeout = loaded.WallClockTimeout
	}
	if loaded.WalkerMaxFiles != 0 {
		base.WalkerMaxFiles = loaded.WalkerMaxFiles
	}
	if loaded.WalkerMaxTime != 0 {
		base.WalkerMaxTime = loaded.WalkerMaxTime
	}
	if loaded.QuarantineGlobFile != "" {
		base.QuarantineGlobFile = loaded.QuarantineGlobFile
	}
	if loaded.ThrottleThreshold != 0 {
		base.ThrottleThreshold = loaded.ThrottleThreshold
	}
	if loaded.MinVersion != "" {
		base.MinVersion = loaded.MinVersion
	}
}
