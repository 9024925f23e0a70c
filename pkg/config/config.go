// Package config loads interpreter settings from an optional YAML file.
// Command-line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Engines
const (
	EngineTree = "tree"
	EngineFlat = "flat"
)

// DefaultMemoryLimit is the tape ceiling used by the command-line tool
const DefaultMemoryLimit = 1 << 26

// Config holds every tunable setting
type Config struct {
	// MemoryLimit caps the tape length in cells (0 = interpreter.MaxTapeLength)
	MemoryLimit int `yaml:"memory_limit"`

	// Engine selects the tree walker or the flat arena VM
	Engine string `yaml:"engine"`

	// Stats prints execution statistics after each run
	Stats bool `yaml:"stats"`

	Log  Log  `yaml:"log"`
	REPL REPL `yaml:"repl"`
}

// Log configures pkg/logs
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// REPL configures the interactive shell
type REPL struct {
	Prompt    string `yaml:"prompt"`
	Continue  string `yaml:"continue"`
	History   string `yaml:"history"`
	CacheSize int    `yaml:"cache_size"`
	Quiet     bool   `yaml:"quiet"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		MemoryLimit: DefaultMemoryLimit,
		Engine:      EngineTree,
		Log: Log{
			Level: "warn",
		},
		REPL: REPL{
			Prompt:    "BF> ",
			Continue:  "..> ",
			History:   ".bf_history",
			CacheSize: 128,
		},
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	abs, err := filepath.Abs(path)
	if err != nil {
		return cfg, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", abs, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", abs, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", abs, err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations
func (c Config) Validate() error {
	if c.MemoryLimit < 0 {
		return fmt.Errorf("memory_limit must not be negative, got %d", c.MemoryLimit)
	}
	switch c.Engine {
	case EngineTree, EngineFlat:
	default:
		return fmt.Errorf("unknown engine %q (want %q or %q)", c.Engine, EngineTree, EngineFlat)
	}
	if c.REPL.CacheSize < 0 {
		return fmt.Errorf("repl.cache_size must not be negative, got %d", c.REPL.CacheSize)
	}
	return nil
}

// Write serialises c to path
func (c Config) Write(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
