// Package config resolves the quiz runtime settings from defaults, an
// optional YAML file and QUIZ_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvBundle  = "QUIZ_BUNDLE"
	EnvJournal = "QUIZ_JOURNAL"
	EnvSeed    = "QUIZ_SEED"
	EnvDebug   = "QUIZ_DEBUG"
)

// #region types

// Config holds everything the CLI needs to build a session.
type Config struct {
	Bundle  string `yaml:"bundle"`
	Journal string `yaml:"journal"` // SQLite path; empty keeps events in memory
	Seed    uint64 `yaml:"seed"`    // 0 picks a random seed
	Debug   bool   `yaml:"debug"`   // print selector internals after each pick
	Verbose bool   `yaml:"verbose"` // development logger
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Bundle:  "bundle.yaml",
		Journal: "quiz_journal.db",
	}
}

// #endregion types

// #region load

// Load starts from DefaultConfig, overlays the YAML file at path when path
// is non-empty, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Bundle = envOr(EnvBundle, c.Bundle)
	c.Journal = envOr(EnvJournal, c.Journal)
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		c.Debug = debug
	}
	return nil
}

// #endregion load

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
