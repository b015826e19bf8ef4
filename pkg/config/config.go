// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package config loads fuzzbee configuration from defaults, a YAML file, a
// .env file, the environment and command-line flags.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"

	"github.com/fuzzbee/fuzzbee/pkg/paths"
)

// ErrInvalidConfig is returned when the merged configuration fails
// validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with its own koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns the baseline configuration used when no other
// source overrides a value.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Fuzz: FuzzConfig{
			Iterations: 1,
			Output:     "output",
		},
		Plugins:  DirConfig{Dir: paths.PluginDir()},
		Mutators: DirConfig{Dir: paths.MutatorDir()},
	}
}

// Load merges sources in priority order, lowest first, and unmarshals the
// result. Only the logging section is validated here; fuzz settings are
// validated by the command that needs them.
func (m *Manager) Load(sources ...ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := slices.Clone(sources)
	slices.SortStableFunc(ordered, func(a, b ConfigSource) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})
	for _, src := range ordered {
		if err := src.Load(m.koanfInstance); err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	if err := newCfg.Log.Validate(); err != nil {
		return err
	}
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Validate checks the logging section.
func (c LogConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: log: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks that a run is fully described.
func (c FuzzConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: fuzz: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfigAsMap flattens DefaultConfig for koanf's confmap provider so
// that every known key exists before other sources load.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		"fuzz.driver":                     def.Fuzz.Driver,
		"fuzz.instrumentation":            def.Fuzz.Instrumentation,
		"fuzz.mutator":                    def.Fuzz.Mutator,
		"fuzz.driver_options":             def.Fuzz.DriverOptions,
		"fuzz.instrumentation_options":    def.Fuzz.InstrumentationOptions,
		"fuzz.mutator_options":            def.Fuzz.MutatorOptions,
		"fuzz.iterations":                 def.Fuzz.Iterations,
		"fuzz.output":                     def.Fuzz.Output,
		"fuzz.seed_file":                  def.Fuzz.SeedFile,
		"fuzz.instrumentation_state_load": def.Fuzz.InstrumentationStateLoad,
		"fuzz.instrumentation_state_dump": def.Fuzz.InstrumentationStateDump,
		"fuzz.mutator_state":              def.Fuzz.MutatorState,
		"fuzz.mutator_state_load":         def.Fuzz.MutatorStateLoad,
		"fuzz.mutator_state_dump":         def.Fuzz.MutatorStateDump,

		"plugins.dir":  def.Plugins.Dir,
		"mutators.dir": def.Mutators.Dir,
	}
}
