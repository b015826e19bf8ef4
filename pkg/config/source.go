// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable fuzzbee reads.
const EnvPrefix = "FUZZBEE_"

// ConfigSource represents a configuration source that can load values into koanf.
// Sources are loaded in priority order (lowest first), with higher priority sources
// overriding lower priority values.
//
// Built-in sources and their priorities:
//   - DefaultSource (10): Hardcoded default values
//   - FileSource (20): YAML config file
//   - DotenvSource (25): .env file
//   - EnvSource (30): Environment variables (FUZZBEE_*)
//   - FlagSource (40): Command-line flags
type ConfigSource interface {
	// Name returns a human-readable name for this source (for logging/debugging)
	Name() string

	// Priority returns the load priority. Lower values are loaded first,
	// higher values override lower ones.
	Priority() int

	// Load loads configuration values into the provided koanf instance.
	Load(k *koanf.Koanf) error
}

// DefaultSource provides hardcoded default configuration values.
type DefaultSource struct{}

func (s *DefaultSource) Name() string  { return "defaults" }
func (s *DefaultSource) Priority() int { return 10 }

func (s *DefaultSource) Load(k *koanf.Koanf) error {
	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading defaults: %w", err)
	}
	return nil
}

// FileSource loads configuration from a YAML file.
type FileSource struct {
	Path string // silently skipped if empty or missing
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return 20 }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error checking config file %s: %w", s.Path, err)
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("error loading config file %s: %w", s.Path, err)
	}
	return nil
}

// DotenvSource loads FUZZBEE_* entries from a .env file. Keys map the same
// way as for EnvSource; the process environment is left untouched.
type DotenvSource struct {
	Path     string // silently skipped if empty; must exist when Required
	Required bool
}

func (s *DotenvSource) Name() string  { return "dotenv:" + s.Path }
func (s *DotenvSource) Priority() int { return 25 }

func (s *DotenvSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); err != nil && os.IsNotExist(err) && !s.Required {
		return nil
	}
	vars, err := godotenv.Read(s.Path)
	if err != nil {
		return fmt.Errorf("error reading env file %s: %w", s.Path, err)
	}

	values := make(map[string]interface{})
	for key, value := range vars {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		values[EnvKey(key)] = value
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("error loading env file %s: %w", s.Path, err)
	}
	return nil
}

// EnvSource loads configuration from environment variables. The first
// segment after the prefix names the section and the rest is the key:
//
//	FUZZBEE_LOG_LEVEL            -> log.level
//	FUZZBEE_FUZZ_DRIVER_OPTIONS  -> fuzz.driver_options
//	FUZZBEE_MUTATORS_DIR         -> mutators.dir
type EnvSource struct {
	Prefix string // default: "FUZZBEE_"
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return 30 }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	if err := k.Load(env.Provider(prefix, ".", func(key string) string {
		return envKey(prefix, key)
	}), nil); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	return nil
}

// EnvKey maps a FUZZBEE_* variable name to its koanf key.
func EnvKey(name string) string {
	return envKey(EnvPrefix, name)
}

func envKey(prefix, name string) string {
	rest := strings.ToLower(strings.TrimPrefix(name, prefix))
	section, key, found := strings.Cut(rest, "_")
	if !found {
		return section
	}
	return section + "." + key
}

// FlagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var FlagKeys = map[string]string{
	"log-format": "log.format",
	"log-file":   "log.file",

	"driver-options":          "fuzz.driver_options",
	"instrumentation-options": "fuzz.instrumentation_options",
	"mutator-options":         "fuzz.mutator_options",
	"iterations":              "fuzz.iterations",
	"output":                  "fuzz.output",
	"seed-file":               "fuzz.seed_file",
	"isf":                     "fuzz.instrumentation_state_load",
	"isd":                     "fuzz.instrumentation_state_dump",
	"ms":                      "fuzz.mutator_state",
	"msf":                     "fuzz.mutator_state_load",
	"msd":                     "fuzz.mutator_state_dump",
	"md":                      "mutators.dir",
	"plugin-dir":              "plugins.dir",
}

// FlagSource loads configuration from command-line flags.
type FlagSource struct {
	Flags     *pflag.FlagSet
	Debug     bool // force log.level debug
	Verbosity int  // -v: debug, -vv and more: trace
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return 40 }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		provider := posflag.ProviderWithFlag(s.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := FlagKeys[f.Name]
			if !ok {
				return "", nil
			}
			if f.Value.Type() == "int" {
				return key, cast.ToInt(f.Value.String())
			}
			return key, f.Value.String()
		})
		if err := k.Load(provider, nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}
	}

	switch {
	case s.Verbosity >= 2:
		_ = k.Set("log.level", "trace")
	case s.Verbosity == 1 || s.Debug:
		_ = k.Set("log.level", "debug")
	}
	return nil
}

// DefaultSources returns the standard configuration sources.
// Order: defaults -> file -> dotenv -> env -> flags
func DefaultSources(configPath, envFile string, flags *pflag.FlagSet, debug bool, verbosity int) []ConfigSource {
	return []ConfigSource{
		&DefaultSource{},
		&FileSource{Path: configPath},
		&DotenvSource{Path: envFile},
		&EnvSource{Prefix: EnvPrefix},
		&FlagSource{Flags: flags, Debug: debug, Verbosity: verbosity},
	}
}
