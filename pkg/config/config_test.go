// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_ReturnsExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 1, cfg.Fuzz.Iterations)
	assert.Equal(t, "output", cfg.Fuzz.Output)
}

func TestDefaultConfigAsMap_CoversEveryFlagKey(t *testing.T) {
	m := DefaultConfigAsMap()
	for flag, key := range FlagKeys {
		assert.Contains(t, m, key, "flag %s maps to an unknown key", flag)
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("driver-options", "d", "", "")
	fs.IntP("iterations", "n", 1, "")
	fs.StringP("output", "o", "output", "")
	fs.String("msf", "", "")
	fs.String("md", "", "")
	fs.String("format", "table", "not configuration")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestManager_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "fuzzbee.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
log:
  level: warn
fuzz:
  iterations: 5
  output: from-file
  driver_options: "path: /bin/false"
mutators:
  dir: /from/file
`), 0o644))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FUZZBEE_FUZZ_OUTPUT=from-dotenv\nFUZZBEE_LOG_FORMAT=json\nOTHER=x\n"), 0o644))

	t.Setenv("FUZZBEE_LOG_FORMAT", "text")
	t.Setenv("FUZZBEE_MUTATORS_DIR", "/from/env")

	m := NewManager()
	flags := newFlags(t, "-n", "20", "--md", "/from/flag")
	require.NoError(t, m.Load(DefaultSources(cfgFile, envFile, flags, false, 0)...))
	cfg := m.Get()

	assert.Equal(t, "warn", cfg.Log.Level, "file overrides defaults")
	assert.Equal(t, "text", cfg.Log.Format, "env overrides dotenv")
	assert.Equal(t, "from-dotenv", cfg.Fuzz.Output, "dotenv overrides file, unchanged flag does not")
	assert.Equal(t, 20, cfg.Fuzz.Iterations, "changed flag overrides file")
	assert.Equal(t, "/from/flag", cfg.Mutators.Dir, "flag overrides env")
	assert.Equal(t, "path: /bin/false", cfg.Fuzz.DriverOptions)
}

func TestManager_Verbosity(t *testing.T) {
	tests := []struct {
		debug     bool
		verbosity int
		want      string
	}{
		{false, 0, "info"},
		{true, 0, "debug"},
		{false, 1, "debug"},
		{false, 2, "trace"},
		{true, 3, "trace"},
	}
	for _, tt := range tests {
		m := NewManager()
		require.NoError(t, m.Load(&DefaultSource{}, &FlagSource{Debug: tt.debug, Verbosity: tt.verbosity}))
		assert.Equal(t, tt.want, m.Get().Log.Level)
	}
}

func TestManager_RejectsBadLogFormat(t *testing.T) {
	t.Setenv("FUZZBEE_LOG_FORMAT", "xml")
	m := NewManager()
	err := m.Load(&DefaultSource{}, &EnvSource{})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFuzzConfig_Validate(t *testing.T) {
	cfg := DefaultConfig().Fuzz
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Driver, cfg.Instrumentation, cfg.Mutator = "process", "returncode", "nop"
	cfg.SeedFile = "seed"
	require.NoError(t, cfg.Validate())

	cfg.Iterations = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
