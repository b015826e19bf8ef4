// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSource_Load(t *testing.T) {
	k := koanf.New(".")
	src := &DefaultSource{}
	assert.Equal(t, 10, src.Priority())

	require.NoError(t, src.Load(k))
	assert.Equal(t, "info", k.String("log.level"))
	assert.Equal(t, 1, k.Int("fuzz.iterations"))
}

func TestFileSource_SkipsEmptyAndMissing(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, (&FileSource{}).Load(k))
	require.NoError(t, (&FileSource{Path: "/nonexistent/path/fuzzbee.yaml"}).Load(k))
}

func TestFileSource_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o644))
	assert.Error(t, (&FileSource{Path: path}).Load(koanf.New(".")))
}

func TestDotenvSource(t *testing.T) {
	k := koanf.New(".")
	assert.Equal(t, 25, (&DotenvSource{}).Priority())

	require.NoError(t, (&DotenvSource{Path: "/nonexistent/.env"}).Load(k))
	assert.Error(t, (&DotenvSource{Path: "/nonexistent/.env", Required: true}).Load(k))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FUZZBEE_PLUGINS_DIR=/opt/plugins\nHOME=/ignored\n"), 0o644))
	require.NoError(t, (&DotenvSource{Path: path}).Load(k))
	assert.Equal(t, "/opt/plugins", k.String("plugins.dir"))
	assert.False(t, k.Exists("home"))
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"FUZZBEE_LOG_LEVEL":                       "log.level",
		"FUZZBEE_FUZZ_DRIVER_OPTIONS":             "fuzz.driver_options",
		"FUZZBEE_FUZZ_INSTRUMENTATION_STATE_DUMP": "fuzz.instrumentation_state_dump",
		"FUZZBEE_MUTATORS_DIR":                    "mutators.dir",
		"FUZZBEE_PLUGINS_DIR":                     "plugins.dir",
	}
	for in, want := range tests {
		assert.Equal(t, want, EnvKey(in), in)
	}
}

func TestEnvSource_Load(t *testing.T) {
	t.Setenv("FUZZBEE_FUZZ_SEED_FILE", "/tmp/seed")
	k := koanf.New(".")
	require.NoError(t, (&EnvSource{}).Load(k))
	assert.Equal(t, "/tmp/seed", k.String("fuzz.seed_file"))
}

func TestFlagSource_IgnoresUnmappedFlags(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, (&DefaultSource{}).Load(k))
	flags := newFlags(t, "--format", "json", "-d", "url: http://x")
	require.NoError(t, (&FlagSource{Flags: flags}).Load(k))

	assert.False(t, k.Exists("format"))
	assert.Equal(t, "url: http://x", k.String("fuzz.driver_options"))
}
