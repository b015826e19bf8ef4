// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzbee/fuzzbee/pkg/corpus"
	"github.com/fuzzbee/fuzzbee/pkg/engine"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
	"github.com/fuzzbee/fuzzbee/pkg/version"
)

// execute runs the CLI with an isolated config file and plugin directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	base := []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--plugin-dir", filepath.Join(dir, "plugins"),
		"--log-file", filepath.Join(dir, "fuzzbee.log"),
	}

	cmd := NewCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info version.Struct
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, plugin.APIVersion, info.PluginAPI)
}

func TestPluginsListIncludesBuiltins(t *testing.T) {
	out, err := execute(t, "plugins", "list", "--format", "json")
	require.NoError(t, err)

	var infos []plugin.Info
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	names := make(map[string]plugin.Kind)
	for _, info := range infos {
		assert.Equal(t, plugin.SourceBuiltin, info.Source)
		names[info.Name] = info.Kind
	}
	assert.Equal(t, plugin.KindDriver, names["process"])
	assert.Equal(t, plugin.KindDriver, names["http"])
	assert.Equal(t, plugin.KindDriver, names["websocket"])
	assert.Equal(t, plugin.KindInstrumentation, names["returncode"])
	assert.Equal(t, plugin.KindInstrumentation, names["outputhash"])
	assert.Equal(t, plugin.KindMutator, names["nop"])
	assert.Equal(t, plugin.KindMutator, names["bitflip"])
	assert.Equal(t, plugin.KindMutator, names["havoc"])
}

func TestPluginsListKindFilter(t *testing.T) {
	out, err := execute(t, "plugins", "list", "--kind", "m", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "havoc")
	assert.NotContains(t, out, "process")

	_, err = execute(t, "plugins", "list", "--kind", "scanner")
	assert.ErrorIs(t, err, plugin.ErrInvalidKind)

	_, err = execute(t, "plugins", "list", "--format", "xml")
	assert.Error(t, err)
}

func TestPluginsHelp(t *testing.T) {
	out, err := execute(t, "plugins", "help", "mutator", "havoc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "havoc"), out)

	_, err = execute(t, "plugins", "help", "driver", "nosuch")
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFuzz_EndToEnd(t *testing.T) {
	cat, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	state := filepath.Join(dir, "mutator.state")

	stdout, err := execute(t, "fuzz", "process", "outputhash", "bitflip",
		"-d", `{"path": "`+cat+`", "timeout": "5s"}`,
		"-s", writeSeed(t, "AB"),
		"-n", "5",
		"-o", out,
		"--msd", state,
		"--format", "json",
	)
	require.NoError(t, err)

	var sum engine.Summary
	require.NoError(t, json.Unmarshal([]byte(stdout), &sum))
	assert.Equal(t, 5, sum.Iterations)
	assert.Equal(t, engine.StopCompleted, sum.Stop)
	assert.Equal(t, 5, sum.NewPaths, "cat echoes every distinct candidate")

	entries, err := os.ReadDir(filepath.Join(out, string(corpus.NewPaths)))
	require.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.JSONEq(t, `{"position": 5}`, mustRead(t, state))
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFuzz_SetupFailures(t *testing.T) {
	seed := writeSeed(t, "AAAA")
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown driver", []string{"fuzz", "nosuch", "returncode", "nop", "-s", seed}, plugin.ErrPluginNotFound},
		{"missing seed", []string{"fuzz", "process", "returncode", "nop", "-s", seed + ".missing"}, engine.ErrSetup},
		{"no plugins named", []string{"fuzz", "-s", seed}, engine.ErrSetup},
		{"zero iterations", []string{"fuzz", "process", "returncode", "nop", "-s", seed, "-n", "0"}, engine.ErrSetup},
		{"bad driver options", []string{"fuzz", "process", "returncode", "nop", "-s", seed, "-d", "{path: }"}, engine.ErrSetup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "-o", filepath.Join(t.TempDir(), "out"))
			_, err := execute(t, args...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, engine.ExitCode(err))
		})
	}
}

func TestStructuredErrors(t *testing.T) {
	seed := writeSeed(t, "AAAA")
	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"fuzz setup", []string{"fuzz", "nosuch", "returncode", "nop", "-s", seed, "-o", filepath.Join(t.TempDir(), "out"), "--format", "json"}, "SETUP_FAILED"},
		{"plugins list", []string{"plugins", "list", "--kind", "scanner", "--format", "json"}, "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.Error(t, err)

			var report struct {
				Success   bool   `json:"success"`
				Error     string `json:"error"`
				ErrorCode string `json:"error_code"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &report), out)
			assert.False(t, report.Success)
			assert.Equal(t, err.Error(), report.Error)
			assert.Equal(t, tt.wantCode, report.ErrorCode)
		})
	}

	out, err := execute(t, "plugins", "list", "--kind", "scanner")
	require.Error(t, err)
	assert.Empty(t, out, "table mode leaves the error to cobra")
}

func TestFuzz_ExplicitEnvFileMustExist(t *testing.T) {
	_, err := execute(t, "--env-file", filepath.Join(t.TempDir(), "nope.env"), "version")
	assert.Error(t, err)
}
