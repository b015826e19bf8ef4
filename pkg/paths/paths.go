// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDir returns the config directory for fuzzbee.
// Order: XDG_CONFIG_HOME/fuzzbee, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fuzzbee")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Fuzzbee")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fuzzbee")
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// executable is swapped in tests.
var executable = os.Executable

// BinaryDir returns the directory holding the running executable, with
// symlinks resolved. It returns "" when the location cannot be determined.
func BinaryDir() string {
	exe, err := executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// PluginDir returns the default directory for driver and instrumentation
// modules: <binary dir>/../plugins.
func PluginDir() string {
	return siblingDir("plugins")
}

// MutatorDir returns the default directory for mutator modules:
// <binary dir>/../mutators.
func MutatorDir() string {
	return siblingDir("mutators")
}

func siblingDir(name string) string {
	bin := BinaryDir()
	if bin == "" {
		return ""
	}
	return filepath.Join(bin, "..", name)
}
