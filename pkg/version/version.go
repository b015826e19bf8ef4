// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package version provides version metadata for the application.
package version

import (
	"fmt"
	"runtime"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of fuzzbee.
	Version = "dev"
	// Commit holds the current version commit of fuzzbee.
	Commit = "none"
	// BuildDate holds the build date of fuzzbee.
	BuildDate = "unknown"
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
	PluginAPI string `json:"pluginAPI" yaml:"pluginAPI"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("fuzzbee %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct. pluginAPI is the plugin API
// version the binary implements.
func Get(pluginAPI string) Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		PluginAPI: pluginAPI,
	}
}
