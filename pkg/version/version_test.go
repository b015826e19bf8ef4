// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestInfo_ReturnsFormattedString(t *testing.T) {
	info := Info()

	if !strings.HasPrefix(info, "fuzzbee ") {
		t.Errorf("Expected info to start with 'fuzzbee', got: %s", info)
	}
	for _, want := range []string{Version, Commit, BuildDate} {
		if !strings.Contains(info, want) {
			t.Errorf("Expected info to contain %q, got: %s", want, info)
		}
	}
}

func TestGet_ReturnsCorrectStruct(t *testing.T) {
	v := Get("1.0.0")

	if v.Version != Version || v.Commit != Commit || v.BuildDate != BuildDate {
		t.Errorf("unexpected build metadata: %+v", v)
	}
	if v.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", v.GoVersion, runtime.Version())
	}
	if v.PluginAPI != "1.0.0" {
		t.Errorf("PluginAPI = %s, want 1.0.0", v.PluginAPI)
	}
}
