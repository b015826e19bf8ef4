// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package instrumentation provides the built-in run classifiers.
package instrumentation

import (
	"slices"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// outcomeOptions are shared by every built-in instrumentation.
type outcomeOptions struct {
	// CrashCodes are exit codes (or response statuses) treated as crashes.
	CrashCodes []int `yaml:"crash_codes"`
	// CrashOnError classifies transport failures as crashes instead of
	// normal runs.
	CrashOnError bool `yaml:"crash_on_error"`
}

// classify maps a run to its outcome. A timeout takes precedence over
// everything else since the kill that ended the run is ours.
func (o outcomeOptions) classify(run *fuzz.Run) fuzz.Outcome {
	switch {
	case run.TimedOut:
		return fuzz.Hang
	case run.Signal != nil:
		return fuzz.Crash
	case run.Err != nil:
		if o.CrashOnError {
			return fuzz.Crash
		}
		return fuzz.Normal
	case slices.Contains(o.CrashCodes, run.ExitCode):
		return fuzz.Crash
	}
	return fuzz.Normal
}
