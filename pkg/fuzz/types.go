// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package fuzz defines the capability contracts shared by the orchestrator and
// every driver, instrumentation and mutator strategy.
package fuzz

import (
	"fmt"
	"os"
	"time"
)

// Outcome classifies a single executed run.
type Outcome int

const (
	// Normal means the target ran to completion without a finding.
	Normal Outcome = iota
	// Crash means the target terminated abnormally.
	Crash
	// Hang means the target did not finish before its deadline.
	Hang
	// Error means the harness itself failed, not the target.
	Error
)

// String returns the lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case Normal:
		return "normal"
	case Crash:
		return "crash"
	case Hang:
		return "hang"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Verdict is what an Instrumentation reports for the most recent run.
// NewPath is independent of Outcome: a crash can also be a new path.
type Verdict struct {
	Outcome Outcome
	NewPath bool
}

// Interesting reports whether the run should be persisted.
func (v Verdict) Interesting() bool {
	return v.Outcome == Crash || v.Outcome == Hang || v.NewPath
}

// Run is what a driver observed while executing one candidate. Drivers hand
// it to their bound Instrumentation through Observe.
type Run struct {
	// Input is the candidate that was executed.
	Input []byte
	// ExitCode is the process exit code, or the response status for
	// network drivers. -1 when the target was killed by a signal.
	ExitCode int
	// Signal is the signal that terminated the process, if any. The kill
	// sent on deadline expiry is not reported here.
	Signal os.Signal
	// TimedOut is set when the deadline elapsed and the target was killed.
	TimedOut bool
	// Output holds whatever the target wrote back (stdout, response body).
	Output []byte
	// Duration is the wall-clock time spent executing the candidate.
	Duration time.Duration
	// Err is a transport level failure (connection refused, reset, ...).
	Err error
}
