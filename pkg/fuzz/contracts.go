// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fuzz

import "context"

// Driver delivers candidates to the target. It is bound to one
// Instrumentation and one Mutator at construction time and calls into them
// internally; it borrows both and must never close them.
type Driver interface {
	// TestInput executes the target with exactly input, bypassing the
	// mutator. A nil error means the run completed and was observed.
	TestInput(ctx context.Context, input []byte) error

	// TestNextInput asks the mutator for the next candidate and executes it.
	// It returns ErrExhausted (possibly wrapped) when the mutator has no
	// further candidates; any other error is a harness failure.
	TestNextInput(ctx context.Context) error

	// LastInput returns a copy of the most recently executed candidate, or
	// nil when nothing has run yet. The caller owns the returned slice.
	LastInput() []byte

	// Close releases the driver's own resources.
	Close() error
}

// Instrumentation observes executed runs and classifies them.
type Instrumentation interface {
	// Observe records the run the driver just finished.
	Observe(run *Run) error

	// IsNewPath classifies the most recently observed run. An error means
	// the status could not be determined, which is distinct from a crash.
	IsNewPath() (Verdict, error)

	// State serializes the tracking state, or returns ErrNoState.
	State() ([]byte, error)

	// Close releases the instrumentation's resources.
	Close() error
}

// Mutator produces candidates from a seed.
type Mutator interface {
	// Mutate overwrites buf with the next candidate. Once it has returned
	// ErrExhausted, every later call returns ErrExhausted too.
	Mutate(buf *Buffer) error

	// State serializes the mutator's progress, or returns ErrNoState.
	State() ([]byte, error)

	// Close releases the mutator's resources.
	Close() error
}

// Progress is optionally implemented by mutators that know how far along
// they are. Total returns -1 when the candidate stream is unbounded.
type Progress interface {
	Iteration() int
	Total() int
}

// DriverFactory constructs a Driver bound to inst and mut.
type DriverFactory func(options string, inst Instrumentation, mut Mutator) (Driver, error)

// InstrumentationFactory constructs an Instrumentation, resuming from state
// when it is non-nil.
type InstrumentationFactory func(options string, state []byte) (Instrumentation, error)

// MutatorFactory constructs a Mutator over seed, resuming from state when it
// is non-nil.
type MutatorFactory func(options string, state []byte, seed []byte) (Mutator, error)

// InputSizer is optionally implemented by mutators to report the size of
// their seed, which drivers use to size the mutation buffer.
type InputSizer interface {
	InputSize() int
}
