// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package driver holds the generic helpers every driver composes and the
// built-in driver strategies.
package driver

import (
	"context"
	"fmt"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// defaultInputSize sizes the mutation buffer when the mutator cannot report
// its seed size.
const defaultInputSize = 4096

// TestFunc executes the target with exactly input.
type TestFunc func(ctx context.Context, input []byte) error

// TestNextInput asks mut to overwrite buf with the next candidate, records its
// size in lastSize and runs test on it. Mutator exhaustion is returned as
// fuzz.ErrExhausted without running test.
func TestNextInput(ctx context.Context, mut fuzz.Mutator, buf *fuzz.Buffer, test TestFunc, lastSize *int) error {
	if err := mut.Mutate(buf); err != nil {
		if fuzz.IsExhausted(err) {
			return err
		}
		return fmt.Errorf("mutate next input: %w", err)
	}
	if lastSize != nil {
		*lastSize = buf.Len()
	}
	return test(ctx, buf.Bytes())
}

// SetupBuffer allocates the mutation buffer for mut, reserving ratio times
// the seed size reported by the mutator.
func SetupBuffer(mut fuzz.Mutator, ratio float64) (*fuzz.Buffer, error) {
	size := defaultInputSize
	if s, ok := mut.(fuzz.InputSizer); ok && s.InputSize() > 0 {
		size = s.InputSize()
	}
	return fuzz.NewBuffer(size, ratio)
}

// executeFunc runs one candidate and reports what happened.
type executeFunc func(ctx context.Context, input []byte) (*fuzz.Run, error)

// harness implements the parts of fuzz.Driver that are the same for every
// built-in driver: candidate bookkeeping, mutate-then-test sequencing and
// handing the run to the instrumentation.
type harness struct {
	inst fuzz.Instrumentation
	mut  fuzz.Mutator

	buf      *fuzz.Buffer
	lastSize int
	executed bool

	execute executeFunc
}

func newHarness(inst fuzz.Instrumentation, mut fuzz.Mutator, ratio float64, execute executeFunc) (*harness, error) {
	if inst == nil || mut == nil {
		return nil, fmt.Errorf("driver requires an instrumentation and a mutator")
	}
	buf, err := SetupBuffer(mut, ratio)
	if err != nil {
		return nil, err
	}
	return &harness{inst: inst, mut: mut, buf: buf, execute: execute}, nil
}

// TestInput implements fuzz.Driver.
func (h *harness) TestInput(ctx context.Context, input []byte) error {
	h.buf.SetBytes(input)
	h.lastSize = h.buf.Len()
	h.executed = true

	run, err := h.execute(ctx, h.buf.Bytes())
	if err != nil {
		return err
	}
	if err := h.inst.Observe(run); err != nil {
		return fmt.Errorf("observe run: %w", err)
	}
	return nil
}

// TestNextInput implements fuzz.Driver.
func (h *harness) TestNextInput(ctx context.Context) error {
	return TestNextInput(ctx, h.mut, h.buf, h.TestInput, &h.lastSize)
}

// LastInput implements fuzz.Driver.
func (h *harness) LastInput() []byte {
	if !h.executed {
		return nil
	}
	out := make([]byte, h.lastSize)
	copy(out, h.buf.Bytes()[:h.lastSize])
	return out
}
