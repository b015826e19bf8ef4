// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package mutator

import (
	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const nopHelp = `nop - yields the seed unchanged

Options (YAML or JSON):
  count   number of candidates before exhaustion, 0 for unbounded (default 0)

State: {"iteration": N}`

type nopOptions struct {
	Count int `yaml:"count" validate:"gte=0"`
}

type nopState struct {
	Iteration int `json:"iteration"`
}

// Nop repeats the seed. It is useful to measure target stability and to
// replay a single input.
type Nop struct {
	seeded
	opts  nopOptions
	state nopState
}

// NewNop implements fuzz.MutatorFactory.
func NewNop(options string, state []byte, seed []byte) (fuzz.Mutator, error) {
	m := &Nop{seeded: newSeeded(seed)}
	if err := fuzz.DecodeOptions(options, &m.opts); err != nil {
		return nil, err
	}
	if err := decodeState(state, &m.state); err != nil {
		return nil, err
	}
	return m, nil
}

// Mutate implements fuzz.Mutator.
func (m *Nop) Mutate(buf *fuzz.Buffer) error {
	if m.opts.Count > 0 && m.state.Iteration >= m.opts.Count {
		return fuzz.ErrExhausted
	}
	buf.SetBytes(m.seed)
	m.state.Iteration++
	return nil
}

// State implements fuzz.Mutator.
func (m *Nop) State() ([]byte, error) { return encodeState(m.state) }

// Iteration implements fuzz.Progress.
func (m *Nop) Iteration() int { return m.state.Iteration }

// Total implements fuzz.Progress.
func (m *Nop) Total() int {
	if m.opts.Count == 0 {
		return -1
	}
	return m.opts.Count
}

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:       plugin.KindMutator,
		Name:       "nop",
		APIVersion: plugin.APIVersion,
		Help:       nopHelp,
		NewMutator: NewNop,
	})
}
