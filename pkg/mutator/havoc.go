// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package mutator

import (
	"math/rand/v2"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const havocHelp = `havoc - stacks random byte operations on the seed

Options (YAML or JSON):
  seed       PRNG seed, 0 picks one at random (default 0)
  max_size   upper bound on candidate size, 0 for 4x the seed (default 0)
  stack      maximum operations per candidate (default 8)

Operations: bit flip, random byte, interesting byte, insert, delete.
Every candidate is derived from the seed alone, so a resumed run replays
the same sequence. Never exhausts.

State: {"rng_seed": N, "iteration": N}`

const minHavocSize = 64

var interestingBytes = []byte{0x00, 0x01, 0x7f, 0x80, 0xff, '%', '\'', '"', '\n'}

type havocOptions struct {
	Seed    uint64 `yaml:"seed"`
	MaxSize int    `yaml:"max_size" validate:"gte=0"`
	Stack   int    `yaml:"stack" validate:"gte=1,lte=256"`
}

type havocState struct {
	RNGSeed   uint64 `json:"rng_seed"`
	Iteration uint64 `json:"iteration"`
}

// Havoc applies a random stack of edits to the seed for every candidate.
type Havoc struct {
	seeded
	opts  havocOptions
	state havocState
}

// NewHavoc implements fuzz.MutatorFactory.
func NewHavoc(options string, state []byte, seed []byte) (fuzz.Mutator, error) {
	m := &Havoc{seeded: newSeeded(seed), opts: havocOptions{Stack: 8}}
	if err := fuzz.DecodeOptions(options, &m.opts); err != nil {
		return nil, err
	}
	if m.opts.MaxSize == 0 {
		m.opts.MaxSize = max(len(seed)*4, minHavocSize)
	}

	m.state.RNGSeed = m.opts.Seed
	if m.state.RNGSeed == 0 {
		m.state.RNGSeed = rand.Uint64()
	}
	if err := decodeState(state, &m.state); err != nil {
		return nil, err
	}
	return m, nil
}

// Mutate implements fuzz.Mutator.
func (m *Havoc) Mutate(buf *fuzz.Buffer) error {
	rng := rand.New(rand.NewPCG(m.state.RNGSeed, m.state.Iteration))
	m.state.Iteration++

	buf.SetBytes(m.seed)
	if len(m.seed) > m.opts.MaxSize {
		buf.Resize(m.opts.MaxSize)
	}

	ops := 1 + rng.IntN(m.opts.Stack)
	for range ops {
		m.apply(rng, buf)
	}
	return nil
}

func (m *Havoc) apply(rng *rand.Rand, buf *fuzz.Buffer) {
	n := buf.Len()
	if n == 0 {
		m.insert(rng, buf)
		return
	}

	switch rng.IntN(5) {
	case 0:
		bit := rng.IntN(n * 8)
		buf.Bytes()[bit/8] ^= 0x80 >> (bit % 8)
	case 1:
		buf.Bytes()[rng.IntN(n)] = byte(rng.UintN(256))
	case 2:
		buf.Bytes()[rng.IntN(n)] = interestingBytes[rng.IntN(len(interestingBytes))]
	case 3:
		m.insert(rng, buf)
	case 4:
		if n == 1 {
			return
		}
		pos := rng.IntN(n)
		b := buf.Bytes()
		copy(b[pos:], b[pos+1:])
		buf.Resize(n - 1)
	}
}

func (m *Havoc) insert(rng *rand.Rand, buf *fuzz.Buffer) {
	n := buf.Len()
	if n >= m.opts.MaxSize {
		return
	}
	pos := rng.IntN(n + 1)
	buf.Resize(n + 1)
	b := buf.Bytes()
	copy(b[pos+1:], b[pos:n])
	b[pos] = byte(rng.UintN(256))
}

// State implements fuzz.Mutator.
func (m *Havoc) State() ([]byte, error) { return encodeState(m.state) }

// Iteration implements fuzz.Progress.
func (m *Havoc) Iteration() int { return int(m.state.Iteration) }

// Total implements fuzz.Progress.
func (m *Havoc) Total() int { return -1 }

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:       plugin.KindMutator,
		Name:       "havoc",
		APIVersion: plugin.APIVersion,
		Help:       havocHelp,
		NewMutator: NewHavoc,
	})
}
