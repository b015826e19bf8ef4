// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package mutator

import (
	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const bitflipHelp = `bitflip - flips each bit of the seed once, most significant bit first

Takes no options. Produces len(seed)*8 candidates, then exhausts.

State: {"position": N}, the index of the next bit to flip`

type bitflipState struct {
	Position int `json:"position"`
}

// Bitflip walks the seed one bit at a time.
type Bitflip struct {
	seeded
	state bitflipState
}

// NewBitflip implements fuzz.MutatorFactory.
func NewBitflip(options string, state []byte, seed []byte) (fuzz.Mutator, error) {
	var opts struct{}
	if err := fuzz.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	m := &Bitflip{seeded: newSeeded(seed)}
	if err := decodeState(state, &m.state); err != nil {
		return nil, err
	}
	if m.state.Position < 0 {
		return nil, fuzz.ErrInvalidState
	}
	return m, nil
}

// Mutate implements fuzz.Mutator.
func (m *Bitflip) Mutate(buf *fuzz.Buffer) error {
	if m.state.Position >= m.Total() {
		return fuzz.ErrExhausted
	}
	buf.SetBytes(m.seed)
	pos := m.state.Position
	buf.Bytes()[pos/8] ^= 0x80 >> (pos % 8)
	m.state.Position++
	return nil
}

// State implements fuzz.Mutator.
func (m *Bitflip) State() ([]byte, error) { return encodeState(m.state) }

// Iteration implements fuzz.Progress.
func (m *Bitflip) Iteration() int { return min(m.state.Position, m.Total()) }

// Total implements fuzz.Progress.
func (m *Bitflip) Total() int { return len(m.seed) * 8 }

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:       plugin.KindMutator,
		Name:       "bitflip",
		APIVersion: plugin.APIVersion,
		Help:       bitflipHelp,
		NewMutator: NewBitflip,
	})
}
