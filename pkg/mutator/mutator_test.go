// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package mutator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

func newBuf(t *testing.T) *fuzz.Buffer {
	t.Helper()
	buf, err := fuzz.NewBuffer(16, 2)
	require.NoError(t, err)
	return buf
}

// drain collects n candidates, failing if the mutator stops early.
func drain(t *testing.T, m fuzz.Mutator, n int) [][]byte {
	t.Helper()
	buf := newBuf(t)
	out := make([][]byte, 0, n)
	for range n {
		require.NoError(t, m.Mutate(buf))
		out = append(out, buf.Clone())
	}
	return out
}

func TestBuiltinsRegistered(t *testing.T) {
	for _, name := range []string{"nop", "bitflip", "havoc"} {
		d, ok := plugin.Builtins().Lookup(plugin.KindMutator, name)
		require.True(t, ok, name)
		assert.NotEmpty(t, d.Help)
	}
}

func TestNop_ExhaustsAfterCount(t *testing.T) {
	m, err := NewNop(`{"count": 2}`, nil, []byte("AAAA"))
	require.NoError(t, err)
	buf := newBuf(t)

	require.NoError(t, m.Mutate(buf))
	assert.Equal(t, []byte("AAAA"), buf.Bytes())
	require.NoError(t, m.Mutate(buf))
	for range 3 {
		assert.ErrorIs(t, m.Mutate(buf), fuzz.ErrExhausted)
	}
}

func TestNop_UnboundedByDefault(t *testing.T) {
	m, err := NewNop("", nil, []byte("x"))
	require.NoError(t, err)
	drain(t, m, 100)
	assert.Equal(t, -1, m.(fuzz.Progress).Total())
}

func TestBitflip_WalksEveryBitThenExhausts(t *testing.T) {
	m, err := NewBitflip("", nil, []byte{0x00})
	require.NoError(t, err)

	got := drain(t, m, 8)
	for i, c := range got {
		assert.Equal(t, []byte{0x80 >> i}, c)
	}

	buf := newBuf(t)
	for range 3 {
		assert.ErrorIs(t, m.Mutate(buf), fuzz.ErrExhausted)
	}
	p := m.(fuzz.Progress)
	assert.Equal(t, 8, p.Iteration())
	assert.Equal(t, 8, p.Total())
}

func TestBitflip_EmptySeedIsExhausted(t *testing.T) {
	m, err := NewBitflip("", nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Mutate(newBuf(t)), fuzz.ErrExhausted)
}

func TestBitflip_RejectsOptions(t *testing.T) {
	_, err := NewBitflip(`{"bogus": true}`, nil, []byte("a"))
	assert.ErrorIs(t, err, fuzz.ErrInvalidOptions)
}

// A mutator resumed from its state continues exactly where the original
// left off.
func TestStateRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		factory fuzz.MutatorFactory
		options string
	}{
		{"nop", NewNop, `{"count": 10}`},
		{"bitflip", NewBitflip, ""},
		{"havoc", NewHavoc, `{"seed": 42}`},
	}
	seed := []byte("hello")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.factory(tt.options, nil, seed)
			require.NoError(t, err)
			drain(t, m, 3)

			state, err := m.State()
			require.NoError(t, err)
			expected := drain(t, m, 3)

			resumed, err := tt.factory(tt.options, state, seed)
			require.NoError(t, err)
			assert.Equal(t, expected, drain(t, resumed, 3))
		})
	}
}

func TestStateRejectsGarbage(t *testing.T) {
	for _, f := range []fuzz.MutatorFactory{NewNop, NewBitflip, NewHavoc} {
		_, err := f("", []byte("not json"), []byte("a"))
		assert.ErrorIs(t, err, fuzz.ErrInvalidState)
	}
}

func TestHavoc_DeterministicPerSeed(t *testing.T) {
	a, err := NewHavoc(`{"seed": 7}`, nil, []byte("AAAAAAAA"))
	require.NoError(t, err)
	b, err := NewHavoc(`{"seed": 7}`, nil, []byte("AAAAAAAA"))
	require.NoError(t, err)
	assert.Equal(t, drain(t, a, 50), drain(t, b, 50))
}

func TestHavoc_RespectsMaxSize(t *testing.T) {
	m, err := NewHavoc(`{"seed": 1, "max_size": 6, "stack": 32}`, nil, []byte("AAAA"))
	require.NoError(t, err)
	for _, c := range drain(t, m, 200) {
		assert.LessOrEqual(t, len(c), 6)
		assert.NotEmpty(t, c)
	}
}

func TestHavoc_GrowsFromEmptySeed(t *testing.T) {
	m, err := NewHavoc(`{"seed": 3}`, nil, nil)
	require.NoError(t, err)
	c := drain(t, m, 1)[0]
	assert.NotEmpty(t, c)
}

func TestHavoc_PicksSeedWhenUnset(t *testing.T) {
	m, err := NewHavoc("", nil, []byte("x"))
	require.NoError(t, err)
	assert.NotZero(t, m.(*Havoc).state.RNGSeed)
}

func TestHavoc_RejectsBadStack(t *testing.T) {
	_, err := NewHavoc(`{"stack": 0}`, nil, []byte("x"))
	assert.ErrorIs(t, err, fuzz.ErrInvalidOptions)
}
