// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// scriptedMutator yields its candidates in order, then exhausts.
type scriptedMutator struct {
	candidates [][]byte
	next       int
	err        error
}

func (m *scriptedMutator) Mutate(buf *fuzz.Buffer) error {
	if m.err != nil {
		return m.err
	}
	if m.next >= len(m.candidates) {
		return fuzz.ErrExhausted
	}
	buf.SetBytes(m.candidates[m.next])
	m.next++
	return nil
}

func (m *scriptedMutator) State() ([]byte, error) { return nil, fuzz.ErrNoState }
func (m *scriptedMutator) Close() error           { return nil }
func (m *scriptedMutator) InputSize() int         { return 4 }

// recordingInst keeps every observed run.
type recordingInst struct {
	runs []*fuzz.Run
}

func (i *recordingInst) Observe(run *fuzz.Run) error {
	i.runs = append(i.runs, run)
	return nil
}

func (i *recordingInst) IsNewPath() (fuzz.Verdict, error) {
	if len(i.runs) == 0 {
		return fuzz.Verdict{}, fuzz.ErrNoRun
	}
	return fuzz.Verdict{}, nil
}

func (i *recordingInst) State() ([]byte, error) { return nil, fuzz.ErrNoState }
func (i *recordingInst) Close() error           { return nil }

func (i *recordingInst) last() *fuzz.Run { return i.runs[len(i.runs)-1] }

func TestTestNextInput_PassesExactCandidate(t *testing.T) {
	mut := &scriptedMutator{candidates: [][]byte{[]byte("AB"), []byte("ABCDEFGHIJ")}}
	buf, err := SetupBuffer(mut, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, buf.Cap())

	var got [][]byte
	test := func(_ context.Context, input []byte) error {
		got = append(got, append([]byte(nil), input...))
		return nil
	}

	var size int
	require.NoError(t, TestNextInput(context.Background(), mut, buf, test, &size))
	assert.Equal(t, 2, size)
	require.NoError(t, TestNextInput(context.Background(), mut, buf, test, &size))
	assert.Equal(t, 10, size)
	assert.Equal(t, [][]byte{[]byte("AB"), []byte("ABCDEFGHIJ")}, got)
}

func TestTestNextInput_ExhaustionSkipsTest(t *testing.T) {
	mut := &scriptedMutator{}
	buf, err := SetupBuffer(mut, 2)
	require.NoError(t, err)

	called := false
	err = TestNextInput(context.Background(), mut, buf, func(context.Context, []byte) error {
		called = true
		return nil
	}, nil)
	require.ErrorIs(t, err, fuzz.ErrExhausted)
	assert.False(t, called)
}

func TestTestNextInput_WrapsMutatorFailure(t *testing.T) {
	boom := errors.New("boom")
	mut := &scriptedMutator{err: boom}
	buf, err := SetupBuffer(mut, 2)
	require.NoError(t, err)

	err = TestNextInput(context.Background(), mut, buf, nil, nil)
	require.ErrorIs(t, err, boom)
	assert.False(t, fuzz.IsExhausted(err))
}

func TestHarness_LastInput(t *testing.T) {
	inst := &recordingInst{}
	mut := &scriptedMutator{candidates: [][]byte{[]byte("long candidate"), []byte("x")}}
	h, err := newHarness(inst, mut, 2, func(_ context.Context, input []byte) (*fuzz.Run, error) {
		return &fuzz.Run{Input: input}, nil
	})
	require.NoError(t, err)

	assert.Nil(t, h.LastInput(), "nothing executed yet")

	require.NoError(t, h.TestNextInput(context.Background()))
	require.NoError(t, h.TestNextInput(context.Background()))
	last := h.LastInput()
	assert.Equal(t, []byte("x"), last)

	last[0] = 'y'
	assert.Equal(t, []byte("x"), h.LastInput(), "LastInput returns a copy")
	assert.Len(t, inst.runs, 2)

	require.ErrorIs(t, h.TestNextInput(context.Background()), fuzz.ErrExhausted)
	assert.Len(t, inst.runs, 2)
}

func TestHarness_TestInputBypassesMutator(t *testing.T) {
	inst := &recordingInst{}
	mut := &scriptedMutator{candidates: [][]byte{[]byte("unused")}}
	h, err := newHarness(inst, mut, 2, func(_ context.Context, input []byte) (*fuzz.Run, error) {
		return &fuzz.Run{Input: append([]byte(nil), input...)}, nil
	})
	require.NoError(t, err)

	require.NoError(t, h.TestInput(context.Background(), []byte("direct")))
	assert.Equal(t, []byte("direct"), inst.last().Input)
	assert.Equal(t, 0, mut.next)
}

func TestHarness_RequiresCollaborators(t *testing.T) {
	_, err := newHarness(nil, &scriptedMutator{}, 2, nil)
	assert.Error(t, err)
}
