// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package instrumentation

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

func TestClassify(t *testing.T) {
	opts := outcomeOptions{CrashCodes: []int{500, 139}}
	tests := []struct {
		name string
		run  fuzz.Run
		want fuzz.Outcome
	}{
		{"clean exit", fuzz.Run{ExitCode: 0}, fuzz.Normal},
		{"nonzero exit", fuzz.Run{ExitCode: 1}, fuzz.Normal},
		{"crash code", fuzz.Run{ExitCode: 500}, fuzz.Crash},
		{"signal", fuzz.Run{ExitCode: -1, Signal: syscall.SIGSEGV}, fuzz.Crash},
		{"timeout wins", fuzz.Run{ExitCode: 500, TimedOut: true}, fuzz.Hang},
		{"transport error", fuzz.Run{Err: errors.New("refused")}, fuzz.Normal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.classify(&tt.run))
		})
	}

	opts.CrashOnError = true
	assert.Equal(t, fuzz.Crash, opts.classify(&fuzz.Run{Err: errors.New("reset")}))
}

func TestReturnCode(t *testing.T) {
	i, err := NewReturnCode(`{"crash_codes": [2]}`, nil)
	require.NoError(t, err)

	_, err = i.IsNewPath()
	require.ErrorIs(t, err, fuzz.ErrNoRun)

	require.NoError(t, i.Observe(&fuzz.Run{ExitCode: 2}))
	v, err := i.IsNewPath()
	require.NoError(t, err)
	assert.Equal(t, fuzz.Verdict{Outcome: fuzz.Crash}, v)

	_, err = i.State()
	assert.ErrorIs(t, err, fuzz.ErrNoState)
}

func TestOutputHash_NoveltyAndStability(t *testing.T) {
	i, err := NewOutputHash("", nil)
	require.NoError(t, err)

	_, err = i.IsNewPath()
	require.ErrorIs(t, err, fuzz.ErrNoRun)

	require.NoError(t, i.Observe(&fuzz.Run{Output: []byte("a")}))
	v, err := i.IsNewPath()
	require.NoError(t, err)
	assert.True(t, v.NewPath)

	again, err := i.IsNewPath()
	require.NoError(t, err)
	assert.Equal(t, v, again, "repeated classification of one run must agree")

	require.NoError(t, i.Observe(&fuzz.Run{Output: []byte("a")}))
	v, _ = i.IsNewPath()
	assert.False(t, v.NewPath)

	require.NoError(t, i.Observe(&fuzz.Run{Output: []byte("a"), ExitCode: 3}))
	v, _ = i.IsNewPath()
	assert.True(t, v.NewPath, "exit code is part of the signature")
}

func TestOutputHash_IgnoreOutput(t *testing.T) {
	i, err := NewOutputHash(`ignore_output: true`, nil)
	require.NoError(t, err)

	require.NoError(t, i.Observe(&fuzz.Run{Output: []byte("a")}))
	require.NoError(t, i.Observe(&fuzz.Run{Output: []byte("b")}))
	v, _ := i.IsNewPath()
	assert.False(t, v.NewPath)
}

func TestOutputHash_CrashCanBeNovel(t *testing.T) {
	i, err := NewOutputHash(`crash_codes: [7]`, nil)
	require.NoError(t, err)
	require.NoError(t, i.Observe(&fuzz.Run{ExitCode: 7}))
	v, _ := i.IsNewPath()
	assert.Equal(t, fuzz.Verdict{Outcome: fuzz.Crash, NewPath: true}, v)
}

func TestOutputHash_StateRoundTrip(t *testing.T) {
	i, err := NewOutputHash("", nil)
	require.NoError(t, err)
	for _, out := range []string{"x", "y", "z"} {
		require.NoError(t, i.Observe(&fuzz.Run{Output: []byte(out)}))
	}
	state, err := i.State()
	require.NoError(t, err)

	resumed, err := NewOutputHash("", state)
	require.NoError(t, err)
	require.NoError(t, resumed.Observe(&fuzz.Run{Output: []byte("y")}))
	v, _ := resumed.IsNewPath()
	assert.False(t, v.NewPath, "signatures seen before the snapshot stay known")

	again, err := resumed.State()
	require.NoError(t, err)
	assert.JSONEq(t, string(state), string(again))
}

func TestOutputHash_BadState(t *testing.T) {
	_, err := NewOutputHash("", []byte("{"))
	assert.ErrorIs(t, err, fuzz.ErrInvalidState)
}
