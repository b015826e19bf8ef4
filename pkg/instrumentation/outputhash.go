// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package instrumentation

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"syscall"

	"github.com/cespare/xxhash/v2"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const outputhashHelp = `outputhash - treats every distinct observable behaviour as a new path

A run's signature is the xxhash of its exit code, terminating signal and
output. A signature not seen before is a new path. Hangs and crashes are
classified as for returncode.

Options (YAML or JSON):
  crash_codes      exit codes treated as crashes (default none)
  crash_on_error   treat transport errors as crashes (default false)
  ignore_output    hash only exit code and signal (default false)

State: {"signatures": [...]}, sorted`

type outputhashOptions struct {
	outcomeOptions `yaml:",inline"`
	IgnoreOutput   bool `yaml:"ignore_output"`
}

type outputhashState struct {
	Signatures []uint64 `json:"signatures"`
}

// OutputHash tracks the set of run signatures seen so far.
type OutputHash struct {
	opts outputhashOptions
	seen map[uint64]struct{}

	observed bool
	verdict  fuzz.Verdict
}

// NewOutputHash implements fuzz.InstrumentationFactory.
func NewOutputHash(options string, state []byte) (fuzz.Instrumentation, error) {
	i := &OutputHash{seen: make(map[uint64]struct{})}
	if err := fuzz.DecodeOptions(options, &i.opts); err != nil {
		return nil, err
	}
	if state != nil {
		var s outputhashState
		if err := json.Unmarshal(state, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", fuzz.ErrInvalidState, err)
		}
		for _, sig := range s.Signatures {
			i.seen[sig] = struct{}{}
		}
	}
	return i, nil
}

// Observe implements fuzz.Instrumentation. The verdict is settled here so
// that repeated IsNewPath calls agree.
func (i *OutputHash) Observe(run *fuzz.Run) error {
	sig := i.signature(run)
	_, known := i.seen[sig]
	i.seen[sig] = struct{}{}

	i.observed = true
	i.verdict = fuzz.Verdict{Outcome: i.opts.classify(run), NewPath: !known}
	return nil
}

func (i *OutputHash) signature(run *fuzz.Run) uint64 {
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(int64(run.ExitCode)))
	if sig, ok := run.Signal.(syscall.Signal); ok {
		binary.LittleEndian.PutUint64(hdr[8:], uint64(sig))
	} else if run.Signal != nil {
		hdr[8] = 0xff
	}

	d := xxhash.New()
	_, _ = d.Write(hdr[:])
	if run.TimedOut {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}
	if !i.opts.IgnoreOutput {
		_, _ = d.Write(run.Output)
	}
	return d.Sum64()
}

// IsNewPath implements fuzz.Instrumentation.
func (i *OutputHash) IsNewPath() (fuzz.Verdict, error) {
	if !i.observed {
		return fuzz.Verdict{}, fuzz.ErrNoRun
	}
	return i.verdict, nil
}

// State implements fuzz.Instrumentation.
func (i *OutputHash) State() ([]byte, error) {
	s := outputhashState{Signatures: make([]uint64, 0, len(i.seen))}
	for sig := range i.seen {
		s.Signatures = append(s.Signatures, sig)
	}
	slices.Sort(s.Signatures)
	return json.Marshal(s)
}

// Close implements fuzz.Instrumentation.
func (i *OutputHash) Close() error { return nil }

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:               plugin.KindInstrumentation,
		Name:               "outputhash",
		APIVersion:         plugin.APIVersion,
		Help:               outputhashHelp,
		NewInstrumentation: NewOutputHash,
	})
}
