// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package instrumentation

import (
	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const returncodeHelp = `returncode - classifies runs by how the target ended

Hang when the deadline expired, crash when the target was killed by a signal
or exited with one of crash_codes. Never reports new paths. Stateless.

Options (YAML or JSON):
  crash_codes      exit codes treated as crashes (default none)
  crash_on_error   treat transport errors as crashes (default false)`

// ReturnCode is a stateless classifier.
type ReturnCode struct {
	opts outcomeOptions
	last *fuzz.Run
}

// NewReturnCode implements fuzz.InstrumentationFactory. Any state is
// ignored.
func NewReturnCode(options string, _ []byte) (fuzz.Instrumentation, error) {
	i := &ReturnCode{}
	if err := fuzz.DecodeOptions(options, &i.opts); err != nil {
		return nil, err
	}
	return i, nil
}

// Observe implements fuzz.Instrumentation.
func (i *ReturnCode) Observe(run *fuzz.Run) error {
	i.last = run
	return nil
}

// IsNewPath implements fuzz.Instrumentation.
func (i *ReturnCode) IsNewPath() (fuzz.Verdict, error) {
	if i.last == nil {
		return fuzz.Verdict{}, fuzz.ErrNoRun
	}
	return fuzz.Verdict{Outcome: i.opts.classify(i.last)}, nil
}

// State implements fuzz.Instrumentation.
func (i *ReturnCode) State() ([]byte, error) { return nil, fuzz.ErrNoState }

// Close implements fuzz.Instrumentation.
func (i *ReturnCode) Close() error { return nil }

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:               plugin.KindInstrumentation,
		Name:               "returncode",
		APIVersion:         plugin.APIVersion,
		Help:               returncodeHelp,
		NewInstrumentation: NewReturnCode,
	})
}
