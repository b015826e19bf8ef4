// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package engine runs the fuzz loop: it wires one driver, instrumentation
// and mutator together, executes a bounded number of candidates, triages
// interesting ones into the corpus and persists plugin state on exit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fuzzbee/fuzzbee/pkg/config"
	"github.com/fuzzbee/fuzzbee/pkg/corpus"
	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// progressEvery is how often, in iterations, progress is logged at debug.
const progressEvery = 1000

// Resolver constructs plugins by name.
type Resolver interface {
	NewInstrumentation(name, options string, state []byte) (fuzz.Instrumentation, error)
	NewMutator(name, options string, state, seed []byte) (fuzz.Mutator, error)
	NewDriver(name, options string, inst fuzz.Instrumentation, mut fuzz.Mutator) (fuzz.Driver, error)
}

// StopReason says why the loop ended.
type StopReason string

const (
	StopCompleted   StopReason = "completed"
	StopExhausted   StopReason = "exhausted"
	StopInterrupted StopReason = "interrupted"
	StopAborted     StopReason = "aborted"
)

// Summary describes a finished run.
type Summary struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Output       string        `json:"output" yaml:"output"`
	Iterations   int           `json:"iterations" yaml:"iterations"`
	Crashes      int           `json:"crashes" yaml:"crashes"`
	Hangs        int           `json:"hangs" yaml:"hangs"`
	NewPaths     int           `json:"new_paths" yaml:"new_paths"`
	Duplicates   int           `json:"duplicates" yaml:"duplicates"`
	SaveFailures int           `json:"save_failures" yaml:"save_failures"`
	Stop         StopReason    `json:"stop" yaml:"stop"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Engine owns one fuzzing run.
type Engine struct {
	cfg    config.FuzzConfig
	corpus *corpus.Corpus

	inst fuzz.Instrumentation
	mut  fuzz.Mutator
	drv  fuzz.Driver

	// rollback is the mutator state from before an interrupted candidate.
	rollback  []byte
	noMutSnap bool

	runID  string
	logger zerolog.Logger
	closed bool
}

// Setup validates cfg and builds everything a run needs. Plugins are
// constructed in the order instrumentation, mutator, driver. On failure
// whatever was already built is released and the error wraps ErrSetup.
func Setup(ctx context.Context, cfg config.FuzzConfig, r Resolver) (_ *Engine, err error) {
	runID := uuid.NewString()
	e := &Engine{
		cfg:    cfg,
		runID:  runID,
		logger: log.With().Str("component", "engine").Str("run_id", runID).Logger(),
	}
	defer func() {
		if err != nil {
			if cerr := e.Close(); cerr != nil {
				e.logger.Warn().Err(cerr).Msg("Cleanup after failed setup")
			}
			err = WithErrorCode(fmt.Errorf("%w: %w", ErrSetup, err), errorCodeSetupFailed)
		}
	}()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, path := range []string{cfg.InstrumentationStateDump, cfg.MutatorStateDump} {
		if err := checkWritable(path); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.corpus, err = corpus.Open(cfg.Output); err != nil {
		return nil, err
	}

	instState, err := readStateFile("instrumentation", cfg.InstrumentationStateLoad)
	if err != nil {
		return nil, err
	}
	if e.inst, err = r.NewInstrumentation(cfg.Instrumentation, cfg.InstrumentationOptions, instState); err != nil {
		return nil, err
	}

	seed, err := os.ReadFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("seed file %s is empty", cfg.SeedFile)
	}
	mutState, err := mutatorState(cfg)
	if err != nil {
		return nil, err
	}
	if e.mut, err = r.NewMutator(cfg.Mutator, cfg.MutatorOptions, mutState, seed); err != nil {
		return nil, err
	}

	if e.drv, err = r.NewDriver(cfg.Driver, cfg.DriverOptions, e.inst, e.mut); err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("driver", cfg.Driver).
		Str("instrumentation", cfg.Instrumentation).
		Str("mutator", cfg.Mutator).
		Int("seed_size", len(seed)).
		Bool("resumed_instrumentation", instState != nil).
		Bool("resumed_mutator", mutState != nil).
		Msg("Fuzzer initialized")
	return e, nil
}

// Run executes up to cfg.Iterations candidates. It stops early when the
// mutator is exhausted or ctx is canceled, neither of which is an error.
// A driver or instrumentation failure aborts the loop with ErrAborted.
// Plugin state is persisted on every path out of Run.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: e.runID, Output: e.corpus.Root(), Stop: StopCompleted}
	var runErr error

loop:
	for i := 1; i <= e.cfg.Iterations; i++ {
		if ctx.Err() != nil {
			sum.Stop = StopInterrupted
			break
		}

		snapshot := e.snapshotMutator()
		if err := e.drv.TestNextInput(ctx); err != nil {
			switch {
			case fuzz.IsExhausted(err):
				e.logger.Warn().Int("iteration", i).Msg("Mutator exhausted, stopping")
				sum.Stop = StopExhausted
			case ctx.Err() != nil && errors.Is(err, ctx.Err()):
				// The candidate never completed; resume from it.
				e.rollback = snapshot
				sum.Stop = StopInterrupted
			default:
				e.logger.Error().Err(err).Int("iteration", i).Msg("Test input failed")
				sum.Stop = StopAborted
				runErr = WithErrorCode(fmt.Errorf("%w: iteration %d: %w", ErrAborted, i, err), errorCodeRunAborted)
			}
			break loop
		}
		sum.Iterations++

		verdict, err := e.inst.IsNewPath()
		if err != nil {
			e.logger.Error().Err(err).Int("iteration", i).Msg("Classify run failed")
			sum.Stop = StopAborted
			runErr = WithErrorCode(fmt.Errorf("%w: iteration %d: classify: %w", ErrAborted, i, err), errorCodeRunAborted)
			break
		}
		e.triage(verdict, &sum)
		e.logProgress(i)
	}

	if sum.Stop == StopInterrupted {
		e.logger.Warn().Int("iterations", sum.Iterations).Msg("Interrupted, stopping")
	}
	sum.Elapsed = time.Since(start)
	e.logger.Info().
		Int("iterations", sum.Iterations).
		Dur("elapsed", sum.Elapsed).
		Msgf("Ran %d iterations in %s", sum.Iterations, sum.Elapsed.Round(time.Millisecond))

	e.persistState()
	return sum, runErr
}

func (e *Engine) triage(v fuzz.Verdict, sum *Summary) {
	if v.Outcome == fuzz.Error {
		e.logger.Warn().Bool("new_path", v.NewPath).Msg("Instrumentation reported a harness error")
	}
	cat, ok := corpus.CategoryFor(v)
	if !ok {
		return
	}
	input := e.drv.LastInput()
	if input == nil {
		sum.SaveFailures++
		e.logger.Error().Str("category", string(cat)).Msg("Driver returned no input for the finding")
		return
	}
	f, written, err := e.corpus.Save(cat, input)
	switch {
	case err != nil:
		sum.SaveFailures++
		e.logger.Warn().Err(err).Str("category", string(cat)).Msg("Could not save finding")
		return
	case !written:
		sum.Duplicates++
		e.logger.Debug().Str("category", string(cat)).Str("hash", f.Hash).Msg("Finding already recorded")
		return
	}

	switch cat {
	case corpus.Crashes:
		sum.Crashes++
	case corpus.Hangs:
		sum.Hangs++
	case corpus.NewPaths:
		sum.NewPaths++
	}
	e.logger.Info().Str("category", string(cat)).Str("path", f.Path).Msg("New finding")
}

func (e *Engine) logProgress(i int) {
	if i%progressEvery != 0 {
		return
	}
	ev := e.logger.Debug().Int("iteration", i).Int("of", e.cfg.Iterations)
	if p, ok := e.mut.(fuzz.Progress); ok {
		ev = ev.Int("mutator_iteration", p.Iteration()).Int("mutator_total", p.Total())
	}
	ev.Msg("Progress")
}

// snapshotMutator returns the mutator state when it will be dumped, so an
// interrupted candidate can be replayed on resume.
func (e *Engine) snapshotMutator() []byte {
	if e.cfg.MutatorStateDump == "" || e.noMutSnap {
		return nil
	}
	data, err := e.mut.State()
	if err != nil {
		e.noMutSnap = true
		return nil
	}
	return data
}

// persistState writes plugin state to the configured dump paths. Every
// failure is a warning.
func (e *Engine) persistState() {
	save := func(what, path string, state func() ([]byte, error)) {
		if path == "" {
			return
		}
		data, err := state()
		if err != nil {
			if errors.Is(err, fuzz.ErrNoState) {
				e.logger.Warn().Str("plugin", what).Msg("Plugin does not support saving state")
			} else {
				e.logger.Warn().Err(err).Str("plugin", what).Msg("Could not serialize state")
			}
			return
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			e.logger.Warn().Err(err).Str("plugin", what).Str("path", path).Msg("Could not write state")
			return
		}
		e.logger.Debug().Str("plugin", what).Str("path", path).Int("bytes", len(data)).Msg("State saved")
	}

	save("instrumentation", e.cfg.InstrumentationStateDump, e.inst.State)
	mutState := e.mut.State
	if e.rollback != nil {
		mutState = func() ([]byte, error) { return e.rollback, nil }
	}
	save("mutator", e.cfg.MutatorStateDump, mutState)
}

// Close releases the driver, instrumentation and mutator, in that order,
// then the output directory. It is safe to call more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	if e.drv != nil {
		errs = append(errs, wrapClose("driver", e.drv.Close()))
	}
	if e.inst != nil {
		errs = append(errs, wrapClose("instrumentation", e.inst.Close()))
	}
	if e.mut != nil {
		errs = append(errs, wrapClose("mutator", e.mut.Close()))
	}
	if e.corpus != nil {
		errs = append(errs, wrapClose("output directory", e.corpus.Close()))
	}
	return errors.Join(errs...)
}

func wrapClose(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("close %s: %w", what, err)
}

// checkWritable fails unless a file can be created next to path.
func checkWritable(path string) error {
	if path == "" {
		return nil
	}
	probe, err := os.CreateTemp(filepath.Dir(path), ".fuzzbee-probe-*")
	if err != nil {
		return fmt.Errorf("state dump path %s is not writable: %w", path, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

func readStateFile(what, path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s state: %w", what, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s state file %s is empty", what, path)
	}
	return data, nil
}

// mutatorState prefers the state file over the inline state.
func mutatorState(cfg config.FuzzConfig) ([]byte, error) {
	if cfg.MutatorStateLoad != "" {
		return readStateFile("mutator", cfg.MutatorStateLoad)
	}
	if cfg.MutatorState != "" {
		return []byte(cfg.MutatorState), nil
	}
	return nil, nil
}
