// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const processHelp = `process - runs a local program once per candidate

Options (YAML or JSON):
  path        program to execute (required)
  arguments   argument list; "@@" is replaced with the candidate file path
  input       how the candidate is delivered: stdin or file (default stdin)
  timeout     per-run deadline, seconds or a duration string (default 2s)
  ratio       mutation buffer growth ratio (default 2)
  env         extra KEY=VALUE environment entries
  max_output  bytes of stdout kept for instrumentation (default 65536)`

// InputPlaceholder in process arguments is replaced by the candidate file.
const InputPlaceholder = "@@"

const (
	inputStdin = "stdin"
	inputFile  = "file"
)

type processOptions struct {
	Path      string        `yaml:"path" validate:"required"`
	Arguments []string      `yaml:"arguments"`
	Input     string        `yaml:"input" validate:"oneof=stdin file"`
	Timeout   fuzz.Duration `yaml:"timeout" validate:"gt=0"`
	Ratio     float64       `yaml:"ratio" validate:"gt=0"`
	Env       []string      `yaml:"env"`
	MaxOutput int           `yaml:"max_output" validate:"gte=0"`
}

// Process executes a local program for every candidate.
type Process struct {
	*harness
	opts   processOptions
	tmpDir string
	logger zerolog.Logger
}

// NewProcess implements fuzz.DriverFactory.
func NewProcess(options string, inst fuzz.Instrumentation, mut fuzz.Mutator) (fuzz.Driver, error) {
	opts := processOptions{
		Input:     inputStdin,
		Timeout:   fuzz.Duration(2 * time.Second),
		Ratio:     fuzz.DefaultGrowthRatio,
		MaxOutput: 64 << 10,
	}
	if err := fuzz.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	path, err := exec.LookPath(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", opts.Path, err)
	}
	opts.Path = path

	p := &Process{
		opts:   opts,
		logger: log.With().Str("component", "driver.process").Logger(),
	}
	if opts.Input == inputFile {
		if p.tmpDir, err = os.MkdirTemp("", "fuzzbee-input-"); err != nil {
			return nil, fmt.Errorf("create input directory: %w", err)
		}
	}

	if p.harness, err = newHarness(inst, mut, opts.Ratio, p.execute); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Process) execute(ctx context.Context, input []byte) (*fuzz.Run, error) {
	args := p.opts.Arguments
	var stdin *bytes.Reader

	if p.opts.Input == inputFile {
		file := filepath.Join(p.tmpDir, "cur_input")
		if err := os.WriteFile(file, input, 0o600); err != nil {
			return nil, fmt.Errorf("write candidate file: %w", err)
		}
		args = substituteInput(args, file)
	} else {
		stdin = bytes.NewReader(input)
	}

	cmd := exec.Command(p.opts.Path, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	out := &limitedBuffer{limit: p.opts.MaxOutput}
	cmd.Stdout = out
	cmd.Env = append(os.Environ(), p.opts.Env...)
	cmd.WaitDelay = 100 * time.Millisecond

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start target: %w", err)
	}
	res, err := WaitForProcess(ctx, cmd, start, p.opts.Timeout.Std())
	if err != nil {
		return nil, err
	}

	p.logger.Trace().
		Int("exit_code", res.ExitCode).
		Bool("timed_out", res.TimedOut).
		Dur("duration", res.Duration).
		Msg("Target finished")

	return &fuzz.Run{
		Input:    input,
		ExitCode: res.ExitCode,
		Signal:   res.Signal,
		TimedOut: res.TimedOut,
		Output:   out.Bytes(),
		Duration: res.Duration,
	}, nil
}

// substituteInput replaces the placeholder in args with file, appending
// file when no argument mentions the placeholder.
func substituteInput(args []string, file string) []string {
	out := make([]string, len(args))
	found := false
	for i, a := range args {
		if strings.Contains(a, InputPlaceholder) {
			found = true
			a = strings.ReplaceAll(a, InputPlaceholder, file)
		}
		out[i] = a
	}
	if !found {
		out = append(out, file)
	}
	return out
}

// Close implements fuzz.Driver.
func (p *Process) Close() error {
	if p.tmpDir == "" {
		return nil
	}
	return os.RemoveAll(p.tmpDir)
}

// limitedBuffer keeps the first limit bytes written and discards the rest.
// It has no ReadFrom, so io.Copy always goes through Write.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		b.buf.Write(p[:min(room, len(p))])
	}
	return len(p), nil
}

func (b *limitedBuffer) Bytes() []byte { return b.buf.Bytes() }

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:       plugin.KindDriver,
		Name:       "process",
		APIVersion: plugin.APIVersion,
		Help:       processHelp,
		NewDriver:  NewProcess,
	})
}
