// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ErrNotStarted is returned by WaitForProcess for a command that was never
// started.
var ErrNotStarted = errors.New("process not started")

// ProcessResult describes how a child process ended.
type ProcessResult struct {
	ExitCode int
	// Signal is set when the child was terminated by a signal it did not
	// receive from us.
	Signal   os.Signal
	TimedOut bool
	Duration time.Duration
}

// WaitForProcess blocks until the started cmd exits or start+timeout has
// elapsed, whichever comes first. On deadline the child is killed and reaped
// before returning, and the result is marked TimedOut. A non-positive timeout
// waits indefinitely. Cancelling ctx kills the child as well and returns
// ctx.Err().
//
// When WaitForProcess returns, the child no longer exists.
func WaitForProcess(ctx context.Context, cmd *exec.Cmd, start time.Time, timeout time.Duration) (ProcessResult, error) {
	if cmd == nil || cmd.Process == nil {
		return ProcessResult{}, ErrNotStarted
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(max(time.Until(start.Add(timeout)), 0))
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-done:
		return exitResult(cmd, err, start)

	case <-deadline:
		killAndReap(cmd, done)
		return ProcessResult{
			ExitCode: -1,
			TimedOut: true,
			Duration: time.Since(start),
		}, nil

	case <-ctx.Done():
		killAndReap(cmd, done)
		return ProcessResult{ExitCode: -1, Duration: time.Since(start)}, ctx.Err()
	}
}

func killAndReap(cmd *exec.Cmd, done <-chan error) {
	// Kill fails only when the process already exited; Wait reaps it either way.
	_ = cmd.Process.Kill()
	<-done
}

func exitResult(cmd *exec.Cmd, waitErr error, start time.Time) (ProcessResult, error) {
	res := ProcessResult{Duration: time.Since(start), ExitCode: -1}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return res, fmt.Errorf("wait for target: %w", waitErr)
	}

	state := cmd.ProcessState
	if state == nil {
		return res, fmt.Errorf("wait for target: missing process state")
	}
	res.ExitCode = state.ExitCode()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		res.Signal = ws.Signal()
	}
	return res, nil
}
