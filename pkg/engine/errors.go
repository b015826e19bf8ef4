// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package engine

import (
	"errors"
)

const (
	errorCodeSetupFailed = "SETUP_FAILED"
	errorCodeRunAborted  = "RUN_ABORTED"
	errorCodeUnknown     = "UNKNOWN"
)

var (
	// ErrSetup indicates a run could not be initialized: bad configuration,
	// unresolvable plugin, unreadable seed or state, unwritable paths.
	ErrSetup = errors.New("fuzz setup failed")

	// ErrAborted indicates the loop stopped on a harness failure.
	ErrAborted = errors.New("fuzz run aborted")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with an error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// ErrorCode resolves an error to its code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, ErrSetup):
		return errorCodeSetupFailed
	case errors.Is(err, ErrAborted):
		return errorCodeRunAborted
	default:
		return errorCodeUnknown
	}
}

// ExitCode maps errors to CLI exit codes. Setup failures and aborted runs
// both exit 1; exhaustion and interruption are not errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
