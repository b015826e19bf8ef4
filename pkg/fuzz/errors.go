// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fuzz

import "errors"

var (
	// ErrExhausted is returned by a Mutator, and passed through by a Driver,
	// once no further candidates exist. It is a normal stop condition.
	ErrExhausted = errors.New("mutator exhausted")

	// ErrNoState is returned by State when the plugin is stateless or does
	// not support snapshots. Callers must not treat it as fatal.
	ErrNoState = errors.New("state snapshot not supported")

	// ErrNoRun is returned by IsNewPath when no run has been observed yet.
	ErrNoRun = errors.New("no run observed")

	// ErrInvalidOptions is returned by factories when the options string
	// cannot be decoded or fails validation.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrInvalidState is returned by factories when a serialized state blob
	// cannot be decoded.
	ErrInvalidState = errors.New("invalid state")
)

// IsExhausted reports whether err signals graceful mutator exhaustion.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}
