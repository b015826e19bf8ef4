// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package mutator provides the built-in mutation strategies.
package mutator

import (
	"encoding/json"
	"fmt"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// decodeState resumes v from a state blob. A nil blob leaves v unchanged.
func decodeState(state []byte, v any) error {
	if state == nil {
		return nil
	}
	if err := json.Unmarshal(state, v); err != nil {
		return fmt.Errorf("%w: %v", fuzz.ErrInvalidState, err)
	}
	return nil
}

func encodeState(v any) ([]byte, error) {
	return json.Marshal(v)
}

// seeded holds the seed every built-in mutator derives candidates from.
type seeded struct {
	seed []byte
}

func newSeeded(seed []byte) seeded {
	return seeded{seed: append([]byte(nil), seed...)}
}

// InputSize implements fuzz.InputSizer.
func (s *seeded) InputSize() int { return len(s.seed) }

// Close implements fuzz.Mutator.
func (s *seeded) Close() error { return nil }
