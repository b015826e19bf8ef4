// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package fuzz

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DecodeOptions decodes a plugin options string into out and validates the
// result with `validate` struct tags. out should already hold the plugin's
// defaults; an empty options string leaves them untouched. Both YAML and
// JSON objects are accepted.
func DecodeOptions(options string, out any) error {
	if strings.TrimSpace(options) != "" {
		dec := yaml.NewDecoder(strings.NewReader(options))
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// Duration is an option value accepted either as a Go duration string
// ("1500ms") or as a plain number of seconds (1.5).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok {
		if parsed, err := time.ParseDuration(s); err == nil {
			*d = Duration(parsed)
			return nil
		}
	}
	secs, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %v", raw)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
