// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package plugin resolves driver, instrumentation and mutator names to
// factories, either from the built-in registry or from Go plugin modules
// on disk.
package plugin

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// Kind is the capability a plugin provides.
type Kind string

const (
	KindDriver          Kind = "driver"
	KindInstrumentation Kind = "instrumentation"
	KindMutator         Kind = "mutator"
)

// Kinds lists every plugin kind in display order.
var Kinds = []Kind{KindDriver, KindInstrumentation, KindMutator}

// ParseKind parses a kind name, accepting the short forms used on the
// command line.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "driver", "drivers", "d":
		return KindDriver, nil
	case "instrumentation", "instrumentations", "instr", "i":
		return KindInstrumentation, nil
	case "mutator", "mutators", "m":
		return KindMutator, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// APIVersion is the plugin API version implemented by this build.
const APIVersion = "1.0.0"

// apiConstraint is what a plugin's declared APIVersion must satisfy.
const apiConstraint = "^1"

// EntryPoint is the symbol a dynamic module must export. Its type must be
// Descriptor.
const EntryPoint = "FuzzbeePlugin"

// Descriptor describes one plugin. Exactly one factory matching Kind must be
// set.
type Descriptor struct {
	Kind       Kind
	Name       string
	APIVersion string
	Help       string

	NewDriver          fuzz.DriverFactory
	NewInstrumentation fuzz.InstrumentationFactory
	NewMutator         fuzz.MutatorFactory
}

// Validate checks the descriptor is complete and compatible with this host.
func (d *Descriptor) Validate() error {
	if !validName.MatchString(d.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, d.Name)
	}
	if err := checkAPIVersion(d.APIVersion); err != nil {
		return err
	}

	set := 0
	if d.NewDriver != nil {
		set++
	}
	if d.NewInstrumentation != nil {
		set++
	}
	if d.NewMutator != nil {
		set++
	}

	var ok bool
	switch d.Kind {
	case KindDriver:
		ok = d.NewDriver != nil
	case KindInstrumentation:
		ok = d.NewInstrumentation != nil
	case KindMutator:
		ok = d.NewMutator != nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, d.Kind)
	}
	if !ok || set != 1 {
		return fmt.Errorf("%w: %s %q must set exactly the %s factory", ErrEntryPoint, d.Kind, d.Name, d.Kind)
	}
	return nil
}

func checkAPIVersion(v string) error {
	if v == "" {
		return fmt.Errorf("%w: missing API version", ErrIncompatibleAPI)
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrIncompatibleAPI, v, err)
	}
	constraint, err := semver.NewConstraint(apiConstraint)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrIncompatibleAPI, v, apiConstraint)
	}
	return nil
}
