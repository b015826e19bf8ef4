// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

//go:build (linux || darwin) && cgo

package plugin

import (
	"fmt"
	goplugin "plugin"
)

// DynamicSupported reports whether this build can load plugin modules.
const DynamicSupported = true

func openModule(path string) (*Descriptor, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	sym, err := p.Lookup(EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: missing symbol %s", ErrEntryPoint, path, EntryPoint)
	}

	switch v := sym.(type) {
	case *Descriptor:
		d := *v
		return &d, nil
	case func() Descriptor:
		d := v()
		return &d, nil
	}
	return nil, fmt.Errorf("%w: %s: symbol %s has type %T, want plugin.Descriptor", ErrEntryPoint, path, EntryPoint, sym)
}
