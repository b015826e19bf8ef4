// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

//go:build !((linux || darwin) && cgo)

package plugin

import "fmt"

// DynamicSupported reports whether this build can load plugin modules.
const DynamicSupported = false

func openModule(path string) (*Descriptor, error) {
	return nil, fmt.Errorf("%w: %s", ErrDynamicUnsupported, path)
}
