// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugin

import "errors"

// Resolution errors, checked with errors.Is.
var (
	// ErrPluginNotFound is returned when neither the built-in registry nor
	// the plugin directory provides the requested name.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrInvalidKind is returned for an unknown kind, or when a module
	// provides a different kind than the one requested.
	ErrInvalidKind = errors.New("invalid plugin kind")

	// ErrInvalidName is returned for names that cannot map to a module file.
	ErrInvalidName = errors.New("invalid plugin name")

	// ErrLoad is returned when a module file exists but cannot be opened.
	ErrLoad = errors.New("plugin load failed")

	// ErrEntryPoint is returned when a module lacks the entry point symbol,
	// exports it with the wrong type, or leaves the factory unset.
	ErrEntryPoint = errors.New("invalid plugin entry point")

	// ErrIncompatibleAPI is returned when a module was built against an
	// unsupported plugin API version.
	ErrIncompatibleAPI = errors.New("incompatible plugin API version")

	// ErrDynamicUnsupported is returned on builds without Go plugin support.
	ErrDynamicUnsupported = errors.New("dynamic plugins are not supported on this platform")
)
