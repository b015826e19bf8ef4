// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugin

import (
	"cmp"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

type registryKey struct {
	kind Kind
	name string
}

// Registry maps (kind, name) to descriptors. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[registryKey]Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[registryKey]Descriptor)}
}

// Register validates d and adds it, replacing any previous descriptor with
// the same kind and name.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	key := registryKey{d.Kind, d.Name}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[key]; exists {
		log.Warn().Str("kind", string(d.Kind)).Str("name", d.Name).Msg("Plugin registration is being overwritten")
	}
	r.descriptors[key] = d
	return nil
}

// Lookup returns the descriptor registered for kind and name.
func (r *Registry) Lookup(kind Kind, name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[registryKey{kind, name}]
	return d, ok
}

// List returns all descriptors ordered by kind, then name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Descriptor) int {
		if c := cmp.Compare(kindOrder(a.Kind), kindOrder(b.Kind)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

func kindOrder(k Kind) int {
	return slices.Index(Kinds, k)
}

var builtins = NewRegistry()

// Builtins returns the process-wide registry of compiled-in plugins.
func Builtins() *Registry { return builtins }

// MustRegister adds d to the built-in registry and panics if d is invalid.
// It is meant to be called from init functions.
func MustRegister(d Descriptor) {
	if err := builtins.Register(d); err != nil {
		panic(err)
	}
}
