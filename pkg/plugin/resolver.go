// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// ModuleExt is the file extension of dynamic plugin modules.
const ModuleExt = ".so"

// validName keeps names usable as file names without path traversal.
var validName = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

// openFunc loads the descriptor exported by the module at path.
type openFunc func(path string) (*Descriptor, error)

// Resolver binds plugin names to factories. Built-ins win over modules on
// disk; mutator modules are looked up in MutatorDir, everything else in
// PluginDir.
type Resolver struct {
	PluginDir  string
	MutatorDir string

	builtins *Registry
	open     openFunc
	logger   zerolog.Logger

	mu     sync.Mutex
	loaded map[string]*Descriptor
}

// NewResolver returns a resolver over the built-in registry and the given
// directories. Either directory may be empty to disable dynamic lookup for
// the kinds it serves.
func NewResolver(pluginDir, mutatorDir string) *Resolver {
	return &Resolver{
		PluginDir:  pluginDir,
		MutatorDir: mutatorDir,
		builtins:   builtins,
		open:       openModule,
		logger:     log.With().Str("component", "plugin.resolver").Logger(),
		loaded:     make(map[string]*Descriptor),
	}
}

// Dir returns the directory searched for modules of kind.
func (r *Resolver) Dir(kind Kind) string {
	if kind == KindMutator {
		return r.MutatorDir
	}
	return r.PluginDir
}

// Resolve returns the descriptor for kind and name.
func (r *Resolver) Resolve(kind Kind, name string) (Descriptor, error) {
	if !validName.MatchString(name) {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if d, ok := r.builtins.Lookup(kind, name); ok {
		return d, nil
	}

	dir := r.Dir(kind)
	if dir == "" {
		return Descriptor{}, fmt.Errorf("%w: %s %q", ErrPluginNotFound, kind, name)
	}
	path := filepath.Join(dir, name+ModuleExt)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w: %s %q (searched built-ins and %s)", ErrPluginNotFound, kind, name, dir)
		}
		return Descriptor{}, fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
	}

	d, err := r.load(path)
	if err != nil {
		return Descriptor{}, err
	}
	if d.Kind != kind {
		return Descriptor{}, fmt.Errorf("%w: %s provides a %s, not a %s", ErrInvalidKind, path, d.Kind, kind)
	}
	if d.Name != name {
		return Descriptor{}, fmt.Errorf("%w: %s declares name %q", ErrEntryPoint, path, d.Name)
	}
	return *d, nil
}

func (r *Resolver) load(path string) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.loaded[path]; ok {
		return d, nil
	}
	d, err := r.open(path)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.loaded[path] = d
	r.logger.Debug().Str("path", path).Str("kind", string(d.Kind)).Str("name", d.Name).Msg("Loaded plugin module")
	return d, nil
}

// NewDriver resolves and constructs a driver bound to inst and mut.
func (r *Resolver) NewDriver(name, options string, inst fuzz.Instrumentation, mut fuzz.Mutator) (fuzz.Driver, error) {
	d, err := r.Resolve(KindDriver, name)
	if err != nil {
		return nil, err
	}
	drv, err := d.NewDriver(options, inst, mut)
	if err != nil {
		return nil, fmt.Errorf("create driver %q: %w", name, err)
	}
	return drv, nil
}

// NewInstrumentation resolves and constructs an instrumentation.
func (r *Resolver) NewInstrumentation(name, options string, state []byte) (fuzz.Instrumentation, error) {
	d, err := r.Resolve(KindInstrumentation, name)
	if err != nil {
		return nil, err
	}
	inst, err := d.NewInstrumentation(options, state)
	if err != nil {
		return nil, fmt.Errorf("create instrumentation %q: %w", name, err)
	}
	return inst, nil
}

// NewMutator resolves and constructs a mutator over seed.
func (r *Resolver) NewMutator(name, options string, state, seed []byte) (fuzz.Mutator, error) {
	d, err := r.Resolve(KindMutator, name)
	if err != nil {
		return nil, err
	}
	mut, err := d.NewMutator(options, state, seed)
	if err != nil {
		return nil, fmt.Errorf("create mutator %q: %w", name, err)
	}
	return mut, nil
}

// Help returns the help text of a plugin.
func (r *Resolver) Help(kind Kind, name string) (string, error) {
	d, err := r.Resolve(kind, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(d.Help) == "" {
		return fmt.Sprintf("%s %q provides no help.", kind, name), nil
	}
	return d.Help, nil
}

// Info summarizes one available plugin.
type Info struct {
	Kind       Kind   `json:"kind" yaml:"kind"`
	Name       string `json:"name" yaml:"name"`
	Source     string `json:"source" yaml:"source"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// SourceBuiltin is the Info.Source of compiled-in plugins.
const SourceBuiltin = "builtin"

// List returns every built-in plugin followed by every module found in the
// plugin and mutator directories. Modules that fail to load are listed with
// their error. Built-ins shadow modules of the same kind and name.
func (r *Resolver) List() []Info {
	var out []Info
	for _, d := range r.builtins.List() {
		out = append(out, Info{Kind: d.Kind, Name: d.Name, Source: SourceBuiltin, APIVersion: d.APIVersion})
	}

	seenDirs := make(map[string]bool)
	for _, kind := range Kinds {
		dir := r.Dir(kind)
		if dir == "" || seenDirs[dir] {
			continue
		}
		seenDirs[dir] = true
		out = append(out, r.scan(dir)...)
	}
	return out
}

func (r *Resolver) scan(dir string) []Info {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn().Err(err).Str("dir", dir).Msg("Cannot read plugin directory")
		}
		return nil
	}

	var out []Info
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ModuleExt {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name := strings.TrimSuffix(e.Name(), ModuleExt)

		d, err := r.load(path)
		if err != nil {
			out = append(out, Info{Name: name, Source: path, Error: err.Error()})
			continue
		}
		if _, shadowed := r.builtins.Lookup(d.Kind, d.Name); shadowed {
			continue
		}
		out = append(out, Info{Kind: d.Kind, Name: d.Name, Source: path, APIVersion: d.APIVersion})
	}
	return out
}
