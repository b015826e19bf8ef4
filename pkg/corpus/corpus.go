// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package corpus persists interesting inputs under an output directory,
// one subdirectory per finding category, deduplicated by content hash.
package corpus

import (
	"crypto/md5" //nolint:gosec // content addressing, not security
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
)

// Category is a finding class and the name of its subdirectory.
type Category string

const (
	Crashes  Category = "crashes"
	Hangs    Category = "hangs"
	NewPaths Category = "new_paths"
)

// Categories lists all categories in triage priority order.
var Categories = []Category{Crashes, Hangs, NewPaths}

// LockFile is created in the output directory while a run holds it.
const LockFile = ".fuzzbee.lock"

// ErrLocked is returned by Open when another run holds the directory.
var ErrLocked = errors.New("output directory is in use by another run")

// CategoryFor returns where a run with verdict v belongs. Crash wins over
// Hang, which wins over NewPath. ok is false for uninteresting runs.
func CategoryFor(v fuzz.Verdict) (cat Category, ok bool) {
	switch {
	case v.Outcome == fuzz.Crash:
		return Crashes, true
	case v.Outcome == fuzz.Hang:
		return Hangs, true
	case v.NewPath:
		return NewPaths, true
	}
	return "", false
}

// Finding is one saved input.
type Finding struct {
	Category Category
	Hash     string
	Path     string
}

// Corpus is an output directory opened for writing.
type Corpus struct {
	root string
	lock *flock.Flock
}

// Open creates root and its category directories and locks it for the
// lifetime of the returned Corpus.
func Open(root string) (*Corpus, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(root, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, root)
	}

	for _, cat := range Categories {
		if err := os.MkdirAll(filepath.Join(root, string(cat)), 0o755); err != nil {
			_ = lock.Unlock()
			return nil, fmt.Errorf("create %s directory: %w", cat, err)
		}
	}
	return &Corpus{root: root, lock: lock}, nil
}

// Root returns the output directory.
func (c *Corpus) Root() string { return c.root }

// Name returns the file name an input is stored under: the lowercase hex
// MD5 of its content.
func Name(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // content addressing
	return hex.EncodeToString(sum[:])
}

// Save writes data into cat unless an identical input is already there.
// written is false for duplicates.
func (c *Corpus) Save(cat Category, data []byte) (f Finding, written bool, err error) {
	name := Name(data)
	f = Finding{Category: cat, Hash: name, Path: filepath.Join(c.root, string(cat), name)}

	file, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return f, false, nil
		}
		return f, false, fmt.Errorf("save %s: %w", cat, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(f.Path)
		return f, false, fmt.Errorf("save %s: %w", cat, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(f.Path)
		return f, false, fmt.Errorf("save %s: %w", cat, err)
	}
	return f, true, nil
}

// Count returns the number of inputs stored in cat.
func (c *Corpus) Count(cat Category) (int, error) {
	entries, err := os.ReadDir(filepath.Join(c.root, string(cat)))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() {
			n++
		}
	}
	return n, nil
}

// Close releases the directory lock.
func (c *Corpus) Close() error {
	return c.lock.Unlock()
}
