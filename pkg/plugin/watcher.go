// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugin

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DirWatcher watches plugin directories and calls a callback when module
// files appear, change or disappear. Bursts of events are coalesced.
type DirWatcher struct {
	dirs     []string
	onChange func()

	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	logger        zerolog.Logger

	// mu protects debounceTimer
	mu            sync.Mutex
	debounceTimer *time.Timer
}

// NewDirWatcher creates a watcher for dirs. Empty and duplicate entries are
// ignored.
func NewDirWatcher(dirs []string, onChange func(), logger zerolog.Logger) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var unique []string
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
	}

	return &DirWatcher{
		dirs:          unique,
		onChange:      onChange,
		watcher:       watcher,
		debounceDelay: 100 * time.Millisecond,
		logger:        logger.With().Str("component", "plugin.watcher").Logger(),
	}, nil
}

// Start watches until ctx is canceled. Directories that do not exist are
// skipped with a warning; if none can be watched Start returns an error.
//
//	go watcher.Start(ctx)
func (w *DirWatcher) Start(ctx context.Context) error {
	watched := 0
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			level := w.logger.Warn()
			if errors.Is(err, fs.ErrNotExist) {
				level = w.logger.Debug()
			}
			level.Err(err).Str("dir", dir).Msg("Cannot watch plugin directory")
			continue
		}
		watched++
	}
	defer func() {
		w.stopTimer()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
	}()
	if watched == 0 {
		return errors.New("no plugin directory could be watched")
	}

	w.logger.Debug().Strs("dirs", w.dirs).Dur("debounce", w.debounceDelay).Msg("Started watching plugin directories")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ModuleExt {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug().Str("op", event.Op.String()).Str("file", event.Name).Msg("Detected plugin module change")
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *DirWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.onChange)
}

func (w *DirWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}
