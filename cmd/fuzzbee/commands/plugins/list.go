// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugins

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fuzzbee/fuzzbee/cmd/fuzzbee/internal/format"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

func newListCommand() *cobra.Command {
	var (
		kindFilter   string
		outputFormat string
		watch        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in and module plugins",
		Long: `List every plugin fuzzbee can resolve.

Modules that exist on disk but fail to load are listed with the reason.
With --watch the list is printed again whenever a module file in the plugin
or mutator directory is added, replaced or removed.`,
		Example: `  # List all plugins
  fuzzbee plugins list

  # Only mutators, as JSON
  fuzzbee plugins list --kind mutator --format json

  # Keep watching the module directories
  fuzzbee plugins list --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer func() { err = format.ReportError(cmd, err) }()

			if err := format.ValidateMode(outputFormat); err != nil {
				return err
			}
			var kind plugin.Kind
			if kindFilter != "" {
				k, err := plugin.ParseKind(kindFilter)
				if err != nil {
					return err
				}
				kind = k
			}

			r, err := resolverFrom(cmd)
			if err != nil {
				return err
			}
			f := format.FromCommand(cmd)
			show := func() error {
				return printList(f, filterInfos(r.List(), kind))
			}

			if err := show(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchDirs(cmd.Context(), r, func() {
				if err := f.PrintSummary("Plugin modules changed"); err != nil {
					log.Debug().Err(err).Msg("Failed to write change notice")
				}
				if err := show(); err != nil {
					log.Warn().Err(err).Msg("Failed to print plugin list")
				}
			})
		},
	}

	cmd.Flags().StringVarP(&kindFilter, "kind", "k", "", "Only list plugins of this kind: driver, instrumentation or mutator")
	cmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reprint the list when module files change")

	return cmd
}

func filterInfos(infos []plugin.Info, kind plugin.Kind) []plugin.Info {
	if kind == "" {
		return infos
	}
	out := make([]plugin.Info, 0, len(infos))
	for _, info := range infos {
		// Modules that failed to load have no kind; keep them visible.
		if info.Kind == kind || info.Error != "" {
			out = append(out, info)
		}
	}
	return out
}

func printList(f format.Formatter, infos []plugin.Info) error {
	if f.Mode() != format.ModeTable {
		return f.Print(infos)
	}
	if len(infos) == 0 {
		return f.PrintSummary("No plugins found.")
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		kind, status := string(info.Kind), "ok"
		if info.Error != "" {
			kind, status = "-", info.Error
		}
		rows = append(rows, []string{kind, info.Name, info.Source, info.APIVersion, status})
	}
	if err := f.PrintTable([]string{"Kind", "Name", "Source", "API", "Status"}, rows); err != nil {
		return err
	}
	return f.PrintSummary(fmt.Sprintf("%d plugin(s)", len(infos)))
}

func watchDirs(ctx context.Context, r *plugin.Resolver, onChange func()) error {
	w, err := plugin.NewDirWatcher([]string{r.PluginDir, r.MutatorDir}, onChange, log.Logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
