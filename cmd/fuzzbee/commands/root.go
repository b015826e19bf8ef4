// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	pluginCmd "github.com/fuzzbee/fuzzbee/cmd/fuzzbee/commands/plugins"
	"github.com/fuzzbee/fuzzbee/pkg/appctx"
	"github.com/fuzzbee/fuzzbee/pkg/config"
	"github.com/fuzzbee/fuzzbee/pkg/logging"
	"github.com/fuzzbee/fuzzbee/pkg/paths"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"

	// Built-in drivers, instrumentations and mutators register themselves.
	_ "github.com/fuzzbee/fuzzbee/pkg/driver"
	_ "github.com/fuzzbee/fuzzbee/pkg/instrumentation"
	_ "github.com/fuzzbee/fuzzbee/pkg/mutator"
)

const cliExecutable = "fuzzbee"

// NewCommand constructs the top-level fuzzbee CLI command. Configuration and
// logging are set up once in PersistentPreRunE and handed to subcommands
// through the command context.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		envFile        string
		verbosityCount int
		debug          bool
		logCloser      io.Closer
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Fuzzbee is a pluggable, state-resumable fuzzer",
		Long: `Fuzzbee feeds mutated inputs to a target and records the ones that crash
it, hang it or reach new behaviour.

A run combines three plugins: a driver that executes the target, an
instrumentation that classifies each run, and a mutator that generates
candidates from a seed. Plugins are compiled in or loaded from Go plugin
modules in the plugin and mutator directories.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			sources := config.DefaultSources(configFile, envFile, cmd.Flags(), debug, verbosityCount)
			for _, src := range sources {
				if dotenv, ok := src.(*config.DotenvSource); ok {
					dotenv.Required = cmd.Flags().Changed("env-file")
				}
			}

			mgr := config.NewManager()
			if err := mgr.Load(sources...); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := mgr.Get()

			closer, err := logging.Configure(cfg.Log)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			logCloser = closer

			log.Debug().
				Str("plugin_dir", cfg.Plugins.Dir).
				Str("mutator_dir", cfg.Mutators.Dir).
				Bool("dynamic_plugins", plugin.DynamicSupported).
				Msg("Configuration loaded")

			ctx := appctx.WithServices(cmd.Context(), &appctx.Services{
				Config:   mgr,
				Resolver: plugin.NewResolver(cfg.Plugins.Dir, cfg.Mutators.Dir),
			})
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", paths.ConfigFile(), "Configuration file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Load FUZZBEE_* settings from this .env file")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	cmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
	cmd.PersistentFlags().String("plugin-dir", "", "Directory holding driver and instrumentation modules")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.AddGroup(&cobra.Group{ID: "fuzz", Title: "Fuzzing Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(newFuzzCommand())
	cmd.AddCommand(pluginCmd.NewCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}
