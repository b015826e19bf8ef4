// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugins

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fuzzbee/fuzzbee/pkg/appctx"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

// NewCommand creates the plugins command with all subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plugins",
		Aliases: []string{"plugin"},
		GroupID: "core",
		Short:   "Inspect available drivers, instrumentations and mutators",
		Long: `Inspect the plugins fuzzbee can run.

Built-in plugins are always available. Additional plugins are Go plugin
modules (<name>.so) exporting a FuzzbeePlugin descriptor: drivers and
instrumentations are looked up in the plugin directory, mutators in the
mutator directory.`,
		Example: `  # List every plugin
  fuzzbee plugins list

  # Show the options of the havoc mutator
  fuzzbee plugins help mutator havoc`,
	}

	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newHelpCommand())

	return cmd
}

func resolverFrom(cmd *cobra.Command) (*plugin.Resolver, error) {
	svc, ok := appctx.ServicesFrom(cmd.Context())
	if !ok || svc.Resolver == nil {
		return nil, errors.New("command context has no plugin resolver")
	}
	return svc.Resolver, nil
}
