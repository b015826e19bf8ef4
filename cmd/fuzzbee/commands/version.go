// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fuzzbee/fuzzbee/cmd/fuzzbee/internal/format"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
	"github.com/fuzzbee/fuzzbee/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var (
		short        bool
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:     "version",
		GroupID: "core",
		Short:   "Print version information",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := format.ValidateMode(outputFormat); err != nil {
				return err
			}
			info := version.Get(plugin.APIVersion)
			out := cmd.OutOrStdout()

			if short {
				_, err := fmt.Fprintln(out, info.Version)
				return err
			}
			if f := format.FromCommand(cmd); f.Mode() != format.ModeTable {
				return f.Print(info)
			}

			fmt.Fprintf(out, "%s version: %s\n", cliExecutable, info.Version)
			fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Build Date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "Platform: %s\n", info.Platform)
			_, err := fmt.Fprintf(out, "Plugin API: %s (dynamic modules: %t)\n", info.PluginAPI, plugin.DynamicSupported)
			return err
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json or yaml")

	return cmd
}
