// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package plugins

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

func newHelpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "help <driver|instrumentation|mutator> <name>",
		Short: "Show the options a plugin accepts",
		Example: `  fuzzbee plugins help driver process
  fuzzbee plugins help m havoc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := plugin.ParseKind(args[0])
			if err != nil {
				return err
			}
			r, err := resolverFrom(cmd)
			if err != nil {
				return err
			}
			help, err := r.Help(kind, args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(help, "\n"))
			return err
		},
	}
}
