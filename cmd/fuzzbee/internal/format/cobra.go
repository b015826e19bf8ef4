// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// FromCommand builds a Formatter writing to the command's output streams.
// It honours the --format, --quiet and --no-color flags when the command
// defines them. Color is also off when stdout is not a terminal or NO_COLOR
// is set.
func FromCommand(cmd *cobra.Command) Formatter {
	flags := cmd.Flags()

	mode := ModeTable
	if v, err := flags.GetString("format"); err == nil {
		mode = ParseMode(v)
	}
	quiet, _ := flags.GetBool("quiet")
	noColor, _ := flags.GetBool("no-color")

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	useColor := !noColor && !color.NoColor && stdout == os.Stdout

	return New(stdout, stderr, mode, quiet, useColor)
}

// ReportError writes err as a structured document when the command runs in
// JSON or YAML mode and stops cobra from printing it again. It returns err
// unchanged so the exit code still reflects it.
func ReportError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	f := FromCommand(cmd)
	if f.Mode() == ModeTable {
		return err
	}
	cmd.SilenceErrors = true
	if perr := f.PrintError(err); perr != nil {
		log.Debug().Err(perr).Msg("Failed to write error report")
	}
	return err
}
