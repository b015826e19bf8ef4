// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fuzzbee/fuzzbee/cmd/fuzzbee/internal/format"
	"github.com/fuzzbee/fuzzbee/pkg/appctx"
	"github.com/fuzzbee/fuzzbee/pkg/engine"
)

var errNoServices = errors.New("command context has no services")

func newFuzzCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:     "fuzz <driver> <instrumentation> <mutator>",
		GroupID: "fuzz",
		Short:   "Run a fuzzing session",
		Long: `Run a fuzzing session.

The driver, instrumentation and mutator may be given as arguments or through
the fuzz.driver, fuzz.instrumentation and fuzz.mutator configuration keys.
Findings are written to <output>/crashes, <output>/hangs and <output>/new_paths,
named by the MD5 of their content.

The run ends after --iterations test cases, when the mutator runs out of
candidates, or on SIGINT/SIGTERM. Plugin state is saved to the dump paths in
every case.`,
		Example: `  # Fuzz a program reading stdin, flipping one bit per test case
  fuzzbee fuzz process returncode bitflip -s seed.bin -n 1000 \
    -d '{"path": "./target", "timeout": "1s"}' \
    -i '{"crash_codes": [134]}'

  # Resume a havoc session
  fuzzbee fuzz process outputhash havoc -s seed.bin -n 100000 \
    -d '{"path": "./target", "arguments": ["@@"], "input": "file"}' \
    --isf inst.state --isd inst.state --msf mut.state --msd mut.state

  # Fuzz an HTTP endpoint
  fuzzbee fuzz http returncode havoc -s request.json \
    -d '{"url": "http://127.0.0.1:8080/api", "headers": ["Content-Type: application/json"]}' \
    -i '{"crash_codes": [500, 502]}'`,
		Args: cobra.MaximumNArgs(3),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return format.ValidateMode(outputFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() { err = format.ReportError(cmd, err) }()

			ctx := cmd.Context()
			svc, ok := appctx.ServicesFrom(ctx)
			if !ok {
				return errNoServices
			}

			cfg := svc.Config.Get().Fuzz
			for i, dst := range []*string{&cfg.Driver, &cfg.Instrumentation, &cfg.Mutator} {
				if i < len(args) {
					*dst = args[i]
				}
			}

			eng, err := engine.Setup(ctx, cfg, svc.Resolver)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := eng.Close(); cerr != nil {
					log.Warn().Err(cerr).Msg("Cleanup failed")
				}
			}()

			sum, runErr := eng.Run(ctx)
			if perr := format.FromCommand(cmd).PrintRunSummary(sum); perr != nil {
				log.Warn().Err(perr).Msg("Could not print run summary")
			}
			if runErr != nil {
				return fmt.Errorf("fuzz %s/%s/%s: %w", cfg.Driver, cfg.Instrumentation, cfg.Mutator, runErr)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("driver-options", "d", "", "Options passed to the driver")
	flags.StringP("instrumentation-options", "i", "", "Options passed to the instrumentation")
	flags.StringP("mutator-options", "m", "", "Options passed to the mutator")
	flags.String("isf", "", "Load instrumentation state from this file")
	flags.String("isd", "", "Save instrumentation state to this file on exit")
	flags.String("ms", "", "Inline mutator state, used when --msf is not set")
	flags.String("msf", "", "Load mutator state from this file")
	flags.String("msd", "", "Save mutator state to this file on exit")
	flags.String("md", "", "Directory holding mutator modules")
	flags.IntP("iterations", "n", 1, "Number of test cases to run")
	flags.StringP("output", "o", "output", "Directory to write findings to")
	flags.StringP("seed-file", "s", "", "Seed input for the mutator (required)")
	flags.StringVar(&outputFormat, "format", "table", "Summary format: table, json or yaml")

	return cmd
}
