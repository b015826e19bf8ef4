// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

// Config is the root configuration structure for fuzzbee.
type Config struct {
	Log      LogConfig  `description:"Logging configuration" koanf:"log"`
	Fuzz     FuzzConfig `description:"Fuzz run configuration" koanf:"fuzz"`
	Plugins  DirConfig  `description:"Driver and instrumentation module lookup" koanf:"plugins"`
	Mutators DirConfig  `description:"Mutator module lookup" koanf:"mutators"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level: trace | debug | info | warn | error" koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"oneof=text json"`
	File   string `description:"Log file path" koanf:"file"`
}

// FuzzConfig describes one fuzzing run.
type FuzzConfig struct {
	Driver          string `description:"Driver name" koanf:"driver" validate:"required"`
	Instrumentation string `description:"Instrumentation name" koanf:"instrumentation" validate:"required"`
	Mutator         string `description:"Mutator name" koanf:"mutator" validate:"required"`

	DriverOptions          string `description:"Driver options string" koanf:"driver_options"`
	InstrumentationOptions string `description:"Instrumentation options string" koanf:"instrumentation_options"`
	MutatorOptions         string `description:"Mutator options string" koanf:"mutator_options"`

	Iterations int    `description:"Number of test cases to run" koanf:"iterations" validate:"gt=0"`
	Output     string `description:"Output directory for findings" koanf:"output" validate:"required"`
	SeedFile   string `description:"Seed input file" koanf:"seed_file" validate:"required"`

	InstrumentationStateLoad string `description:"Instrumentation state file to load" koanf:"instrumentation_state_load"`
	InstrumentationStateDump string `description:"Instrumentation state file to write on exit" koanf:"instrumentation_state_dump"`
	MutatorState             string `description:"Inline mutator state" koanf:"mutator_state"`
	MutatorStateLoad         string `description:"Mutator state file to load" koanf:"mutator_state_load"`
	MutatorStateDump         string `description:"Mutator state file to write on exit" koanf:"mutator_state_dump"`
}

// DirConfig points at a directory of plugin modules.
type DirConfig struct {
	Dir string `description:"Module directory" koanf:"dir"`
}
