// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fuzzbee/fuzzbee/cmd/fuzzbee/commands"
	"github.com/fuzzbee/fuzzbee/pkg/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := commands.NewCommand().ExecuteContext(ctx)
	stop()
	os.Exit(engine.ExitCode(err))
}
