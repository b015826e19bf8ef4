// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package appctx carries the services built at startup on a
// context.Context so subcommands do not rebuild them.
package appctx

import (
	"context"

	"github.com/fuzzbee/fuzzbee/pkg/config"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

type key string

const servicesKey key = "fuzzbee.services"

// Services are the process-wide dependencies resolved from configuration.
type Services struct {
	Config   *config.Manager
	Resolver *plugin.Resolver
}

// WithServices stores s on ctx.
func WithServices(ctx context.Context, s *Services) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, servicesKey, s)
}

// ServicesFrom retrieves the services stored by WithServices.
func ServicesFrom(ctx context.Context) (*Services, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(servicesKey).(*Services)
	return s, ok && s != nil
}
