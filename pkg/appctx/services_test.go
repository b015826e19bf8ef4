// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fuzzbee/fuzzbee/pkg/config"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

func TestServicesRoundTrip(t *testing.T) {
	s := &Services{Config: config.NewManager(), Resolver: plugin.NewResolver("", "")}
	got, ok := ServicesFrom(WithServices(context.Background(), s))
	assert.True(t, ok)
	assert.Same(t, s, got)
}

func TestServicesFrom_Missing(t *testing.T) {
	tests := map[string]context.Context{
		"nil context": nil,
		"empty":       context.Background(),
		"nil value":   context.WithValue(context.Background(), servicesKey, (*Services)(nil)),
		"wrong type":  context.WithValue(context.Background(), servicesKey, "not services"),
	}
	for name, ctx := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := ServicesFrom(ctx) //nolint:staticcheck // nil context is part of the contract
			assert.False(t, ok)
		})
	}
}
