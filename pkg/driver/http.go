// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package driver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const httpHelp = `http - sends each candidate as an HTTP request body

The response status becomes the run's exit code and the body its output.

Options (YAML or JSON):
  url        target URL (required)
  method     request method (default POST)
  headers    list of "Name: value" headers
  timeout    per-request deadline, seconds or a duration string (default 2s)
  ratio      mutation buffer growth ratio (default 2)
  insecure   skip TLS verification (default false)`

type httpOptions struct {
	URL      string        `yaml:"url" validate:"required,url"`
	Method   string        `yaml:"method" validate:"required"`
	Headers  []string      `yaml:"headers"`
	Timeout  fuzz.Duration `yaml:"timeout" validate:"gt=0"`
	Ratio    float64       `yaml:"ratio" validate:"gt=0"`
	Insecure bool          `yaml:"insecure"`
}

// HTTP delivers candidates to a web endpoint.
type HTTP struct {
	*harness
	opts   httpOptions
	client *fasthttp.Client
}

// NewHTTP implements fuzz.DriverFactory.
func NewHTTP(options string, inst fuzz.Instrumentation, mut fuzz.Mutator) (fuzz.Driver, error) {
	opts := httpOptions{
		Method:  fasthttp.MethodPost,
		Timeout: fuzz.Duration(2 * time.Second),
		Ratio:   fuzz.DefaultGrowthRatio,
	}
	if err := fuzz.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	for _, h := range opts.Headers {
		if !strings.Contains(h, ":") {
			return nil, fmt.Errorf("%w: header %q is not \"Name: value\"", fuzz.ErrInvalidOptions, h)
		}
	}

	d := &HTTP{
		opts: opts,
		client: &fasthttp.Client{
			MaxConnsPerHost:               1,
			MaxIdleConnDuration:           90 * time.Second,
			NoDefaultUserAgentHeader:      true,
			DisableHeaderNamesNormalizing: true,
			DisablePathNormalizing:        true,
			TLSConfig:                     &tls.Config{InsecureSkipVerify: opts.Insecure}, //nolint:gosec // opt-in
		},
	}
	var err error
	if d.harness, err = newHarness(inst, mut, opts.Ratio, d.execute); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *HTTP) execute(ctx context.Context, input []byte) (*fuzz.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.opts.URL)
	req.Header.SetMethod(d.opts.Method)
	for _, h := range d.opts.Headers {
		name, value, _ := strings.Cut(h, ":")
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	req.SetBody(input)

	start := time.Now()
	err := d.client.DoTimeout(req, resp, d.opts.Timeout.Std())
	run := &fuzz.Run{Input: input, ExitCode: -1, Duration: time.Since(start)}

	switch {
	case err == nil:
		run.ExitCode = resp.StatusCode()
		run.Output = append([]byte(nil), resp.Body()...)
	case errors.Is(err, fasthttp.ErrTimeout):
		run.TimedOut = true
	default:
		run.Err = err
	}
	return run, nil
}

// Close implements fuzz.Driver.
func (d *HTTP) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:       plugin.KindDriver,
		Name:       "http",
		APIVersion: plugin.APIVersion,
		Help:       httpHelp,
		NewDriver:  NewHTTP,
	})
}
