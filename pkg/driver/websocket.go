// Copyright 2025 Fuzzbee Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package driver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fuzzbee/fuzzbee/pkg/fuzz"
	"github.com/fuzzbee/fuzzbee/pkg/plugin"
)

const websocketHelp = `websocket - sends each candidate as one WebSocket message

Every candidate opens a fresh connection, sends one message and waits for one
reply, which becomes the run's output. A close frame from the server sets the
exit code to its close code.

Options (YAML or JSON):
  url            ws:// or wss:// endpoint (required)
  message_type   binary or text (default binary)
  timeout        deadline for dial, send and receive (default 2s)
  ratio          mutation buffer growth ratio (default 2)`

type websocketOptions struct {
	URL         string        `yaml:"url" validate:"required,url"`
	MessageType string        `yaml:"message_type" validate:"oneof=binary text"`
	Timeout     fuzz.Duration `yaml:"timeout" validate:"gt=0"`
	Ratio       float64       `yaml:"ratio" validate:"gt=0"`
}

// WebSocket delivers candidates over a WebSocket connection.
type WebSocket struct {
	*harness
	opts        websocketOptions
	messageType int
	dialer      *websocket.Dialer
	logger      zerolog.Logger
}

// NewWebSocket implements fuzz.DriverFactory.
func NewWebSocket(options string, inst fuzz.Instrumentation, mut fuzz.Mutator) (fuzz.Driver, error) {
	opts := websocketOptions{
		MessageType: "binary",
		Timeout:     fuzz.Duration(2 * time.Second),
		Ratio:       fuzz.DefaultGrowthRatio,
	}
	if err := fuzz.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}

	d := &WebSocket{
		opts:        opts,
		messageType: websocket.BinaryMessage,
		dialer:      &websocket.Dialer{HandshakeTimeout: opts.Timeout.Std()},
		logger:      log.With().Str("component", "driver.websocket").Logger(),
	}
	if opts.MessageType == "text" {
		d.messageType = websocket.TextMessage
	}
	var err error
	if d.harness, err = newHarness(inst, mut, opts.Ratio, d.execute); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *WebSocket) execute(ctx context.Context, input []byte) (*fuzz.Run, error) {
	start := time.Now()
	deadline := start.Add(d.opts.Timeout.Std())
	run := &fuzz.Run{Input: input, ExitCode: -1}

	dialCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, _, err := d.dialer.DialContext(dialCtx, d.opts.URL, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.finish(run, start, err)
		return run, nil
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			d.logger.Trace().Err(cerr).Msg("Close connection")
		}
	}()

	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	// The deadlines do not follow ctx; closing the connection unblocks I/O.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteMessage(d.messageType, input); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.finish(run, start, err)
		return run, nil
	}
	_, msg, err := conn.ReadMessage()
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil {
		run.ExitCode = 0
		run.Output = msg
	}
	d.finish(run, start, err)
	return run, nil
}

// finish maps a connection error onto run.
func (d *WebSocket) finish(run *fuzz.Run, start time.Time, err error) {
	run.Duration = time.Since(start)
	if err == nil {
		return
	}

	var closeErr *websocket.CloseError
	var netErr net.Error
	switch {
	case errors.As(err, &closeErr):
		run.ExitCode = closeErr.Code
		run.Output = []byte(closeErr.Text)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		run.TimedOut = true
	default:
		run.Err = err
	}
}

// Close implements fuzz.Driver.
func (d *WebSocket) Close() error { return nil }

func init() {
	plugin.MustRegister(plugin.Descriptor{
		Kind:       plugin.KindDriver,
		Name:       "websocket",
		APIVersion: plugin.APIVersion,
		Help:       websocketHelp,
		NewDriver:  NewWebSocket,
	})
}
