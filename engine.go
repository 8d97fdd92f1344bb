// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"context"
	"fmt"

	"github.com/gogpu/gpupanic/internal/gpucore"
)

// Engine runs one hang-and-recover cycle against a GPU platform.
//
// An Engine is single-shot in spirit: every Run enumerates adapters, builds
// fresh resources and releases them before returning.
type Engine struct {
	platform gpucore.Platform
	opts     options
}

// Result summarizes a completed run.
type Result struct {
	Mode    Mode
	Adapter string
	State   State
}

// New creates an engine over platform.
func New(platform gpucore.Platform, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{platform: platform, opts: o}
}

// Vendor returns the vendor token used to pick the target adapter.
func (e *Engine) Vendor() string { return e.opts.vendor }

// Run selects the target adapter, builds the kernel for mode, dispatches it
// and waits for the outcome.
//
// In Nuclear mode Run blocks until the device signals completion, which
// normally never happens. Resources are released on every path once the
// device open has been attempted.
func (e *Engine) Run(ctx context.Context, mode Mode) (Result, error) {
	result := Result{Mode: mode}
	if !mode.Valid() {
		return result, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	o := &e.opts
	log := Logger()
	propagateLogger(e.platform)

	factory, err := e.platform.NewFactory()
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}
	target, err := findTarget(factory, o.vendor, o.observer)
	factory.Release()
	if err != nil {
		return result, err
	}
	result.Adapter = target.Info().Name

	res, err := build(target, e.platform.Compiler(), mode, o.observer)
	defer func() {
		o.observer.emit(Event{Kind: EventCleanup, Mode: mode})
		res.Release()
		o.observer.emit(Event{Kind: EventDone, Mode: mode})
	}()
	if err != nil {
		log.Error("gpupanic: build failed", "mode", mode, "err", err)
		o.observer.emit(Event{Kind: EventBuildFailed, Mode: mode, Err: err})
		return result, err
	}

	countdown(mode, o)
	if err := Dispatch(res); err != nil {
		log.Error("gpupanic: dispatch failed", "mode", mode, "err", err)
		return result, err
	}
	result.State = StateDispatched
	o.observer.emit(Event{Kind: EventDispatched, Mode: mode})

	result.State = monitor(ctx, res, o)
	log.Info("gpupanic: run finished", "mode", mode, "state", result.State)
	return result, nil
}

// List enumerates every adapter without creating a device.
// probe fills in dedicated memory the platform does not report and may be nil.
func (e *Engine) List(probe MemoryProbe) ([]AdapterSummary, error) {
	propagateLogger(e.platform)
	factory, err := e.platform.NewFactory()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}
	defer factory.Release()
	return ListAdapters(factory, e.opts.vendor, probe)
}
