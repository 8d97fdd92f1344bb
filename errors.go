// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"errors"
	"fmt"
)

// Package errors.
var (
	// ErrEnumeration is returned when the adapter factory cannot be created
	// or adapter enumeration fails for a reason other than end of list.
	ErrEnumeration = errors.New("gpupanic: adapter enumeration failed")

	// ErrNotFound is returned when no adapter matches the target vendor.
	ErrNotFound = errors.New("gpupanic: no target adapter found")

	// ErrDeviceCreation is returned when the device cannot be opened.
	ErrDeviceCreation = errors.New("gpupanic: device creation failed")

	// ErrCompile is returned when the kernel does not compile.
	ErrCompile = errors.New("gpupanic: kernel compilation failed")

	// ErrShaderCreation is returned when the device rejects the compiled kernel.
	ErrShaderCreation = errors.New("gpupanic: shader creation failed")

	// ErrResourceCreation is returned when a buffer, view or binding
	// cannot be created.
	ErrResourceCreation = errors.New("gpupanic: resource creation failed")

	// ErrDispatch is returned when the workload cannot be recorded or flushed.
	ErrDispatch = errors.New("gpupanic: dispatch failed")

	// ErrNilResources is returned when dispatching without built resources.
	ErrNilResources = errors.New("gpupanic: nil resources")
)

// Stage identifies the pipeline build step that failed.
type Stage int

// Build stages, in execution order.
const (
	StageDevice Stage = iota + 1
	StageCompile
	StageShader
	StageOutput
	StageParams
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageDevice:
		return "device"
	case StageCompile:
		return "compile"
	case StageShader:
		return "shader"
	case StageOutput:
		return "output"
	case StageParams:
		return "params"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// sentinel returns the package error reported for a stage.
func (s Stage) sentinel() error {
	switch s {
	case StageDevice:
		return ErrDeviceCreation
	case StageCompile:
		return ErrCompile
	case StageShader:
		return ErrShaderCreation
	default:
		return ErrResourceCreation
	}
}

// BuildError describes a failed pipeline build.
//
// It matches the stage sentinel with errors.Is and also unwraps to the
// platform cause.
type BuildError struct {
	Stage Stage
	// Diagnostics holds compiler output for StageCompile failures.
	Diagnostics string
	Err         error
}

func newBuildError(stage Stage, err error) *BuildError {
	be := &BuildError{Stage: stage, Err: err}
	if stage == StageCompile && err != nil {
		be.Diagnostics = err.Error()
	}
	return be
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Err == nil {
		return e.Stage.sentinel().Error()
	}
	return fmt.Sprintf("%v: %v", e.Stage.sentinel(), e.Err)
}

// Unwrap returns the stage sentinel and the platform cause.
func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Stage.sentinel()}
	}
	return []error{e.Stage.sentinel(), e.Err}
}
