// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux || !cgo

package vram

// NVML returns a library that always reports ErrUnavailable.
func NVML() Library { return unavailable{} }

type unavailable struct{}

func (unavailable) Init() error                { return ErrUnavailable }
func (unavailable) Shutdown() error            { return nil }
func (unavailable) Count() (int, error)        { return 0, ErrUnavailable }
func (unavailable) Device(int) (Device, error) { return nil, ErrUnavailable }
