// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tdr toggles the Windows display-driver watchdog (Timeout Detection
// and Recovery). The setting lives under HKLM and takes effect after a reboot.
package tdr

import (
	"errors"
	"fmt"
)

// Registry location of the watchdog level.
const (
	KeyPath   = `SYSTEM\CurrentControlSet\Control\GraphicsDrivers`
	ValueName = "TdrLevel"
)

// levelOff disables detection entirely.
const levelOff uint32 = 0

var (
	// ErrConfigAccess is returned when the key cannot be opened or written,
	// usually because the process is not elevated.
	ErrConfigAccess = errors.New("tdr: cannot access watchdog configuration")

	// ErrUnsupported is returned on platforms without a driver watchdog registry.
	ErrUnsupported = errors.New("tdr: watchdog configuration is only available on windows")

	// errNotExist is what a store returns when the value is already absent.
	errNotExist = errors.New("tdr: value does not exist")
)

// valueStore is the subset of an open registry key Toggle needs.
type valueStore interface {
	SetDWordValue(name string, value uint32) error
	DeleteValue(name string) error
	Close() error
}

// opener opens the GraphicsDrivers key. create asks for the key to be
// created when missing.
type opener func(create bool) (valueStore, error)

// Toggle writes and removes the watchdog override.
type Toggle struct {
	open opener
}

// New returns a Toggle bound to the local machine registry.
func New() *Toggle {
	return &Toggle{open: openRegistry}
}

// Disable sets TdrLevel to 0 so hung kernels are never reset.
func (t *Toggle) Disable() error {
	store, err := t.open(true)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrConfigAccess, KeyPath, err)
	}
	defer store.Close()

	if err := store.SetDWordValue(ValueName, levelOff); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrConfigAccess, ValueName, err)
	}
	return nil
}

// Enable deletes the override, restoring the driver default. A value that is
// already absent counts as success.
func (t *Toggle) Enable() error {
	store, err := t.open(false)
	if errors.Is(err, errNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrConfigAccess, KeyPath, err)
	}
	defer store.Close()

	if err := store.DeleteValue(ValueName); err != nil && !errors.Is(err, errNotExist) {
		return fmt.Errorf("%w: delete %s: %w", ErrConfigAccess, ValueName, err)
	}
	return nil
}
