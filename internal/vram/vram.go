// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package vram resolves dedicated video memory sizes by adapter name for
// platforms whose adapter enumeration does not report them.
package vram

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned when no management library can be loaded.
var ErrUnavailable = errors.New("vram: management library unavailable")

// Device is one GPU seen by a management library.
type Device interface {
	Name() (string, error)
	TotalMemory() (uint64, error)
}

// Library is a GPU management library session.
type Library interface {
	Init() error
	Shutdown() error
	Count() (int, error)
	Device(index int) (Device, error)
}

// Probe maps adapter names to dedicated memory in bytes.
type Probe struct {
	sizes map[string]uint64
}

// NewProbe returns a probe over a fixed name table.
func NewProbe(sizes map[string]uint64) *Probe {
	p := &Probe{sizes: make(map[string]uint64, len(sizes))}
	for name, size := range sizes {
		p.sizes[name] = size
	}
	return p
}

// Collect queries every device of lib. Devices whose name or memory cannot be
// read are skipped.
func Collect(lib Library) (*Probe, error) {
	if err := lib.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer lib.Shutdown()

	n, err := lib.Count()
	if err != nil {
		return nil, fmt.Errorf("vram: device count: %w", err)
	}
	sizes := make(map[string]uint64, n)
	for i := 0; i < n; i++ {
		d, err := lib.Device(i)
		if err != nil {
			continue
		}
		name, err := d.Name()
		if err != nil {
			continue
		}
		total, err := d.TotalMemory()
		if err != nil {
			continue
		}
		sizes[name] = total
	}
	return &Probe{sizes: sizes}, nil
}

// DedicatedMemory looks name up exactly, then by containment in either
// direction. Adapter descriptions and management names often differ by a
// vendor prefix.
//
// Among containment matches the name closest in length wins, so
// "RTX 3080 Ti" is preferred over "RTX 3080" for a Ti adapter. Ties go to
// the lexically smaller name.
func (p *Probe) DedicatedMemory(name string) (uint64, bool) {
	if p == nil || name == "" {
		return 0, false
	}
	if size, ok := p.sizes[name]; ok {
		return size, true
	}
	best, found := "", false
	for known := range p.sizes {
		if !strings.Contains(name, known) && !strings.Contains(known, name) {
			continue
		}
		if !found || closer(name, known, best) {
			best, found = known, true
		}
	}
	if !found {
		return 0, false
	}
	return p.sizes[best], true
}

// closer reports whether a is a better containment match for name than b.
func closer(name, a, b string) bool {
	da, db := lengthGap(name, a), lengthGap(name, b)
	if da != db {
		return da < db
	}
	return a < b
}

func lengthGap(a, b string) int {
	if d := len(a) - len(b); d >= 0 {
		return d
	}
	return len(b) - len(a)
}

// Len reports how many devices the probe knows.
func (p *Probe) Len() int {
	if p == nil {
		return 0
	}
	return len(p.sizes)
}
