// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gpupanic/internal/gpucore"
)

// Annotation classifies an adapter in a listing.
type Annotation int

// Adapter annotations.
const (
	AnnotationNone Annotation = iota
	// AnnotationTarget marks adapters matching the vendor token.
	AnnotationTarget
	// AnnotationSafeDisplay marks adapters that keep driving the display
	// while the target hangs.
	AnnotationSafeDisplay
)

// safeDisplayTokens mark integrated or secondary GPUs.
var safeDisplayTokens = []string{"AMD", "Radeon", "Intel"}

// String returns the annotation name.
func (a Annotation) String() string {
	switch a {
	case AnnotationTarget:
		return "target"
	case AnnotationSafeDisplay:
		return "safe"
	default:
		return "none"
	}
}

// AdapterSummary is one entry of an adapter listing.
type AdapterSummary struct {
	Index      int
	Info       gpucore.AdapterInfo
	Annotation Annotation
}

// MemoryProbe reports dedicated video memory for adapters whose platform
// does not expose it.
type MemoryProbe interface {
	DedicatedMemory(name string) (uint64, bool)
}

// Annotate classifies an adapter description. Matching is case-sensitive;
// the vendor token wins over the safe-display tokens.
func Annotate(description, vendor string) Annotation {
	if vendor == "" {
		vendor = DefaultVendor
	}
	if strings.Contains(description, vendor) {
		return AnnotationTarget
	}
	for _, tok := range safeDisplayTokens {
		if strings.Contains(description, tok) {
			return AnnotationSafeDisplay
		}
	}
	return AnnotationNone
}

// FindTargetAdapter returns the first adapter whose description contains
// vendor. Every other enumerated adapter is released before it returns.
// The caller owns the returned adapter.
func FindTargetAdapter(factory gpucore.Factory, vendor string) (gpucore.Adapter, error) {
	return findTarget(factory, vendor, nil)
}

func findTarget(factory gpucore.Factory, vendor string, obs Observer) (gpucore.Adapter, error) {
	if vendor == "" {
		vendor = DefaultVendor
	}
	log := Logger()

	var target gpucore.Adapter
	for i := 0; ; i++ {
		a, err := factory.Adapter(i)
		if errors.Is(err, gpucore.ErrEndOfList) {
			break
		}
		if err != nil {
			if target != nil {
				target.Release()
			}
			return nil, fmt.Errorf("%w: adapter %d: %w", ErrEnumeration, i, err)
		}

		name := a.Info().Name
		selected := target == nil && strings.Contains(name, vendor)
		obs.emit(Event{Kind: EventAdapterFound, Index: i, Adapter: name, Selected: selected})
		log.Debug("gpupanic: adapter enumerated", "index", i, "name", name, "selected", selected)
		if selected {
			target = a
			continue
		}
		a.Release()
	}

	if target == nil {
		obs.emit(Event{Kind: EventNoTarget})
		return nil, fmt.Errorf("%w: vendor %q", ErrNotFound, vendor)
	}
	log.Info("gpupanic: target adapter selected", "name", target.Info().Name)
	return target, nil
}

// ListAdapters enumerates and releases every adapter, annotating each one
// against vendor. No device is created. probe may be nil.
func ListAdapters(factory gpucore.Factory, vendor string, probe MemoryProbe) ([]AdapterSummary, error) {
	var out []AdapterSummary
	for i := 0; ; i++ {
		a, err := factory.Adapter(i)
		if errors.Is(err, gpucore.ErrEndOfList) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w: adapter %d: %w", ErrEnumeration, i, err)
		}
		info := a.Info()
		a.Release()

		if info.DedicatedMemory == 0 && probe != nil {
			if mem, ok := probe.DedicatedMemory(info.Name); ok {
				info.DedicatedMemory = mem
			}
		}
		out = append(out, AdapterSummary{
			Index:      i,
			Info:       info,
			Annotation: Annotate(info.Name, vendor),
		})
	}
}
