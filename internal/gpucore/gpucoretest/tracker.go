// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucoretest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/gpupanic/internal/gpucore"
)

// Kind names a class of handle tracked by the fake platform.
type Kind string

// Handle kinds.
const (
	KindFactory         Kind = "factory"
	KindAdapter         Kind = "adapter"
	KindDevice          Kind = "device"
	KindContext         Kind = "context"
	KindShaderModule    Kind = "shader-module"
	KindBuffer          Kind = "buffer"
	KindBindGroupLayout Kind = "bind-group-layout"
	KindPipelineLayout  Kind = "pipeline-layout"
	KindComputePipeline Kind = "compute-pipeline"
	KindBindGroup       Kind = "bind-group"
	KindFence           Kind = "fence"
)

// Write records one Context.WriteBuffer call.
type Write struct {
	Buffer string
	Offset uint64
	Data   []byte
}

// Pass records one compute pass.
type Pass struct {
	Label      string
	Pipeline   string
	BindGroups map[uint32]string
	Dispatches [][3]uint32
	Ended      bool
}

type handle struct {
	kind     Kind
	label    string
	released bool
}

func (h *handle) String() string {
	if h.label == "" {
		return string(h.kind)
	}
	return string(h.kind) + ":" + h.label
}

// Tracker records every handle the fake platform hands out and every
// operation performed on it.
type Tracker struct {
	mu      sync.Mutex
	nextID  uint64
	handles map[uint64]*handle
	order   []string
	doubles []string

	writes   []Write
	passes   []*Pass
	flushes  int
	polls    int
	opens    int
	sources  []string
	requests []gpucore.DeviceRequest
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{handles: make(map[uint64]*handle)}
}

func (t *Tracker) create(kind Kind, label string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.handles[t.nextID] = &handle{kind: kind, label: label}
	return t.nextID
}

func (t *Tracker) release(id uint64) {
	if id == gpucore.InvalidID {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.handles[id]
	if !ok {
		t.doubles = append(t.doubles, fmt.Sprintf("unknown#%d", id))
		return
	}
	if h.released {
		t.doubles = append(t.doubles, h.String())
		return
	}
	h.released = true
	t.order = append(t.order, h.String())
}

func (t *Tracker) name(id uint64) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.handles[id]; ok {
		return h.String()
	}
	return fmt.Sprintf("unknown#%d", id)
}

func (t *Tracker) isLive(id uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.handles[id]
	return ok && !h.released
}

// Live returns the handles that were created and not yet released, sorted.
func (t *Tracker) Live() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var live []string
	for _, h := range t.handles {
		if !h.released {
			live = append(live, h.String())
		}
	}
	sort.Strings(live)
	return live
}

// Created returns how many handles of kind were ever created.
func (t *Tracker) Created(kind Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, h := range t.handles {
		if h.kind == kind {
			n++
		}
	}
	return n
}

// DoubleReleases returns the handles released more than once.
func (t *Tracker) DoubleReleases() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.doubles...)
}

// ReleaseOrder returns released handles in the order they were released.
func (t *Tracker) ReleaseOrder() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.order...)
}

// Writes returns every buffer upload.
func (t *Tracker) Writes() []Write {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Write(nil), t.writes...)
}

// Passes returns every recorded compute pass.
func (t *Tracker) Passes() []Pass {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Pass, 0, len(t.passes))
	for _, p := range t.passes {
		out = append(out, *p)
	}
	return out
}

// Flushes returns how many times a context was flushed.
func (t *Tracker) Flushes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushes
}

// Polls returns how many times a completion marker was queried.
func (t *Tracker) Polls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.polls
}

// Opens returns how many device-open attempts were made.
func (t *Tracker) Opens() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens
}

// Requests returns the device requests passed to Adapter.Open.
func (t *Tracker) Requests() []gpucore.DeviceRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]gpucore.DeviceRequest(nil), t.requests...)
}

// Sources returns every kernel source handed to the compiler.
func (t *Tracker) Sources() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sources...)
}

// Touched reports whether the platform was used at all.
func (t *Tracker) Touched() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles) > 0 || t.opens > 0 || len(t.sources) > 0
}
