// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// ErrDeviceReleased is returned for calls made after the device was destroyed.
var ErrDeviceReleased = errors.New("halgpu: device released")

// state is shared by a Device and its Context.
//
// Resources live in ID-keyed maps. IDs start at 1; 0 is gpucore.InvalidID.
type state struct {
	mu    sync.Mutex
	p     *Platform
	inst  *sharedInstance
	label string

	device hal.Device
	queue  hal.Queue
	nextID uint64

	shaders     map[gpucore.ShaderModuleID]hal.ShaderModule
	buffers     map[gpucore.BufferID]hal.Buffer
	groupLayout map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipeLayouts map[gpucore.PipelineLayoutID]hal.PipelineLayout
	pipelines   map[gpucore.ComputePipelineID]hal.ComputePipeline
	bindGroups  map[gpucore.BindGroupID]hal.BindGroup

	// markers maps a marker to the queue submission index it waits for.
	markers map[gpucore.FenceID]uint64

	pending    []*recordedPass
	submitted  []hal.CommandBuffer
	lastSubmit uint64

	contextReleased bool
	destroyed       bool
}

func newState(p *Platform, inst *sharedInstance, device hal.Device, queue hal.Queue, label string) *state {
	return &state{
		p:           p,
		inst:        inst,
		label:       label,
		device:      device,
		queue:       queue,
		shaders:     make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		buffers:     make(map[gpucore.BufferID]hal.Buffer),
		groupLayout: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipeLayouts: make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		pipelines:   make(map[gpucore.ComputePipelineID]hal.ComputePipeline),
		bindGroups:  make(map[gpucore.BindGroupID]hal.BindGroup),
		markers:     make(map[gpucore.FenceID]uint64),
	}
}

// newID must be called with mu held.
func (s *state) newID() uint64 {
	s.nextID++
	return s.nextID
}

// Device implements gpucore.Device over a hal.Device.
type Device struct {
	s *state
}

// CreateShaderModule creates a shader module from SPIR-V words.
func (d *Device) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return gpucore.InvalidID, ErrDeviceReleased
	}
	module, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create shader module %q: %w", label, err)
	}
	id := gpucore.ShaderModuleID(s.newID())
	s.shaders[id] = module
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.shaders[id]; ok {
		s.device.DestroyShaderModule(m)
		delete(s.shaders, id)
	}
}

// CreateBuffer creates a buffer.
func (d *Device) CreateBuffer(size uint64, usage gpucore.BufferUsage, label string) (gpucore.BufferID, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return gpucore.InvalidID, ErrDeviceReleased
	}
	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create buffer %q: %w", label, err)
	}
	id := gpucore.BufferID(s.newID())
	s.buffers[id] = buf
	return id, nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buffers[id]; ok {
		s.device.DestroyBuffer(b)
		delete(s.buffers, id)
	}
}

// CreateBindGroupLayout creates a compute-visible bind group layout.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return gpucore.InvalidID, ErrDeviceReleased
	}
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		bt, err := convertBindingType(e.Type)
		if err != nil {
			return gpucore.InvalidID, err
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: bt},
		})
	}
	layout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create bind group layout %q: %w", desc.Label, err)
	}
	id := gpucore.BindGroupLayoutID(s.newID())
	s.groupLayout[id] = layout
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.groupLayout[id]; ok {
		s.device.DestroyBindGroupLayout(l)
		delete(s.groupLayout, id)
	}
}

// CreatePipelineLayout creates a pipeline layout from bind group layouts.
func (d *Device) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID, label string) (gpucore.PipelineLayoutID, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return gpucore.InvalidID, ErrDeviceReleased
	}
	groups := make([]hal.BindGroupLayout, 0, len(layouts))
	for _, id := range layouts {
		l, ok := s.groupLayout[id]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("halgpu: pipeline layout %q: unknown bind group layout %d", label, id)
		}
		groups = append(groups, l)
	}
	layout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: groups,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create pipeline layout %q: %w", label, err)
	}
	id := gpucore.PipelineLayoutID(s.newID())
	s.pipeLayouts[id] = layout
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.pipeLayouts[id]; ok {
		s.device.DestroyPipelineLayout(l)
		delete(s.pipeLayouts, id)
	}
}

// CreateComputePipeline creates a compute pipeline.
func (d *Device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return gpucore.InvalidID, ErrDeviceReleased
	}
	module, ok := s.shaders[desc.ShaderModule]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("halgpu: pipeline %q: unknown shader module %d", desc.Label, desc.ShaderModule)
	}
	layout, ok := s.pipeLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("halgpu: pipeline %q: unknown pipeline layout %d", desc.Label, desc.Layout)
	}
	entry := desc.EntryPoint
	if entry == "" {
		entry = "main"
	}
	pipeline, err := s.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Compute: hal.ComputeState{Module: module, EntryPoint: entry},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create compute pipeline %q: %w", desc.Label, err)
	}
	id := gpucore.ComputePipelineID(s.newID())
	s.pipelines[id] = pipeline
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (d *Device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if pl, ok := s.pipelines[id]; ok {
		s.device.DestroyComputePipeline(pl)
		delete(s.pipelines, id)
	}
}

// CreateBindGroup binds buffers to a layout.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return gpucore.InvalidID, ErrDeviceReleased
	}
	layout, ok := s.groupLayout[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("halgpu: bind group %q: unknown layout %d", desc.Label, desc.Layout)
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		buf, ok := s.buffers[e.Buffer]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("halgpu: bind group %q: unknown buffer %d", desc.Label, e.Buffer)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  e.Binding,
			Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: e.Offset, Size: e.Size},
		})
	}
	group, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: create bind group %q: %w", desc.Label, err)
	}
	id := gpucore.BindGroupID(s.newID())
	s.bindGroups[id] = group
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	s := d.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.bindGroups[id]; ok {
		s.device.DestroyBindGroup(g)
		delete(s.bindGroups, id)
	}
}

// Destroy destroys any resource still alive and then the device itself.
// The hal instance is destroyed with the last reference to it.
func (d *Device) Destroy() {
	s := d.s
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	leaked := len(s.bindGroups) + len(s.pipelines) + len(s.pipeLayouts) +
		len(s.groupLayout) + len(s.shaders) + len(s.buffers)
	for id, g := range s.bindGroups {
		s.device.DestroyBindGroup(g)
		delete(s.bindGroups, id)
	}
	for id, pl := range s.pipelines {
		s.device.DestroyComputePipeline(pl)
		delete(s.pipelines, id)
	}
	for id, l := range s.pipeLayouts {
		s.device.DestroyPipelineLayout(l)
		delete(s.pipeLayouts, id)
	}
	for id, l := range s.groupLayout {
		s.device.DestroyBindGroupLayout(l)
		delete(s.groupLayout, id)
	}
	for id, m := range s.shaders {
		s.device.DestroyShaderModule(m)
		delete(s.shaders, id)
	}
	for id, b := range s.buffers {
		s.device.DestroyBuffer(b)
		delete(s.buffers, id)
	}
	s.releaseCommandsLocked()
	s.device.Destroy()
	s.mu.Unlock()

	if leaked > 0 {
		s.p.log().Warn("halgpu: device destroyed with live resources", "count", leaked)
	}
	s.inst.release()
}

func convertBufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	if u&gpucore.BufferUsageStorage != 0 {
		out |= gputypes.BufferUsageStorage
	}
	return out
}

func convertBindingType(t gpucore.BindingType) (gputypes.BufferBindingType, error) {
	switch t {
	case gpucore.BindingTypeUniformBuffer:
		return gputypes.BufferBindingTypeUniform, nil
	case gpucore.BindingTypeStorageBuffer:
		return gputypes.BufferBindingTypeStorage, nil
	default:
		return 0, fmt.Errorf("halgpu: unsupported binding type %d", t)
	}
}
