// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucoretest

import (
	"fmt"

	"github.com/gogpu/gpupanic/internal/gpucore"
)

type device struct {
	p  *Platform
	id uint64
}

func (d *device) make(kind Kind, label string) (uint64, error) {
	if err := d.p.fail(kind, label); err != nil {
		return gpucore.InvalidID, err
	}
	return d.p.Tracker().create(kind, label), nil
}

func (d *device) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if len(spirv) == 0 || spirv[0] != spirvMagic {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: not a SPIR-V module")
	}
	id, err := d.make(KindShaderModule, label)
	return gpucore.ShaderModuleID(id), err
}

func (d *device) DestroyShaderModule(id gpucore.ShaderModuleID) { d.p.Tracker().release(uint64(id)) }

func (d *device) CreateBuffer(size uint64, _ gpucore.BufferUsage, label string) (gpucore.BufferID, error) {
	if size == 0 {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: zero-sized buffer %q", label)
	}
	id, err := d.make(KindBuffer, label)
	return gpucore.BufferID(id), err
}

func (d *device) DestroyBuffer(id gpucore.BufferID) { d.p.Tracker().release(uint64(id)) }

func (d *device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	id, err := d.make(KindBindGroupLayout, desc.Label)
	return gpucore.BindGroupLayoutID(id), err
}

func (d *device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.p.Tracker().release(uint64(id))
}

func (d *device) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID, label string) (gpucore.PipelineLayoutID, error) {
	t := d.p.Tracker()
	for _, l := range layouts {
		if !t.isLive(uint64(l)) {
			return gpucore.InvalidID, fmt.Errorf("gpucoretest: bind group layout %d is not live", l)
		}
	}
	id, err := d.make(KindPipelineLayout, label)
	return gpucore.PipelineLayoutID(id), err
}

func (d *device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.p.Tracker().release(uint64(id))
}

func (d *device) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	t := d.p.Tracker()
	if !t.isLive(uint64(desc.ShaderModule)) || !t.isLive(uint64(desc.Layout)) {
		return gpucore.InvalidID, fmt.Errorf("gpucoretest: pipeline %q references released objects", desc.Label)
	}
	id, err := d.make(KindComputePipeline, desc.Label)
	return gpucore.ComputePipelineID(id), err
}

func (d *device) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	d.p.Tracker().release(uint64(id))
}

func (d *device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	t := d.p.Tracker()
	for _, e := range desc.Entries {
		if !t.isLive(uint64(e.Buffer)) {
			return gpucore.InvalidID, fmt.Errorf("gpucoretest: bind group %q references buffer %d", desc.Label, e.Buffer)
		}
	}
	id, err := d.make(KindBindGroup, desc.Label)
	return gpucore.BindGroupID(id), err
}

func (d *device) DestroyBindGroup(id gpucore.BindGroupID) { d.p.Tracker().release(uint64(id)) }

func (d *device) Destroy() { d.p.Tracker().release(d.id) }

type immediateContext struct {
	p       *Platform
	id      uint64
	pending []*Pass
	polls   int
}

func (c *immediateContext) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if err := c.p.failOp(OpWrite); err != nil {
		return err
	}
	t := c.p.Tracker()
	if !t.isLive(uint64(id)) {
		return fmt.Errorf("gpucoretest: write to dead buffer %d", id)
	}
	name := t.name(uint64(id))
	t.mu.Lock()
	t.writes = append(t.writes, Write{Buffer: name, Offset: offset, Data: append([]byte(nil), data...)})
	t.mu.Unlock()
	return nil
}

func (c *immediateContext) BeginComputePass(label string) (gpucore.ComputePassEncoder, error) {
	if err := c.p.failOp(OpPass); err != nil {
		return nil, err
	}
	pass := &Pass{Label: label, BindGroups: make(map[uint32]string)}
	c.pending = append(c.pending, pass)
	return &passEncoder{t: c.p.Tracker(), pass: pass}, nil
}

func (c *immediateContext) Flush() error {
	if err := c.p.failOp(OpFlush); err != nil {
		return err
	}
	t := c.p.Tracker()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushes++
	t.passes = append(t.passes, c.pending...)
	c.pending = nil
	return nil
}

func (c *immediateContext) SubmitMarker() (gpucore.FenceID, error) {
	if err := c.p.failOp(OpMarker); err != nil {
		return gpucore.InvalidID, err
	}
	return gpucore.FenceID(c.p.Tracker().create(KindFence, "")), nil
}

func (c *immediateContext) MarkerSignaled(id gpucore.FenceID) (bool, error) {
	t := c.p.Tracker()
	t.mu.Lock()
	t.polls++
	t.mu.Unlock()
	c.polls++
	switch {
	case c.p.MarkerNever:
		return false, nil
	case c.polls <= c.p.MarkerErrors:
		return false, ErrDeviceLost
	case c.polls <= c.p.MarkerErrors+c.p.MarkerPending:
		return false, nil
	}
	return true, nil
}

func (c *immediateContext) ReleaseMarker(id gpucore.FenceID) { c.p.Tracker().release(uint64(id)) }

func (c *immediateContext) Release() { c.p.Tracker().release(c.id) }

type passEncoder struct {
	t    *Tracker
	pass *Pass
}

func (e *passEncoder) SetPipeline(pipeline gpucore.ComputePipelineID) {
	e.pass.Pipeline = e.t.name(uint64(pipeline))
}

func (e *passEncoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	e.pass.BindGroups[index] = e.t.name(uint64(group))
}

func (e *passEncoder) Dispatch(x, y, z uint32) {
	e.pass.Dispatches = append(e.pass.Dispatches, [3]uint32{x, y, z})
}

func (e *passEncoder) End() { e.pass.Ended = true }
