// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Context implements gpucore.Context over a hal.Queue.
//
// Compute passes are recorded on the host and encoded into one command
// buffer per Flush. Submitted command buffers are kept until Release,
// since the GPU may still be executing them.
type Context struct {
	s *state
}

type passOpKind uint8

const (
	opSetPipeline passOpKind = iota
	opSetBindGroup
	opDispatch
)

type passOp struct {
	kind     passOpKind
	pipeline hal.ComputePipeline
	index    uint32
	group    hal.BindGroup
	x, y, z  uint32
}

type recordedPass struct {
	label string
	ops   []passOp
	ended bool
	err   error
}

// WriteBuffer uploads data through the queue.
func (c *Context) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.contextReleased {
		return ErrDeviceReleased
	}
	buf, ok := s.buffers[id]
	if !ok {
		return fmt.Errorf("halgpu: write: unknown buffer %d", id)
	}
	if err := s.queue.WriteBuffer(buf, offset, data); err != nil {
		return fmt.Errorf("halgpu: write buffer %d: %w", id, err)
	}
	return nil
}

// BeginComputePass starts recording a compute pass.
func (c *Context) BeginComputePass(label string) (gpucore.ComputePassEncoder, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.contextReleased {
		return nil, ErrDeviceReleased
	}
	pass := &recordedPass{label: label}
	s.pending = append(s.pending, pass)
	return &passEncoder{s: s, pass: pass}, nil
}

// Flush encodes every ended pass and submits the command buffer without
// waiting for it.
func (c *Context) Flush() error {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.contextReleased {
		return ErrDeviceReleased
	}
	if len(s.pending) == 0 {
		return nil
	}
	passes := s.pending
	s.pending = nil
	for _, p := range passes {
		if p.err != nil {
			return fmt.Errorf("halgpu: pass %q: %w", p.label, p.err)
		}
		if !p.ended {
			return fmt.Errorf("halgpu: pass %q was not ended", p.label)
		}
	}

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: s.label + "_encoder"})
	if err != nil {
		return fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(s.label); err != nil {
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	for _, p := range passes {
		computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: p.label})
		for _, op := range p.ops {
			switch op.kind {
			case opSetPipeline:
				computePass.SetPipeline(op.pipeline)
			case opSetBindGroup:
				computePass.SetBindGroup(op.index, op.group, nil)
			case opDispatch:
				computePass.Dispatch(op.x, op.y, op.z)
			}
		}
		computePass.End()
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	s.submitted = append(s.submitted, cmdBuf)

	index, err := s.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	s.lastSubmit = index
	s.p.log().Debug("halgpu: flushed", "passes", len(passes), "submission", index)
	return nil
}

// SubmitMarker submits an empty batch. The marker signals once the queue
// reports that submission, and so every earlier one, as completed.
func (c *Context) SubmitMarker() (gpucore.FenceID, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.contextReleased {
		return gpucore.InvalidID, ErrDeviceReleased
	}
	index, err := s.queue.Submit(nil)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("halgpu: submit marker: %w", err)
	}
	// Backends that skip empty batches may hand back an index that does not
	// cover the last flush.
	if index < s.lastSubmit {
		index = s.lastSubmit
	}
	s.lastSubmit = index
	id := gpucore.FenceID(s.newID())
	s.markers[id] = index
	return id, nil
}

// MarkerSignaled polls a marker without blocking.
func (c *Context) MarkerSignaled(id gpucore.FenceID) (bool, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return false, ErrDeviceReleased
	}
	index, ok := s.markers[id]
	if !ok {
		return false, fmt.Errorf("halgpu: unknown marker %d", id)
	}
	return s.queue.PollCompleted() >= index, nil
}

// ReleaseMarker forgets a marker.
func (c *Context) ReleaseMarker(id gpucore.FenceID) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, id)
}

// Release frees retained command buffers and markers.
func (c *Context) Release() {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.contextReleased {
		return
	}
	s.contextReleased = true
	if !s.destroyed {
		s.releaseCommandsLocked()
	}
}

// releaseCommandsLocked must be called with mu held on a live device.
func (s *state) releaseCommandsLocked() {
	for _, cb := range s.submitted {
		s.device.FreeCommandBuffer(cb)
	}
	s.submitted = nil
	clear(s.markers)
	s.pending = nil
}

type passEncoder struct {
	s    *state
	pass *recordedPass
}

func (e *passEncoder) SetPipeline(id gpucore.ComputePipelineID) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	pl, ok := e.s.pipelines[id]
	if !ok {
		e.fail(fmt.Errorf("unknown pipeline %d", id))
		return
	}
	e.pass.ops = append(e.pass.ops, passOp{kind: opSetPipeline, pipeline: pl})
}

func (e *passEncoder) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	g, ok := e.s.bindGroups[id]
	if !ok {
		e.fail(fmt.Errorf("unknown bind group %d", id))
		return
	}
	e.pass.ops = append(e.pass.ops, passOp{kind: opSetBindGroup, index: index, group: g})
}

func (e *passEncoder) Dispatch(x, y, z uint32) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.pass.ops = append(e.pass.ops, passOp{kind: opDispatch, x: x, y: y, z: z})
}

func (e *passEncoder) End() {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.pass.ended = true
}

// fail must be called with mu held.
func (e *passEncoder) fail(err error) {
	if e.pass.err == nil {
		e.pass.err = err
	}
}
