// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "errors"

// ErrEndOfList is returned by Factory.Adapter when the index is past the
// last adapter. Enumeration stops at the first index that returns it.
var ErrEndOfList = errors.New("gpucore: end of adapter list")

// Platform is the entry point into a GPU backend.
//
// NewFactory is called once per invocation; the returned factory is released
// as soon as enumeration is over. Compiler returns the shader compiler that
// produces the bytecode accepted by Device.CreateShaderModule.
type Platform interface {
	NewFactory() (Factory, error)
	Compiler() Compiler
}

// Factory enumerates the adapters exposed by the platform.
type Factory interface {
	// Adapter returns the adapter at index. It returns ErrEndOfList once
	// index is past the last adapter. Every returned adapter must be released.
	Adapter(index int) (Adapter, error)

	// Release drops the factory. Adapters and devices obtained from it
	// stay valid.
	Release()
}

// Adapter is a handle to one physical or virtual GPU.
type Adapter interface {
	// Info describes the adapter.
	Info() AdapterInfo

	// Open creates a compute-capable device and its immediate context.
	Open(req DeviceRequest) (Device, Context, error)

	// Release drops the adapter handle. Devices opened from it stay valid.
	Release()
}

// Compiler turns kernel source text into device bytecode.
//
// On failure the returned error carries the compiler diagnostics as its
// message.
type Compiler interface {
	Compile(source string) ([]uint32, error)
}

// Device owns every GPU object created for one invocation.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying an unknown or already destroyed ID is a no-op
//   - IDs become invalid after destruction and must not be reused
type Device interface {
	// === Shader Compilation ===

	// CreateShaderModule creates a shader module from SPIR-V bytecode.
	CreateShaderModule(spirv []uint32, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Buffer Management ===

	// CreateBuffer creates a GPU buffer of size bytes.
	CreateBuffer(size uint64, usage BufferUsage, label string) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// === Pipeline Management ===

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout combines bind group layouts, in group order.
	CreatePipelineLayout(layouts []BindGroupLayoutID, label string) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(id ComputePipelineID)

	// CreateBindGroup binds buffers to a bind group layout.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// Destroy releases the device itself.
	Destroy()
}

// Context records and submits work to a device's queue.
type Context interface {
	// WriteBuffer uploads data into a buffer at offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// BeginComputePass starts recording a compute pass. The pass is
	// submitted by Flush after End is called.
	BeginComputePass(label string) (ComputePassEncoder, error)

	// Flush submits everything recorded so far without waiting for it.
	Flush() error

	// SubmitMarker enqueues a completion marker behind all submitted work.
	SubmitMarker() (FenceID, error)

	// MarkerSignaled reports whether the GPU has reached the marker.
	// It never blocks.
	MarkerSignaled(id FenceID) (bool, error)

	// ReleaseMarker destroys a completion marker.
	ReleaseMarker(id FenceID)

	// Release drops the context and any command buffers it retains.
	Release()
}

// ComputePassEncoder records compute commands.
//
// The encoder is single-use and cannot be reused after End().
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the specified index.
	SetBindGroup(index uint32, group BindGroupID)

	// Dispatch dispatches compute workgroups.
	// Total threads = x * y * z * workgroup_size.
	Dispatch(x, y, z uint32)

	// End finishes the compute pass.
	End()
}
