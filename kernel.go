// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	_ "embed"
)

//go:embed shaders/bounded.wgsl
var boundedKernelSource string

//go:embed shaders/unbounded.wgsl
var unboundedKernelSource string

// Kernel geometry shared by both kernels.
const (
	// WorkgroupSize is the lane count of one workgroup.
	WorkgroupSize = 1024

	// OutputElements is the number of u32 slots in the output buffer.
	OutputElements = 1024

	// DispatchGroups is the workgroup count on the X axis.
	DispatchGroups = 65535

	// ParamsSize is the size of the parameter uniform in bytes.
	ParamsSize = 16

	// EntryPoint is the kernel entry function.
	EntryPoint = "main"
)

// Kernel is the WGSL source of one stress kernel.
type Kernel struct {
	Name   string
	Source string
	// Bounded kernels read their iteration count from group 1, binding 0.
	Bounded bool
}

// BoundedKernel loops a caller-supplied number of times.
var BoundedKernel = Kernel{Name: "bounded", Source: boundedKernelSource, Bounded: true}

// UnboundedKernel never terminates.
var UnboundedKernel = Kernel{Name: "unbounded", Source: unboundedKernelSource}

// SelectKernel returns the kernel for a mode.
// Safe and Medium share the bounded kernel. Nuclear gets the unbounded one.
func SelectKernel(m Mode) Kernel {
	if m == Nuclear {
		return UnboundedKernel
	}
	return BoundedKernel
}
