// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the GPU platform abstraction used by gpupanic.
//
// The engine in the root package never talks to a graphics API directly.
// It goes through the interfaces declared here:
//
//	               +-----------------+
//	               |    gpupanic     |
//	               |    (Engine)     |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|     halgpu      |          |   gpucoretest   |
//	|  (hal.Device)   |          | (fake platform) |
//	+--------+--------+          +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	|   (Pure Go)     |
//	+-----------------+
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [BindGroupID], etc.).
// The [Device] interface provides creation and destruction methods for each
// resource type. Implementations are responsible for tracking the mapping
// between IDs and actual GPU resources.
//
// Adapters and the factory are handles too: every [Adapter] returned by
// [Factory.Adapter] must be released, whether or not a device is opened on it.
package gpucore
