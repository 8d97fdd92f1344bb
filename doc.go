// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpupanic deliberately hangs a discrete GPU and watches whether the
// driver watchdog brings it back.
//
// # Overview
//
// The engine picks the first adapter whose description contains a vendor
// token (NVIDIA by default), compiles a compute kernel chosen by severity
// [Mode], dispatches 65535 workgroups of 1024 lanes and then waits:
//
//   - [Safe] and [Medium] run a bounded LCG loop (50M and 500M iterations)
//     and sleep for a fixed recovery window.
//   - [Nuclear] runs a loop with no exit and polls a completion marker
//     forever. Only a device reset ends it.
//
// # Quick Start
//
//	platform, err := halgpu.New()
//	if err != nil {
//	    return err
//	}
//	eng := gpupanic.New(platform, gpupanic.WithObserver(func(e gpupanic.Event) {
//	    fmt.Println(e.Kind)
//	}))
//	result, err := eng.Run(ctx, gpupanic.Safe)
//
// # Architecture
//
// The engine only talks to the interfaces in internal/gpucore:
//   - Adapter enumeration: [FindTargetAdapter], [ListAdapters]
//   - Kernel selection: [SelectKernel]
//   - Pipeline construction: [Build]
//   - Dispatch: [Dispatch]
//   - Completion monitoring: [Monitor]
//   - Teardown: [Resources.Release]
//
// # Logging
//
// gpupanic is silent by default. Call [SetLogger] to enable structured
// logging via log/slog.
package gpupanic
