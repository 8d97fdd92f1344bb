// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command gpupanic hangs the discrete GPU on purpose to exercise driver
// watchdog recovery.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gogpu/gpupanic"
	"github.com/gogpu/gpupanic/internal/cli"
	"github.com/gogpu/gpupanic/internal/config"
	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/gpupanic/internal/halgpu"
	"github.com/gogpu/gpupanic/internal/tdr"
	"github.com/gogpu/gpupanic/internal/vram"
)

func main() {
	os.Exit(run())
}

func run() int {
	// SIGINT and SIGTERM keep their default action. Nothing on the default
	// path watches the context, so a handler would only swallow Ctrl+C.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring %s: %v\n", config.DefaultFile, err)
	}

	return cli.Run(context.Background(), os.Args, cli.Deps{
		Platform: func() (gpucore.Platform, error) { return halgpu.New() },
		Watchdog: tdr.New(),
		Probe:    memoryProbe,
		Config:   cfg,
	})
}

// memoryProbe collects adapter memory from NVML; a nil probe leaves sizes
// unknown.
func memoryProbe() gpupanic.MemoryProbe {
	p, err := vram.Collect(vram.NVML())
	if err != nil {
		gpupanic.Logger().Debug("gpupanic: no memory probe", "err", err)
		return nil
	}
	return p
}
