// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package console

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpupanic"
)

// ModeBox prints the severity box for m.
func (p *Printer) ModeBox(m gpupanic.Mode) {
	switch m {
	case gpupanic.Nuclear:
		p.boxed(p.danger, "!!! NUCLEAR MODE !!!", "only hard reboot will save you")
	case gpupanic.Medium:
		p.boxed(p.box, "MEDIUM MODE", "~10-20 sec hang, recovers")
	case gpupanic.Safe:
		p.boxed(p.box, "SAFE MODE", "~2 sec hang, recovers")
	}
}

// Observe renders engine progress. It is meant to be passed to
// gpupanic.WithObserver.
func (p *Printer) Observe(e gpupanic.Event) {
	switch e.Kind {
	case gpupanic.EventAdapterFound:
		if e.Index == 0 {
			fmt.Fprintln(p.out)
			p.line("GPUs found:")
			p.line("-----------")
		}
		p.line("[%d] %s", e.Index, e.Adapter)
		if e.Selected {
			p.line("     ^ this one will die")
		}
	case gpupanic.EventNoTarget:
		p.Warnf("no %s gpu found", p.vendor)
		p.Warnf("need an %s gpu to continue", p.vendor)
	case gpupanic.EventDeviceCreating:
		fmt.Fprintln(p.out)
		p.Infof("creating device...")
	case gpupanic.EventDeviceCreated:
		p.Okf("device created")
	case gpupanic.EventCompiling:
		p.Infof("compiling shader...")
	case gpupanic.EventKernelReady:
		p.Okf("shader ready")
	case gpupanic.EventBuildFailed:
		var be *gpupanic.BuildError
		if errors.As(e.Err, &be) && be.Stage == gpupanic.StageCompile {
			p.Warnf("shader error: %s", be.Diagnostics)
			return
		}
		p.Error(e.Err)
	case gpupanic.EventArmed:
		p.ModeBox(e.Mode)
		p.Infof("sending shader to gpu...")
	case gpupanic.EventCountdown:
		p.Infof("%d...", e.Remaining)
	case gpupanic.EventDispatched:
		fmt.Fprintln(p.out)
		p.line(">>> GPU GO BRRRR <<<")
		fmt.Fprintln(p.out)
	case gpupanic.EventWaiting:
		p.Infof("gpu is working... waiting")
	case gpupanic.EventHung:
		p.Infof("gpu is gone. fans go crazy. goodbye.")
	case gpupanic.EventRecovered:
		if e.Mode.Bounded() {
			p.Okf("should be back now (TDR saved you)")
		} else {
			p.Okf("gpu answered again")
		}
	case gpupanic.EventUnrecoverable:
		if e.Err != nil {
			p.Warnf("gpu did not come back: %v", e.Err)
		} else {
			p.Warnf("gpu did not come back")
		}
	case gpupanic.EventCleanup:
		fmt.Fprintln(p.out)
		p.Infof("cleaning up...")
	case gpupanic.EventDone:
		p.Okf("done")
	}
}
