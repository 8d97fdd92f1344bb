// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"fmt"

	"github.com/gogpu/gpupanic/internal/gpucore"
)

// Dispatch records one compute pass of DispatchGroups×1×1 workgroups over
// the built resources and flushes it to the device without waiting.
func Dispatch(res *Resources) error {
	if res == nil || res.context == nil || res.shader.pipeline == gpucore.InvalidID || res.view == gpucore.InvalidID {
		return ErrNilResources
	}
	if res.mode.Bounded() && !res.HasParams() {
		return fmt.Errorf("%w: %v mode without parameter binding", ErrNilResources, res.mode)
	}

	pass, err := res.context.BeginComputePass(computePassLabel)
	if err != nil {
		return fmt.Errorf("%w: begin pass: %w", ErrDispatch, err)
	}
	pass.SetPipeline(res.shader.pipeline)
	pass.SetBindGroup(0, res.view)
	if res.HasParams() {
		pass.SetBindGroup(1, res.paramsBinding)
	}
	pass.Dispatch(DispatchGroups, 1, 1)
	pass.End()

	if err := res.context.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrDispatch, err)
	}
	Logger().Info("gpupanic: workload dispatched", "mode", res.mode, "groups", DispatchGroups)
	return nil
}

// countdown announces the mode and ticks down before dispatch.
func countdown(mode Mode, o *options) {
	o.observer.emit(Event{Kind: EventArmed, Mode: mode})
	for n := o.countdown; n > 0; n-- {
		o.observer.emit(Event{Kind: EventCountdown, Mode: mode, Remaining: n})
		o.sleep(o.countdownTick)
	}
}
