// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"github.com/gogpu/gpupanic/internal/gpucore"
)

// Labels attached to every GPU object the engine creates.
const (
	deviceLabel         = "gpupanic"
	kernelLabel         = "gpupanic_kernel"
	outputLayoutLabel   = "gpupanic_output_layout"
	paramsLayoutLabel   = "gpupanic_params_layout"
	pipelineLayoutLabel = "gpupanic_pipeline_layout"
	pipelineLabel       = "gpupanic_pipeline"
	outputBufferLabel   = "gpupanic_output"
	viewLabel           = "gpupanic_view"
	paramsBufferLabel   = "gpupanic_params"
	paramsBindingLabel  = "gpupanic_params_binding"
	computePassLabel    = "gpupanic_pass"
)

// shaderObject groups the handles that make up the executable kernel.
type shaderObject struct {
	module         gpucore.ShaderModuleID
	outputLayout   gpucore.BindGroupLayoutID
	paramsLayout   gpucore.BindGroupLayoutID
	pipelineLayout gpucore.PipelineLayoutID
	pipeline       gpucore.ComputePipelineID
}

// Resources holds every handle created for one run.
//
// Any handle may be absent after a failed build. Release frees the present
// ones exactly once.
type Resources struct {
	mode Mode

	device  gpucore.Device
	context gpucore.Context

	shader shaderObject

	output gpucore.BufferID
	// view exposes output to the kernel as bind group 0.
	view gpucore.BindGroupID

	params gpucore.BufferID
	// paramsBinding is bind group 1, bounded modes only.
	paramsBinding gpucore.BindGroupID

	released bool
}

// Mode returns the mode the resources were built for.
func (r *Resources) Mode() Mode {
	if r == nil {
		return 0
	}
	return r.mode
}

// Context returns the immediate context, or nil if the device was never opened.
func (r *Resources) Context() gpucore.Context {
	if r == nil {
		return nil
	}
	return r.context
}

// HasParams reports whether the bounded-mode parameter binding exists.
func (r *Resources) HasParams() bool {
	return r != nil && r.paramsBinding != gpucore.InvalidID
}

// Release frees every present handle in dependency order: view, output
// buffer, parameter binding, parameter buffer, shader object, context,
// device. It is safe on a nil receiver and on repeated calls.
func (r *Resources) Release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	log := Logger()

	if d := r.device; d != nil {
		if r.view != gpucore.InvalidID {
			d.DestroyBindGroup(r.view)
		}
		if r.output != gpucore.InvalidID {
			d.DestroyBuffer(r.output)
		}
		if r.paramsBinding != gpucore.InvalidID {
			d.DestroyBindGroup(r.paramsBinding)
		}
		if r.params != gpucore.InvalidID {
			d.DestroyBuffer(r.params)
		}
		r.shader.release(d)
	}
	r.view, r.output = gpucore.InvalidID, gpucore.InvalidID
	r.paramsBinding, r.params = gpucore.InvalidID, gpucore.InvalidID

	if r.context != nil {
		r.context.Release()
		r.context = nil
	}
	if r.device != nil {
		r.device.Destroy()
		r.device = nil
	}
	log.Debug("gpupanic: resources released", "mode", r.mode)
}

func (s *shaderObject) release(d gpucore.Device) {
	if s.pipeline != gpucore.InvalidID {
		d.DestroyComputePipeline(s.pipeline)
	}
	if s.pipelineLayout != gpucore.InvalidID {
		d.DestroyPipelineLayout(s.pipelineLayout)
	}
	if s.paramsLayout != gpucore.InvalidID {
		d.DestroyBindGroupLayout(s.paramsLayout)
	}
	if s.outputLayout != gpucore.InvalidID {
		d.DestroyBindGroupLayout(s.outputLayout)
	}
	if s.module != gpucore.InvalidID {
		d.DestroyShaderModule(s.module)
	}
	*s = shaderObject{}
}
