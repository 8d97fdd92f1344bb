// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gpupanic/internal/gpucore"
)

// ErrInvalidMode is returned for a Mode outside Safe, Medium and Nuclear.
var ErrInvalidMode = errors.New("gpupanic: invalid mode")

// outputBufferSize is the byte size of the 1024-element u32 output buffer.
const outputBufferSize = OutputElements * 4

// Build opens a device on adapter and creates everything needed to dispatch
// the kernel for mode. The adapter is released once the device open has been
// attempted.
//
// On failure Build returns the partially built resources together with a
// *BuildError. The caller must Release the resources in both cases.
func Build(adapter gpucore.Adapter, compiler gpucore.Compiler, mode Mode) (*Resources, error) {
	return build(adapter, compiler, mode, nil)
}

func build(adapter gpucore.Adapter, compiler gpucore.Compiler, mode Mode, obs Observer) (*Resources, error) {
	if !mode.Valid() {
		if adapter != nil {
			adapter.Release()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	log := Logger()
	res := &Resources{mode: mode}

	obs.emit(Event{Kind: EventDeviceCreating, Mode: mode})
	device, ctx, err := adapter.Open(gpucore.DeviceRequest{
		Label:                   deviceLabel,
		WorkgroupSizeX:          WorkgroupSize,
		InvocationsPerWorkgroup: WorkgroupSize,
	})
	adapter.Release()
	if err != nil {
		return res, newBuildError(StageDevice, err)
	}
	res.device, res.context = device, ctx
	obs.emit(Event{Kind: EventDeviceCreated, Mode: mode})

	kernel := SelectKernel(mode)
	obs.emit(Event{Kind: EventCompiling, Mode: mode})
	spirv, err := compiler.Compile(kernel.Source)
	if err != nil {
		be := newBuildError(StageCompile, err)
		log.Warn("gpupanic: kernel diagnostics", "kernel", kernel.Name, "diagnostics", be.Diagnostics)
		return res, be
	}

	if err := res.createShader(kernel, spirv); err != nil {
		return res, newBuildError(StageShader, err)
	}
	log.Debug("gpupanic: pipeline created", "kernel", kernel.Name, "words", len(spirv))
	obs.emit(Event{Kind: EventKernelReady, Mode: mode})

	if err := res.createOutput(); err != nil {
		return res, newBuildError(StageOutput, err)
	}

	if iterations, ok := mode.Iterations(); ok {
		if err := res.createParams(iterations); err != nil {
			return res, newBuildError(StageParams, err)
		}
		log.Debug("gpupanic: parameters bound", "iterations", iterations)
	}
	return res, nil
}

// createShader creates the shader module, layouts and compute pipeline.
func (r *Resources) createShader(kernel Kernel, spirv []uint32) error {
	d := r.device
	var err error

	r.shader.module, err = d.CreateShaderModule(spirv, kernelLabel)
	if err != nil {
		return err
	}
	r.shader.outputLayout, err = d.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: outputLayoutLabel,
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeStorageBuffer, MinBindingSize: outputBufferSize},
		},
	})
	if err != nil {
		return err
	}
	layouts := []gpucore.BindGroupLayoutID{r.shader.outputLayout}
	if kernel.Bounded {
		r.shader.paramsLayout, err = d.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
			Label: paramsLayoutLabel,
			Entries: []gpucore.BindGroupLayoutEntry{
				{Binding: 0, Type: gpucore.BindingTypeUniformBuffer, MinBindingSize: ParamsSize},
			},
		})
		if err != nil {
			return err
		}
		layouts = append(layouts, r.shader.paramsLayout)
	}
	r.shader.pipelineLayout, err = d.CreatePipelineLayout(layouts, pipelineLayoutLabel)
	if err != nil {
		return err
	}
	r.shader.pipeline, err = d.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        pipelineLabel,
		Layout:       r.shader.pipelineLayout,
		ShaderModule: r.shader.module,
		EntryPoint:   EntryPoint,
	})
	return err
}

// createOutput allocates the output buffer and its writable view.
func (r *Resources) createOutput() error {
	var err error
	r.output, err = r.device.CreateBuffer(outputBufferSize,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc, outputBufferLabel)
	if err != nil {
		return err
	}
	r.view, err = r.device.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   viewLabel,
		Layout:  r.shader.outputLayout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: r.output, Size: outputBufferSize}},
	})
	return err
}

// createParams allocates the uniform, uploads the iteration count and binds
// it to the constant-parameter slot.
func (r *Resources) createParams(iterations uint32) error {
	var err error
	r.params, err = r.device.CreateBuffer(ParamsSize,
		gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst, paramsBufferLabel)
	if err != nil {
		return err
	}
	if err := r.context.WriteBuffer(r.params, 0, encodeParams(iterations)); err != nil {
		return err
	}
	r.paramsBinding, err = r.device.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   paramsBindingLabel,
		Layout:  r.shader.paramsLayout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: r.params, Size: ParamsSize}},
	})
	return err
}

// encodeParams lays out the 16-byte parameter block: the iteration count
// followed by padding.
func encodeParams(iterations uint32) []byte {
	buf := make([]byte, ParamsSize)
	binary.LittleEndian.PutUint32(buf, iterations)
	return buf
}
