// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/wgpu/hal/noop"
)

const testKernel = `
@group(0) @binding(0) var<storage, read_write> output: array<u32, 64>;

@compute @workgroup_size(64, 1, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    output[id.x % 64u] = id.x * 3u;
}
`

// newNoopPlatform returns a platform over the noop hal backend.
func newNoopPlatform(t *testing.T) *Platform {
	t.Helper()
	return newPlatform(&noop.API{})
}

// openNoopDevice opens a device on the first noop adapter.
func openNoopDevice(t *testing.T, p *Platform) (gpucore.Factory, *Device, *Context) {
	t.Helper()
	f, err := p.NewFactory()
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	a, err := f.Adapter(0)
	if err != nil {
		f.Release()
		t.Fatalf("Adapter(0) failed: %v", err)
	}
	defer a.Release()
	dev, ctx, err := a.Open(gpucore.DeviceRequest{Label: "test", WorkgroupSizeX: 1024, InvocationsPerWorkgroup: 1024})
	if err != nil {
		f.Release()
		t.Fatalf("Open failed: %v", err)
	}
	return f, dev.(*Device), ctx.(*Context)
}

func TestFactoryEnumeratesUntilEndOfList(t *testing.T) {
	p := newNoopPlatform(t)
	f, err := p.NewFactory()
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	defer f.Release()

	n := 0
	for {
		a, err := f.Adapter(n)
		if errors.Is(err, gpucore.ErrEndOfList) {
			break
		}
		if err != nil {
			t.Fatalf("Adapter(%d) failed: %v", n, err)
		}
		if a.Info().Name == "" {
			t.Errorf("adapter %d has empty name", n)
		}
		a.Release()
		n++
		if n > 64 {
			t.Fatal("enumeration did not terminate")
		}
	}
	if n == 0 {
		t.Fatal("noop backend exposed no adapters")
	}
	if _, err := f.Adapter(-1); !errors.Is(err, gpucore.ErrEndOfList) {
		t.Errorf("Adapter(-1) error = %v, want ErrEndOfList", err)
	}
}

func TestInstanceOutlivesFactory(t *testing.T) {
	p := newNoopPlatform(t)
	f, dev, ctx := openNoopDevice(t, p)
	shared := dev.s.inst

	f.Release()
	f.Release()
	if !shared.alive() {
		t.Fatal("instance destroyed while a device is open")
	}

	buf, err := dev.CreateBuffer(256, gpucore.BufferUsageStorage, "after_factory_release")
	if err != nil {
		t.Fatalf("CreateBuffer after factory release failed: %v", err)
	}
	dev.DestroyBuffer(buf)

	ctx.Release()
	dev.Destroy()
	if shared.alive() {
		t.Error("instance still alive after last reference was dropped")
	}
	dev.Destroy()
}

func TestComputeRoundTrip(t *testing.T) {
	p := newNoopPlatform(t)
	f, dev, ctx := openNoopDevice(t, p)
	f.Release()
	defer dev.Destroy()
	defer ctx.Release()

	spirv, err := p.Compiler().Compile(testKernel)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	module, err := dev.CreateShaderModule(spirv, "test_kernel")
	if err != nil {
		t.Fatalf("CreateShaderModule failed: %v", err)
	}
	layout, err := dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label:   "test_layout",
		Entries: []gpucore.BindGroupLayoutEntry{{Binding: 0, Type: gpucore.BindingTypeStorageBuffer}},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout failed: %v", err)
	}
	pipeLayout, err := dev.CreatePipelineLayout([]gpucore.BindGroupLayoutID{layout}, "test_pipe_layout")
	if err != nil {
		t.Fatalf("CreatePipelineLayout failed: %v", err)
	}
	pipeline, err := dev.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label: "test_pipeline", Layout: pipeLayout, ShaderModule: module, EntryPoint: "main",
	})
	if err != nil {
		t.Fatalf("CreateComputePipeline failed: %v", err)
	}
	buf, err := dev.CreateBuffer(256, gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst, "test_output")
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	group, err := dev.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   "test_group",
		Layout:  layout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Buffer: buf, Size: 256}},
	})
	if err != nil {
		t.Fatalf("CreateBindGroup failed: %v", err)
	}
	if err := ctx.WriteBuffer(buf, 0, make([]byte, 256)); err != nil {
		t.Fatalf("WriteBuffer failed: %v", err)
	}

	pass, err := ctx.BeginComputePass("test_pass")
	if err != nil {
		t.Fatalf("BeginComputePass failed: %v", err)
	}
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, group)
	pass.Dispatch(1, 1, 1)
	pass.End()
	if err := ctx.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := len(dev.s.submitted); got != 1 {
		t.Errorf("submitted command buffers = %d, want 1", got)
	}

	marker, err := ctx.SubmitMarker()
	if err != nil {
		t.Fatalf("SubmitMarker failed: %v", err)
	}
	// The noop queue completes every submission immediately.
	signaled, err := ctx.MarkerSignaled(marker)
	if err != nil {
		t.Errorf("MarkerSignaled failed: %v", err)
	}
	if !signaled {
		t.Error("marker not signaled on an idle queue")
	}
	if idx := dev.s.markers[marker]; idx <= 1 {
		t.Errorf("marker index = %d, want past the flush submission", idx)
	}
	ctx.ReleaseMarker(marker)
	ctx.ReleaseMarker(marker)
	if _, err := ctx.MarkerSignaled(marker); err == nil {
		t.Error("MarkerSignaled accepted a released marker")
	}

	dev.DestroyBindGroup(group)
	dev.DestroyBuffer(buf)
	dev.DestroyComputePipeline(pipeline)
	dev.DestroyPipelineLayout(pipeLayout)
	dev.DestroyBindGroupLayout(layout)
	dev.DestroyShaderModule(module)
	dev.DestroyShaderModule(module)
}

// foreignBuffer is a hal.Buffer the noop queue refuses to write.
type foreignBuffer struct{}

func (foreignBuffer) Destroy()              {}
func (foreignBuffer) NativeHandle() uintptr { return 0 }

func TestWriteBufferReportsQueueError(t *testing.T) {
	p := newNoopPlatform(t)
	f, dev, ctx := openNoopDevice(t, p)
	f.Release()
	defer dev.Destroy()
	defer ctx.Release()

	dev.s.mu.Lock()
	id := gpucore.BufferID(dev.s.newID())
	dev.s.buffers[id] = foreignBuffer{}
	dev.s.mu.Unlock()

	if err := ctx.WriteBuffer(id, 0, make([]byte, 16)); err == nil {
		t.Error("WriteBuffer swallowed the queue error")
	}
	dev.DestroyBuffer(id)
}

func TestFlushRejectsUnendedPass(t *testing.T) {
	p := newNoopPlatform(t)
	f, dev, ctx := openNoopDevice(t, p)
	f.Release()
	defer dev.Destroy()
	defer ctx.Release()

	pass, err := ctx.BeginComputePass("open_pass")
	if err != nil {
		t.Fatalf("BeginComputePass failed: %v", err)
	}
	pass.Dispatch(1, 1, 1)
	if err := ctx.Flush(); err == nil {
		t.Error("Flush accepted a pass that was never ended")
	}
}

func TestFlushRejectsUnknownPipeline(t *testing.T) {
	p := newNoopPlatform(t)
	f, dev, ctx := openNoopDevice(t, p)
	f.Release()
	defer dev.Destroy()
	defer ctx.Release()

	pass, err := ctx.BeginComputePass("bad_pass")
	if err != nil {
		t.Fatalf("BeginComputePass failed: %v", err)
	}
	pass.SetPipeline(gpucore.ComputePipelineID(999))
	pass.End()
	if err := ctx.Flush(); err == nil {
		t.Error("Flush accepted a pass with an unknown pipeline")
	}
}

func TestCallsAfterDestroy(t *testing.T) {
	p := newNoopPlatform(t)
	f, dev, ctx := openNoopDevice(t, p)
	f.Release()
	dev.Destroy()

	if _, err := dev.CreateBuffer(16, gpucore.BufferUsageUniform, "late"); !errors.Is(err, ErrDeviceReleased) {
		t.Errorf("CreateBuffer after Destroy: err = %v, want ErrDeviceReleased", err)
	}
	if err := ctx.Flush(); !errors.Is(err, ErrDeviceReleased) {
		t.Errorf("Flush after Destroy: err = %v, want ErrDeviceReleased", err)
	}
	ctx.Release()
}

func TestCompilerRejectsInvalidSource(t *testing.T) {
	_, err := Compiler{}.Compile("fn main( {")
	if err == nil {
		t.Fatal("Compile accepted invalid WGSL")
	}
	if err.Error() == "" {
		t.Error("compile error carries no diagnostics")
	}
}

func TestCompilerEmitsSPIRV(t *testing.T) {
	words, err := Compiler{}.Compile(testKernel)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(words) < 5 {
		t.Fatalf("SPIR-V too short: %d words", len(words))
	}
	if words[0] != 0x07230203 {
		t.Errorf("magic = %#x, want 0x07230203", words[0])
	}
}

func TestVendorFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"NVIDIA GeForce RTX 3080", "NVIDIA"},
		{"AMD Radeon(TM) Graphics", "AMD"},
		{"Radeon RX 6800", "AMD"},
		{"Intel(R) UHD Graphics 770", "INTEL"},
		{"llvmpipe (LLVM 15.0.7, 256 bits)", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vendorFromName(tt.name); got != tt.want {
				t.Errorf("vendorFromName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
