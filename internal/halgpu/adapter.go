// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/wgpu/hal"
)

type factory struct {
	p        *Platform
	inst     *sharedInstance
	adapters []hal.ExposedAdapter
	once     sync.Once
}

func (f *factory) Adapter(index int) (gpucore.Adapter, error) {
	if index < 0 || index >= len(f.adapters) {
		return nil, gpucore.ErrEndOfList
	}
	if !f.inst.alive() {
		return nil, fmt.Errorf("halgpu: adapter %d: instance released", index)
	}
	f.inst.acquire()
	return &adapter{p: f.p, inst: f.inst, exposed: f.adapters[index]}, nil
}

func (f *factory) Release() {
	f.once.Do(f.inst.release)
}

type adapter struct {
	p       *Platform
	inst    *sharedInstance
	exposed hal.ExposedAdapter
	once    sync.Once
}

func (a *adapter) Info() gpucore.AdapterInfo {
	name := a.exposed.Info.Name
	return gpucore.AdapterInfo{
		Name:       name,
		Vendor:     vendorFromName(name),
		DeviceType: fmt.Sprint(a.exposed.Info.DeviceType),
	}
}

// Open opens a device with at least the compute limits in req.
func (a *adapter) Open(req gpucore.DeviceRequest) (gpucore.Device, gpucore.Context, error) {
	limits := gputypes.DefaultLimits()
	if req.WorkgroupSizeX > limits.MaxComputeWorkgroupSizeX {
		limits.MaxComputeWorkgroupSizeX = req.WorkgroupSizeX
	}
	if req.InvocationsPerWorkgroup > limits.MaxComputeInvocationsPerWorkgroup {
		limits.MaxComputeInvocationsPerWorkgroup = req.InvocationsPerWorkgroup
	}

	openDev, err := a.exposed.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		return nil, nil, fmt.Errorf("halgpu: open device on %q: %w", a.exposed.Info.Name, err)
	}

	a.inst.acquire()
	s := newState(a.p, a.inst, openDev.Device, openDev.Queue, req.Label)
	a.p.log().Info("halgpu: device opened",
		"adapter", a.exposed.Info.Name,
		"workgroup_x", limits.MaxComputeWorkgroupSizeX,
		"invocations", limits.MaxComputeInvocationsPerWorkgroup)
	return &Device{s: s}, &Context{s: s}, nil
}

func (a *adapter) Release() {
	a.once.Do(a.inst.release)
}

// vendorFromName derives a vendor token from an adapter description.
func vendorFromName(name string) string {
	upper := strings.ToUpper(name)
	for _, v := range []string{"NVIDIA", "AMD", "INTEL", "APPLE", "QUALCOMM"} {
		if strings.Contains(upper, v) {
			return v
		}
	}
	if strings.Contains(upper, "RADEON") {
		return "AMD"
	}
	return ""
}
