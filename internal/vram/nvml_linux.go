// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux && cgo

package vram

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NVML returns the NVIDIA management library session.
func NVML() Library { return nvmlLibrary{} }

type nvmlLibrary struct{}

func returnErr(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return fmt.Errorf("nvml: %s", nvml.ErrorString(ret))
}

func (nvmlLibrary) Init() error     { return returnErr(nvml.Init()) }
func (nvmlLibrary) Shutdown() error { return returnErr(nvml.Shutdown()) }

func (nvmlLibrary) Count() (int, error) {
	n, ret := nvml.DeviceGetCount()
	return n, returnErr(ret)
}

func (nvmlLibrary) Device(index int) (Device, error) {
	d, ret := nvml.DeviceGetHandleByIndex(index)
	if err := returnErr(ret); err != nil {
		return nil, err
	}
	return nvmlDevice{d}, nil
}

type nvmlDevice struct {
	device nvml.Device
}

func (d nvmlDevice) Name() (string, error) {
	name, ret := d.device.GetName()
	return name, returnErr(ret)
}

func (d nvmlDevice) TotalMemory() (uint64, error) {
	mem, ret := d.device.GetMemoryInfo()
	return mem.Total, returnErr(ret)
}
