// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgpu implements the gpucore platform on top of the gogpu/wgpu
// hardware abstraction layer.
//
// The Vulkan backend is used for device work and gogpu/naga compiles WGSL
// kernels to SPIR-V. No CGO is required.
package halgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/wgpu/hal"

	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan backend
)

// ErrBackendUnavailable is returned when the Vulkan backend is not registered.
var ErrBackendUnavailable = errors.New("halgpu: vulkan backend not available")

// instanceCreator is the part of a hal backend the platform needs.
type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Platform is a gpucore.Platform backed by a hal backend.
type Platform struct {
	creator instanceCreator
	logger  atomic.Pointer[slog.Logger]
}

// New returns a platform over the Vulkan hal backend.
func New() (*Platform, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrBackendUnavailable
	}
	return newPlatform(backend), nil
}

func newPlatform(c instanceCreator) *Platform {
	p := &Platform{creator: c}
	p.logger.Store(slog.New(slog.DiscardHandler))
	return p
}

// SetLogger sets the logger used for platform diagnostics.
// Passing nil silences the platform.
func (p *Platform) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	p.logger.Store(l)
}

func (p *Platform) log() *slog.Logger { return p.logger.Load() }

// NewFactory creates a hal instance and snapshots its adapters.
func (p *Platform) NewFactory() (gpucore.Factory, error) {
	instance, err := p.creator.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create instance: %w", err)
	}
	shared := &sharedInstance{instance: instance, refs: 1}
	adapters := instance.EnumerateAdapters(nil)
	p.log().Debug("halgpu: instance created", "adapters", len(adapters))
	return &factory{p: p, inst: shared, adapters: adapters}, nil
}

// Compiler returns the naga WGSL compiler.
func (p *Platform) Compiler() gpucore.Compiler {
	return Compiler{}
}

// sharedInstance keeps the hal instance alive until the factory, every
// adapter handle and every device opened from it have been released.
type sharedInstance struct {
	mu       sync.Mutex
	instance hal.Instance
	refs     int
}

func (s *sharedInstance) acquire() {
	s.mu.Lock()
	s.refs++
	s.mu.Unlock()
}

func (s *sharedInstance) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs == 0 && s.instance != nil {
		s.instance.Destroy()
		s.instance = nil
	}
}

func (s *sharedInstance) alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance != nil
}
