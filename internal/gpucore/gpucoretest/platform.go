// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucoretest provides an in-memory gpucore platform for tests.
//
// Every handle it returns is recorded by a Tracker, so tests can assert that
// nothing leaked and nothing was released twice.
package gpucoretest

import (
	"errors"
	"sync"

	"github.com/gogpu/gpupanic/internal/gpucore"
)

// ErrInjected is the default error returned by injected failures.
var ErrInjected = errors.New("gpucoretest: injected failure")

// ErrDeviceLost is returned by marker polls configured with MarkerErrors.
var ErrDeviceLost = errors.New("gpucoretest: device lost")

// Operation keys accepted by Platform.Fail besides handle kinds.
const (
	OpWrite  = "write"
	OpPass   = "pass"
	OpFlush  = "flush"
	OpMarker = "marker"
)

// Platform is a fake gpucore.Platform.
//
// Failures are injected through Fail, keyed either by a handle kind
// ("buffer"), by a kind and label ("buffer:gpupanic_params") or by one of
// the Op* keys.
type Platform struct {
	Adapters []gpucore.AdapterInfo

	// FactoryErr fails NewFactory.
	FactoryErr error
	// AdapterErr fails Factory.Adapter at index AdapterErrAt.
	AdapterErr   error
	AdapterErrAt int
	// OpenErr fails every Adapter.Open.
	OpenErr error
	// CompileErr fails every compilation; its message is the diagnostic text.
	CompileErr error

	Fail map[string]error

	// MarkerErrors is the number of marker polls that report ErrDeviceLost
	// before MarkerPending polls report not-signaled.
	MarkerErrors  int
	MarkerPending int
	// MarkerNever keeps every marker unsignaled.
	MarkerNever bool

	tracker *Tracker
	once    sync.Once
}

// New creates a fake platform exposing the given adapters.
func New(adapters ...gpucore.AdapterInfo) *Platform {
	return &Platform{Adapters: adapters}
}

// Named builds adapter infos from descriptions.
func Named(names ...string) []gpucore.AdapterInfo {
	out := make([]gpucore.AdapterInfo, len(names))
	for i, n := range names {
		out[i] = gpucore.AdapterInfo{Name: n}
	}
	return out
}

// Tracker returns the tracker shared by every handle of this platform.
func (p *Platform) Tracker() *Tracker {
	p.once.Do(func() {
		if p.tracker == nil {
			p.tracker = NewTracker()
		}
	})
	return p.tracker
}

func (p *Platform) fail(kind Kind, label string) error {
	if err, ok := p.Fail[string(kind)+":"+label]; ok {
		return orInjected(err)
	}
	if err, ok := p.Fail[string(kind)]; ok {
		return orInjected(err)
	}
	return nil
}

func (p *Platform) failOp(op string) error {
	if err, ok := p.Fail[op]; ok {
		return orInjected(err)
	}
	return nil
}

func orInjected(err error) error {
	if err == nil {
		return ErrInjected
	}
	return err
}

// NewFactory implements gpucore.Platform.
func (p *Platform) NewFactory() (gpucore.Factory, error) {
	if p.FactoryErr != nil {
		return nil, p.FactoryErr
	}
	t := p.Tracker()
	return &factory{p: p, id: t.create(KindFactory, "")}, nil
}

// Compiler implements gpucore.Platform.
func (p *Platform) Compiler() gpucore.Compiler {
	return compiler{p: p}
}

type compiler struct{ p *Platform }

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

func (c compiler) Compile(source string) ([]uint32, error) {
	t := c.p.Tracker()
	t.mu.Lock()
	t.sources = append(t.sources, source)
	t.mu.Unlock()
	if c.p.CompileErr != nil {
		return nil, c.p.CompileErr
	}
	return []uint32{spirvMagic, 0x00010300, 0, uint32(len(source)), 0}, nil
}

type factory struct {
	p  *Platform
	id uint64
}

func (f *factory) Adapter(index int) (gpucore.Adapter, error) {
	if f.p.AdapterErr != nil && index == f.p.AdapterErrAt {
		return nil, f.p.AdapterErr
	}
	if index < 0 || index >= len(f.p.Adapters) {
		return nil, gpucore.ErrEndOfList
	}
	info := f.p.Adapters[index]
	return &adapter{p: f.p, info: info, id: f.p.Tracker().create(KindAdapter, info.Name)}, nil
}

func (f *factory) Release() { f.p.Tracker().release(f.id) }

type adapter struct {
	p    *Platform
	info gpucore.AdapterInfo
	id   uint64
}

func (a *adapter) Info() gpucore.AdapterInfo { return a.info }

func (a *adapter) Open(req gpucore.DeviceRequest) (gpucore.Device, gpucore.Context, error) {
	t := a.p.Tracker()
	t.mu.Lock()
	t.opens++
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	if a.p.OpenErr != nil {
		return nil, nil, a.p.OpenErr
	}
	d := &device{p: a.p, id: t.create(KindDevice, "")}
	c := &immediateContext{p: a.p, id: t.create(KindContext, "")}
	return d, c, nil
}

func (a *adapter) Release() { a.p.Tracker().release(a.id) }
