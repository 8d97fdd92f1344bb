// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"sync"
	"testing"
	"time"

	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/gpupanic/internal/gpucore/gpucoretest"
)

// targetAdapter enumerates p and returns the first NVIDIA adapter.
// The factory is released before returning.
func targetAdapter(t *testing.T, p *gpucoretest.Platform) gpucore.Adapter {
	t.Helper()
	f, err := p.NewFactory()
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	defer f.Release()
	a, err := FindTargetAdapter(f, DefaultVendor)
	if err != nil {
		t.Fatalf("FindTargetAdapter failed: %v", err)
	}
	return a
}

// nvidiaPlatform returns a fake platform with an iGPU and an NVIDIA dGPU.
func nvidiaPlatform() *gpucoretest.Platform {
	return gpucoretest.New(gpucoretest.Named(
		"Intel(R) UHD Graphics 770",
		"NVIDIA GeForce RTX 3080",
	)...)
}

// assertClean fails the test if any handle is live or was released twice.
func assertClean(t *testing.T, p *gpucoretest.Platform) {
	t.Helper()
	tr := p.Tracker()
	if live := tr.Live(); len(live) != 0 {
		t.Errorf("live handles after release: %v", live)
	}
	if doubles := tr.DoubleReleases(); len(doubles) != 0 {
		t.Errorf("handles released twice: %v", doubles)
	}
}

// sleepRecorder records requested sleeps without sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

// eventRecorder collects observer events.
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) observe(e Event) { r.events = append(r.events, e) }

func (r *eventRecorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *eventRecorder) count(k EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
