// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/gogpu/gpupanic/internal/gpucore/gpucoretest"
)

func TestEngineRunSafe(t *testing.T) {
	p := nvidiaPlatform()
	var sleeps sleepRecorder
	var rec eventRecorder
	eng := New(p, WithSleep(sleeps.sleep), WithObserver(rec.observe))

	result, err := eng.Run(context.Background(), Safe)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != StateRecovered {
		t.Errorf("state = %v, want recovered", result.State)
	}
	if result.Adapter != "NVIDIA GeForce RTX 3080" {
		t.Errorf("adapter = %q", result.Adapter)
	}

	want := []EventKind{
		EventAdapterFound, EventAdapterFound,
		EventDeviceCreating, EventDeviceCreated,
		EventCompiling, EventKernelReady,
		EventArmed, EventCountdown, EventCountdown, EventCountdown,
		EventDispatched, EventWaiting, EventRecovered,
		EventCleanup, EventDone,
	}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	wantSleeps := []time.Duration{time.Second, time.Second, time.Second, 3 * time.Second}
	s := sleeps.recorded()
	if len(s) != len(wantSleeps) {
		t.Fatalf("sleeps = %v, want %v", s, wantSleeps)
	}
	for i := range wantSleeps {
		if s[i] != wantSleeps[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, s[i], wantSleeps[i])
		}
	}
	assertClean(t, p)
}

func TestEngineRunNuclear(t *testing.T) {
	p := nvidiaPlatform()
	p.MarkerPending = 4
	var rec eventRecorder
	eng := New(p, WithSleep(func(time.Duration) {}), WithObserver(rec.observe), WithCountdown(0))

	result, err := eng.Run(context.Background(), Nuclear)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.State != StateRecovered {
		t.Errorf("state = %v", result.State)
	}
	if rec.count(EventHung) != 1 || rec.count(EventWaiting) != 0 {
		t.Errorf("events = %v", rec.kinds())
	}
	if p.Tracker().Polls() != 5 {
		t.Errorf("polls = %d, want 5", p.Tracker().Polls())
	}
	assertClean(t, p)
}

func TestEngineRunNoTarget(t *testing.T) {
	p := gpucoretest.New(gpucoretest.Named("Intel(R) UHD Graphics 770")...)
	var rec eventRecorder
	eng := New(p, WithSleep(func(time.Duration) {}), WithObserver(rec.observe))

	_, err := eng.Run(context.Background(), Medium)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if p.Tracker().Opens() != 0 {
		t.Error("device opened without a target")
	}
	if rec.count(EventCleanup) != 0 {
		t.Error("cleanup reported although nothing was built")
	}
	assertClean(t, p)
}

func TestEngineRunFactoryError(t *testing.T) {
	p := nvidiaPlatform()
	p.FactoryErr = errors.New("no loader")
	eng := New(p)

	_, err := eng.Run(context.Background(), Safe)
	if !errors.Is(err, ErrEnumeration) {
		t.Errorf("err = %v, want ErrEnumeration", err)
	}
}

func TestEngineRunBuildFailure(t *testing.T) {
	p := nvidiaPlatform()
	p.Fail = map[string]error{"buffer:" + outputBufferLabel: nil}
	var rec eventRecorder
	eng := New(p, WithSleep(func(time.Duration) { t.Error("slept after a failed build") }), WithObserver(rec.observe))

	_, err := eng.Run(context.Background(), Safe)
	if !errors.Is(err, ErrResourceCreation) {
		t.Fatalf("err = %v, want ErrResourceCreation", err)
	}
	if rec.count(EventBuildFailed) != 1 || rec.count(EventCleanup) != 1 || rec.count(EventDone) != 1 {
		t.Errorf("events = %v", rec.kinds())
	}
	if p.Tracker().Flushes() != 0 {
		t.Error("workload dispatched after a failed build")
	}
	assertClean(t, p)
}

func TestEngineRunDispatchFailure(t *testing.T) {
	p := nvidiaPlatform()
	p.Fail = map[string]error{gpucoretest.OpFlush: nil}
	eng := New(p, WithSleep(func(time.Duration) {}))

	_, err := eng.Run(context.Background(), Nuclear)
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("err = %v, want ErrDispatch", err)
	}
	assertClean(t, p)
}

func TestEngineRunInvalidMode(t *testing.T) {
	p := nvidiaPlatform()
	_, err := New(p).Run(context.Background(), Mode(0))
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
	if p.Tracker().Touched() {
		t.Error("platform used for an invalid mode")
	}
}

func TestEngineList(t *testing.T) {
	p := gpucoretest.New(gpucoretest.Named("NVIDIA GeForce RTX 3080", "AMD Radeon RX 6800")...)
	got, err := New(p, WithVendor("AMD")).List(nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0].Annotation != AnnotationNone || got[1].Annotation != AnnotationTarget {
		t.Errorf("summaries = %+v", got)
	}
	assertClean(t, p)
}

type loggingPlatform struct {
	*gpucoretest.Platform
	logger *slog.Logger
}

func (p *loggingPlatform) SetLogger(l *slog.Logger) { p.logger = l }

func TestEnginePropagatesLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	custom := slog.New(slog.DiscardHandler)
	SetLogger(custom)

	p := &loggingPlatform{Platform: gpucoretest.New()}
	if _, err := New(p).List(nil); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if p.logger != custom {
		t.Error("engine did not hand its logger to the platform")
	}
}
