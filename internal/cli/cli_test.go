// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gpupanic"
	"github.com/gogpu/gpupanic/internal/config"
	"github.com/gogpu/gpupanic/internal/gpucore"
	"github.com/gogpu/gpupanic/internal/gpucore/gpucoretest"
	"github.com/gogpu/gpupanic/internal/tdr"
)

type fakeWatchdog struct {
	disabled, enabled int
	err               error
}

func (w *fakeWatchdog) Disable() error {
	w.disabled++
	return w.err
}

func (w *fakeWatchdog) Enable() error {
	w.enabled++
	return w.err
}

type fakeProbe map[string]uint64

func (p fakeProbe) DedicatedMemory(name string) (uint64, bool) {
	v, ok := p[name]
	return v, ok
}

type harness struct {
	platform *gpucoretest.Platform
	watchdog *fakeWatchdog
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	opened   int
}

func newHarness(adapters ...string) *harness {
	return &harness{
		platform: gpucoretest.New(gpucoretest.Named(adapters...)...),
		watchdog: &fakeWatchdog{},
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) int {
	t.Helper()
	d := Deps{
		Stdin:  strings.NewReader(stdin),
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Platform: func() (gpucore.Platform, error) {
			h.opened++
			return h.platform, nil
		},
		Watchdog: h.watchdog,
		Probe: func() gpupanic.MemoryProbe {
			return fakeProbe{"NVIDIA GeForce RTX 3080": 10 << 30}
		},
		Sleep:   func(time.Duration) {},
		Config:  config.Default(),
		NoColor: true,
	}
	return Run(context.Background(), append([]string{"gpupanic"}, args...), d)
}

func (h *harness) assertNoLeaks(t *testing.T) {
	t.Helper()
	tr := h.platform.Tracker()
	assert.Empty(t, tr.Live(), "live handles")
	assert.Empty(t, tr.DoubleReleases(), "double releases")
}

func TestRunHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"--help"}, {"-h"}, {"--help", "--nuclear"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			h := newHarness("NVIDIA GeForce RTX 3080")
			assert.Equal(t, ExitOK, h.run(t, "", args...))
			assert.Contains(t, h.stdout.String(), "usage: gpupanic [mode]")
			assert.Zero(t, h.opened, "help touched the platform")
		})
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--turbo"}, "turbo"},
		{"positional argument", []string{"now"}, "[!] unknown: now"},
		{"two modes", []string{"--safe", "--nuclear"}, "pick one mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness("NVIDIA GeForce RTX 3080")
			assert.Equal(t, ExitFailure, h.run(t, "PANIC\n", tt.args...))
			out := h.stdout.String()
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "usage: gpupanic [mode]")
			assert.Zero(t, h.opened)
		})
	}
}

func TestRunSafe(t *testing.T) {
	h := newHarness("Intel(R) UHD Graphics 770", "NVIDIA GeForce RTX 3080")
	require.Equal(t, ExitOK, h.run(t, "", "--safe"))

	out := h.stdout.String()
	assert.Contains(t, out, "GPU PANIC LOADING")
	assert.Contains(t, out, "^ this one will die")
	assert.Contains(t, out, "SAFE MODE")
	assert.Contains(t, out, ">>> GPU GO BRRRR <<<")
	assert.Contains(t, out, "should be back now")
	assert.Contains(t, out, "[+] done")
	assert.Equal(t, 1, h.platform.Tracker().Flushes())
	h.assertNoLeaks(t)
}

func TestRunNoTarget(t *testing.T) {
	h := newHarness("Intel(R) UHD Graphics 770")
	assert.Equal(t, ExitFailure, h.run(t, "", "--medium"))
	assert.Contains(t, h.stdout.String(), "[!] no NVIDIA gpu found")
	assert.Zero(t, h.platform.Tracker().Opens())
	h.assertNoLeaks(t)
}

func TestRunVendorFlag(t *testing.T) {
	h := newHarness("NVIDIA GeForce RTX 3080", "AMD Radeon RX 6800")
	require.Equal(t, ExitOK, h.run(t, "", "--safe", "--vendor", "AMD"))
	assert.Contains(t, h.stdout.String(), "[1] AMD Radeon RX 6800")
	assert.Equal(t, 1, strings.Count(h.stdout.String(), "this one will die"))
	h.assertNoLeaks(t)
}

func TestRunBuildFailure(t *testing.T) {
	h := newHarness("NVIDIA GeForce RTX 3080")
	h.platform.CompileErr = errors.New("error: expected ';'")
	assert.Equal(t, ExitFailure, h.run(t, "", "--safe"))
	assert.Contains(t, h.stdout.String(), "[!] shader error: error: expected ';'")
	assert.Contains(t, h.stdout.String(), "[+] done")
	h.assertNoLeaks(t)
}

func TestRunNuclearConfirmation(t *testing.T) {
	tests := []struct {
		input   string
		proceed bool
	}{
		{"PANIC\n", true},
		{"PANIC\r\n", true},
		{"panic\n", false},
		{"\n", false},
		{"PANIC \n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			h := newHarness("NVIDIA GeForce RTX 3080")
			assert.Equal(t, ExitOK, h.run(t, tt.input, "--nuclear"))

			out := h.stdout.String()
			assert.Contains(t, out, "type 'PANIC' to continue: ")
			if tt.proceed {
				assert.Contains(t, out, "gpu is gone. fans go crazy. goodbye.")
				assert.Equal(t, 1, h.platform.Tracker().Flushes())
				h.assertNoLeaks(t)
				return
			}
			assert.Contains(t, out, "aborted.")
			assert.Zero(t, h.opened, "aborted run touched the platform")
		})
	}
}

func TestRunList(t *testing.T) {
	h := newHarness("Intel(R) UHD Graphics 770", "NVIDIA GeForce RTX 3080")
	require.Equal(t, ExitOK, h.run(t, "", "--list"))

	out := h.stdout.String()
	assert.Contains(t, out, "[0] Intel(R) UHD Graphics 770")
	assert.Contains(t, out, "^ safe (display stays here)")
	assert.Contains(t, out, "[1] NVIDIA GeForce RTX 3080")
	assert.Contains(t, out, "vram: 10240 MB")
	assert.Contains(t, out, "^ TARGET")
	assert.Zero(t, h.platform.Tracker().Opens())
	h.assertNoLeaks(t)
}

func TestRunListEmpty(t *testing.T) {
	h := newHarness()
	require.Equal(t, ExitOK, h.run(t, "", "--list"))
	assert.NotContains(t, h.stdout.String(), "[0]")
}

func TestRunPlatformUnavailable(t *testing.T) {
	h := newHarness()
	d := Deps{
		Stdin:    strings.NewReader(""),
		Stdout:   &h.stdout,
		Stderr:   &h.stderr,
		Platform: func() (gpucore.Platform, error) { return nil, errors.New("no vulkan loader") },
		Watchdog: h.watchdog,
		NoColor:  true,
	}
	assert.Equal(t, ExitFailure, Run(context.Background(), []string{"gpupanic", "--list"}, d))
	assert.Contains(t, h.stdout.String(), "no vulkan loader")
}

func TestRunWatchdog(t *testing.T) {
	h := newHarness()
	assert.Equal(t, ExitOK, h.run(t, "", "--disable-tdr"))
	assert.Equal(t, 1, h.watchdog.disabled)
	assert.Contains(t, h.stdout.String(), "TDR disabled - reboot for it to take effect")

	h = newHarness()
	assert.Equal(t, ExitOK, h.run(t, "", "--enable-tdr"))
	assert.Equal(t, 1, h.watchdog.enabled)
	assert.Contains(t, h.stdout.String(), "TDR restored - reboot for it to take effect")
}

func TestRunWatchdogPriority(t *testing.T) {
	h := newHarness("NVIDIA GeForce RTX 3080")
	assert.Equal(t, ExitOK, h.run(t, "", "--enable-tdr", "--disable-tdr", "--list"))
	assert.Equal(t, 1, h.watchdog.disabled)
	assert.Zero(t, h.watchdog.enabled)
	assert.Zero(t, h.opened)
}

func TestRunWatchdogFailure(t *testing.T) {
	h := newHarness()
	h.watchdog.err = tdr.ErrConfigAccess
	assert.Equal(t, ExitFailure, h.run(t, "", "--disable-tdr"))
	assert.Contains(t, h.stdout.String(), "(run as admin)")

	h = newHarness()
	h.watchdog.err = tdr.ErrUnsupported
	assert.Equal(t, ExitFailure, h.run(t, "", "--enable-tdr"))
	assert.Contains(t, h.stdout.String(), "only available on windows")
}

func TestRunLogLevel(t *testing.T) {
	h := newHarness("NVIDIA GeForce RTX 3080")
	require.Equal(t, ExitOK, h.run(t, "", "--safe", "--log-level", "debug"))
	assert.Contains(t, h.stderr.String(), "run_id=")
	assert.Contains(t, h.stderr.String(), "target adapter selected")
}

func TestRunListFormats(t *testing.T) {
	h := newHarness("NVIDIA GeForce RTX 3080")
	require.Equal(t, ExitOK, h.run(t, "", "--list", "--format", "yaml"))
	assert.Contains(t, h.stdout.String(), "name: NVIDIA GeForce RTX 3080")
	assert.Contains(t, h.stdout.String(), "annotation: target")

	h = newHarness("NVIDIA GeForce RTX 3080")
	assert.Equal(t, ExitFailure, h.run(t, "", "--list", "--format", "xml"))
	assert.Zero(t, h.opened)
}
