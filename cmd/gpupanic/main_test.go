// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

const childEnv = "GPUPANIC_TEST_CHILD"

// TestMain runs the real command when re-executed as a child process.
func TestMain(m *testing.M) {
	if args := os.Getenv(childEnv); args != "" {
		os.Args = append([]string{"gpupanic"}, strings.Fields(args)...)
		main()
		return
	}
	os.Exit(m.Run())
}

// promptWatcher collects child output and closes seen once prompt appears.
type promptWatcher struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	prompt string
	seen   chan struct{}
	once   sync.Once
}

func (w *promptWatcher) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.buf.Write(p)
	if strings.Contains(w.buf.String(), w.prompt) {
		w.once.Do(func() { close(w.seen) })
	}
	return n, err
}

func (w *promptWatcher) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestInterruptAtConfirmationPrompt(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("os.Interrupt cannot be sent to a child process on windows")
	}

	cmd := exec.Command(os.Args[0])
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), childEnv+"=--nuclear --no-color")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatalf("StdinPipe failed: %v", err)
	}
	defer stdin.Close()
	out := &promptWatcher{prompt: "to continue:", seen: make(chan struct{})}
	cmd.Stdout = out
	if err := cmd.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-out.seen:
	case <-time.After(10 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatalf("confirmation prompt never appeared:\n%s", out.String())
	}
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("Wait = %v, want termination by signal", err)
		}
		if code := exitErr.ProcessState.ExitCode(); code != -1 {
			t.Errorf("exit code = %d, want -1 (killed by signal)", code)
		}
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process still alive after SIGINT")
	}
}
