// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"fmt"
	"time"
)

// Mode is the severity of the induced hang.
type Mode int

// Severity modes.
const (
	// Safe runs a bounded kernel that should finish within about two seconds.
	Safe Mode = iota + 1

	// Medium runs a bounded kernel long enough to trip the watchdog.
	Medium

	// Nuclear runs a kernel that never terminates.
	Nuclear
)

// Iteration counts written to the bounded kernel's parameter buffer.
const (
	SafeIterations   uint32 = 50_000_000
	MediumIterations uint32 = 500_000_000
)

// Bounded-mode recovery waits.
const (
	SafeWait   = 3 * time.Second
	MediumWait = 25 * time.Second
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Safe:
		return "safe"
	case Medium:
		return "medium"
	case Nuclear:
		return "nuclear"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= Safe && m <= Nuclear
}

// Bounded reports whether the mode's kernel terminates on its own.
func (m Mode) Bounded() bool {
	return m == Safe || m == Medium
}

// Iterations returns the loop count for bounded modes.
// The second result is false for Nuclear.
func (m Mode) Iterations() (uint32, bool) {
	switch m {
	case Safe:
		return SafeIterations, true
	case Medium:
		return MediumIterations, true
	default:
		return 0, false
	}
}

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "safe":
		return Safe, nil
	case "medium":
		return Medium, nil
	case "nuclear":
		return Nuclear, nil
	default:
		return 0, fmt.Errorf("gpupanic: unknown mode %q", s)
	}
}
