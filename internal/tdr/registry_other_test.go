// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package tdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsupportedPlatform(t *testing.T) {
	tg := New()
	assert.ErrorIs(t, tg.Disable(), ErrUnsupported)
	assert.ErrorIs(t, tg.Enable(), ErrUnsupported)
}
