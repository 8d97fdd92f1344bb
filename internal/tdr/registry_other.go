// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package tdr

func openRegistry(bool) (valueStore, error) {
	return nil, ErrUnsupported
}
