// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package tdr

import (
	"errors"

	"golang.org/x/sys/windows/registry"
)

func openRegistry(create bool) (valueStore, error) {
	if create {
		k, _, err := registry.CreateKey(registry.LOCAL_MACHINE, KeyPath, registry.SET_VALUE)
		if err != nil {
			return nil, err
		}
		return notExistKey{k}, nil
	}
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, KeyPath, registry.SET_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, errNotExist
	}
	if err != nil {
		return nil, err
	}
	return notExistKey{k}, nil
}

// notExistKey maps registry.ErrNotExist onto errNotExist.
type notExistKey struct {
	registry.Key
}

func (k notExistKey) DeleteValue(name string) error {
	err := k.Key.DeleteValue(name)
	if errors.Is(err, registry.ErrNotExist) {
		return errNotExist
	}
	return err
}
