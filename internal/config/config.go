// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config resolves CLI defaults from the environment and an optional
// .env file. Process environment wins over the file; flags win over both.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gogpu/gpupanic"
)

// Environment variables.
const (
	EnvVendor       = "GPUPANIC_VENDOR"
	EnvLogLevel     = "GPUPANIC_LOG_LEVEL"
	EnvCountdown    = "GPUPANIC_COUNTDOWN"
	EnvPollInterval = "GPUPANIC_POLL_INTERVAL_MS"
)

// DefaultFile is the dotenv file read when Load is called without names.
const DefaultFile = ".env"

// DefaultLogLevel keeps the CLI quiet unless something goes wrong.
const DefaultLogLevel = "warn"

// Config holds values the CLI feeds into the engine.
type Config struct {
	Vendor       string
	LogLevel     string
	Countdown    int
	PollInterval time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Vendor:       gpupanic.DefaultVendor,
		LogLevel:     DefaultLogLevel,
		Countdown:    gpupanic.DefaultCountdown,
		PollInterval: gpupanic.DefaultPollInterval,
	}
}

// Load reads the given dotenv files (DefaultFile when none) and overlays the
// process environment. Missing files are ignored; a malformed file is an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{DefaultFile}
	}
	fromFile := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Default(), err
		}
		for k, v := range vals {
			if _, set := fromFile[k]; !set {
				fromFile[k] = v
			}
		}
	}
	return FromEnv(func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fromFile[key]
	}), nil
}

// FromEnv builds a Config from getenv. Unset or unparsable values keep their
// defaults.
func FromEnv(getenv func(string) string) Config {
	c := Default()
	if v := strings.TrimSpace(getenv(EnvVendor)); v != "" {
		c.Vendor = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	c.Countdown = envInt(getenv, EnvCountdown, c.Countdown, 0)
	if ms := envInt(getenv, EnvPollInterval, 0, 1); ms > 0 {
		c.PollInterval = time.Duration(ms) * time.Millisecond
	}
	return c
}

// envInt returns the integer value of key when it parses and is at least floor.
func envInt(getenv func(string) string, key string, def, floor int) int {
	s := getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < floor {
		return def
	}
	return v
}
