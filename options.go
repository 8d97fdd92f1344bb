// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import "time"

// DefaultVendor is the adapter description token that marks the target GPU.
const DefaultVendor = "NVIDIA"

// Monitor and countdown defaults.
const (
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultCountdown     = 3
	DefaultCountdownTick = time.Second
)

// Option configures an Engine.
//
// Example:
//
//	eng := gpupanic.New(platform,
//	    gpupanic.WithVendor("AMD"),
//	    gpupanic.WithObserver(printer),
//	)
type Option func(*options)

// options holds the engine configuration.
type options struct {
	vendor         string
	sleep          func(time.Duration)
	pollInterval   time.Duration
	safeWait       time.Duration
	mediumWait     time.Duration
	countdown      int
	countdownTick  time.Duration
	observer       Observer
	cancelablePoll bool
}

// defaultOptions returns the engine defaults.
func defaultOptions() options {
	return options{
		vendor:        DefaultVendor,
		sleep:         time.Sleep,
		pollInterval:  DefaultPollInterval,
		safeWait:      SafeWait,
		mediumWait:    MediumWait,
		countdown:     DefaultCountdown,
		countdownTick: DefaultCountdownTick,
	}
}

// WithVendor sets the substring that selects the target adapter.
// Matching is case-sensitive. An empty vendor keeps the default.
func WithVendor(vendor string) Option {
	return func(o *options) {
		if vendor != "" {
			o.vendor = vendor
		}
	}
}

// WithSleep replaces time.Sleep for every wait the engine performs.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *options) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithPollInterval sets the Nuclear marker poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithBoundedWait overrides the recovery wait of a bounded mode.
// It has no effect for Nuclear.
func WithBoundedWait(m Mode, d time.Duration) Option {
	return func(o *options) {
		switch m {
		case Safe:
			o.safeWait = d
		case Medium:
			o.mediumWait = d
		}
	}
}

// WithCountdown sets the number of one-tick countdown steps before dispatch.
// Zero disables the countdown.
func WithCountdown(ticks int) Option {
	return func(o *options) {
		if ticks >= 0 {
			o.countdown = ticks
		}
	}
}

// WithObserver registers a progress observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithCancelablePoll lets a cancelled context end the Nuclear poll.
// The run then reports Unrecoverable. By default the poll ignores the
// context and never ends unless the device completes.
func WithCancelablePoll() Option {
	return func(o *options) {
		o.cancelablePoll = true
	}
}

// wait returns the recovery wait for a bounded mode.
func (o *options) wait(m Mode) time.Duration {
	if m == Safe {
		return o.safeWait
	}
	return o.mediumWait
}
