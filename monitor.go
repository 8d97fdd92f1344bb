// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

import (
	"context"
)

// State is a completion monitor state.
//
// A run moves Dispatched -> Waiting -> Recovered or Unrecoverable.
type State int

// Monitor states.
const (
	StateDispatched State = iota + 1
	StateWaiting
	StateRecovered
	StateUnrecoverable
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDispatched:
		return "dispatched"
	case StateWaiting:
		return "waiting"
	case StateRecovered:
		return "recovered"
	case StateUnrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateRecovered || s == StateUnrecoverable
}

// Monitor waits for a dispatched workload and returns the terminal state.
//
// Bounded modes sleep for their fixed recovery window and then assume the
// watchdog has reset the device. Nuclear submits a completion marker and
// polls it until it signals, with no timeout. Poll errors are reported and
// ignored. The context is only consulted when WithCancelablePoll is set.
func Monitor(ctx context.Context, res *Resources, opts ...Option) State {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return monitor(ctx, res, &o)
}

func monitor(ctx context.Context, res *Resources, o *options) State {
	mode := res.Mode()
	log := Logger()

	if mode.Bounded() {
		o.observer.emit(Event{Kind: EventWaiting, Mode: mode})
		wait := o.wait(mode)
		log.Info("gpupanic: waiting for watchdog recovery", "mode", mode, "wait", wait)
		o.sleep(wait)
		o.observer.emit(Event{Kind: EventRecovered, Mode: mode})
		return StateRecovered
	}

	o.observer.emit(Event{Kind: EventHung, Mode: mode})
	rc := res.Context()
	if rc == nil {
		o.observer.emit(Event{Kind: EventUnrecoverable, Mode: mode, Err: ErrNilResources})
		return StateUnrecoverable
	}
	marker, err := rc.SubmitMarker()
	if err != nil {
		log.Warn("gpupanic: completion marker not submitted", "err", err)
		o.observer.emit(Event{Kind: EventUnrecoverable, Mode: mode, Err: err})
		return StateUnrecoverable
	}
	defer rc.ReleaseMarker(marker)

	// Repeats of the same poll error drop to Debug so a lost device does not
	// flood the log at the poll rate.
	var lastPollErr string
	for polls := 1; ; polls++ {
		if o.cancelablePoll && ctx.Err() != nil {
			log.Info("gpupanic: poll cancelled", "polls", polls-1)
			o.observer.emit(Event{Kind: EventUnrecoverable, Mode: mode, Err: ctx.Err()})
			return StateUnrecoverable
		}
		done, err := rc.MarkerSignaled(marker)
		switch {
		case err == nil:
			lastPollErr = ""
		case err.Error() != lastPollErr:
			lastPollErr = err.Error()
			log.Warn("gpupanic: marker poll failed", "poll", polls, "err", err)
			o.observer.emit(Event{Kind: EventPollError, Mode: mode, Err: err})
		default:
			log.Debug("gpupanic: marker poll failed again", "poll", polls, "err", err)
			o.observer.emit(Event{Kind: EventPollError, Mode: mode, Err: err})
		}
		if done {
			log.Info("gpupanic: device completed", "polls", polls)
			o.observer.emit(Event{Kind: EventRecovered, Mode: mode})
			return StateRecovered
		}
		o.sleep(o.pollInterval)
	}
}
