// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpupanic

// EventKind identifies a progress event emitted by the engine.
type EventKind int

// Progress events, roughly in the order a run emits them.
const (
	// EventAdapterFound reports one enumerated adapter.
	EventAdapterFound EventKind = iota + 1
	// EventNoTarget reports that no adapter matched the vendor token.
	EventNoTarget
	EventDeviceCreating
	EventDeviceCreated
	EventCompiling
	EventKernelReady
	// EventBuildFailed carries the BuildError in Err.
	EventBuildFailed
	// EventArmed announces the mode right before the countdown.
	EventArmed
	// EventCountdown carries the remaining ticks in Remaining.
	EventCountdown
	EventDispatched
	// EventWaiting starts the fixed recovery wait of a bounded mode.
	EventWaiting
	// EventHung starts the indefinite poll of Nuclear mode.
	EventHung
	// EventPollError reports a failed marker poll. Polling continues.
	EventPollError
	EventRecovered
	EventUnrecoverable
	EventCleanup
	EventDone
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventAdapterFound:
		return "adapter_found"
	case EventNoTarget:
		return "no_target"
	case EventDeviceCreating:
		return "device_creating"
	case EventDeviceCreated:
		return "device_created"
	case EventCompiling:
		return "compiling"
	case EventKernelReady:
		return "kernel_ready"
	case EventBuildFailed:
		return "build_failed"
	case EventArmed:
		return "armed"
	case EventCountdown:
		return "countdown"
	case EventDispatched:
		return "dispatched"
	case EventWaiting:
		return "waiting"
	case EventHung:
		return "hung"
	case EventPollError:
		return "poll_error"
	case EventRecovered:
		return "recovered"
	case EventUnrecoverable:
		return "unrecoverable"
	case EventCleanup:
		return "cleanup"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Event is a progress notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	Mode Mode

	// Index, Adapter and Selected describe an EventAdapterFound.
	Index    int
	Adapter  string
	Selected bool

	// Remaining is the countdown tick for EventCountdown.
	Remaining int

	Err error
}

// Observer receives progress events. It is called synchronously on the
// engine's goroutine.
type Observer func(Event)

func (o Observer) emit(e Event) {
	if o != nil {
		o(e)
	}
}
