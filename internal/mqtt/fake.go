package mqtt

import (
	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Telemetry contains all snapshots that were published.
	Telemetry []logic.Snapshot

	// TelemetryPayloads contains the JSON payloads for telemetry.
	TelemetryPayloads [][]byte

	// Transitions contains all transition events that were published.
	Transitions []logic.Transition

	// TransitionPayloads contains the JSON payloads for transitions.
	TransitionPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishTelemetry and
	// PublishTransition.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishTelemetry records the snapshot.
func (f *FakePublisher) PublishTelemetry(snap logic.Snapshot) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Telemetry = append(f.Telemetry, snap)

	payload, err := FormatTelemetryPayload(snap)
	if err != nil {
		return err
	}
	f.TelemetryPayloads = append(f.TelemetryPayloads, payload)

	return nil
}

// PublishTransition records the transition event.
func (f *FakePublisher) PublishTransition(tr logic.Transition) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Transitions = append(f.Transitions, tr)

	payload, err := FormatTransitionPayload(tr)
	if err != nil {
		return err
	}
	f.TransitionPayloads = append(f.TransitionPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Telemetry = nil
	f.TelemetryPayloads = nil
	f.Transitions = nil
	f.TransitionPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
