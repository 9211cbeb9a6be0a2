package hal

import (
	"errors"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// FakeReader is a test double that returns scripted raw readings.
type FakeReader struct {
	// Samples contains scripted readings. Each call to Read() consumes
	// the next sample; once exhausted, the last sample repeats.
	Samples []logic.RawReadings

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []logic.RawReadings) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (logic.RawReadings, error) {
	if f.ReadError != nil {
		return logic.RawReadings{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.RawReadings{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeWriter records every applied actuator state for test assertions.
type FakeWriter struct {
	// Applied contains each state passed to Apply, in order.
	Applied []logic.ActuatorState

	// Current is the most recently applied state.
	Current logic.ActuatorState

	// ApplyError, if set, will be returned by Apply()
	ApplyError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWriter creates a FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Apply records the state.
func (f *FakeWriter) Apply(state logic.ActuatorState) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Applied = append(f.Applied, state)
	f.Current = state
	return nil
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded states.
func (f *FakeWriter) Reset() {
	f.Applied = nil
	f.Current = logic.ActuatorState{}
	f.ApplyError = nil
	f.Closed = false
}
