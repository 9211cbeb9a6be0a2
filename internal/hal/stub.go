//go:build !linux

package hal

import (
	"errors"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// ReaderOpts configures the real sensor reader (unsupported here).
type ReaderOpts struct {
	I2CBus      string
	ClimateAddr uint16
}

// DefaultReaderOpts returns the reference wiring.
func DefaultReaderOpts() ReaderOpts {
	return ReaderOpts{ClimateAddr: 0x76}
}

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(ReaderOpts) (*RealReader, error) {
	return nil, errors.New("hal: sensors not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (logic.RawReadings, error) {
	return logic.RawReadings{}, errors.New("hal: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error { return nil }

// RealWriter is not available on non-Linux platforms.
type RealWriter struct{}

// NewRealWriter returns an error on non-Linux platforms.
func NewRealWriter(RelayPins) (*RealWriter, error) {
	return nil, errors.New("hal: relays not supported on this platform (requires Linux)")
}

// Apply is not implemented on non-Linux platforms.
func (w *RealWriter) Apply(logic.ActuatorState) error {
	return errors.New("hal: not supported")
}

// Close is not implemented on non-Linux platforms.
func (w *RealWriter) Close() error { return nil }
