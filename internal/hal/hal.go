// Package hal provides hardware access behind small interfaces.
// The real implementations use a BME280 climate sensor and an ADS1115
// four-channel ADC over I²C (periph.io) for input, and the Linux GPIO
// character device for the relay board. The fake implementations allow
// testing without hardware.
package hal

import "github.com/sweeney/greenhouse-controller/internal/logic"

// SensorReader reads one cycle's raw transducer values.
type SensorReader interface {
	// Read returns raw readings for one cycle. A failed climate sensor
	// read yields NaN temperature/humidity rather than an error, so the
	// snapshot validation downstream decides the cycle's fate; an error
	// is returned only when the ADC itself cannot be read.
	Read() (logic.RawReadings, error)

	// Close releases hardware resources.
	Close() error
}

// ActuatorWriter drives the four relays. Implementations translate logical
// intents (true = energized) to the physical drive polarity; the policy
// core never sees signal levels.
type ActuatorWriter interface {
	// Apply drives all four relays to match the given state.
	Apply(state logic.ActuatorState) error

	// Close de-energizes the relays and releases GPIO resources.
	Close() error
}

// Relay pin defaults (BCM numbering). The relay board is active-LOW:
// line value 0 energizes the relay.
const (
	DefaultPinPump  = 26 // water pump
	DefaultPinFert  = 27 // fertiliser pump
	DefaultPinLight = 25 // grow-light
	DefaultPinFan   = 14 // ventilation fan
)

// RelayPins maps each actuator to its GPIO line.
type RelayPins struct {
	Pump       int
	Fertiliser int
	Light      int
	Fan        int
}

// DefaultRelayPins returns the reference wiring.
func DefaultRelayPins() RelayPins {
	return RelayPins{
		Pump:       DefaultPinPump,
		Fertiliser: DefaultPinFert,
		Light:      DefaultPinLight,
		Fan:        DefaultPinFan,
	}
}

// ADS1115 input channels for the analog probes.
const (
	ChannelSoil    = 0
	ChannelAcidity = 1
	ChannelLight   = 2
	ChannelRain    = 3
)
