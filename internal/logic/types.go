// Package logic contains pure business logic for greenhouse control:
// sensor calibration, snapshot validation and the hysteresis actuation
// policy. This package has NO external dependencies (no GPIO, I2C, MQTT,
// OS, or time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// Actuator identifies one of the four effectors.
type Actuator string

const (
	ActuatorPump       Actuator = "PUMP"
	ActuatorFertiliser Actuator = "FERTILISER"
	ActuatorLight      Actuator = "LIGHT"
	ActuatorFan        Actuator = "FAN"
)

// Actuators lists all effectors in display order.
var Actuators = []Actuator{ActuatorPump, ActuatorFertiliser, ActuatorLight, ActuatorFan}

// RawReadings holds one cycle's uncalibrated values as delivered by the HAL.
// Temperature and humidity are NaN when the climate sensor read failed.
type RawReadings struct {
	Temperature float64 // °C
	Humidity    float64 // % RH
	Soil        int     // raw ADC count
	Acidity     int     // raw ADC count
	Light       int     // raw ADC count
	Rain        int     // raw ADC count
}

// Snapshot is one complete, timestamped set of calibrated readings. It is a
// value type produced fresh each cycle; when Valid is false no other field
// may be trusted and the policy treats the cycle as a no-op.
type Snapshot struct {
	Time         time.Time
	Temperature  float64 // °C
	Humidity     float64 // % RH
	SoilMoisture int     // % saturation, 0–100
	Acidity      float64 // pH scale, 0.0–14.0
	LightLevel   int     // raw ADC count, unclamped
	RainLevel    int     // raw ADC count, unclamped
	IsRaining    bool
	Valid        bool
}

// Transition records a single actuator state change to be published.
type Transition struct {
	Time     time.Time
	Actuator Actuator
	On       bool
	Reason   string
	// State is the full actuator state after the whole cycle was applied.
	State ActuatorState
}

// TransitionCounts tracks the number of transitions per actuator and
// direction since startup.
type TransitionCounts struct {
	PumpOn        int
	PumpOff       int
	FertiliserOn  int
	FertiliserOff int
	LightOn       int
	LightOff      int
	FanOn         int
	FanOff        int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    TransitionCounts
}
