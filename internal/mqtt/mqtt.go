// Package mqtt provides MQTT publishing and remote override-command
// reception with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// TopicTelemetry carries periodic sensor snapshots.
const TopicTelemetry = "greenhouse/sensors"

// TopicEvents carries actuator transition events.
const TopicEvents = "greenhouse/actuators/events"

// TopicSystem carries system lifecycle events.
const TopicSystem = "greenhouse/system"

// TopicCommandFilter matches per-actuator override commands, e.g.
// greenhouse/actuators/pump/set with payload ON or OFF.
const TopicCommandFilter = "greenhouse/actuators/+/set"

// Publisher publishes daemon output to MQTT.
type Publisher interface {
	// PublishTelemetry sends a sensor snapshot to the broker.
	PublishTelemetry(snap logic.Snapshot) error

	// PublishTransition sends an actuator transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishTransition(tr logic.Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Command is a manual actuator override received from the broker.
type Command struct {
	Actuator logic.Actuator
	On       bool
}

// CommandHandler is invoked for each valid override command. It runs on the
// MQTT client's goroutine; handlers must hand off to the control loop rather
// than mutate state directly.
type CommandHandler func(Command)

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string         // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string         // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Heartbeat  *HeartbeatInfo // heartbeat events only
	RawPayload []byte         // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool           // Whether the message should be retained by the broker
}

// HeartbeatInfo carries uptime and transition counts for heartbeat events.
type HeartbeatInfo struct {
	UptimeSeconds int64
	Counts        logic.TransitionCounts
}

// TelemetryPayload is the MQTT message payload for sensor snapshots.
type TelemetryPayload struct {
	Greenhouse TelemetryInner `json:"greenhouse"`
}

// TelemetryInner contains the snapshot details.
type TelemetryInner struct {
	Timestamp    string  `json:"timestamp"`
	Temperature  float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity_pct"`
	SoilMoisture int     `json:"soil_moisture_pct"`
	Acidity      float64 `json:"acidity_ph"`
	LightLevel   int     `json:"light_level"`
	RainLevel    int     `json:"rain_level"`
	Raining      bool    `json:"raining"`
}

// FormatTelemetryPayload creates the JSON payload for a sensor snapshot.
func FormatTelemetryPayload(snap logic.Snapshot) ([]byte, error) {
	payload := TelemetryPayload{
		Greenhouse: TelemetryInner{
			Timestamp:    snap.Time.UTC().Format(time.RFC3339),
			Temperature:  snap.Temperature,
			Humidity:     snap.Humidity,
			SoilMoisture: snap.SoilMoisture,
			Acidity:      snap.Acidity,
			LightLevel:   snap.LightLevel,
			RainLevel:    snap.RainLevel,
			Raining:      snap.IsRaining,
		},
	}
	return json.Marshal(payload)
}

// TransitionPayload is the MQTT message payload for actuator transitions.
type TransitionPayload struct {
	Actuator TransitionInner `json:"actuator"`
}

// TransitionInner contains the transition details plus the full actuator
// state after the cycle, so consumers never need to track deltas.
type TransitionInner struct {
	Timestamp  string `json:"timestamp"`
	Name       string `json:"name"`
	State      string `json:"state"`
	Reason     string `json:"reason,omitempty"`
	Pump       string `json:"pump"`
	Fertiliser string `json:"fertiliser"`
	Light      string `json:"light"`
	Fan        string `json:"fan"`
}

// FormatTransitionPayload creates the JSON payload for a transition event.
func FormatTransitionPayload(tr logic.Transition) ([]byte, error) {
	payload := TransitionPayload{
		Actuator: TransitionInner{
			Timestamp:  tr.Time.UTC().Format(time.RFC3339),
			Name:       string(tr.Actuator),
			State:      onOff(tr.On),
			Reason:     tr.Reason,
			Pump:       onOff(tr.State.Pump),
			Fertiliser: onOff(tr.State.Fertiliser),
			Light:      onOff(tr.State.Light),
			Fan:        onOff(tr.State.Fan),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reason    string         `json:"reason,omitempty"`
	Heartbeat *HeartbeatJSON `json:"heartbeat,omitempty"`
}

// HeartbeatJSON is the JSON representation of heartbeat info.
type HeartbeatJSON struct {
	UptimeSeconds int64 `json:"uptime_seconds"`
	PumpOn        int   `json:"pump_on"`
	PumpOff       int   `json:"pump_off"`
	FertiliserOn  int   `json:"fertiliser_on"`
	FertiliserOff int   `json:"fertiliser_off"`
	LightOn       int   `json:"light_on"`
	LightOff      int   `json:"light_off"`
	FanOn         int   `json:"fan_on"`
	FanOff        int   `json:"fan_off"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}
	if hb := event.Heartbeat; hb != nil {
		inner.Heartbeat = &HeartbeatJSON{
			UptimeSeconds: hb.UptimeSeconds,
			PumpOn:        hb.Counts.PumpOn,
			PumpOff:       hb.Counts.PumpOff,
			FertiliserOn:  hb.Counts.FertiliserOn,
			FertiliserOff: hb.Counts.FertiliserOff,
			LightOn:       hb.Counts.LightOn,
			LightOff:      hb.Counts.LightOff,
			FanOn:         hb.Counts.FanOn,
			FanOff:        hb.Counts.FanOff,
		}
	}
	return json.Marshal(SystemPayload{System: inner})
}

// ParseCommand parses an override command from its topic and payload.
// Topic form: greenhouse/actuators/<name>/set. Payload: ON/OFF (also
// 1/0/true/false, case-insensitive).
func ParseCommand(topic string, payload []byte) (Command, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "greenhouse" || parts[1] != "actuators" || parts[3] != "set" {
		return Command{}, fmt.Errorf("unexpected command topic %q", topic)
	}

	var actuator logic.Actuator
	switch parts[2] {
	case "pump":
		actuator = logic.ActuatorPump
	case "fertiliser":
		actuator = logic.ActuatorFertiliser
	case "light":
		actuator = logic.ActuatorLight
	case "fan":
		actuator = logic.ActuatorFan
	default:
		return Command{}, fmt.Errorf("unknown actuator %q", parts[2])
	}

	on, err := parseOnOff(string(payload))
	if err != nil {
		return Command{}, err
	}
	return Command{Actuator: actuator, On: on}, nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ON", "1", "TRUE":
		return true, nil
	case "OFF", "0", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized payload %q", s)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
