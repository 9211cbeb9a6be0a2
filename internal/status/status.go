// Package status provides a thread-safe status tracker for the
// greenhouse-controller daemon. It is read by HTTP handlers and serialized
// into MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	PublishMs   int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Sensors       logic.Snapshot
	Actuators     logic.ActuatorState
	Ready         bool // at least one valid snapshot processed
	InvalidCycles int
	Counts        logic.TransitionCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the latest sensor snapshot, actuator state, readiness and
// transition counts. Called from the control loop on every cycle.
func (t *Tracker) Update(sensors logic.Snapshot, actuators logic.ActuatorState, ready bool, counts logic.TransitionCounts) {
	t.mu.Lock()
	t.snap.Sensors = sensors
	t.snap.Actuators = actuators
	t.snap.Ready = ready
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordInvalid counts a cycle skipped for an invalid sensor snapshot.
func (t *Tracker) RecordInvalid() {
	t.mu.Lock()
	t.snap.InvalidCycles++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
