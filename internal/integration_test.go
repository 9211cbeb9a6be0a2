package internal

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/sweeney/greenhouse-controller/internal/hal"
	"github.com/sweeney/greenhouse-controller/internal/logic"
	"github.com/sweeney/greenhouse-controller/internal/mqtt"
	"github.com/sweeney/greenhouse-controller/internal/status"
)

func testCal() logic.Calibration {
	return logic.Calibration{
		Soil:          logic.SoilCalibration{DryRaw: 3200, WetRaw: 1500},
		Acidity:       logic.AcidityCalibration{VRef: 3.3, MaxRaw: 4095, Slope: 3.5, Offset: 0},
		RainThreshold: 1000,
	}
}

func testThresholds() logic.Thresholds {
	return logic.Thresholds{
		LowMoisture: 30, HighMoisture: 70,
		LowAcidity: 5.5, HighAcidity: 7.0,
		LowLight: 300, HighLight: 500,
		LowTemp: 30, HighTemp: 35,
		HighHumidity: 85,
	}
}

// midband readings sit inside every hysteresis dead zone.
func midband() logic.RawReadings {
	return logic.RawReadings{
		Temperature: 25, Humidity: 50,
		Soil: 2350, Acidity: 2128, Light: 400, Rain: 2100,
	}
}

// runCycles drives the read-decide-write-publish pipeline the way the daemon
// does, one poll interval per sample.
func runCycles(t *testing.T, samples []logic.RawReadings, engine *logic.Engine, state logic.ActuatorState, writer *hal.FakeWriter, pub *mqtt.FakePublisher, startTime time.Time, poll time.Duration) logic.ActuatorState {
	t.Helper()
	reader := hal.NewFakeReader(samples)

	for i := range samples {
		raw, err := reader.Read()
		if err != nil {
			t.Fatalf("sample %d: read error: %v", i, err)
		}

		now := startTime.Add(time.Duration(i+1) * poll)
		snap, ok := logic.BuildSnapshot(raw, testCal(), now)

		next, transitions, _ := engine.Evaluate(state, snap)
		if !ok {
			continue
		}
		if err := writer.Apply(next); err != nil {
			t.Fatalf("sample %d: apply error: %v", i, err)
		}
		state = next

		for _, tr := range transitions {
			if err := pub.PublishTransition(tr); err != nil {
				t.Fatalf("sample %d: publish error: %v", i, err)
			}
		}
	}
	return state
}

// TestIntegrationFullFlow walks the whole pipeline: a dry bed starts the
// pump, rain stops it, and a heat spike starts the fan.
func TestIntegrationFullFlow(t *testing.T) {
	dry := midband()
	dry.Soil = 2900 // ~17% moisture

	dryRaining := dry
	dryRaining.Rain = 500

	hot := midband()
	hot.Temperature = 36.5

	samples := []logic.RawReadings{
		midband(), midband(), // settle, no transitions
		dry, dry, // pump on (once)
		dryRaining, dryRaining, // pump off: rain overrides the dry bed
		hot, hot, // fan on (once)
	}

	writer := hal.NewFakeWriter()
	pub := mqtt.NewFakePublisher()
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	engine := logic.NewEngine(testThresholds(), startTime)

	state := runCycles(t, samples, engine, logic.ActuatorState{}, writer, pub, startTime, 5*time.Second)

	if len(pub.Transitions) != 3 {
		t.Fatalf("expected 3 transitions, got %d: %+v", len(pub.Transitions), pub.Transitions)
	}

	want := []struct {
		actuator logic.Actuator
		on       bool
		reason   string
	}{
		{logic.ActuatorPump, true, "soil dry"},
		{logic.ActuatorPump, false, "raining"},
		{logic.ActuatorFan, true, "high temperature"},
	}
	for i, w := range want {
		tr := pub.Transitions[i]
		if tr.Actuator != w.actuator || tr.On != w.on || tr.Reason != w.reason {
			t.Errorf("transition %d: got %s/%v/%q, want %s/%v/%q",
				i, tr.Actuator, tr.On, tr.Reason, w.actuator, w.on, w.reason)
		}
	}

	if state.Pump || !state.Fan {
		t.Errorf("final state: got %+v, want pump off, fan on", state)
	}
	if writer.Current != state {
		t.Errorf("relay state diverged: relays %+v, loop %+v", writer.Current, state)
	}

	// Every payload must parse and carry a timestamp and actuator name.
	for i, payload := range pub.TransitionPayloads {
		var parsed mqtt.TransitionPayload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			t.Errorf("payload %d: invalid JSON: %v", i, err)
		}
		if parsed.Actuator.Timestamp == "" || parsed.Actuator.Name == "" {
			t.Errorf("payload %d: missing fields: %s", i, payload)
		}
	}
}

// TestIntegrationInvalidCyclesAreNoOps interleaves broken climate readings
// with a dry bed and verifies they neither move relays nor block the
// eventual pump-on decision.
func TestIntegrationInvalidCyclesAreNoOps(t *testing.T) {
	dry := midband()
	dry.Soil = 2900

	broken := dry
	broken.Temperature = math.NaN()

	samples := []logic.RawReadings{broken, broken, dry, broken, dry}

	writer := hal.NewFakeWriter()
	pub := mqtt.NewFakePublisher()
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	engine := logic.NewEngine(testThresholds(), startTime)

	state := runCycles(t, samples, engine, logic.ActuatorState{}, writer, pub, startTime, 5*time.Second)

	if len(pub.Transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(pub.Transitions))
	}
	if pub.Transitions[0].Actuator != logic.ActuatorPump || !pub.Transitions[0].On {
		t.Errorf("transition: %+v", pub.Transitions[0])
	}
	// Only the 2 valid cycles touched the relays.
	if len(writer.Applied) != 2 {
		t.Errorf("expected 2 applies, got %d", len(writer.Applied))
	}
	if !state.Pump {
		t.Error("pump should be on")
	}
}

// TestIntegrationTelemetryPayloadFormat verifies the exact JSON structure
// for sensor snapshots.
func TestIntegrationTelemetryPayloadFormat(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	snap := logic.Snapshot{
		Time:         time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Temperature:  24.5,
		Humidity:     61,
		SoilMoisture: 42,
		Acidity:      6.3,
		LightLevel:   410,
		RainLevel:    2100,
		IsRaining:    false,
		Valid:        true,
	}
	if err := pub.PublishTelemetry(snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"greenhouse":{"timestamp":"2026-02-02T22:18:12Z","temperature_c":24.5,"humidity_pct":61,"soil_moisture_pct":42,"acidity_ph":6.3,"light_level":410,"rain_level":2100,"raining":false}}`
	if string(pub.TelemetryPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", pub.TelemetryPayloads[0], expected)
	}
}

// TestIntegrationTransitionPayloadFormat verifies the exact JSON structure
// for transition events.
func TestIntegrationTransitionPayloadFormat(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	tr := logic.Transition{
		Time:     time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Actuator: logic.ActuatorPump,
		On:       true,
		Reason:   "soil dry",
		State:    logic.ActuatorState{Pump: true},
	}
	if err := pub.PublishTransition(tr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"actuator":{"timestamp":"2026-02-02T22:18:12Z","name":"PUMP","state":"ON","reason":"soil dry","pump":"ON","fertiliser":"OFF","light":"OFF","fan":"OFF"}}`
	if string(pub.TransitionPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", pub.TransitionPayloads[0], expected)
	}
}

// TestIntegrationShutdownPayloadFormat verifies the exact JSON structure for
// plain shutdown events.
func TestIntegrationShutdownPayloadFormat(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	event := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}
	pub.PublishSystem(event)

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(pub.SystemPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", pub.SystemPayloads[0], expected)
	}
}

// TestIntegrationHeartbeatPayloadFormat verifies the exact JSON structure
// for heartbeat events.
func TestIntegrationHeartbeatPayloadFormat(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	event := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 2, 4, 12, 15, 0, 0, time.UTC),
		Event:     "HEARTBEAT",
		Heartbeat: &mqtt.HeartbeatInfo{
			UptimeSeconds: 900,
			Counts: logic.TransitionCounts{
				PumpOn: 5, PumpOff: 4,
				LightOn: 2, LightOff: 2,
				FanOn: 1, FanOff: 1,
			},
		},
	}
	pub.PublishSystem(event)

	expected := `{"system":{"timestamp":"2026-02-04T12:15:00Z","event":"HEARTBEAT","heartbeat":{"uptime_seconds":900,"pump_on":5,"pump_off":4,"fertiliser_on":0,"fertiliser_off":0,"light_on":2,"light_off":2,"fan_on":1,"fan_off":1}}}`
	if string(pub.SystemPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", pub.SystemPayloads[0], expected)
	}
}

// TestIntegrationStartupStatusEvent verifies that a startup event built from
// the status tracker round-trips through the publisher with config attached.
func TestIntegrationStartupStatusEvent(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	start := time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC)

	tracker := status.NewTracker(start, status.Config{
		PollMs:      5000,
		PublishMs:   30000,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	})

	snap := tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := pub.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(pub.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "STARTUP" {
		t.Errorf("event: got %q, want STARTUP", parsed.Status.Event)
	}
	if parsed.Status.Config.PollMs != 5000 {
		t.Errorf("poll_ms: got %d, want 5000", parsed.Status.Config.PollMs)
	}
	if parsed.Status.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("broker: got %q", parsed.Status.Config.Broker)
	}
	if parsed.Status.Ready {
		t.Error("startup status should not be ready")
	}
}

// TestIntegrationManualOverrideFlow parses an override command off the wire,
// applies it, and verifies it is tallied and published like any transition.
func TestIntegrationManualOverrideFlow(t *testing.T) {
	writer := hal.NewFakeWriter()
	pub := mqtt.NewFakePublisher()
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	engine := logic.NewEngine(testThresholds(), startTime)

	cmd, err := mqtt.ParseCommand("greenhouse/actuators/fan/set", []byte("ON"))
	if err != nil {
		t.Fatalf("parse command: %v", err)
	}

	var state logic.ActuatorState
	state.Set(cmd.Actuator, cmd.On)
	if err := writer.Apply(state); err != nil {
		t.Fatalf("apply: %v", err)
	}

	tr := logic.Transition{
		Time:     startTime.Add(time.Minute),
		Actuator: cmd.Actuator,
		On:       cmd.On,
		Reason:   "manual",
		State:    state,
	}
	engine.RecordManual(tr)
	if err := pub.PublishTransition(tr); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if !writer.Current.Fan {
		t.Error("fan relay not energized")
	}
	if got := engine.CountsSnapshot().FanOn; got != 1 {
		t.Errorf("fan_on count: got %d, want 1", got)
	}

	var parsed mqtt.TransitionPayload
	if err := json.Unmarshal(pub.TransitionPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Actuator.Name != "FAN" || parsed.Actuator.Reason != "manual" {
		t.Errorf("payload: %+v", parsed.Actuator)
	}
}

// TestIntegrationHeartbeatAfterTransitions verifies heartbeat counts reflect
// the transitions that actually happened.
func TestIntegrationHeartbeatAfterTransitions(t *testing.T) {
	dry := midband()
	dry.Soil = 2900
	wet := midband()
	wet.Soil = 1700 // ~88% moisture

	samples := []logic.RawReadings{
		midband(),
		dry, dry, // pump on
		wet, wet, // pump off (soil wet)
	}

	writer := hal.NewFakeWriter()
	pub := mqtt.NewFakePublisher()
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	engine := logic.NewEngine(testThresholds(), startTime)

	runCycles(t, samples, engine, logic.ActuatorState{}, writer, pub, startTime, 5*time.Second)

	if len(pub.Transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(pub.Transitions))
	}

	hbTime := startTime.Add(15 * time.Minute)
	hbData := engine.CheckHeartbeat(hbTime, 15*time.Minute)
	if hbData == nil {
		t.Fatal("expected heartbeat data")
	}
	if hbData.Counts.PumpOn != 1 || hbData.Counts.PumpOff != 1 {
		t.Errorf("counts: got %+v, want pump_on=1 pump_off=1", hbData.Counts)
	}
	if hbData.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v, want 15m", hbData.Uptime)
	}

	event := mqtt.SystemEvent{
		Timestamp: hbData.Timestamp,
		Event:     "HEARTBEAT",
		Heartbeat: &mqtt.HeartbeatInfo{
			UptimeSeconds: int64(hbData.Uptime.Seconds()),
			Counts:        hbData.Counts,
		},
	}
	if err := pub.PublishSystem(event); err != nil {
		t.Fatalf("heartbeat publish: %v", err)
	}

	var parsed mqtt.SystemPayload
	if err := json.Unmarshal(pub.SystemPayloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Heartbeat == nil {
		t.Fatal("expected heartbeat in payload")
	}
	if parsed.System.Heartbeat.PumpOn != 1 || parsed.System.Heartbeat.PumpOff != 1 {
		t.Errorf("payload counts: %+v", parsed.System.Heartbeat)
	}
	if parsed.System.Heartbeat.UptimeSeconds != 900 {
		t.Errorf("payload uptime: got %d, want 900", parsed.System.Heartbeat.UptimeSeconds)
	}
}
