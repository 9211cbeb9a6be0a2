package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Sensors       *SensorsJSON   `json:"sensors,omitempty"`
	Actuators     ActuatorsJSON  `json:"actuators"`
	Ready         bool           `json:"ready"`
	InvalidCycles int            `json:"invalid_cycles"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"transition_counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// SensorsJSON is the JSON representation of the latest sensor snapshot.
// It is omitted until the first valid snapshot arrives.
type SensorsJSON struct {
	Timestamp    string  `json:"timestamp"`
	Temperature  float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity_pct"`
	SoilMoisture int     `json:"soil_moisture_pct"`
	Acidity      float64 `json:"acidity_ph"`
	LightLevel   int     `json:"light_level"`
	RainLevel    int     `json:"rain_level"`
	Raining      bool    `json:"raining"`
}

// ActuatorsJSON is the JSON representation of the actuator state.
type ActuatorsJSON struct {
	Pump       string `json:"pump"`
	Fertiliser string `json:"fertiliser"`
	Light      string `json:"light"`
	Fan        string `json:"fan"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of transition counts.
type CountsJSON struct {
	PumpOn        int `json:"pump_on"`
	PumpOff       int `json:"pump_off"`
	FertiliserOn  int `json:"fertiliser_on"`
	FertiliserOff int `json:"fertiliser_off"`
	LightOn       int `json:"light_on"`
	LightOff      int `json:"light_off"`
	FanOn         int `json:"fan_on"`
	FanOff        int `json:"fan_off"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	PublishMs   int64  `json:"publish_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Actuators: ActuatorsJSON{
			Pump:       onOff(snap.Actuators.Pump),
			Fertiliser: onOff(snap.Actuators.Fertiliser),
			Light:      onOff(snap.Actuators.Light),
			Fan:        onOff(snap.Actuators.Fan),
		},
		Ready:         snap.Ready,
		InvalidCycles: snap.InvalidCycles,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PumpOn:        snap.Counts.PumpOn,
			PumpOff:       snap.Counts.PumpOff,
			FertiliserOn:  snap.Counts.FertiliserOn,
			FertiliserOff: snap.Counts.FertiliserOff,
			LightOn:       snap.Counts.LightOn,
			LightOff:      snap.Counts.LightOff,
			FanOn:         snap.Counts.FanOn,
			FanOff:        snap.Counts.FanOff,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			PublishMs:   snap.Config.PublishMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if snap.Ready {
		inner.Sensors = &SensorsJSON{
			Timestamp:    snap.Sensors.Time.UTC().Format(time.RFC3339),
			Temperature:  snap.Sensors.Temperature,
			Humidity:     snap.Sensors.Humidity,
			SoilMoisture: snap.Sensors.SoilMoisture,
			Acidity:      snap.Sensors.Acidity,
			LightLevel:   snap.Sensors.LightLevel,
			RainLevel:    snap.Sensors.RainLevel,
			Raining:      snap.Sensors.IsRaining,
		}
	}

	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
