package logic

import (
	"math"
	"time"
)

// Plausibility bounds for the climate sensor. Readings outside these mark
// the whole snapshot invalid (InvalidReading), unlike calibrated channels
// which saturate.
const (
	minPlausibleTemp = -40.0 // °C, exclusive
	maxPlausibleTemp = 80.0  // °C, exclusive
)

// BuildSnapshot calibrates one cycle's raw readings into a Snapshot and
// validates it. The returned bool equals Snapshot.Valid: true only when
// temperature and humidity are numerically defined and every calibrated
// field is within its plausible range.
func BuildSnapshot(raw RawReadings, cal Calibration, now time.Time) (Snapshot, bool) {
	snap := Snapshot{
		Time:        now,
		Temperature: raw.Temperature,
		Humidity:    raw.Humidity,
		LightLevel:  raw.Light,
		RainLevel:   raw.Rain,
	}

	if math.IsNaN(raw.Temperature) || math.IsNaN(raw.Humidity) {
		return snap, false
	}

	snap.SoilMoisture = SoilPercentFromRaw(raw.Soil, cal.Soil)
	snap.Acidity = AcidityFromRaw(raw.Acidity, cal.Acidity)
	snap.IsRaining = raw.Rain < cal.RainThreshold

	ok := snap.Temperature > minPlausibleTemp && snap.Temperature < maxPlausibleTemp &&
		snap.Humidity >= 0.0 && snap.Humidity <= 100.0 &&
		snap.SoilMoisture >= 0 && snap.SoilMoisture <= 100 &&
		snap.Acidity >= 0.0 && snap.Acidity <= 14.0

	snap.Valid = ok
	return snap, ok
}
