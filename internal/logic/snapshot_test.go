package logic

import (
	"math"
	"testing"
	"time"
)

func testCalibration() Calibration {
	return Calibration{
		Soil:          testSoilCalibration(),
		Acidity:       testAcidityCalibration(),
		RainThreshold: 1000,
	}
}

func testRawReadings() RawReadings {
	return RawReadings{
		Temperature: 25.0,
		Humidity:    50.0,
		Soil:        2350, // midway between dry and wet → 50%
		Acidity:     2048,
		Light:       400,
		Rain:        2000, // dry
	}
}

func TestBuildSnapshotValid(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	snap, ok := BuildSnapshot(testRawReadings(), testCalibration(), now)

	if !ok {
		t.Fatal("expected valid snapshot")
	}
	if !snap.Valid {
		t.Error("Valid flag not set")
	}
	if !snap.Time.Equal(now) {
		t.Errorf("Time: got %v, want %v", snap.Time, now)
	}
	if snap.Temperature != 25.0 {
		t.Errorf("Temperature: got %.1f, want 25.0", snap.Temperature)
	}
	if snap.SoilMoisture != 50 {
		t.Errorf("SoilMoisture: got %d%%, want 50%%", snap.SoilMoisture)
	}
	if snap.IsRaining {
		t.Error("IsRaining: got true, want false")
	}
}

func TestBuildSnapshotUndefinedClimate(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		mod  func(*RawReadings)
	}{
		{"NaN temperature", func(r *RawReadings) { r.Temperature = math.NaN() }},
		{"NaN humidity", func(r *RawReadings) { r.Humidity = math.NaN() }},
		{"both NaN", func(r *RawReadings) { r.Temperature = math.NaN(); r.Humidity = math.NaN() }},
	}

	for _, tt := range tests {
		raw := testRawReadings()
		tt.mod(&raw)
		snap, ok := BuildSnapshot(raw, testCalibration(), now)
		if ok {
			t.Errorf("%s: expected invalid snapshot", tt.name)
		}
		if snap.Valid {
			t.Errorf("%s: Valid flag set on invalid snapshot", tt.name)
		}
	}
}

func TestBuildSnapshotImplausibleClimate(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		mod  func(*RawReadings)
		want bool
	}{
		{"temperature too low", func(r *RawReadings) { r.Temperature = -40.0 }, false},
		{"temperature too high", func(r *RawReadings) { r.Temperature = 80.0 }, false},
		{"temperature near low bound", func(r *RawReadings) { r.Temperature = -39.9 }, true},
		{"humidity negative", func(r *RawReadings) { r.Humidity = -0.1 }, false},
		{"humidity above 100", func(r *RawReadings) { r.Humidity = 100.1 }, false},
		{"humidity at 100", func(r *RawReadings) { r.Humidity = 100.0 }, true},
	}

	for _, tt := range tests {
		raw := testRawReadings()
		tt.mod(&raw)
		_, ok := BuildSnapshot(raw, testCalibration(), now)
		if ok != tt.want {
			t.Errorf("%s: got valid=%v, want %v", tt.name, ok, tt.want)
		}
	}
}

func TestBuildSnapshotRainDetection(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	cal := testCalibration()

	tests := []struct {
		rain int
		want bool
	}{
		{999, true},   // below threshold → wet
		{1000, false}, // at threshold → dry
		{3000, false},
		{0, true},
	}

	for _, tt := range tests {
		raw := testRawReadings()
		raw.Rain = tt.rain
		snap, ok := BuildSnapshot(raw, cal, now)
		if !ok {
			t.Fatalf("rain=%d: snapshot unexpectedly invalid", tt.rain)
		}
		if snap.IsRaining != tt.want {
			t.Errorf("rain=%d: IsRaining=%v, want %v", tt.rain, snap.IsRaining, tt.want)
		}
	}
}

func TestBuildSnapshotSaturatesCalibratedChannels(t *testing.T) {
	// Out-of-span soil and acidity counts clamp instead of invalidating.
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	raw := testRawReadings()
	raw.Soil = 4095
	raw.Acidity = -200

	snap, ok := BuildSnapshot(raw, testCalibration(), now)
	if !ok {
		t.Fatal("clamped channels must not invalidate the snapshot")
	}
	if snap.SoilMoisture != 0 {
		t.Errorf("SoilMoisture: got %d%%, want 0%%", snap.SoilMoisture)
	}
	if snap.Acidity != 0.0 {
		t.Errorf("Acidity: got %.2f, want 0.0", snap.Acidity)
	}
}
