package logic

// SoilCalibration maps raw soil probe counts to percent saturation.
// Capacitive probes read high when dry, so DryRaw is normally the larger
// value; the mapping works either way round.
type SoilCalibration struct {
	DryRaw int // count in completely dry soil → 0 %
	WetRaw int // count in saturated soil → 100 %
}

// AcidityCalibration maps raw acidity probe counts to the 0–14 pH scale.
type AcidityCalibration struct {
	VRef   float64 // ADC reference voltage (V)
	MaxRaw int     // full-scale ADC count (e.g. 4095 for 12-bit)
	Slope  float64 // pH per volt, from the probe datasheet
	Offset float64 // pH at 0 V, tuned with buffer solutions
}

// Calibration bundles everything needed to turn RawReadings into a Snapshot.
type Calibration struct {
	Soil          SoilCalibration
	Acidity       AcidityCalibration
	RainThreshold int // raw count; the rain sensor reads LOWER when wetter
}

// SoilPercentFromRaw converts a raw soil probe count to percent saturation
// by linear interpolation between the calibration pair, clamped to [0, 100].
// Out-of-span counts saturate rather than error.
func SoilPercentFromRaw(raw int, cal SoilCalibration) int {
	if cal.DryRaw == cal.WetRaw {
		// Degenerate calibration; config validation rejects this upstream.
		return 0
	}
	percent := (raw - cal.DryRaw) * 100 / (cal.WetRaw - cal.DryRaw)
	return clampInt(percent, 0, 100)
}

// AcidityFromRaw converts a raw acidity probe count to a pH value via the
// probe's linear voltage response, clamped to [0.0, 14.0].
func AcidityFromRaw(raw int, cal AcidityCalibration) float64 {
	voltage := float64(raw) * cal.VRef / float64(cal.MaxRaw)
	return clampFloat(cal.Slope*voltage+cal.Offset, 0.0, 14.0)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
