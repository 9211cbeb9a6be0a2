// Package config loads calibration and threshold configuration from the
// environment. Runtime knobs (intervals, broker, addresses) stay on flags in
// cmd; everything here is a per-deployment tuning value.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// envPrefix is prepended to every variable name, e.g. GREENHOUSE_LOW_MOISTURE.
const envPrefix = "GREENHOUSE"

// Config holds every tunable calibration and threshold value. Defaults match
// the reference hardware: capacitive soil probe on a 12-bit ADC scale and an
// analog acidity probe on a 3.3 V rail.
type Config struct {
	// Soil probe calibration pair. The probe reads high when dry.
	SoilDryRaw int `envconfig:"SOIL_DRY_RAW" default:"3200" validate:"gte=0"`
	SoilWetRaw int `envconfig:"SOIL_WET_RAW" default:"1500" validate:"gte=0,nefield=SoilDryRaw"`

	// Acidity probe: linear voltage response, tuned with buffer solutions.
	AcidityVRef   float64 `envconfig:"ACIDITY_VREF" default:"3.3" validate:"gt=0"`
	AcidityMaxRaw int     `envconfig:"ACIDITY_MAX_RAW" default:"4095" validate:"gt=0"`
	AciditySlope  float64 `envconfig:"ACIDITY_SLOPE" default:"3.5"`
	AcidityOffset float64 `envconfig:"ACIDITY_OFFSET" default:"0"`

	// Rain sensor reads LOWER when wetter; raining below this count.
	RainThreshold int `envconfig:"RAIN_THRESHOLD" default:"1000" validate:"gte=0"`

	// Hysteresis bands. Each high bound must sit strictly above its low
	// bound or the dead zone collapses and relays chatter.
	LowMoisture  int `envconfig:"LOW_MOISTURE" default:"30" validate:"gte=0,lte=100"`
	HighMoisture int `envconfig:"HIGH_MOISTURE" default:"70" validate:"gte=0,lte=100,gtfield=LowMoisture"`

	LowAcidity  float64 `envconfig:"LOW_ACIDITY" default:"5.5" validate:"gte=0,lte=14"`
	HighAcidity float64 `envconfig:"HIGH_ACIDITY" default:"7.0" validate:"gte=0,lte=14,gtfield=LowAcidity"`

	LowLight  int `envconfig:"LOW_LIGHT" default:"300" validate:"gte=0"`
	HighLight int `envconfig:"HIGH_LIGHT" default:"500" validate:"gtfield=LowLight"`

	LowTemp  float64 `envconfig:"LOW_TEMP" default:"30"`
	HighTemp float64 `envconfig:"HIGH_TEMP" default:"35" validate:"gtfield=LowTemp"`

	HighHumidity float64 `envconfig:"HIGH_HUMIDITY" default:"85" validate:"gte=0,lte=100"`
}

// Load reads configuration from the environment, optionally seeded from a
// .env file in the working directory, and validates it.
func Load() (Config, error) {
	// Best effort: a missing .env is normal, real env vars win anyway.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and threshold ordering.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Calibration returns the logic-layer calibration parameters.
func (c Config) Calibration() logic.Calibration {
	return logic.Calibration{
		Soil: logic.SoilCalibration{
			DryRaw: c.SoilDryRaw,
			WetRaw: c.SoilWetRaw,
		},
		Acidity: logic.AcidityCalibration{
			VRef:   c.AcidityVRef,
			MaxRaw: c.AcidityMaxRaw,
			Slope:  c.AciditySlope,
			Offset: c.AcidityOffset,
		},
		RainThreshold: c.RainThreshold,
	}
}

// Thresholds returns the logic-layer hysteresis bands.
func (c Config) Thresholds() logic.Thresholds {
	return logic.Thresholds{
		LowMoisture:  c.LowMoisture,
		HighMoisture: c.HighMoisture,
		LowAcidity:   c.LowAcidity,
		HighAcidity:  c.HighAcidity,
		LowLight:     c.LowLight,
		HighLight:    c.HighLight,
		LowTemp:      c.LowTemp,
		HighTemp:     c.HighTemp,
		HighHumidity: c.HighHumidity,
	}
}
