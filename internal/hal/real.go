//go:build linux

package hal

import (
	"fmt"
	"math"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

// ReaderOpts configures the real sensor reader.
type ReaderOpts struct {
	// I2CBus is the bus name, e.g. "/dev/i2c-1". Empty selects the first
	// available bus.
	I2CBus string
	// ClimateAddr is the BME280 I²C address (0x76 or 0x77).
	ClimateAddr uint16
}

// DefaultReaderOpts returns the reference wiring.
func DefaultReaderOpts() ReaderOpts {
	return ReaderOpts{ClimateAddr: 0x76}
}

var adsChannels = [4]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// RealReader reads the BME280 climate sensor and the four analog probes on
// an ADS1115, all on one I²C bus.
type RealReader struct {
	bus     i2c.BusCloser
	climate *bmxx80.Dev
	soil    ads1x15.PinADC
	acidity ads1x15.PinADC
	light   ads1x15.PinADC
	rain    ads1x15.PinADC
}

// NewRealReader opens the I²C bus and configures both devices.
func NewRealReader(opts ReaderOpts) (*RealReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	bus, err := i2creg.Open(opts.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}

	climate, err := bmxx80.NewI2C(bus, opts.ClimateAddr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("init bme280 at %#x: %w", opts.ClimateAddr, err)
	}

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		climate.Halt()
		bus.Close()
		return nil, fmt.Errorf("init ads1115: %w", err)
	}

	r := &RealReader{bus: bus, climate: climate}
	pins := []struct {
		name    string
		channel int
		dst     *ads1x15.PinADC
	}{
		{"soil", ChannelSoil, &r.soil},
		{"acidity", ChannelAcidity, &r.acidity},
		{"light", ChannelLight, &r.light},
		{"rain", ChannelRain, &r.rain},
	}
	for _, p := range pins {
		pin, err := adc.PinForChannel(adsChannels[p.channel], 3300*physic.MilliVolt, 1*physic.Hertz, ads1x15.SaveEnergy)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s channel %d: %w", p.name, p.channel, err)
		}
		*p.dst = pin
	}

	return r, nil
}

// Read returns one cycle's raw readings. A failed climate read yields NaN
// temperature/humidity; the snapshot validation downstream invalidates the
// cycle. ADC read failures are returned as errors.
func (r *RealReader) Read() (logic.RawReadings, error) {
	readings := logic.RawReadings{
		Temperature: math.NaN(),
		Humidity:    math.NaN(),
	}

	var env physic.Env
	if err := r.climate.Sense(&env); err == nil {
		readings.Temperature = env.Temperature.Celsius()
		readings.Humidity = float64(env.Humidity) / float64(physic.PercentRH)
	}

	channels := []struct {
		name string
		pin  ads1x15.PinADC
		dst  *int
	}{
		{"soil", r.soil, &readings.Soil},
		{"acidity", r.acidity, &readings.Acidity},
		{"light", r.light, &readings.Light},
		{"rain", r.rain, &readings.Rain},
	}
	for _, c := range channels {
		sample, err := c.pin.Read()
		if err != nil {
			return readings, fmt.Errorf("read %s channel: %w", c.name, err)
		}
		*c.dst = counts12(sample.Raw)
	}

	return readings, nil
}

// counts12 scales a signed 16-bit ADS1115 count to the 12-bit range the
// calibration defaults assume. Negative counts (input below ground) clamp
// to zero.
func counts12(raw int32) int {
	if raw < 0 {
		return 0
	}
	return int(raw >> 3)
}

// Close halts both devices and releases the bus.
func (r *RealReader) Close() error {
	var errs []error

	for _, pin := range []ads1x15.PinADC{r.soil, r.acidity, r.light, r.rain} {
		if pin == nil {
			continue
		}
		if err := pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt adc pin: %w", err))
		}
	}
	if r.climate != nil {
		if err := r.climate.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt bme280: %w", err))
		}
	}
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWriter drives the relay board through the Linux GPIO character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	pump  *gpiocdev.Line
	fert  *gpiocdev.Line
	light *gpiocdev.Line
	fan   *gpiocdev.Line
}

// relayValue translates a logical intent to the active-LOW drive level.
func relayValue(on bool) int {
	if on {
		return 0
	}
	return 1
}

// NewRealWriter requests the four relay lines as outputs, all de-energized.
func NewRealWriter(pins RelayPins) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{chip: chip}
	lines := []struct {
		name string
		pin  int
		dst  **gpiocdev.Line
	}{
		{"pump", pins.Pump, &w.pump},
		{"fertiliser", pins.Fertiliser, &w.fert},
		{"light", pins.Light, &w.light},
		{"fan", pins.Fan, &w.fan},
	}
	for _, l := range lines {
		line, err := chip.RequestLine(l.pin, gpiocdev.AsOutput(relayValue(false)))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s relay pin %d: %w", l.name, l.pin, err)
		}
		*l.dst = line
	}

	return w, nil
}

// Apply drives all four relays to match the given state.
func (w *RealWriter) Apply(state logic.ActuatorState) error {
	lines := []struct {
		name string
		line *gpiocdev.Line
		on   bool
	}{
		{"pump", w.pump, state.Pump},
		{"fertiliser", w.fert, state.Fertiliser},
		{"light", w.light, state.Light},
		{"fan", w.fan, state.Fan},
	}
	for _, l := range lines {
		if err := l.line.SetValue(relayValue(l.on)); err != nil {
			return fmt.Errorf("drive %s relay: %w", l.name, err)
		}
	}
	return nil
}

// Close de-energizes every relay before releasing the lines, so a daemon
// restart never leaves a pump running.
func (w *RealWriter) Close() error {
	var errs []error

	for _, line := range []*gpiocdev.Line{w.pump, w.fert, w.light, w.fan} {
		if line == nil {
			continue
		}
		if err := line.SetValue(relayValue(false)); err != nil {
			errs = append(errs, fmt.Errorf("de-energize relay: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay line: %w", err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
