package hal

import (
	"errors"
	"testing"

	"github.com/sweeney/greenhouse-controller/internal/logic"
)

func TestFakeReaderSequence(t *testing.T) {
	samples := []logic.RawReadings{
		{Temperature: 20, Humidity: 40, Soil: 3000},
		{Temperature: 21, Humidity: 41, Soil: 2900},
		{Temperature: 22, Humidity: 42, Soil: 2800},
	}
	f := NewFakeReader(samples)

	for i, want := range samples {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: got %+v, want %+v", i, got, want)
		}
	}

	// Exhausted samples repeat the last one.
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != samples[len(samples)-1] {
		t.Errorf("exhausted read: got %+v, want last sample", got)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)
	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]logic.RawReadings{{Temperature: 20}})
	f.ReadError = errors.New("i2c fault")
	if _, err := f.Read(); err == nil {
		t.Error("expected configured read error")
	}
}

func TestFakeReaderReset(t *testing.T) {
	samples := []logic.RawReadings{{Soil: 1}, {Soil: 2}}
	f := NewFakeReader(samples)
	f.Read()
	f.Read()
	f.Close()

	f.Reset()
	if f.Closed {
		t.Error("Reset should clear Closed")
	}
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Soil != 1 {
		t.Errorf("after Reset: got soil=%d, want 1", got.Soil)
	}
}

func TestFakeWriterRecordsStates(t *testing.T) {
	w := NewFakeWriter()

	first := logic.ActuatorState{Pump: true}
	second := logic.ActuatorState{Pump: true, Fan: true}

	if err := w.Apply(first); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := w.Apply(second); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(w.Applied) != 2 {
		t.Fatalf("expected 2 recorded states, got %d", len(w.Applied))
	}
	if w.Applied[0] != first || w.Applied[1] != second {
		t.Errorf("recorded states wrong: %+v", w.Applied)
	}
	if w.Current != second {
		t.Errorf("Current: got %+v, want %+v", w.Current, second)
	}
}

func TestFakeWriterError(t *testing.T) {
	w := NewFakeWriter()
	w.ApplyError = errors.New("relay fault")

	if err := w.Apply(logic.ActuatorState{Pump: true}); err == nil {
		t.Error("expected configured apply error")
	}
	if len(w.Applied) != 0 {
		t.Error("failed apply must not record a state")
	}
}
