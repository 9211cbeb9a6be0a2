package logic

import "time"

// Thresholds holds the hysteresis bands for all four actuation rules. Each
// low/high pair straddles a dead zone where no transition occurs, so sensor
// noise near a single threshold cannot chatter a relay.
type Thresholds struct {
	LowMoisture  int // % — irrigate below this
	HighMoisture int // % — stop irrigating above this

	LowAcidity  float64 // pH — dose fertiliser below this
	HighAcidity float64 // pH — stop dosing above this

	LowLight  int // raw ADC — supplement with grow-light below this
	HighLight int // raw ADC — grow-light off above this

	LowTemp      float64 // °C — fan may turn off below this
	HighTemp     float64 // °C — fan on above this
	HighHumidity float64 // % RH — fan on above this, and blocks fan-off
}

// Engine applies the hysteresis actuation policy. It also tallies transition
// counts and tracks heartbeat timing for periodic status events.
type Engine struct {
	thresholds    Thresholds
	counts        TransitionCounts
	evaluated     bool
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewEngine creates a policy engine with the given thresholds. The startTime
// is used for calculating uptime in heartbeat events.
func NewEngine(t Thresholds, startTime time.Time) *Engine {
	return &Engine{
		thresholds:    t,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Evaluate runs one policy cycle: given the current actuator state and a
// snapshot, it returns the next state and the transitions that produced it.
// Each of the four rules is evaluated exactly once against the INPUT state,
// so evaluation order is immaterial and each actuator transitions at most
// once per cycle.
//
// An invalid snapshot skips the whole cycle: the state is returned unchanged
// and the third result is false so the caller can log or alert.
func (e *Engine) Evaluate(state ActuatorState, snap Snapshot) (ActuatorState, []Transition, bool) {
	if !snap.Valid {
		return state, nil, false
	}

	t := e.thresholds
	next := state
	var transitions []Transition

	record := func(a Actuator, on bool, reason string) {
		next.Set(a, on)
		transitions = append(transitions, Transition{
			Time:     snap.Time,
			Actuator: a,
			On:       on,
			Reason:   reason,
		})
	}

	// Water pump: rain overrides a dry bed in both directions.
	if !state.Pump && snap.SoilMoisture < t.LowMoisture && !snap.IsRaining {
		record(ActuatorPump, true, "soil dry")
	} else if state.Pump && (snap.SoilMoisture > t.HighMoisture || snap.IsRaining) {
		if snap.IsRaining {
			record(ActuatorPump, false, "raining")
		} else {
			record(ActuatorPump, false, "soil wet")
		}
	}

	// Fertiliser pump: alkaline correction while acidity is low.
	if !state.Fertiliser && snap.Acidity < t.LowAcidity {
		record(ActuatorFertiliser, true, "acidity low")
	} else if state.Fertiliser && snap.Acidity > t.HighAcidity {
		record(ActuatorFertiliser, false, "acidity ok")
	}

	// Grow-light.
	if !state.Light && snap.LightLevel < t.LowLight {
		record(ActuatorLight, true, "low ambient light")
	} else if state.Light && snap.LightLevel > t.HighLight {
		record(ActuatorLight, false, "sufficient light")
	}

	// Ventilation fan. The off rule is asymmetric: humidity must also have
	// dropped to non-high, otherwise a normalized temperature would shut
	// off ventilation while humidity alone still demands it.
	highHumidity := snap.Humidity > t.HighHumidity
	if !state.Fan && (snap.Temperature > t.HighTemp || highHumidity) {
		if snap.Temperature > t.HighTemp {
			record(ActuatorFan, true, "high temperature")
		} else {
			record(ActuatorFan, true, "high humidity")
		}
	} else if state.Fan && snap.Temperature < t.LowTemp && !highHumidity {
		record(ActuatorFan, false, "conditions normal")
	}

	// Stamp every transition with the full post-cycle state and tally.
	for i := range transitions {
		transitions[i].State = next
		e.count(transitions[i])
	}

	e.evaluated = true
	return next, transitions, true
}

// RecordManual tallies a manual-override transition so it shows up in
// heartbeat and status counts alongside policy decisions.
func (e *Engine) RecordManual(tr Transition) {
	e.count(tr)
}

func (e *Engine) count(tr Transition) {
	switch tr.Actuator {
	case ActuatorPump:
		if tr.On {
			e.counts.PumpOn++
		} else {
			e.counts.PumpOff++
		}
	case ActuatorFertiliser:
		if tr.On {
			e.counts.FertiliserOn++
		} else {
			e.counts.FertiliserOff++
		}
	case ActuatorLight:
		if tr.On {
			e.counts.LightOn++
		} else {
			e.counts.LightOff++
		}
	case ActuatorFan:
		if tr.On {
			e.counts.FanOn++
		} else {
			e.counts.FanOff++
		}
	}
}

// Evaluated reports whether at least one valid snapshot has been processed.
func (e *Engine) Evaluated() bool {
	return e.evaluated
}

// CountsSnapshot returns a copy of the transition counts.
func (e *Engine) CountsSnapshot() TransitionCounts {
	return e.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if no valid snapshot has been
// processed yet, if the interval has not elapsed, or if interval is <= 0
// (disabled).
func (e *Engine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !e.evaluated {
		return nil
	}

	if now.Sub(e.lastHeartbeat) < interval {
		return nil
	}

	e.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(e.startTime),
		Counts:    e.counts,
	}
}
