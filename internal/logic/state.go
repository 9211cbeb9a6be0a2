package logic

// ActuatorState holds the on/off status of the four effectors. It is a
// plain value type: the control loop owns one instance and passes copies
// around, so a struct copy is the state snapshot. There are no cross-field
// invariants; each actuator is governed by its own hysteresis rule and any
// combination of states is legal.
type ActuatorState struct {
	Pump       bool
	Fertiliser bool
	Light      bool
	Fan        bool
}

// SetPump applies a manual override to the irrigation pump, bypassing the
// policy. The next automatic cycle may immediately re-decide it.
func (s *ActuatorState) SetPump(on bool) { s.Pump = on }

// SetFertiliser applies a manual override to the fertiliser pump.
func (s *ActuatorState) SetFertiliser(on bool) { s.Fertiliser = on }

// SetLight applies a manual override to the grow-light.
func (s *ActuatorState) SetLight(on bool) { s.Light = on }

// SetFan applies a manual override to the ventilation fan.
func (s *ActuatorState) SetFan(on bool) { s.Fan = on }

// Set applies a manual override to the named actuator. Unknown names are
// ignored; command parsing upstream only produces known actuators.
func (s *ActuatorState) Set(a Actuator, on bool) {
	switch a {
	case ActuatorPump:
		s.Pump = on
	case ActuatorFertiliser:
		s.Fertiliser = on
	case ActuatorLight:
		s.Light = on
	case ActuatorFan:
		s.Fan = on
	}
}

// Get returns the named actuator's current status.
func (s ActuatorState) Get(a Actuator) bool {
	switch a {
	case ActuatorPump:
		return s.Pump
	case ActuatorFertiliser:
		return s.Fertiliser
	case ActuatorLight:
		return s.Light
	case ActuatorFan:
		return s.Fan
	}
	return false
}
