package flight

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/avsim/flight-monitor/pkg/models"
)

// conditions is the per-cycle input a transition predicate sees.
type conditions struct {
	Altitude      float64
	Airspeed      float64
	VerticalSpeed float64
	PhaseElapsed  float64 // seconds of simulated time in the current phase
	Throttle      float64 // current commanded throttle
}

// transition pairs a phase's exit predicate with its successor. Phases
// absent from the table (Landing, Emergency) have no outgoing transition.
type transition struct {
	next models.FlightPhase
	when func(c conditions) bool
}

var transitions = map[models.FlightPhase]transition{
	models.PhasePreflight: {
		next: models.PhaseTakeoff,
		when: func(c conditions) bool { return c.Airspeed > 5.0 && c.Throttle > 0.5 },
	},
	models.PhaseTakeoff: {
		next: models.PhaseClimb,
		when: func(c conditions) bool { return c.Altitude > 100.0 && c.VerticalSpeed > 2.0 },
	},
	models.PhaseClimb: {
		next: models.PhaseCruise,
		when: func(c conditions) bool { return c.Altitude > 3000.0 && math.Abs(c.VerticalSpeed) < 1.0 },
	},
	models.PhaseCruise: {
		next: models.PhaseDescent,
		when: func(c conditions) bool { return c.PhaseElapsed > 60.0 && c.VerticalSpeed < -1.0 },
	},
	models.PhaseDescent: {
		next: models.PhaseApproach,
		when: func(c conditions) bool { return c.Altitude < 500.0 && c.Airspeed < 80.0 },
	},
	models.PhaseApproach: {
		next: models.PhaseLanding,
		when: func(c conditions) bool { return c.Altitude < 50.0 },
	},
}

// commandTable is the deterministic per-phase control law. Aileron and
// rudder are not driven by the table; they keep their last commanded value
// and are only re-clamped.
var commandTable = map[models.FlightPhase]struct {
	throttle float64
	elevator float64
}{
	models.PhasePreflight: {throttle: 0.0, elevator: 0.0},
	models.PhaseTakeoff:   {throttle: 1.0, elevator: 0.15},
	models.PhaseClimb:     {throttle: 0.9, elevator: 0.10},
	models.PhaseCruise:    {throttle: 0.7, elevator: 0.0},
	models.PhaseDescent:   {throttle: 0.4, elevator: -0.05},
	models.PhaseApproach:  {throttle: 0.3, elevator: -0.08},
	models.PhaseLanding:   {throttle: 0.1, elevator: -0.10},
	models.PhaseEmergency: {throttle: 0.5, elevator: 0.0},
}

// Machine owns the current flight phase and the control command vector.
// Phase timing uses simulated time so runs reproduce exactly regardless
// of wall-clock pacing.
type Machine struct {
	log *logrus.Logger

	current   models.FlightPhase
	previous  models.FlightPhase
	enteredAt float64 // simulated time at phase entry
	controls  models.ControlCommand
	completed bool
}

// New creates a phase machine in Preflight with all controls at zero.
func New(log *logrus.Logger) *Machine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Machine{
		log:      log,
		current:  models.PhasePreflight,
		previous: models.PhasePreflight,
	}
}

// Advance evaluates the current phase's exit condition against the given
// measurements, performs at most one transition, then recomputes the
// control command for the (possibly new) phase. simTime is the current
// simulated time in seconds.
func (m *Machine) Advance(simTime, altitude, airspeed, verticalSpeed float64) {
	c := conditions{
		Altitude:      altitude,
		Airspeed:      airspeed,
		VerticalSpeed: verticalSpeed,
		PhaseElapsed:  simTime - m.enteredAt,
		Throttle:      m.controls.Throttle,
	}

	if tr, ok := transitions[m.current]; ok && tr.when(c) {
		m.transitionTo(tr.next, simTime)
	}

	if m.current == models.PhaseLanding && altitude < 5.0 && airspeed < 20.0 {
		m.completed = true
	}

	m.applyControlLaw()
}

// ForceEmergency unconditionally transitions to Emergency and records the
// phase it interrupted. Emergency is terminal; repeated calls leave the
// current phase unchanged but update the diagnostic previous phase.
func (m *Machine) ForceEmergency(reason string, simTime float64) {
	m.log.WithFields(logrus.Fields{
		"previousPhase": m.current.String(),
		"reason":        reason,
	}).Error("Emergency mode triggered")

	m.previous = m.current
	m.current = models.PhaseEmergency
	m.enteredAt = simTime
	m.applyControlLaw()
}

// CommandThrottle sets the throttle command directly, clamped to [0, 1].
// This is the manual input that arms the Preflight exit condition; the
// Preflight control law itself commands zero throttle.
func (m *Machine) CommandThrottle(v float64) {
	m.controls.Throttle = v
	m.controls.Clamp()
}

// CurrentPhase returns the current flight phase.
func (m *Machine) CurrentPhase() models.FlightPhase {
	return m.current
}

// PreviousPhase returns the phase before the most recent transition.
func (m *Machine) PreviousPhase() models.FlightPhase {
	return m.previous
}

// Command returns a copy of the current control command vector.
func (m *Machine) Command() models.ControlCommand {
	return m.controls
}

// Completed reports whether the landing rollout has finished. It is a
// diagnostic, not a phase.
func (m *Machine) Completed() bool {
	return m.completed
}

// TimeInPhase returns the simulated seconds spent in the current phase.
func (m *Machine) TimeInPhase(simTime float64) float64 {
	return simTime - m.enteredAt
}

func (m *Machine) transitionTo(next models.FlightPhase, simTime float64) {
	if next == m.current {
		return
	}
	m.previous = m.current
	m.current = next
	m.enteredAt = simTime

	m.log.WithFields(logrus.Fields{
		"from":    m.previous.String(),
		"to":      m.current.String(),
		"simTime": simTime,
	}).Info("Flight phase transition")
}

// applyControlLaw recomputes throttle and elevator from the phase table
// and re-clamps every axis.
func (m *Machine) applyControlLaw() {
	law := commandTable[m.current]
	m.controls.Throttle = law.throttle
	m.controls.Elevator = law.elevator
	m.controls.Clamp()
}
