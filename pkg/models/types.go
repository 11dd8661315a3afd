package models

import (
	"time"
)

// FlightPhase is one discrete stage of the simulated flight envelope.
type FlightPhase int

const (
	PhasePreflight FlightPhase = iota
	PhaseTakeoff
	PhaseClimb
	PhaseCruise
	PhaseDescent
	PhaseApproach
	PhaseLanding
	PhaseEmergency
)

// AllPhases lists every flight phase in envelope order. Emergency is last
// and is the only phase with no outgoing transition.
var AllPhases = []FlightPhase{
	PhasePreflight,
	PhaseTakeoff,
	PhaseClimb,
	PhaseCruise,
	PhaseDescent,
	PhaseApproach,
	PhaseLanding,
	PhaseEmergency,
}

func (p FlightPhase) String() string {
	switch p {
	case PhasePreflight:
		return "PREFLIGHT"
	case PhaseTakeoff:
		return "TAKEOFF"
	case PhaseClimb:
		return "CLIMB"
	case PhaseCruise:
		return "CRUISE"
	case PhaseDescent:
		return "DESCENT"
	case PhaseApproach:
		return "APPROACH"
	case PhaseLanding:
		return "LANDING"
	case PhaseEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// ControlCommand is the vector of actuator positions the flight phase
// machine currently prescribes. Elevator, aileron and rudder are in
// [-1, 1]; throttle is in [0, 1]. Every field is re-clamped after each
// recomputation regardless of the formula that produced it.
type ControlCommand struct {
	Elevator float64 `json:"elevator"`
	Aileron  float64 `json:"aileron"`
	Rudder   float64 `json:"rudder"`
	Throttle float64 `json:"throttle"`
}

// Clamp forces every field back into its documented range.
func (c *ControlCommand) Clamp() {
	c.Elevator = clamp(c.Elevator, -1.0, 1.0)
	c.Aileron = clamp(c.Aileron, -1.0, 1.0)
	c.Rudder = clamp(c.Rudder, -1.0, 1.0)
	c.Throttle = clamp(c.Throttle, 0.0, 1.0)
}

// InRange reports whether every field is inside its documented range.
func (c ControlCommand) InRange() bool {
	return c.Elevator >= -1.0 && c.Elevator <= 1.0 &&
		c.Aileron >= -1.0 && c.Aileron <= 1.0 &&
		c.Rudder >= -1.0 && c.Rudder <= 1.0 &&
		c.Throttle >= 0.0 && c.Throttle <= 1.0
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SensorReading is one cycle's filtered synthetic sensor snapshot. It is
// produced fresh each cycle and never mutated after creation.
type SensorReading struct {
	Altitude      float64 `json:"altitude"`      // meters
	Airspeed      float64 `json:"airspeed"`      // m/s
	Pressure      float64 `json:"pressure"`      // hPa
	Temperature   float64 `json:"temperature"`   // Celsius
	VerticalSpeed float64 `json:"verticalSpeed"` // m/s, from filtered altitude history
	Valid         bool    `json:"valid"`
}

// FaultSeverity classifies a detected anomaly.
type FaultSeverity int

const (
	SeverityInfo FaultSeverity = iota
	SeverityWarning
	SeverityCritical
	SeverityFatal
)

func (s FaultSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Gating reports whether this severity flips the aggregate safety verdict.
// Only Critical and Fatal do; Warning and Info never affect it.
func (s FaultSeverity) Gating() bool {
	return s == SeverityCritical || s == SeverityFatal
}

// FaultRecord is an append-only entry describing one detected anomaly.
type FaultRecord struct {
	Timestamp   time.Time     `json:"timestamp"`
	Severity    FaultSeverity `json:"severity"`
	Component   string        `json:"component"`
	Description string        `json:"description"`
	Resolved    bool          `json:"resolved"`
}

// TelemetryRecord is the immutable per-cycle record handed to the logging
// collaborator. One record is emitted per cycle, always complete.
type TelemetryRecord struct {
	Timestamp      time.Time      `json:"timestamp"`
	SimulationTime float64        `json:"simulationTime"`
	Sensors        SensorReading  `json:"sensors"`
	Phase          FlightPhase    `json:"phase"`
	Controls       ControlCommand `json:"controls"`
	ActiveFaults   int            `json:"activeFaults"`
}

// Sensor envelope limits checked by the safety monitor.
const (
	AltitudeMin = -500.0
	AltitudeMax = 15000.0
	AirspeedMin = 0.0
	AirspeedMax = 300.0
	PressureMin = 100.0
	PressureMax = 1100.0

	// SaturationLimit is the per-axis control surface magnitude above which
	// a saturation warning is reported.
	SaturationLimit = 0.95

	// InvalidSentinel is the fixed out-of-range value a faulted sensor
	// channel reports instead of its simulated profile.
	InvalidSentinel = -999.0
)
