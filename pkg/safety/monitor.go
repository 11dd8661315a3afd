package safety

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avsim/flight-monitor/pkg/models"
)

// Config holds safety monitor settings.
type Config struct {
	// RecountOnClear controls the coupling between fault resolution and
	// the safety verdict. When false (the default), the Critical/Fatal
	// counter that gates IsSafe only ever grows: once the system has been
	// unsafe it stays unsafe for the rest of the run, no matter how many
	// resolved records are cleared. When true, ClearResolved recomputes
	// the counters from the remaining unresolved records.
	RecountOnClear bool
}

// Monitor evaluates sensor readings and control commands against envelope
// limits and accumulates fault records. It holds no other cross-cycle
// state than the fault list and its severity counters.
type Monitor struct {
	cfg Config
	log *logrus.Logger

	faults       []models.FaultRecord
	gatingFaults int // Critical + Fatal reports
	warnings     int
}

// New creates a safety monitor with empty fault state.
func New(cfg Config, log *logrus.Logger) *Monitor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Monitor{cfg: cfg, log: log}
}

// ReportFault appends a fault record and updates the severity counters.
func (m *Monitor) ReportFault(severity models.FaultSeverity, component, description string) {
	m.faults = append(m.faults, models.FaultRecord{
		Timestamp:   time.Now(),
		Severity:    severity,
		Component:   component,
		Description: description,
	})

	if severity.Gating() {
		m.gatingFaults++
	} else if severity == models.SeverityWarning {
		m.warnings++
	}

	m.log.WithFields(logrus.Fields{
		"severity":  severity.String(),
		"component": component,
	}).Warn(description)
}

// CheckSensors evaluates one reading against the envelope rules. An
// invalid reading reports a single Critical fault and short-circuits the
// remaining sensor checks for this cycle. The range rules and the
// dangerous-state rule are independent; several may fire in one cycle.
func (m *Monitor) CheckSensors(reading models.SensorReading) {
	if !reading.Valid {
		m.ReportFault(models.SeverityCritical, "SensorSimulator",
			"Sensor fault detected - invalid data")
		return
	}

	if !inRange(reading.Altitude, models.AltitudeMin, models.AltitudeMax) {
		m.ReportFault(models.SeverityWarning, "AltitudeSensor",
			"Altitude reading out of expected range")
	}
	if !inRange(reading.Airspeed, models.AirspeedMin, models.AirspeedMax) {
		m.ReportFault(models.SeverityWarning, "AirspeedSensor",
			"Airspeed reading out of expected range")
	}
	if !inRange(reading.Pressure, models.PressureMin, models.PressureMax) {
		m.ReportFault(models.SeverityWarning, "PressureSensor",
			"Pressure reading out of expected range")
	}

	if reading.Altitude < 0.0 && reading.Airspeed > 50.0 {
		m.ReportFault(models.SeverityFatal, "FlightSystem",
			"Critical: Negative altitude with high airspeed")
	}
}

// CheckControls reports a saturation warning for each control surface
// axis whose magnitude exceeds the limit. Throttle is exempt.
func (m *Monitor) CheckControls(cmd models.ControlCommand) {
	axes := []struct {
		name  string
		value float64
	}{
		{"ElevatorControl", cmd.Elevator},
		{"AileronControl", cmd.Aileron},
		{"RudderControl", cmd.Rudder},
	}
	for _, axis := range axes {
		if math.Abs(axis.value) > models.SaturationLimit {
			m.ReportFault(models.SeverityWarning, axis.name,
				fmt.Sprintf("%s near saturation limit", axis.name))
		}
	}
}

// ActiveFaults returns the unresolved fault records in insertion order.
func (m *Monitor) ActiveFaults() []models.FaultRecord {
	active := make([]models.FaultRecord, 0, len(m.faults))
	for _, f := range m.faults {
		if !f.Resolved {
			active = append(active, f)
		}
	}
	return active
}

// FaultCount returns the number of unresolved faults of the given severity.
func (m *Monitor) FaultCount(severity models.FaultSeverity) int {
	count := 0
	for _, f := range m.faults {
		if f.Severity == severity && !f.Resolved {
			count++
		}
	}
	return count
}

// IsSafe reports the aggregate safety verdict: false iff any Critical or
// Fatal fault has been counted. Warnings and Info never affect it.
func (m *Monitor) IsSafe() bool {
	return m.gatingFaults == 0
}

// Resolve marks every unresolved fault from the given component as
// resolved and returns how many records it touched. Resolution does not
// by itself change the safety verdict; see Config.RecountOnClear.
func (m *Monitor) Resolve(component string) int {
	resolved := 0
	for i := range m.faults {
		if m.faults[i].Component == component && !m.faults[i].Resolved {
			m.faults[i].Resolved = true
			resolved++
		}
	}
	return resolved
}

// ClearResolved compacts the fault list by removing resolved entries.
// With RecountOnClear set, the severity counters are recomputed from the
// remaining records; otherwise they are left untouched.
func (m *Monitor) ClearResolved() {
	kept := m.faults[:0]
	for _, f := range m.faults {
		if !f.Resolved {
			kept = append(kept, f)
		}
	}
	m.faults = kept

	if m.cfg.RecountOnClear {
		m.gatingFaults = 0
		m.warnings = 0
		for _, f := range m.faults {
			if f.Severity.Gating() {
				m.gatingFaults++
			} else if f.Severity == models.SeverityWarning {
				m.warnings++
			}
		}
	}
}

// Reset discards all fault state. Used at initialization only.
func (m *Monitor) Reset() {
	m.faults = nil
	m.gatingFaults = 0
	m.warnings = 0
}

func inRange(value, min, max float64) bool {
	return value >= min && value <= max
}
