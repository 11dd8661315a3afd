package sensors

import (
	"math"
	"math/rand"

	"github.com/avsim/flight-monitor/pkg/models"
)

// Atmosphere model constants.
const (
	seaLevelPressure = 1013.25 // hPa
	scaleHeight      = 8500.0  // meters
	seaLevelTemp     = 15.0    // Celsius
	lapseRate        = 0.0065  // Celsius per meter
)

// Config holds sensor simulation parameters.
type Config struct {
	// FilterWindow is the rolling filter capacity in samples.
	FilterWindow int

	// UpdateRateHz scales the altitude delta into a vertical speed.
	UpdateRateHz float64

	// Seed for the per-channel noise streams. Each channel derives its
	// own deterministic stream from this value, so runs with the same
	// seed reproduce exactly.
	Seed int64

	// Per-channel Gaussian noise standard deviations. Zero disables.
	AltitudeNoise    float64
	AirspeedNoise    float64
	PressureNoise    float64
	TemperatureNoise float64
}

// Simulator produces filtered synthetic sensor readings for a given
// simulation time. It holds the only cross-cycle sensor state: the rolling
// filter histories and the fault injection flags.
type Simulator struct {
	cfg Config

	altitudeFilter *rollingFilter
	airspeedFilter *rollingFilter

	// Two most recent filtered altitude samples, for vertical speed.
	lastFiltered    float64
	prevFiltered    float64
	filteredSamples int

	altitudeNoise    *rand.Rand
	airspeedNoise    *rand.Rand
	pressureNoise    *rand.Rand
	temperatureNoise *rand.Rand

	altitudeFault bool
	airspeedFault bool
	pressureFault bool
}

// New creates a sensor simulator with deterministic per-channel noise
// streams derived from cfg.Seed.
func New(cfg Config) *Simulator {
	if cfg.FilterWindow < 1 {
		cfg.FilterWindow = 1
	}
	if cfg.UpdateRateHz <= 0 {
		cfg.UpdateRateHz = 10.0
	}
	return &Simulator{
		cfg:              cfg,
		altitudeFilter:   newRollingFilter(cfg.FilterWindow),
		airspeedFilter:   newRollingFilter(cfg.FilterWindow),
		altitudeNoise:    rand.New(rand.NewSource(cfg.Seed)),
		airspeedNoise:    rand.New(rand.NewSource(cfg.Seed + 1)),
		pressureNoise:    rand.New(rand.NewSource(cfg.Seed + 2)),
		temperatureNoise: rand.New(rand.NewSource(cfg.Seed + 3)),
	}
}

// Read simulates, filters and returns one sensor snapshot for the given
// simulation time. A channel with an active fault flag reports the invalid
// sentinel instead of its profile; its filter history is left untouched so
// filtering resumes cleanly when the fault clears.
func (s *Simulator) Read(simTime float64) models.SensorReading {
	var reading models.SensorReading

	if s.altitudeFault {
		reading.Altitude = models.InvalidSentinel
	} else {
		raw := s.simulateAltitude(simTime)
		filtered := s.altitudeFilter.Push(raw)
		s.prevFiltered = s.lastFiltered
		s.lastFiltered = filtered
		s.filteredSamples++
		reading.Altitude = filtered
	}

	if s.airspeedFault {
		reading.Airspeed = models.InvalidSentinel
	} else {
		reading.Airspeed = s.airspeedFilter.Push(s.simulateAirspeed(simTime))
	}

	if s.pressureFault {
		reading.Pressure = models.InvalidSentinel
	} else {
		reading.Pressure = s.simulatePressure(reading.Altitude)
	}

	reading.Temperature = s.simulateTemperature(reading.Altitude)
	reading.VerticalSpeed = s.verticalSpeed()
	reading.Valid = s.Healthy()

	return reading
}

// InjectFault toggles the per-channel override flags. Takes effect on the
// next Read, not retroactively.
func (s *Simulator) InjectFault(altitude, airspeed, pressure bool) {
	s.altitudeFault = altitude
	s.airspeedFault = airspeed
	s.pressureFault = pressure
}

// Healthy reports whether no fault override flag is set.
func (s *Simulator) Healthy() bool {
	return !s.altitudeFault && !s.airspeedFault && !s.pressureFault
}

// verticalSpeed derives the climb rate from the two most recent filtered
// altitude samples. Zero until two samples exist.
func (s *Simulator) verticalSpeed() float64 {
	if s.filteredSamples < 2 {
		return 0.0
	}
	return (s.lastFiltered - s.prevFiltered) * s.cfg.UpdateRateHz
}

// simulateAltitude produces the raw altitude for a piecewise flight
// profile: ground roll, quadratic climb, cruise with small oscillation,
// linear descent, then approach and landing.
func (s *Simulator) simulateAltitude(t float64) float64 {
	var altitude float64
	switch {
	case t < 20.0:
		altitude = 0.0
	case t < 50.0:
		dt := t - 20.0
		altitude = 5.0 * dt * dt
	case t < 150.0:
		altitude = 3000.0 + 50.0*math.Sin(t*0.1)
	case t < 200.0:
		altitude = 3000.0 - 15.0*(t-150.0)
	default:
		altitude = math.Max(0.0, 2250.0-10.0*(t-200.0))
	}

	noise := s.altitudeNoise.NormFloat64() * s.cfg.AltitudeNoise
	return math.Max(0.0, altitude+noise)
}

// simulateAirspeed produces the raw airspeed for the matching profile:
// ground roll, takeoff acceleration, climb, cruise oscillation, descent,
// then deceleration on approach.
func (s *Simulator) simulateAirspeed(t float64) float64 {
	var airspeed float64
	switch {
	case t < 15.0:
		airspeed = 0.0
	case t < 25.0:
		airspeed = 8.0 * (t - 15.0)
	case t < 50.0:
		airspeed = 80.0 + (t-25.0)*0.8
	case t < 150.0:
		airspeed = 100.0 + 10.0*math.Sin(t*0.05)
	case t < 200.0:
		airspeed = 95.0
	default:
		airspeed = math.Max(0.0, 95.0-3.0*(t-200.0))
	}

	noise := s.airspeedNoise.NormFloat64() * s.cfg.AirspeedNoise
	return math.Max(0.0, airspeed+noise)
}

// simulatePressure derives static pressure from the filtered altitude via
// the barometric formula P = P0 * exp(-altitude / H).
func (s *Simulator) simulatePressure(altitude float64) float64 {
	pressure := seaLevelPressure * math.Exp(-altitude/scaleHeight)
	return pressure + s.pressureNoise.NormFloat64()*s.cfg.PressureNoise
}

// simulateTemperature derives outside air temperature from the filtered
// altitude via a fixed lapse-rate model.
func (s *Simulator) simulateTemperature(altitude float64) float64 {
	temperature := seaLevelTemp - lapseRate*altitude
	return temperature + s.temperatureNoise.NormFloat64()*s.cfg.TemperatureNoise
}
