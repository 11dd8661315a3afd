package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avsim/flight-monitor/pkg/config"
	"github.com/avsim/flight-monitor/pkg/flight"
	"github.com/avsim/flight-monitor/pkg/models"
	"github.com/avsim/flight-monitor/pkg/safety"
	"github.com/avsim/flight-monitor/pkg/sensors"
)

// Sink receives the orchestrator's per-cycle records and event notices.
// Close must be safe to call exactly once at shutdown, including after an
// abnormal termination.
type Sink interface {
	Initialize() error
	LogData(models.TelemetryRecord) error
	LogEvent(event string)
	Close() error
}

// Summary carries the per-run totals reported at shutdown.
type Summary struct {
	Cycles       int
	FinalPhase   models.FlightPhase
	ActiveFaults int
	Safe         bool
	Completed    bool
}

// Orchestrator drives the periodic simulation loop: sensor read, phase
// advance, safety checks, conditional emergency override, record emission.
// The pipeline is single-threaded and synchronous; each cycle runs to
// completion before the next begins.
type Orchestrator struct {
	cfg *config.Config
	log *logrus.Logger

	sensors *sensors.Simulator
	machine *flight.Machine
	safety  *safety.Monitor
	sink    Sink

	cycles    int
	closeOnce sync.Once

	// latest is the only state shared with the status server.
	mu        sync.RWMutex
	latest    models.TelemetryRecord
	hasLatest bool
}

// New wires the core components together around the given sink.
func New(cfg *config.Config, sink Sink, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		cfg: cfg,
		log: log,
		sensors: sensors.New(sensors.Config{
			FilterWindow:     cfg.Sensors.FilterWindow,
			UpdateRateHz:     cfg.Simulation.UpdateRateHz,
			Seed:             cfg.Simulation.Seed,
			AltitudeNoise:    cfg.Sensors.AltitudeNoise,
			AirspeedNoise:    cfg.Sensors.AirspeedNoise,
			PressureNoise:    cfg.Sensors.PressureNoise,
			TemperatureNoise: cfg.Sensors.TemperatureNoise,
		}),
		machine: flight.New(log),
		safety:  safety.New(safety.Config{RecountOnClear: cfg.Safety.RecountOnClear}, log),
		sink:    sink,
	}
}

// Initialize prepares the sink. A sink that cannot be opened is fatal to
// the run.
func (o *Orchestrator) Initialize() error {
	if err := o.sink.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize telemetry sink: %w", err)
	}
	o.sink.LogEvent("System initialization complete")
	return nil
}

// RunCycle performs exactly one pipeline pass at the given simulated time
// and returns the record it emitted.
func (o *Orchestrator) RunCycle(simTime float64) (models.TelemetryRecord, error) {
	reading := o.sensors.Read(simTime)

	o.machine.Advance(simTime, reading.Altitude, reading.Airspeed, reading.VerticalSpeed)

	phase := o.machine.CurrentPhase()
	controls := o.machine.Command()

	o.safety.CheckSensors(reading)
	o.safety.CheckControls(controls)

	if !o.safety.IsSafe() && phase != models.PhaseEmergency {
		o.machine.ForceEmergency("Critical fault detected", simTime)
		o.sink.LogEvent("Emergency mode activated due to critical fault")
		phase = o.machine.CurrentPhase()
		controls = o.machine.Command()
	}

	rec := models.TelemetryRecord{
		Timestamp:      time.Now(),
		SimulationTime: simTime,
		Sensors:        reading,
		Phase:          phase,
		Controls:       controls,
		ActiveFaults:   len(o.safety.ActiveFaults()),
	}

	if err := o.sink.LogData(rec); err != nil {
		return rec, fmt.Errorf("failed to emit cycle record: %w", err)
	}

	o.mu.Lock()
	o.latest = rec
	o.hasLatest = true
	o.mu.Unlock()

	o.cycles++
	return rec, nil
}

// Run repeatedly calls RunCycle at the fixed simulation step dt = 1/rate
// until the configured duration has elapsed. Cancellation is observed at
// cycle boundaries only: the in-flight record always completes. The
// scripted airspeed fault fires at its configured tick offsets so equal
// configurations reproduce identical runs.
func (o *Orchestrator) Run(ctx context.Context, duration, rateHz float64) error {
	dt := 1.0 / rateHz
	totalTicks := int(duration*rateHz + 0.5)
	statusEvery := int(rateHz + 0.5)
	if statusEvery < 1 {
		statusEvery = 1
	}

	injectTick, clearTick := -1, -1
	if o.cfg.FaultScript.Enabled() {
		injectTick = int(o.cfg.FaultScript.InjectAt*rateHz + 0.5)
		clearTick = injectTick + o.cfg.FaultScript.ClearAfterTicks
	}

	o.log.WithFields(logrus.Fields{
		"duration":   duration,
		"updateRate": rateHz,
		"cycles":     totalTicks,
	}).Info("Starting simulation")
	o.sink.LogEvent("Flight simulation started")

	for tick := 0; tick < totalTicks; tick++ {
		select {
		case <-ctx.Done():
			o.log.Info("Simulation stopped by cancellation")
			o.sink.LogEvent("Flight simulation interrupted")
			return ctx.Err()
		default:
		}

		simTime := float64(tick) * dt

		switch tick {
		case injectTick:
			o.log.Warn("Injecting scripted airspeed sensor fault")
			o.sensors.InjectFault(false, true, false)
			o.sink.LogEvent("Test fault injected: Airspeed sensor")
		case clearTick:
			o.log.Info("Clearing scripted sensor fault")
			o.sensors.InjectFault(false, false, false)
			o.sink.LogEvent("Test fault cleared")
		}

		rec, err := o.RunCycle(simTime)
		if err != nil {
			return err
		}

		if o.cfg.Simulation.PrintStatus && tick%statusEvery == 0 {
			o.printStatus(rec)
		}

		if o.cfg.Simulation.RealTime {
			select {
			case <-time.After(time.Duration(dt * float64(time.Second))):
			case <-ctx.Done():
				// Current record is already emitted; stop at the boundary.
				o.log.Info("Simulation stopped by cancellation")
				o.sink.LogEvent("Flight simulation interrupted")
				return ctx.Err()
			}
		}
	}

	o.sink.LogEvent("Flight simulation completed")
	o.log.Info("Simulation complete")
	return nil
}

// Close shuts the sink down. Guaranteed to act exactly once no matter how
// many callers reach it on the way out.
func (o *Orchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		o.sink.LogEvent("System shutdown initiated")
		err = o.sink.Close()
	})
	return err
}

// Snapshot returns the most recently emitted record, if any. Safe to call
// from the status server goroutine.
func (o *Orchestrator) Snapshot() (models.TelemetryRecord, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest, o.hasLatest
}

// Summarize reports the per-run totals for the shutdown log.
func (o *Orchestrator) Summarize() Summary {
	return Summary{
		Cycles:       o.cycles,
		FinalPhase:   o.machine.CurrentPhase(),
		ActiveFaults: len(o.safety.ActiveFaults()),
		Safe:         o.safety.IsSafe(),
		Completed:    o.machine.Completed(),
	}
}

func (o *Orchestrator) printStatus(rec models.TelemetryRecord) {
	fields := logrus.Fields{
		"simTime":  fmt.Sprintf("%.1fs", rec.SimulationTime),
		"phase":    rec.Phase.String(),
		"altitude": fmt.Sprintf("%.1fm", rec.Sensors.Altitude),
		"airspeed": fmt.Sprintf("%.1fm/s", rec.Sensors.Airspeed),
		"vs":       fmt.Sprintf("%.1fm/s", rec.Sensors.VerticalSpeed),
		"throttle": fmt.Sprintf("%.0f%%", rec.Controls.Throttle*100),
		"faults":   rec.ActiveFaults,
	}
	if !rec.Sensors.Valid {
		fields["sensorFault"] = true
	}
	o.log.WithFields(fields).Info("Status")
}
