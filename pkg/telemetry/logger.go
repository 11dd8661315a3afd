package telemetry

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/avsim/flight-monitor/pkg/models"
)

const timestampLayout = "2006-01-02 15:04:05.000"

var csvHeader = []string{
	"Timestamp", "SimulationTime", "Altitude", "Airspeed", "Pressure",
	"Temperature", "VerticalSpeed", "FlightPhase", "Elevator", "Aileron",
	"Rudder", "Throttle", "ActiveFaults", "SensorValid",
}

// Config holds telemetry sink settings.
type Config struct {
	// Directory receiving the per-run CSV and the event log
	Directory string

	// Event log rotation limits
	EventLogMaxSizeMB  int
	EventLogMaxBackups int
}

// Logger persists per-cycle telemetry records to a timestamped CSV file
// and free-text events to a rotating log. It is the concrete logging
// collaborator consumed by the cycle orchestrator.
type Logger struct {
	cfg Config

	csvFile   *os.File
	csvWriter *csv.Writer
	events    *lumberjack.Logger
	closed    bool

	// DataFile is the path of the CSV opened by Initialize.
	DataFile string
}

// New creates a telemetry logger. Initialize must be called before use.
func New(cfg Config) *Logger {
	return &Logger{cfg: cfg}
}

// Initialize creates the log directory, opens the per-run CSV with its
// header row, and sets up the rotating event log.
func (l *Logger) Initialize() error {
	if err := os.MkdirAll(l.cfg.Directory, 0o755); err != nil {
		return fmt.Errorf("%w: %v", models.ErrTelemetryInit, err)
	}

	name := fmt.Sprintf("flight_data_%s.csv", time.Now().Format("20060102_150405"))
	l.DataFile = filepath.Join(l.cfg.Directory, name)

	f, err := os.Create(l.DataFile)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrTelemetryInit, err)
	}
	l.csvFile = f
	l.csvWriter = csv.NewWriter(f)

	if err := l.csvWriter.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", models.ErrTelemetryInit, err)
	}

	l.events = &lumberjack.Logger{
		Filename:   filepath.Join(l.cfg.Directory, "events.log"),
		MaxSize:    l.cfg.EventLogMaxSizeMB,
		MaxBackups: l.cfg.EventLogMaxBackups,
	}

	l.LogEvent("Telemetry logging system initialized")
	return nil
}

// LogData appends one complete cycle record to the CSV.
func (l *Logger) LogData(rec models.TelemetryRecord) error {
	if l.closed || l.csvWriter == nil {
		return models.ErrTelemetryClosed
	}

	row := []string{
		rec.Timestamp.Format(timestampLayout),
		formatFloat(rec.SimulationTime),
		formatFloat(rec.Sensors.Altitude),
		formatFloat(rec.Sensors.Airspeed),
		formatFloat(rec.Sensors.Pressure),
		formatFloat(rec.Sensors.Temperature),
		formatFloat(rec.Sensors.VerticalSpeed),
		rec.Phase.String(),
		formatFloat(rec.Controls.Elevator),
		formatFloat(rec.Controls.Aileron),
		formatFloat(rec.Controls.Rudder),
		formatFloat(rec.Controls.Throttle),
		strconv.Itoa(rec.ActiveFaults),
		strconv.FormatBool(rec.Sensors.Valid),
	}
	if err := l.csvWriter.Write(row); err != nil {
		return err
	}
	// Flush per record so an abnormal termination never loses a record
	// that was already emitted.
	l.csvWriter.Flush()
	return l.csvWriter.Error()
}

// LogEvent appends a timestamped free-text event. Events are flushed
// immediately so they survive abnormal termination.
func (l *Logger) LogEvent(event string) {
	if l.closed || l.events == nil {
		return
	}
	fmt.Fprintf(l.events, "%s - %s\n", time.Now().Format(timestampLayout), event)
}

// Close flushes and closes both files. Safe to call more than once; only
// the first call has any effect.
func (l *Logger) Close() error {
	if l.closed {
		return nil
	}
	l.LogEvent("Logging system shutdown")
	l.closed = true

	var firstErr error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		if err := l.csvWriter.Error(); err != nil {
			firstErr = err
		}
	}
	if l.csvFile != nil {
		if err := l.csvFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.events != nil {
		if err := l.events.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
