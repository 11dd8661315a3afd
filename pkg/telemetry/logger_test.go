package telemetry

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avsim/flight-monitor/pkg/models"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l := New(Config{
		Directory:          t.TempDir(),
		EventLogMaxSizeMB:  1,
		EventLogMaxBackups: 1,
	})
	if err := l.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return l
}

func sampleRecord() models.TelemetryRecord {
	return models.TelemetryRecord{
		Timestamp:      time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		SimulationTime: 42.5,
		Sensors: models.SensorReading{
			Altitude:      3012.75,
			Airspeed:      101.2,
			Pressure:      707.1,
			Temperature:   -4.6,
			VerticalSpeed: 0.3,
			Valid:         true,
		},
		Phase: models.PhaseCruise,
		Controls: models.ControlCommand{
			Elevator: 0.0,
			Throttle: 0.7,
		},
		ActiveFaults: 2,
	}
}

func TestWritesHeaderAndRows(t *testing.T) {
	l := newTestLogger(t)

	if err := l.LogData(sampleRecord()); err != nil {
		t.Fatalf("LogData() error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	f, err := os.Open(l.DataFile)
	if err != nil {
		t.Fatalf("open data file: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1 record", len(rows))
	}

	header := rows[0]
	if len(header) != 14 || header[0] != "Timestamp" || header[13] != "SensorValid" {
		t.Errorf("unexpected header: %v", header)
	}

	row := rows[1]
	if row[1] != "42.50" {
		t.Errorf("simulation time column = %q, want 42.50", row[1])
	}
	if row[7] != "CRUISE" {
		t.Errorf("phase column = %q, want CRUISE", row[7])
	}
	if row[12] != "2" {
		t.Errorf("active faults column = %q, want 2", row[12])
	}
	if row[13] != "true" {
		t.Errorf("validity column = %q, want true", row[13])
	}
}

func TestDataFileNameIsTimestamped(t *testing.T) {
	l := newTestLogger(t)
	defer l.Close()

	base := filepath.Base(l.DataFile)
	if !strings.HasPrefix(base, "flight_data_") || !strings.HasSuffix(base, ".csv") {
		t.Errorf("data file name %q does not match flight_data_*.csv", base)
	}
}

func TestLogEventAppendsToEventLog(t *testing.T) {
	l := newTestLogger(t)
	l.LogEvent("Emergency mode activated due to critical fault")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(l.cfg.Directory, "events.log"))
	if err != nil {
		t.Fatalf("read event log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Telemetry logging system initialized") {
		t.Error("initialization event missing from event log")
	}
	if !strings.Contains(content, "Emergency mode activated due to critical fault") {
		t.Error("logged event missing from event log")
	}
	if !strings.Contains(content, "Logging system shutdown") {
		t.Error("shutdown event missing from event log")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l := newTestLogger(t)
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}

func TestLogDataAfterCloseFails(t *testing.T) {
	l := newTestLogger(t)
	l.Close()

	if err := l.LogData(sampleRecord()); err != models.ErrTelemetryClosed {
		t.Errorf("LogData() after close = %v, want ErrTelemetryClosed", err)
	}
}

func TestInitializeFailsOnUnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0o500); err != nil {
		t.Fatal(err)
	}
	l := New(Config{Directory: filepath.Join(parent, "logs")})
	if err := l.Initialize(); err == nil {
		t.Error("Initialize() succeeded in an unwritable directory")
	}
}
