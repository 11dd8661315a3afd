package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/avsim/flight-monitor/pkg/models"
)

// Config holds the configuration for the flight simulation monitor.
type Config struct {
	// Simulation loop settings
	Simulation SimulationConfig `yaml:"simulation"`

	// Sensor simulation settings
	Sensors SensorConfig `yaml:"sensors"`

	// Safety monitor settings
	Safety SafetyConfig `yaml:"safety"`

	// Scripted fault injection (test/demo affordance)
	FaultScript FaultScriptConfig `yaml:"faultScript"`

	// Telemetry sink settings
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// SimulationConfig contains run loop settings.
type SimulationConfig struct {
	// Simulation duration in seconds
	Duration float64 `yaml:"duration"`

	// Update rate in Hz; valid range is [1, 100]
	UpdateRateHz float64 `yaml:"updateRateHz"`

	// Seed for the deterministic per-channel noise streams.
	// Zero selects a time-based seed.
	Seed int64 `yaml:"seed"`

	// Pace cycles against the wall clock. Has no effect on simulated
	// results; purely a demo affordance.
	RealTime bool `yaml:"realTime"`

	// Print a status line once per simulated second
	PrintStatus bool `yaml:"printStatus"`

	// HTTP status server port (0 disables)
	StatusPort int `yaml:"statusPort"`
}

// SensorConfig contains sensor simulation settings.
type SensorConfig struct {
	// Rolling filter window size (samples)
	FilterWindow int `yaml:"filterWindow"`

	// Gaussian noise standard deviations per channel. Zero disables
	// noise for that channel.
	AltitudeNoise    float64 `yaml:"altitudeNoise"`
	AirspeedNoise    float64 `yaml:"airspeedNoise"`
	PressureNoise    float64 `yaml:"pressureNoise"`
	TemperatureNoise float64 `yaml:"temperatureNoise"`
}

// SafetyConfig contains safety monitor settings.
type SafetyConfig struct {
	// RecountOnClear controls whether clearing resolved faults recomputes
	// the Critical/Fatal counters that gate the safety verdict. The
	// default false keeps the verdict latched for the rest of the run
	// once a gating fault has been reported.
	RecountOnClear bool `yaml:"recountOnClear"`
}

// FaultScriptConfig describes the deterministic scripted airspeed fault.
type FaultScriptConfig struct {
	// Simulated time at which the airspeed fault is injected.
	// Negative disables the script.
	InjectAt float64 `yaml:"injectAt"`

	// Number of ticks after injection at which the fault is cleared
	ClearAfterTicks int `yaml:"clearAfterTicks"`
}

// Enabled reports whether the script fires during a run.
func (f FaultScriptConfig) Enabled() bool {
	return f.InjectAt >= 0
}

// TelemetryConfig contains telemetry sink settings.
type TelemetryConfig struct {
	// Directory for telemetry CSV and event log files
	Directory string `yaml:"directory"`

	// Event log rotation limits
	EventLogMaxSizeMB  int `yaml:"eventLogMaxSizeMB"`
	EventLogMaxBackups int `yaml:"eventLogMaxBackups"`
}

// LoggingConfig contains operator logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Emit JSON-formatted structured logs
	Structured bool `yaml:"structured"`
}

// Default simulation parameters.
const (
	DefaultDuration     = 240.0
	DefaultUpdateRateHz = 10.0
	MinUpdateRateHz     = 1.0
	MaxUpdateRateHz     = 100.0
)

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Duration:     DefaultDuration,
			UpdateRateHz: DefaultUpdateRateHz,
			Seed:         getEnvInt64OrDefault("SIM_SEED", 0),
			RealTime:     getEnvBoolOrDefault("SIM_REALTIME", false),
			PrintStatus:  true,
			StatusPort:   getEnvIntOrDefault("STATUS_PORT", 0),
		},
		Sensors: SensorConfig{
			FilterWindow:     5,
			AltitudeNoise:    2.0,
			AirspeedNoise:    1.5,
			PressureNoise:    0.5,
			TemperatureNoise: 0.3,
		},
		Safety: SafetyConfig{
			RecountOnClear: false,
		},
		FaultScript: FaultScriptConfig{
			InjectAt:        100.0,
			ClearAfterTicks: 50,
		},
		Telemetry: TelemetryConfig{
			Directory:          getEnvOrDefault("TELEMETRY_DIR", "logs"),
			EventLogMaxSizeMB:  16,
			EventLogMaxBackups: 3,
		},
		Logging: LoggingConfig{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Structured: getEnvBoolOrDefault("STRUCTURED_LOGGING", false),
		},
	}
}

// LoadFile overlays YAML settings from path onto the configuration.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyArgs applies the optional positional command-line arguments
// (duration seconds, update rate Hz). Malformed or out-of-range values
// fall back to the defaults; each fallback is described by a returned
// warning string for the caller to report. Never fatal.
func (c *Config) ApplyArgs(args []string) []string {
	var warnings []string

	if len(args) > 0 {
		d, err := strconv.ParseFloat(args[0], 64)
		if err != nil || d <= 0 {
			warnings = append(warnings, fmt.Sprintf(
				"invalid duration argument %q, using default %.1f seconds", args[0], DefaultDuration))
		} else {
			c.Simulation.Duration = d
		}
	}

	if len(args) > 1 {
		r, err := strconv.ParseFloat(args[1], 64)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf(
				"invalid update rate argument %q, using default %.1f Hz", args[1], DefaultUpdateRateHz))
		case r < MinUpdateRateHz || r > MaxUpdateRateHz:
			warnings = append(warnings, fmt.Sprintf(
				"update rate must be between %.0f and %.0f Hz, using default %.1f Hz",
				MinUpdateRateHz, MaxUpdateRateHz, DefaultUpdateRateHz))
		default:
			c.Simulation.UpdateRateHz = r
		}
	}

	return warnings
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Simulation.Duration <= 0 {
		return models.ErrInvalidDuration
	}
	if c.Simulation.UpdateRateHz < MinUpdateRateHz || c.Simulation.UpdateRateHz > MaxUpdateRateHz {
		return models.ErrInvalidUpdateRate
	}
	if c.Sensors.FilterWindow < 1 {
		return models.ErrInvalidFilterSize
	}
	if c.FaultScript.ClearAfterTicks < 0 {
		return fmt.Errorf("faultScript.clearAfterTicks must be >= 0")
	}
	if c.Telemetry.Directory == "" {
		return fmt.Errorf("telemetry.directory cannot be empty")
	}
	return nil
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}
