package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Simulation.Duration != DefaultDuration {
		t.Errorf("duration = %v, want %v", cfg.Simulation.Duration, DefaultDuration)
	}
	if cfg.Simulation.UpdateRateHz != DefaultUpdateRateHz {
		t.Errorf("update rate = %v, want %v", cfg.Simulation.UpdateRateHz, DefaultUpdateRateHz)
	}
	if cfg.Sensors.FilterWindow != 5 {
		t.Errorf("filter window = %d, want 5", cfg.Sensors.FilterWindow)
	}
}

func TestApplyArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantDuration float64
		wantRate     float64
		warnings     int
	}{
		{"no args", nil, DefaultDuration, DefaultUpdateRateHz, 0},
		{"duration only", []string{"60"}, 60, DefaultUpdateRateHz, 0},
		{"duration and rate", []string{"120", "20"}, 120, 20, 0},
		{"malformed duration", []string{"abc"}, DefaultDuration, DefaultUpdateRateHz, 1},
		{"negative duration", []string{"-5"}, DefaultDuration, DefaultUpdateRateHz, 1},
		{"malformed rate", []string{"60", "fast"}, 60, DefaultUpdateRateHz, 1},
		{"rate above limit", []string{"60", "500"}, 60, DefaultUpdateRateHz, 1},
		{"rate below limit", []string{"60", "0.5"}, 60, DefaultUpdateRateHz, 1},
		{"both malformed", []string{"x", "y"}, DefaultDuration, DefaultUpdateRateHz, 2},
		{"boundary rates", []string{"60", "100"}, 60, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			warnings := cfg.ApplyArgs(tt.args)

			if cfg.Simulation.Duration != tt.wantDuration {
				t.Errorf("duration = %v, want %v", cfg.Simulation.Duration, tt.wantDuration)
			}
			if cfg.Simulation.UpdateRateHz != tt.wantRate {
				t.Errorf("rate = %v, want %v", cfg.Simulation.UpdateRateHz, tt.wantRate)
			}
			if len(warnings) != tt.warnings {
				t.Errorf("warnings = %d (%v), want %d", len(warnings), warnings, tt.warnings)
			}
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero duration", func(c *Config) { c.Simulation.Duration = 0 }},
		{"rate too high", func(c *Config) { c.Simulation.UpdateRateHz = 200 }},
		{"rate too low", func(c *Config) { c.Simulation.UpdateRateHz = 0.1 }},
		{"zero filter window", func(c *Config) { c.Sensors.FilterWindow = 0 }},
		{"negative clear ticks", func(c *Config) { c.FaultScript.ClearAfterTicks = -1 }},
		{"empty telemetry dir", func(c *Config) { c.Telemetry.Directory = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted an invalid config")
			}
		})
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.yaml")
	content := strings.Join([]string{
		"simulation:",
		"  duration: 30",
		"  updateRateHz: 50",
		"  seed: 99",
		"faultScript:",
		"  injectAt: -1",
		"logging:",
		"  level: debug",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Simulation.Duration != 30 {
		t.Errorf("duration = %v, want 30", cfg.Simulation.Duration)
	}
	if cfg.Simulation.Seed != 99 {
		t.Errorf("seed = %v, want 99", cfg.Simulation.Seed)
	}
	if cfg.FaultScript.Enabled() {
		t.Error("fault script still enabled after injectAt: -1")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Sensors.FilterWindow != 5 {
		t.Errorf("filter window = %d, want default 5", cfg.Sensors.FilterWindow)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadFile() succeeded for a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SIM_SEED", "1234")
	t.Setenv("TELEMETRY_DIR", "/tmp/telemetry")

	cfg := DefaultConfig()
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Simulation.Seed != 1234 {
		t.Errorf("seed = %d, want 1234", cfg.Simulation.Seed)
	}
	if cfg.Telemetry.Directory != "/tmp/telemetry" {
		t.Errorf("telemetry dir = %q, want /tmp/telemetry", cfg.Telemetry.Directory)
	}
}

func TestFaultScriptEnabled(t *testing.T) {
	if !(FaultScriptConfig{InjectAt: 0}).Enabled() {
		t.Error("script at t=0 should be enabled")
	}
	if (FaultScriptConfig{InjectAt: -1}).Enabled() {
		t.Error("negative offset should disable the script")
	}
}
