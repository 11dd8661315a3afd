package models

import "errors"

var (
	// Configuration errors
	ErrInvalidUpdateRate = errors.New("invalid update rate: must be between 1 and 100 Hz")
	ErrInvalidDuration   = errors.New("invalid duration: must be > 0 seconds")
	ErrInvalidFilterSize = errors.New("invalid filter window: must be >= 1")

	// Telemetry errors
	ErrTelemetryClosed = errors.New("telemetry logger is closed")
	ErrTelemetryInit   = errors.New("failed to initialize telemetry logger")
)
