package mem

import (
	"errors"
	"fmt"
)

// Stage identifies the bring-up stage that failed.
type Stage int

// Bring-up stages.
const (
	StageRegion Stage = iota
	StageController
	StageVerify
	StageHeap
)

func (s Stage) String() string {
	switch s {
	case StageRegion:
		return "region config"
	case StageController:
		return "controller bring-up"
	case StageVerify:
		return "memory verify"
	case StageHeap:
		return "heap registration"
	}
	return fmt.Sprintf("stage %d", int(s))
}

var (
	// ErrInvalidSize indicates a region size that is not a power of two or is below 32 bytes.
	ErrInvalidSize = errors.New("region size must be a power of two and at least 32 bytes")
	// ErrUnsupportedSize indicates a power-of-two size outside 2^5..2^31.
	ErrUnsupportedSize = errors.New("region size has no encoding")
	// ErrMisalignedBase indicates a region base not aligned to its size.
	ErrMisalignedBase = errors.New("region base not aligned to size")
	// ErrInvalidRegion indicates a region number beyond the unit's capacity.
	ErrInvalidRegion = errors.New("region number out of range")
	// ErrBusy indicates a concurrent region reconfiguration.
	ErrBusy = errors.New("protection unit busy")
	// ErrRegionNotReady indicates controller bring-up without a configured region.
	ErrRegionNotReady = errors.New("region not configured")
	// ErrRegionMismatch indicates the configured region does not cover the controller window.
	ErrRegionMismatch = errors.New("region does not cover controller window")
	// ErrMissingPin indicates an incomplete pin set.
	ErrMissingPin = errors.New("missing pin")
	// ErrClockTooFast indicates no divider brings the SD clock within the chip limit.
	ErrClockTooFast = errors.New("kernel clock too fast for chip")
	// ErrControllerTimeout indicates the controller never left the busy state.
	ErrControllerTimeout = errors.New("controller busy timeout")
	// ErrAlreadyInitialized indicates a second bring-up on the same controller.
	ErrAlreadyInitialized = errors.New("controller already initialized")
	// ErrMemoryVerifyFailed indicates the probe pattern did not read back.
	ErrMemoryVerifyFailed = errors.New("memory verify failed")
	// ErrSessionConsumed indicates a Session released twice.
	ErrSessionConsumed = errors.New("session already consumed")
	// ErrArenaRegistered indicates a second heap arena registration.
	ErrArenaRegistered = errors.New("heap arena already registered")
	// ErrInvalidArena indicates an empty or oversized arena.
	ErrInvalidArena = errors.New("invalid heap arena")
)

// ConfigError is a fatal bring-up failure.
type ConfigError struct {
	Stage  Stage
	Err    error
	Detail string
}

// Error implements error.
func (e *ConfigError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Stage, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error, format string, args ...interface{}) *ConfigError {
	e := &ConfigError{Stage: stage, Err: err}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

// StageOf returns the failed stage of a bring-up error.
func StageOf(err error) (Stage, bool) {
	var cerr *ConfigError
	if errors.As(err, &cerr) {
		return cerr.Stage, true
	}
	return 0, false
}
