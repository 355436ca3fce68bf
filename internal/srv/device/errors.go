package device

import (
	"errors"
	"fmt"
)

var (
	ErrNoOutputDevice       = errors.New("no output device could be opened")
	ErrTelemetryUnavailable = errors.New("battery telemetry unavailable")
	ErrInvalidTelemetry     = errors.New("invalid battery telemetry record")
)

// DeviceOpenError reports a device excluded at start or left failed after a
// reopen attempt.
type DeviceOpenError struct {
	Path string
	Err  error
}

func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("unable to open %s: %v", e.Path, e.Err)
}

func (e *DeviceOpenError) Unwrap() error { return e.Err }

// DeviceWriteError reports a frame that could not be fully written.
type DeviceWriteError struct {
	Path    string
	Written int
	Err     error
}

func (e *DeviceWriteError) Error() string {
	return fmt.Sprintf("unable to write frame to %s after %d bytes: %v", e.Path, e.Written, e.Err)
}

func (e *DeviceWriteError) Unwrap() error { return e.Err }

type TelemetryReadError struct {
	Source string
	Err    error
}

func (e *TelemetryReadError) Error() string {
	return fmt.Sprintf("unable to read battery telemetry from %s: %v", e.Source, e.Err)
}

func (e *TelemetryReadError) Unwrap() error { return e.Err }

type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("unable to load icon %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }
