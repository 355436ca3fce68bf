package device

import (
	"errors"
	"github.com/sirupsen/logrus"
	"io"
)

// FrameSink is an output device receiving whole composed frames.
type FrameSink interface {
	Path() string
	Open() error
	Write(p []byte) (int, error)
	Close() error
}

type outputChannel struct {
	sink    FrameSink
	written int
	failed  bool
	enabled bool
}

// OutputStatus is a snapshot of one output channel.
type OutputStatus struct {
	Path    string
	Enabled bool
	Failed  bool
	Written int
}

// Outputs fans every composed frame out to the configured sinks. A sink
// failing mid frame is skipped until the next Reset, the others go on.
type Outputs struct {
	channels []*outputChannel
}

func NewOutputs(sinks []FrameSink) *Outputs {
	d := &Outputs{}
	for _, sink := range sinks {
		d.channels = append(d.channels, &outputChannel{sink: sink})
	}
	return d
}

// Start opens every sink. Sinks failing to open are excluded for the life of
// the process; ErrNoOutputDevice is returned when none is left.
func (d *Outputs) Start() error {
	logrus.Infof("Start outputs device")

	active := 0
	for _, ch := range d.channels {
		if err := ch.sink.Open(); err != nil {
			logrus.Warn(&DeviceOpenError{Path: ch.sink.Path(), Err: err})
			continue
		}
		logrus.Infof("Using output %s", ch.sink.Path())
		ch.enabled = true
		active++
	}
	if active == 0 {
		return ErrNoOutputDevice
	}
	return nil
}

// Reset starts a new frame: counters are cleared and failed sinks reopened.
// A sink failing to reopen stays failed until the next Reset.
func (d *Outputs) Reset() {
	for _, ch := range d.channels {
		if !ch.enabled {
			continue
		}
		if ch.failed {
			_ = ch.sink.Close()
			if err := ch.sink.Open(); err != nil {
				logrus.Debug(&DeviceOpenError{Path: ch.sink.Path(), Err: err})
			} else {
				logrus.Infof("Output %s reopened", ch.sink.Path())
				ch.failed = false
			}
		}
		ch.written = 0
	}
}

// Write sends frame to every healthy sink, looping until each has taken the
// whole frame. It may block while a sink applies backpressure.
func (d *Outputs) Write(frame []byte) error {
	var errs []error
	for _, ch := range d.channels {
		if !ch.enabled || ch.failed {
			continue
		}
		for ch.written < len(frame) {
			n, err := ch.sink.Write(frame[ch.written:])
			if n > 0 {
				ch.written += n
			}
			if err == nil && n <= 0 {
				err = io.ErrNoProgress
			}
			if err != nil {
				ch.failed = true
				errs = append(errs, &DeviceWriteError{Path: ch.sink.Path(), Written: ch.written, Err: err})
				break
			}
		}
	}
	return errors.Join(errs...)
}

// Active reports the number of sinks currently able to receive frames.
func (d *Outputs) Active() int {
	active := 0
	for _, ch := range d.channels {
		if ch.enabled && !ch.failed {
			active++
		}
	}
	return active
}

func (d *Outputs) Status() []OutputStatus {
	status := make([]OutputStatus, 0, len(d.channels))
	for _, ch := range d.channels {
		status = append(status, OutputStatus{
			Path:    ch.sink.Path(),
			Enabled: ch.enabled,
			Failed:  ch.failed,
			Written: ch.written,
		})
	}
	return status
}

func (d *Outputs) Stop() {
	logrus.Infof("Stop outputs device")
	for _, ch := range d.channels {
		if ch.enabled {
			_ = ch.sink.Close()
		}
	}
}

// DiscardSink takes frames and drops them. Simulation mode uses it so that
// the pipeline runs without any serial device.
type DiscardSink struct {
	name string
}

func NewDiscardSink(name string) *DiscardSink {
	return &DiscardSink{name: name}
}

func (s *DiscardSink) Path() string                { return s.name }
func (s *DiscardSink) Open() error                 { return nil }
func (s *DiscardSink) Write(p []byte) (int, error) { return len(p), nil }
func (s *DiscardSink) Close() error                { return nil }
