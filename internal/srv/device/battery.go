package device

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/internal/srv/config"
	"os"
	"strconv"
)

// BatteryChannel smooths the voltage readings of one battery. Small
// variations are ignored, larger ones are followed immediately.
type BatteryChannel struct {
	min      int
	max      int
	maxDelta int

	ring     []int
	head     int
	smoothed int
}

func NewBatteryChannel(min, max, maxDelta, size int) *BatteryChannel {
	return &BatteryChannel{
		min:      min,
		max:      max,
		maxDelta: maxDelta,
		ring:     make([]int, size),
		smoothed: min,
	}
}

// Push records a raw reading, clamped to [min,max].
func (c *BatteryChannel) Push(raw int) {
	c.ring[c.head] = clampInt(raw, c.min, c.max)
	c.head = (c.head + 1) % len(c.ring)

	sum, count := 0, 0
	for _, v := range c.ring {
		if v != 0 {
			sum += v
			count++
		}
	}
	if count == 0 {
		return
	}
	mean := sum / count
	delta := c.smoothed - mean
	if delta < 0 {
		delta = -delta
	}
	if delta > c.maxDelta {
		c.smoothed = clampInt(mean, c.min, c.max)
	}
}

func (c *BatteryChannel) Smoothed() int { return c.smoothed }

// Percent maps the smoothed value from [min,max] to [0,100].
func (c *BatteryChannel) Percent() int {
	return clampInt((c.smoothed-c.min)*100/(c.max-c.min), 0, 100)
}

// Severity returns 0 on external power, otherwise 5 when empty down to 1 in
// the top quarter. Quarter boundaries belong to the lower bucket.
func (c *BatteryChannel) Severity(onExternalPower bool) int {
	if onExternalPower {
		return 0
	}
	span := c.max - c.min
	level := 4 * (c.smoothed - c.min)
	switch {
	case level <= 0:
		return 5
	case level <= span:
		return 4
	case level <= 2*span:
		return 3
	case level <= 3*span:
		return 2
	default:
		return 1
	}
}

// Telemetry is one battery board record.
type Telemetry struct {
	DrainExternal   uint16
	ExternalVoltage uint16
	InternalVoltage uint16
	OnExternalPower uint16
	SupplyVoltage   uint16
}

// TelemetrySource reads battery board records.
type TelemetrySource interface {
	Name() string
	ReadTelemetry() (Telemetry, error)
	Close() error
}

// BatteryStatus is the last classification.
type BatteryStatus struct {
	Available       bool
	External        bool
	OnExternalPower bool
	Smoothed        int
	Percent         int
	Severity        int
}

// Battery classifies the telemetry of an external and an internal battery.
// The drain selector of each record chooses the channel reported.
type Battery struct {
	source      TelemetrySource
	percentPath string

	external *BatteryChannel
	internal *BatteryChannel

	updateEvery int
	skip        int

	failureThreshold int
	failures         int

	status BatteryStatus
}

func NewBattery(source TelemetrySource, param config.BatteryParam) *Battery {
	return &Battery{
		source:           source,
		percentPath:      param.PercentPath,
		external:         NewBatteryChannel(param.Min, param.Max, param.MaxDelta, param.RingSize),
		internal:         NewBatteryChannel(param.Min, param.Max, param.MaxDelta, param.RingSize),
		updateEvery:      param.UpdateEvery,
		failureThreshold: param.FailureThreshold,
		status:           BatteryStatus{Available: true, Severity: 5},
	}
}

// Poll updates the classification every updateEvery calls, the first call
// included. It reports whether an update happened.
func (d *Battery) Poll() (bool, error) {
	if d.skip > 0 {
		d.skip--
		return false, nil
	}
	d.skip = d.updateEvery - 1

	t, err := d.source.ReadTelemetry()
	if err != nil {
		d.failures++
		if d.failures >= d.failureThreshold {
			if d.status.Available {
				logrus.Warnf("Battery telemetry from %s unavailable after %d failures", d.source.Name(), d.failures)
			}
			d.status.Available = false
			return false, fmt.Errorf("%w: %v", ErrTelemetryUnavailable, &TelemetryReadError{Source: d.source.Name(), Err: err})
		}
		return false, &TelemetryReadError{Source: d.source.Name(), Err: err}
	}
	d.failures = 0
	d.status.Available = true

	d.external.Push(int(t.ExternalVoltage))
	d.internal.Push(int(t.InternalVoltage))

	active := d.internal
	d.status.External = t.DrainExternal != 0
	if d.status.External {
		active = d.external
	}
	d.status.OnExternalPower = t.OnExternalPower != 0
	d.status.Smoothed = active.Smoothed()
	d.status.Percent = active.Percent()
	d.status.Severity = active.Severity(d.status.OnExternalPower)

	if d.percentPath != "" {
		if err := os.WriteFile(d.percentPath, []byte(strconv.Itoa(d.status.Percent)), 0644); err != nil {
			logrus.Warnf("Unable to write battery percentage to %s: %v", d.percentPath, err)
		}
	}
	return true, nil
}

func (d *Battery) Status() BatteryStatus {
	return d.status
}

func (d *Battery) Stop() {
	logrus.Infof("Stop battery device")
	if err := d.source.Close(); err != nil {
		logrus.Warnf("Unable to close battery telemetry %s: %v", d.source.Name(), err)
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
