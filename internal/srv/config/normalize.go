package config

import (
	"fmt"
)

const (
	DefaultSize            = "20x4"
	DefaultSecondsHideText = 60
	DefaultRefreshMs       = 100
	DefaultRepeatDelayMs   = 500
	DefaultRepeatInterval  = 300
	DefaultSpeed           = 115200
	DefaultFramebuffer     = "/dev/fb0"
	DefaultIconsDirectory  = "/tmp/status_bar"
	DefaultApiPort         = 8087

	DefaultBatteryUpdateEvery      = 10
	DefaultBatteryFailureThreshold = 5
	DefaultBatteryMin              = 105
	DefaultBatteryMax              = 126
	DefaultBatteryMaxDelta         = 1
	DefaultBatteryRingSize         = 3

	BatterySourceFile   = "file"
	BatterySourceModbus = "modbus"
)

// SupportedSpeeds lists the accepted serial line speeds.
var SupportedSpeeds = []int{1200, 2400, 9600, 19200, 115200}

// RangeError reports a parameter replaced by its default value.
type RangeError struct {
	Field   string
	Value   interface{}
	Default interface{}
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %v is out of range, using default %v", e.Field, e.Value, e.Default)
}

// Normalize replaces every out of range value of p by its default and
// returns one RangeError per replacement. It never fails.
func Normalize(p *ServerParam) []error {
	var errs []error

	intRange := func(field string, v *int, min, max, def int) {
		if *v < min || *v > max {
			errs = append(errs, &RangeError{Field: field, Value: *v, Default: def})
			*v = def
		}
	}
	strDefault := func(field string, v *string, def string) {
		if *v == "" {
			errs = append(errs, &RangeError{Field: field, Value: `""`, Default: def})
			*v = def
		}
	}

	// Display
	if columns, rows, err := p.Display.GridSize(); err != nil || columns < 1 || columns > 256 || rows < 1 || rows > 256 {
		errs = append(errs, &RangeError{Field: "display.size", Value: p.Display.Size, Default: DefaultSize})
		p.Display.Size = DefaultSize
	}
	intRange("display.rotate", &p.Display.Rotate, 0, 3, 0)
	intRange("display.keypad_rotate", &p.Display.KeypadRotate, 0, 3, 0)
	intRange("display.seconds_hide_text", &p.Display.SecondsHideText, 0, 120, DefaultSecondsHideText)
	intRange("display.refresh_ms", &p.Display.RefreshMs, 20, 2000, DefaultRefreshMs)

	// Framebuffer
	strDefault("framebuffer.device", &p.Framebuffer.Device, DefaultFramebuffer)
	intRange("framebuffer.width", &p.Framebuffer.Width, 0, 4096, 0)
	intRange("framebuffer.height", &p.Framebuffer.Height, 0, 4096, 0)
	if bpp := p.Framebuffer.BitsPerPixel; bpp != 0 && bpp != 16 && bpp != 32 {
		errs = append(errs, &RangeError{Field: "framebuffer.bits_per_pixel", Value: bpp, Default: 0})
		p.Framebuffer.BitsPerPixel = 0
	}

	// Keypad
	intRange("keypad.repeat_delay_ms", &p.Keypad.RepeatDelayMs, 0, 3000, DefaultRepeatDelayMs)
	intRange("keypad.repeat_interval_ms", &p.Keypad.RepeatIntervalMs, 0, 3000, DefaultRepeatInterval)

	// Serial
	supported := false
	for _, speed := range SupportedSpeeds {
		if p.Serial.Speed == speed {
			supported = true
			break
		}
	}
	if !supported {
		errs = append(errs, &RangeError{Field: "serial.speed", Value: p.Serial.Speed, Default: DefaultSpeed})
		p.Serial.Speed = DefaultSpeed
	}

	// Icons
	strDefault("icons.directory", &p.Icons.Directory, DefaultIconsDirectory)

	// Battery
	if p.Battery.Source != BatterySourceFile && p.Battery.Source != BatterySourceModbus {
		errs = append(errs, &RangeError{Field: "battery.source", Value: p.Battery.Source, Default: BatterySourceFile})
		p.Battery.Source = BatterySourceFile
	}
	intRange("battery.update_every", &p.Battery.UpdateEvery, 1, 1000, DefaultBatteryUpdateEvery)
	intRange("battery.failure_threshold", &p.Battery.FailureThreshold, 1, 1000, DefaultBatteryFailureThreshold)
	if p.Battery.Min < 0 || p.Battery.Max > 65535 || p.Battery.Min >= p.Battery.Max {
		errs = append(errs, &RangeError{
			Field:   "battery.min/max",
			Value:   fmt.Sprintf("%d/%d", p.Battery.Min, p.Battery.Max),
			Default: fmt.Sprintf("%d/%d", DefaultBatteryMin, DefaultBatteryMax),
		})
		p.Battery.Min = DefaultBatteryMin
		p.Battery.Max = DefaultBatteryMax
	}
	intRange("battery.max_delta", &p.Battery.MaxDelta, 0, p.Battery.Max-p.Battery.Min, DefaultBatteryMaxDelta)
	intRange("battery.ring_size", &p.Battery.RingSize, 1, 32, DefaultBatteryRingSize)

	// Api
	if p.ApiParam.Port < 1 || p.ApiParam.Port > 65535 {
		errs = append(errs, &RangeError{Field: "api.port", Value: p.ApiParam.Port, Default: DefaultApiPort})
		p.ApiParam.Port = DefaultApiPort
	}

	return errs
}
