package config

import (
	"errors"
	"testing"
)

func TestParseServerParam_DefaultFileIsInRange(t *testing.T) {
	p, err := ParseServerParam(ParamDefaultFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if errs := Normalize(p); len(errs) != 0 {
		t.Fatalf("default param file should be in range, got %v", errs)
	}
	columns, rows, err := p.Display.GridSize()
	if err != nil || columns != 20 || rows != 4 {
		t.Fatalf("grid size = %dx%d (%v), want 20x4", columns, rows, err)
	}
	if len(p.Serial.Devices) != 1 || p.Serial.Devices[0].Path != "/dev/ttyACM0" {
		t.Fatalf("unexpected serial devices: %+v", p.Serial.Devices)
	}
}

func TestNormalize_ReplacesOutOfRangeValues(t *testing.T) {
	p, err := ParseServerParam(ParamDefaultFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Display.Size = "0x4"
	p.Display.Rotate = 4
	p.Display.KeypadRotate = -1
	p.Display.SecondsHideText = 121
	p.Keypad.RepeatDelayMs = 3001
	p.Serial.Speed = 4800
	p.Battery.Min = 130
	p.Battery.Max = 120

	errs := Normalize(p)

	want := map[string]bool{
		"display.size":              true,
		"display.rotate":            true,
		"display.keypad_rotate":     true,
		"display.seconds_hide_text": true,
		"keypad.repeat_delay_ms":    true,
		"serial.speed":              true,
		"battery.min/max":           true,
	}
	if len(errs) != len(want) {
		t.Fatalf("got %d range errors, want %d: %v", len(errs), len(want), errs)
	}
	for _, err := range errs {
		var rangeErr *RangeError
		if !errors.As(err, &rangeErr) {
			t.Fatalf("expected RangeError, got %T", err)
		}
		if !want[rangeErr.Field] {
			t.Errorf("unexpected field %q", rangeErr.Field)
		}
	}

	if p.Display.Size != DefaultSize {
		t.Errorf("size = %q", p.Display.Size)
	}
	if p.Display.Rotate != 0 || p.Display.KeypadRotate != 0 {
		t.Errorf("rotate = %d, keypad_rotate = %d", p.Display.Rotate, p.Display.KeypadRotate)
	}
	if p.Display.SecondsHideText != DefaultSecondsHideText {
		t.Errorf("seconds_hide_text = %d", p.Display.SecondsHideText)
	}
	if p.Keypad.RepeatDelayMs != DefaultRepeatDelayMs {
		t.Errorf("repeat_delay_ms = %d", p.Keypad.RepeatDelayMs)
	}
	if p.Serial.Speed != DefaultSpeed {
		t.Errorf("speed = %d", p.Serial.Speed)
	}
	if p.Battery.Min != DefaultBatteryMin || p.Battery.Max != DefaultBatteryMax {
		t.Errorf("battery = %d..%d", p.Battery.Min, p.Battery.Max)
	}
}

func TestNormalize_AcceptsSupportedSpeeds(t *testing.T) {
	for _, speed := range SupportedSpeeds {
		p, err := ParseServerParam(ParamDefaultFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p.Serial.Speed = speed
		if errs := Normalize(p); len(errs) != 0 {
			t.Errorf("speed %d rejected: %v", speed, errs)
		}
	}
}

func TestGridSize(t *testing.T) {
	cases := []struct {
		size    string
		columns int
		rows    int
		wantErr bool
	}{
		{"20x4", 20, 4, false},
		{" 16X2 ", 16, 2, false},
		{"20", 0, 0, true},
		{"ax4", 0, 0, true},
		{"20x4x1", 0, 0, true},
	}
	for _, c := range cases {
		t.Run(c.size, func(t *testing.T) {
			columns, rows, err := DisplayParam{Size: c.size}.GridSize()
			if (err != nil) != c.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, c.wantErr)
			}
			if columns != c.columns || rows != c.rows {
				t.Fatalf("got %dx%d, want %dx%d", columns, rows, c.columns, c.rows)
			}
		})
	}
}

func TestDisplayConfigResize(t *testing.T) {
	for rotation, want := range []bool{false, true, false, true} {
		if got := (DisplayConfig{Rotation: rotation}).Resize(); got != want {
			t.Errorf("rotation %d: Resize() = %v, want %v", rotation, got, want)
		}
	}
}
