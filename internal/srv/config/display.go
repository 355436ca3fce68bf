package config

import "time"

// DisplayConfig is the resolved display setup shared by the compositor and
// the input decoder.
type DisplayConfig struct {
	Columns int
	Rows    int

	// Pixel resolution of the mirrored framebuffer.
	Width  int
	Height int

	Rotation       int
	KeypadRotation int
	AutoRotate     bool

	HideTextTimeout time.Duration
	RepeatDelay     time.Duration
	RepeatInterval  time.Duration

	AlwaysStatusBar bool
	AlwaysTextBar   bool
}

// Resize reports whether the frame is drawn in portrait (rotation 1 or 3).
func (c DisplayConfig) Resize() bool {
	return c.Rotation == 1 || c.Rotation == 3
}

// DisplayConfig merges the param file with the runtime state.
func (sc *ServerConfig) DisplayConfig(width, height int) DisplayConfig {
	columns, rows, _ := sc.Display.GridSize()
	return DisplayConfig{
		Columns:         columns,
		Rows:            rows,
		Width:           width,
		Height:          height,
		Rotation:        sc.ServerState.Rotate(),
		KeypadRotation:  sc.Display.KeypadRotate,
		AutoRotate:      sc.Display.AutoRotate,
		HideTextTimeout: time.Duration(sc.Display.SecondsHideText) * time.Second,
		RepeatDelay:     time.Duration(sc.Keypad.RepeatDelayMs) * time.Millisecond,
		RepeatInterval:  time.Duration(sc.Keypad.RepeatIntervalMs) * time.Millisecond,
		AlwaysStatusBar: sc.ServerState.AlwaysStatusBar(),
		AlwaysTextBar:   sc.ServerState.AlwaysTextBar(),
	}
}
