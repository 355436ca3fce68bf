package config

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	Display     DisplayParam     `yaml:"display"`
	Framebuffer FramebufferParam `yaml:"framebuffer"`
	Keypad      KeypadParam      `yaml:"keypad"`
	Serial      SerialParam      `yaml:"serial"`
	Icons       IconsParam       `yaml:"icons"`
	Battery     BatteryParam     `yaml:"battery"`
	Preview     PreviewParam     `yaml:"preview"`
	ApiParam    ApiParam         `yaml:"api"`
}

type DisplayParam struct {
	Size            string `yaml:"size"`
	Rotate          int    `yaml:"rotate"`
	KeypadRotate    int    `yaml:"keypad_rotate"`
	AutoRotate      bool   `yaml:"auto_rotate"`
	SecondsHideText int    `yaml:"seconds_hide_text"`
	AlwaysStatusBar bool   `yaml:"always_status_bar"`
	AlwaysTextBar   bool   `yaml:"always_text_bar"`
	RefreshMs       int    `yaml:"refresh_ms"`
}

// GridSize returns the text grid dimensions encoded in Size ("WxH").
func (p DisplayParam) GridSize() (columns int, rows int, err error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(p.Size)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q", p.Size)
	}
	columns, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", p.Size, err)
	}
	rows, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", p.Size, err)
	}
	return columns, rows, nil
}

// FramebufferParam describes the mirrored framebuffer. Zero geometry means
// the values reported by the device are used.
type FramebufferParam struct {
	Device       string `yaml:"device"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	BitsPerPixel int    `yaml:"bits_per_pixel"`
}

type KeypadParam struct {
	RepeatDelayMs    int               `yaml:"repeat_delay_ms"`
	RepeatIntervalMs int               `yaml:"repeat_interval_ms"`
	Gpio             map[string]string `yaml:"gpio,omitempty"`
}

type SerialParam struct {
	Speed   int            `yaml:"speed"`
	Devices []SerialDevice `yaml:"devices"`
}

type SerialDevice struct {
	Path   string `yaml:"path"`
	Output bool   `yaml:"output"`
	Input  bool   `yaml:"input"`
}

type IconsParam struct {
	Directory string `yaml:"directory"`
	Watch     bool   `yaml:"watch"`
}

type BatteryParam struct {
	Enabled          bool        `yaml:"enabled"`
	Source           string      `yaml:"source"`
	Path             string      `yaml:"path"`
	PercentPath      string      `yaml:"percent_path"`
	UpdateEvery      int         `yaml:"update_every"`
	FailureThreshold int         `yaml:"failure_threshold"`
	Min              int         `yaml:"min"`
	Max              int         `yaml:"max"`
	MaxDelta         int         `yaml:"max_delta"`
	RingSize         int         `yaml:"ring_size"`
	Modbus           ModbusParam `yaml:"modbus"`
}

type ModbusParam struct {
	Device    string `yaml:"device"`
	BaudRate  int    `yaml:"baud_rate"`
	SlaveId   byte   `yaml:"slave_id"`
	Address   uint16 `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type PreviewParam struct {
	Oled bool `yaml:"oled"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	Port    int64  `yaml:"port"`
	ApiKey  string `yaml:"api_key"`
	Tls     bool   `yaml:"tls"`
}
