package device

import (
	"encoding/binary"
	"fmt"
	"github.com/goburrow/modbus"
	"github.com/viacast/vialcd/internal/srv/config"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const telemetryFields = 5

// ParseTelemetry decodes a "drain,external,internal,power,supply" record.
func ParseTelemetry(record string) (Telemetry, error) {
	fields := strings.Split(strings.TrimSpace(record), ",")
	if len(fields) != telemetryFields {
		return Telemetry{}, fmt.Errorf("%w: %d fields", ErrInvalidTelemetry, len(fields))
	}
	var values [telemetryFields]uint16
	for i, field := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(field), 10, 16)
		if err != nil {
			return Telemetry{}, fmt.Errorf("%w: %v", ErrInvalidTelemetry, err)
		}
		values[i] = uint16(v)
	}
	return telemetryFromValues(values), nil
}

func telemetryFromValues(v [telemetryFields]uint16) Telemetry {
	return Telemetry{
		DrainExternal:   v[0],
		ExternalVoltage: v[1],
		InternalVoltage: v[2],
		OnExternalPower: v[3],
		SupplyVoltage:   v[4],
	}
}

// FileTelemetry reads the record from a file rewritten by the battery board
// daemon.
type FileTelemetry struct {
	path string
}

func NewFileTelemetry(path string) *FileTelemetry {
	return &FileTelemetry{path: path}
}

func (s *FileTelemetry) Name() string { return s.path }

func (s *FileTelemetry) ReadTelemetry() (Telemetry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Telemetry{}, err
	}
	return ParseTelemetry(string(raw))
}

func (s *FileTelemetry) Close() error { return nil }

// ModbusTelemetry reads the record from five consecutive input registers of
// a Modbus RTU battery board.
type ModbusTelemetry struct {
	mu        sync.Mutex
	param     config.ModbusParam
	handler   *modbus.RTUClientHandler
	client    modbus.Client
	connected bool
}

func NewModbusTelemetry(param config.ModbusParam) *ModbusTelemetry {
	h := modbus.NewRTUClientHandler(param.Device)
	h.BaudRate = param.BaudRate
	h.DataBits = 8
	h.Parity = "N"
	h.StopBits = 1
	h.SlaveId = param.SlaveId
	h.Timeout = time.Duration(param.TimeoutMs) * time.Millisecond

	return &ModbusTelemetry{
		param:   param,
		handler: h,
		client:  modbus.NewClient(h),
	}
}

func (s *ModbusTelemetry) Name() string {
	return fmt.Sprintf("modbus:%s/%d", s.param.Device, s.param.SlaveId)
}

func (s *ModbusTelemetry) ReadTelemetry() (Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		if err := s.handler.Connect(); err != nil {
			return Telemetry{}, err
		}
		s.connected = true
	}

	raw, err := s.client.ReadInputRegisters(s.param.Address, telemetryFields)
	if err != nil {
		// Reconnect on the next read.
		_ = s.handler.Close()
		s.connected = false
		return Telemetry{}, err
	}
	return decodeRegisters(raw)
}

func decodeRegisters(raw []byte) (Telemetry, error) {
	if len(raw) != 2*telemetryFields {
		return Telemetry{}, fmt.Errorf("%w: %d register bytes", ErrInvalidTelemetry, len(raw))
	}
	var values [telemetryFields]uint16
	for i := range values {
		values[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return telemetryFromValues(values), nil
}

func (s *ModbusTelemetry) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}
	s.connected = false
	return s.handler.Close()
}
