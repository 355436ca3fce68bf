package srv

import (
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/internal/srv/config"
	"github.com/viacast/vialcd/internal/srv/device"
	"github.com/viacast/vialcd/internal/srv/event"
	"github.com/viacast/vialcd/internal/srv/render"
	"github.com/viacast/vialcd/internal/version"
	"sync/atomic"
	"time"
)

// Geometry of the simulated framebuffer when the param file leaves it to
// the device.
const (
	simulationWidth        = 480
	simulationHeight       = 272
	simulationBitsPerPixel = 16
)

// inputRetryPeriod spaces the attempts to open missing input ports.
const inputRetryPeriod = 5 * time.Second

// inputPort is a key source backed by a device that may be absent.
type inputPort interface {
	Path() string
	Open() error
	IsOpen() bool
}

type ServerApp struct {
	*config.ServerConfig
	displayConfig config.DisplayConfig

	framebufferDevice device.FrameSource
	compositor        *render.Compositor
	grid              *render.TextGrid

	iconProvider *device.IconProvider
	iconWatcher  *device.IconWatcher

	serialPorts   []*device.SerialPort
	inputPorts    []inputPort
	inputRetryAt  time.Time
	keypadDevice  *device.Keypad
	virtualKeypad *device.VirtualKeypad

	batteryDevice *device.Battery
	outputsDevice *device.Outputs
	previews      []*device.Preview
	imageSinks    []device.ImageSink
	apiDevice     *device.Api

	wakeRequested atomic.Bool

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of vialcd server %s ...", version.AppVersion.String())

	app := &ServerApp{
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
		ServerConfig:     config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	// Source framebuffer
	fb := app.Framebuffer
	if app.SimulationMode {
		width, height, bitsPerPixel := fb.Width, fb.Height, fb.BitsPerPixel
		if width == 0 || height == 0 {
			width, height = simulationWidth, simulationHeight
		}
		if bitsPerPixel == 0 {
			bitsPerPixel = simulationBitsPerPixel
		}
		app.framebufferDevice = device.NewSimulatedFramebuffer(width, height, bitsPerPixel)
	} else {
		framebuffer, err := device.NewFramebuffer(fb.Device, fb.Width, fb.Height, fb.BitsPerPixel)
		if err != nil {
			logrus.Fatalf("Unable to map framebuffer: %v\n", err)
		}
		app.framebufferDevice = framebuffer
	}
	width, height, bitsPerPixel := app.framebufferDevice.Geometry()
	app.displayConfig = app.DisplayConfig(width, height)

	app.compositor = render.NewCompositor(width, height, bitsPerPixel)
	app.grid = render.NewTextGrid(app.displayConfig.Columns, app.displayConfig.Rows)

	// Icons
	app.iconProvider = device.NewIconProvider(app.Icons.Directory)
	if app.Icons.Watch {
		app.iconWatcher = device.NewIconWatcher(app.iconProvider)
	}

	// Serial devices, a port may carry both frames and keys
	var sinks []device.FrameSink
	var sources []device.KeySource
	for _, serialDevice := range app.Serial.Devices {
		port := device.NewSerialPort(serialDevice.Path, app.Serial.Speed)
		app.serialPorts = append(app.serialPorts, port)
		if serialDevice.Output {
			sinks = append(sinks, port)
		}
		if serialDevice.Input {
			sources = append(sources, port)
			app.inputPorts = append(app.inputPorts, port)
		}
	}
	if app.SimulationMode {
		sinks = append(sinks, device.NewDiscardSink("simulation"))
	}
	app.outputsDevice = device.NewOutputs(sinks)

	// Keypads
	if len(app.Keypad.Gpio) > 0 && !app.SimulationMode {
		gpioKeypad, err := device.NewGpioKeypad(app.Keypad.Gpio)
		if err != nil {
			logrus.Warnf("Gpio keypad disabled: %v", err)
		} else {
			sources = append(sources, gpioKeypad)
		}
	}
	app.virtualKeypad = device.NewVirtualKeypad()
	sources = append(sources, app.virtualKeypad)
	app.keypadDevice = device.NewKeypad(sources, app.displayConfig)

	// Battery
	if app.Battery.Enabled {
		var source device.TelemetrySource
		switch app.Battery.Source {
		case config.BatterySourceModbus:
			source = device.NewModbusTelemetry(app.Battery.Modbus)
		default:
			source = device.NewFileTelemetry(app.Battery.Path)
		}
		app.batteryDevice = device.NewBattery(source, app.Battery)
	}

	// Previews
	if app.SimulationMode || app.Preview.Oled {
		app.previews = append(app.previews, device.NewPreview(app.SimulationMode, width, height))
	}

	if app.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ServerConfig)
	}

	logrus.Debugln("Server created")

	return app
}

func (s *ServerApp) Start() error {
	logrus.Printf("Starting vialcd server ...")

	logrus.Printf("Starting devices ...")

	// Start outputs device
	if err := s.outputsDevice.Start(); err != nil {
		return err
	}

	// Open input ports the outputs device left closed, later cycles retry
	for _, err := range s.openInputPorts(time.Now()) {
		logrus.Warn(err)
	}

	// Start previews
	for _, preview := range s.previews {
		if err := preview.Start(); err != nil {
			logrus.Warnf("Preview disabled: %v", err)
			continue
		}
		s.imageSinks = append(s.imageSinks, preview)
	}

	// Start icon watcher
	if s.iconWatcher != nil {
		if err := s.iconWatcher.Start(); err != nil {
			logrus.Warnf("Icon watcher disabled: %v", err)
			s.iconWatcher = nil
		}
	}

	// Start event loop
	go s.eventLoop()

	// Start api device
	if s.apiDevice != nil {
		if err := s.apiDevice.Start(); err != nil {
			logrus.Warnf("Api disabled: %v", err)
		}
	}

	return nil
}

// openInputPorts opens the closed input ports, at most once per
// inputRetryPeriod. A port excluded from the outputs still serves keys.
func (s *ServerApp) openInputPorts(now time.Time) []error {
	if now.Before(s.inputRetryAt) {
		return nil
	}
	s.inputRetryAt = now.Add(inputRetryPeriod)

	var errs []error
	for _, port := range s.inputPorts {
		if port.IsOpen() {
			continue
		}
		if err := port.Open(); err != nil {
			errs = append(errs, &device.DeviceOpenError{Path: port.Path(), Err: err})
			continue
		}
		logrus.Infof("Using input %s", port.Path())
	}
	return errs
}

// RequestIconReload may be called from any goroutine.
func (s *ServerApp) RequestIconReload() {
	s.iconProvider.RequestReload()
}

// RequestWake may be called from any goroutine.
func (s *ServerApp) RequestWake() {
	s.wakeRequested.Store(true)
}

func (s *ServerApp) apiEventChannel() chan event.ApiEvent {
	if s.apiDevice == nil {
		return nil
	}
	return s.apiDevice.EventChannel()
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping vialcd server ...")

	// Stop api
	if s.apiDevice != nil {
		s.apiDevice.StopSendingEvent()
	}

	// Stop icon watcher
	if s.iconWatcher != nil {
		s.iconWatcher.Stop()
	}

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Stop previews
	for _, sink := range s.imageSinks {
		sink.Stop()
	}

	// Close devices
	s.outputsDevice.Stop()
	for _, port := range s.serialPorts {
		port.Close()
	}
	if s.batteryDevice != nil {
		s.batteryDevice.Stop()
	}
	s.framebufferDevice.Stop()
	s.iconProvider.Release()

	// Flush state backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")
}
