//go:build !amd64

package device

import (
	"github.com/sirupsen/logrus"
	"image"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"sync"
)

type Preview struct {
	oledDisplay *ssd1306.Dev
	i2cBus      i2c.BusCloser
	started     bool

	lock           sync.RWMutex
	simulationMode bool
	width          int
	height         int
	lastImg        image.Image

	askDone chan bool
	askImg  chan image.Image
	done    chan bool
}

// No desktop window on the target boards.
func (d *Preview) startSimulation() {
	logrus.Warnf("Simulation window not available on this platform")
}

func (d *Preview) invalidateSimulationWindow() {
}

func (d *Preview) closeSimulationWindow() {
}
