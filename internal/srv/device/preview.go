package device

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"image"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// ImageSink shows the composed frames somewhere else than the mirrored
// display.
type ImageSink interface {
	ShowImage(img image.Image)
	Stop()
}

var _ ImageSink = (*Preview)(nil)

// NewPreview returns a preview on a SSD1306 OLED, or in a desktop window in
// simulation mode.
func NewPreview(simulationMode bool, width, height int) *Preview {
	return &Preview{
		simulationMode: simulationMode,
		width:          width,
		height:         height,
		askDone:        make(chan bool),
		askImg:         make(chan image.Image, 1),
		done:           make(chan bool),
	}
}

func (d *Preview) Start() error {
	logrus.Infof("Start preview device")

	if d.simulationMode {
		d.startSimulation()
		return nil
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("unable to initialize periph: %w", err)
	}

	var err error
	// Open a handle to the first available I²C bus:
	d.i2cBus, err = i2creg.Open("")
	if err != nil {
		return fmt.Errorf("unable to open i2c bus: %w", err)
	}

	d.oledDisplay, err = ssd1306.NewI2C(d.i2cBus, &ssd1306.DefaultOpts)
	if err != nil {
		d.i2cBus.Close()
		return fmt.Errorf("unable to initialize oled display: %w", err)
	}

	bounds := d.oledDisplay.Bounds()
	go func() {
		scaled := image.NewNRGBA(bounds)
		for loop := true; loop; {
			select {
			case <-d.askDone:
				loop = false
			case newImg := <-d.askImg:
				draw.ApproxBiLinear.Scale(scaled, bounds, newImg, newImg.Bounds(), draw.Src, nil)
				if err := d.oledDisplay.Draw(bounds, scaled, image.Point{}); err != nil {
					logrus.Warnf("Unable to draw on oled display: %v", err)
				}
			}
		}
		d.oledDisplay.Halt()
		d.i2cBus.Close()
		d.done <- true
	}()
	d.started = true
	return nil
}

func (d *Preview) Stop() {
	logrus.Infof("Stop preview device")

	if d.simulationMode {
		d.closeSimulationWindow()
	} else if d.started {
		d.askDone <- true
		<-d.done
	}
}

// ShowImage never blocks: when the previous image is still being drawn the
// new one is dropped.
func (d *Preview) ShowImage(img image.Image) {
	d.lock.Lock()
	d.lastImg = img
	d.lock.Unlock()

	if d.simulationMode {
		d.invalidateSimulationWindow()
		return
	}
	select {
	case d.askImg <- img:
	default:
	}
}
