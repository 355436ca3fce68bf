package device

import (
	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
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

	simulationWindow *app.Window

	askDone chan bool
	askImg  chan image.Image
	done    chan bool
}

func (d *Preview) startSimulation() {
	d.simulationWindow = app.NewWindow(
		app.Title("vialcd"),
		app.Size(unit.Px(float32(d.width)), unit.Px(float32(d.height))),
		app.MinSize(unit.Px(float32(d.width/2)), unit.Px(float32(d.height/2))),
	)
	go func() {
		if err := d.gioloop(); err != nil {
			logrus.Errorf("Simulation window: %v", err)
		}
	}()
	go app.Main()
}

func (d *Preview) invalidateSimulationWindow() {
	d.simulationWindow.Invalidate()
}

func (d *Preview) closeSimulationWindow() {
	d.simulationWindow.Close()
}

func (d *Preview) gioloop() error {
	var ops op.Ops
	for {
		e := <-d.simulationWindow.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)

			d.lock.RLock()
			lastImg := d.lastImg
			d.lock.RUnlock()

			if lastImg != nil {
				img := widget.Image{Src: paint.NewImageOp(lastImg), Fit: widget.Contain}
				img.Layout(gtx)
			}
			e.Frame(gtx.Ops)
		}
	}
}
