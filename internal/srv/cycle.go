package srv

import (
	"errors"
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/internal/srv/device"
	"github.com/viacast/vialcd/internal/srv/render"
	"time"
)

// cycle mirrors one frame: read the inputs, compose, then fan out.
func (s *ServerApp) cycle() {
	s.outputsDevice.Reset()
	for _, err := range s.openInputPorts(time.Now()) {
		logrus.Debug(err)
	}

	if s.wakeRequested.CompareAndSwap(true, false) {
		s.keypadDevice.Wake()
	}
	if key, ok := s.keypadDevice.Poll(); ok {
		logrus.Debugf("Key %s", key)
	}

	if s.batteryDevice != nil {
		if _, err := s.batteryDevice.Poll(); err != nil && !errors.Is(err, device.ErrTelemetryUnavailable) {
			logrus.Debug(err)
		}
	}

	s.iconProvider.ReloadIfRequested()

	visibility := s.keypadDevice.Visibility()
	frame, img, err := s.compositor.Render(
		s.framebufferDevice.Snapshot(),
		s.grid,
		s.iconProvider.Icons(),
		render.State{
			Rotation:    s.displayConfig.Rotation,
			DisplayText: visibility.DisplayText,
			StatusBar:   visibility.StatusBar,
		})
	if err != nil {
		logrus.Warnf("Unable to compose frame: %v", err)
		return
	}

	if err := s.outputsDevice.Write(frame); err != nil {
		logrus.Warn(err)
	}
	for _, sink := range s.imageSinks {
		sink.ShowImage(img)
	}
}
