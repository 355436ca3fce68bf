package srv

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/apimodel"
	"github.com/viacast/vialcd/internal/srv/event"
	"github.com/viacast/vialcd/internal/srv/render"
	"github.com/viacast/vialcd/internal/version"
	"time"
)

func (s *ServerApp) eventLoop() {
	ticker := time.NewTicker(s.RefreshPeriod())
	defer ticker.Stop()

	apiEventChannel := s.apiEventChannel()

	for loop := true; loop; {
		select {
		case <-ticker.C:
			s.cycle()
		case ev := <-apiEventChannel:
			ev.Result <- s.handleApiEvent(ev.Data)
		case <-s.eventLoopAskDone:
			loop = false
		}
	}
	s.eventLoopDone <- true
}

func (s *ServerApp) handleApiEvent(data interface{}) error {
	switch data := data.(type) {
	case event.ApiEventStatusData:
		s.fillStatus(data.Status)
	case event.ApiEventRotateData:
		if data.Rotate < 0 || data.Rotate > 3 {
			return fmt.Errorf("invalid rotation %d", data.Rotate)
		}
		logrus.Infof("Rotate display to %d", data.Rotate)
		s.SetRotate(data.Rotate)
		s.applyDisplayConfig()
	case event.ApiEventAlwaysTextBarData:
		s.SetAlwaysTextBar(data.On)
		s.applyDisplayConfig()
	case event.ApiEventAlwaysStatusBarData:
		s.SetAlwaysStatusBar(data.On)
		s.applyDisplayConfig()
	case event.ApiEventWakeData:
		s.keypadDevice.Wake()
	case event.ApiEventIconsReloadData:
		s.iconProvider.RequestReload()
	case event.ApiEventTextData:
		s.grid.String(data.X, data.Y, data.Text)
	case event.ApiEventChrData:
		s.grid.Chr(data.X, data.Y, data.Chr)
	case event.ApiEventIconData:
		icon, ok := render.IconByName(data.Name)
		if !ok || !s.grid.Icon(data.X, data.Y, icon) {
			return fmt.Errorf("unknown icon %q", data.Name)
		}
	case event.ApiEventHBarData:
		s.grid.HBar(data.X, data.Y, data.Length, data.Promille)
	case event.ApiEventVBarData:
		s.grid.VBar(data.X, data.Y, data.Length, data.Promille)
	case event.ApiEventClearData:
		s.grid.Clear()
	case event.ApiEventKeysData:
		for _, key := range s.keypadDevice.DrainKeys() {
			data.Keys.Keys = append(data.Keys.Keys, key.String())
		}
	case event.ApiEventKeypadData:
		return s.virtualKeypad.Inject(data.Code)
	default:
		return fmt.Errorf("unexpected api event %T", data)
	}
	return nil
}

// applyDisplayConfig propagates the runtime state to the input decoder.
func (s *ServerApp) applyDisplayConfig() {
	s.displayConfig = s.DisplayConfig(s.displayConfig.Width, s.displayConfig.Height)
	s.keypadDevice.SetDisplayConfig(s.displayConfig)
}

func (s *ServerApp) fillStatus(status *apimodel.Status) {
	_, _, bitsPerPixel := s.framebufferDevice.Geometry()
	visibility := s.keypadDevice.Visibility()

	status.Version = version.AppVersion.String()
	status.Width = s.displayConfig.Width
	status.Height = s.displayConfig.Height
	status.BitsPerPixel = bitsPerPixel
	status.Columns = s.grid.Width()
	status.Rows = s.grid.Height()
	status.Rotate = s.displayConfig.Rotation
	status.KeypadRotate = s.displayConfig.KeypadRotation
	status.AutoRotate = s.displayConfig.AutoRotate
	status.AlwaysTextBar = s.displayConfig.AlwaysTextBar
	status.AlwaysStatusBar = s.displayConfig.AlwaysStatusBar
	status.DisplayText = visibility.DisplayText
	status.StatusBar = visibility.StatusBar
	status.Text = s.grid.Rows()
	status.Icons = s.iconProvider.IconCounts()

	if s.batteryDevice != nil {
		battery := s.batteryDevice.Status()
		status.Battery = &apimodel.BatteryStatus{
			Available:       battery.Available,
			External:        battery.External,
			OnExternalPower: battery.OnExternalPower,
			Voltage:         battery.Smoothed,
			Percent:         battery.Percent,
			Severity:        battery.Severity,
		}
	}

	for _, output := range s.outputsDevice.Status() {
		status.Outputs = append(status.Outputs, apimodel.OutputStatus{
			Path:    output.Path,
			Enabled: output.Enabled,
			Failed:  output.Failed,
			Written: output.Written,
		})
	}
	status.ActiveOutputs = s.outputsDevice.Active()
}
