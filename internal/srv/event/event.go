package event

import (
	"github.com/viacast/vialcd/apimodel"
)

// ApiEvent is a request of the control API handled by the event loop. The
// loop answers on Result once Data has been applied.
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

// Display
type ApiEventStatusData struct {
	Status *apimodel.Status
}

type ApiEventRotateData struct {
	Rotate int
}

type ApiEventAlwaysTextBarData struct {
	On bool
}

type ApiEventAlwaysStatusBarData struct {
	On bool
}

type ApiEventWakeData struct{}

type ApiEventIconsReloadData struct{}

// Text grid, lcdproc coordinates (1-based)
type ApiEventTextData struct {
	X    int
	Y    int
	Text string
}

type ApiEventChrData struct {
	X   int
	Y   int
	Chr rune
}

type ApiEventIconData struct {
	X    int
	Y    int
	Name string
}

// Bars, length in cells at 1000 promille
type ApiEventHBarData struct {
	X        int
	Y        int
	Length   int
	Promille int
}

type ApiEventVBarData struct {
	X        int
	Y        int
	Length   int
	Promille int
}

type ApiEventClearData struct{}

// Keypad
type ApiEventKeysData struct {
	Keys *apimodel.KeyList
}

type ApiEventKeypadData struct {
	Code byte
}
