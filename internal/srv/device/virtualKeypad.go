package device

import (
	"errors"
	"fmt"
)

var ErrKeypadBusy = errors.New("virtual keypad busy")

// VirtualKeypad is a key source fed through the api, mostly useful in
// simulation mode.
type VirtualKeypad struct {
	codes chan byte
}

func NewVirtualKeypad() *VirtualKeypad {
	return &VirtualKeypad{codes: make(chan byte, 8)}
}

func (d *VirtualKeypad) Name() string { return "virtual" }

// Inject queues a raw key code.
func (d *VirtualKeypad) Inject(code byte) error {
	if !ValidCode(code) {
		return fmt.Errorf("unknown key code %q", code)
	}
	select {
	case d.codes <- code:
		return nil
	default:
		return ErrKeypadBusy
	}
}

func (d *VirtualKeypad) ReadKey() (byte, bool) {
	select {
	case code := <-d.codes:
		return code, true
	default:
		return 0, false
	}
}
