package device

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type gpioKey struct {
	code byte
	pin  gpio.PinIO
}

// GpioKeypad reads push buttons wired between a GPIO and the ground. A held
// button reports its code on every read.
type GpioKeypad struct {
	keys []gpioKey
}

// NewGpioKeypad builds a keypad from a key code to pin name mapping,
// e.g. {"L": "GPIO17"}.
func NewGpioKeypad(pins map[string]string) (*GpioKeypad, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}

	d := &GpioKeypad{}
	// Fixed scan order: the first held button wins.
	for _, code := range []byte{CodeLeft, CodeUp, CodeRight, CodeDown, CodeEnter, CodeEscape} {
		name, ok := pins[string(code)]
		if !ok {
			continue
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("failed to find %s button on %s", string(code), name)
		}
		// Set it as input, with an internal pull up resistor:
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("failed to setup %s button on %s: %w", string(code), name, err)
		}
		logrus.Debugf("Button %s on %s", string(code), name)
		d.keys = append(d.keys, gpioKey{code: code, pin: pin})
	}
	for code := range pins {
		if len(code) != 1 || !ValidCode(code[0]) {
			logrus.Warnf("Ignoring unknown key code %q in gpio keypad", code)
		}
	}
	return d, nil
}

func (d *GpioKeypad) Name() string { return "gpio" }

func (d *GpioKeypad) ReadKey() (byte, bool) {
	for _, k := range d.keys {
		if k.pin.Read() == gpio.Low {
			return k.code, true
		}
	}
	return 0, false
}
