package device

import (
	"errors"
	"github.com/chmorgan/go-serial2/serial"
	"github.com/sirupsen/logrus"
	"io"
	"sync"
)

var errPortClosed = errors.New("serial port closed")

// SerialPort is a raw 8N1 serial link. The same port can carry composed
// frames out and key codes in.
type SerialPort struct {
	lock  sync.Mutex
	path  string
	speed int
	port  io.ReadWriteCloser

	keys chan byte
}

func NewSerialPort(path string, speed int) *SerialPort {
	return &SerialPort{
		path:  path,
		speed: speed,
		keys:  make(chan byte, 1),
	}
}

func (d *SerialPort) Path() string { return d.path }

func (d *SerialPort) Name() string { return d.path }

// Open opens the port once; opening an open port is a no-op.
func (d *SerialPort) Open() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.port != nil {
		return nil
	}

	logrus.Debugf("Opening serial port %s at %d bauds", d.path, d.speed)
	port, err := serial.Open(serial.OpenOptions{
		PortName:              d.path,
		BaudRate:              uint(d.speed),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	})
	if err != nil {
		return err
	}
	d.port = port

	go d.readLoop(port)
	return nil
}

// readLoop keeps the first byte of the latest record, dropping an unread
// older one. It ends when the port is closed.
func (d *SerialPort) readLoop(port io.ReadWriteCloser) {
	buf := make([]byte, 128)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			d.offerKey(buf[0])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			logrus.Debugf("Serial port %s reader stopped: %v", d.path, err)
			return
		}
	}
}

// offerKey replaces the pending key. readLoop is the only sender.
func (d *SerialPort) offerKey(code byte) {
	select {
	case <-d.keys:
	default:
	}
	select {
	case d.keys <- code:
	default:
	}
}

// ReadKey returns a pending key code without blocking.
func (d *SerialPort) ReadKey() (byte, bool) {
	select {
	case code := <-d.keys:
		return code, true
	default:
		return 0, false
	}
}

// IsOpen reports whether the port is currently open.
func (d *SerialPort) IsOpen() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.port != nil
}

func (d *SerialPort) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.port == nil {
		return 0, errPortClosed
	}
	return d.port.Write(p)
}

func (d *SerialPort) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}
