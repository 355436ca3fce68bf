package device

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/internal/fbimage"
	"golang.org/x/sys/unix"
	"image"
	"image/color"
	"os"
	"sync"
	"unsafe"
)

const fbioGetVScreenInfo = 0x4600

// FrameSource provides snapshots of the mirrored framebuffer.
type FrameSource interface {
	Geometry() (width, height, bitsPerPixel int)
	Snapshot() []byte
	Stop()
}

// Framebuffer maps a Linux framebuffer device read-only.
type Framebuffer struct {
	lock sync.Mutex
	path string
	file *os.File
	mem  []byte

	width        int
	height       int
	bitsPerPixel int

	frame []byte
}

// NewFramebuffer opens path. Zero width, height or bitsPerPixel are asked to
// the device.
func NewFramebuffer(path string, width, height, bitsPerPixel int) (*Framebuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DeviceOpenError{Path: path, Err: err}
	}

	if width == 0 || height == 0 || bitsPerPixel == 0 {
		var info [40]uint32
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), fbioGetVScreenInfo, uintptr(unsafe.Pointer(&info)))
		if errno != 0 {
			file.Close()
			return nil, &DeviceOpenError{Path: path, Err: errno}
		}
		if width == 0 {
			width = int(info[0])
		}
		if height == 0 {
			height = int(info[1])
		}
		if bitsPerPixel == 0 {
			bitsPerPixel = int(info[6])
		}
	}
	if bitsPerPixel != 16 && bitsPerPixel != 32 {
		file.Close()
		return nil, &DeviceOpenError{Path: path, Err: fmt.Errorf("%w: %d", fbimage.ErrUnsupportedDepth, bitsPerPixel)}
	}

	size := fbimage.FrameSize(width, height, bitsPerPixel)
	mem, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, &DeviceOpenError{Path: path, Err: err}
	}
	logrus.Infof("Framebuffer %s: %dx%d, %d bpp", path, width, height, bitsPerPixel)

	return &Framebuffer{
		path:         path,
		file:         file,
		mem:          mem,
		width:        width,
		height:       height,
		bitsPerPixel: bitsPerPixel,
		frame:        make([]byte, size),
	}, nil
}

func (d *Framebuffer) Geometry() (int, int, int) {
	return d.width, d.height, d.bitsPerPixel
}

// Snapshot copies the current content. The returned slice is reused by the
// next call.
func (d *Framebuffer) Snapshot() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()
	copy(d.frame, d.mem)
	return d.frame
}

func (d *Framebuffer) Stop() {
	logrus.Infof("Stop framebuffer %s", d.path)
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.mem != nil {
		if err := unix.Munmap(d.mem); err != nil {
			logrus.Warnf("Unable to unmap %s: %v", d.path, err)
		}
		d.mem = nil
		d.file.Close()
	}
}

// SimulatedFramebuffer draws a moving test pattern, used in simulation mode.
type SimulatedFramebuffer struct {
	lock         sync.Mutex
	width        int
	height       int
	bitsPerPixel int
	tick         int
	frame        []byte
}

func NewSimulatedFramebuffer(width, height, bitsPerPixel int) *SimulatedFramebuffer {
	return &SimulatedFramebuffer{
		width:        width,
		height:       height,
		bitsPerPixel: bitsPerPixel,
		frame:        make([]byte, fbimage.FrameSize(width, height, bitsPerPixel)),
	}
}

func (d *SimulatedFramebuffer) Geometry() (int, int, int) {
	return d.width, d.height, d.bitsPerPixel
}

func (d *SimulatedFramebuffer) Snapshot() []byte {
	d.lock.Lock()
	defer d.lock.Unlock()

	img := image.NewNRGBA(image.Rect(0, 0, d.width, d.height))
	bar := d.tick % d.width
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			c := color.NRGBA{R: uint8(x * 255 / d.width), G: uint8(y * 255 / d.height), B: 0x80, A: 0xff}
			if x >= bar && x < bar+8 {
				c = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	d.tick += 4
	if err := fbimage.Encode(d.frame, img, d.bitsPerPixel); err != nil {
		logrus.Warnf("Unable to draw simulated frame: %v", err)
	}
	return d.frame
}

func (d *SimulatedFramebuffer) Stop() {}
