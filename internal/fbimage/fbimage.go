// Package fbimage wraps raw Linux framebuffer memory as image.Image values.
//
// Two layouts are supported, both little endian: 16 bits per pixel RGB565
// and 32 bits per pixel XRGB8888 (stored as B, G, R, X bytes).
package fbimage

import (
	"errors"
	"fmt"
	"golang.org/x/image/draw"
	"image"
	"image/color"
)

var ErrUnsupportedDepth = errors.New("fbimage: unsupported bits per pixel")

// RGB565 is a 16-bit color with 5 bits red, 6 bits green and 5 bits blue.
type RGB565 uint16

func (c RGB565) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1F
	g6 := uint32(c>>5) & 0x3F
	b5 := uint32(c) & 0x1F
	// Replicate high bits into the low bits so that 0x1F maps to 0xFFFF.
	r = (r5<<11 | r5<<6 | r5<<1 | r5>>4)
	g = (g6<<10 | g6<<4 | g6>>2)
	b = (b5<<11 | b5<<6 | b5<<1 | b5>>4)
	return r, g, b, 0xFFFF
}

func toRGB565(c color.Color) color.Color {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB565((r>>11)<<11 | (g>>10)<<5 | b>>11)
}

// RGB565Model converts colors to RGB565.
var RGB565Model = color.ModelFunc(toRGB565)

// RGB565Image is an in-memory image stored in framebuffer RGB565 layout.
type RGB565Image struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func (p *RGB565Image) ColorModel() color.Model { return RGB565Model }

func (p *RGB565Image) Bounds() image.Rectangle { return p.Rect }

func (p *RGB565Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

func (p *RGB565Image) RGB565At(x, y int) RGB565 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i := p.PixOffset(x, y)
	return RGB565(uint16(p.Pix[i]) | uint16(p.Pix[i+1])<<8)
}

func (p *RGB565Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	v := RGB565Model.Convert(c).(RGB565)
	i := p.PixOffset(x, y)
	p.Pix[i] = byte(v)
	p.Pix[i+1] = byte(v >> 8)
}

func (p *RGB565Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

// XRGB8888Image is an in-memory image stored in framebuffer XRGB8888 layout.
type XRGB8888Image struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func (p *XRGB8888Image) ColorModel() color.Model { return color.RGBAModel }

func (p *XRGB8888Image) Bounds() image.Rectangle { return p.Rect }

func (p *XRGB8888Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i+2], G: p.Pix[i+1], B: p.Pix[i], A: 0xFF}
}

func (p *XRGB8888Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	v := color.RGBAModel.Convert(c).(color.RGBA)
	i := p.PixOffset(x, y)
	p.Pix[i] = v.B
	p.Pix[i+1] = v.G
	p.Pix[i+2] = v.R
	p.Pix[i+3] = 0xFF
}

func (p *XRGB8888Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

// FrameSize returns the byte size of a width x height frame.
func FrameSize(width, height, bitsPerPixel int) int {
	return width * height * bitsPerPixel / 8
}

// Wrap returns an image sharing pix. pix must hold a full frame.
func Wrap(pix []byte, width, height, bitsPerPixel int) (draw.Image, error) {
	size := FrameSize(width, height, bitsPerPixel)
	if len(pix) < size {
		return nil, fmt.Errorf("fbimage: frame holds %d bytes, %dx%dx%d needs %d", len(pix), width, height, bitsPerPixel, size)
	}
	rect := image.Rect(0, 0, width, height)
	switch bitsPerPixel {
	case 16:
		return &RGB565Image{Pix: pix[:size], Stride: width * 2, Rect: rect}, nil
	case 32:
		return &XRGB8888Image{Pix: pix[:size], Stride: width * 4, Rect: rect}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDepth, bitsPerPixel)
	}
}

// ToNRGBA decodes a raw frame into a new NRGBA image.
func ToNRGBA(pix []byte, width, height, bitsPerPixel int) (*image.NRGBA, error) {
	src, err := Wrap(pix, width, height, bitsPerPixel)
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	switch s := src.(type) {
	case *RGB565Image:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := s.RGB565At(x, y).RGBA()
				i := dst.PixOffset(x, y)
				dst.Pix[i] = uint8(r >> 8)
				dst.Pix[i+1] = uint8(g >> 8)
				dst.Pix[i+2] = uint8(b >> 8)
				dst.Pix[i+3] = 0xFF
			}
		}
	case *XRGB8888Image:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				j := s.PixOffset(x, y)
				i := dst.PixOffset(x, y)
				dst.Pix[i] = s.Pix[j+2]
				dst.Pix[i+1] = s.Pix[j+1]
				dst.Pix[i+2] = s.Pix[j]
				dst.Pix[i+3] = 0xFF
			}
		}
	}
	return dst, nil
}

// Encode writes img into dst using the framebuffer layout. img must have the
// frame's dimensions. Alpha is ignored.
func Encode(dst []byte, img image.Image, bitsPerPixel int) error {
	b := img.Bounds()
	out, err := Wrap(dst, b.Dx(), b.Dy(), bitsPerPixel)
	if err != nil {
		return err
	}
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl := src.Pix[i], src.Pix[i+1], src.Pix[i+2]
				switch o := out.(type) {
				case *RGB565Image:
					v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(bl>>3)
					j := o.PixOffset(x, y)
					o.Pix[j] = byte(v)
					o.Pix[j+1] = byte(v >> 8)
				case *XRGB8888Image:
					j := o.PixOffset(x, y)
					o.Pix[j] = bl
					o.Pix[j+1] = g
					o.Pix[j+2] = r
					o.Pix[j+3] = 0xFF
				}
			}
		}
		return nil
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return nil
}
