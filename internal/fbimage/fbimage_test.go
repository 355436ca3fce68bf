package fbimage

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestRGB565_PrimaryColors(t *testing.T) {
	cases := []struct {
		name string
		in   color.Color
		want RGB565
	}{
		{"black", color.RGBA{0, 0, 0, 0xFF}, 0x0000},
		{"white", color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, 0xFFFF},
		{"red", color.RGBA{0xFF, 0, 0, 0xFF}, 0xF800},
		{"green", color.RGBA{0, 0xFF, 0, 0xFF}, 0x07E0},
		{"blue", color.RGBA{0, 0, 0xFF, 0xFF}, 0x001F},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := RGB565Model.Convert(c.in).(RGB565)
			if got != c.want {
				t.Fatalf("got %#04x, want %#04x", uint16(got), uint16(c.want))
			}
			r, g, b, a := got.RGBA()
			wr, wg, wb, _ := c.in.RGBA()
			if r != wr || g != wg || b != wb || a != 0xFFFF {
				t.Fatalf("RGBA() = %x %x %x %x, want %x %x %x ffff", r, g, b, a, wr, wg, wb)
			}
		})
	}
}

func TestWrap_LittleEndianLayout(t *testing.T) {
	pix := make([]byte, FrameSize(2, 1, 16))
	img, err := Wrap(pix, 2, 1, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img.Set(1, 0, color.RGBA{0xFF, 0, 0, 0xFF})
	if pix[2] != 0x00 || pix[3] != 0xF8 {
		t.Fatalf("pixel bytes = %#02x %#02x, want 0x00 0xf8", pix[2], pix[3])
	}

	pix32 := make([]byte, FrameSize(1, 1, 32))
	img32, err := Wrap(pix32, 1, 1, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img32.Set(0, 0, color.RGBA{0x10, 0x20, 0x30, 0xFF})
	if pix32[0] != 0x30 || pix32[1] != 0x20 || pix32[2] != 0x10 {
		t.Fatalf("pixel bytes = %v, want B G R order", pix32)
	}
}

func TestWrap_Errors(t *testing.T) {
	if _, err := Wrap(make([]byte, 3), 2, 1, 16); err == nil {
		t.Fatal("expected error for short frame")
	}
	if _, err := Wrap(make([]byte, 6), 2, 1, 24); !errors.Is(err, ErrUnsupportedDepth) {
		t.Fatalf("expected ErrUnsupportedDepth, got %v", err)
	}
}

func TestEncodeDecodeFrame(t *testing.T) {
	for _, bpp := range []int{16, 32} {
		src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
		src.Set(0, 0, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF})
		src.Set(3, 2, color.NRGBA{0xFF, 0, 0, 0xFF})

		frame := make([]byte, FrameSize(4, 3, bpp))
		if err := Encode(frame, src, bpp); err != nil {
			t.Fatalf("bpp %d: unexpected error: %v", bpp, err)
		}
		out, err := ToNRGBA(frame, 4, 3, bpp)
		if err != nil {
			t.Fatalf("bpp %d: unexpected error: %v", bpp, err)
		}
		if got := out.NRGBAAt(0, 0); got != (color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
			t.Errorf("bpp %d: (0,0) = %v", bpp, got)
		}
		if got := out.NRGBAAt(3, 2); got != (color.NRGBA{0xFF, 0, 0, 0xFF}) {
			t.Errorf("bpp %d: (3,2) = %v", bpp, got)
		}
		if got := out.NRGBAAt(1, 1); got != (color.NRGBA{0, 0, 0, 0xFF}) {
			t.Errorf("bpp %d: (1,1) = %v", bpp, got)
		}
	}
}
