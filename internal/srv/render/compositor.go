package render

import (
	"github.com/disintegration/imaging"
	"github.com/hajimehoshi/bitmapfont/v2"
	"github.com/viacast/vialcd/internal/fbimage"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"image"
	"image/color"
)

// bandBrightness is the brightness change, in percent, applied under the
// status and text bands.
const bandBrightness = -40

// glyphBearing compensates the negative left bearing of bitmapfont glyphs so
// that a glyph starts on its cell boundary.
const glyphBearing = 4

var textColor = image.NewUniform(color.White)

// State is the per frame display state driven by the input decoder.
type State struct {
	Rotation    int
	DisplayText bool
	StatusBar   bool
}

// Compositor overlays the text grid and the status bar on the mirrored frame.
type Compositor struct {
	width        int
	height       int
	bitsPerPixel int

	face       font.Face
	lineHeight int
	ascent     int
	glyphWidth int

	frame []byte
}

func NewCompositor(width, height, bitsPerPixel int) *Compositor {
	face := bitmapfont.Face
	metrics := face.Metrics()
	glyphWidth, _ := face.GlyphAdvance('M')
	return &Compositor{
		width:        width,
		height:       height,
		bitsPerPixel: bitsPerPixel,
		face:         face,
		lineHeight:   metrics.Height.Ceil(),
		ascent:       metrics.Ascent.Ceil(),
		glyphWidth:   glyphWidth.Ceil(),
		frame:        make([]byte, fbimage.FrameSize(width, height, bitsPerPixel)),
	}
}

// LineHeight is the pixel height of one text grid row.
func (c *Compositor) LineHeight() int { return c.lineHeight }

// Render composes raw with grid and icons. The returned frame has the layout
// of raw; it is owned by the compositor and overwritten by the next call.
// The composed image is returned as well for preview sinks.
func (c *Compositor) Render(raw []byte, grid *TextGrid, icons *IconSet, state State) ([]byte, image.Image, error) {
	src, err := fbimage.ToNRGBA(raw, c.width, c.height, c.bitsPerPixel)
	if err != nil {
		return nil, nil, err
	}

	var out *image.NRGBA
	switch state.Rotation {
	case 1, 3:
		canvas := c.portrait(src)
		c.drawIcons(canvas, layoutBottom(canvas.Bounds().Dx(), canvas.Bounds().Dy(), icons), true)
		c.drawPortraitText(canvas, grid, state.Rotation)
		if state.Rotation == 1 {
			out = imaging.Rotate270(canvas)
		} else {
			out = imaging.Rotate90(canvas)
		}
	default:
		if state.StatusBar {
			c.drawIcons(src, layoutTop(c.width, icons), false)
		}
		if state.DisplayText {
			c.drawLandscapeText(src, grid)
		}
		out = src
		if state.Rotation == 2 {
			out = imaging.Rotate180(src)
		}
	}

	if err := fbimage.Encode(c.frame, out, c.bitsPerPixel); err != nil {
		return nil, nil, err
	}
	return c.frame, out, nil
}

// portrait scales the frame down to the width of the portrait canvas, turns
// it upside down and anchors it above the reserved icon band.
func (c *Compositor) portrait(src *image.NRGBA) *image.NRGBA {
	canvasWidth, canvasHeight := c.height, c.width
	canvas := imaging.New(canvasWidth, canvasHeight, color.Black)

	scaledHeight := src.Bounds().Dy() * canvasWidth / src.Bounds().Dx()
	if scaledHeight < 1 {
		return canvas
	}
	scaled := imaging.Rotate180(imaging.Resize(src, canvasWidth, scaledHeight, imaging.NearestNeighbor))

	y := canvasHeight - scaledHeight - IconHeight
	if y < 0 {
		y = 0
	}
	return imaging.Paste(canvas, scaled, image.Pt(0, y))
}

func (c *Compositor) drawIcons(canvas *image.NRGBA, l iconLayout, upsideDown bool) {
	for _, band := range l.bands {
		darken(canvas, band)
	}
	for _, p := range l.icons {
		icon := p.icon
		if upsideDown {
			icon = imaging.Rotate180(icon)
		}
		draw.Draw(canvas, p.rect, icon, icon.Bounds().Min, draw.Over)
	}
}

// drawLandscapeText darkens a band exactly as high as the grid at the bottom
// of the canvas and writes the rows in it.
func (c *Compositor) drawLandscapeText(canvas *image.NRGBA, grid *TextGrid) {
	if grid == nil {
		return
	}
	bounds := canvas.Bounds()
	top := bounds.Max.Y - grid.Height()*c.lineHeight
	darken(canvas, image.Rect(bounds.Min.X, top, bounds.Max.X, bounds.Max.Y))
	for i, row := range grid.Rows() {
		c.drawString(canvas, bounds.Min.X, top+i*c.lineHeight, row)
	}
}

// drawPortraitText writes the grid on the side opposite to the icons.
// Rotation 1 reads right to left from the right edge, rotation 3 stacks the
// rows upwards.
func (c *Compositor) drawPortraitText(canvas *image.NRGBA, grid *TextGrid, rotation int) {
	if grid == nil {
		return
	}
	rows := grid.Rows()
	for i, row := range rows {
		if rotation == 1 {
			s := reverse(row)
			right := canvas.Bounds().Max.X - c.glyphWidth/2
			c.drawString(canvas, right-font.MeasureString(c.face, s).Ceil(), i*c.lineHeight, s)
		} else {
			c.drawString(canvas, 0, (len(rows)-1-i)*c.lineHeight, row)
		}
	}
}

func (c *Compositor) drawString(dst draw.Image, x, top int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  textColor,
		Face: c.face,
		Dot:  fixed.P(x+glyphBearing, top+c.ascent),
	}
	d.DrawString(s)
}

func darken(canvas *image.NRGBA, rect image.Rectangle) {
	rect = rect.Intersect(canvas.Bounds())
	if rect.Empty() {
		return
	}
	dark := imaging.AdjustBrightness(canvas.SubImage(rect), bandBrightness)
	draw.Draw(canvas, rect, dark, image.Point{}, draw.Src)
}
