package render

import (
	"image"
)

const (
	// IconHeight is the height of one status band.
	IconHeight = 16
	iconHSpace = 0
)

// IconZone is an ordered list of icons. A nil entry is a hole left by an
// image that could not be loaded.
type IconZone []image.Image

// IconSet holds the three status bar zones. A set is never modified once
// published: reloading builds a new one.
type IconSet struct {
	Left1 IconZone
	Left2 IconZone
	Right IconZone
}

func (z IconZone) present() bool {
	for _, icon := range z {
		if icon != nil {
			return true
		}
	}
	return false
}

type placedIcon struct {
	icon image.Image
	rect image.Rectangle
	band image.Rectangle
}

type iconLayout struct {
	bands []image.Rectangle // bands to darken, in drawing order
	icons []placedIcon
}

func (l *iconLayout) addBand(band image.Rectangle) {
	for _, b := range l.bands {
		if b == band {
			return
		}
	}
	l.bands = append(l.bands, band)
}

// walkZone places the icons of zone inside band. Icons are laid out from the
// band's left edge, or from its right edge when fromRight is set. An icon
// wider than what remains of available is skipped and the walk goes on.
func (l *iconLayout) walkZone(zone IconZone, band image.Rectangle, fromRight bool, available *int) {
	if zone.present() {
		l.addBand(band)
	}
	x := band.Min.X
	if fromRight {
		x = band.Max.X
	}
	for _, icon := range zone {
		if icon == nil {
			continue
		}
		w := icon.Bounds().Dx() + iconHSpace
		if w > *available {
			continue
		}
		*available -= w
		if fromRight {
			x -= w
		}
		rect := image.Rect(x, band.Min.Y, x+icon.Bounds().Dx(), band.Min.Y+icon.Bounds().Dy())
		if !fromRight {
			x += w
		}
		l.icons = append(l.icons, placedIcon{icon: icon, rect: rect.Intersect(band), band: band})
	}
}

// layoutTop lays the zones out on two bands at the top of a width pixels
// wide canvas: right and left1 share the first band, left2 owns the second.
func layoutTop(width int, icons *IconSet) iconLayout {
	var l iconLayout
	if icons == nil {
		return l
	}
	band1 := image.Rect(0, 0, width, IconHeight)
	band2 := image.Rect(0, IconHeight, width, 2*IconHeight)

	available := width
	l.walkZone(icons.Right, band1, true, &available)
	l.walkZone(icons.Left1, band1, false, &available)

	available = width
	l.walkZone(icons.Left2, band2, false, &available)
	return l
}

// layoutBottom is the portrait layout: bands sit at the bottom of the canvas
// and the zone directions are mirrored.
func layoutBottom(width, height int, icons *IconSet) iconLayout {
	var l iconLayout
	if icons == nil {
		return l
	}
	band1 := image.Rect(0, height-IconHeight, width, height)
	band2 := image.Rect(0, height-2*IconHeight, width, height-IconHeight)

	available := width
	l.walkZone(icons.Right, band1, false, &available)
	l.walkZone(icons.Left1, band1, true, &available)

	available = width
	l.walkZone(icons.Left2, band2, true, &available)
	return l
}
