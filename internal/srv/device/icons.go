package device

import (
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/internal/srv/render"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Icon zone directory names, relative to the icon root.
const (
	ZoneLeft1 = "left1"
	ZoneLeft2 = "left2"
	ZoneRight = "right"
)

var Zones = []string{ZoneLeft1, ZoneLeft2, ZoneRight}

// IconProvider loads the status bar icons. A reload builds a complete new
// set and swaps it in; the previous set stays valid for any holder.
type IconProvider struct {
	directory string
	current   atomic.Pointer[render.IconSet]
	reload    atomic.Bool
}

func NewIconProvider(directory string) *IconProvider {
	p := &IconProvider{directory: directory}
	p.current.Store(&render.IconSet{})
	p.reload.Store(true)
	return p
}

func (p *IconProvider) Directory() string { return p.directory }

// RequestReload may be called from any goroutine.
func (p *IconProvider) RequestReload() {
	p.reload.Store(true)
}

// ReloadIfRequested reloads the icons when a reload was requested since the
// last call. It reports whether a reload happened.
func (p *IconProvider) ReloadIfRequested() bool {
	if !p.reload.CompareAndSwap(true, false) {
		return false
	}
	p.Reload()
	return true
}

func (p *IconProvider) Reload() {
	set := &render.IconSet{
		Left1: p.loadZone(ZoneLeft1),
		Left2: p.loadZone(ZoneLeft2),
		Right: p.loadZone(ZoneRight),
	}
	p.current.Store(set)
	logrus.Debugf("Icons reloaded: %d left1, %d left2, %d right", len(set.Left1), len(set.Left2), len(set.Right))
}

// Icons returns the current set. It must not be modified.
func (p *IconProvider) Icons() *render.IconSet {
	return p.current.Load()
}

// IconCounts returns the number of slots of each zone, holes included.
func (p *IconProvider) IconCounts() map[string]int {
	set := p.Icons()
	return map[string]int{
		ZoneLeft1: len(set.Left1),
		ZoneLeft2: len(set.Left2),
		ZoneRight: len(set.Right),
	}
}

// Release drops the current set.
func (p *IconProvider) Release() {
	p.current.Store(&render.IconSet{})
}

// ZoneFolder returns the directory scanned for one icon zone.
func (p *IconProvider) ZoneFolder(zone string) string {
	return filepath.Join(p.directory, zone)
}

func (p *IconProvider) loadZone(zone string) render.IconZone {
	folder := p.ZoneFolder(zone)
	entries, err := os.ReadDir(folder)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Warnf("Unable to read icon folder %s: %v", folder, err)
		}
		return nil
	}

	// Entries come sorted by name.
	var icons render.IconZone
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(folder, entry.Name())
		img, err := imaging.Open(path)
		if err != nil {
			logrus.Warn(&ImageLoadError{Path: path, Err: err})
			icons = append(icons, nil)
			continue
		}
		icons = append(icons, img)
	}
	return icons
}
