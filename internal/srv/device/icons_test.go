package device

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePng(t *testing.T, path string, width int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, 16))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestIconProvider_LoadsZonesInNameOrder(t *testing.T) {
	root := t.TempDir()
	for _, zone := range []string{ZoneLeft1, ZoneRight} {
		if err := os.Mkdir(filepath.Join(root, zone), 0755); err != nil {
			t.Fatal(err)
		}
	}
	writePng(t, filepath.Join(root, ZoneLeft1, "b.png"), 20)
	writePng(t, filepath.Join(root, ZoneLeft1, "a.png"), 10)
	if err := os.WriteFile(filepath.Join(root, ZoneLeft1, "c.png"), []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, ZoneLeft1, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writePng(t, filepath.Join(root, ZoneRight, "battery.png"), 30)

	p := NewIconProvider(root)
	if !p.ReloadIfRequested() {
		t.Fatal("expected the initial reload")
	}
	if p.ReloadIfRequested() {
		t.Fatal("unexpected second reload")
	}

	icons := p.Icons()
	if len(icons.Left1) != 3 {
		t.Fatalf("left1 has %d slots, want 3", len(icons.Left1))
	}
	if w := icons.Left1[0].Bounds().Dx(); w != 10 {
		t.Errorf("left1[0] width = %d, want 10", w)
	}
	if w := icons.Left1[1].Bounds().Dx(); w != 20 {
		t.Errorf("left1[1] width = %d, want 20", w)
	}
	if icons.Left1[2] != nil {
		t.Error("undecodable file should leave a hole")
	}
	if len(icons.Left2) != 0 {
		t.Errorf("missing folder gave %d icons", len(icons.Left2))
	}
	if len(icons.Right) != 1 {
		t.Errorf("right has %d slots, want 1", len(icons.Right))
	}

	counts := p.IconCounts()
	if counts[ZoneLeft1] != 3 || counts[ZoneLeft2] != 0 || counts[ZoneRight] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestIconProvider_ReloadSwapsSet(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, ZoneRight)
	if err := os.Mkdir(folder, 0755); err != nil {
		t.Fatal(err)
	}
	writePng(t, filepath.Join(folder, "a.png"), 8)

	p := NewIconProvider(root)
	p.ReloadIfRequested()
	old := p.Icons()

	writePng(t, filepath.Join(folder, "b.png"), 8)
	p.RequestReload()
	if !p.ReloadIfRequested() {
		t.Fatal("requested reload not performed")
	}

	if len(old.Right) != 1 {
		t.Errorf("previous set modified: %d icons", len(old.Right))
	}
	if len(p.Icons().Right) != 2 {
		t.Errorf("new set has %d icons, want 2", len(p.Icons().Right))
	}

	p.Release()
	if len(p.Icons().Right) != 0 {
		t.Error("release kept icons")
	}
}

func TestIconProvider_EmptyRoot(t *testing.T) {
	p := NewIconProvider(filepath.Join(t.TempDir(), "missing"))
	p.Reload()
	icons := p.Icons()
	if len(icons.Left1)+len(icons.Left2)+len(icons.Right) != 0 {
		t.Fatalf("icons loaded from a missing root: %+v", icons)
	}
}

func TestIconWatcher_RequestsReloadOnChange(t *testing.T) {
	root := t.TempDir()
	p := NewIconProvider(root)
	w := NewIconWatcher(p)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	p.ReloadIfRequested()

	for _, zone := range Zones {
		if folder := p.ZoneFolder(zone); folder != filepath.Join(root, zone) {
			t.Errorf("zone folder = %s", folder)
		} else if info, err := os.Stat(folder); err != nil || !info.IsDir() {
			t.Errorf("zone folder %s not created: %v", folder, err)
		}
	}

	writePng(t, filepath.Join(root, ZoneLeft2, "wifi.png"), 16)

	deadline := time.Now().Add(5 * time.Second)
	for !p.ReloadIfRequested() {
		if time.Now().After(deadline) {
			t.Fatal("no reload requested after an icon was added")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(p.Icons().Left2) != 1 {
		t.Fatalf("left2 has %d icons, want 1", len(p.Icons().Left2))
	}
}
