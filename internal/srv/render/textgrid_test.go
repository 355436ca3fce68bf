package render

import "testing"

func TestTextGrid_String(t *testing.T) {
	cases := []struct {
		name string
		x, y int
		s    string
		want []string
	}{
		{"origin", 1, 1, "Hi", []string{"Hi    ", "      "}},
		{"second row", 3, 2, "abc", []string{"      ", "  abc "}},
		{"clipped right", 5, 1, "abcdef", []string{"    ab", "      "}},
		{"clipped left", -1, 1, "abcdef", []string{"cdef  ", "      "}},
		{"row above", 1, 0, "abc", []string{"      ", "      "}},
		{"row below", 1, 3, "abc", []string{"      ", "      "}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewTextGrid(6, 2)
			g.String(c.x, c.y, c.s)
			for i, want := range c.want {
				if got := g.Row(i); got != want {
					t.Errorf("row %d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestTextGrid_ChrClampsPosition(t *testing.T) {
	g := NewTextGrid(4, 2)
	g.Chr(0, 0, 'a')
	g.Chr(9, 9, 'b')
	if got := g.Row(0); got != "a   " {
		t.Errorf("row 0 = %q", got)
	}
	if got := g.Row(1); got != "   b" {
		t.Errorf("row 1 = %q", got)
	}

	g.Clear()
	if got := g.Text(); got != "    \n    " {
		t.Errorf("Text() after Clear = %q", got)
	}
}

func TestTextGrid_Icon(t *testing.T) {
	g := NewTextGrid(3, 1)
	icon, ok := IconByName("arrow_up")
	if !ok {
		t.Fatal("arrow_up not found")
	}
	if !g.Icon(2, 1, icon) {
		t.Fatal("Icon returned false")
	}
	if got := g.Row(0); got != " ↑ " {
		t.Errorf("row = %q", got)
	}
	if g.Icon(1, 1, Icon(99)) {
		t.Error("unknown icon accepted")
	}
	if _, ok := IconByName("heart"); ok {
		t.Error("unknown name resolved")
	}
}

func TestTextGrid_HBar(t *testing.T) {
	cases := []struct {
		name     string
		x, y     int
		length   int
		promille int
		want     string
	}{
		{"empty", 1, 1, 4, 0, "      "},
		{"half", 1, 1, 4, 500, "██    "},
		{"partial cell", 1, 1, 4, 600, "██▍   "},
		{"full", 2, 1, 4, 1000, " ████ "},
		{"over full", 2, 1, 4, 1500, " ████ "},
		{"stops at right edge", 4, 1, 6, 1000, "   ███"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewTextGrid(6, 1)
			g.HBar(c.x, c.y, c.length, c.promille)
			if got := g.Row(0); got != c.want {
				t.Errorf("row = %q, want %q", got, c.want)
			}
		})
	}
}

func TestTextGrid_VBar(t *testing.T) {
	cases := []struct {
		name     string
		promille int
		want     []string
	}{
		{"full", 1000, []string{" █ ", " █ ", " █ "}},
		{"half", 500, []string{"   ", " ▄ ", " █ "}},
		{"one eighth", 42, []string{"   ", "   ", " ▁ "}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewTextGrid(3, 3)
			g.VBar(2, 3, 3, c.promille)
			for i, want := range c.want {
				if got := g.Row(i); got != want {
					t.Errorf("row %d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestReverse(t *testing.T) {
	if got := reverse("ab↑d"); got != "d↑ba" {
		t.Errorf("reverse = %q", got)
	}
}
