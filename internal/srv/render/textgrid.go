package render

import "strings"

// Icon is a symbolic character cell drawn from the font.
type Icon int

const (
	IconBlockFilled Icon = iota
	IconArrowUp
	IconArrowDown
	IconArrowLeft
	IconArrowRight
	IconCheckboxOff
	IconCheckboxOn
	IconCheckboxGray
	IconSelectorAtLeft
	IconSelectorAtRight
)

var iconRunes = map[Icon]rune{
	IconBlockFilled:     '█',
	IconArrowUp:         '↑',
	IconArrowDown:       '↓',
	IconArrowLeft:       '←',
	IconArrowRight:      '→',
	IconCheckboxOff:     '☐',
	IconCheckboxOn:      '☑',
	IconCheckboxGray:    '▒',
	IconSelectorAtLeft:  '▶',
	IconSelectorAtRight: '◀',
}

var iconNames = map[string]Icon{
	"block_filled":      IconBlockFilled,
	"arrow_up":          IconArrowUp,
	"arrow_down":        IconArrowDown,
	"arrow_left":        IconArrowLeft,
	"arrow_right":       IconArrowRight,
	"checkbox_off":      IconCheckboxOff,
	"checkbox_on":       IconCheckboxOn,
	"checkbox_gray":     IconCheckboxGray,
	"selector_at_left":  IconSelectorAtLeft,
	"selector_at_right": IconSelectorAtRight,
}

// IconByName resolves an icon from its snake case name.
func IconByName(name string) (Icon, bool) {
	icon, ok := iconNames[name]
	return icon, ok
}

// TextGrid is the character screen overlaid on the mirrored frame.
// Writers use 1-based coordinates, (1,1) being the upper left cell.
type TextGrid struct {
	columns int
	rows    int
	cells   []rune
}

func NewTextGrid(columns, rows int) *TextGrid {
	g := &TextGrid{
		columns: columns,
		rows:    rows,
		cells:   make([]rune, columns*rows),
	}
	g.Clear()
	return g
}

func (g *TextGrid) Width() int  { return g.columns }
func (g *TextGrid) Height() int { return g.rows }

func (g *TextGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = ' '
	}
}

// String writes s at (x,y). Rows outside the grid are ignored, characters
// falling outside a row are dropped.
func (g *TextGrid) String(x, y int, s string) {
	x--
	y--
	if y < 0 || y >= g.rows {
		return
	}
	for _, r := range s {
		if x >= g.columns {
			return
		}
		if x >= 0 {
			g.cells[y*g.columns+x] = r
		}
		x++
	}
}

// Chr writes c at (x,y), clamping the position into the grid.
func (g *TextGrid) Chr(x, y int, c rune) {
	x = clamp(x, 1, g.columns)
	y = clamp(y, 1, g.rows)
	g.cells[(y-1)*g.columns+x-1] = c
}

// Icon writes the glyph of icon at (x,y). It returns false for an unknown icon.
func (g *TextGrid) Icon(x, y int, icon Icon) bool {
	r, ok := iconRunes[icon]
	if !ok {
		return false
	}
	g.Chr(x, y, r)
	return true
}

// barSteps is the number of partial levels a bar cell can show.
const barSteps = 8

// Partial bar cells indexed by filled eighths.
var (
	hBarRunes = [barSteps]rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉'}
	vBarRunes = [barSteps]rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇'}
)

// HBar draws a bar growing right from (x,y). length is the bar size in cells
// at 1000 promille. Cells past the filled part are left untouched.
func (g *TextGrid) HBar(x, y, length, promille int) {
	g.bar(x, y, 1, 0, length, promille, hBarRunes)
}

// VBar draws a bar growing up from (x,y).
func (g *TextGrid) VBar(x, y, length, promille int) {
	g.bar(x, y, 0, -1, length, promille, vBarRunes)
}

func (g *TextGrid) bar(x, y, dx, dy, length, promille int, partial [barSteps]rune) {
	promille = clamp(promille, 0, 1000)
	total := (2*length*barSteps + 1) * promille / 2000
	for pos := 0; pos < length; pos++ {
		cx, cy := x+pos*dx, y+pos*dy
		if cx < 1 || cx > g.columns || cy < 1 || cy > g.rows {
			return
		}
		filled := total - pos*barSteps
		switch {
		case filled >= barSteps:
			g.Chr(cx, cy, iconRunes[IconBlockFilled])
		case filled > 0:
			g.Chr(cx, cy, partial[filled])
			return
		default:
			return
		}
	}
}

// Row returns the 0-based row i.
func (g *TextGrid) Row(i int) string {
	return string(g.cells[i*g.columns : (i+1)*g.columns])
}

// Rows returns every row, top first.
func (g *TextGrid) Rows() []string {
	rows := make([]string, g.rows)
	for i := range rows {
		rows[i] = g.Row(i)
	}
	return rows
}

// Text returns the grid content, one line per row.
func (g *TextGrid) Text() string {
	return strings.Join(g.Rows(), "\n")
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
