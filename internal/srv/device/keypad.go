package device

import (
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/internal/srv/config"
	"time"
)

// Key is a logical key reported by the keypad.
type Key int

const (
	KeyDown Key = iota
	KeyLeft
	KeyUp
	KeyRight
	KeyEnter
	KeyEscape
)

var KeyMap = [...]string{"Down", "Left", "Up", "Right", "Enter", "Escape"}

func (k Key) String() string {
	if k < 0 || int(k) >= len(KeyMap) {
		return "Unknown"
	}
	return KeyMap[k]
}

// Raw key codes sent by the keypads.
const (
	CodeLeft   byte = 'L'
	CodeUp     byte = 'U'
	CodeRight  byte = 'R'
	CodeDown   byte = 'D'
	CodeEnter  byte = 'E'
	CodeEscape byte = 'C'
)

// ValidCode reports whether code is one of the raw key codes.
func ValidCode(code byte) bool {
	switch code {
	case CodeLeft, CodeUp, CodeRight, CodeDown, CodeEnter, CodeEscape:
		return true
	}
	return false
}

// DecodeKey maps a raw code to a logical key. Directions follow the display
// and keypad rotations, Enter and Escape do not.
func DecodeKey(code byte, rotation, keypadRotation int) (Key, bool) {
	var base int
	switch code {
	case CodeLeft:
		base = 0
	case CodeUp:
		base = 1
	case CodeRight:
		base = 2
	case CodeDown:
		base = 3
	case CodeEnter:
		return KeyEnter, true
	case CodeEscape:
		return KeyEscape, true
	default:
		return 0, false
	}
	return Key((base + rotation + keypadRotation) % 4), true
}

// KeySource yields raw key codes without blocking, at most one per call.
type KeySource interface {
	Name() string
	ReadKey() (code byte, ok bool)
}

type pressState int

const (
	idle pressState = iota
	pressed
)

type inputChannel struct {
	source KeySource

	state      pressState
	pressedKey Key
	pressStart time.Time

	// Set once a key was accepted during the current press: any further
	// acceptance is an auto-repeat.
	repeating  bool
	lastKey    Key
	nextAccept time.Time
}

// observe tracks presses. A new key code starts a new press.
func (ch *inputChannel) observe(key Key, now time.Time) {
	if ch.state == idle || key != ch.pressedKey {
		ch.state = pressed
		ch.pressedKey = key
		ch.pressStart = now
		ch.repeating = false
	}
}

func (ch *inputChannel) acceptable(now time.Time, repeatDelay time.Duration) bool {
	if now.Before(ch.nextAccept) {
		return false
	}
	if ch.repeating && now.Before(ch.pressStart.Add(repeatDelay)) {
		return false
	}
	return true
}

func (ch *inputChannel) accept(key Key, now time.Time, repeatInterval time.Duration) {
	ch.lastKey = key
	ch.repeating = true
	ch.nextAccept = now.Add(repeatInterval)
}

// Visibility is the text and status bar display state.
type Visibility struct {
	DisplayText  bool
	StatusBar    bool
	HideDeadline time.Time
}

const maxPendingKeys = 32

// Keypad decodes the key sources into logical keys and drives the display
// visibility: an idle display hides its text after a timeout, and the next
// key only brings it back.
type Keypad struct {
	channels   []*inputChannel
	config     config.DisplayConfig
	visibility Visibility
	pending    []Key

	now func() time.Time
}

func NewKeypad(sources []KeySource, displayConfig config.DisplayConfig) *Keypad {
	d := &Keypad{
		config: displayConfig,
		visibility: Visibility{
			DisplayText: true,
			StatusBar:   true,
		},
		now: time.Now,
	}
	for _, source := range sources {
		d.channels = append(d.channels, &inputChannel{source: source})
	}
	return d
}

// SetDisplayConfig applies runtime changes (rotation, pinned bars).
func (d *Keypad) SetDisplayConfig(displayConfig config.DisplayConfig) {
	if d.config.AlwaysTextBar && !displayConfig.AlwaysTextBar {
		// Unpinned text starts a fresh hide timeout.
		d.visibility.HideDeadline = d.now().Add(displayConfig.HideTextTimeout)
	}
	d.config = displayConfig
	if displayConfig.AlwaysTextBar {
		d.visibility.DisplayText = true
	}
	if !d.visibility.DisplayText {
		d.visibility.StatusBar = displayConfig.AlwaysStatusBar
	}
}

// Poll drains one record from every source and returns the accepted key, if
// any. When several sources report an acceptable key in the same cycle the
// lowest indexed one wins, the others are dropped.
func (d *Keypad) Poll() (Key, bool) {
	now := d.now()
	if d.visibility.HideDeadline.IsZero() {
		d.visibility.HideDeadline = now.Add(d.config.HideTextTimeout)
	}

	var winner *inputChannel
	var key Key
	for _, ch := range d.channels {
		code, ok := ch.source.ReadKey()
		if !ok {
			ch.state = idle
			continue
		}
		k, ok := DecodeKey(code, d.config.Rotation, d.config.KeypadRotation)
		if !ok {
			logrus.Debugf("Unknown key code %q from %s", code, ch.source.Name())
			continue
		}
		ch.observe(k, now)
		if winner == nil && ch.acceptable(now, d.config.RepeatDelay) {
			winner = ch
			key = k
		}
	}

	if winner == nil {
		d.autoHide(now)
		return 0, false
	}

	winner.accept(key, now, d.config.RepeatInterval)
	d.visibility.HideDeadline = now.Add(d.config.HideTextTimeout)

	if !d.visibility.DisplayText {
		// The key only wakes the display up.
		d.visibility.DisplayText = true
		d.visibility.StatusBar = true
		return 0, false
	}

	d.pending = append(d.pending, key)
	if len(d.pending) > maxPendingKeys {
		d.pending = d.pending[len(d.pending)-maxPendingKeys:]
	}
	return key, true
}

func (d *Keypad) autoHide(now time.Time) {
	if d.config.AlwaysTextBar {
		d.visibility.DisplayText = true
		d.visibility.HideDeadline = now.Add(d.config.HideTextTimeout)
		return
	}
	if !d.visibility.DisplayText || d.config.Resize() || now.Before(d.visibility.HideDeadline) {
		return
	}
	d.visibility.DisplayText = false
	d.visibility.StatusBar = d.config.AlwaysStatusBar
}

// Wake shows text and status bar and restarts the hide timeout.
func (d *Keypad) Wake() {
	d.visibility.HideDeadline = d.now().Add(d.config.HideTextTimeout)
	d.visibility.DisplayText = true
	d.visibility.StatusBar = true
}

func (d *Keypad) Visibility() Visibility {
	return d.visibility
}

// DrainKeys returns and forgets the keys accepted since the last call.
func (d *Keypad) DrainKeys() []Key {
	keys := d.pending
	d.pending = nil
	return keys
}
