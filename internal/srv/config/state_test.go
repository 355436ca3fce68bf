package config

import (
	"path/filepath"
	"testing"
)

func TestServerState_PersistsRuntimeChanges(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "state.yaml")
	display := DisplayParam{Rotate: 2, AlwaysTextBar: true}

	state := NewServerState(filename, display)
	if state.Rotate() != 2 || !state.AlwaysTextBar() || state.AlwaysStatusBar() {
		t.Fatalf("initial state = %d %v %v", state.Rotate(), state.AlwaysTextBar(), state.AlwaysStatusBar())
	}

	state.SetRotate(3)
	state.SetAlwaysTextBar(false)
	state.SetAlwaysStatusBar(true)
	state.FlushSave()

	// The state file takes precedence over the param file.
	reloaded := NewServerState(filename, DisplayParam{})
	if reloaded.Rotate() != 3 || reloaded.AlwaysTextBar() || !reloaded.AlwaysStatusBar() {
		t.Fatalf("reloaded state = %d %v %v", reloaded.Rotate(), reloaded.AlwaysTextBar(), reloaded.AlwaysStatusBar())
	}
}
