package config

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"sync"
	"time"
)

const stateSaveDelay = 10 * time.Second

// ServerState holds the display settings changed at runtime. They survive a
// restart and take precedence over the param file.
type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

func NewServerState(completeStateFilename string, display DisplayParam) *ServerState {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		// Interpret state file
		err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret state file: %v\n", err)
		}
		if serverState.serverStateConfig.Rotate < 0 || serverState.serverStateConfig.Rotate > 3 {
			logrus.Warn(&RangeError{Field: "state.rotate", Value: serverState.serverStateConfig.Rotate, Default: display.Rotate})
			serverState.serverStateConfig.Rotate = display.Rotate
		}
	} else {
		// Create default state file
		logrus.Infof("Create default state file")
		serverState.lock.Lock()
		serverState.serverStateConfig = ServerStateConfig{
			Rotate:          display.Rotate,
			AlwaysTextBar:   display.AlwaysTextBar,
			AlwaysStatusBar: display.AlwaysStatusBar,
		}
		serverState.scheduleSave()
		serverState.lock.Unlock()
	}

	return serverState
}

func (ss *ServerState) Rotate() int {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.Rotate
}

func (ss *ServerState) SetRotate(rotate int) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.Rotate = rotate
	ss.scheduleSave()
}

func (ss *ServerState) AlwaysTextBar() bool {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.AlwaysTextBar
}

func (ss *ServerState) SetAlwaysTextBar(on bool) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.AlwaysTextBar = on
	ss.scheduleSave()
}

func (ss *ServerState) AlwaysStatusBar() bool {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.AlwaysStatusBar
}

func (ss *ServerState) SetAlwaysStatusBar(on bool) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.AlwaysStatusBar = on
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(stateSaveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(stateSaveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660)
	if err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}

type ServerStateConfig struct {
	Rotate          int  `yaml:"rotate"`
	AlwaysTextBar   bool `yaml:"always_text_bar"`
	AlwaysStatusBar bool `yaml:"always_status_bar"`
}
