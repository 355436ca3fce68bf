package device

import (
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"os"
	"path/filepath"
	"sync"
)

// IconWatcher requests an icon reload whenever a zone directory changes.
type IconWatcher struct {
	lock     sync.Mutex
	provider *IconProvider
	watcher  *fsnotify.Watcher

	askDone chan bool
	done    chan bool
}

func NewIconWatcher(provider *IconProvider) *IconWatcher {
	return &IconWatcher{
		provider: provider,
		askDone:  make(chan bool),
		done:     make(chan bool),
	}
}

func (d *IconWatcher) Start() error {
	logrus.Infof("Start icon watcher on %s", d.provider.Directory())
	d.lock.Lock()
	defer d.lock.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, zone := range Zones {
		folder := d.provider.ZoneFolder(zone)
		if err := os.MkdirAll(folder, 0755); err != nil {
			logrus.Warnf("Unable to create icon folder %s: %v", folder, err)
		}
	}
	if err := watcher.Add(d.provider.Directory()); err != nil {
		watcher.Close()
		return err
	}
	for _, zone := range Zones {
		d.watchZone(watcher, d.provider.ZoneFolder(zone))
	}
	d.watcher = watcher

	go func() {
		for loop := true; loop; {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					loop = false
					break
				}
				d.handle(watcher, ev)
			case err, ok := <-watcher.Errors:
				if !ok {
					loop = false
					break
				}
				logrus.Warnf("Icon watcher error: %v", err)
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()

	return nil
}

func (d *IconWatcher) handle(watcher *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	logrus.Debugf("Icon change: %s", ev)

	// A zone directory created after start.
	if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == filepath.Clean(d.provider.Directory()) {
		for _, zone := range Zones {
			if filepath.Base(ev.Name) == zone {
				d.watchZone(watcher, ev.Name)
			}
		}
	}
	d.provider.RequestReload()
}

func (d *IconWatcher) watchZone(watcher *fsnotify.Watcher, folder string) {
	if err := watcher.Add(folder); err != nil {
		logrus.Warnf("Unable to watch icon folder %s: %v", folder, err)
	}
}

func (d *IconWatcher) Stop() {
	logrus.Infof("Stop icon watcher")
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.watcher == nil {
		return
	}
	d.askDone <- true
	<-d.done
	d.watcher.Close()
	d.watcher = nil
}
