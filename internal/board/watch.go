package board

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 250 * time.Millisecond

// dbWatcher coalesces fsnotify events on the database into one change
// signal per burst. SQLite in WAL mode writes the -wal and -shm files
// next to the database, so the parent directory is watched and events
// are matched by name prefix.
type dbWatcher struct {
	fs      *fsnotify.Watcher
	prefix  string
	changes chan struct{}

	timerMu sync.Mutex
	timer   *time.Timer
}

func newDBWatcher(dbPath string) (*dbWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(dbPath)); err != nil {
		fs.Close()
		return nil, err
	}

	w := &dbWatcher{
		fs:      fs,
		prefix:  filepath.Base(dbPath),
		changes: make(chan struct{}, 1),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one signal per settled burst of database writes.
func (w *dbWatcher) Changes() <-chan struct{} {
	return w.changes
}

func (w *dbWatcher) Close() error {
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
	return w.fs.Close()
}

func (w *dbWatcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !strings.HasPrefix(filepath.Base(event.Name), w.prefix) {
				continue
			}
			w.bump()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Error("database watch error", "error", err)
		}
	}
}

// bump restarts the debounce window; the signal fires once writes go
// quiet.
func (w *dbWatcher) bump() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceInterval, func() {
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}

func logWatchDisabled(err error) {
	slog.Warn("live refresh disabled, falling back to polling", "error", err)
}
