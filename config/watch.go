package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

// LevelWatcher reapplies log.level whenever the config file changes.
// Nothing else is reloaded: artifacts stay fixed for the process lifetime.
type LevelWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	level   zap.AtomicLevel
	logger  *zap.Logger
	done    chan struct{}
}

// WatchLogLevel watches the directory holding path so editors that replace
// the file atomically are still seen.
func WatchLogLevel(path string, level zap.AtomicLevel, logger *zap.Logger) (*LevelWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	w := &LevelWatcher{
		watcher: watcher,
		path:    filepath.Clean(path),
		level:   level,
		logger:  logger,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *LevelWatcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *LevelWatcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	var partial struct {
		Log struct {
			Level string `yaml:"level"`
		} `yaml:"log"`
	}
	if err := yaml.Unmarshal(data, &partial); err != nil {
		w.logger.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	if partial.Log.Level == "" || !ValidLogLevel(partial.Log.Level) {
		return
	}
	var next zapcore.Level
	if err := next.UnmarshalText([]byte(strings.ToLower(partial.Log.Level))); err != nil {
		return
	}
	if next != w.level.Level() {
		w.level.SetLevel(next)
		w.logger.Info("log level changed", zap.Stringer("level", next))
	}
}

func (w *LevelWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
