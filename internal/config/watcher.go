package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file on change and hands the re-validated
// result to a callback. Invalid edits are logged and skipped; the previous
// config stays in effect.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *zap.Logger
	done    chan struct{}
}

// Watch starts watching path. The callback runs on the watcher goroutine;
// keep it short.
func Watch(path string, logger *zap.Logger, onReload func(Config)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		watcher: fw,
		log:     logger.Named("config"),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					w.log.Warn("config reload skipped", zap.Error(err))
					continue
				}
				w.log.Info("config reloaded", zap.String("path", path))
				onReload(cfg)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.Warn("config watch error", zap.Error(err))
			}
		}
	}()

	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
