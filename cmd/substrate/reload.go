// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package main

import (
	"path/filepath"

	"github.com/aristanetworks/fsnotify"
	"github.com/aristanetworks/goarista/logger"
)

// configWatcher calls onChange whenever the file at path is written,
// following the watch-the-parent-directory approach netns/nswatcher.go
// uses to tolerate the file being replaced (rename+create) rather than
// edited in place, which is how most config management tools deploy a
// new version of a file.
type configWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	log      logger.Logger
	done     chan struct{}
}

func watchConfig(path string, log logger.Logger, onChange func()) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	cw := &configWatcher{
		watcher:  w,
		path:     path,
		onChange: onChange,
		log:      log,
		done:     make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

func (w *configWatcher) run() {
	for {
		select {
		case <-w.done:
			go func() {
				for range w.watcher.Events {
				}
			}()
			w.watcher.Close()
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.Infof("substrate: config file %s changed, reloading", w.path)
			w.onChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorf("substrate: config watcher error: %v", err)
		}
	}
}

func (w *configWatcher) Close() {
	close(w.done)
}
