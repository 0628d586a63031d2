// Package watch mirrors workspace file writes into the run's event
// stream, so files produced by external tools (editors, generated test
// runs) show up alongside gateway-written files.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileFunc receives a workspace-relative path for each created or
// written file.
type FileFunc func(relPath string)

// Watcher observes a workspace directory tree for file writes.
type Watcher struct {
	workspace string
	onFile    FileFunc

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu   sync.Mutex
	seen map[string]struct{}
}

// New starts watching the workspace. New subdirectories are added to
// the watch as they appear. A failed watcher setup returns an error;
// the caller decides whether to run without one.
func New(workspace string, onFile FileFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		workspace: workspace,
		onFile:    onFile,
		watcher:   fw,
		done:      make(chan struct{}),
		seen:      make(map[string]struct{}),
	}

	if err := w.addTree(workspace); err != nil {
		fw.Close()
		return nil, err
	}

	go w.loop()

	return w, nil
}

// addTree registers the directory and all visible subdirectories.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if hidden(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Op&fsnotify.Create != 0 && !hidden(filepath.Base(event.Name)) {
					w.addTree(event.Name)
				}
				continue
			}
			rel, err := filepath.Rel(w.workspace, event.Name)
			if err != nil || hiddenPath(rel) {
				continue
			}
			w.mu.Lock()
			_, dup := w.seen[rel]
			w.seen[rel] = struct{}{}
			w.mu.Unlock()
			if dup && event.Op&fsnotify.Create != 0 {
				continue
			}
			if w.onFile != nil {
				w.onFile(filepath.ToSlash(rel))
			}
		case <-w.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() {
	close(w.done)
	w.watcher.Close()
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func hiddenPath(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if hidden(part) {
			return true
		}
	}
	return false
}
