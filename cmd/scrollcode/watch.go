package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/scrollcode/internal/log"
	"github.com/zjrosen/scrollcode/internal/tui"
)

// watchDebounce collapses the several write events an editor commonly
// emits per save (truncate, write, chmod) into one reload.
const watchDebounce = 100 * time.Millisecond

// watchSources starts an fsnotify watcher over every path l reads from,
// watching N independent paths, each mapped back to its source index so a
// change only reloads the one instance it belongs to. Returns a stop func;
// events after stop is called are dropped.
func watchSources(p *tea.Program, l *sourceLoader) (func(), error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	byPath := make(map[string][]int) // dir -> indices whose watched file lives there
	for i, path := range l.paths {
		dir := filepath.Dir(path)
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		byPath[dir] = append(byPath[dir], i)
	}

	done := make(chan struct{})
	go watchLoop(fsw, l, byPath, p, done)

	return func() {
		close(done)
		_ = fsw.Close()
	}, nil
}

func watchLoop(fsw *fsnotify.Watcher, l *sourceLoader, byPath map[string][]int, p *tea.Program, done chan struct{}) {
	timers := make(map[int]*time.Timer)
	reload := func(pathIndex int) {
		src, err := l.reload(pathIndex)
		if err != nil {
			log.ErrorErr(log.CatWatcher, "reload failed", err, "index", pathIndex)
			return
		}
		p.Send(tui.ReloadMsg{Index: l.sourceIndex(pathIndex), Source: src})
	}

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			for _, idx := range byPath[filepath.Dir(event.Name)] {
				if filepath.Base(l.paths[idx]) != filepath.Base(event.Name) {
					continue
				}
				idx := idx
				if t, ok := timers[idx]; ok {
					t.Stop()
				}
				timers[idx] = time.AfterFunc(watchDebounce, func() { reload(idx) })
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watcher error", err)

		case <-done:
			for _, t := range timers {
				t.Stop()
			}
			return
		}
	}
}
