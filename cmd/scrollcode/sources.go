package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/zjrosen/scrollcode/internal/diffmodel"
	"github.com/zjrosen/scrollcode/internal/tui"
)

// sourceLoader turns the CLI's positional args/--diff/--patch flags into
// tui.Source values, and knows how to reload any one of them by index —
// the same logic runs once at startup and again, per changed path, from
// watchSources.
type sourceLoader struct {
	mode  loadMode
	paths []string // in file mode: one path per source; in diff mode: [old, new]; in patch mode: [patch]
}

type loadMode int

const (
	modeFiles loadMode = iota
	modeDiff
	modePatch
)

func newSourceLoader(args []string, diff bool, patch string) (*sourceLoader, error) {
	switch {
	case patch != "":
		if diff || len(args) > 0 {
			return nil, fmt.Errorf("--patch cannot be combined with --diff or positional files")
		}
		return &sourceLoader{mode: modePatch, paths: []string{patch}}, nil
	case diff:
		if len(args) != 2 {
			return nil, fmt.Errorf("--diff requires exactly two positional arguments (old new), got %d", len(args))
		}
		return &sourceLoader{mode: modeDiff, paths: args}, nil
	default:
		if len(args) == 0 {
			return nil, fmt.Errorf("no files given")
		}
		return &sourceLoader{mode: modeFiles, paths: args}, nil
	}
}

// load builds every source from scratch, in the same order as l.paths.
func (l *sourceLoader) load() ([]tui.Source, error) {
	switch l.mode {
	case modeDiff:
		src, err := l.loadDiff()
		if err != nil {
			return nil, err
		}
		return []tui.Source{src}, nil
	case modePatch:
		src, err := l.loadPatch()
		if err != nil {
			return nil, err
		}
		return []tui.Source{src}, nil
	default:
		sources := make([]tui.Source, 0, len(l.paths))
		for i := range l.paths {
			src, err := l.loadFile(i)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
		return sources, nil
	}
}

// sourceIndex maps a path index (as fsnotify reports it, 0/1 for a diff's
// old/new side or 0 for a patch file) to the tui.Source index it belongs
// to — file mode has one source per path, but diff and patch mode collapse
// every watched path onto the single source at index 0.
func (l *sourceLoader) sourceIndex(pathIndex int) int {
	if l.mode == modeFiles {
		return pathIndex
	}
	return 0
}

// reload rebuilds a single source by index, for --watch's fsnotify
// callback — it must return the same tui.Source shape load() would have
// produced at that index so ReloadSource swaps in a like-for-like
// instance.
func (l *sourceLoader) reload(index int) (tui.Source, error) {
	switch l.mode {
	case modeDiff:
		return l.loadDiff()
	case modePatch:
		return l.loadPatch()
	default:
		return l.loadFile(index)
	}
}

func (l *sourceLoader) loadFile(index int) (tui.Source, error) {
	path := l.paths[index]
	text, err := os.ReadFile(path)
	if err != nil {
		return tui.Source{}, fmt.Errorf("reading %s: %w", path, err)
	}
	fc := diffmodel.FileContents{
		Name:     path,
		Language: guessLanguage(path),
		Text:     string(text),
		CacheKey: path,
	}
	return tui.Source{File: &fc}, nil
}

func (l *sourceLoader) loadDiff() (tui.Source, error) {
	oldPath, newPath := l.paths[0], l.paths[1]
	oldText, err := os.ReadFile(oldPath)
	if err != nil {
		return tui.Source{}, fmt.Errorf("reading %s: %w", oldPath, err)
	}
	newText, err := os.ReadFile(newPath)
	if err != nil {
		return tui.Source{}, fmt.Errorf("reading %s: %w", newPath, err)
	}

	old := diffmodel.FileContents{Name: oldPath, Language: guessLanguage(oldPath), Text: string(oldText), CacheKey: oldPath}
	nw := diffmodel.FileContents{Name: newPath, Language: guessLanguage(newPath), Text: string(newText), CacheKey: newPath}

	diff, err := diffmodel.ParseDiffFromFiles(old, nw)
	if err != nil {
		return tui.Source{}, fmt.Errorf("diffing %s and %s: %w", oldPath, newPath, err)
	}
	return tui.Source{Diff: diff}, nil
}

func (l *sourceLoader) loadPatch() (tui.Source, error) {
	path := l.paths[0]
	text, err := os.ReadFile(path)
	if err != nil {
		return tui.Source{}, fmt.Errorf("reading %s: %w", path, err)
	}
	diff, err := diffmodel.ParseUnified(
		diffmodel.FileContents{Name: path + " (old)"},
		diffmodel.FileContents{Name: path + " (new)"},
		string(text),
	)
	if err != nil {
		return tui.Source{}, fmt.Errorf("parsing patch %s: %w", path, err)
	}
	diff.IsPartial = true // a hand-authored patch carries no trailing-context guarantee
	return tui.Source{Diff: diff}, nil
}

// guessLanguage resolves filename to a chroma lexer name, the same
// extension/filename-glob match the example pack's own file viewer uses
// (lexers.Match) rather than a hand-rolled extension table.
func guessLanguage(filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return ""
	}
	config := lexer.Config()
	if config == nil || len(config.Name) == 0 {
		return ""
	}
	return config.Name
}
