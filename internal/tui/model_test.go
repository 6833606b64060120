package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/scrollcode/internal/config"
	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/diffmodel"
)

// TestProgram_QuitsOnQ drives a real Bubble Tea program end to end with
// teatest.NewTestModel, sending a resize then the quit binding, and checks
// the program actually exits and the model observed the key.
func TestProgram_QuitsOnQ(t *testing.T) {
	file := diffmodel.FileContents{Name: "f.go", Language: "go", Text: "package main\n\nfunc main() {}\n", CacheKey: "f.go"}
	m, err := New(config.Defaults(), []Source{{File: &file}}, nil, "")
	require.NoError(t, err)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))
	tm.Send(tea.WindowSizeMsg{Width: 80, Height: 24})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)
	require.True(t, final.quitting)
}

// TestProgram_ToggleViewKeySwitchesStyle drives the 'v' binding through a
// running program and confirms the model's diff style actually flipped,
// exercising Update's tea.KeyMsg dispatch rather than calling toggleStyle
// directly.
func TestProgram_ToggleViewKeySwitchesStyle(t *testing.T) {
	old := diffmodel.FileContents{Text: "one\ntwo\nthree\n"}
	newFile := diffmodel.FileContents{Text: "one\nTWO\nthree\n"}
	diff, err := diffmodel.ParseDiffFromFiles(old, newFile)
	require.NoError(t, err)

	m, err := New(config.Defaults(), []Source{{Diff: diff}}, nil, "")
	require.NoError(t, err)
	require.Equal(t, diffiter.StyleUnified, m.style)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))
	tm.Send(tea.WindowSizeMsg{Width: 80, Height: 24})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)
	require.Equal(t, diffiter.StyleSplit, final.style)
}

// TestProgram_CycleThemeKeyPersists drives the 't' binding through a running
// program and confirms both sides of cycleTheme's effect: the in-memory
// theme type advances, and the change lands in the config file the model
// was built with.
func TestProgram_CycleThemeKeyPersists(t *testing.T) {
	file := diffmodel.FileContents{Name: "f.go", Language: "go", Text: "package main\n", CacheKey: "f.go"}
	cfg := config.Defaults()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(config.DefaultConfigTemplate()), 0o600))

	m, err := New(cfg, []Source{{File: &file}}, nil, cfgPath)
	require.NoError(t, err)
	require.Equal(t, "system", m.cfg.Theme.Type)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))
	tm.Send(tea.WindowSizeMsg{Width: 80, Height: 24})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))

	final, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)
	require.Equal(t, "light", final.cfg.Theme.Type)

	saved, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(saved), "type: light"))
}
