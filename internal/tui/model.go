// Package tui wires the virtualizer, windowed instances, file renderer, and
// reconciler into a running Bubble Tea program — the host shell around
// scrollcode's four core subsystems, not a subsystem itself: one tea.Model
// owning the whole screen, a frame-tick loop, and a keybinding table.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/scrollcode/internal/config"
	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/diffmodel"
	"github.com/zjrosen/scrollcode/internal/highlight"
	"github.com/zjrosen/scrollcode/internal/instance"
	"github.com/zjrosen/scrollcode/internal/log"
	"github.com/zjrosen/scrollcode/internal/renderview"
	"github.com/zjrosen/scrollcode/internal/styles"
	"github.com/zjrosen/scrollcode/internal/telemetry"
	"github.com/zjrosen/scrollcode/internal/virtualizer"
)

// Source is one file or diff to register as an instance, the demo-shell
// input scrollcode's cobra command builds from CLI args.
type Source struct {
	// File is set for a plain-file source; Diff is set for a diff source.
	// Exactly one should be non-nil.
	File *diffmodel.FileContents
	Diff *diffmodel.FileDiff
}

type frameTickMsg time.Time

// Model is scrollcode's top-level Bubble Tea program: the shared scroll
// container (spec.md §2's "Scroll container") hosting every registered
// instance.
type Model struct {
	cfg   config.Config
	virt  *virtualizer.Virtualizer
	rndr  *renderview.Renderer
	pool  *highlight.Pool
	cache *highlight.Cache
	trace *telemetry.Provider
	keys  keyMap

	cfgPath string

	ids   []string
	style diffiter.DiffStyle

	width  int
	height int

	program *tea.Program

	err      error
	quitting bool
}

// New builds a Model from sources, wiring a highlight pool sized per cfg and
// an unbounded highlight cache, and registering one instance.Instance per source with the
// virtualizer. cfgPath is the file the 't' keybinding persists a cycled
// theme.type to; an empty cfgPath disables persistence (CycleTheme still
// changes the running theme, it just doesn't save it).
func New(cfg config.Config, sources []Source, trace *telemetry.Provider, cfgPath string) (*Model, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("tui: invalid config: %w", err)
	}
	if err := styles.ApplyTheme(styles.ThemeConfig(cfg.Theme)); err != nil {
		return nil, fmt.Errorf("tui: applying theme: %w", err)
	}

	highlighter := highlight.NewChromaHighlighter()
	pool := highlight.NewPool(highlighter, cfg.HighlightWorkers)
	cache := highlight.NewCache()
	renderer := renderview.NewRenderer(pool, cache)
	if cfg.Theme.Syntax != "" {
		renderer.SetThemeType(cfg.Theme.Syntax)
	}

	m := &Model{
		cfg:     cfg,
		virt:    virtualizer.New(cfg.Overscan),
		rndr:    renderer,
		pool:    pool,
		cache:   cache,
		trace:   trace,
		keys:    defaultKeyMap(),
		style:   diffiter.StyleUnified,
		cfgPath: cfgPath,
	}

	renderer.SetOnHighlightReady(func() {
		if m.program != nil {
			m.program.Send(highlightReadyMsg{})
		}
	})

	for _, src := range sources {
		inst := m.buildInstance(src)
		if inst == nil {
			continue
		}
		id := m.virt.Register(inst)
		m.ids = append(m.ids, id)
	}

	return m, nil
}

// buildInstance constructs the instance.Instance variant matching src,
// using the metrics derived from m.cfg (shared by New and ReloadSource so
// a --watch re-register builds the same kind of instance the first render
// did).
func (m *Model) buildInstance(src Source) instance.Instance {
	metrics := instance.DefaultMetrics()
	metrics.HunkLineCount = m.cfg.BufferLines

	switch {
	case src.File != nil:
		return instance.NewFileInstance(*src.File, m.rndr, metrics)
	case src.Diff != nil:
		return instance.NewDiffInstance(src.Diff, m.style, m.rndr, metrics)
	default:
		return nil
	}
}

// SetProgram gives the Model a handle to the *tea.Program it's running
// under, so a background highlight completion (internal/renderview's
// onHighlightReady, firing from a worker goroutine) can deliver a message
// through the program's own event loop instead of touching virt/rndr state
// directly from another goroutine. Called by cmd/scrollcode right after
// tea.NewProgram, before the program starts running.
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
}

// highlightReadyMsg is delivered through the running program whenever a
// background highlight job dispatched by the renderer completes, so the
// registered instances can be invalidated and re-rendered with the real
// tokens on the next frame tick.
type highlightReadyMsg struct{}

// ReloadMsg asks the Model to re-parse and re-register the source at
// Index — the watch-mode path spec.md §5 describes as "an in-flight
// highlighter request tied to a file that has been replaced is discarded,"
// generalized here to the whole instance: the old one is torn down via
// Unregister (which calls CleanUp) and a fresh one takes its slot.
type ReloadMsg struct {
	Index  int
	Source Source
}

// ReloadSource re-parses and re-registers the instance at index, used by
// cmd/scrollcode's --watch mode when fsnotify reports a change to a
// watched file. The new instance takes the old one's position in m.ids so
// render order is preserved; InstanceChanged marks it for a render on the
// next frame tick.
func (m *Model) ReloadSource(index int, src Source) {
	if index < 0 || index >= len(m.ids) {
		return
	}
	inst := m.buildInstance(src)
	if inst == nil {
		return
	}
	m.virt.Unregister(m.ids[index])
	id := m.virt.Register(inst)
	m.ids[index] = id
	m.virt.InstanceChanged(id)
	log.Debug(log.CatWatcher, "reloaded instance", "index", index, "instance", id)
}

// Init arms the frame-tick loop that stands in for the host's
// animation-frame clock (spec.md §5).
func (m *Model) Init() tea.Cmd {
	return tickCmd(m.tickInterval())
}

func (m *Model) tickInterval() time.Duration {
	fps := m.cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return frameTickMsg(t) })
}

// Update handles resize, key, and frame-tick messages — the three signal
// sources spec.md §4.5 lists (scroll/resize come from key input here, since
// a terminal has no native scroll-wheel event Bubble Tea surfaces by
// default; intersection is recomputed every frame regardless).
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.virt.SetViewportHeight(msg.Height)
		m.rndr.SetOptions(renderview.RenderOptions{
			Style:              m.style,
			Width:              m.width,
			CollapsedThreshold: m.cfg.BufferLines,
			TokenizeLimit:      m.cfg.TokenizeLimit,
		})
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReloadMsg:
		m.ReloadSource(msg.Index, msg.Source)
		return m, nil

	case highlightReadyMsg:
		for _, id := range m.ids {
			if inst, ok := m.virt.Instance(id); ok {
				inst.Invalidate()
			}
			m.virt.InstanceChanged(id)
		}
		return m, nil

	case frameTickMsg:
		ctx, span := m.trace.StartFrame(context.Background(), len(m.ids))
		m.virt.Frame(ctx)
		span.End()
		return m, tickCmd(m.tickInterval())
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.virt.SetScrollTop(m.virt.ScrollTop() - 1)

	case key.Matches(msg, m.keys.Down):
		m.virt.SetScrollTop(m.virt.ScrollTop() + 1)

	case key.Matches(msg, m.keys.PageUp):
		m.virt.SetScrollTop(m.virt.ScrollTop() - m.height)

	case key.Matches(msg, m.keys.PageDown):
		m.virt.SetScrollTop(m.virt.ScrollTop() + m.height)

	case key.Matches(msg, m.keys.Top):
		m.virt.SetScrollTop(0)

	case key.Matches(msg, m.keys.Bottom):
		m.virt.SetScrollTop(m.virt.ScrollHeight())

	case key.Matches(msg, m.keys.ToggleView):
		m.toggleStyle()

	case key.Matches(msg, m.keys.Expand):
		m.expandTopVisible()

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	}
	return m, nil
}

// cycleTheme advances theme.type through system -> light -> dark -> system,
// re-applies it immediately, and persists the choice to cfgPath (if set) so
// it survives the next run — the same comment-preserving single-key update
// config.SaveThemeType performs.
func (m *Model) cycleTheme() {
	next := map[string]string{"system": "light", "light": "dark", "dark": "system", "": "light"}
	m.cfg.Theme.Type = next[m.cfg.Theme.Type]

	if err := styles.ApplyTheme(styles.ThemeConfig(m.cfg.Theme)); err != nil {
		log.Error(log.CatTUI, "applying cycled theme", "error", err)
		return
	}
	for _, id := range m.ids {
		m.virt.InstanceChanged(id)
	}

	if m.cfgPath == "" {
		return
	}
	if err := config.SaveThemeType(m.cfgPath, m.cfg.Theme.Type); err != nil {
		log.Error(log.CatConfig, "saving theme.type", "error", err)
	}
}

func (m *Model) toggleStyle() {
	if m.style == diffiter.StyleUnified {
		m.SetStyle(diffiter.StyleSplit)
	} else {
		m.SetStyle(diffiter.StyleUnified)
	}
}

// SetStyle switches between unified and split diff presentation, used by
// the 'v' keybinding and by cmd/scrollcode's --style flag at startup.
func (m *Model) SetStyle(style diffiter.DiffStyle) {
	m.style = style
	m.rndr.SetOptions(renderview.RenderOptions{
		Style:              m.style,
		Width:              m.width,
		CollapsedThreshold: m.cfg.BufferLines,
		TokenizeLimit:      m.cfg.TokenizeLimit,
	})
	for _, id := range m.ids {
		m.virt.InstanceChanged(id)
	}
}

// expandTopVisible expands the collapsed region before hunk 0 (the gap at
// the top of the file) in the first instance of the visible set, the
// keyboard-driven stand-in for clicking a hunk separator. Regions before
// later hunks are not reachable from this binding.
func (m *Model) expandTopVisible() {
	for _, id := range m.ids {
		if !m.virt.Visible(id) {
			continue
		}
		inst, ok := m.virt.Instance(id)
		if !ok {
			continue
		}
		inst.ExpandHunk(0)
		m.virt.InstanceChanged(id)
		log.Debug(log.CatTUI, "expanded hunk", "instance", id)
		return
	}
}

// View renders every currently visible instance's last tree, topmost first,
// cropped to the terminal height. Rendering here is approximate by design
// (spec.md's heights are estimates) rather than a pixel-exact viewport.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	for _, id := range m.ids {
		if !m.virt.Visible(id) {
			continue
		}
		tree := m.virt.Tree(id)
		if tree.Header != nil {
			b.WriteString(joinCells(tree.Header.Content))
			b.WriteString("\n")
		}
		for _, line := range flattenTree(tree, m.style, m.width) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	budget := m.height - 1 // reserve the status line
	if budget < 0 {
		budget = 0
	}
	if len(lines) > budget {
		lines = lines[:budget]
	}

	status := m.statusLine()
	return strings.Join(lines, "\n") + "\n" + status
}

func (m *Model) statusLine() string {
	mode := "unified"
	if m.style == diffiter.StyleSplit {
		mode = "split"
	}
	return lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("[%s/%s] scroll %d/%d — q quit, v toggle view, t cycle theme, enter expand", mode, m.cfg.Theme.Type, m.virt.ScrollTop(), m.virt.ScrollHeight()),
	)
}

// Close releases the instance's background resources: the virtualizer's
// registered instances and the highlight pool's worker goroutines.
func (m *Model) Close() error {
	m.virt.Cleanup()
	m.pool.Close()
	return nil
}
