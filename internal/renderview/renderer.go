package renderview

import (
	"context"
	"fmt"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/zjrosen/scrollcode/internal/diffiter"
	"github.com/zjrosen/scrollcode/internal/diffmodel"
	"github.com/zjrosen/scrollcode/internal/highlight"
	"github.com/zjrosen/scrollcode/internal/styles"
)

// RenderOptions parameterizes a Renderer's output: layout (Style, Width)
// plus the tokenizer limits scrollcode's config layer controls.
type RenderOptions struct {
	Style              diffiter.DiffStyle
	Width              int
	CollapsedThreshold int
	TokenizeLimit      int    // files larger than this are never highlighted
	DiffAlgorithm      string // cache-key tag only; diffmodel always uses the same algorithm today
}

// renderCache holds the last Tree this Renderer produced, so an unchanged
// call (same source identity, options, and theme) can be served without
// re-walking the diff or re-highlighting anything.
type renderCache struct {
	sourceKey   string
	opts        RenderOptions
	theme       string
	highlighted bool
	tree        Tree
}

func (c *renderCache) valid(sourceKey string, opts RenderOptions, theme string, highlighted bool) bool {
	return c != nil && c.sourceKey == sourceKey && c.opts == opts && c.theme == theme && c.highlighted == highlighted
}

// Renderer turns a diffmodel.FileContents or diffmodel.FileDiff into a Tree
// of styled Rows, dispatching syntax highlighting through a highlight.Pool so
// a large file never stalls the caller's render loop.
type Renderer struct {
	mu sync.Mutex

	pool  *highlight.Pool
	cache *highlight.Cache

	opts        RenderOptions
	theme       string
	annotations map[int]Annotation // keyed by LineRef.UnifiedIndex
	expanded    diffiter.ExpandedRegions

	last *renderCache

	pending          map[highlight.CacheKey]bool
	onHighlightReady func()
}

// NewRenderer returns a Renderer dispatching highlight work through pool and
// caching tokenized results in cache. Either may be nil: a nil pool runs
// highlighting inline (ModeSynchronous semantics), a nil cache disables
// result caching.
func NewRenderer(pool *highlight.Pool, cache *highlight.Cache) *Renderer {
	return &Renderer{
		pool:  pool,
		cache: cache,
		opts:  RenderOptions{Style: diffiter.StyleUnified, Width: 80},
		theme: "default",
	}
}

// SetOptions replaces the Renderer's RenderOptions, invalidating its cache
// when anything that affects output shape changes.
func (r *Renderer) SetOptions(opts RenderOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if opts != r.opts {
		r.last = nil
	}
	r.opts = opts
}

// SetLineAnnotations replaces the set of annotations keyed by unified line
// index. An empty/nil map clears all annotations.
func (r *Renderer) SetLineAnnotations(anns map[int]Annotation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotations = anns
	r.last = nil
}

// SetThemeType switches the chroma theme name used for highlighting.
func (r *Renderer) SetThemeType(theme string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if theme != r.theme {
		r.last = nil
	}
	r.theme = theme
}

// SetOnHighlightReady registers fn to be called after a background
// highlight job dispatched by highlightedRows completes. fn runs on the
// worker goroutine that finished the job, not the caller's render loop, so
// implementations must hand off to their own event loop rather than touch
// shared state directly.
func (r *Renderer) SetOnHighlightReady(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onHighlightReady = fn
}

// ExpandHunk reveals the whole collapsed region keyed by hunkIndex (the gap
// before that hunk) by recording FromStart/FromEnd of -1/-1. There is no
// direction argument and no partial expand: a region is either collapsed or
// fully revealed.
func (r *Renderer) ExpandHunk(hunkIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expanded = r.expanded.Expand(hunkIndex, diffiter.ExpandRange{FromStart: -1, FromEnd: -1})
	r.last = nil
}

// CleanUp drops the Renderer's cached Tree, releasing it for GC. It does not
// close the shared Pool/Cache — those are owned by whoever constructed this
// Renderer and may be shared across instances.
func (r *Renderer) CleanUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = nil
}

// Hydrate is a no-op for the terminal renderer: unlike a DOM renderer there
// is no client-side tree to attach event listeners to, so Hydrate exists
// only so callers written against the DOM-shaped contract compile unchanged.
func (r *Renderer) Hydrate(Tree) {}

// RenderFile renders a single file with no diff markup. Ready is false when
// file.Text is empty and file.Name is unset — the "nothing to render yet"
// state a freshly-constructed instance starts in.
func (r *Renderer) RenderFile(ctx context.Context, file diffmodel.FileContents) (Tree, bool) {
	if file.Name == "" && file.Text == "" {
		return Tree{}, false
	}

	r.mu.Lock()
	opts, theme := r.opts, r.theme
	if r.last.valid(file.CacheKey, opts, theme, true) {
		tree := r.last.tree
		r.mu.Unlock()
		return tree, true
	}
	r.mu.Unlock()

	rows, ready := r.highlightedRows(ctx, file)
	if !ready {
		return Tree{}, false
	}
	chromaStyle := highlight.StyleFor(theme)

	var gutter, content Column
	for i, tokens := range rows {
		lineNum := i + 1
		gutter.Rows = append(gutter.Rows, Row{Kind: RowLine, LineUnified: i, Content: []Cell{gutterCell(0, lineNum, styles.GutterStyle)}})
		content.Rows = append(content.Rows, Row{Kind: RowLine, LineUnified: i, Content: tokenCells(tokens, styles.ContextStyle, chromaStyle)})
	}

	tree := Tree{
		Header:     &Row{Kind: RowHeader, Content: []Cell{{Text: truncateToWidth(file.Name, opts.Width), Style: styles.FileHeaderStyle}}},
		Gutter:     gutter,
		Unified:    content,
		Separators: map[string]Row{},
	}

	r.mu.Lock()
	r.last = &renderCache{sourceKey: file.CacheKey, opts: opts, theme: theme, highlighted: true, tree: tree}
	r.mu.Unlock()
	return tree, true
}

// RenderDiff renders diff per the Renderer's current Style/options. Ready is
// false when diff is nil or has no old/new identity yet.
func (r *Renderer) RenderDiff(ctx context.Context, diff *diffmodel.FileDiff) (Tree, bool) {
	if diff == nil || (diff.Old.CacheKey == "" && diff.New.CacheKey == "") {
		return Tree{}, false
	}

	r.mu.Lock()
	opts, theme, anns, expanded := r.opts, r.theme, r.annotations, r.expanded
	sourceKey := diff.Old.CacheKey + "\x00" + diff.New.CacheKey
	if r.last.valid(sourceKey, opts, theme, true) {
		tree := r.last.tree
		r.mu.Unlock()
		return tree, true
	}
	r.mu.Unlock()

	oldRows, ready := r.highlightedRows(ctx, diff.Old)
	if !ready {
		return Tree{}, false
	}
	newRows, ready := r.highlightedRows(ctx, diff.New)
	if !ready {
		return Tree{}, false
	}

	b := &treeBuilder{diff: diff, oldRows: oldRows, newRows: newRows, anns: anns, style: opts.Style, expanded: expanded, chromaStyle: highlight.StyleFor(theme)}
	tree, err := b.build(opts)
	if err != nil {
		return Tree{}, false
	}

	r.mu.Lock()
	r.last = &renderCache{sourceKey: sourceKey, opts: opts, theme: theme, highlighted: true, tree: tree}
	r.mu.Unlock()
	return tree, true
}

// highlightedRows tokenizes file.Text, one []highlight.Token per source
// line, through the Renderer's Pool/Cache. Files beyond TokenizeLimit are
// returned as PlainTokens rather than rejected outright, so a huge file
// still renders something instead of a blank pane.
//
// When the pool is working (running on background goroutines) and no cached
// result exists yet, this returns PlainTokens immediately and dispatches
// the real highlight job in the background via dispatchHighlight — the
// caller is never blocked waiting on the highlighter. The ready bool is
// always true: "no highlighted tokens yet" is handled by serving plain text
// now, not by asking the caller to wait.
func (r *Renderer) highlightedRows(ctx context.Context, file diffmodel.FileContents) ([][]highlight.Token, bool) {
	if file.Text == "" {
		return nil, true
	}

	r.mu.Lock()
	theme, limit, algo, pool, cache := r.theme, r.opts.TokenizeLimit, r.opts.DiffAlgorithm, r.pool, r.cache
	r.mu.Unlock()

	if limit > 0 && len(file.Text) > limit {
		return highlight.PlainTokens(file.Text), true
	}

	key := highlight.CacheKey{FileCacheKey: file.CacheKey, Theme: theme, TokenizeLimit: limit, DiffAlgorithm: algo}
	if cache != nil {
		if res, ok := cache.Get(key); ok {
			return res.Rows, true
		}
	}

	if pool == nil {
		pool = highlight.NewPool(highlight.NewChromaHighlighter(), 0)
	}

	req := highlight.Request{Text: file.Text, Language: file.Language, Theme: theme}
	if pool.Mode() == highlight.ModeSynchronous {
		result := <-pool.Submit(ctx, req)
		if cache != nil {
			cache.Set(key, result)
		}
		return result.Rows, true
	}

	r.dispatchHighlight(ctx, pool, cache, key, req)
	return highlight.PlainTokens(file.Text), true
}

// dispatchHighlight submits req to pool on a background goroutine, skipping
// the submit if an identical request is already in flight. When the result
// arrives it is written into cache and the Renderer's own tree cache is
// invalidated so the next render call picks it up, then onHighlightReady
// fires (if set) so the caller can schedule that render.
func (r *Renderer) dispatchHighlight(ctx context.Context, pool *highlight.Pool, cache *highlight.Cache, key highlight.CacheKey, req highlight.Request) {
	r.mu.Lock()
	if r.pending == nil {
		r.pending = make(map[highlight.CacheKey]bool)
	}
	if r.pending[key] {
		r.mu.Unlock()
		return
	}
	r.pending[key] = true
	r.mu.Unlock()

	go func() {
		result := <-pool.Submit(ctx, req)

		r.mu.Lock()
		delete(r.pending, key)
		if cache != nil {
			cache.Set(key, result)
		}
		r.last = nil
		onReady := r.onHighlightReady
		r.mu.Unlock()

		if onReady != nil {
			onReady()
		}
	}()
}

// tokenCells renders tokens with each cell's own chroma-resolved syntax
// color, falling back to fallback for classes the style leaves unset.
func tokenCells(tokens []highlight.Token, fallback lipgloss.Style, chromaStyle *chroma.Style) []Cell {
	if len(tokens) == 0 {
		return nil
	}
	cells := make([]Cell, len(tokens))
	for i, t := range tokens {
		cells[i] = Cell{Text: t.Text, Style: cellStyle(chromaStyle, t.Class, fallback)}
	}
	return cells
}

// cellStyle overrides fallback's foreground with the color chroma's style
// assigns class, leaving fallback (and any Bold/Italic it carries) untouched
// for classes the style doesn't color.
func cellStyle(chromaStyle *chroma.Style, class chroma.TokenType, fallback lipgloss.Style) lipgloss.Style {
	color, ok := highlight.Color(chromaStyle, class)
	if !ok {
		return fallback
	}
	return fallback.Foreground(color)
}

// truncateToWidth clips s to width display columns using ansi.Truncate, so
// a long file path in the header never wraps the line. width <= 0 means
// "no limit," used before a real terminal width is known.
func truncateToWidth(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "...")
}

func gutterCell(oldNum, newNum int, style lipgloss.Style) Cell {
	var text string
	switch {
	case newNum > 0:
		text = fmt.Sprintf("%4d | ", newNum)
	case oldNum > 0:
		text = fmt.Sprintf("%4d | ", oldNum)
	default:
		text = "     | "
	}
	return Cell{Text: text, Style: style}
}
