// Package virtualizer coordinates scroll, resize, and visibility signals for
// a set of instance.Instance values that share one scroll container: many
// files sharing one coordinate space, tracked by a per-identity height
// estimate, an overscan band, and a cumulative-height scan for the visible
// range.
//
// There is no browser animation-frame clock or intersection observer here:
// internal/tui drives Frame from a tea.Tick frame-tick loop, and visibility is the
// arithmetic containment test this package computes directly rather than
// one a layout engine reports.
package virtualizer

import (
	"context"

	"github.com/google/uuid"

	"github.com/zjrosen/scrollcode/internal/instance"
	"github.com/zjrosen/scrollcode/internal/log"
	"github.com/zjrosen/scrollcode/internal/renderview"
)

// Window is the visible band of the shared scroll coordinate space.
type Window = instance.Window

// entry is one registered instance's bookkeeping: its position in the
// shared coordinate space and whether it is currently considered visible.
type entry struct {
	id       string
	inst     instance.Instance
	fileTop  int
	height   int
	visible  bool
}

// anchor records which row to keep fixed on screen across a render pass
// that changes instance heights.
type anchor struct {
	instanceID    string
	lineIndex     int
	offsetFromTop int
	valid         bool
}

// dirty tracks which DOM-derived quantities need recomputing before the
// next render pass, replacing the JS scheduler's single deduplicating
// microtask queue with one flag per signal source.
type dirty struct {
	scroll       bool
	height       bool
	scrollHeight bool
	visible      bool
}

func (d *dirty) any() bool {
	return d.scroll || d.height || d.scrollHeight || d.visible
}

func (d *dirty) clear() {
	*d = dirty{}
}

// Virtualizer owns an ordered list of registered instances and the shared
// scroll state they render against.
type Virtualizer struct {
	entries []*entry
	byID    map[string]*entry

	scrollTop    int
	height       int
	scrollHeight int
	overscan     int

	dirty           dirty
	instancesChanged map[string]bool

	lastWindow  Window

	renderOpts instance.RenderOpts
}

// New builds a Virtualizer with the given overscan (spec.md §4.5's
// overscan band, expanded on both sides of the window when the scroll
// range allows).
func New(overscan int) *Virtualizer {
	return &Virtualizer{
		byID:             make(map[string]*entry),
		overscan:         overscan,
		instancesChanged: make(map[string]bool),
	}
}

// SetRenderOpts sets the renderview.RenderOptions applied to every
// instance's Render call this frame onward.
func (v *Virtualizer) SetRenderOpts(opts renderview.RenderOptions) {
	v.renderOpts.Render = opts
}

// Register appends inst to the shared coordinate space, assigning it a
// stable uuid (the host<->instance map key the rest of internal/tui and
// cmd/scrollcode address it by). Registration order is render order.
func (v *Virtualizer) Register(inst instance.Instance) string {
	id := uuid.New().String()
	e := &entry{id: id, inst: inst, height: inst.ApproximateHeight()}
	v.entries = append(v.entries, e)
	v.byID[id] = e
	v.recomputeOffsets()
	v.dirty.scrollHeight = true
	return id
}

// Unregister removes an instance from the coordinate space and calls its
// CleanUp.
func (v *Virtualizer) Unregister(id string) {
	e, ok := v.byID[id]
	if !ok {
		return
	}
	e.inst.CleanUp()
	delete(v.byID, id)
	delete(v.instancesChanged, id)
	for i, entry := range v.entries {
		if entry.id == id {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			break
		}
	}
	v.recomputeOffsets()
	v.dirty.scrollHeight = true
}

// recomputeOffsets recomputes every entry's absolute fileTop from the
// registration order and each instance's current approximate height.
func (v *Virtualizer) recomputeOffsets() {
	top := 0
	for _, e := range v.entries {
		e.fileTop = top
		top += e.height
	}
	v.scrollHeight = top
}

// SetScrollTop marks the scroll position dirty (spec.md §4.5: "Scroll on
// the scroll container -> mark scrollDirty").
func (v *Virtualizer) SetScrollTop(top int) {
	v.scrollTop = top
	v.dirty.scroll = true
}

// SetViewportHeight marks the scroll container's own size dirty (spec.md
// §4.5: "Resize of the scroll container -> mark heightDirty").
func (v *Virtualizer) SetViewportHeight(h int) {
	v.height = h
	v.dirty.height = true
}

// InstanceChanged adds id to the per-frame must-render set, e.g. after a
// hunk expansion or view-style toggle on that instance (spec.md §4.5's
// `instanceChanged`).
func (v *Virtualizer) InstanceChanged(id string) {
	v.instancesChanged[id] = true
}

// ScrollTop returns the current scroll position.
func (v *Virtualizer) ScrollTop() int { return v.scrollTop }

// ScrollHeight returns the total height of all registered instances.
func (v *Virtualizer) ScrollHeight() int { return v.scrollHeight }

// clampScrollTop keeps scrollTop within [0, scrollHeight-height].
func (v *Virtualizer) clampScrollTop() {
	maxTop := v.scrollHeight - v.height
	if maxTop < 0 {
		maxTop = 0
	}
	if v.scrollTop < 0 {
		v.scrollTop = 0
	} else if v.scrollTop > maxTop {
		v.scrollTop = maxTop
	}
}

// computeWindow implements createWindowFromScrollPosition: expand by
// overscan on both sides when the scroll range permits, otherwise center
// the window over the visible content (spec.md §4.5).
func computeWindow(scrollTop, height, scrollHeight, overscan int) Window {
	top := scrollTop - overscan
	bottom := scrollTop + height + overscan

	if top < 0 || bottom > scrollHeight {
		// The full overscan band doesn't fit; center what's left instead of
		// clamping asymmetrically, so scrolling near an edge doesn't bias
		// the window toward the interior.
		total := min(scrollHeight, height+2*overscan)
		center := scrollTop + height/2
		top = center - total/2
		bottom = top + total
		if top < 0 {
			bottom -= top
			top = 0
		}
		if bottom > scrollHeight {
			top -= bottom - scrollHeight
			bottom = scrollHeight
		}
		if top < 0 {
			top = 0
		}
	}
	return Window{Top: top, Bottom: bottom}
}

// visibilityMargin is the 4x overscan intersection threshold spec.md §4.5
// specifies so instances entering view are already warmed before they're
// render-eligible.
func (v *Virtualizer) visibilityMargin() int {
	return 4 * v.overscan
}

// inVisibleSet reports whether e's height band intersects the window
// expanded by the visibility margin.
func (v *Virtualizer) inVisibleSet(e *entry, win Window) bool {
	margin := v.visibilityMargin()
	top := win.Top - margin
	bottom := win.Bottom + margin
	return e.fileTop+e.height >= top && e.fileTop <= bottom
}

// anchorEntry picks the visible instance whose top is closest to (but not
// above) the viewport top, the instance snapshotAnchor anchors within.
func (v *Virtualizer) anchorEntry() *entry {
	var best *entry
	for _, e := range v.entries {
		if !e.visible {
			continue
		}
		if e.fileTop > v.scrollTop {
			continue
		}
		if best == nil || e.fileTop > best.fileTop {
			best = e
		}
	}
	if best != nil {
		return best
	}
	// Nothing qualifies (scrolled above everything, or nothing visible
	// yet): fall back to the first visible instance.
	for _, e := range v.entries {
		if e.visible {
			return e
		}
	}
	return nil
}

// snapshotAnchor locates the anchored entry's first fully-visible row — by
// local line index within that instance, not just the instance's own
// fileTop — and records its absolute offset from the scroll container top,
// so a later render pass that shifts row heights anywhere above that row
// (in this instance or an earlier one) can be corrected for (spec.md
// §4.5's scroll anchor).
func (v *Virtualizer) snapshotAnchor() anchor {
	e := v.anchorEntry()
	if e == nil {
		return anchor{}
	}
	header := e.inst.HeaderHeight()
	localOffset := v.scrollTop - e.fileTop - header
	if localOffset < 0 {
		localOffset = 0
	}
	line := e.inst.LineAtOffset(localOffset)
	rowTop := e.fileTop + header + e.inst.OffsetOfLine(line)
	return anchor{
		instanceID:    e.id,
		lineIndex:     line,
		offsetFromTop: rowTop - v.scrollTop,
		valid:         true,
	}
}

// applyAnchorFix relocates the anchored row after a render pass and, if its
// new absolute offset from the scroll container top differs from the
// snapshot, adjusts scrollTop by exactly that delta so the anchor row stays
// pinned (spec.md §4.5: "if its offset has moved by delta, scroll by delta
// synchronously"). Recomputing via OffsetOfLine(a.lineIndex) rather than
// just the instance's fileTop means this also catches the anchored
// instance's own rows above the anchor line growing taller, not only an
// earlier instance shifting fileTop.
func (v *Virtualizer) applyAnchorFix(a anchor) {
	if !a.valid {
		return
	}
	e, ok := v.byID[a.instanceID]
	if !ok {
		return
	}
	rowTop := e.fileTop + e.inst.HeaderHeight() + e.inst.OffsetOfLine(a.lineIndex)
	newOffset := rowTop - v.scrollTop
	delta := newOffset - a.offsetFromTop
	if delta == 0 {
		return
	}
	v.scrollTop += delta
	v.clampScrollTop()
	v.dirty.scroll = true
	log.Debug(log.CatVirtualizer, "scroll anchor fix applied", "instance", a.instanceID, "delta", delta)
}

// FrameResult reports what happened during one Frame call: which instances
// rendered and whether heights changed. internal/tui's Update discards it and
// re-arms its tick at the configured rate regardless.
type FrameResult struct {
	Rendered      []string
	HeightsChanged bool
	NeedsAnotherFrame bool
}

// Frame runs spec.md §4.5's per-frame algorithm once: snapshot the scroll
// anchor, recompute dirty DOM-derived quantities, recompute the window,
// render every visible or explicitly-changed instance, apply the anchor
// fix, reconcile heights, and report whether another frame is warranted.
func (v *Virtualizer) Frame(ctx context.Context) FrameResult {
	a := v.snapshotAnchor()

	if v.dirty.scroll || v.dirty.height || v.dirty.scrollHeight {
		v.clampScrollTop()
	}

	win := computeWindow(v.scrollTop, v.height, v.scrollHeight, v.overscan)
	for _, e := range v.entries {
		vis := v.inVisibleSet(e, win)
		if vis != e.visible {
			v.dirty.visible = true
		}
		e.visible = vis
	}

	windowUnchanged := win == v.lastWindow
	if len(v.instancesChanged) == 0 && windowUnchanged && !v.dirty.any() {
		return FrameResult{}
	}
	v.lastWindow = win

	var updated []string
	heightsChanged := false

	for _, e := range v.entries {
		if !e.visible {
			continue
		}
		if v.renderEntry(ctx, e, win) {
			updated = append(updated, e.id)
		}
	}
	for id := range v.instancesChanged {
		e, ok := v.byID[id]
		if !ok || e.visible {
			continue
		}
		if v.renderEntry(ctx, e, win) {
			updated = append(updated, e.id)
		}
	}
	v.instancesChanged = make(map[string]bool)

	// reconcileHeights: unlike a real DOM, nothing here reflows on its own,
	// so fileTops must be recomputed now, before the anchor fix reads them —
	// otherwise the fix would compare against stale offsets.
	for _, id := range updated {
		e, ok := v.byID[id]
		if !ok {
			continue
		}
		newHeight := e.inst.ApproximateHeight()
		if newHeight != e.height {
			e.height = newHeight
			heightsChanged = true
		}
	}
	if heightsChanged {
		v.recomputeOffsets()
	}

	v.applyAnchorFix(a)

	v.dirty.clear()

	return FrameResult{
		Rendered:          updated,
		HeightsChanged:    heightsChanged,
		NeedsAnotherFrame: heightsChanged,
	}
}

func (v *Virtualizer) renderEntry(ctx context.Context, e *entry, win Window) bool {
	rng := e.inst.DeriveRenderRange(win, e.fileTop)
	opts := v.renderOpts
	opts.Range = rng
	changed, err := e.inst.Render(ctx, opts)
	if err != nil {
		log.ErrorErr(log.CatVirtualizer, "instance render failed", err, "id", e.id)
		return false
	}
	return changed
}

// Tree returns the instance id's last rendered row tree, or a zero Tree if
// it is not registered.
func (v *Virtualizer) Tree(id string) renderview.Tree {
	e, ok := v.byID[id]
	if !ok {
		return renderview.Tree{}
	}
	return e.inst.Tree()
}

// FileTop returns the instance's absolute offset in the shared coordinate
// space, and whether it is currently registered.
func (v *Virtualizer) FileTop(id string) (int, bool) {
	e, ok := v.byID[id]
	if !ok {
		return 0, false
	}
	return e.fileTop, true
}

// Visible reports whether id is currently in the visible set.
func (v *Virtualizer) Visible(id string) bool {
	e, ok := v.byID[id]
	return ok && e.visible
}

// Instance returns the registered instance.Instance for id, for callers
// (internal/tui) that need to call instance-specific methods like
// ExpandHunk that this package's own surface doesn't wrap.
func (v *Virtualizer) Instance(id string) (instance.Instance, bool) {
	e, ok := v.byID[id]
	if !ok {
		return nil, false
	}
	return e.inst, true
}

// InstanceIDs returns the registered instance ids in render order.
func (v *Virtualizer) InstanceIDs() []string {
	ids := make([]string, len(v.entries))
	for i, e := range v.entries {
		ids[i] = e.id
	}
	return ids
}

// Cleanup disconnects every registered instance and clears all scroll and
// dirty state. Idempotent: calling it twice leaves the same empty state as
// calling it once (spec.md §8's idempotent-cleanup property).
func (v *Virtualizer) Cleanup() {
	for _, e := range v.entries {
		e.inst.CleanUp()
	}
	v.entries = nil
	v.byID = make(map[string]*entry)
	v.instancesChanged = make(map[string]bool)
	v.scrollTop = 0
	v.scrollHeight = 0
	v.lastWindow = Window{}
	v.dirty.clear()
}
