// internal/dom/navigator.go
package dom

import (
	"context"
	"sort"
	"time"

	"github.com/promptharvest/promptharvest/internal/browser"
	"github.com/promptharvest/promptharvest/internal/utils"
)

// Navigator wraps a page driver with fault-tolerant inspection operations.
type Navigator struct {
	page    browser.PageDriver
	logger  utils.Logger
	timeout time.Duration
}

// NewNavigator creates a navigator. Every driver call is bounded by the
// given per-call timeout; zero selects a 5s default.
func NewNavigator(page browser.PageDriver, logger utils.Logger, timeout time.Duration) *Navigator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Navigator{
		page:    page,
		logger:  logger,
		timeout: timeout,
	}
}

// Page exposes the underlying driver for page-level operations such as
// capturing markup for selector-based fallbacks.
func (n *Navigator) Page() browser.PageDriver {
	return n.page
}

// bounded derives a per-call context from the caller's.
func (n *Navigator) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, n.timeout)
}

// FindElementsByLandmark returns snapshots of all elements whose rendered
// text contains the literal. A page with no matches yields an empty slice,
// not an error; elements that fail inspection are skipped.
func (n *Navigator) FindElementsByLandmark(ctx context.Context, text string) []ElementInfo {
	callCtx, cancel := n.bounded(ctx)
	defer cancel()

	handles, err := n.page.QueryByText(callCtx, text)
	if err != nil {
		n.logger.WithField("landmark", text).Debugf("landmark query failed: %v", err)
		return nil
	}

	infos := make([]ElementInfo, 0, len(handles))
	for _, handle := range handles {
		info := n.Snapshot(ctx, handle)
		// The driver-level text search may match attribute values too;
		// keep only elements whose visible text carries the landmark.
		if !info.ContainsText(text) {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Snapshot captures a point-in-time view of one element. A failure on any
// individual property degrades that field and never aborts the snapshot.
func (n *Navigator) Snapshot(ctx context.Context, handle browser.ElementHandle) ElementInfo {
	info := ElementInfo{Handle: handle}
	if handle == nil {
		return info
	}

	callCtx, cancel := n.bounded(ctx)
	defer cancel()

	if text, err := handle.TextContent(callCtx); err == nil {
		info.Text = text
	} else {
		n.logger.Debugf("snapshot: text content unavailable: %v", err)
	}

	if bounds, err := handle.BoundingBox(callCtx); err == nil {
		info.Bounds = bounds
	}

	if visible, err := handle.IsVisible(callCtx); err == nil {
		info.Visible = visible
	}

	if tag, err := handle.TagName(callCtx); err == nil {
		info.TagName = tag
	}

	if attrs, err := handle.Attributes(callCtx); err == nil {
		info.Attributes = attrs
	}

	return info
}

// QuerySnapshots returns snapshots of all elements matching a CSS selector
// at page level, in document order. Failures yield an empty slice.
func (n *Navigator) QuerySnapshots(ctx context.Context, selector string) []ElementInfo {
	callCtx, cancel := n.bounded(ctx)
	defer cancel()

	handles, err := n.page.QuerySelectorAll(callCtx, selector)
	if err != nil {
		n.logger.Debugf("selector query %q failed: %v", selector, err)
		return nil
	}

	infos := make([]ElementInfo, 0, len(handles))
	for _, handle := range handles {
		infos = append(infos, n.Snapshot(ctx, handle))
	}
	return infos
}

// Parent returns a snapshot of the element's parent, or ok=false when the
// element is detached or has no parent.
func (n *Navigator) Parent(ctx context.Context, info ElementInfo) (ElementInfo, bool) {
	if info.Handle == nil {
		return ElementInfo{}, false
	}

	callCtx, cancel := n.bounded(ctx)
	defer cancel()

	parent, err := info.Handle.Parent(callCtx)
	if err != nil || parent == nil {
		return ElementInfo{}, false
	}
	return n.Snapshot(ctx, parent), true
}

// ChildSnapshots returns snapshots of the element's descendants matching
// the selector, in document order. Failures yield an empty slice.
func (n *Navigator) ChildSnapshots(ctx context.Context, info ElementInfo, selector string) []ElementInfo {
	if info.Handle == nil {
		return nil
	}

	callCtx, cancel := n.bounded(ctx)
	defer cancel()

	handles, err := info.Handle.QuerySelectorAll(callCtx, selector)
	if err != nil {
		n.logger.Debugf("child query %q failed: %v", selector, err)
		return nil
	}

	infos := make([]ElementInfo, 0, len(handles))
	for _, handle := range handles {
		infos = append(infos, n.Snapshot(ctx, handle))
	}
	return infos
}

// FindNearest returns the candidates within maxDistance of the anchor,
// closest first. Candidates without a readable bounding box are excluded.
// Used when structural parent/sibling navigation is unavailable.
func (n *Navigator) FindNearest(anchor ElementInfo, candidates []ElementInfo, maxDistance float64) []ElementInfo {
	type scored struct {
		info ElementInfo
		dist float64
	}

	var within []scored
	for _, cand := range candidates {
		dist := anchor.DistanceTo(cand)
		if dist <= maxDistance {
			within = append(within, scored{info: cand, dist: dist})
		}
	}

	sort.SliceStable(within, func(i, j int) bool {
		return within[i].dist < within[j].dist
	})

	result := make([]ElementInfo, 0, len(within))
	for _, s := range within {
		result = append(result, s.info)
	}
	return result
}
