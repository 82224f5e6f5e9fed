// internal/dom/element.go

// Package dom provides landmark-based DOM navigation over a page driver.
// The navigator is the shock absorber for racy DOM state: elements may
// detach between the query that found them and any later property access,
// so every operation degrades to an empty result or a partially filled
// snapshot instead of propagating the failure.
package dom

import (
	"math"
	"strings"

	"github.com/promptharvest/promptharvest/internal/browser"
)

// ElementInfo is an immutable snapshot of one element at inspection time.
// Fields that could not be read are left at their zero value; Bounds is
// nil when the element had no readable layout box.
type ElementInfo struct {
	Text       string            `json:"text_content"`
	Bounds     *browser.Rect     `json:"bounds,omitempty"`
	Visible    bool              `json:"visible"`
	TagName    string            `json:"tag_name"`
	Attributes map[string]string `json:"attributes,omitempty"`

	// Handle is the live reference the snapshot was taken from, kept for
	// structural navigation. It may be stale by the time it is used.
	Handle browser.ElementHandle `json:"-"`
}

// ContainsText reports whether the snapshot text contains the literal,
// ignoring surrounding whitespace.
func (e ElementInfo) ContainsText(literal string) bool {
	return strings.Contains(strings.TrimSpace(e.Text), literal)
}

// DistanceTo returns the Euclidean distance between the bounding-box
// centers of two snapshots, or +Inf when either box is unknown.
func (e ElementInfo) DistanceTo(other ElementInfo) float64 {
	if e.Bounds == nil || other.Bounds == nil {
		return math.Inf(1)
	}
	ax, ay := e.Bounds.Center()
	bx, by := other.Bounds.Center()
	return math.Hypot(ax-bx, ay-by)
}

// Area returns the on-screen area of the element, or 0 when unknown.
func (e ElementInfo) Area() float64 {
	if e.Bounds == nil {
		return 0
	}
	return e.Bounds.Width * e.Bounds.Height
}
