// internal/browser/types.go

// Package browser wraps the chromedp driver behind small capability
// interfaces so extraction strategies never touch page primitives directly
// and tests can substitute a fake page.
package browser

import (
	"context"
)

// Rect is an element's layout box in viewport coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the geometric center of the box.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// ElementHandle is a live reference to one DOM element. Every call may fail
// at any time: the element can detach between the query that produced the
// handle and the property access. Callers must treat failures as soft.
type ElementHandle interface {
	// TextContent returns the element's visible text.
	TextContent(ctx context.Context) (string, error)

	// InnerHTML returns the element's markup, including text that CSS
	// truncation hides from innerText.
	InnerHTML(ctx context.Context) (string, error)

	// BoundingBox returns the layout box, or an error for detached or
	// unrendered elements.
	BoundingBox(ctx context.Context) (*Rect, error)

	// IsVisible reports whether the element is rendered and displayed.
	IsVisible(ctx context.Context) (bool, error)

	// TagName returns the lowercase tag name.
	TagName(ctx context.Context) (string, error)

	// Attributes returns all attributes of the element.
	Attributes(ctx context.Context) (map[string]string, error)

	// GetAttribute returns one attribute value and whether it is present.
	GetAttribute(ctx context.Context, name string) (string, bool, error)

	// Parent returns the parent element, or nil when the element is the
	// document root or detached.
	Parent(ctx context.Context) (ElementHandle, error)

	// QuerySelectorAll returns matching descendants of this element.
	QuerySelectorAll(ctx context.Context, selector string) ([]ElementHandle, error)
}

// PageDriver is the page-level capability consumed by the DOM navigator
// and the scan loop.
type PageDriver interface {
	// Navigate loads a URL and waits for the page body.
	Navigate(ctx context.Context, url string) error

	// QueryByText returns elements whose rendered text contains the literal.
	QueryByText(ctx context.Context, text string) ([]ElementHandle, error)

	// QuerySelectorAll returns elements matching a CSS selector.
	QuerySelectorAll(ctx context.Context, selector string) ([]ElementHandle, error)

	// Markup returns the full page HTML for selector-based fallbacks.
	Markup(ctx context.Context) (string, error)

	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error

	// PressEscape sends an Escape key event to the page.
	PressEscape(ctx context.Context) error

	// Close releases the underlying page.
	Close() error
}

// Stats tracks driver-level health counters.
type Stats struct {
	PagesLoaded      int `json:"pages_loaded"`
	Errors           int `json:"errors"`
	TimeoutsOccurred int `json:"timeouts_occurred"`
}
