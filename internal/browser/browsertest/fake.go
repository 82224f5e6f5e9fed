// internal/browser/browsertest/fake.go

// Package browsertest provides in-memory implementations of the browser
// capability interfaces for tests. FakeElement can be configured to fail
// individual property accesses the way detached DOM nodes do.
package browsertest

import (
	"context"
	"errors"
	"strings"

	"github.com/promptharvest/promptharvest/internal/browser"
)

// ErrDetached is returned by every access on a detached fake element.
var ErrDetached = errors.New("node detached")

// FakeElement implements browser.ElementHandle from plain fields.
type FakeElement struct {
	Text     string
	HTML     string
	Bounds   *browser.Rect
	Visible  bool
	Tag      string
	Attrs    map[string]string
	ParentEl *FakeElement

	// Children maps a selector to its matching descendants.
	Children map[string][]*FakeElement

	// Errs makes the named method fail, e.g. Errs["BoundingBox"].
	Errs map[string]error

	// Detached makes every access fail with ErrDetached.
	Detached bool
}

func (f *FakeElement) fail(method string) error {
	if f.Detached {
		return ErrDetached
	}
	if f.Errs != nil {
		return f.Errs[method]
	}
	return nil
}

func (f *FakeElement) TextContent(ctx context.Context) (string, error) {
	if err := f.fail("TextContent"); err != nil {
		return "", err
	}
	return f.Text, nil
}

func (f *FakeElement) InnerHTML(ctx context.Context) (string, error) {
	if err := f.fail("InnerHTML"); err != nil {
		return "", err
	}
	return f.HTML, nil
}

func (f *FakeElement) BoundingBox(ctx context.Context) (*browser.Rect, error) {
	if err := f.fail("BoundingBox"); err != nil {
		return nil, err
	}
	if f.Bounds == nil {
		return nil, errors.New("element has no layout box")
	}
	return f.Bounds, nil
}

func (f *FakeElement) IsVisible(ctx context.Context) (bool, error) {
	if err := f.fail("IsVisible"); err != nil {
		return false, err
	}
	return f.Visible, nil
}

func (f *FakeElement) TagName(ctx context.Context) (string, error) {
	if err := f.fail("TagName"); err != nil {
		return "", err
	}
	return f.Tag, nil
}

func (f *FakeElement) Attributes(ctx context.Context) (map[string]string, error) {
	if err := f.fail("Attributes"); err != nil {
		return nil, err
	}
	return f.Attrs, nil
}

func (f *FakeElement) GetAttribute(ctx context.Context, name string) (string, bool, error) {
	if err := f.fail("GetAttribute"); err != nil {
		return "", false, err
	}
	value, ok := f.Attrs[name]
	return value, ok, nil
}

func (f *FakeElement) Parent(ctx context.Context) (browser.ElementHandle, error) {
	if err := f.fail("Parent"); err != nil {
		return nil, err
	}
	if f.ParentEl == nil {
		return nil, nil
	}
	return f.ParentEl, nil
}

func (f *FakeElement) QuerySelectorAll(ctx context.Context, selector string) ([]browser.ElementHandle, error) {
	if err := f.fail("QuerySelectorAll"); err != nil {
		return nil, err
	}
	matches := f.Children[selector]
	handles := make([]browser.ElementHandle, 0, len(matches))
	for _, m := range matches {
		handles = append(handles, m)
	}
	return handles, nil
}

// FakePage implements browser.PageDriver over a fixed element set.
type FakePage struct {
	// All is scanned by QueryByText on the Text field.
	All []*FakeElement

	// Selectors maps CSS selectors to their matches.
	Selectors map[string][]*FakeElement

	// PageHTML is returned by Markup.
	PageHTML string

	NavErr    error
	Navigated []string
	Clicked   []string
	Escapes   int
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	if p.NavErr != nil {
		return p.NavErr
	}
	p.Navigated = append(p.Navigated, url)
	return nil
}

func (p *FakePage) QueryByText(ctx context.Context, text string) ([]browser.ElementHandle, error) {
	var handles []browser.ElementHandle
	for _, el := range p.All {
		if strings.Contains(el.Text, text) {
			handles = append(handles, el)
		}
	}
	return handles, nil
}

func (p *FakePage) QuerySelectorAll(ctx context.Context, selector string) ([]browser.ElementHandle, error) {
	matches := p.Selectors[selector]
	handles := make([]browser.ElementHandle, 0, len(matches))
	for _, m := range matches {
		handles = append(handles, m)
	}
	return handles, nil
}

func (p *FakePage) Markup(ctx context.Context) (string, error) {
	return p.PageHTML, nil
}

func (p *FakePage) Click(ctx context.Context, selector string) error {
	p.Clicked = append(p.Clicked, selector)
	return nil
}

func (p *FakePage) PressEscape(ctx context.Context) error {
	p.Escapes++
	return nil
}

func (p *FakePage) Close() error { return nil }
