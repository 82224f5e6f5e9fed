// internal/scan/gallery.go

// Package scan drives the gallery walk: open each item, extract and
// assess its metadata, check it against the download log, and recover
// past duplicate runs in skip mode.
package scan

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/promptharvest/promptharvest/internal/browser"
	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/dom"
	"github.com/promptharvest/promptharvest/internal/utils"
)

// Probe is cheap partial metadata read from an item's container card,
// without opening the item's detailed view.
type Probe struct {
	GenerationDate string
	Prompt         string
}

// Gallery abstracts item-level navigation of the web gallery.
type Gallery interface {
	// Enter navigates to the gallery page.
	Enter(ctx context.Context) error

	// ItemCount returns how many item containers are currently present.
	ItemCount(ctx context.Context) (int, error)

	// OpenItem opens the detailed view of the item at index.
	OpenItem(ctx context.Context, index int) error

	// ExitItem returns from the detailed view to the container list.
	ExitItem(ctx context.Context) error

	// ProbeItem reads partial metadata from the item's container card.
	ProbeItem(ctx context.Context, index int) (Probe, error)
}

// probeDatePattern recognizes the gallery's visible timestamp format on
// container cards.
var probeDatePattern = regexp.MustCompile(`\b\d{1,2} (Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{4} \d{2}:\d{2}(?::\d{2})?\b`)

// PageGallery implements Gallery over a browser page driver.
type PageGallery struct {
	page     browser.PageDriver
	nav      *dom.Navigator
	url      string
	selector string
	logger   utils.Logger
}

// NewPageGallery builds a gallery driver for the configured page.
func NewPageGallery(page browser.PageDriver, nav *dom.Navigator, cfg *config.Config, logger utils.Logger) *PageGallery {
	return &PageGallery{
		page:     page,
		nav:      nav,
		url:      cfg.GalleryURL,
		selector: cfg.Scan.ThumbnailSelector,
		logger:   logger,
	}
}

// Enter implements Gallery.
func (g *PageGallery) Enter(ctx context.Context) error {
	if err := g.page.Navigate(ctx, g.url); err != nil {
		return utils.WrapError(utils.ErrCodeBrowserFailed, "failed to open gallery", err).
			WithContext("url", g.url)
	}
	return nil
}

// ItemCount implements Gallery.
func (g *PageGallery) ItemCount(ctx context.Context) (int, error) {
	handles, err := g.page.QuerySelectorAll(ctx, g.selector)
	if err != nil {
		return 0, utils.WrapError(utils.ErrCodeBrowserFailed, "failed to count gallery items", err)
	}
	return len(handles), nil
}

// OpenItem implements Gallery.
func (g *PageGallery) OpenItem(ctx context.Context, index int) error {
	selector := fmt.Sprintf("%s:nth-of-type(%d)", g.selector, index+1)
	if err := g.page.Click(ctx, selector); err != nil {
		return utils.WrapError(utils.ErrCodeBrowserFailed, "failed to open gallery item", err).
			WithContext("index", index)
	}
	return nil
}

// ExitItem implements Gallery. Escape closes the gallery's detail overlay.
func (g *PageGallery) ExitItem(ctx context.Context) error {
	return g.page.PressEscape(ctx)
}

// ProbeItem implements Gallery. It reads the container card's text and
// pulls out a date-shaped token plus the longest remaining line as the
// prompt preview, skipping the full strategy chain.
func (g *PageGallery) ProbeItem(ctx context.Context, index int) (Probe, error) {
	infos := g.nav.QuerySnapshots(ctx, g.selector)
	if index >= len(infos) {
		return Probe{}, utils.NewError(utils.ErrCodeDOMTimeout, "gallery item out of range").
			WithContext("index", index).
			WithContext("present", len(infos))
	}

	text := infos[index].Text
	probe := Probe{GenerationDate: probeDatePattern.FindString(text)}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if probeDatePattern.MatchString(line) {
			continue
		}
		if len(line) > len(probe.Prompt) {
			probe.Prompt = line
		}
	}
	return probe, nil
}
