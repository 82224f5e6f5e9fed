// internal/scan/gallery_test.go
package scan

import (
	"context"
	"testing"
	"time"

	"github.com/promptharvest/promptharvest/internal/browser/browsertest"
	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/dom"
	"github.com/promptharvest/promptharvest/internal/utils"
)

func newPageGallery(page *browsertest.FakePage) *PageGallery {
	cfg := &config.Config{GalleryURL: "https://gallery.example/videos"}
	cfg.Scan.ThumbnailSelector = ".gallery-item"
	nav := dom.NewNavigator(page, utils.NewTestLogger(), time.Second)
	return NewPageGallery(page, nav, cfg, utils.NewTestLogger())
}

func TestPageGallery_EnterAndCount(t *testing.T) {
	page := &browsertest.FakePage{
		Selectors: map[string][]*browsertest.FakeElement{
			".gallery-item": {{Text: "one"}, {Text: "two"}},
		},
	}
	g := newPageGallery(page)

	if err := g.Enter(context.Background()); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if len(page.Navigated) != 1 || page.Navigated[0] != "https://gallery.example/videos" {
		t.Errorf("Expected navigation to the gallery URL, got %v", page.Navigated)
	}

	count, err := g.ItemCount(context.Background())
	if err != nil {
		t.Fatalf("ItemCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 items, got %d", count)
	}
}

func TestPageGallery_OpenAndExit(t *testing.T) {
	page := &browsertest.FakePage{}
	g := newPageGallery(page)

	if err := g.OpenItem(context.Background(), 2); err != nil {
		t.Fatalf("OpenItem failed: %v", err)
	}
	if len(page.Clicked) != 1 || page.Clicked[0] != ".gallery-item:nth-of-type(3)" {
		t.Errorf("Expected one-based nth-of-type click, got %v", page.Clicked)
	}

	if err := g.ExitItem(context.Background()); err != nil {
		t.Fatalf("ExitItem failed: %v", err)
	}
	if page.Escapes != 1 {
		t.Errorf("Expected one escape press, got %d", page.Escapes)
	}
}

func TestPageGallery_ProbeItem(t *testing.T) {
	page := &browsertest.FakePage{
		Selectors: map[string][]*browsertest.FakeElement{
			".gallery-item": {
				{Text: "30 Aug 2025 05:11:29\nA serene mountain lake at dawn with rising mist\nDownload"},
			},
		},
	}
	g := newPageGallery(page)

	probe, err := g.ProbeItem(context.Background(), 0)
	if err != nil {
		t.Fatalf("ProbeItem failed: %v", err)
	}
	if probe.GenerationDate != "30 Aug 2025 05:11:29" {
		t.Errorf("Expected card date, got %q", probe.GenerationDate)
	}
	if probe.Prompt != "A serene mountain lake at dawn with rising mist" {
		t.Errorf("Expected longest non-date line as prompt, got %q", probe.Prompt)
	}
}

func TestPageGallery_ProbeItemOutOfRange(t *testing.T) {
	page := &browsertest.FakePage{}
	g := newPageGallery(page)

	if _, err := g.ProbeItem(context.Background(), 5); err == nil {
		t.Error("Expected an error for an out-of-range index")
	}
}
