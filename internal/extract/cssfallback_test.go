// internal/extract/cssfallback_test.go
package extract

import (
	"context"
	"testing"

	"github.com/promptharvest/promptharvest/internal/browser/browsertest"
	"github.com/promptharvest/promptharvest/internal/utils"
)

func TestCSSFallback_ConfidenceCapped(t *testing.T) {
	cfg := testExtractionConfig()
	cfg.LegacyDateSelectors = []string{".creation-time"}

	page := &browsertest.FakePage{
		PageHTML: `<html><body><div class="creation-time">30 Aug 2025 05:11:29</div></body></html>`,
	}
	s := NewCSSFallbackStrategy(cfg, utils.NewTestLogger())

	res := s.Extract(context.Background(), newExtractContext(page), FieldGenerationDate)
	if !res.Success {
		t.Fatalf("Expected success, got %+v", res)
	}
	if res.Value != "30 Aug 2025 05:11:29" {
		t.Errorf("Unexpected value %q", res.Value)
	}
	if res.Confidence > cssFallbackMaxConfidence {
		t.Errorf("Legacy selector confidence must be capped at %v, got %v", cssFallbackMaxConfidence, res.Confidence)
	}
	if res.Candidates[0].Source != "css:.creation-time" {
		t.Errorf("Expected selector recorded as source, got %q", res.Candidates[0].Source)
	}
}

func TestCSSFallback_InvalidDateDemoted(t *testing.T) {
	cfg := testExtractionConfig()
	cfg.LegacyDateSelectors = []string{".junk", ".creation-time"}

	page := &browsertest.FakePage{
		PageHTML: `<html><body>
			<div class="junk">Download</div>
			<div class="creation-time">30 Aug 2025 05:11:29</div>
		</body></html>`,
	}
	s := NewCSSFallbackStrategy(cfg, utils.NewTestLogger())

	res := s.Extract(context.Background(), newExtractContext(page), FieldGenerationDate)
	if res.Value != "30 Aug 2025 05:11:29" {
		t.Errorf("Date-shaped candidate should outrank non-dates, got %q", res.Value)
	}
}

func TestCSSFallback_NoSelectorsConfigured(t *testing.T) {
	page := &browsertest.FakePage{PageHTML: `<html><body></body></html>`}
	s := NewCSSFallbackStrategy(testExtractionConfig(), utils.NewTestLogger())

	res := s.Extract(context.Background(), newExtractContext(page), FieldPrompt)
	if res.Success {
		t.Error("No configured selectors must yield a soft failure")
	}
}

func TestCSSFallback_Prompt(t *testing.T) {
	cfg := testExtractionConfig()
	cfg.LegacyPromptSelectors = []string{".prompt-text"}

	page := &browsertest.FakePage{
		PageHTML: `<html><body><p class="prompt-text">A serene mountain lake at dawn</p></body></html>`,
	}
	s := NewCSSFallbackStrategy(cfg, utils.NewTestLogger())

	res := s.Extract(context.Background(), newExtractContext(page), FieldPrompt)
	if !res.Success || res.Value != "A serene mountain lake at dawn" {
		t.Errorf("Unexpected prompt result %+v", res)
	}
}
