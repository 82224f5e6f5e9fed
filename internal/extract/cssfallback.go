// internal/extract/cssfallback.go
package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/utils"
	"github.com/promptharvest/promptharvest/internal/validate"
)

// cssFallbackMaxConfidence caps this strategy's confidence: legacy
// selectors are known to break on UI changes.
const cssFallbackMaxConfidence = 0.5

// CSSFallbackStrategy extracts values with configured legacy CSS
// selectors, evaluated against a markup capture of the page. It is a last
// resort behind the landmark strategy.
type CSSFallbackStrategy struct {
	cfg    *config.ExtractionConfig
	logger utils.Logger
}

// NewCSSFallbackStrategy creates the CSS fallback strategy.
func NewCSSFallbackStrategy(cfg *config.ExtractionConfig, logger utils.Logger) *CSSFallbackStrategy {
	return &CSSFallbackStrategy{cfg: cfg, logger: logger}
}

// Name implements Strategy.
func (s *CSSFallbackStrategy) Name() string { return MethodCSSFallback }

// Extract implements Strategy.
func (s *CSSFallbackStrategy) Extract(ctx context.Context, ec *Context, field string) *Result {
	var selectors []string
	switch field {
	case FieldGenerationDate:
		selectors = s.cfg.LegacyDateSelectors
	case FieldPrompt:
		selectors = s.cfg.LegacyPromptSelectors
	default:
		return failure(field, s.Name(), nil)
	}

	if len(selectors) == 0 {
		return failure(field, s.Name(), nil)
	}

	markup, err := ec.Navigator.Page().Markup(ctx)
	if err != nil {
		s.logger.Debugf("css fallback: markup capture failed: %v", err)
		return failure(field, s.Name(), nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return failure(field, s.Name(), nil)
	}

	var candidates []Candidate
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			value := strings.TrimSpace(sel.Text())
			if value == "" {
				return
			}
			confidence := cssFallbackMaxConfidence
			if field == FieldGenerationDate && !validate.DateLooksValid(value) {
				confidence = 0.2
			}
			candidates = append(candidates, Candidate{
				Value:      value,
				Confidence: confidence,
				Source:     "css:" + selector,
			})
		})
	}

	if len(candidates) == 0 {
		return failure(field, s.Name(), nil)
	}
	sortCandidates(candidates)

	best := candidates[0]
	validationPassed := true
	if field == FieldGenerationDate {
		validationPassed = validate.DateLooksValid(best.Value)
	}

	return &Result{
		Success:          validationPassed,
		FieldName:        field,
		Value:            best.Value,
		Confidence:       best.Confidence,
		Method:           s.Name(),
		ValidationPassed: validationPassed,
		Candidates:       candidates,
	}
}
