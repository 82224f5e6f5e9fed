// internal/extract/heuristic.go
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/utils"
)

// datePatterns are tried in order; earlier patterns are more specific and
// earn higher confidence.
var datePatterns = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`\b\d{1,2} (Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) \d{4} \d{2}:\d{2}(?::\d{2})?\b`), 0.4},
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}(?::\d{2})?\b`), 0.4},
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}(?: \d{2}:\d{2}(?::\d{2})?)?\b`), 0.35},
	{regexp.MustCompile(`\b(?:19|20)\d{2}\b`), 0.15},
}

// HeuristicStrategy scans broad page text for date-shaped patterns and
// prompt-shaped long text blocks. It carries the lowest confidence and
// runs only after structural strategies return nothing.
type HeuristicStrategy struct {
	cfg    *config.ExtractionConfig
	logger utils.Logger
}

// NewHeuristicStrategy creates the heuristic strategy.
func NewHeuristicStrategy(cfg *config.ExtractionConfig, logger utils.Logger) *HeuristicStrategy {
	return &HeuristicStrategy{cfg: cfg, logger: logger}
}

// Name implements Strategy.
func (s *HeuristicStrategy) Name() string { return MethodHeuristic }

// Extract implements Strategy.
func (s *HeuristicStrategy) Extract(ctx context.Context, ec *Context, field string) *Result {
	markup, err := ec.Navigator.Page().Markup(ctx)
	if err != nil {
		s.logger.Debugf("heuristic: markup capture failed: %v", err)
		return failure(field, s.Name(), nil)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return failure(field, s.Name(), nil)
	}
	text := doc.Text()

	switch field {
	case FieldGenerationDate:
		return s.extractDate(text)
	case FieldPrompt:
		return s.extractPrompt(text)
	default:
		return failure(field, s.Name(), nil)
	}
}

func (s *HeuristicStrategy) extractDate(text string) *Result {
	var candidates []Candidate
	seen := make(map[string]bool)

	for _, pattern := range datePatterns {
		for _, match := range pattern.re.FindAllString(text, 10) {
			if seen[match] {
				continue
			}
			seen[match] = true
			candidates = append(candidates, Candidate{
				Value:      match,
				Confidence: pattern.confidence,
				Source:     "heuristic_date_pattern",
			})
		}
		// The most specific matching pattern decides; looser patterns
		// would only re-match fragments of the same strings.
		if len(candidates) > 0 {
			break
		}
	}

	if len(candidates) == 0 {
		return failure(FieldGenerationDate, s.Name(), nil)
	}
	sortCandidates(candidates)

	best := candidates[0]
	return &Result{
		Success:          true,
		FieldName:        FieldGenerationDate,
		Value:            best.Value,
		Confidence:       best.Confidence,
		Method:           s.Name(),
		ValidationPassed: best.Confidence > 0.2,
		Candidates:       candidates,
	}
}

// extractPrompt looks for long text blocks, preferring ones carrying the
// ellipsis marker since the gallery truncates prompt previews.
func (s *HeuristicStrategy) extractPrompt(text string) *Result {
	var candidates []Candidate
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 40 {
			continue
		}

		confidence := 0.25
		if s.cfg.PromptEllipsisPattern != "" && strings.Contains(line, s.cfg.PromptEllipsisPattern) {
			confidence = 0.3
		}
		candidates = append(candidates, Candidate{
			Value:      line,
			Confidence: confidence,
			Source:     "heuristic_text_block",
		})
		if len(candidates) >= 10 {
			break
		}
	}

	if len(candidates) == 0 {
		return failure(FieldPrompt, s.Name(), nil)
	}
	sortCandidates(candidates)

	best := candidates[0]
	return &Result{
		Success:          true,
		FieldName:        FieldPrompt,
		Value:            best.Value,
		Confidence:       best.Confidence,
		Method:           s.Name(),
		ValidationPassed: true,
		Candidates:       candidates,
	}
}
