// internal/extract/landmark.go
package extract

import (
	"context"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/dom"
	"github.com/promptharvest/promptharvest/internal/utils"
	"github.com/promptharvest/promptharvest/internal/validate"
)

// spatialFallbackRadius bounds the nearest-element search when sibling
// navigation cannot place the value next to its anchor.
const spatialFallbackRadius = 150.0

// LandmarkStrategy extracts values by locating literal text anchors and
// walking relative DOM structure: the value span follows the label span in
// sibling order. This is the primary strategy.
type LandmarkStrategy struct {
	cfg      *config.ExtractionConfig
	assessor *validate.Assessor
	logger   utils.Logger
}

// NewLandmarkStrategy creates the landmark strategy with the default
// disambiguation rule.
func NewLandmarkStrategy(cfg *config.ExtractionConfig, logger utils.Logger) *LandmarkStrategy {
	return &LandmarkStrategy{
		cfg:      cfg,
		assessor: validate.NewAssessor(cfg.PromptEllipsisPattern),
		logger:   logger,
	}
}

// Name implements Strategy.
func (s *LandmarkStrategy) Name() string { return MethodLandmark }

// Extract implements Strategy.
func (s *LandmarkStrategy) Extract(ctx context.Context, ec *Context, field string) *Result {
	switch field {
	case FieldGenerationDate:
		return s.extractDate(ctx, ec)
	case FieldPrompt:
		return s.extractPrompt(ctx, ec)
	default:
		return failure(field, s.Name(), nil)
	}
}

// extractDate finds every "Creation Time" anchor, recovers the sibling
// value for each, and disambiguates when panels duplicate the landmark.
func (s *LandmarkStrategy) extractDate(ctx context.Context, ec *Context) *Result {
	anchors := ec.Navigator.FindElementsByLandmark(ctx, s.cfg.CreationTimeText)
	if len(anchors) == 0 {
		return failure(FieldGenerationDate, s.Name(), nil)
	}
	ec.Landmarks = append(ec.Landmarks, anchors...)

	var found []anchoredCandidate

	for _, anchor := range anchors {
		value, source, ok := s.siblingValue(ctx, ec, anchor)
		if !ok {
			continue
		}

		confidence := 0.6
		if anchor.Visible && source == "landmark_sibling" {
			confidence = 0.85
		} else if source == "landmark_sibling" {
			confidence = 0.7
		} else if anchor.Visible {
			confidence = 0.65
		}
		if !validate.DateLooksValid(value) {
			// Report the candidate but never invent a date from it.
			confidence = 0.2
		}

		found = append(found, anchoredCandidate{
			candidate: Candidate{Value: value, Confidence: confidence, Source: source},
			anchor:    anchor,
		})
	}

	if len(found) == 0 {
		return failure(FieldGenerationDate, s.Name(), nil)
	}

	candidates := make([]Candidate, 0, len(found))
	for _, f := range found {
		candidates = append(candidates, f.candidate)
	}
	sortCandidates(candidates)

	chosen, confidence := s.chooseDate(found)
	valid := validate.DateLooksValid(chosen)

	return &Result{
		Success:          valid,
		FieldName:        FieldGenerationDate,
		Value:            chosen,
		Confidence:       confidence,
		Method:           s.Name(),
		ValidationPassed: valid,
		Candidates:       candidates,
	}
}

// anchoredCandidate pairs a candidate value with the anchor it came from.
type anchoredCandidate struct {
	candidate Candidate
	anchor    dom.ElementInfo
}

// chooseDate selects among anchored candidates. A single visible panel
// wins outright; with several visible panels the largest on-screen panel
// is treated as the selected one; otherwise the assessor's disambiguation
// rule decides. Blindly taking the first DOM-order match is exactly the
// failure mode this ordering exists to avoid.
func (s *LandmarkStrategy) chooseDate(found []anchoredCandidate) (string, float64) {
	var visible []int
	for i, f := range found {
		if f.anchor.Visible && validate.DateLooksValid(f.candidate.Value) {
			visible = append(visible, i)
		}
	}

	if len(visible) == 1 {
		f := found[visible[0]]
		return f.candidate.Value, f.candidate.Confidence
	}

	if len(visible) > 1 {
		// Distinct values across visible panels: the selected panel is
		// the one occupying the most screen area, when that stands out.
		sort.SliceStable(visible, func(i, j int) bool {
			return found[visible[i]].anchor.Area() > found[visible[j]].anchor.Area()
		})
		largest := found[visible[0]]
		second := found[visible[1]]
		if largest.anchor.Area() > second.anchor.Area() {
			return largest.candidate.Value, largest.candidate.Confidence
		}

		values := make([]string, 0, len(visible))
		for _, i := range visible {
			values = append(values, found[i].candidate.Value)
		}
		return s.assessor.Pick(values), 0.75
	}

	// No visible anchor produced a valid value; let the disambiguation
	// rule decide across everything found.
	values := make([]string, 0, len(found))
	best := 0.0
	for _, f := range found {
		values = append(values, f.candidate.Value)
		if f.candidate.Confidence > best {
			best = f.candidate.Confidence
		}
	}
	return s.assessor.Pick(values), best
}

// siblingValue walks anchor → parent → span children and returns the text
// of the sibling immediately following the anchor. When sibling structure
// is unavailable it falls back to the spatially nearest span.
func (s *LandmarkStrategy) siblingValue(ctx context.Context, ec *Context, anchor dom.ElementInfo) (string, string, bool) {
	parent, ok := ec.Navigator.Parent(ctx, anchor)
	if !ok {
		return "", "", false
	}

	siblings := ec.Navigator.ChildSnapshots(ctx, parent, "span, div, p")
	anchorIdx := -1
	for i, sib := range siblings {
		if sib.ContainsText(s.cfg.CreationTimeText) && len(strings.TrimSpace(sib.Text)) <= len(s.cfg.CreationTimeText)+8 {
			anchorIdx = i
			break
		}
	}

	if anchorIdx >= 0 {
		for _, sib := range siblings[anchorIdx+1:] {
			value := strings.TrimSpace(sib.Text)
			if value != "" {
				return value, "landmark_sibling", true
			}
		}
	}

	// Structural walk failed: take the nearest sibling span by geometry.
	nearest := ec.Navigator.FindNearest(anchor, siblings, spatialFallbackRadius)
	for _, sib := range nearest {
		value := strings.TrimSpace(sib.Text)
		if value != "" && !sib.ContainsText(s.cfg.CreationTimeText) {
			return value, "landmark_spatial", true
		}
	}

	return "", "", false
}

// extractPrompt prefers elements carrying a description association; when
// the rendered text is CSS-truncated it recovers the full string from the
// underlying markup.
func (s *LandmarkStrategy) extractPrompt(ctx context.Context, ec *Context) *Result {
	var candidates []Candidate

	for _, info := range ec.Navigator.QuerySnapshots(ctx, "[aria-describedby]") {
		text := strings.TrimSpace(info.Text)
		if text == "" {
			continue
		}

		confidence := 0.85
		source := "landmark_describedby"
		if s.isTruncated(text) {
			if full, ok := s.recoverFromMarkup(ctx, info); ok {
				text = full
				source = "landmark_markup_recovery"
			} else {
				confidence = 0.7
			}
		}

		candidates = append(candidates, Candidate{Value: text, Confidence: confidence, Source: source})
	}

	// Secondary: the longest text block inside the generation panel.
	if panel, ok := s.generationPanel(ctx, ec); ok {
		if text := s.longestBlock(ctx, ec, panel); text != "" {
			candidates = append(candidates, Candidate{Value: text, Confidence: 0.6, Source: "landmark_panel_text"})
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
		ValidationPassed: len(best.Value) > 0,
		Candidates:       candidates,
	}
}

func (s *LandmarkStrategy) isTruncated(text string) bool {
	return s.cfg.PromptEllipsisPattern != "" && strings.HasSuffix(text, s.cfg.PromptEllipsisPattern)
}

// recoverFromMarkup reads the element's innerHTML and extracts its full
// text. CSS truncation hides text from innerText but not from the markup.
func (s *LandmarkStrategy) recoverFromMarkup(ctx context.Context, info dom.ElementInfo) (string, bool) {
	if info.Handle == nil {
		return "", false
	}

	html, err := info.Handle.InnerHTML(ctx)
	if err != nil || html == "" {
		return "", false
	}

	full := strings.TrimSpace(markupText(html))
	if full == "" || s.isTruncated(full) {
		return "", false
	}
	return full, true
}

// generationPanel locates the panel containing the "Image to video" anchor.
func (s *LandmarkStrategy) generationPanel(ctx context.Context, ec *Context) (dom.ElementInfo, bool) {
	anchors := ec.Navigator.FindElementsByLandmark(ctx, s.cfg.ImageToVideoText)
	for _, anchor := range anchors {
		if !anchor.Visible {
			continue
		}
		ec.Landmarks = append(ec.Landmarks, anchor)
		if parent, ok := ec.Navigator.Parent(ctx, anchor); ok {
			return parent, true
		}
	}
	return dom.ElementInfo{}, false
}

// longestBlock returns the longest non-anchor text inside the panel.
func (s *LandmarkStrategy) longestBlock(ctx context.Context, ec *Context, panel dom.ElementInfo) string {
	var longest string
	for _, child := range ec.Navigator.ChildSnapshots(ctx, panel, "span, div, p") {
		text := strings.TrimSpace(child.Text)
		if child.ContainsText(s.cfg.ImageToVideoText) || child.ContainsText(s.cfg.CreationTimeText) {
			continue
		}
		if len(text) > len(longest) {
			longest = text
		}
	}
	if len(longest) < 20 {
		return ""
	}
	return longest
}

// markupText strips tags from an HTML fragment.
func markupText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + html + "</div>"))
	if err != nil {
		return ""
	}
	return doc.Text()
}

// sortCandidates orders candidates most-confident first, stable so equal
// confidences keep discovery order.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
}
