// internal/validate/quality.go

// Package validate assigns quality scores to extracted metadata and
// disambiguates competing candidate values. Scoring is deterministic for
// identical inputs: no randomness and no wall-clock dependence.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/promptharvest/promptharvest/internal/config"
)

// dateLayouts are the textual timestamp shapes the gallery has been seen
// to render. Order matters only for ParseDate's returned time.
var dateLayouts = []string{
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
}

// ParseDate parses a textual gallery timestamp. A bare year is not
// accepted: a full date needs at least day, month and year.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", trimmed)
}

// DateLooksValid reports whether the value parses as a full date.
func DateLooksValid(value string) bool {
	if value == config.UnknownDate {
		return false
	}
	_, err := ParseDate(value)
	return err == nil
}

// Report is the outcome of quality assessment for one metadata pair.
type Report struct {
	Score           float64  `json:"score"`
	Issues          []string `json:"issues,omitempty"`
	PromptTruncated bool     `json:"prompt_truncated"`
}

// Assessor scores extracted {generation_date, prompt} pairs and breaks
// ties between equally structural candidates.
type Assessor struct {
	// MinPromptLength is the shortest prompt considered complete.
	MinPromptLength int

	// EllipsisPattern marks CSS-truncated prompt text.
	EllipsisPattern string

	// Disambiguate selects one value among competing date candidates.
	// The default is frequency inversion; it is replaceable because its
	// correctness depends on gallery UI conventions.
	Disambiguate func(values []string) string
}

// NewAssessor creates an assessor with the given truncation marker and
// the default disambiguation rule.
func NewAssessor(ellipsisPattern string) *Assessor {
	return &Assessor{
		MinPromptLength: 10,
		EllipsisPattern: ellipsisPattern,
		Disambiguate:    LeastFrequent,
	}
}

// Assess scores a completed metadata pair. Deductions compose from a base
// of 1.0; the result is clamped to [0, 1].
func (a *Assessor) Assess(generationDate, prompt string) Report {
	report := Report{Score: 1.0}

	if generationDate == config.UnknownDate || !DateLooksValid(generationDate) {
		report.Score -= 0.8
		report.Issues = append(report.Issues, fmt.Sprintf("date not parseable: %q", generationDate))
	}

	trimmedPrompt := strings.TrimSpace(prompt)
	switch {
	case trimmedPrompt == "" || trimmedPrompt == config.UnknownPrompt:
		report.Score -= 0.5
		report.Issues = append(report.Issues, "prompt missing")
	case len(trimmedPrompt) < a.MinPromptLength:
		report.Score -= 0.3
		report.Issues = append(report.Issues, fmt.Sprintf("prompt shorter than %d characters", a.MinPromptLength))
	}

	if a.EllipsisPattern != "" && strings.HasSuffix(trimmedPrompt, a.EllipsisPattern) {
		report.Score -= 0.1
		report.PromptTruncated = true
		report.Issues = append(report.Issues, "prompt appears truncated")
	}

	if report.Score < 0 {
		report.Score = 0
	}
	return report
}

// Pick applies the configured disambiguation rule to candidate values.
// An empty input yields an empty string; a single value is returned as is.
func (a *Assessor) Pick(values []string) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) == 1 {
		return values[0]
	}
	if a.Disambiguate == nil {
		return LeastFrequent(values)
	}
	return a.Disambiguate(values)
}

// LeastFrequent prefers the value repeated least often among the
// candidates. The currently focused panel's date is less likely to be an
// accidental duplicate of many stale background panels. Ties break by
// first appearance for determinism.
func LeastFrequent(values []string) string {
	if len(values) == 0 {
		return ""
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := values[0]
	bestCount := counts[best]
	for _, v := range values[1:] {
		if counts[v] < bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best
}
