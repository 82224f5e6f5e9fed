// internal/extract/types.go

// Package extract implements the multi-strategy metadata extraction chain:
// landmark-based traversal first, configured legacy CSS selectors second,
// broad pattern heuristics last. Strategies are pure functions of the
// extraction context; they report soft failures through the result rather
// than returning errors, because a missing landmark is an expected page
// state, not a fault.
package extract

import (
	"context"

	"github.com/promptharvest/promptharvest/internal/dom"
)

// Field names the orchestrator extracts independently.
const (
	FieldGenerationDate = "generation_date"
	FieldPrompt         = "prompt"
)

// Method tags recorded on results for diagnostics.
const (
	MethodLandmark      = "landmark"
	MethodCSSFallback   = "css_fallback"
	MethodHeuristic     = "heuristic"
	MethodBestCandidate = "exhausted_best_candidate"
	MethodFailed        = "failed_all_methods"
	MethodCritical      = "critical_error"
)

// Candidate is one competing value considered for a field.
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Result is one strategy's answer for one field. When Success is true,
// Value is non-empty and present in Candidates.
type Result struct {
	Success          bool        `json:"success"`
	FieldName        string      `json:"field_name"`
	Value            string      `json:"extracted_value,omitempty"`
	Confidence       float64     `json:"confidence"`
	Method           string      `json:"method_used"`
	ValidationPassed bool        `json:"validation_passed"`
	Candidates       []Candidate `json:"candidates,omitempty"`
}

// failure builds an unsuccessful result carrying any candidates examined.
func failure(field, method string, candidates []Candidate) *Result {
	return &Result{
		FieldName:  field,
		Method:     method,
		Candidates: candidates,
	}
}

// Context is the per-item extraction request. It is created once per
// gallery item and discarded afterwards; it is not safe for shared
// mutation across concurrent items.
type Context struct {
	// Navigator provides fault-tolerant DOM inspection.
	Navigator *dom.Navigator

	// ThumbnailIndex identifies which gallery item is being processed.
	ThumbnailIndex int

	// Landmarks accumulates anchors discovered during this extraction.
	Landmarks []dom.ElementInfo
}

// Strategy is one self-contained extraction algorithm, rankable by
// confidence and replaceable independently of the others.
type Strategy interface {
	// Name identifies the strategy in result method tags.
	Name() string

	// Extract produces a result for the field. Implementations never
	// return an error: transient DOM failures degrade to unsuccessful
	// results so the orchestrator can continue down the chain.
	Extract(ctx context.Context, ec *Context, field string) *Result
}
