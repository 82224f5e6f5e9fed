// internal/extract/orchestrator.go
package extract

import (
	"context"

	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/utils"
	"github.com/promptharvest/promptharvest/internal/validate"
)

// Orchestrator runs strategies in fixed priority order per field and
// accepts the first result clearing the confidence threshold. It never
// returns an error: exhaustion degrades to the best candidate seen, and
// total failure degrades to the field's sentinel value, because a single
// item's extraction failure must never abort the surrounding scan.
type Orchestrator struct {
	strategies []Strategy
	threshold  float64
	logger     utils.Logger
}

// NewOrchestrator creates an orchestrator over the given strategy chain.
// Strategies run in slice order; threshold zero selects the 0.6 default.
func NewOrchestrator(strategies []Strategy, threshold float64, logger utils.Logger) *Orchestrator {
	if threshold <= 0 {
		threshold = 0.6
	}
	return &Orchestrator{
		strategies: strategies,
		threshold:  threshold,
		logger:     logger,
	}
}

// NewDefaultOrchestrator wires the standard chain from configuration:
// landmark, then CSS fallback, then heuristics. The assessor's
// disambiguation rule governs landmark tie-breaks; nil selects the
// default assessor.
func NewDefaultOrchestrator(cfg *config.ExtractionConfig, assessor *validate.Assessor, logger utils.Logger) *Orchestrator {
	if assessor == nil {
		assessor = validate.NewAssessor(cfg.PromptEllipsisPattern)
	}

	var strategies []Strategy
	if cfg.UseLandmarkExtraction {
		landmark := NewLandmarkStrategy(cfg, logger)
		landmark.assessor = assessor
		strategies = append(strategies, landmark)
	}
	if cfg.FallbackToLegacy {
		strategies = append(strategies, NewCSSFallbackStrategy(cfg, logger))
	}
	strategies = append(strategies, NewHeuristicStrategy(cfg, logger))

	return NewOrchestrator(strategies, cfg.QualityThreshold, logger)
}

// Metadata is the orchestrator's combined answer for one gallery item.
type Metadata struct {
	GenerationDate string  `json:"generation_date"`
	Prompt         string  `json:"prompt"`
	DateResult     *Result `json:"date_result,omitempty"`
	PromptResult   *Result `json:"prompt_result,omitempty"`
}

// Failed reports whether both fields fell back to sentinels.
func (m *Metadata) Failed() bool {
	return m.GenerationDate == config.UnknownDate && m.Prompt == config.UnknownPrompt
}

// ExtractMetadata runs the chain for both fields independently; a success
// on one field does not short-circuit the other.
func (o *Orchestrator) ExtractMetadata(ctx context.Context, ec *Context) *Metadata {
	dateResult := o.ExtractField(ctx, ec, FieldGenerationDate)
	promptResult := o.ExtractField(ctx, ec, FieldPrompt)

	meta := &Metadata{
		GenerationDate: config.UnknownDate,
		Prompt:         config.UnknownPrompt,
		DateResult:     dateResult,
		PromptResult:   promptResult,
	}
	if dateResult.Success && dateResult.Value != "" {
		meta.GenerationDate = dateResult.Value
	}
	if promptResult.Success && promptResult.Value != "" {
		meta.Prompt = promptResult.Value
	}
	return meta
}

// ExtractField runs the strategy chain for one field. A panicking strategy
// is contained and tagged as a critical error so the caller can continue
// to the next item.
func (o *Orchestrator) ExtractField(ctx context.Context, ec *Context, field string) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithField("field", field).Errorf("extraction panicked: %v", r)
			result = o.sentinelResult(field, MethodCritical)
		}
	}()

	var all []Candidate
	var best *Result

	for _, strategy := range o.strategies {
		res := strategy.Extract(ctx, ec, field)
		if res == nil {
			continue
		}
		all = append(all, res.Candidates...)

		if res.Success && res.ValidationPassed && res.Confidence >= o.threshold {
			o.logger.WithFields(map[string]interface{}{
				"field":      field,
				"method":     res.Method,
				"confidence": res.Confidence,
			}).Debug("strategy accepted")
			return res
		}

		if best == nil || res.Confidence > best.Confidence {
			best = res
		}
		o.logger.WithFields(map[string]interface{}{
			"field":      field,
			"method":     strategy.Name(),
			"confidence": res.Confidence,
		}).Debug("strategy below threshold, continuing chain")
	}

	// Exhausted: return the single highest-confidence candidate across
	// every attempt, if any strategy produced one.
	if len(all) > 0 {
		sortCandidates(all)
		top := all[0]
		validationPassed := best != nil && best.ValidationPassed
		return &Result{
			Success:          top.Value != "",
			FieldName:        field,
			Value:            top.Value,
			Confidence:       top.Confidence,
			Method:           MethodBestCandidate,
			ValidationPassed: validationPassed,
			Candidates:       all,
		}
	}

	return o.sentinelResult(field, MethodFailed)
}

// sentinelResult builds the failure result carrying the field's sentinel.
func (o *Orchestrator) sentinelResult(field, method string) *Result {
	value := config.UnknownDate
	if field == FieldPrompt {
		value = config.UnknownPrompt
	}
	return &Result{
		FieldName: field,
		Value:     value,
		Method:    method,
	}
}
