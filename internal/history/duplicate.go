// internal/history/duplicate.go
package history

import (
	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/utils"
)

// Decision is the outcome of one duplicate check.
type Decision struct {
	// Duplicate reports whether the pair matched a log entry.
	Duplicate bool

	// Matched is the first log entry that matched, when Duplicate.
	Matched *Record

	// FailedOpen reports that the check was answered "not a duplicate"
	// because extraction never produced comparable metadata.
	FailedOpen bool
}

// Detector decides whether freshly extracted metadata was already
// downloaded. A pair matches a log entry when the generation dates are
// equal and the first PrefixLength characters of the prompts agree; the
// prefix rule tolerates trailing truncation drift without matching
// genuinely different prompts.
type Detector struct {
	log       *Log
	mode      config.DuplicateMode
	prefixLen int
	logger    utils.Logger
}

// NewDetector creates a detector over an already loaded log.
func NewDetector(log *Log, cfg *config.DuplicateConfig, logger utils.Logger) *Detector {
	prefixLen := cfg.PromptPrefixLength
	if prefixLen <= 0 {
		prefixLen = 50
	}
	return &Detector{
		log:       log,
		mode:      cfg.Mode,
		prefixLen: prefixLen,
		logger:    logger,
	}
}

// Mode returns the configured duplicate handling mode.
func (d *Detector) Mode() config.DuplicateMode {
	return d.mode
}

// Check evaluates one extracted pair against the log. Sentinel values
// mean extraction failed upstream; the detector then fails open, because
// a possible redundant download beats silently skipping new content.
func (d *Detector) Check(generationDate, prompt string) Decision {
	if generationDate == "" || generationDate == config.UnknownDate ||
		prompt == "" || prompt == config.UnknownPrompt {
		d.logger.WithFields(map[string]interface{}{
			"generation_date": generationDate,
		}).Warn("metadata unavailable, treating item as new")
		return Decision{FailedOpen: true}
	}

	prefix := promptPrefix(NormalizePrompt(prompt), d.prefixLen)
	for _, rec := range d.log.ByDate(generationDate) {
		if promptPrefix(NormalizePrompt(rec.Prompt), d.prefixLen) == prefix {
			matched := rec
			return Decision{Duplicate: true, Matched: &matched}
		}
	}
	return Decision{}
}

// Matches reports whether an extracted pair matches one specific record,
// under the same rule Check applies against the whole log. Used by the
// boundary scan to compare probes against the checkpoint.
func (d *Detector) Matches(rec Record, generationDate, prompt string) bool {
	if NormalizeDate(rec.GenerationDate) != NormalizeDate(generationDate) {
		return false
	}
	return promptPrefix(NormalizePrompt(rec.Prompt), d.prefixLen) ==
		promptPrefix(NormalizePrompt(prompt), d.prefixLen)
}

// promptPrefix returns the first n characters, rune-safe.
func promptPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
