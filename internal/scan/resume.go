// internal/scan/resume.go
package scan

import (
	"context"

	"github.com/promptharvest/promptharvest/internal/history"
)

// findBoundary scans forward through container cards from index `from`,
// probing partial metadata without opening items, until it reaches one
// that is not already in the log. Probes are compared against the
// checkpoint first: a single-record comparison that answers the common
// case where the duplicate run is the tail of the previous session, with
// the full log check as fallback. Returns the resume index with an empty
// stop reason, or index 0 and the reason the search ended: exhausted
// when every remaining card is a known duplicate, or the stop/cancel
// reason when the search was interrupted. The procedure is a pure read
// of page state and safe to invoke repeatedly.
func (s *Scanner) findBoundary(ctx context.Context, from, limit int) (int, string) {
	var checkpointRec *history.Record
	if s.checkpoint != nil {
		checkpointRec = &history.Record{
			FileID:         s.checkpoint.FileID,
			GenerationDate: s.checkpoint.GenerationDate,
			Prompt:         s.checkpoint.Prompt,
		}
	}

	for i := from; i < limit; i++ {
		if s.stopped.Load() {
			return 0, StopRequested
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, StopContextDone
		}

		probe, err := s.gallery.ProbeItem(ctx, i)
		if err != nil {
			// A card that cannot be probed is treated as new content:
			// an extra full extraction beats silently skipping it.
			s.logger.WithField("index", i).Debugf("probe failed, resuming here: %v", err)
			return i, ""
		}

		if checkpointRec != nil && s.detector.Matches(*checkpointRec, probe.GenerationDate, probe.Prompt) {
			continue
		}
		decision := s.detector.Check(probe.GenerationDate, probe.Prompt)
		if !decision.Duplicate {
			return i, ""
		}
	}
	return 0, StopExhausted
}
