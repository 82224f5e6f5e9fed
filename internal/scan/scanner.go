// internal/scan/scanner.go
package scan

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/dom"
	"github.com/promptharvest/promptharvest/internal/extract"
	"github.com/promptharvest/promptharvest/internal/history"
	"github.com/promptharvest/promptharvest/internal/monitoring"
	"github.com/promptharvest/promptharvest/internal/utils"
	"github.com/promptharvest/promptharvest/internal/validate"
)

// Reasons a run ended, recorded on the summary.
const (
	StopEndOfGallery    = "end_of_gallery"
	StopRequested       = "stop_requested"
	StopFinishDuplicate = "finish_mode_duplicate"
	StopExhausted       = "exhausted_duplicates"
	StopContextDone     = "context_cancelled"
)

// ItemResult records the outcome for one gallery item.
type ItemResult struct {
	Index          int     `json:"index"`
	GenerationDate string  `json:"generation_date"`
	Prompt         string  `json:"prompt"`
	QualityScore   float64 `json:"quality_score"`
	DateMethod     string  `json:"date_method"`
	PromptMethod   string  `json:"prompt_method"`
	Duplicate      bool    `json:"duplicate"`
	FailedOpen     bool    `json:"failed_open,omitempty"`
	DurationMS     int64   `json:"duration_ms"`
}

// Summary is the run-level outcome.
type Summary struct {
	Started       time.Time           `json:"started"`
	Finished      time.Time           `json:"finished"`
	Checkpoint    *history.Checkpoint `json:"checkpoint,omitempty"`
	ItemsScanned  int                 `json:"items_scanned"`
	NewItems      int                 `json:"new_items"`
	Duplicates    int                 `json:"duplicates"`
	Failures      int                 `json:"failures"`
	BoundaryScans int                 `json:"boundary_scans"`
	StoppedBy     string              `json:"stopped_by"`
	Results       []ItemResult        `json:"results"`
}

// Scanner owns one run's extraction, validation, and duplicate state.
// The stop flag is the only field safe to touch from another goroutine;
// everything else belongs to the run.
type Scanner struct {
	cfg          *config.Config
	gallery      Gallery
	nav          *dom.Navigator
	orchestrator *extract.Orchestrator
	assessor     *validate.Assessor
	detector     *history.Detector
	limiter      *rate.Limiter
	metrics      *monitoring.Metrics
	logger       utils.Logger

	// checkpoint is the log's most recent entry, computed once at
	// construction. Boundary scans compare probes against it first.
	checkpoint *history.Checkpoint

	// extractItem runs the strategy chain for one opened item. A field so
	// scan-flow tests can substitute canned metadata.
	extractItem func(ctx context.Context, index int) *extract.Metadata

	// onItem, when set, is invoked after each processed item.
	onItem func()

	stopped atomic.Bool
}

// NewScanner wires a scanner from configuration and an already loaded
// download log. Metrics may be nil.
func NewScanner(cfg *config.Config, gallery Gallery, nav *dom.Navigator, log *history.Log, metrics *monitoring.Metrics, logger utils.Logger) *Scanner {
	perSecond := cfg.Scan.ProbesPerSecond
	if perSecond <= 0 {
		perSecond = 10
	}

	assessor := validate.NewAssessor(cfg.Extraction.PromptEllipsisPattern)
	s := &Scanner{
		cfg:          cfg,
		gallery:      gallery,
		nav:          nav,
		orchestrator: extract.NewDefaultOrchestrator(&cfg.Extraction, assessor, logger),
		assessor:     assessor,
		detector:     history.NewDetector(log, &cfg.Duplicates, logger),
		limiter:      rate.NewLimiter(rate.Limit(perSecond), 1),
		metrics:      metrics,
		logger:       logger,
	}
	if cp, ok := log.Checkpoint(); ok {
		s.checkpoint = &cp
	}
	s.extractItem = func(ctx context.Context, index int) *extract.Metadata {
		ec := &extract.Context{Navigator: s.nav, ThumbnailIndex: index}
		return s.orchestrator.ExtractMetadata(ctx, ec)
	}
	return s
}

// SetItemNotifier registers a callback invoked after each processed
// item; the monitoring server's liveness hook plugs in here.
func (s *Scanner) SetItemNotifier(fn func()) {
	s.onItem = fn
}

// RequestStop asks the run to end gracefully. Safe to call from another
// goroutine; the flag is checked between items, never mid-item.
func (s *Scanner) RequestStop() {
	s.stopped.Store(true)
}

// Run walks the gallery until it is exhausted, a stop is requested, the
// context ends, or finish-mode hits a duplicate. Per-item failures are
// recorded and never abort the run.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{Started: time.Now()}
	defer func() { summary.Finished = time.Now() }()

	if err := s.gallery.Enter(ctx); err != nil {
		return summary, err
	}

	count, err := s.gallery.ItemCount(ctx)
	if err != nil {
		return summary, err
	}
	if s.cfg.Scan.MaxItems > 0 && s.cfg.Scan.MaxItems < count {
		count = s.cfg.Scan.MaxItems
	}

	summary.Checkpoint = s.checkpoint
	startFields := map[string]interface{}{"items": count}
	if s.checkpoint != nil {
		startFields["checkpoint_date"] = s.checkpoint.GenerationDate
		startFields["checkpoint_file_id"] = s.checkpoint.FileID
	}
	s.logger.WithFields(startFields).Info("scan started")

	for i := 0; i < count; i++ {
		if s.stopped.Load() {
			summary.StoppedBy = StopRequested
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			summary.StoppedBy = StopContextDone
			break
		}

		res := s.processItem(ctx, i)
		summary.Results = append(summary.Results, res)
		summary.ItemsScanned++
		s.metrics.RecordItemScanned()
		s.metrics.RecordQuality(res.QualityScore)
		s.metrics.ObserveItemDuration(float64(res.DurationMS) / 1000)
		if s.onItem != nil {
			s.onItem()
		}

		switch {
		case res.Duplicate:
			summary.Duplicates++
			s.metrics.RecordDuplicate(string(s.detector.Mode()))

			if s.detector.Mode() == config.DuplicateModeFinish {
				s.logger.WithField("index", i).Info("duplicate found, finishing run")
				summary.StoppedBy = StopFinishDuplicate
			} else {
				boundary, stop := s.findBoundary(ctx, i+1, count)
				summary.BoundaryScans++
				s.metrics.RecordBoundaryScan()
				if stop == "" {
					s.logger.WithFields(map[string]interface{}{
						"from": i, "resume_at": boundary,
					}).Info("resuming past duplicate run")
					i = boundary - 1
					continue
				}
				if stop == StopExhausted {
					s.logger.Info("no new content past duplicate run, ending scan")
				}
				summary.StoppedBy = stop
			}
		case res.GenerationDate == config.UnknownDate && res.Prompt == config.UnknownPrompt:
			summary.Failures++
		default:
			summary.NewItems++
		}

		if summary.StoppedBy != "" {
			break
		}
	}

	if summary.StoppedBy == "" {
		summary.StoppedBy = StopEndOfGallery
	}
	s.logger.WithFields(map[string]interface{}{
		"scanned":    summary.ItemsScanned,
		"new":        summary.NewItems,
		"duplicates": summary.Duplicates,
		"failures":   summary.Failures,
		"stopped_by": summary.StoppedBy,
	}).Info("scan finished")

	return summary, nil
}

// processItem opens one item, runs the extraction chain, and checks the
// result against the log. It always returns a result; failure shows up
// as sentinel metadata, never as an error.
func (s *Scanner) processItem(ctx context.Context, index int) ItemResult {
	start := time.Now()
	res := ItemResult{
		Index:          index,
		GenerationDate: config.UnknownDate,
		Prompt:         config.UnknownPrompt,
	}
	defer func() { res.DurationMS = time.Since(start).Milliseconds() }()

	if err := s.gallery.OpenItem(ctx, index); err != nil {
		s.logger.WithField("index", index).Warnf("failed to open item: %v", err)
		res.FailedOpen = true
		return res
	}
	defer func() {
		if err := s.gallery.ExitItem(ctx); err != nil {
			s.logger.WithField("index", index).Warnf("failed to exit item view: %v", err)
		}
	}()

	meta := s.extractItem(ctx, index)
	res.GenerationDate = meta.GenerationDate
	res.Prompt = meta.Prompt
	if meta.DateResult != nil {
		res.DateMethod = meta.DateResult.Method
		s.metrics.RecordExtraction(extract.FieldGenerationDate, meta.DateResult.Method, meta.DateResult.Success)
	}
	if meta.PromptResult != nil {
		res.PromptMethod = meta.PromptResult.Method
		s.metrics.RecordExtraction(extract.FieldPrompt, meta.PromptResult.Method, meta.PromptResult.Success)
	}

	report := s.assessor.Assess(meta.GenerationDate, meta.Prompt)
	res.QualityScore = report.Score
	for _, issue := range report.Issues {
		s.logger.WithField("index", index).Debugf("quality issue: %s", issue)
	}

	decision := s.detector.Check(meta.GenerationDate, meta.Prompt)
	res.Duplicate = decision.Duplicate
	if decision.Matched != nil {
		s.logger.WithFields(map[string]interface{}{
			"index":   index,
			"file_id": decision.Matched.FileID,
		}).Info("item already downloaded")
	}
	return res
}
