// internal/scan/scanner_test.go
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/promptharvest/promptharvest/internal/config"
	"github.com/promptharvest/promptharvest/internal/extract"
	"github.com/promptharvest/promptharvest/internal/history"
	"github.com/promptharvest/promptharvest/internal/utils"
)

// fakeGallery serves canned per-item metadata for flow tests.
type fakeGallery struct {
	items     []Probe
	probeErrs map[int]error

	entered bool
	opened  []int
	exited  int
	probed  []int
}

func (g *fakeGallery) Enter(ctx context.Context) error {
	g.entered = true
	return nil
}

func (g *fakeGallery) ItemCount(ctx context.Context) (int, error) {
	return len(g.items), nil
}

func (g *fakeGallery) OpenItem(ctx context.Context, index int) error {
	g.opened = append(g.opened, index)
	return nil
}

func (g *fakeGallery) ExitItem(ctx context.Context) error {
	g.exited++
	return nil
}

func (g *fakeGallery) ProbeItem(ctx context.Context, index int) (Probe, error) {
	g.probed = append(g.probed, index)
	if err := g.probeErrs[index]; err != nil {
		return Probe{}, err
	}
	return g.items[index], nil
}

func flowConfig(mode config.DuplicateMode, logPath string) *config.Config {
	cfg := &config.Config{GalleryURL: "https://gallery.example/videos"}
	cfg.Duplicates.Mode = mode
	cfg.Duplicates.PromptPrefixLength = 50
	cfg.History.LogPath = logPath
	cfg.Extraction.CreationTimeText = "Creation Time"
	cfg.Extraction.UseLandmarkExtraction = true
	cfg.Extraction.QualityThreshold = 0.6
	cfg.Scan.ProbesPerSecond = 1000
	return cfg
}

// newFlowScanner builds a scanner whose extraction returns the gallery's
// canned metadata instead of walking a DOM.
func newFlowScanner(t *testing.T, mode config.DuplicateMode, g *fakeGallery, existing []history.Record) *Scanner {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "downloads.jsonl")
	log, err := history.Open(logPath, utils.NewTestLogger())
	if err != nil {
		t.Fatalf("Open log failed: %v", err)
	}
	for _, rec := range existing {
		if err := log.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	s := NewScanner(flowConfig(mode, logPath), g, nil, log, nil, utils.NewTestLogger())
	s.extractItem = func(ctx context.Context, index int) *extract.Metadata {
		item := g.items[index]
		meta := &extract.Metadata{GenerationDate: config.UnknownDate, Prompt: config.UnknownPrompt}
		if item.GenerationDate != "" {
			meta.GenerationDate = item.GenerationDate
		}
		if item.Prompt != "" {
			meta.Prompt = item.Prompt
		}
		return meta
	}
	return s
}

func itemMeta(i int) Probe {
	return Probe{
		GenerationDate: fmt.Sprintf("30 Aug 2025 05:11:%02d", i),
		Prompt:         fmt.Sprintf("a long descriptive prompt for gallery item number %d", i),
	}
}

func asRecord(i int, p Probe) history.Record {
	return history.Record{
		FileID:         fmt.Sprintf("#%09d", i+1),
		GenerationDate: p.GenerationDate,
		Prompt:         p.Prompt,
	}
}

func TestScanner_AllNewItems(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1), itemMeta(2)}}
	s := newFlowScanner(t, config.DuplicateModeFinish, g, nil)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ItemsScanned != 3 || summary.NewItems != 3 {
		t.Errorf("Expected 3 new items, got %+v", summary)
	}
	if summary.StoppedBy != StopEndOfGallery {
		t.Errorf("Expected %q, got %q", StopEndOfGallery, summary.StoppedBy)
	}
	if g.exited != len(g.opened) {
		t.Errorf("Every opened item must be exited: opened %d, exited %d", len(g.opened), g.exited)
	}
}

func TestScanner_FinishModeStopsOnDuplicate(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1), itemMeta(2)}}
	s := newFlowScanner(t, config.DuplicateModeFinish, g, []history.Record{
		asRecord(1, itemMeta(1)),
	})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.StoppedBy != StopFinishDuplicate {
		t.Errorf("Expected %q, got %q", StopFinishDuplicate, summary.StoppedBy)
	}
	if summary.ItemsScanned != 2 {
		t.Errorf("Expected scan to stop after the duplicate, scanned %d", summary.ItemsScanned)
	}
	for _, idx := range g.opened {
		if idx == 2 {
			t.Error("Items past the duplicate must not be opened in finish mode")
		}
	}
}

func TestScanner_SkipModeResumesPastDuplicateRun(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1), itemMeta(2), itemMeta(3)}}
	s := newFlowScanner(t, config.DuplicateModeSkip, g, []history.Record{
		asRecord(0, itemMeta(0)),
		asRecord(1, itemMeta(1)),
	})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.StoppedBy != StopEndOfGallery {
		t.Errorf("Skip mode must continue to the end, got %q", summary.StoppedBy)
	}
	if summary.BoundaryScans != 1 {
		t.Errorf("Expected one boundary scan, got %d", summary.BoundaryScans)
	}
	if summary.NewItems != 2 {
		t.Errorf("Expected items 2 and 3 as new, got %+v", summary)
	}
	// Item 1 is part of the duplicate run and must be probed, not opened.
	for _, idx := range g.opened {
		if idx == 1 {
			t.Error("Duplicate-run items must be skipped via probes, not opened")
		}
	}
}

func TestScanner_SkipModeExhaustedDuplicates(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1)}}
	s := newFlowScanner(t, config.DuplicateModeSkip, g, []history.Record{
		asRecord(0, itemMeta(0)),
		asRecord(1, itemMeta(1)),
	})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.StoppedBy != StopExhausted {
		t.Errorf("Expected %q, got %q", StopExhausted, summary.StoppedBy)
	}
}

func TestScanner_ProbeErrorResumesThere(t *testing.T) {
	g := &fakeGallery{
		items:     []Probe{itemMeta(0), itemMeta(1), itemMeta(2)},
		probeErrs: map[int]error{1: fmt.Errorf("card not rendered")},
	}
	s := newFlowScanner(t, config.DuplicateModeSkip, g, []history.Record{
		asRecord(0, itemMeta(0)),
	})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// The unprobeable card must be treated as new content.
	opened := false
	for _, idx := range g.opened {
		if idx == 1 {
			opened = true
		}
	}
	if !opened {
		t.Errorf("Expected resume at the unprobeable card, opened %v", g.opened)
	}
	if summary.StoppedBy != StopEndOfGallery {
		t.Errorf("Expected run to finish the gallery, got %q", summary.StoppedBy)
	}
}

func TestScanner_StopFlagHonored(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1)}}
	s := newFlowScanner(t, config.DuplicateModeFinish, g, nil)
	s.RequestStop()

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.StoppedBy != StopRequested {
		t.Errorf("Expected %q, got %q", StopRequested, summary.StoppedBy)
	}
	if summary.ItemsScanned != 0 {
		t.Errorf("Stop before the run must scan nothing, got %d", summary.ItemsScanned)
	}
}

func TestScanner_SummaryCarriesCheckpoint(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(5)}}
	// Newest generation date first: the checkpoint follows dates, not
	// file order.
	s := newFlowScanner(t, config.DuplicateModeFinish, g, []history.Record{
		asRecord(2, itemMeta(2)),
		asRecord(0, itemMeta(0)),
	})

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Checkpoint == nil {
		t.Fatal("Expected the summary to carry the resume checkpoint")
	}
	if summary.Checkpoint.FileID != "#000000003" {
		t.Errorf("Checkpoint must be the newest entry by date, got %q", summary.Checkpoint.FileID)
	}
	if summary.Checkpoint.GenerationDate != itemMeta(2).GenerationDate {
		t.Errorf("Unexpected checkpoint date: %q", summary.Checkpoint.GenerationDate)
	}
}

func TestScanner_EmptyLogHasNoCheckpoint(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0)}}
	s := newFlowScanner(t, config.DuplicateModeFinish, g, nil)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Checkpoint != nil {
		t.Errorf("Empty log must yield no checkpoint, got %+v", summary.Checkpoint)
	}
}

func TestScanner_BoundaryScanSkipsCheckpointMatch(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1), itemMeta(2)}}
	// itemMeta(1) has the newest date and becomes the checkpoint.
	s := newFlowScanner(t, config.DuplicateModeSkip, g, []history.Record{
		asRecord(0, itemMeta(0)),
		asRecord(1, itemMeta(1)),
	})
	if s.checkpoint == nil || s.checkpoint.GenerationDate != itemMeta(1).GenerationDate {
		t.Fatalf("Expected itemMeta(1) as checkpoint, got %+v", s.checkpoint)
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// The checkpoint card is skipped by the boundary scan; item 2 is new.
	if summary.NewItems != 1 || summary.StoppedBy != StopEndOfGallery {
		t.Errorf("Expected item 2 as new content, got %+v", summary)
	}
	for _, idx := range g.opened {
		if idx == 1 {
			t.Error("The checkpoint card must be skipped via probes, not opened")
		}
	}
}

func TestScanner_StopDuringBoundaryScan(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1)}}
	s := newFlowScanner(t, config.DuplicateModeSkip, g, []history.Record{
		asRecord(0, itemMeta(0)),
		asRecord(1, itemMeta(1)),
	})
	inner := s.extractItem
	s.extractItem = func(ctx context.Context, index int) *extract.Metadata {
		s.RequestStop()
		return inner(ctx, index)
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.StoppedBy != StopRequested {
		t.Errorf("A stop during the boundary scan is a stop, not exhaustion: got %q", summary.StoppedBy)
	}
}

func TestScanner_CancelDuringBoundaryScan(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1)}}
	s := newFlowScanner(t, config.DuplicateModeSkip, g, []history.Record{
		asRecord(0, itemMeta(0)),
		asRecord(1, itemMeta(1)),
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inner := s.extractItem
	s.extractItem = func(ctx context.Context, index int) *extract.Metadata {
		cancel()
		return inner(ctx, index)
	}

	summary, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.StoppedBy != StopContextDone {
		t.Errorf("Cancellation during the boundary scan must be reported as such, got %q", summary.StoppedBy)
	}
}

func TestScanner_ItemNotifierCalledPerItem(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1), itemMeta(2)}}
	s := newFlowScanner(t, config.DuplicateModeFinish, g, nil)

	notified := 0
	s.SetItemNotifier(func() { notified++ })

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if notified != summary.ItemsScanned {
		t.Errorf("Notifier must fire once per item: %d calls for %d items", notified, summary.ItemsScanned)
	}
}

func TestScanner_SentinelMetadataCountsAsFailure(t *testing.T) {
	g := &fakeGallery{items: []Probe{{}}}
	s := newFlowScanner(t, config.DuplicateModeFinish, g, nil)

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failures != 1 {
		t.Errorf("Sentinel metadata must count as a failure, got %+v", summary)
	}
	if summary.Duplicates != 0 {
		t.Error("Failed extraction must never register as a duplicate")
	}
	if summary.StoppedBy != StopEndOfGallery {
		t.Errorf("A failed item must not end the run, got %q", summary.StoppedBy)
	}
}

func TestScanner_MaxItemsLimit(t *testing.T) {
	g := &fakeGallery{items: []Probe{itemMeta(0), itemMeta(1), itemMeta(2)}}
	s := newFlowScanner(t, config.DuplicateModeFinish, g, nil)
	s.cfg.Scan.MaxItems = 2

	summary, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.ItemsScanned != 2 {
		t.Errorf("Expected max_items to cap the run at 2, got %d", summary.ItemsScanned)
	}
}
