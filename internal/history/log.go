// internal/history/log.go

// Package history persists and queries the download log: an append-only
// JSONL file with one record per completed download. The log is loaded
// into memory once per run; duplicate checks and checkpoint computation
// never touch the file again.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/promptharvest/promptharvest/internal/utils"
	"github.com/promptharvest/promptharvest/internal/validate"
)

// Record is one persisted download. Records are created at download
// completion and never mutated afterwards.
type Record struct {
	FileID            string  `json:"file_id"`
	GenerationDate    string  `json:"generation_date"`
	Prompt            string  `json:"prompt"`
	DownloadTimestamp string  `json:"download_timestamp"`
	FilePath          string  `json:"file_path,omitempty"`
	OriginalFilename  string  `json:"original_filename,omitempty"`
	FileSize          int64   `json:"file_size,omitempty"`
	DownloadDuration  float64 `json:"download_duration,omitempty"`
}

// NormalizeDate canonicalizes a generation date for comparison: trimmed
// and NFC-normalized, compared as an exact string. Dates are not parsed
// for equality because the gallery's textual format is the identity.
func NormalizeDate(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// NormalizePrompt canonicalizes a prompt for prefix comparison.
func NormalizePrompt(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// Log is the in-memory view of the download log file. It is owned by a
// single run; concurrent use requires external synchronization.
type Log struct {
	path    string
	logger  utils.Logger
	records []Record

	// byDate indexes record positions by normalized generation date so
	// duplicate checks stay flat even against tens of thousands of
	// entries.
	byDate map[string][]int

	loadDuration time.Duration
	skipped      int
}

// Open loads the log file at path. A missing file yields an empty log;
// malformed lines are skipped with a warning and counted, never fatal.
func Open(path string, logger utils.Logger) (*Log, error) {
	l := &Log{
		path:   path,
		logger: logger,
		byDate: make(map[string][]int),
	}

	start := time.Now()
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("path", path).Debug("no existing download log, starting empty")
			return l, nil
		}
		return nil, utils.WrapError(utils.ErrCodeHistoryIO, "failed to open download log", err).
			WithContext("path", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			l.skipped++
			logger.WithFields(map[string]interface{}{
				"path": path,
				"line": lineNo,
			}).Warnf("skipping malformed log line: %v", err)
			continue
		}
		l.index(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, utils.WrapError(utils.ErrCodeHistoryIO, "failed to read download log", err).
			WithContext("path", path)
	}

	l.loadDuration = time.Since(start)
	logger.WithFields(map[string]interface{}{
		"path":     path,
		"records":  len(l.records),
		"skipped":  l.skipped,
		"duration": l.loadDuration.String(),
	}).Info("download log loaded")

	return l, nil
}

func (l *Log) index(rec Record) {
	pos := len(l.records)
	l.records = append(l.records, rec)
	key := NormalizeDate(rec.GenerationDate)
	l.byDate[key] = append(l.byDate[key], pos)
}

// Append persists one record as a single JSON line. The line is written
// in one call so a crash mid-run never corrupts earlier entries, and the
// in-memory index is updated in the same step.
func (l *Log) Append(rec Record) error {
	if rec.DownloadTimestamp == "" {
		rec.DownloadTimestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return utils.WrapError(utils.ErrCodeHistoryIO, "failed to encode log record", err)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.WrapError(utils.ErrCodeHistoryIO, "failed to create log directory", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return utils.WrapError(utils.ErrCodeHistoryIO, "failed to open download log for append", err).
			WithContext("path", l.path)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return utils.WrapError(utils.ErrCodeHistoryIO, "failed to append log record", err).
			WithContext("path", l.path)
	}

	l.index(rec)
	return nil
}

// Len returns the number of loaded records.
func (l *Log) Len() int {
	return len(l.records)
}

// Records returns all loaded records in file order.
func (l *Log) Records() []Record {
	return l.records
}

// Skipped returns the count of malformed lines dropped during load.
func (l *Log) Skipped() int {
	return l.skipped
}

// LoadDuration reports how long the initial file load took.
func (l *Log) LoadDuration() time.Duration {
	return l.loadDuration
}

// ByDate returns all records whose generation date equals the given one
// under normalization.
func (l *Log) ByDate(date string) []Record {
	positions := l.byDate[NormalizeDate(date)]
	if len(positions) == 0 {
		return nil
	}
	matches := make([]Record, 0, len(positions))
	for _, pos := range positions {
		matches = append(matches, l.records[pos])
	}
	return matches
}

// NextFileID returns the sequential identifier for the next record, in
// the log's #-prefixed zero-padded convention.
func (l *Log) NextFileID() string {
	return fmt.Sprintf("#%09d", len(l.records)+1)
}

// Checkpoint is the resume marker: the most recent entry by generation
// date. It is derived from the log on demand, never stored separately.
type Checkpoint struct {
	GenerationDate string `json:"generation_date"`
	Prompt         string `json:"prompt"`
	FileID         string `json:"file_id"`
}

// Checkpoint computes the current resume marker. Records whose dates do
// not parse are ignored; when nothing parses the newest file-order entry
// is used so a log of unparseable dates still yields a marker.
func (l *Log) Checkpoint() (Checkpoint, bool) {
	if len(l.records) == 0 {
		return Checkpoint{}, false
	}

	bestIdx := -1
	var bestTime time.Time
	for i, rec := range l.records {
		t, err := validate.ParseDate(rec.GenerationDate)
		if err != nil {
			continue
		}
		if bestIdx < 0 || t.After(bestTime) {
			bestIdx = i
			bestTime = t
		}
	}
	if bestIdx < 0 {
		bestIdx = len(l.records) - 1
	}

	rec := l.records[bestIdx]
	return Checkpoint{
		GenerationDate: rec.GenerationDate,
		Prompt:         rec.Prompt,
		FileID:         rec.FileID,
	}, true
}
