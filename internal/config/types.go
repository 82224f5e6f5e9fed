// internal/config/types.go

// Package config provides configuration types for promptharvest. It defines
// the anchor literals and selectors used by metadata extraction, the
// duplicate handling policy, browser settings, and output options.
package config

import (
	"time"
)

// DuplicateMode selects detector behavior when an already-downloaded item
// is encountered during a scan.
type DuplicateMode string

const (
	// DuplicateModeSkip recovers past the duplicate run and keeps scanning.
	DuplicateModeSkip DuplicateMode = "skip"

	// DuplicateModeFinish stops the scan on the first duplicate, assuming
	// the gallery is sorted newest-first.
	DuplicateModeFinish DuplicateMode = "finish"
)

// Config is the top-level configuration for a scan run.
type Config struct {
	// Name identifies this configuration
	Name string `yaml:"name" json:"name"`

	// GalleryURL is the gallery page to scan
	GalleryURL string `yaml:"gallery_url" json:"gallery_url"`

	// Extraction holds anchor literals and fallback selectors
	Extraction ExtractionConfig `yaml:"extraction" json:"extraction"`

	// Duplicates configures the duplicate detector
	Duplicates DuplicateConfig `yaml:"duplicates" json:"duplicates"`

	// History configures the persisted download log
	History HistoryConfig `yaml:"history" json:"history"`

	// Browser configures the chromedp driver
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Report configures the session report output
	Report ReportConfig `yaml:"report" json:"report"`

	// Monitoring configures metrics and health endpoints
	Monitoring MonitoringConfig `yaml:"monitoring" json:"monitoring"`

	// Scan configures pacing and limits for the scan loop
	Scan ScanConfig `yaml:"scan,omitempty" json:"scan,omitempty"`

	// LogLevel sets logger verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// ExtractionConfig defines the landmark anchors, truncation marker, and
// legacy CSS selectors used by the strategy chain.
type ExtractionConfig struct {
	// CreationTimeText is the literal anchor next to the timestamp value
	CreationTimeText string `yaml:"creation_time_text" json:"creation_time_text"`

	// ImageToVideoText is the literal anchor identifying a generation panel
	ImageToVideoText string `yaml:"image_to_video_text" json:"image_to_video_text"`

	// PromptEllipsisPattern marks CSS-truncated prompt text
	PromptEllipsisPattern string `yaml:"prompt_ellipsis_pattern" json:"prompt_ellipsis_pattern"`

	// UseLandmarkExtraction enables the landmark strategy
	UseLandmarkExtraction bool `yaml:"use_landmark_extraction" json:"use_landmark_extraction"`

	// FallbackToLegacy enables the CSS fallback strategy
	FallbackToLegacy bool `yaml:"fallback_to_legacy" json:"fallback_to_legacy"`

	// LegacyDateSelectors are brittle last-resort selectors for the date
	LegacyDateSelectors []string `yaml:"legacy_date_selectors,omitempty" json:"legacy_date_selectors,omitempty"`

	// LegacyPromptSelectors are brittle last-resort selectors for the prompt
	LegacyPromptSelectors []string `yaml:"legacy_prompt_selectors,omitempty" json:"legacy_prompt_selectors,omitempty"`

	// QualityThreshold is the confidence a result must clear to be accepted
	QualityThreshold float64 `yaml:"quality_threshold" json:"quality_threshold"`

	// ElementTimeout bounds every individual DOM call
	ElementTimeout time.Duration `yaml:"element_timeout" json:"element_timeout"`
}

// DuplicateConfig configures duplicate detection.
type DuplicateConfig struct {
	// Mode selects skip or finish behavior
	Mode DuplicateMode `yaml:"mode" json:"mode"`

	// PromptPrefixLength is how many prompt characters must match
	PromptPrefixLength int `yaml:"prompt_prefix_length" json:"prompt_prefix_length"`
}

// HistoryConfig configures the persisted download log.
type HistoryConfig struct {
	// LogPath is the append-only JSONL download log
	LogPath string `yaml:"log_path" json:"log_path"`

	// ArchivePath is an optional SQLite mirror of the log; empty disables it
	ArchivePath string `yaml:"archive_path,omitempty" json:"archive_path,omitempty"`
}

// BrowserConfig defines chromedp driver settings.
type BrowserConfig struct {
	Headless        bool          `yaml:"headless" json:"headless"`
	UserDataDir     string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	UserAgent       string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewportWidth   int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight  int           `yaml:"viewport_height" json:"viewport_height"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout" json:"navigate_timeout"`
	WaitDelay       time.Duration `yaml:"wait_delay,omitempty" json:"wait_delay,omitempty"`
	DisableImages   bool          `yaml:"disable_images" json:"disable_images"`
}

// ReportConfig defines session report output settings.
type ReportConfig struct {
	// Format of the report (json, csv, excel); empty disables reporting
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// Path where to write the report
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// MonitoringConfig defines metrics and health endpoint settings.
type MonitoringConfig struct {
	// Enabled turns the HTTP endpoint on
	Enabled bool `yaml:"enabled" json:"enabled"`

	// ListenAddress for /metrics and /healthz
	ListenAddress string `yaml:"listen_address,omitempty" json:"listen_address,omitempty"`
}

// ScanConfig bundles pacing and stop settings for the scan loop.
type ScanConfig struct {
	// MaxItems limits how many gallery items a run processes; 0 is unlimited
	MaxItems int `yaml:"max_items,omitempty" json:"max_items,omitempty"`

	// ProbesPerSecond paces boundary-scan metadata probes
	ProbesPerSecond float64 `yaml:"probes_per_second,omitempty" json:"probes_per_second,omitempty"`

	// ThumbnailSelector matches the gallery's item containers
	ThumbnailSelector string `yaml:"thumbnail_selector,omitempty" json:"thumbnail_selector,omitempty"`
}
