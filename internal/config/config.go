// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel values substituted when extraction fails outright.
const (
	UnknownDate   = "Unknown Date"
	UnknownPrompt = "Unknown Prompt"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// envVarPattern matches ${VAR} and ${VAR:-default} references.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandEnvironmentVariables substitutes ${VAR} and ${VAR:-default}
// references with values from the process environment.
func expandEnvironmentVariables(data string) string {
	return envVarPattern.ReplaceAllStringFunc(data, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return groups[2]
	})
}

// applyDefaults fills in defaults for omitted settings.
func applyDefaults(cfg *Config) {
	if cfg.Extraction.CreationTimeText == "" {
		cfg.Extraction.CreationTimeText = "Creation Time"
	}
	if cfg.Extraction.ImageToVideoText == "" {
		cfg.Extraction.ImageToVideoText = "Image to video"
	}
	if cfg.Extraction.PromptEllipsisPattern == "" {
		cfg.Extraction.PromptEllipsisPattern = "..."
	}
	if cfg.Extraction.QualityThreshold == 0 {
		cfg.Extraction.QualityThreshold = 0.6
	}
	if cfg.Extraction.ElementTimeout == 0 {
		cfg.Extraction.ElementTimeout = 5 * time.Second
	}

	if cfg.Duplicates.Mode == "" {
		cfg.Duplicates.Mode = DuplicateModeFinish
	}
	if cfg.Duplicates.PromptPrefixLength == 0 {
		cfg.Duplicates.PromptPrefixLength = 50
	}

	if cfg.History.LogPath == "" {
		cfg.History.LogPath = "downloads.jsonl"
	}

	if cfg.Browser.ViewportWidth == 0 {
		cfg.Browser.ViewportWidth = 1920
	}
	if cfg.Browser.ViewportHeight == 0 {
		cfg.Browser.ViewportHeight = 1080
	}
	if cfg.Browser.NavigateTimeout == 0 {
		cfg.Browser.NavigateTimeout = 30 * time.Second
	}

	if cfg.Monitoring.Enabled && cfg.Monitoring.ListenAddress == "" {
		cfg.Monitoring.ListenAddress = ":9090"
	}

	if cfg.Scan.ProbesPerSecond == 0 {
		cfg.Scan.ProbesPerSecond = 10
	}
	if cfg.Scan.ThumbnailSelector == "" {
		cfg.Scan.ThumbnailSelector = ".gallery-item"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.GalleryURL == "" {
		return fmt.Errorf("gallery_url is required")
	}

	if c.Extraction.QualityThreshold < 0 || c.Extraction.QualityThreshold > 1 {
		return fmt.Errorf("quality_threshold must be between 0 and 1, got %v", c.Extraction.QualityThreshold)
	}

	if !c.Extraction.UseLandmarkExtraction && !c.Extraction.FallbackToLegacy {
		return fmt.Errorf("at least one extraction strategy must be enabled")
	}

	if c.Extraction.FallbackToLegacy &&
		len(c.Extraction.LegacyDateSelectors) == 0 &&
		len(c.Extraction.LegacyPromptSelectors) == 0 {
		return fmt.Errorf("fallback_to_legacy requires legacy selectors")
	}

	switch c.Duplicates.Mode {
	case DuplicateModeSkip, DuplicateModeFinish:
	default:
		return fmt.Errorf("duplicate mode must be %q or %q, got %q",
			DuplicateModeSkip, DuplicateModeFinish, c.Duplicates.Mode)
	}

	if c.Duplicates.PromptPrefixLength < 0 {
		return fmt.Errorf("prompt_prefix_length must be non-negative, got %d", c.Duplicates.PromptPrefixLength)
	}

	if c.Scan.MaxItems < 0 {
		return fmt.Errorf("max_items must be non-negative, got %d", c.Scan.MaxItems)
	}
	if c.Scan.ProbesPerSecond < 0 {
		return fmt.Errorf("probes_per_second must be non-negative, got %v", c.Scan.ProbesPerSecond)
	}

	if c.Report.Format != "" {
		switch c.Report.Format {
		case "json", "csv", "excel":
		default:
			return fmt.Errorf("unsupported report format: %s", c.Report.Format)
		}
		if c.Report.Path == "" {
			return fmt.Errorf("report path is required when format is set")
		}
	}

	return nil
}

// GenerateTemplate returns a configuration pre-filled with working defaults,
// suitable for writing out as a starting point.
func GenerateTemplate() *Config {
	cfg := &Config{
		Name:       "gallery-scan",
		GalleryURL: "https://example.com/gallery",
		Extraction: ExtractionConfig{
			UseLandmarkExtraction: true,
			FallbackToLegacy:      true,
			LegacyDateSelectors:   []string{".creation-date", "[data-testid='creation-time']"},
			LegacyPromptSelectors: []string{".prompt-text", "[aria-describedby]"},
		},
		Duplicates: DuplicateConfig{Mode: DuplicateModeFinish},
	}
	applyDefaults(cfg)
	return cfg
}
