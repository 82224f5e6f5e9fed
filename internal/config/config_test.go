// internal/config/config_test.go
package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const validYAML = `
name: test-scan
gallery_url: https://example.com/gallery
extraction:
  use_landmark_extraction: true
duplicates:
  mode: skip
`

func TestLoadFromBytes_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Extraction.CreationTimeText != "Creation Time" {
		t.Errorf("Expected default creation_time_text, got %q", cfg.Extraction.CreationTimeText)
	}
	if cfg.Extraction.QualityThreshold != 0.6 {
		t.Errorf("Expected default quality_threshold 0.6, got %v", cfg.Extraction.QualityThreshold)
	}
	if cfg.Duplicates.Mode != DuplicateModeSkip {
		t.Errorf("Expected skip mode, got %q", cfg.Duplicates.Mode)
	}
	if cfg.Duplicates.PromptPrefixLength != 50 {
		t.Errorf("Expected default prefix length 50, got %d", cfg.Duplicates.PromptPrefixLength)
	}
	if cfg.Browser.NavigateTimeout != 30*time.Second {
		t.Errorf("Expected default navigate timeout, got %v", cfg.Browser.NavigateTimeout)
	}
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing gallery URL",
			yaml:    "name: x\nextraction:\n  use_landmark_extraction: true\n",
			wantErr: "gallery_url",
		},
		{
			name:    "no strategies enabled",
			yaml:    "gallery_url: https://example.com\n",
			wantErr: "at least one extraction strategy",
		},
		{
			name: "quality threshold out of range",
			yaml: "gallery_url: https://example.com\nextraction:\n  use_landmark_extraction: true\n  quality_threshold: 1.5\n",
			wantErr: "quality_threshold",
		},
		{
			name:    "report format without path",
			yaml:    validYAML + "report:\n  format: json\n",
			wantErr: "report path",
		},
		{
			name:    "unsupported report format",
			yaml:    validYAML + "report:\n  format: parquet\n  path: out.parquet\n",
			wantErr: "unsupported report format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromBytes_BadDuplicateMode(t *testing.T) {
	yaml := "gallery_url: https://example.com\nextraction:\n  use_landmark_extraction: true\nduplicates:\n  mode: purge\n"
	_, err := LoadFromBytes([]byte(yaml))
	if err == nil || !strings.Contains(err.Error(), "duplicate mode") {
		t.Fatalf("Expected duplicate mode error, got: %v", err)
	}
}

func TestExpandEnvironmentVariables(t *testing.T) {
	os.Setenv("PROMPTHARVEST_TEST_URL", "https://env.example.com")
	defer os.Unsetenv("PROMPTHARVEST_TEST_URL")

	yaml := "gallery_url: ${PROMPTHARVEST_TEST_URL}\nextraction:\n  use_landmark_extraction: true\nhistory:\n  log_path: ${PROMPTHARVEST_TEST_MISSING:-fallback.jsonl}\n"
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GalleryURL != "https://env.example.com" {
		t.Errorf("Expected env expansion, got %q", cfg.GalleryURL)
	}
	if cfg.History.LogPath != "fallback.jsonl" {
		t.Errorf("Expected default expansion, got %q", cfg.History.LogPath)
	}
}

func TestGenerateTemplate(t *testing.T) {
	cfg := GenerateTemplate()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Template should validate: %v", err)
	}
}
