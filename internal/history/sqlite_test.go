// internal/history/sqlite_test.go
package history

import (
	"path/filepath"
	"testing"
)

func TestArchive_StoreAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	archive, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	defer archive.Close()

	rec := Record{
		FileID:            "#000000001",
		GenerationDate:    "30 Aug 2025 05:11:29",
		Prompt:            "a prompt",
		DownloadTimestamp: "2025-08-30T05:12:00Z",
		FileSize:          2048,
		DownloadDuration:  1.2,
	}
	if err := archive.Store(rec); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Same file_id again is ignored, not an error.
	if err := archive.Store(rec); err != nil {
		t.Fatalf("Duplicate store must be ignored: %v", err)
	}

	count, err := archive.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 archived record, got %d", count)
	}
}

func TestArchive_StoreAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	archive, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	defer archive.Close()

	records := []Record{
		{FileID: "#000000001", GenerationDate: "29 Aug 2025 10:00:00", Prompt: "one", DownloadTimestamp: "2025-08-29T10:01:00Z"},
		{FileID: "#000000002", GenerationDate: "30 Aug 2025 05:11:29", Prompt: "two", DownloadTimestamp: "2025-08-30T05:12:00Z"},
	}
	if err := archive.StoreAll(records); err != nil {
		t.Fatalf("StoreAll failed: %v", err)
	}

	count, err := archive.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 archived records, got %d", count)
	}
}

func TestOpenArchive_RequiresPath(t *testing.T) {
	if _, err := OpenArchive(""); err == nil {
		t.Error("Expected an error for an empty path")
	}
}
