// internal/history/sqlite.go
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Archive mirrors the JSONL log into a queryable SQLite database. The
// JSONL file stays the source of truth; the archive exists for ad-hoc
// querying and reporting over large histories.
type Archive struct {
	db     *sql.DB
	closed bool
}

// OpenArchive opens (creating if needed) the archive database.
func OpenArchive(path string) (*Archive, error) {
	if path == "" {
		return nil, fmt.Errorf("archive database path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 10000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	a := &Archive{db: db}
	if err := a.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) createSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_id TEXT NOT NULL,
			generation_date TEXT NOT NULL,
			prompt TEXT NOT NULL,
			download_timestamp TEXT NOT NULL,
			file_path TEXT,
			original_filename TEXT,
			file_size INTEGER,
			download_duration REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(file_id)
		)`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create archive schema: %w", err)
	}

	index := `CREATE INDEX IF NOT EXISTS idx_downloads_generation_date
		ON downloads (generation_date)`
	if _, err := a.db.Exec(index); err != nil {
		return fmt.Errorf("failed to create archive index: %w", err)
	}
	return nil
}

// Store inserts one record, ignoring records already archived.
func (a *Archive) Store(rec Record) error {
	if a.closed {
		return fmt.Errorf("archive is closed")
	}

	query := `
		INSERT OR IGNORE INTO downloads
			(file_id, generation_date, prompt, download_timestamp,
			 file_path, original_filename, file_size, download_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := a.db.Exec(query,
		rec.FileID, rec.GenerationDate, rec.Prompt, rec.DownloadTimestamp,
		rec.FilePath, rec.OriginalFilename, rec.FileSize, rec.DownloadDuration)
	if err != nil {
		return fmt.Errorf("failed to archive record %s: %w", rec.FileID, err)
	}
	return nil
}

// StoreAll archives records in one transaction.
func (a *Archive) StoreAll(records []Record) error {
	if a.closed {
		return fmt.Errorf("archive is closed")
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO downloads
			(file_id, generation_date, prompt, download_timestamp,
			 file_path, original_filename, file_size, download_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare archive insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(
			rec.FileID, rec.GenerationDate, rec.Prompt, rec.DownloadTimestamp,
			rec.FilePath, rec.OriginalFilename, rec.FileSize, rec.DownloadDuration); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to archive record %s: %w", rec.FileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}
	return nil
}

// Count returns the number of archived downloads.
func (a *Archive) Count() (int, error) {
	var count int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM downloads").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count archived downloads: %w", err)
	}
	return count, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}
