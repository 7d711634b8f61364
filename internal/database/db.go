package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"provenance_toolbox/internal/parser"
)

// ScanRecord is one stored verdict row.
type ScanRecord struct {
	Path          string `db:"file_path"`
	IsAIGenerated bool   `db:"is_ai_generated"`
	Tool          string `db:"tool"`
	Issuer        string `db:"issuer"`
	Action        string `db:"action"`
	Confidence    string `db:"confidence"`
	Warnings      string `db:"warnings"`
}

// RecordFromReport flattens an analysis report into its stored form.
func RecordFromReport(r parser.Report) ScanRecord {
	return ScanRecord{
		Path:          r.Path,
		IsAIGenerated: r.Verdict.IsAIGenerated,
		Tool:          r.Verdict.Tool,
		Issuer:        r.Verdict.Issuer,
		Action:        r.Verdict.Action,
		Confidence:    r.Verdict.Confidence.String(),
		Warnings:      strings.Join(r.Warnings, "\n"),
	}
}

const createTable = `
CREATE TABLE IF NOT EXISTS verdicts (
    file_path TEXT PRIMARY KEY,
    is_ai_generated BOOLEAN NOT NULL,
    tool TEXT,
    issuer TEXT,
    action TEXT,
    confidence TEXT NOT NULL,
    warnings TEXT
);`

// WithDB opens (or creates) the sqlite DB at dbPath, ensures the schema, and
// hands the connection to fn.
func WithDB(dbPath string, fn func(db *sqlx.DB) error) error {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open sqlite db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return fn(db)
}

// ExistingPaths returns the set of file paths already stored, so a rescan
// can skip them.
func ExistingPaths(db *sqlx.DB) (map[string]struct{}, error) {
	var paths []string
	if err := db.Select(&paths, "SELECT file_path FROM verdicts"); err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	return existing, nil
}

// InsertBatch upserts a batch of records in one statement.
func InsertBatch(db *sqlx.DB, batch []ScanRecord) error {
	if len(batch) == 0 {
		return nil
	}
	_, err := db.NamedExec(`INSERT OR REPLACE INTO verdicts
		(file_path, is_ai_generated, tool, issuer, action, confidence, warnings)
		VALUES (:file_path, :is_ai_generated, :tool, :issuer, :action, :confidence, :warnings)`,
		batch)
	return err
}

// GetRecord fetches one stored verdict by path.
func GetRecord(db *sqlx.DB, path string) (ScanRecord, error) {
	var rec ScanRecord
	err := db.Get(&rec, "SELECT * FROM verdicts WHERE file_path = ?", path)
	return rec, err
}
