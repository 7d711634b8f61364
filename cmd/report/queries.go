package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Aggregation models
type Summary struct {
	Total       int `db:"total"`
	AIGenerated int `db:"ai_generated"`
	Strong      int `db:"strong"`
	Weak        int `db:"weak"`
}

type ToolCount struct {
	Tool  string `db:"tool"`
	Count int    `db:"count"`
}

type IssuerCount struct {
	Issuer string `db:"issuer"`
	Count  int    `db:"count"`
}

// attachStatement builds the ATTACH for the sqlite verdict store. ATTACH
// does not take bind parameters, so single quotes in the path are doubled.
func attachStatement(sqlitePath string) string {
	escaped := strings.ReplaceAll(sqlitePath, "'", "''")
	return fmt.Sprintf("ATTACH '%s' AS verdicts_db (TYPE sqlite, READ_ONLY);", escaped)
}

// attachVerdicts mounts the sqlite verdict store into the duckdb session.
func attachVerdicts(ctx context.Context, db *sqlx.DB, sqlitePath string) error {
	if _, err := db.ExecContext(ctx, attachStatement(sqlitePath)); err != nil {
		return err
	}
	return nil
}

func Summarize(ctx context.Context, db *sqlx.DB) (Summary, error) {
	var s Summary
	err := db.GetContext(ctx, &s, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_ai_generated) AS ai_generated,
			COUNT(*) FILTER (WHERE confidence = 'strong') AS strong,
			COUNT(*) FILTER (WHERE confidence = 'weak') AS weak
		FROM verdicts_db.verdicts`)
	return s, err
}

func CountByTool(ctx context.Context, db *sqlx.DB) ([]ToolCount, error) {
	var counts []ToolCount
	err := db.SelectContext(ctx, &counts, `
		SELECT tool, COUNT(*) AS count
		FROM verdicts_db.verdicts
		WHERE tool != ''
		GROUP BY tool
		ORDER BY count DESC`)
	return counts, err
}

func CountByIssuer(ctx context.Context, db *sqlx.DB) ([]IssuerCount, error) {
	var counts []IssuerCount
	err := db.SelectContext(ctx, &counts, `
		SELECT issuer, COUNT(*) AS count
		FROM verdicts_db.verdicts
		WHERE issuer != ''
		GROUP BY issuer
		ORDER BY count DESC`)
	return counts, err
}
