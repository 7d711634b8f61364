package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"

	"provenance_toolbox/internal/config"
)

func main() {
	if err := runMain(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func runMain() error {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	dbpath := flag.String("db", "", "Path to the verdicts sqlite database")
	configPath := flag.String("config", "", "Path to a yaml config file")
	flag.Parse()

	k, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sqlitePath := *dbpath
	if sqlitePath == "" {
		sqlitePath = k.String(config.DBPathKey)
	}
	if _, err := os.Stat(sqlitePath); err != nil {
		return fmt.Errorf("verdicts database: %w", err)
	}

	// In-memory duckdb session; the sqlite verdict store is attached
	// read-only for analytics.
	db, err := sqlx.Open("duckdb", "")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := attachVerdicts(ctx, db, sqlitePath); err != nil {
		return fmt.Errorf("attach verdicts db: %w", err)
	}

	summary, err := Summarize(ctx, db)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	logger.Info("scan totals",
		"total", summary.Total,
		"ai_generated", summary.AIGenerated,
		"strong", summary.Strong,
		"weak", summary.Weak)

	toolCounts, err := CountByTool(ctx, db)
	if err != nil {
		return fmt.Errorf("count by tool: %w", err)
	}
	for _, tc := range toolCounts {
		logger.Info("tool", "name", tc.Tool, "images", tc.Count)
	}

	issuerCounts, err := CountByIssuer(ctx, db)
	if err != nil {
		return fmt.Errorf("count by issuer: %w", err)
	}
	for _, ic := range issuerCounts {
		logger.Info("issuer", "name", ic.Issuer, "images", ic.Count)
	}

	return nil
}
