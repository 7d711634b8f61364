package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/knadh/koanf/v2"

	"provenance_toolbox/internal/client"
	"provenance_toolbox/internal/config"
	"provenance_toolbox/internal/database"
	"provenance_toolbox/internal/llm"
	"provenance_toolbox/internal/parser"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

const (
	batchSize = 25
)

func run() error {
	file := flag.String("file", "", "Path to a PNG file")
	dir := flag.String("dir", "", "Path to a directory containing PNG files")
	dbpath := flag.String("db", "", "Path to the verdicts sqlite database")
	configPath := flag.String("config", "", "Path to a yaml config file")
	secretsPath := flag.String("secrets", "", "Path to a yaml secrets file")
	jsonOut := flag.Bool("json", false, "Print the full report as JSON (single file mode)")
	explain := flag.Bool("explain", false, "Ask the configured LLM for a summary (single file mode)")
	submit := flag.Bool("submit", false, "Submit the verdict to the provenance registry (single file mode)")
	flag.Parse()

	if *file == "" && *dir == "" {
		flag.Usage()
		return fmt.Errorf("missing file or directory")
	}
	if *file != "" && *dir != "" {
		flag.Usage()
		return fmt.Errorf("please provide either a file or directory, not both")
	}

	k, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(k.String(config.LogLevelKey))

	analyzer := parser.New(config.SignatureTable(k), k.Int64(config.ScanMaxFileSizeKey))

	if *file != "" {
		return scanFileCommand(analyzer, k, *file, *secretsPath, *jsonOut, *explain, *submit)
	}
	return scanDirectoryCommand(analyzer, k, *dir, *dbpath)
}

func setupLogger(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
}

func scanFileCommand(analyzer *parser.Analyzer, k *koanf.Koanf, file, secretsPath string, jsonOut, explain, submit bool) error {
	report, err := analyzer.AnalyzeFile(file)
	if err != nil {
		return fmt.Errorf("error analyzing file: %w", err)
	}

	if jsonOut {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		printReport(report)
	}

	if explain {
		secrets, err := config.LoadSecrets(secretsPath)
		if err != nil {
			return fmt.Errorf("load secrets: %w", err)
		}
		if secrets.LLMAPIKey() == "" {
			return fmt.Errorf("explain requires LLM_API_KEY in the secrets file")
		}
		summary, err := llm.NewClient(secrets.LLMAPIKey(), secrets.LLMBaseURL()).
			ExplainReport(context.Background(), report)
		if err != nil {
			return fmt.Errorf("llm summary: %w", err)
		}
		fmt.Printf("\nSummary: %s\n", summary)
	}

	if submit {
		url := k.String(config.RegistryURLKey)
		if url == "" {
			return fmt.Errorf("submit requires registry.url in the config")
		}
		c := &client.RegistryClient{BaseURL: url}
		c.Init()
		if err := c.SubmitVerdict(context.Background(), report); err != nil {
			return fmt.Errorf("submit verdict: %w", err)
		}
		slog.Info("verdict submitted", "path", report.Path, "registry", url)
	}
	return nil
}

func printReport(report parser.Report) {
	v := report.Verdict
	fmt.Printf("File: %s\n", report.Path)
	fmt.Printf("AI generated: %v (confidence: %s)\n", v.IsAIGenerated, v.Confidence)
	if v.Tool != "" {
		fmt.Printf("Tool: %s\n", v.Tool)
	}
	if v.Issuer != "" {
		fmt.Printf("Issuer: %s\n", v.Issuer)
	}
	if v.Action != "" {
		fmt.Printf("Action: %s\n", v.Action)
	}
	for _, w := range report.Warnings {
		slog.Warn("scan warning", "detail", w)
	}
}

func getPngPaths(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".png") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no .png files found in %s", root)
	}
	return paths, nil
}

type fileResult struct {
	database.ScanRecord
	err error
}

func scanDirectoryCommand(analyzer *parser.Analyzer, k *koanf.Koanf, root, dbpath string) error {
	paths, err := getPngPaths(root)
	if err != nil {
		return fmt.Errorf("error getting PNG paths: %w", err)
	}

	dbPath := dbpath
	if dbPath == "" {
		dbPath = filepath.Join(root, k.String(config.DBPathKey))
	}

	workers := k.Int(config.ScanWorkersKey)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return database.WithDB(dbPath, func(db *sqlx.DB) error {
		return scanDirectory(analyzer, paths, db, workers)
	})
}

func scanDirectory(analyzer *parser.Analyzer, paths []string, db *sqlx.DB, workers int) error {
	existing, err := database.ExistingPaths(db)
	if err != nil {
		return fmt.Errorf("error retrieving existing files: %w", err)
	}

	// Skip files already scanned.
	var filesToProcess []string
	for _, path := range paths {
		if _, ok := existing[path]; !ok {
			filesToProcess = append(filesToProcess, path)
		}
	}

	skipped := len(paths) - len(filesToProcess)
	fmt.Printf("Found %d files, skipping %d already scanned files, processing %d new files\n",
		len(paths), skipped, len(filesToProcess))

	if len(filesToProcess) == 0 {
		fmt.Println("All files are already scanned.")
		return nil
	}

	filesCh := make(chan string)
	resultsCh := make(chan fileResult)

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for path := range filesCh {
			report, err := analyzer.AnalyzeFile(path)
			rec := database.RecordFromReport(report)
			rec.Path = path
			resultsCh <- fileResult{ScanRecord: rec, err: err}
		}
	}
	wg.Add(workers)
	for range workers {
		go worker()
	}

	go func() {
		for _, p := range filesToProcess {
			filesCh <- p
		}
		close(filesCh)
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	processed := 0
	batch := make([]database.ScanRecord, 0, batchSize)
	for res := range resultsCh {
		processed++
		if res.err != nil {
			slog.Error("error processing file", "path", res.Path, "err", res.err)
		} else {
			batch = append(batch, res.ScanRecord)
		}

		if len(batch) >= batchSize {
			if err := database.InsertBatch(db, batch); err != nil {
				slog.Error("failed to insert batch", "err", err)
			}
			batch = batch[:0]
		}
		fmt.Printf("\rProcessed %d/%d new files", processed, len(filesToProcess))
	}

	if len(batch) > 0 {
		if err := database.InsertBatch(db, batch); err != nil {
			slog.Error("failed to insert batch", "err", err)
		}
	}

	fmt.Println("\nDone.")
	return nil
}
