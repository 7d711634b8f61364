package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"provenance_toolbox/internal/config"
	"provenance_toolbox/internal/database"
	"provenance_toolbox/internal/extract"
	"provenance_toolbox/internal/parser"
	"provenance_toolbox/png"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "Path to a PNG file to examine")
	dbpath := flag.String("db", "", "Path to a verdicts sqlite database")
	record := flag.String("path", "", "File path of a stored verdict to look up (with -db)")
	configPath := flag.String("config", "", "Path to a yaml config file")
	flag.Parse()

	if *file == "" && *dbpath == "" {
		flag.Usage()
		return fmt.Errorf("missing file or database")
	}

	if *file != "" {
		return examineFile(*file, *configPath)
	}
	if *record == "" {
		flag.Usage()
		return fmt.Errorf("database mode needs -path")
	}
	return examineRecord(*dbpath, *record)
}

// examineFile dumps everything the pipeline sees: the chunk inventory, the
// decoded metadata entries, signature hits, and the final verdict.
func examineFile(file, configPath string) error {
	k, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	analyzer := parser.New(config.SignatureTable(k), k.Int64(config.ScanMaxFileSizeKey))

	report, err := analyzer.AnalyzeFile(file)
	if err != nil {
		return fmt.Errorf("error analyzing file: %w", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	chunks, err := png.ReadChunks(data)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n\nChunks:\n", file)
	for _, c := range chunks {
		line := fmt.Sprintf("  %s  offset=%d  length=%d", c.Type, c.Offset, len(c.Data))
		if !c.CRCValid {
			line += "  (crc mismatch)"
		}
		fmt.Println(line)
		if c.Type == png.ChunkC2PA {
			for _, tok := range extract.VendorTokens(c.Data) {
				fmt.Printf("    token: %s\n", tok)
			}
		}
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("\nReport:\n%s\n", out)
	return nil
}

func examineRecord(dbpath, path string) error {
	return database.WithDB(dbpath, func(db *sqlx.DB) error {
		rec, err := database.GetRecord(db, path)
		if err != nil {
			return fmt.Errorf("error fetching verdict: %w", err)
		}
		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", out)
		return nil
	})
}
