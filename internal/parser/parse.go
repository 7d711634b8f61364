// Package parser runs the full provenance pipeline for one image:
// chunk reading, metadata extraction, then classification.
package parser

import (
	"fmt"
	"os"

	"provenance_toolbox/internal/classify"
	"provenance_toolbox/internal/extract"
	"provenance_toolbox/png"
)

// DefaultMaxFileSize bounds how large an input buffer the analyzer accepts.
// Scan cost is linear in file size, so this caps worst-case work per image.
const DefaultMaxFileSize = 64 << 20

// Report is the complete analysis of one image.
type Report struct {
	Path     string           `json:"path,omitempty"`
	Verdict  classify.Verdict `json:"verdict"`
	Entries  []extract.Entry  `json:"entries,omitempty"`
	Signals  []extract.Signal `json:"signals,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Analyzer holds the immutable signature table and scan limits. Safe for
// concurrent use; each analysis owns its own buffer.
type Analyzer struct {
	table       extract.SignatureTable
	maxFileSize int64
}

// New builds an analyzer. A maxFileSize of zero means DefaultMaxFileSize.
func New(table extract.SignatureTable, maxFileSize int64) *Analyzer {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Analyzer{table: table, maxFileSize: maxFileSize}
}

// Default returns an analyzer with the built-in signature table and limits.
func Default() *Analyzer {
	return New(extract.DefaultTable(), 0)
}

// Table exposes the analyzer's signature table.
func (a *Analyzer) Table() extract.SignatureTable {
	return a.table
}

// AnalyzeBytes produces a report for a PNG held in memory. A verdict is
// always produced when the buffer carries a valid PNG signature; only a
// malformed chunk boundary or a non-PNG input fails the analysis.
func (a *Analyzer) AnalyzeBytes(data []byte) (Report, error) {
	if int64(len(data)) > a.maxFileSize {
		return Report{}, fmt.Errorf("input of %d bytes exceeds limit of %d", len(data), a.maxFileSize)
	}
	chunks, err := png.ReadChunks(data)
	if err != nil {
		return Report{}, err
	}
	res := extract.Scan(chunks, a.table, a.maxFileSize)
	return Report{
		Verdict:  classify.Classify(res, a.table),
		Entries:  res.Entries,
		Signals:  res.Signals,
		Warnings: res.Warnings,
	}, nil
}

// AnalyzeFile reads a PNG from disk and analyzes it.
func (a *Analyzer) AnalyzeFile(path string) (Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("stat file: %w", err)
	}
	if info.Size() > a.maxFileSize {
		return Report{}, fmt.Errorf("%s is %d bytes, exceeds limit of %d", path, info.Size(), a.maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read file: %w", err)
	}
	report, err := a.AnalyzeBytes(data)
	if err != nil {
		return Report{}, fmt.Errorf("analyze %s: %w", path, err)
	}
	report.Path = path
	return report, nil
}
