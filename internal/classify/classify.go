// Package classify turns extracted metadata and signature hits into a
// provenance verdict for one image.
package classify

import (
	"strings"

	"provenance_toolbox/internal/extract"
)

// Confidence grades how much evidence backs a verdict.
type Confidence int

const (
	None Confidence = iota
	Weak
	Strong
)

func (c Confidence) String() string {
	switch c {
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	}
	return "none"
}

// Verdict is the final judgment for one image. Derived, never persisted by
// this package; deterministic for a given extraction result.
type Verdict struct {
	IsAIGenerated bool       `json:"is_ai_generated"`
	Tool          string     `json:"tool,omitempty"`
	Issuer        string     `json:"issuer,omitempty"`
	Action        string     `json:"action,omitempty"`
	Confidence    Confidence `json:"confidence"`
}

// Keys whose presence in standard text metadata marks Stable-Diffusion-style
// generation parameters.
var generationParamKeys = map[string]bool{
	"parameters": true,
	"prompt":     true,
	"workflow":   true,
}

// Value fragments that identify a generation parameter block even under a
// nonstandard key.
var generationParamMarkers = []string{
	"Steps:",
	"Sampler:",
	"CFG scale:",
	"Negative prompt:",
}

// Classify applies the verdict rules:
// vendor-chunk action signals decide IsAIGenerated outright; tool and issuer
// come from the first matching signal (the signature table is ordered
// specific-first); text-only heuristics yield a weak verdict.
func Classify(res extract.Result, table extract.SignatureTable) Verdict {
	v := Verdict{}

	for _, s := range res.Signals {
		switch s.Kind {
		case extract.SignalAction:
			if v.Action == "" {
				v.Action = s.Marker
			}
			v.IsAIGenerated = true
		case extract.SignalSourceType:
			v.IsAIGenerated = true
		}
	}
	v.Tool = firstMarker(res.Signals, extract.SignalTool, table.Tools)
	v.Issuer = firstMarker(res.Signals, extract.SignalIssuer, table.Issuers)

	// Strong needs an action assertion corroborated by a tool or issuer;
	// a source-type hit alone never upgrades past Weak.
	if v.Action != "" && (v.Tool != "" || v.Issuer != "") {
		v.Confidence = Strong
		return v
	}

	textTool := toolFromText(res.Entries, table.Tools)
	if hasGenerationParams(res.Entries) || textTool != "" {
		v.IsAIGenerated = true
		if v.Tool == "" {
			v.Tool = textTool
		}
		if v.Confidence < Weak {
			v.Confidence = Weak
		}
		return v
	}

	if v.IsAIGenerated {
		// Vendor signals without the action+tool/issuer pair.
		v.Confidence = Weak
	}
	return v
}

// firstMarker picks the matched marker earliest in the table's priority
// order, so specific model names win over generic ones.
func firstMarker(signals []extract.Signal, kind extract.SignalKind, priority []string) string {
	matched := make(map[string]bool)
	for _, s := range signals {
		if s.Kind == kind {
			matched[s.Marker] = true
		}
	}
	for _, m := range priority {
		if matched[m] {
			return m
		}
	}
	return ""
}

func hasGenerationParams(entries []extract.Entry) bool {
	for _, e := range entries {
		if e.Source != extract.StandardText {
			continue
		}
		if generationParamKeys[strings.ToLower(e.Key)] {
			return true
		}
		for _, marker := range generationParamMarkers {
			if strings.Contains(e.Value, marker) {
				return true
			}
		}
	}
	return false
}

// toolFromText matches Software/Model style entries against known tool
// names.
func toolFromText(entries []extract.Entry, tools []string) string {
	for _, tool := range tools {
		for _, e := range entries {
			if e.Source != extract.StandardText {
				continue
			}
			key := strings.ToLower(e.Key)
			if key != "software" && key != "model" {
				continue
			}
			if strings.Contains(e.Value, tool) {
				return tool
			}
		}
	}
	return ""
}
