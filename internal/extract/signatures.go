package extract

import "regexp"

// SignatureTable holds the byte signatures scanned for inside vendor
// provenance chunks. Loaded once at startup and never mutated afterwards;
// adding a vendor means extending the table, not touching the scan logic.
type SignatureTable struct {
	// Issuers are certificate/organization names that sign C2PA manifests.
	Issuers []string
	// Tools are generator identifiers, listed specific-first so the
	// classifier can pick the most precise match.
	Tools []string
	// Actions are c2pa assertion action tokens.
	Actions []string
	// SourceTypes are digitalSourceType tokens marking algorithmic media.
	SourceTypes []string
}

// timestampPattern matches the compact 14-digit+Z form used in manifest
// signing times as well as ISO-8601 date-times.
var timestampPattern = regexp.MustCompile(`\d{14}Z|\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

// DefaultTable returns the built-in signature set covering the AI tools and
// manifest issuers seen in the wild.
func DefaultTable() SignatureTable {
	return SignatureTable{
		Issuers: []string{
			"OpenAI",
			"Truepic",
			"Adobe",
			"Google",
			"Microsoft",
		},
		Tools: []string{
			"GPT-4o",
			"ChatGPT",
			"DALL-E",
			"Midjourney",
			"Adobe Firefly",
			"Imagen",
			"Gemini",
			"Stable Diffusion",
		},
		Actions: []string{
			"c2pa.created",
			"c2pa.edited",
			"c2pa.converted",
			"c2pa.placed",
		},
		SourceTypes: []string{
			"trainedAlgorithmicMedia",
			"compositeWithTrainedAlgorithmicMedia",
		},
	}
}

// Merge returns a copy of the table with extra markers appended. Used to
// extend the built-in set from configuration without duplicating entries.
func (t SignatureTable) Merge(issuers, tools, actions, sourceTypes []string) SignatureTable {
	out := SignatureTable{
		Issuers:     appendNew(t.Issuers, issuers),
		Tools:       appendNew(t.Tools, tools),
		Actions:     appendNew(t.Actions, actions),
		SourceTypes: appendNew(t.SourceTypes, sourceTypes),
	}
	return out
}

func appendNew(base, extra []string) []string {
	out := make([]string, len(base), len(base)+len(extra))
	copy(out, base)
	seen := make(map[string]struct{}, len(base))
	for _, s := range base {
		seen[s] = struct{}{}
	}
	for _, s := range extra {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
