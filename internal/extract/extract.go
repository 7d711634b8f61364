// Package extract pulls textual metadata and provenance byte signatures out
// of a decoded PNG chunk sequence.
package extract

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"provenance_toolbox/png"

	"golang.org/x/text/unicode/norm"
)

// Source says which kind of chunk a metadata entry came from.
type Source int

const (
	StandardText Source = iota
	VendorChunk
)

func (s Source) String() string {
	if s == VendorChunk {
		return "vendor"
	}
	return "text"
}

// Entry is one key/value pair of embedded textual metadata.
type Entry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// SignalKind classifies what a matched byte signature asserts.
type SignalKind int

const (
	SignalIssuer SignalKind = iota
	SignalTool
	SignalAction
	SignalSourceType
	SignalTimestamp
)

func (k SignalKind) String() string {
	switch k {
	case SignalIssuer:
		return "issuer"
	case SignalTool:
		return "tool"
	case SignalAction:
		return "action"
	case SignalSourceType:
		return "source_type"
	case SignalTimestamp:
		return "timestamp"
	}
	return "unknown"
}

// Signal records one signature hit inside a vendor provenance chunk.
type Signal struct {
	Kind   SignalKind `json:"kind"`
	Marker string     `json:"marker"`
	// Offset of the match within the file, -1 when unknown.
	Offset int `json:"offset"`
}

// Result is everything extracted from one image. Warnings carry per-chunk
// decode problems that did not stop the scan.
type Result struct {
	Entries  []Entry  `json:"entries"`
	Signals  []Signal `json:"signals"`
	Warnings []string `json:"warnings,omitempty"`
}

// vendor chunk tags that carry provenance manifests. caBX is the C2PA PNG
// chunk; caCV appears in some camera firmware.
var vendorChunks = map[string]bool{
	png.ChunkC2PA: true,
	"caCV":        true,
}

// DefaultMaxTextSize caps how far one compressed text chunk may inflate.
// Without it a few-KB zTXt payload could decompress to gigabytes and defeat
// the input-size limit enforced on the file itself.
const DefaultMaxTextSize = 64 << 20

// Scan walks the chunks and collects metadata entries and provenance
// signals, bounding decompressed text at maxTextSize bytes (zero means
// DefaultMaxTextSize). One undecodable chunk never aborts the scan; its
// problem is reported as a warning and the remaining chunks are still
// processed.
func Scan(chunks []png.Chunk, table SignatureTable, maxTextSize int64) Result {
	if maxTextSize <= 0 {
		maxTextSize = DefaultMaxTextSize
	}
	res := Result{}
	// Insertion-order map semantics: later duplicates overwrite earlier
	// values in place, keyed per source.
	index := make(map[string]int)

	addEntry := func(e Entry) {
		key := e.Source.String() + "\x00" + e.Key
		if i, ok := index[key]; ok {
			res.Entries[i] = e
			return
		}
		index[key] = len(res.Entries)
		res.Entries = append(res.Entries, e)
	}

	for _, c := range chunks {
		if !c.CRCValid {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("crc mismatch in %s chunk at offset %d", c.Type, c.Offset))
		}
		switch {
		case c.Type == png.ChunkText:
			entry, err := decodeText(c.Data)
			if err != nil {
				res.Warnings = append(res.Warnings, chunkWarning(c, err))
				continue
			}
			addEntry(entry)
		case c.Type == png.ChunkZText:
			entry, err := decodeCompressedText(c.Data, maxTextSize)
			if err != nil {
				res.Warnings = append(res.Warnings, chunkWarning(c, err))
				continue
			}
			addEntry(entry)
		case c.Type == png.ChunkIntlText:
			entry, err := decodeIntlText(c.Data, maxTextSize)
			if err != nil {
				res.Warnings = append(res.Warnings, chunkWarning(c, err))
				continue
			}
			addEntry(entry)
		case vendorChunks[c.Type]:
			res.Signals = append(res.Signals, scanVendorPayload(c, table)...)
		}
	}
	return res
}

func chunkWarning(c png.Chunk, err error) string {
	return fmt.Sprintf("decode error in %s chunk at offset %d: %v", c.Type, c.Offset, err)
}

// decodeText splits a tEXt payload on the first null byte into key/value.
func decodeText(data []byte) (Entry, error) {
	nullIndex := bytes.IndexByte(data, 0)
	if nullIndex <= 0 {
		return Entry{}, fmt.Errorf("missing or empty keyword")
	}
	return Entry{
		Key:    string(data[:nullIndex]),
		Value:  string(data[nullIndex+1:]),
		Source: StandardText,
	}, nil
}

// decodeCompressedText handles zTXt: keyword, null, compression method byte,
// zlib-compressed value.
func decodeCompressedText(data []byte, maxTextSize int64) (Entry, error) {
	nullIndex := bytes.IndexByte(data, 0)
	if nullIndex <= 0 {
		return Entry{}, fmt.Errorf("missing or empty keyword")
	}
	rest := data[nullIndex+1:]
	if len(rest) < 1 {
		return Entry{}, fmt.Errorf("truncated zTXt payload")
	}
	if rest[0] != 0 {
		return Entry{}, fmt.Errorf("unknown compression method %d", rest[0])
	}
	value, err := inflate(rest[1:], maxTextSize)
	if err != nil {
		return Entry{}, fmt.Errorf("inflate zTXt value: %w", err)
	}
	return Entry{
		Key:    string(data[:nullIndex]),
		Value:  string(value),
		Source: StandardText,
	}, nil
}

// decodeIntlText handles iTXt: keyword, null, compression flag, compression
// method, language tag, null, translated keyword, null, UTF-8 text. The text
// is normalized to NFC so lookups behave the same regardless of how the
// producer composed its code points.
func decodeIntlText(data []byte, maxTextSize int64) (Entry, error) {
	nullIndex := bytes.IndexByte(data, 0)
	if nullIndex <= 0 {
		return Entry{}, fmt.Errorf("missing or empty keyword")
	}
	rest := data[nullIndex+1:]
	if len(rest) < 2 {
		return Entry{}, fmt.Errorf("truncated iTXt payload")
	}
	compFlag := rest[0]
	rest = rest[2:] // skip compression flag + method

	langEnd := bytes.IndexByte(rest, 0)
	if langEnd == -1 {
		return Entry{}, fmt.Errorf("missing language tag terminator")
	}
	rest = rest[langEnd+1:]
	translatedEnd := bytes.IndexByte(rest, 0)
	if translatedEnd == -1 {
		return Entry{}, fmt.Errorf("missing translated keyword terminator")
	}
	text := rest[translatedEnd+1:]

	if compFlag == 1 {
		inflated, err := inflate(text, maxTextSize)
		if err != nil {
			return Entry{}, fmt.Errorf("inflate iTXt value: %w", err)
		}
		text = inflated
	}
	if !utf8.Valid(text) {
		return Entry{}, fmt.Errorf("iTXt value is not valid UTF-8")
	}
	return Entry{
		Key:    string(data[:nullIndex]),
		Value:  norm.NFC.String(string(text)),
		Source: StandardText,
	}, nil
}

func inflate(data []byte, maxTextSize int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, maxTextSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > maxTextSize {
		return nil, fmt.Errorf("inflated text exceeds limit of %d bytes", maxTextSize)
	}
	return out, nil
}

// scanVendorPayload does a substring search of the raw manifest bytes against
// the signature table. The fixture-level encoding is null-delimited ASCII
// tokens rather than a full JUMBF/CBOR structure; a structured manifest
// parser can replace this behind the same Signal-producing seam.
func scanVendorPayload(c png.Chunk, table SignatureTable) []Signal {
	var signals []Signal
	match := func(kind SignalKind, markers []string) {
		for _, m := range markers {
			if i := bytes.Index(c.Data, []byte(m)); i != -1 {
				signals = append(signals, Signal{Kind: kind, Marker: m, Offset: c.Offset + 8 + i})
			}
		}
	}
	match(SignalIssuer, table.Issuers)
	match(SignalTool, table.Tools)
	match(SignalAction, table.Actions)
	match(SignalSourceType, table.SourceTypes)

	if loc := timestampPattern.FindIndex(c.Data); loc != nil {
		signals = append(signals, Signal{
			Kind:   SignalTimestamp,
			Marker: string(c.Data[loc[0]:loc[1]]),
			Offset: c.Offset + 8 + loc[0],
		})
	}

	return signals
}

// VendorTokens splits a vendor chunk payload into its printable
// null-delimited tokens, for diagnostic listing.
func VendorTokens(data []byte) []string {
	var tokens []string
	for _, part := range bytes.Split(data, []byte{0}) {
		s := string(part)
		if s == "" {
			continue
		}
		if strings.IndexFunc(s, func(r rune) bool { return r < 0x20 || r > 0x7E }) != -1 {
			continue
		}
		tokens = append(tokens, s)
	}
	return tokens
}
