package parser_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"provenance_toolbox/internal/classify"
	"provenance_toolbox/internal/parser"
	"provenance_toolbox/internal/testsupport"
	"provenance_toolbox/png"

	"github.com/stretchr/testify/require"
)

// aiMetadataPNG mirrors a Stable Diffusion WebUI output: a parameters block
// plus Model and Software text entries.
func aiMetadataPNG(t *testing.T) []byte {
	t.Helper()
	data := testsupport.MinimalPNG()
	var err error
	data, err = png.SetText(data, "parameters",
		"A beautiful landscape, Steps: 30, Sampler: Euler a, CFG scale: 7.5, Seed: 12345, Size: 512x512")
	require.NoError(t, err)
	data, err = png.SetText(data, "Model", "v1-5-pruned-emaonly")
	require.NoError(t, err)
	data, err = png.SetText(data, "Software", "Stable Diffusion WebUI")
	require.NoError(t, err)
	return data
}

// openaiC2PAPNG embeds a caBX chunk whose payload carries the null-delimited
// signatures an OpenAI-issued manifest contains.
func openaiC2PAPNG(t *testing.T) []byte {
	t.Helper()
	payload := bytes.Join([][]byte{
		[]byte("jumb"),
		[]byte("c2pa"),
		[]byte("OpenAI"),
		[]byte("Truepic"),
		[]byte("GPT-4o"),
		[]byte("ChatGPT"),
		[]byte("c2pa.created"),
		[]byte("c2pa.edited"),
		[]byte("trainedAlgorithmicMedia"),
		[]byte("20260101120000Z"),
	}, []byte{0})
	raw, err := png.BuildChunk(png.ChunkC2PA, payload)
	require.NoError(t, err)
	data, err := png.InjectChunk(testsupport.MinimalPNG(), raw)
	require.NoError(t, err)
	return data
}

func TestAnalyzePlainPNG(t *testing.T) {
	report, err := parser.Default().AnalyzeBytes(testsupport.MinimalPNG())
	require.NoError(t, err)
	require.False(t, report.Verdict.IsAIGenerated)
	require.Equal(t, classify.None, report.Verdict.Confidence)
	require.Empty(t, report.Entries)
	require.Empty(t, report.Warnings)
}

func TestAnalyzeStandardMetadataPNG(t *testing.T) {
	data := testsupport.MinimalPNG()
	var err error
	for key, value := range map[string]string{
		"Author":      "Test Author",
		"Title":       "Test Image",
		"Description": "A test image for unit tests",
		"Copyright":   "Test Copyright",
	} {
		data, err = png.SetText(data, key, value)
		require.NoError(t, err)
	}
	report, err := parser.Default().AnalyzeBytes(data)
	require.NoError(t, err)
	require.False(t, report.Verdict.IsAIGenerated)
	require.Equal(t, classify.None, report.Verdict.Confidence)
	require.Len(t, report.Entries, 4)
}

func TestAnalyzeStableDiffusionPNG(t *testing.T) {
	report, err := parser.Default().AnalyzeBytes(aiMetadataPNG(t))
	require.NoError(t, err)
	require.True(t, report.Verdict.IsAIGenerated)
	require.Equal(t, classify.Weak, report.Verdict.Confidence)
}

func TestAnalyzeOpenAIC2PAPNG(t *testing.T) {
	report, err := parser.Default().AnalyzeBytes(openaiC2PAPNG(t))
	require.NoError(t, err)
	require.True(t, report.Verdict.IsAIGenerated)
	require.Equal(t, classify.Strong, report.Verdict.Confidence)
	require.Equal(t, "GPT-4o", report.Verdict.Tool)
	require.Equal(t, "OpenAI", report.Verdict.Issuer)
	require.Equal(t, "c2pa.created", report.Verdict.Action)
}

func TestAnalyzeNotAPNG(t *testing.T) {
	_, err := parser.Default().AnalyzeBytes([]byte("\xFF\xD8\xFF\xE0 jpeg-ish bytes"))
	require.ErrorIs(t, err, png.ErrNotPNG)
}

func TestAnalyzeCorruptAncillaryChunkStillVerdicts(t *testing.T) {
	// Corrupt the CRC of a tEXt chunk; the caBX evidence must still land.
	data := openaiC2PAPNG(t)
	raw, err := png.BuildChunk(png.ChunkText, testsupport.TextChunkPayload("Author", "x"))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	data, err = png.InjectChunk(data, raw)
	require.NoError(t, err)

	report, err := parser.Default().AnalyzeBytes(data)
	require.NoError(t, err)
	require.True(t, report.Verdict.IsAIGenerated)
	require.Equal(t, classify.Strong, report.Verdict.Confidence)
	require.NotEmpty(t, report.Warnings)
}

func TestAnalyzeIdempotent(t *testing.T) {
	data := openaiC2PAPNG(t)
	a := parser.Default()
	first, err := a.AnalyzeBytes(data)
	require.NoError(t, err)
	second, err := a.AnalyzeBytes(data)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAnalyzeFileSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(path, testsupport.MinimalPNG(), 0o644))

	small := parser.New(parser.Default().Table(), 16)
	_, err := small.AnalyzeFile(path)
	require.ErrorContains(t, err, "exceeds limit")
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openai_test.png")
	require.NoError(t, os.WriteFile(path, openaiC2PAPNG(t), 0o644))

	report, err := parser.Default().AnalyzeFile(path)
	require.NoError(t, err)
	require.Equal(t, path, report.Path)
	require.True(t, report.Verdict.IsAIGenerated)
}
