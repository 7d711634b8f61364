package png_test

import (
	"testing"

	"provenance_toolbox/internal/testsupport"
	"provenance_toolbox/png"

	"github.com/stretchr/testify/require"
)

func TestHasSignature(t *testing.T) {
	require.True(t, png.HasSignature(testsupport.MinimalPNG()))
	require.False(t, png.HasSignature([]byte("not a png")))
	require.False(t, png.HasSignature(nil))
	require.False(t, png.HasSignature([]byte{0x89, 0x50}))
}

func TestReadChunksMinimal(t *testing.T) {
	chunks, err := png.ReadChunks(testsupport.MinimalPNG())
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Equal(t, "IHDR", chunks[0].Type)
	require.Equal(t, "IDAT", chunks[1].Type)
	require.Equal(t, "IEND", chunks[2].Type)
	for _, c := range chunks {
		require.True(t, c.CRCValid, "chunk %s", c.Type)
	}
}

func TestReadChunksRejectsNonPNG(t *testing.T) {
	_, err := png.ReadChunks([]byte("definitely not an image"))
	require.ErrorIs(t, err, png.ErrNotPNG)
}

func TestReadChunksTruncatedLength(t *testing.T) {
	data := testsupport.MinimalPNG()
	// Corrupt IHDR's length field to declare more bytes than the file holds.
	data[8] = 0xFF
	_, err := png.ReadChunks(data)
	require.ErrorIs(t, err, png.ErrMalformedChunk)
}

func TestBuildChunkRoundTrip(t *testing.T) {
	payload := []byte("Software\x00Stable Diffusion WebUI")
	raw, err := png.BuildChunk("tEXt", payload)
	require.NoError(t, err)
	require.Len(t, raw, 12+len(payload))

	data := testsupport.MinimalPNG()
	injected, err := png.InjectChunk(data, raw)
	require.NoError(t, err)

	chunks, err := png.ReadChunks(injected)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	require.Equal(t, "tEXt", chunks[2].Type)
	require.Equal(t, payload, chunks[2].Data)
	require.True(t, chunks[2].CRCValid)
	// IEND stays last.
	require.Equal(t, "IEND", chunks[3].Type)
}

func TestBuildChunkRejectsBadType(t *testing.T) {
	_, err := png.BuildChunk("caBXX", nil)
	require.Error(t, err)
	_, err = png.BuildChunk("ca", nil)
	require.Error(t, err)
}

func TestCRCMismatchIsWarningNotError(t *testing.T) {
	data := testsupport.MinimalPNG()
	raw, err := png.BuildChunk("tEXt", testsupport.TextChunkPayload("Author", "someone"))
	require.NoError(t, err)
	// Flip a CRC byte of the injected chunk.
	raw[len(raw)-1] ^= 0xFF
	injected, err := png.InjectChunk(data, raw)
	require.NoError(t, err)

	chunks, err := png.ReadChunks(injected)
	require.NoError(t, err)
	var text png.Chunk
	for _, c := range chunks {
		if c.Type == "tEXt" {
			text = c
		}
	}
	require.Equal(t, "tEXt", text.Type)
	require.False(t, text.CRCValid)
}

func TestSetGetTextRoundTrip(t *testing.T) {
	data := testsupport.MinimalPNG()
	modified, err := png.SetText(data, "parameters", "Steps: 30, Sampler: Euler a")
	require.NoError(t, err)
	require.Greater(t, len(modified), len(data))

	val, err := png.GetText(modified, "parameters")
	require.NoError(t, err)
	require.Equal(t, "Steps: 30, Sampler: Euler a", val)
}

func TestSetTextMultipleKeys(t *testing.T) {
	data := testsupport.MinimalPNG()
	step1, err := png.SetText(data, "first", "one")
	require.NoError(t, err)
	step2, err := png.SetText(step1, "second", "two")
	require.NoError(t, err)

	v1, err := png.GetText(step2, "first")
	require.NoError(t, err)
	require.Equal(t, "one", v1)
	v2, err := png.GetText(step2, "second")
	require.NoError(t, err)
	require.Equal(t, "two", v2)
}

func TestGetTextMissingKey(t *testing.T) {
	data := testsupport.MinimalPNG()
	_, err := png.GetText(data, "nope")
	require.ErrorContains(t, err, "not found")
}
