package png

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Chunk tags this package cares about.
const (
	ChunkText     = "tEXt"
	ChunkZText    = "zTXt"
	ChunkIntlText = "iTXt"
	ChunkC2PA     = "caBX"
	ChunkEnd      = "IEND"
)

// PNG signature: 137 80 78 71 13 10 26 10
var signature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

var (
	ErrNotPNG         = errors.New("not a PNG file")
	ErrMalformedChunk = errors.New("malformed chunk")
)

// Chunk is one length-prefixed, typed, CRC-protected block of a PNG file.
// Immutable once parsed; Data aliases the input buffer.
type Chunk struct {
	Type   string
	Data   []byte
	CRC    uint32
	Offset int
	// CRCValid is false when the stored CRC disagrees with CRC32(type+data).
	// Treated as a warning, not a parse failure.
	CRCValid bool
}

func HasSignature(data []byte) bool {
	if len(data) < len(signature) {
		return false
	}
	for i, b := range signature {
		if data[i] != b {
			return false
		}
	}
	return true
}

// ReadChunks walks the chunk stream after the 8-byte signature and returns
// every chunk up to and including IEND. A length field that overruns the
// buffer makes chunk boundaries unrecoverable and aborts with
// ErrMalformedChunk; CRC mismatches are recorded on the chunk instead.
func ReadChunks(data []byte) ([]Chunk, error) {
	if !HasSignature(data) {
		return nil, ErrNotPNG
	}

	var chunks []Chunk
	offset := len(signature)
	for offset+8 <= len(data) {
		length := binary.BigEndian.Uint32(data[offset : offset+4])
		dataStart := offset + 8
		dataEnd := dataStart + int(length)
		if dataEnd+4 > len(data) {
			return chunks, fmt.Errorf("%w: chunk at offset %d declares %d bytes, %d remain",
				ErrMalformedChunk, offset, length, len(data)-dataStart)
		}
		chunkType := string(data[offset+4 : offset+8])
		payload := data[dataStart:dataEnd]
		stored := binary.BigEndian.Uint32(data[dataEnd : dataEnd+4])
		computed := crc32.ChecksumIEEE(data[offset+4 : dataEnd])

		chunks = append(chunks, Chunk{
			Type:     chunkType,
			Data:     payload,
			CRC:      stored,
			Offset:   offset,
			CRCValid: stored == computed,
		})

		if chunkType == ChunkEnd {
			break
		}
		offset = dataEnd + 4
	}
	return chunks, nil
}

// BuildChunk assembles the wire form of one chunk:
// length(4B BE) ++ type(4B) ++ payload ++ crc32(type++payload)(4B BE).
// Round-trips through ReadChunks to an equivalent Chunk.
func BuildChunk(chunkType string, payload []byte) ([]byte, error) {
	if len(chunkType) != 4 {
		return nil, fmt.Errorf("chunk type must be exactly 4 bytes, got %q", chunkType)
	}
	out := make([]byte, 0, 12+len(payload))
	out = binary.BigEndian.AppendUint32(out, uint32(len(payload)))
	out = append(out, chunkType...)
	out = append(out, payload...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(chunkType))
	crc.Write(payload)
	out = binary.BigEndian.AppendUint32(out, crc.Sum32())
	return out, nil
}

// InjectChunk splices a prebuilt raw chunk into a PNG buffer just before the
// IEND chunk, returning a new buffer. Used to embed caBX manifests into
// existing files without touching pixel data.
func InjectChunk(data []byte, raw []byte) ([]byte, error) {
	chunks, err := ReadChunks(data)
	if err != nil {
		return nil, err
	}
	insertAt := len(data)
	for _, c := range chunks {
		if c.Type == ChunkEnd {
			insertAt = c.Offset
			break
		}
	}
	out := make([]byte, 0, len(data)+len(raw))
	out = append(out, data[:insertAt]...)
	out = append(out, raw...)
	out = append(out, data[insertAt:]...)
	return out, nil
}
