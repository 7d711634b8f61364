// Package testsupport builds minimal in-memory PNG fixtures for tests.
package testsupport

import (
	"encoding/binary"
	"hash/crc32"
)

// MinimalPNG returns the smallest useful valid PNG: signature + IHDR + IDAT +
// IEND, a 1x1 8-bit grayscale image with one zero-filtered row.
func MinimalPNG() []byte {
	var buf []byte
	buf = append(buf, 0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A)
	ihdr := []byte{
		0, 0, 0, 1, // width
		0, 0, 0, 1, // height
		8, 0, 0, 0, 0, // bit depth, color type, compression, filter, interlace
	}
	buf = AppendChunk(buf, "IHDR", ihdr)
	// Stored-block zlib stream for [0x00, 0x00] (filter byte + pixel).
	idat := []byte{
		0x78, 0x01, 0x01, 0x02, 0x00, 0xFD, 0xFF,
		0x00, 0x00,
		0x00, 0x01, 0x00, 0x01,
	}
	buf = AppendChunk(buf, "IDAT", idat)
	buf = AppendChunk(buf, "IEND", nil)
	return buf
}

// AppendChunk appends one wire-format chunk to buf.
func AppendChunk(buf []byte, typ string, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	buf = append(buf, typ...)
	buf = append(buf, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(buf, crc.Sum32())
}

// TextChunkPayload builds a tEXt payload (keyword NUL value).
func TextChunkPayload(key, value string) []byte {
	payload := make([]byte, 0, len(key)+1+len(value))
	payload = append(payload, key...)
	payload = append(payload, 0)
	payload = append(payload, value...)
	return payload
}
