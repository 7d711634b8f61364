package png

import (
	"bytes"
	"fmt"
)

// SetText appends a tEXt chunk with the given keyword and value before IEND,
// returning a new buffer. Keywords follow the PNG limit of 1-79 bytes.
func SetText(data []byte, key, value string) ([]byte, error) {
	if len(key) == 0 || len(key) > 79 {
		return nil, fmt.Errorf("invalid tEXt keyword length %d", len(key))
	}
	payload := make([]byte, 0, len(key)+1+len(value))
	payload = append(payload, key...)
	payload = append(payload, 0)
	payload = append(payload, value...)
	raw, err := BuildChunk(ChunkText, payload)
	if err != nil {
		return nil, err
	}
	return InjectChunk(data, raw)
}

// GetText returns the value of the first tEXt chunk carrying the keyword.
func GetText(data []byte, key string) (string, error) {
	chunks, err := ReadChunks(data)
	if err != nil {
		return "", err
	}
	for _, c := range chunks {
		if c.Type != ChunkText {
			continue
		}
		nullIndex := bytes.IndexByte(c.Data, 0)
		if nullIndex == -1 {
			continue
		}
		if string(c.Data[:nullIndex]) == key {
			return string(c.Data[nullIndex+1:]), nil
		}
	}
	return "", fmt.Errorf("tEXt keyword %q not found", key)
}
