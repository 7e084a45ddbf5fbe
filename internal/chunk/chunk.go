// Package chunk converts opaque ciphertext into a text-safe encoding and
// slices it into bounded pieces so it fits backends with small per-item
// limits. Concatenating the pieces in index order and decoding must
// reproduce the original bytes exactly.
package chunk

import (
	"encoding/base64"
	"fmt"
)

// Encode returns the text-safe (base64) form of blob.
func Encode(blob []byte) string {
	return base64.StdEncoding.EncodeToString(blob)
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(encoded)
}

// Split slices encoded left to right into pieces of at most maxSize bytes.
// An empty input yields exactly one empty chunk, never zero, so a stored
// chunk count is always >= 1 and unambiguous.
func Split(encoded string, maxSize int) ([]string, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid max chunk size %d", maxSize)
	}

	if encoded == "" {
		return []string{""}, nil
	}

	chunks := make([]string, 0, (len(encoded)+maxSize-1)/maxSize)
	for start := 0; start < len(encoded); start += maxSize {
		end := start + maxSize
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, encoded[start:end])
	}
	return chunks, nil
}

// Join concatenates chunks strictly in slice order. Callers fetch chunks
// by index, so slice order is index order.
func Join(chunks []string) string {
	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return string(out)
}
