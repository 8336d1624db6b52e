// Package crate parses Serato crate files.
//
// The crate format is a simple chunk-based binary format. Each chunk starts
// with a four-character type followed by a 32-bit big-endian length and the
// payload. Track references live in OTRK chunks whose payload is itself a
// chunk sequence. Unknown chunks are skipped so the parser keeps working if
// Serato introduces new metadata fields.
package crate

import (
	"encoding/binary"
	"iter"
	"strings"

	"cratesync/logger"
)

const chunkHeaderSize = 8

// Chunks yields (type, payload) pairs from a binary blob. The sequence is
// lazy and can be ranged over more than once. A chunk whose declared payload
// extends past the end of the buffer terminates the sequence without being
// yielded, so truncated or corrupt data is tolerated rather than fatal.
func Chunks(data []byte) iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		offset := 0
		for offset+chunkHeaderSize <= len(data) {
			chunkType := decodeChunkType(data[offset : offset+4])
			length := int(binary.BigEndian.Uint32(data[offset+4 : offset+8]))
			start := offset + chunkHeaderSize
			end := start + length
			if end > len(data) {
				logger.Warn("chunk extends beyond end of buffer",
					logger.String("chunkType", chunkType),
					logger.Int("length", length),
					logger.Int("offset", offset))
				return
			}
			if !yield(chunkType, data[start:end]) {
				return
			}
			offset = end
		}
	}
}

// decodeChunkType decodes the four type bytes permissively, replacing invalid
// UTF-8 with the replacement character instead of failing.
func decodeChunkType(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
