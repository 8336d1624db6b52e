package crate

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"cratesync/model"
)

// Chunk types consumed by the decoder.
const (
	chunkTrack    = "OTRK" // one track reference, payload is a nested chunk sequence
	chunkTitle    = "pnam"
	chunkFilePath = "pfil"
	chunkCueList  = "pcue"
)

// DecodeCrate decodes raw crate file bytes into the ordered track list.
// Track chunks without a file path are dropped.
func DecodeCrate(data []byte) []model.Track {
	var tracks []model.Track
	for chunkType, payload := range Chunks(data) {
		if chunkType != chunkTrack {
			continue
		}
		if track, ok := decodeTrack(payload); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks
}

// LoadCrate reads and decodes a single .crate file.
func LoadCrate(path string) ([]model.Track, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crate %s: %w", path, err)
	}
	return DecodeCrate(raw), nil
}

// decodeTrack builds one track from the nested chunks of an OTRK payload.
// If the same chunk type occurs twice the last occurrence wins. The second
// return value is false when no file path chunk was present.
func decodeTrack(payload []byte) (model.Track, bool) {
	var track model.Track
	for chunkType, chunkPayload := range Chunks(payload) {
		switch chunkType {
		case chunkTitle:
			track.Title = decodeString(chunkPayload)
		case chunkFilePath:
			track.Path = decodeString(chunkPayload)
		case chunkCueList:
			track.CuePoints = decodeCuePoints(chunkPayload)
		}
	}
	if track.Path == "" {
		return model.Track{}, false
	}
	return track, true
}

// decodeString decodes a string stored in a Serato payload: a 32-bit
// big-endian length followed by that many bytes of UTF-8 data. Some files
// include a trailing null byte which is stripped. Payloads shorter than the
// length prefix are decoded whole.
func decodeString(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	if len(payload) < 4 {
		return trimText(payload)
	}
	strlen := int(binary.BigEndian.Uint32(payload[:4]))
	text := payload[4:]
	if strlen < len(text) {
		text = text[:strlen]
	}
	return trimText(text)
}

func trimText(b []byte) string {
	return strings.TrimSuffix(strings.ToValidUTF8(string(b), "�"), "\x00")
}

// decodeCuePoints decodes cue point metadata from a pcue chunk: a 32-bit
// big-endian count followed by 8-byte entries of index and float32 position.
// Truncated entries end the list without error.
func decodeCuePoints(payload []byte) []model.CuePoint {
	if len(payload) < 4 {
		return nil
	}
	count := binary.BigEndian.Uint32(payload[:4])
	var cuePoints []model.CuePoint
	offset := 4
	for i := uint32(0); i < count; i++ {
		if offset+8 > len(payload) {
			break
		}
		index := binary.BigEndian.Uint32(payload[offset : offset+4])
		position := math.Float32frombits(binary.BigEndian.Uint32(payload[offset+4 : offset+8]))
		cuePoints = append(cuePoints, model.CuePoint{Index: index, Position: position})
		offset += 8
	}
	return cuePoints
}
