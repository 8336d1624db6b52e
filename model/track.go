package model

import (
	"path/filepath"
	"strings"
)

// CuePoint is a single cue point extracted from Serato track metadata.
type CuePoint struct {
	Index    uint32  `json:"index"`
	Position float32 `json:"position"` // Seconds
	Name     string  `json:"name,omitempty"`
}

// Track is a minimal representation of a track entry in a crate.
type Track struct {
	Path      string     `json:"path"`
	Title     string     `json:"title,omitempty"`
	CuePoints []CuePoint `json:"cuePoints,omitempty"`
}

// DisplayName returns the track title, falling back to the file's base name
// without its extension when no title was stored.
func (t Track) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	base := filepath.Base(t.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Playlist is one exported playlist node. Parent names the folder path the
// playlist is attached to; for a crate that also has child crates the parent
// is the crate's own path so the playlist sits inside its own folder.
type Playlist struct {
	Path   CratePath
	Name   string
	Tracks []Track
	Parent CratePath
}

// ConversionSummary describes the most recent conversion run.
type ConversionSummary struct {
	Output         string         `json:"output"`
	PlaylistOrder  []string       `json:"playlistOrder"`
	PlaylistCounts map[string]int `json:"playlistCounts"`
	TrackCount     int            `json:"trackCount"`
}

// PlaylistCount returns the number of exported playlists.
func (s *ConversionSummary) PlaylistCount() int {
	return len(s.PlaylistCounts)
}
