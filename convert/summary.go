package convert

import (
	"fmt"

	"cratesync/logger"
	"cratesync/model"
)

// SummaryLines renders a human-readable account of a conversion: the playlist
// and track totals plus one breakdown line per playlist.
func SummaryLines(summary *model.ConversionSummary) []string {
	lines := []string{
		fmt.Sprintf("Playlists exported: %d", summary.PlaylistCount()),
		fmt.Sprintf("Total tracks: %d", summary.TrackCount),
	}
	if len(summary.PlaylistOrder) > 0 {
		lines = append(lines, "Breakdown:")
		for _, name := range summary.PlaylistOrder {
			lines = append(lines, fmt.Sprintf("  - %s (%d tracks)", name, summary.PlaylistCounts[name]))
		}
	}
	return lines
}

// LogSummary writes the summary lines through the structured logger.
func LogSummary(summary *model.ConversionSummary) {
	for _, line := range SummaryLines(summary) {
		logger.Info(line)
	}
}
