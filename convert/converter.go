// Package convert runs the crate-to-Rekordbox conversion pipeline:
// enumerate crates, decode them, reconcile the folder/playlist hierarchy and
// hand the result to the rekordbox document builder.
package convert

import (
	"fmt"
	"os"
	"time"

	"cratesync/config"
	"cratesync/crate"
	"cratesync/model"
	"cratesync/rekordbox"
)

// Converter drives one conversion run. It holds no mutable state between
// runs; every ConvertOnce call operates on freshly loaded data.
type Converter struct {
	CrateRoot      string
	Output         string
	ProductName    string
	ProductVersion string
}

// New builds a Converter from the application configuration.
func New(cfg *config.Config) *Converter {
	return &Converter{
		CrateRoot:      cfg.CrateRoot,
		Output:         cfg.Output,
		ProductName:    cfg.ProductName,
		ProductVersion: cfg.ProductVersion,
	}
}

// ConvertOnce converts the current crate tree into Rekordbox XML. When write
// is false the pipeline still runs fully but nothing is persisted, so callers
// can preview the summary.
func (c *Converter) ConvertOnce(write bool) (*model.ConversionSummary, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	playlists, folders, err := c.loadPlaylists()
	if err != nil {
		return nil, err
	}
	// The document is always built so a dry run exercises the full pipeline;
	// only persistence is skipped.
	doc := rekordbox.NewBuilder(c.ProductName, c.ProductVersion).Build(playlists, folders)
	if write {
		if err := doc.WriteFile(c.Output); err != nil {
			return nil, err
		}
	}
	return c.summarize(playlists), nil
}

// Snapshot exposes the change-detector snapshot for watch loops.
func (c *Converter) Snapshot() (map[string]time.Time, error) {
	return crate.Snapshot(c.CrateRoot)
}

// validate rejects bad configuration before any parsing begins.
func (c *Converter) validate() error {
	info, err := os.Stat(c.CrateRoot)
	if err != nil {
		return fmt.Errorf("crate root %s: %w", c.CrateRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("crate root %s is not a directory", c.CrateRoot)
	}
	if c.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}
	return nil
}

type crateTracks struct {
	path   model.CratePath
	tracks []model.Track
}

// loadPlaylists decodes every crate and reconciles the flat set of crate
// paths into playlists plus the set of folder paths that must exist in the
// output tree. The policy mirrors how Serato presents subcrates:
//
//  1. Every strict prefix of a crate path becomes a folder.
//  2. A crate whose path is strictly extended by another crate also becomes a
//     folder.
//  3. Such a crate contributes no playlist when it has no tracks (it is
//     structural only); when it does have tracks the playlist is parented to
//     the crate's own folder.
//  4. Every other crate contributes one playlist parented to the enclosing
//     folder.
func (c *Converter) loadPlaylists() ([]model.Playlist, []model.CratePath, error) {
	crates, err := crate.IterCrates(c.CrateRoot)
	if err != nil {
		return nil, nil, err
	}

	folderSet := make(map[string]model.CratePath)
	addFolder := func(p model.CratePath) {
		folderSet[p.String()] = p
	}

	entries := make([]crateTracks, 0, len(crates))
	for _, cf := range crates {
		tracks, err := crate.LoadCrate(cf.Name)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, crateTracks{path: cf.Path, tracks: tracks})
		for depth := 1; depth < len(cf.Path); depth++ {
			addFolder(cf.Path[:depth])
		}
	}

	var playlists []model.Playlist
	for _, entry := range entries {
		hasChildren := false
		for _, other := range entries {
			if entry.path.IsStrictPrefixOf(other.path) {
				hasChildren = true
				break
			}
		}
		if hasChildren {
			addFolder(entry.path)
		}
		if hasChildren && len(entry.tracks) == 0 {
			// Purely structural: mirror the Serato hierarchy as a folder only.
			continue
		}
		parent := entry.path.Parent()
		if hasChildren {
			parent = entry.path
		}
		playlists = append(playlists, model.Playlist{
			Path:   entry.path,
			Name:   entry.path.Last(),
			Tracks: entry.tracks,
			Parent: parent,
		})
	}

	folders := make([]model.CratePath, 0, len(folderSet))
	for _, p := range folderSet {
		folders = append(folders, p)
	}
	return playlists, folders, nil
}

func (c *Converter) summarize(playlists []model.Playlist) *model.ConversionSummary {
	order := make([]string, 0, len(playlists))
	counts := make(map[string]int, len(playlists))
	total := 0
	for _, pl := range playlists {
		key := pl.Path.Display()
		order = append(order, key)
		counts[key] = len(pl.Tracks)
		total += len(pl.Tracks)
	}
	return &model.ConversionSummary{
		Output:         c.Output,
		PlaylistOrder:  order,
		PlaylistCounts: counts,
		TrackCount:     total,
	}
}
