package crate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"cratesync/model"
)

// Extension is the crate file extension Serato uses.
const Extension = ".crate"

// File pairs a crate's position in the source tree with its file location.
type File struct {
	Path model.CratePath
	Name string // filesystem location of the .crate file
}

// IterCrates finds every crate file under root, recursively. Results are
// ordered lexicographically by relative path components. WalkDir's lexical
// traversal is not enough here: it visits the directory Main/ before the file
// Main.crate, so a crate whose key prefixes another's would come second. The
// CratePath is the relative path's components with the final .crate extension
// stripped.
func IterCrates(root string) ([]File, error) {
	var crates []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != Extension {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		last := parts[len(parts)-1]
		parts[len(parts)-1] = strings.TrimSuffix(last, Extension)
		crates = append(crates, File{Path: parts, Name: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan crate root %s: %w", root, err)
	}
	slices.SortFunc(crates, func(a, b File) int {
		return a.Path.Compare(b.Path)
	})
	return crates, nil
}

// Snapshot maps every crate file under root to its last-modified time. A
// caller compares snapshots structurally (e.g. maps.Equal) to decide whether
// a reconversion is warranted; any added, removed or modified file shows up
// as a difference. No comparison happens here.
func Snapshot(root string) (map[string]time.Time, error) {
	crates, err := IterCrates(root)
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]time.Time, len(crates))
	for _, c := range crates {
		info, err := os.Stat(c.Name)
		if err != nil {
			return nil, fmt.Errorf("stat crate %s: %w", c.Name, err)
		}
		snapshot[c.Name] = info.ModTime()
	}
	return snapshot, nil
}
