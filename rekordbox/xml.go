// Package rekordbox serializes a reconciled crate hierarchy into a
// Rekordbox-compatible DJ_PLAYLISTS XML document.
package rekordbox

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"cratesync/model"
)

// XML document structure per the Rekordbox import schema.

type Document struct {
	XMLName    xml.Name   `xml:"DJ_PLAYLISTS"`
	Version    string     `xml:"Version,attr"`
	Product    Product    `xml:"PRODUCT"`
	Collection Collection `xml:"COLLECTION"`
	Playlists  Playlists  `xml:"PLAYLISTS"`
}

type Product struct {
	Name    string `xml:"Name,attr"`
	Version string `xml:"Version,attr"`
	Company string `xml:"Company,attr"`
}

type Collection struct {
	Entries int               `xml:"Entries,attr"`
	Tracks  []CollectionTrack `xml:"TRACK"`
}

type CollectionTrack struct {
	TrackID  int            `xml:"TrackID,attr"`
	Name     string         `xml:"Name,attr"`
	Location string         `xml:"Location,attr"`
	Marks    []PositionMark `xml:"POSITION_MARK"`
}

type PositionMark struct {
	Name  string `xml:"Name,attr"`
	Type  string `xml:"Type,attr"`
	Start string `xml:"Start,attr"`
	Num   uint32 `xml:"Num,attr"`
	Red   string `xml:"Red,attr"`
	Green string `xml:"Green,attr"`
	Blue  string `xml:"Blue,attr"`
}

type Playlists struct {
	Root *Node `xml:"NODE"`
}

// Node is either a folder (Type "0", child Nodes) or a playlist (Type "1",
// TRACK key references plus a membership Count).
type Node struct {
	Type  string     `xml:"Type,attr"`
	Name  string     `xml:"Name,attr"`
	Count string     `xml:"Count,attr,omitempty"`
	Keys  []TrackKey `xml:"TRACK"`
	Nodes []*Node    `xml:"NODE"`
}

type TrackKey struct {
	Key int `xml:"Key,attr"`
}

const (
	nodeTypeFolder   = "0"
	nodeTypePlaylist = "1"
)

// Builder constructs Rekordbox documents carrying a product descriptor.
type Builder struct {
	ProductName    string
	ProductVersion string
}

func NewBuilder(name, version string) *Builder {
	return &Builder{ProductName: name, ProductVersion: version}
}

// Build assembles the document: a flat collection of deduplicated tracks and
// a folder/playlist tree rooted at a single ROOT node.
func (b *Builder) Build(playlists []model.Playlist, folders []model.CratePath) *Document {
	ids, collection := collectUniqueTracks(playlists)

	doc := &Document{
		Version: "1.0.0",
		Product: Product{
			Name:    b.ProductName,
			Version: b.ProductVersion,
			Company: "cratesync",
		},
		Collection: Collection{
			Entries: len(collection),
			Tracks:  collection,
		},
	}

	root := &Node{Type: nodeTypeFolder, Name: "ROOT"}
	doc.Playlists.Root = root

	// Folder paths come from the hierarchy builder plus every prefix of each
	// playlist's parent, so a playlist never dangles from a missing folder.
	folderSet := make(map[string]model.CratePath)
	for _, f := range folders {
		folderSet[f.String()] = f
	}
	for _, pl := range playlists {
		for depth := 1; depth <= len(pl.Parent); depth++ {
			prefix := pl.Parent[:depth]
			folderSet[prefix.String()] = prefix
		}
	}

	folderNodes := make(map[string]*Node)
	var ensureFolder func(path model.CratePath) *Node
	ensureFolder = func(path model.CratePath) *Node {
		if len(path) == 0 {
			return root
		}
		if node, ok := folderNodes[path.String()]; ok {
			return node
		}
		parent := ensureFolder(path.Parent())
		node := &Node{Type: nodeTypeFolder, Name: path.Last()}
		parent.Nodes = append(parent.Nodes, node)
		folderNodes[path.String()] = node
		return node
	}

	sortedFolders := make([]model.CratePath, 0, len(folderSet))
	for _, f := range folderSet {
		sortedFolders = append(sortedFolders, f)
	}
	slices.SortFunc(sortedFolders, model.CratePath.Compare)
	for _, f := range sortedFolders {
		ensureFolder(f)
	}

	sortedPlaylists := slices.Clone(playlists)
	slices.SortFunc(sortedPlaylists, func(a, b model.Playlist) int {
		return a.Path.Compare(b.Path)
	})
	for _, pl := range sortedPlaylists {
		parent := ensureFolder(pl.Parent)
		node := &Node{
			Type:  nodeTypePlaylist,
			Name:  pl.Name,
			Count: strconv.Itoa(len(pl.Tracks)),
		}
		for _, track := range pl.Tracks {
			if id, ok := ids[resolvePath(track.Path)]; ok {
				node.Keys = append(node.Keys, TrackKey{Key: id})
			}
		}
		parent.Nodes = append(parent.Nodes, node)
	}

	return doc
}

// collectUniqueTracks assigns dense 1-based TrackIDs in first-encounter order
// across playlists. Identity is the resolved filesystem path, so the same
// file referenced from several crates lands in the collection exactly once.
func collectUniqueTracks(playlists []model.Playlist) (map[string]int, []CollectionTrack) {
	ids := make(map[string]int)
	var collection []CollectionTrack
	nextID := 1
	for _, pl := range playlists {
		for _, track := range pl.Tracks {
			key := resolvePath(track.Path)
			if _, seen := ids[key]; seen {
				continue
			}
			ids[key] = nextID
			collection = append(collection, CollectionTrack{
				TrackID:  nextID,
				Name:     track.DisplayName(),
				Location: FileURL(track.Path),
				Marks:    positionMarks(track.CuePoints),
			})
			nextID++
		}
	}
	return ids, collection
}

// resolvePath makes a path absolute and symlink-independent where possible.
// Missing files still resolve to their cleaned absolute form.
func resolvePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs
}

// FileURL encodes a track location the way Rekordbox expects, e.g.
// file://localhost/Users/dj/Music/track.mp3 with the path percent-encoded.
func FileURL(path string) string {
	absolute := resolvePath(path)
	slashed := strings.ReplaceAll(absolute, `\`, "/")
	quoted := (&url.URL{Path: slashed}).EscapedPath()
	if !strings.HasPrefix(quoted, "/") {
		quoted = "/" + quoted
	}
	return "file://localhost" + quoted
}

// positionMarks converts cue points to POSITION_MARK elements ordered by
// (index, position).
func positionMarks(cues []model.CuePoint) []PositionMark {
	sorted := slices.Clone(cues)
	slices.SortStableFunc(sorted, func(a, b model.CuePoint) int {
		if a.Index != b.Index {
			if a.Index < b.Index {
				return -1
			}
			return 1
		}
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return 0
	})
	marks := make([]PositionMark, 0, len(sorted))
	for _, cue := range sorted {
		name := cue.Name
		if name == "" {
			name = fmt.Sprintf("Hot Cue %d", cue.Index+1)
		}
		marks = append(marks, PositionMark{
			Name:  name,
			Type:  "0",
			Start: fmt.Sprintf("%.6f", float64(cue.Position)),
			Num:   cue.Index,
			Red:   "255",
			Green: "255",
			Blue:  "255",
		})
	}
	return marks
}

// WriteFile serializes the document to path, creating parent directories as
// needed. The XML is staged in a uniquely named temp file and renamed into
// place so a concurrent reader never sees a half-written document.
func (d *Document) WriteFile(path string) error {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rekordbox xml: %w", err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
