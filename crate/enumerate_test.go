package crate

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeEmptyCrate(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIterCratesSortedFlat(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEmptyCrate(t, root, "Zulu.crate")
	writeEmptyCrate(t, root, "Alpha.crate")

	crates, err := IterCrates(root)
	if err != nil {
		t.Fatalf("IterCrates: %v", err)
	}
	if len(crates) != 2 {
		t.Fatalf("len(crates)=%d, want 2", len(crates))
	}
	if !slices.Equal(crates[0].Path, []string{"Alpha"}) {
		t.Errorf("crates[0].Path=%v, want [Alpha]", crates[0].Path)
	}
	if !slices.Equal(crates[1].Path, []string{"Zulu"}) {
		t.Errorf("crates[1].Path=%v, want [Zulu]", crates[1].Path)
	}
}

func TestIterCratesPrefixBeforeDescendant(t *testing.T) {
	t.Parallel()

	// A crate whose key is a path prefix of another's must come first even
	// though the walk visits the Main/ directory before the Main.crate file.
	root := t.TempDir()
	writeEmptyCrate(t, root, "Main/Sub/Peak.crate")
	writeEmptyCrate(t, root, "Main.crate")

	crates, err := IterCrates(root)
	if err != nil {
		t.Fatalf("IterCrates: %v", err)
	}
	if len(crates) != 2 {
		t.Fatalf("len(crates)=%d, want 2", len(crates))
	}
	if !slices.Equal(crates[0].Path, []string{"Main"}) {
		t.Errorf("crates[0].Path=%v, want [Main]", crates[0].Path)
	}
	if !slices.Equal(crates[1].Path, []string{"Main", "Sub", "Peak"}) {
		t.Errorf("crates[1].Path=%v, want [Main Sub Peak]", crates[1].Path)
	}
}

func TestIterCratesNestedPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEmptyCrate(t, root, "Main/Sub/Deep.crate")

	crates, err := IterCrates(root)
	if err != nil {
		t.Fatalf("IterCrates: %v", err)
	}
	if len(crates) != 1 {
		t.Fatalf("len(crates)=%d, want 1", len(crates))
	}
	if !slices.Equal(crates[0].Path, []string{"Main", "Sub", "Deep"}) {
		t.Errorf("Path=%v, want [Main Sub Deep]", crates[0].Path)
	}
}

func TestIterCratesIgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeEmptyCrate(t, root, "Keep.crate")
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	crates, err := IterCrates(root)
	if err != nil {
		t.Fatalf("IterCrates: %v", err)
	}
	if len(crates) != 1 || crates[0].Path.String() != "Keep" {
		t.Fatalf("crates=%+v, want only Keep", crates)
	}
}

func TestIterCratesMissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := IterCrates(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("err=nil, want error for missing root")
	}
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	a := writeEmptyCrate(t, root, "A.crate")
	b := writeEmptyCrate(t, root, "Nested/B.crate")

	snapshot, err := Snapshot(root)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("len(snapshot)=%d, want 2", len(snapshot))
	}
	for _, path := range []string{a, b} {
		mtime, ok := snapshot[path]
		if !ok {
			t.Fatalf("snapshot missing %s", path)
		}
		if mtime.IsZero() {
			t.Errorf("snapshot[%s] has zero mtime", path)
		}
	}
}

func TestSnapshotMissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := Snapshot(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("err=nil, want error for missing root")
	}
}
