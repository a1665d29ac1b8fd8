package fs

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestWalker_IncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "one.py"), "1")
	writeFile(t, filepath.Join(root, "a", "two.txt"), "2")
	writeFile(t, filepath.Join(root, "b", "__pycache__", "three.py"), "3")
	writeFile(t, filepath.Join(root, ".hidden", "four.py"), "4")
	writeFile(t, filepath.Join(root, "five.py"), "5")

	w := NewWalker([]string{"**/*.py"}, []string{"**/__pycache__/**", "**/.*/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	var got []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, filepath.ToSlash(rel))
	}
	sort.Strings(got)

	want := []string{"a/one.py", "five.py"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestWalker_DefaultIncludesEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x", "y.md"), "y")

	files, err := NewWalker(nil, nil).Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Size != 1 {
		t.Errorf("unexpected files %+v", files)
	}
}
