package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CodexFabrica/Feder/internal/dockind"
	"github.com/CodexFabrica/Feder/internal/models"
	"github.com/CodexFabrica/Feder/internal/storage"
)

func treeFixture(t *testing.T) storage.Dir {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"figures", "archive"} {
		if err := os.Mkdir(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		"main.md":               "# Hi",
		"references.bib":        "",
		"notes.txt":             "n",
		"figures/chart.png":     "p",
		"archive/old.md":        "# Old",
		".feder-tmp-1234567890": "junk",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	dir, err := storage.OpenDir(root)
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBuildTreeLayout(t *testing.T) {
	root := treeFixture(t)

	nodes, err := buildTree(root, models.ModeResearcher)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}

	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	want := []string{"archive", "figures", "main.md", "notes.txt", "references.bib"}
	if len(names) != len(want) {
		t.Fatalf("top level = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("top level = %v, want dirs first then files", names)
		}
	}

	if !nodes[0].Dir || len(nodes[0].Children) != 1 || nodes[0].Children[0].Name != "old.md" {
		t.Errorf("archive subtree = %+v", nodes[0])
	}
	if nodes[1].Children[0].Path != "figures/chart.png" {
		t.Errorf("path = %q, want project-relative", nodes[1].Children[0].Path)
	}
	if nodes[2].Kind != dockind.KindDocument {
		t.Errorf("main.md kind = %q", nodes[2].Kind)
	}
}

func TestBuildTreeHidesBibliographyForJournalists(t *testing.T) {
	root := treeFixture(t)

	nodes, err := buildTree(root, models.ModeJournalist)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range nodes {
		if n.Name == "references.bib" {
			t.Error("bibliography visible outside researcher mode")
		}
	}
}
