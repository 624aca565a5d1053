package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CodexFabrica/Feder/internal/apperr"
)

func tempDir(t *testing.T) Dir {
	t.Helper()
	d, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	return d
}

func TestFileWriteAndRead(t *testing.T) {
	d := tempDir(t)
	f, err := d.File("note.md", true)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if err := f.Write([]byte("# Hello\nWorld")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := f.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "# Hello\nWorld" {
		t.Errorf("content = %q", got)
	}
}

func TestFileMissingWithoutCreate(t *testing.T) {
	d := tempDir(t)
	_, err := d.File("absent.md", false)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFileOverwrite(t *testing.T) {
	d := tempDir(t)
	f, _ := d.File("a.md", true)
	_ = f.Write([]byte("first"))
	if err := f.Write([]byte("second")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ := f.Read()
	if string(got) != "second" {
		t.Errorf("content = %q", got)
	}
	// No staged files left behind.
	matches, _ := filepath.Glob(filepath.Join(d.Ref(), ".feder-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestSubdirIdempotent(t *testing.T) {
	d := tempDir(t)
	first, err := d.Subdir("figures", true)
	if err != nil {
		t.Fatalf("create subdir: %v", err)
	}
	second, err := d.Subdir("figures", true)
	if err != nil {
		t.Fatalf("re-create subdir should succeed: %v", err)
	}
	if first.Ref() != second.Ref() {
		t.Errorf("refs differ: %q vs %q", first.Ref(), second.Ref())
	}
}

func TestSubdirMissingWithoutCreate(t *testing.T) {
	d := tempDir(t)
	_, err := d.Subdir("nope", false)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestChildNameRejected(t *testing.T) {
	d := tempDir(t)
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		if _, err := d.File(name, true); err == nil {
			t.Errorf("File(%q) should fail", name)
		}
		if _, err := d.Subdir(name, true); err == nil {
			t.Errorf("Subdir(%q) should fail", name)
		}
	}
}

func TestEntriesSortedAndFiltered(t *testing.T) {
	d := tempDir(t)
	for _, name := range []string{"b.md", "a.md"} {
		f, _ := d.File(name, true)
		_ = f.Write([]byte("x"))
	}
	if _, err := d.Subdir("figures", true); err != nil {
		t.Fatal(err)
	}
	// A stray staged file must be invisible.
	if err := os.WriteFile(filepath.Join(d.Ref(), ".feder-tmp-123"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := d.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3: %v", len(entries), entries)
	}
	if entries[0].Name != "a.md" || entries[1].Name != "b.md" || entries[2].Name != "figures" {
		t.Errorf("order = %v", entries)
	}
	if !entries[2].Dir {
		t.Error("figures should be a directory entry")
	}
}

func TestReopen(t *testing.T) {
	d := tempDir(t)
	re, err := Reopen(d.Ref())
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if re.Ref() != d.Ref() {
		t.Errorf("ref = %q, want %q", re.Ref(), d.Ref())
	}

	if _, err := Reopen(filepath.Join(d.Ref(), "gone")); err == nil {
		t.Error("Reopen of a missing dir should fail")
	}
}

func TestAccessProbes(t *testing.T) {
	d := tempDir(t)
	if !QueryAccess(d.Ref()) {
		t.Error("QueryAccess should grant an existing dir")
	}
	if err := RequestAccess(d.Ref()); err != nil {
		t.Errorf("RequestAccess: %v", err)
	}

	gone := filepath.Join(d.Ref(), "moved-away")
	if QueryAccess(gone) {
		t.Error("QueryAccess should deny a missing dir")
	}
	if err := RequestAccess(gone); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("RequestAccess err = %v, want ErrPermissionDenied", err)
	}
}

func TestAccessProbesReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	if err := os.Chmod(root, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	// Readable but not writable: both probes must deny.
	if QueryAccess(root) {
		t.Error("QueryAccess should deny a read-only dir")
	}
	if err := RequestAccess(root); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("RequestAccess err = %v, want ErrPermissionDenied", err)
	}
}

func TestWorkspacePicker(t *testing.T) {
	root := filepath.Join(t.TempDir(), "workspace")
	p, err := NewWorkspacePicker(root)
	if err != nil {
		t.Fatalf("NewWorkspacePicker: %v", err)
	}

	dir, err := p.PickDirectory(t.Context())
	if err != nil {
		t.Fatalf("PickDirectory: %v", err)
	}
	if dir.Ref() != root {
		t.Errorf("dir ref = %q, want %q", dir.Ref(), root)
	}

	if _, err := p.PickFileToOpen(t.Context()); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("PickFileToOpen err = %v, want ErrCancelled", err)
	}

	f, err := p.PickFileToSave(t.Context(), "draft.md")
	if err != nil {
		t.Fatalf("PickFileToSave: %v", err)
	}
	if f.Name() != "draft.md" {
		t.Errorf("name = %q", f.Name())
	}
}
