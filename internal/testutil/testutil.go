// Package testutil provides shared fixtures for session and API tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/CodexFabrica/Feder/internal/apperr"
	"github.com/CodexFabrica/Feder/internal/recents"
	"github.com/CodexFabrica/Feder/internal/storage"
)

// Recents opens a throwaway recents database under t.TempDir.
func Recents(t *testing.T) *recents.DB {
	t.Helper()
	db, err := recents.Open(filepath.Join(t.TempDir(), "recents.db"))
	if err != nil {
		t.Fatalf("open recents: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// StubPicker satisfies storage.Picker with canned results. A nil field
// behaves as a dismissed dialog.
type StubPicker struct {
	Dir      storage.Dir
	OpenFile storage.File
	SaveDir  storage.Dir // PickFileToSave creates the suggested name here
	SaveName string      // overrides the suggested name when set
}

func (p *StubPicker) PickDirectory(context.Context) (storage.Dir, error) {
	if p.Dir == nil {
		return nil, apperr.ErrCancelled
	}
	return p.Dir, nil
}

func (p *StubPicker) PickFileToOpen(context.Context) (storage.File, error) {
	if p.OpenFile == nil {
		return nil, apperr.ErrCancelled
	}
	return p.OpenFile, nil
}

func (p *StubPicker) PickFileToSave(_ context.Context, suggested string) (storage.File, error) {
	if p.SaveDir == nil {
		return nil, apperr.ErrCancelled
	}
	name := suggested
	if p.SaveName != "" {
		name = p.SaveName
	}
	return p.SaveDir.File(name, true)
}
