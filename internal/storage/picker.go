package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/CodexFabrica/Feder/internal/apperr"
)

// WorkspacePicker resolves picker prompts against a configured
// workspace directory. Interactive choosing is the UI's job (clients
// pass explicit paths with their requests), so this picker only covers
// flows that reach the server without one: directories default to the
// workspace root, save targets land inside it, and opening a file
// without a path counts as a dismissed picker.
type WorkspacePicker struct {
	Root string
}

// NewWorkspacePicker creates a picker rooted at the given directory,
// creating it if absent.
func NewWorkspacePicker(root string) (*WorkspacePicker, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: workspace root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create workspace: %w", err)
	}
	return &WorkspacePicker{Root: root}, nil
}

func (p *WorkspacePicker) PickDirectory(_ context.Context) (Dir, error) {
	return OpenDir(p.Root)
}

func (p *WorkspacePicker) PickFileToOpen(_ context.Context) (File, error) {
	return nil, apperr.ErrCancelled
}

func (p *WorkspacePicker) PickFileToSave(_ context.Context, suggestedName string) (File, error) {
	dir, err := OpenDir(p.Root)
	if err != nil {
		return nil, err
	}
	if suggestedName == "" {
		suggestedName = "untitled.md"
	}
	return dir.File(suggestedName, true)
}
