// Package storage is the gateway between the session and the file
// system: handle-based directory and file references, user-driven
// pickers, and permission probes for re-opened projects.
package storage

import "context"

// Entry is one child of a directory listing.
type Entry struct {
	Name string
	Dir  bool
	Ref  string
}

// File is an opaque reference to a single file. A handle may point at a
// file that does not exist yet; it materialises on the first Write.
type File interface {
	// Name returns the base name of the file.
	Name() string
	// Ref returns the stable identity of the file (absolute path).
	Ref() string
	// Read returns the full decoded content.
	Read() ([]byte, error)
	// Write replaces the full content atomically: the payload is staged,
	// synced, and renamed into place, so a concurrent read never observes
	// a partial write.
	Write(data []byte) error
}

// Dir is an opaque reference to a directory.
type Dir interface {
	// Name returns the base name of the directory.
	Name() string
	// Ref returns the stable identity of the directory (absolute path).
	Ref() string
	// File returns a handle for the named child file. With create=false
	// the file must exist. The name must be a bare file name, not a path.
	File(name string, create bool) (File, error)
	// Subdir returns a handle for the named child directory. With
	// create=true the call is idempotent: an existing directory is
	// returned, not an error.
	Subdir(name string, create bool) (Dir, error)
	// Entries lists the immediate children, name-sorted.
	Entries() ([]Entry, error)
}

// Picker models the user-driven choice of a storage location. A
// dismissed picker yields apperr.ErrCancelled, which callers treat as a
// no-op outcome rather than a failure.
type Picker interface {
	PickDirectory(ctx context.Context) (Dir, error)
	PickFileToOpen(ctx context.Context) (File, error)
	PickFileToSave(ctx context.Context, suggestedName string) (File, error)
}
