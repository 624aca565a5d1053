// Package models defines the domain types for Feder.
package models

import (
	"time"

	"github.com/CodexFabrica/Feder/internal/dockind"
)

// Mode is the authoring workflow of a project.
type Mode string

const (
	// ModeJournalist is the single-file workflow with plain author/title metadata.
	ModeJournalist Mode = "journalist"
	// ModeResearcher is the directory-backed workflow with structured author
	// lists, a bibliography, and a figures folder.
	ModeResearcher Mode = "researcher"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeJournalist || m == ModeResearcher
}

// View is the current screen of the session.
type View string

const (
	ViewWelcome View = "welcome"
	ViewEditor  View = "editor"
)

// ProjectMetadata is the persisted project record stored as
// project_metadata.json at the project root.
type ProjectMetadata struct {
	Name string `json:"name"`
	Mode Mode   `json:"mode"`
}

// ProjectInfo is a read-only snapshot of the open project.
type ProjectInfo struct {
	Name string `json:"name"`
	Mode Mode   `json:"mode"`
	Ref  string `json:"ref"`
}

// DocumentSnapshot is a read-only copy of the document under edit.
// Content and Metadata are only meaningful for the structured-document
// kind; other kinds carry raw text in Content and an empty metadata map.
type DocumentSnapshot struct {
	Name     string         `json:"name"`
	Kind     dockind.Kind   `json:"kind"`
	Ref      string         `json:"ref,omitempty"` // empty while unsaved
	Src      string         `json:"src,omitempty"` // display source for images
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Checksum string         `json:"checksum"`
}

// RecentProject is one entry of the recently opened projects list,
// uniquely identified by the storage ref (names may collide).
type RecentProject struct {
	Ref          string    `json:"ref"`
	Name         string    `json:"name"`
	Mode         Mode      `json:"mode"`
	LastOpenedAt time.Time `json:"last_opened_at"`
}

// TreeNode is one entry of the explorer tree.
type TreeNode struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"` // relative to the project root
	Dir      bool         `json:"dir"`
	Kind     dockind.Kind `json:"kind,omitempty"`
	Children []*TreeNode  `json:"children,omitempty"`
}

// ImageRef is the result of an image upload: an alt text and a source
// reference to insert into the document body. Src is either a
// project-relative path (figures/<name>) or an inline data URI.
type ImageRef struct {
	Alt string `json:"alt"`
	Src string `json:"src"`
}
