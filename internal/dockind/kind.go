// Package dockind classifies filenames into content kinds that drive
// parsing and display decisions.
package dockind

import (
	"path/filepath"
	"strings"
)

// Kind is the content kind of a file.
type Kind string

const (
	// KindDocument is Markdown with optional frontmatter. It is the
	// default for unknown and extensionless names.
	KindDocument     Kind = "document"
	KindBibliography Kind = "bibliography"
	KindText         Kind = "text"
	KindData         Kind = "data"
	KindImage        Kind = "image"
)

// Classify maps a filename to its content kind by suffix.
// Image extensions match case-insensitively.
func Classify(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".bib":
		return KindBibliography
	case ".json":
		return KindData
	case ".txt":
		return KindText
	case ".png", ".jpg", ".jpeg", ".svg", ".gif":
		return KindImage
	default:
		return KindDocument
	}
}

// TextLike reports whether the kind carries editable text.
func (k Kind) TextLike() bool {
	return k != KindImage
}

// UsesFrontmatter reports whether the frontmatter codec applies on
// open and save. Only structured documents carry metadata.
func (k Kind) UsesFrontmatter() bool {
	return k == KindDocument
}
