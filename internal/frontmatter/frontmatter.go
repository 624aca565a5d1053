// Package frontmatter splits a structured document into its YAML
// metadata block and Markdown body, and reassembles them on save.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CodexFabrica/Feder/internal/models"
)

const delim = "---"

// Parse splits raw text into a metadata mapping and a body.
//
// The document must start with a delimiter line and contain a closing
// delimiter; the block between them is parsed as YAML. Any failure
// (missing delimiters, unparsable YAML) degrades to the whole input as
// body with an empty metadata map. Parse never returns an error.
//
// The split is on the literal "---" sequence, so a body that itself
// contains a lone "---" line directly after the header block is
// ambiguous. Known limitation, kept for on-disk compatibility.
func Parse(raw string) (map[string]any, string) {
	if !strings.HasPrefix(raw, delim) {
		return map[string]any{}, raw
	}
	parts := strings.Split(raw, delim)
	if len(parts) < 3 {
		return map[string]any{}, raw
	}

	var meta map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		return map[string]any{}, raw
	}
	if meta == nil {
		meta = map[string]any{}
	}

	body := strings.TrimSpace(strings.Join(parts[2:], delim))
	return meta, body
}

// Serialize renders metadata as a frontmatter block followed by the
// content. With an empty metadata map the content is returned verbatim
// so that metadata-free documents round-trip byte for byte. A metadata
// map that cannot be rendered as YAML is an error; returning the bare
// content instead would silently drop the metadata from the next save.
func Serialize(content string, meta map[string]any) (string, error) {
	if len(meta) == 0 {
		return content, nil
	}
	block, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("frontmatter: render metadata: %w", err)
	}
	return delim + "\n" + string(block) + delim + "\n\n" + content, nil
}

// Normalize upgrades legacy metadata shapes in place and returns the map.
// In researcher mode a plain-string entry in the authors list becomes a
// structured {name: <string>} mapping, matching what the metadata form
// and the LaTeX generator expect.
func Normalize(meta map[string]any, mode models.Mode) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	if mode != models.ModeResearcher {
		return meta
	}
	authors, ok := meta["authors"].([]any)
	if !ok {
		return meta
	}
	for i, a := range authors {
		if s, ok := a.(string); ok {
			authors[i] = map[string]any{"name": s}
		}
	}
	return meta
}
