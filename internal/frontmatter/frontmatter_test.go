package frontmatter

import (
	"reflect"
	"testing"

	"github.com/CodexFabrica/Feder/internal/models"
)

func TestParse_MetadataAndBody(t *testing.T) {
	raw := "---\ntitle: Hello\nauthor: Jo\n---\n\n# Hello\nBody text."
	meta, body := Parse(raw)
	if meta["title"] != "Hello" || meta["author"] != "Jo" {
		t.Errorf("meta = %v", meta)
	}
	if body != "# Hello\nBody text." {
		t.Errorf("body = %q", body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	raw := "# Just a heading\nSome text."
	meta, body := Parse(raw)
	if len(meta) != 0 {
		t.Errorf("expected empty metadata, got %v", meta)
	}
	if body != raw {
		t.Errorf("body = %q", body)
	}
}

func TestParse_UnterminatedBlock(t *testing.T) {
	raw := "---\ntitle: Dangling\nno closing line"
	meta, body := Parse(raw)
	if len(meta) != 0 {
		t.Errorf("expected empty metadata, got %v", meta)
	}
	if body != raw {
		t.Errorf("body = %q", body)
	}
}

func TestParse_InvalidYAMLDegrades(t *testing.T) {
	raw := "---\n: bad: yaml: {{{\n---\nBody"
	meta, body := Parse(raw)
	if len(meta) != 0 {
		t.Errorf("expected empty metadata on bad YAML, got %v", meta)
	}
	if body != raw {
		t.Errorf("body should be the whole input, got %q", body)
	}
}

func TestParse_EmptyBlock(t *testing.T) {
	meta, body := Parse("---\n---\nBody only.")
	if meta == nil || len(meta) != 0 {
		t.Errorf("expected empty non-nil metadata, got %v", meta)
	}
	if body != "Body only." {
		t.Errorf("body = %q", body)
	}
}

func TestSerialize_EmptyMetadataVerbatim(t *testing.T) {
	content := "# Title\n\nNo metadata here."
	if got, err := Serialize(content, map[string]any{}); err != nil || got != content {
		t.Errorf("Serialize with empty metadata = %q, %v, want content verbatim", got, err)
	}
	if got, err := Serialize(content, nil); err != nil || got != content {
		t.Errorf("Serialize with nil metadata = %q, %v, want content verbatim", got, err)
	}
}

func TestSerialize_UnrenderableMetadata(t *testing.T) {
	// A value YAML cannot encode must surface as an error rather than
	// come back as bare content with the metadata dropped.
	_, err := Serialize("Body", map[string]any{"title": func() {}})
	if err == nil {
		t.Fatal("expected an error for unrenderable metadata")
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		meta    map[string]any
		content string
	}{
		{
			name:    "scalars",
			meta:    map[string]any{"title": "Alpha", "author": "Jo"},
			content: "# Alpha\n\nParagraph one.\n\nParagraph two.",
		},
		{
			name: "nested authors",
			meta: map[string]any{
				"title": "Beta",
				"authors": []any{
					map[string]any{"name": "Ada", "affiliation": "Uni", "email": "ada@uni.edu"},
				},
			},
			content: "Body with **bold** and *italic*.",
		},
		{
			name:    "empty content",
			meta:    map[string]any{"title": "Gamma"},
			content: "",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			raw, err := Serialize(c.content, c.meta)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			meta, body := Parse(raw)
			if !reflect.DeepEqual(meta, c.meta) {
				t.Errorf("meta = %v, want %v", meta, c.meta)
			}
			if body != c.content {
				t.Errorf("body = %q, want %q", body, c.content)
			}
		})
	}
}

func TestParse_BodyWithDashRun(t *testing.T) {
	// The naive split also breaks on a horizontal rule inside the body;
	// the segments after the header are rejoined with the delimiter.
	raw := "---\ntitle: T\n---\nabove\n---\nbelow"
	meta, body := Parse(raw)
	if meta["title"] != "T" {
		t.Fatalf("meta = %v", meta)
	}
	if body != "above\n---\nbelow" {
		t.Errorf("body = %q", body)
	}
}

func TestNormalize_UpgradesStringAuthors(t *testing.T) {
	meta := map[string]any{
		"authors": []any{"Ada Lovelace", map[string]any{"name": "Grace"}},
	}
	out := Normalize(meta, models.ModeResearcher)
	authors := out["authors"].([]any)
	first, ok := authors[0].(map[string]any)
	if !ok || first["name"] != "Ada Lovelace" {
		t.Errorf("first author = %v", authors[0])
	}
	second := authors[1].(map[string]any)
	if second["name"] != "Grace" {
		t.Errorf("second author = %v", authors[1])
	}
}

func TestNormalize_JournalistUntouched(t *testing.T) {
	meta := map[string]any{"author": "Jo", "authors": []any{"legacy"}}
	out := Normalize(meta, models.ModeJournalist)
	if _, ok := out["authors"].([]any)[0].(string); !ok {
		t.Error("journalist metadata should not be rewritten")
	}
}

func TestNormalize_Nil(t *testing.T) {
	out := Normalize(nil, models.ModeResearcher)
	if out == nil || len(out) != 0 {
		t.Errorf("Normalize(nil) = %v, want empty map", out)
	}
}
