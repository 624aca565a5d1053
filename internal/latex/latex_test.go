package latex

import (
	"strings"
	"testing"
)

func TestGenerate_Preamble(t *testing.T) {
	out := Generate("Body.", map[string]any{"title": "My Paper"})
	if !strings.HasPrefix(out, "\\documentclass{article}") {
		t.Errorf("missing documentclass, got %q", out[:40])
	}
	for _, want := range []string{
		"\\title{My Paper}",
		"\\date{\\today}",
		"\\maketitle",
		"\\end{document}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerate_DefaultTitle(t *testing.T) {
	out := Generate("x", nil)
	if !strings.Contains(out, "\\title{Untitled}") {
		t.Error("missing default title")
	}
}

func TestGenerate_Headings(t *testing.T) {
	out := Generate("# One\n## Two\n### Three\n", nil)
	for _, want := range []string{
		"\\section{One}",
		"\\subsection{Two}",
		"\\subsubsection{Three}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerate_Emphasis(t *testing.T) {
	out := Generate("**bold** and *ital* and __strong__ and _soft_", nil)
	for _, want := range []string{
		"\\textbf{bold}",
		"\\textit{ital}",
		"\\textbf{strong}",
		"\\textit{soft}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerate_ImageFigure(t *testing.T) {
	out := Generate("![chart](figures/chart.png)", nil)
	if !strings.Contains(out, "\\includegraphics[width=0.8\\textwidth]{figures/chart.png}") {
		t.Error("missing includegraphics")
	}
	if !strings.Contains(out, "\\caption{chart}") {
		t.Error("missing caption")
	}
}

func TestGenerate_StructuredAuthors(t *testing.T) {
	meta := map[string]any{
		"authors": []any{
			map[string]any{"name": "Ada Lovelace"},
			"Grace Hopper",
		},
	}
	out := Generate("x", meta)
	if !strings.Contains(out, "\\author{Ada Lovelace \\and Grace Hopper}") {
		t.Errorf("author line wrong:\n%s", out)
	}
}

func TestGenerate_PlainAuthorFallback(t *testing.T) {
	out := Generate("x", map[string]any{"author": "Jo Byline"})
	if !strings.Contains(out, "\\author{Jo Byline}") {
		t.Error("missing plain author")
	}
}

func TestGenerate_Abstract(t *testing.T) {
	out := Generate("x", map[string]any{"abstract": "Short summary."})
	if !strings.Contains(out, "\\begin{abstract}\nShort summary.\n\\end{abstract}") {
		t.Error("missing abstract block")
	}

	plain := Generate("x", nil)
	if strings.Contains(plain, "\\begin{abstract}") {
		t.Error("abstract block without metadata")
	}
}

func TestGenerate_BibliographyTail(t *testing.T) {
	out := Generate("x", map[string]any{"references": true})
	if !strings.Contains(out, "\\bibliography{references}") {
		t.Error("missing bibliography tail")
	}
}
