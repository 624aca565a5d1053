// Package latex renders a document body and its metadata into a
// standalone LaTeX article. The conversion is intentionally shallow
// (headings, emphasis, image references): good enough for a first
// compile pass; anything heavier belongs in a real converter.
package latex

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sectionRe       = regexp.MustCompile(`(?m)^# (.*)$`)
	subsectionRe    = regexp.MustCompile(`(?m)^## (.*)$`)
	subsubsectionRe = regexp.MustCompile(`(?m)^### (.*)$`)

	boldStarRe        = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnderscoreRe  = regexp.MustCompile(`__(.*?)__`)
	italStarRe        = regexp.MustCompile(`\*(.*?)\*`)
	italUnderscoreRe  = regexp.MustCompile(`_(.*?)_`)

	imageRe = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
)

// Generate renders content and metadata into a .tex payload. It reads
// title, author or authors, date, abstract, and references from the
// metadata mapping and never mutates its inputs.
func Generate(content string, meta map[string]any) string {
	if meta == nil {
		meta = map[string]any{}
	}

	var b strings.Builder
	b.WriteString("\\documentclass{article}\n")
	b.WriteString("\\usepackage{graphicx}\n")
	b.WriteString("\\usepackage{amsmath}\n")
	b.WriteString("\\usepackage{hyperref}\n")
	b.WriteString("\\usepackage[utf8]{inputenc}\n")
	b.WriteString("\\usepackage{natbib}\n\n")

	fmt.Fprintf(&b, "\\title{%s}\n", stringOr(meta["title"], "Untitled"))
	fmt.Fprintf(&b, "\\author{%s}\n", authorLine(meta))
	fmt.Fprintf(&b, "\\date{%s}\n\n", stringOr(meta["date"], "\\today"))

	b.WriteString("\\begin{document}\n\n")
	b.WriteString("\\maketitle\n\n")

	if abstract := stringOr(meta["abstract"], ""); abstract != "" {
		fmt.Fprintf(&b, "\\begin{abstract}\n%s\n\\end{abstract}\n\n", abstract)
	}

	b.WriteString(convertBody(content))

	if _, ok := meta["references"]; ok {
		b.WriteString("\n\\bibliographystyle{plain}\n\\bibliography{references}\n")
	}

	b.WriteString("\n\\end{document}\n")
	return b.String()
}

// authorLine joins a structured authors list with \and, falling back to
// a plain author string.
func authorLine(meta map[string]any) string {
	if list, ok := meta["authors"].([]any); ok && len(list) > 0 {
		names := make([]string, 0, len(list))
		for _, a := range list {
			switch v := a.(type) {
			case string:
				names = append(names, v)
			case map[string]any:
				if n, ok := v["name"].(string); ok {
					names = append(names, n)
				}
			}
		}
		return strings.Join(names, " \\and ")
	}
	return stringOr(meta["author"], "")
}

func convertBody(body string) string {
	body = sectionRe.ReplaceAllString(body, `\section{$1}`)
	body = subsectionRe.ReplaceAllString(body, `\subsection{$1}`)
	body = subsubsectionRe.ReplaceAllString(body, `\subsubsection{$1}`)

	body = boldStarRe.ReplaceAllString(body, `\textbf{$1}`)
	body = boldUnderscoreRe.ReplaceAllString(body, `\textbf{$1}`)
	body = italStarRe.ReplaceAllString(body, `\textit{$1}`)
	body = italUnderscoreRe.ReplaceAllString(body, `\textit{$1}`)

	body = imageRe.ReplaceAllStringFunc(body, func(m string) string {
		parts := imageRe.FindStringSubmatch(m)
		alt, src := parts[1], parts[2]
		return fmt.Sprintf("\n\\begin{figure}[h]\n    \\centering\n    \\includegraphics[width=0.8\\textwidth]{%s}\n    \\caption{%s}\n\\end{figure}\n", src, alt)
	})

	return body
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
