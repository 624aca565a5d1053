package mcpserver

// DocumentFormatContract describes the canonical document shape exposed
// to LLM clients via the feder://document-format resource.
const DocumentFormatContract = `# Feder Document Format

Documents are Markdown files with an optional YAML frontmatter block.

## Structure

` + "```markdown" + `
---
title: Document Title
authors:
  - name: First Author
  - name: Second Author
date: 2025-06-01
abstract: One-paragraph summary used by the LaTeX export.
---

# Heading

Body text in Markdown. Images use standard syntax, with sources
relative to the project root, e.g. ![caption](figures/chart.png).
` + "```" + `

## Rules

- The frontmatter block is optional; a file without one is all body.
- ` + "`authors`" + ` entries are mappings with a ` + "`name`" + ` key. Plain strings
  are accepted and upgraded on load.
- A ` + "`references`" + ` key makes the LaTeX export emit a bibliography that
  reads the project's references.bib.
- Projects keep their record in project_metadata.json and their images
  under figures/; do not write either by hand through these tools.
`
