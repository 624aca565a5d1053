package dockind

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		want Kind
	}{
		{"refs.bib", KindBibliography},
		{"project_metadata.json", KindData},
		{"notes.txt", KindText},
		{"figure.png", KindImage},
		{"photo.JPG", KindImage},
		{"diagram.svg", KindImage},
		{"anim.gif", KindImage},
		{"main.md", KindDocument},
		{"a.b.md", KindDocument},
		{"notes", KindDocument},
		{"weird.xyz", KindDocument},
	}
	for _, c := range cases {
		if got := Classify(c.name); got != c.want {
			t.Errorf("Classify(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if KindImage.TextLike() {
		t.Error("image should not be text-like")
	}
	if !KindBibliography.TextLike() {
		t.Error("bibliography should be text-like")
	}
	if KindBibliography.UsesFrontmatter() {
		t.Error("only documents use frontmatter")
	}
	if !KindDocument.UsesFrontmatter() {
		t.Error("documents use frontmatter")
	}
}
