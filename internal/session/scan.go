package session

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/CodexFabrica/Feder/internal/dockind"
	"github.com/CodexFabrica/Feder/internal/models"
	"github.com/CodexFabrica/Feder/internal/storage"
)

// maxTreeDepth caps the explorer scan so a symlink loop or a pathological
// layout cannot hang the walk.
const maxTreeDepth = 12

// buildTree walks the project directory into an explorer tree.
// Directories sort before files, both by name. Bibliography files are
// hidden outside researcher mode, matching the editor's file support.
func buildTree(root storage.Dir, mode models.Mode) ([]*models.TreeNode, error) {
	var top []*models.TreeNode

	type work struct {
		dir   storage.Dir
		out   *[]*models.TreeNode
		depth int
	}
	queue := []work{{dir: root, out: &top}}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]

		entries, err := w.dir.Entries()
		if err != nil {
			if w.depth == 0 {
				return nil, err
			}
			continue // unreadable subtree: show what we can
		}

		for _, e := range entries {
			kind := dockind.Classify(e.Name)
			if !e.Dir && kind == dockind.KindBibliography && mode != models.ModeResearcher {
				continue
			}
			node := &models.TreeNode{
				Name: e.Name,
				Path: relPath(root.Ref(), e.Ref),
				Dir:  e.Dir,
			}
			if !e.Dir {
				node.Kind = kind
			}
			*w.out = append(*w.out, node)

			if e.Dir && w.depth+1 < maxTreeDepth {
				sub, serr := w.dir.Subdir(e.Name, false)
				if serr != nil {
					continue
				}
				queue = append(queue, work{dir: sub, out: &node.Children, depth: w.depth + 1})
			}
		}

		sortNodes(*w.out)
	}

	return top, nil
}

func sortNodes(nodes []*models.TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Dir != nodes[j].Dir {
			return nodes[i].Dir
		}
		return nodes[i].Name < nodes[j].Name
	})
}

func relPath(root, ref string) string {
	rel, err := filepath.Rel(root, ref)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ref
	}
	return filepath.ToSlash(rel)
}
