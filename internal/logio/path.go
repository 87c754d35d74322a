package logio

import (
	"path/filepath"
)

// ancestorsInclusive returns dir and every strict ancestor of dir up to and
// including root, ordered from dir outward. root itself must be an ancestor
// of (or equal to) dir.
func ancestorsInclusive(root, dir string) []string {
	root = filepath.Clean(root)
	dir = filepath.Clean(dir)

	var dirs []string
	cur := dir
	for {
		dirs = append(dirs, cur)
		if cur == root {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return dirs
}
