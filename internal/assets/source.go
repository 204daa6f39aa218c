package assets

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
)

// Source lists the logical paths of every asset the catalog is built from.
type Source interface {
	ListPaths(ctx context.Context) ([]string, error)
}

// DirSource lists files under a local directory. Paths are slash separated
// and relative to Root.
type DirSource struct {
	Root string
}

// ListPaths walks Root in lexical order.
func (s DirSource) ListPaths(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assets: walk %s: %w", s.Root, err)
	}
	return paths, nil
}
