package core

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Discover walks dir and returns the files that match a registered file type,
// in lexical order. Hidden directories are skipped, as are files that are the
// localized output of another match for one of the configured locales.
// An empty dir means the service root, or the working directory.
func (s *Service) Discover(ctx context.Context, dir string) ([]string, error) {
	if dir == "" {
		dir = s.root
	}
	if dir == "" {
		dir = "."
	}

	var matches []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, err := s.Resolve(path); err == nil {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	outputs := make(map[string]bool)
	for _, path := range matches {
		ft, err := s.Resolve(path)
		if err != nil {
			continue
		}
		for _, loc := range s.locales {
			out, err := FormatPath(ft.Template, path, loc)
			if err != nil {
				continue
			}
			if out != filepath.Clean(path) {
				outputs[out] = true
			}
		}
	}

	files := matches[:0]
	for _, path := range matches {
		if !outputs[filepath.Clean(path)] {
			files = append(files, path)
		}
	}

	s.log.Debug("discovered files", "dir", dir, "count", len(files), "skipped_outputs", len(matches)-len(files))
	return files, nil
}
