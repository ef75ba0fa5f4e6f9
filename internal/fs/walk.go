package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker discovers contract source files under a repository root.
// Ignored directories are pruned rather than descended into.
type Walker struct {
	ignore *IgnoreMatcher
}

// NewWalker creates a Walker that skips paths matching any of ignorePatterns.
func NewWalker(ignorePatterns []string) *Walker {
	return &Walker{ignore: NewIgnoreMatcher(ignorePatterns)}
}

// FindByName returns regular files under root whose path relative to root
// matches "**/<pattern>" for any of the given patterns. A pattern may itself
// contain '/' to pin a subdirectory. Results are absolute paths in lexical order.
// A root that is not a directory yields no files.
func (w *Walker) FindByName(root string, patterns []string) ([]string, error) {
	globs := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(p), "/")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid file pattern %q", p)
		}
		globs = append(globs, path.Join("**", p))
	}
	if len(globs) == 0 {
		return nil, nil
	}

	return w.walk(root, root, func(rel string) bool {
		for _, g := range globs {
			if ok, _ := doublestar.Match(g, rel); ok {
				return true
			}
		}
		return false
	})
}

// FindByExt returns regular files with the given extension (including the
// dot) found under each of subdirs of root. Subdirectories that do not exist
// are skipped. Results are absolute paths in lexical order per subdirectory.
func (w *Walker) FindByExt(root string, subdirs []string, ext string) ([]string, error) {
	var files []string
	for _, sub := range subdirs {
		found, err := w.walk(root, filepath.Join(root, sub), func(rel string) bool {
			return strings.EqualFold(path.Ext(rel), ext)
		})
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// walk visits every regular file under start that is not ignored and keeps
// those accepted by keep. Ignore patterns and keep both see the
// slash-separated path relative to root.
func (w *Walker) walk(root, start string, keep func(rel string) bool) ([]string, error) {
	info, err := os.Stat(start)
	if err != nil || !info.IsDir() {
		return nil, nil
	}

	ignore := w.ignore
	extra, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	if len(extra) > 0 {
		ignore = ignore.With(extra)
	}

	var files []string
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, the rest of the tree is still useful.
			if d != nil && d.IsDir() && p != start {
				return fs.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", p, err)
		}
		if ignore.Match(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if keep(filepath.ToSlash(rel)) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", start, err)
	}
	return files, nil
}
