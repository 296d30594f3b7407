// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover finds the HTML files a conversion batch works on.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/htmlmd/pkg/types"
)

// htmlExts lists the extensions (lower-case) that identify HTML files.
var htmlExts = map[string]bool{
	".html": true,
	".htm":  true,
}

// IsHTML reports whether name carries an HTML extension. The check is
// case-insensitive so "INDEX.HTM" matches.
func IsHTML(name string) bool {
	return htmlExts[strings.ToLower(filepath.Ext(name))]
}

// Discover returns the HTML files under root, sorted by relative path.
//
// A file root is returned as-is whatever its extension, with RelPath set to
// its base name. A directory root yields its direct children matching IsHTML,
// or, when recursive is set, every matching file in the subtree. A symlinked
// root is followed; symlinks below it are skipped, and so are subdirectories
// that cannot be read. A missing root wraps types.ErrNotFound; a root with no
// matches returns an empty slice and no error.
func Discover(root string, recursive bool) ([]types.InputFile, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("input path %s: %w", root, types.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return []types.InputFile{{Path: abs, RelPath: filepath.Base(abs)}}, nil
	}

	var files []types.InputFile
	if recursive {
		// WalkDir does not descend into a symlinked root.
		var resolved string
		if resolved, err = filepath.EvalSymlinks(abs); err != nil {
			return nil, fmt.Errorf("resolving %s: %w", root, err)
		}
		files, err = walkTree(resolved)
	} else {
		files, err = listDir(abs)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// listDir returns the matching direct children of dir.
func listDir(dir string) ([]types.InputFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []types.InputFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsHTML(entry.Name()) {
			continue
		}
		files = append(files, types.InputFile{
			Path:    filepath.Join(dir, entry.Name()),
			RelPath: entry.Name(),
		})
	}
	return files, nil
}

// walkTree returns every matching regular file below dir. An unreadable
// subdirectory is logged and skipped; only a failure on dir itself is
// returned.
func walkTree(dir string) ([]types.InputFile, error) {
	var files []types.InputFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir || d == nil || !d.IsDir() {
				return err
			}
			slog.Warn("skipping unreadable directory", "path", path, "error", err)
			return fs.SkipDir
		}
		if !d.Type().IsRegular() || !IsHTML(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, types.InputFile{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, nil
}
