// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/htmlmd/pkg/types"
)

// setupTree creates the given slash-separated files under a temp dir.
func setupTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("<p>"+f+"</p>"), 0o644))
	}
	return root
}

func relPaths(files []types.InputFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	return out
}

func TestDiscover(t *testing.T) {
	tree := []string{
		"b.html",
		"a.html",
		"notes.txt",
		"legacy.HTM",
		"sub/c.html",
		"sub/deeper/d.htm",
		"sub/readme.md",
		".hidden/e.html",
	}

	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{
			name:      "non-recursive yields direct children only",
			recursive: false,
			want:      []string{"a.html", "b.html", "legacy.HTM"},
		},
		{
			name:      "recursive yields the whole subtree",
			recursive: true,
			want: []string{
				".hidden/e.html",
				"a.html",
				"b.html",
				"legacy.HTM",
				"sub/c.html",
				"sub/deeper/d.htm",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupTree(t, tree...)

			got, err := Discover(root, tt.recursive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, relPaths(got))

			for _, f := range got {
				assert.True(t, filepath.IsAbs(f.Path), "path %s should be absolute", f.Path)
				assert.Equal(t, filepath.Join(root, filepath.FromSlash(f.RelPath)), f.Path)
			}
		})
	}
}

func TestDiscover_NoDuplicates(t *testing.T) {
	root := setupTree(t, "x/a.html", "x/y/a.html", "a.html", "z/a.htm")

	got, err := Discover(root, true)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, f := range got {
		assert.False(t, seen[f.RelPath], "duplicate %s", f.RelPath)
		seen[f.RelPath] = true
		assert.True(t, IsHTML(f.RelPath))
	}
	assert.Len(t, got, 4)
}

func TestDiscover_SingleFile(t *testing.T) {
	root := setupTree(t, "docs/page.txt")
	path := filepath.Join(root, "docs", "page.txt")

	got, err := Discover(path, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "page.txt", got[0].RelPath)
	assert.Equal(t, path, got[0].Path)
}

func TestDiscover_EmptyDirectory(t *testing.T) {
	root := setupTree(t, "readme.md")

	got, err := Discover(root, true)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
}

func TestDiscover_SkipsSymlinks(t *testing.T) {
	root := setupTree(t, "real/a.html")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := Discover(root, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"real/a.html"}, relPaths(got))
}

func TestDiscover_SymlinkedRoot(t *testing.T) {
	target := setupTree(t, "a.html", "sub/b.html")
	link := filepath.Join(t.TempDir(), "docs")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tests := []struct {
		name      string
		recursive bool
		want      []string
	}{
		{"non-recursive", false, []string{"a.html"}},
		{"recursive", true, []string{"a.html", "sub/b.html"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(link, tt.recursive)
			require.NoError(t, err)
			assert.Equal(t, tt.want, relPaths(got))
			for _, f := range got {
				assert.FileExists(t, f.Path)
			}
		})
	}
}

func TestDiscover_SkipsUnreadableSubdir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := setupTree(t, "a.html", "locked/b.html", "open/c.html")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	got, err := Discover(root, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html", "open/c.html"}, relPaths(got))
}

func TestIsHTML(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"index.html", true},
		{"index.htm", true},
		{"INDEX.HTML", true},
		{"index.xhtml", false},
		{"index.html.bak", false},
		{"html", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHTML(tt.name))
		})
	}
}
