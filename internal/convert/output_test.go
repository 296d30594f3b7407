// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/htmlmd/pkg/types"
)

func TestTargetFor(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"a.html", "out/a.md"},
		{"sub/b.htm", "out/sub/b.md"},
		{"deep/er/Index.HTML", "out/deep/er/Index.md"},
		{"v1.2/notes.html", "out/v1.2/notes.md"},
		{"page.txt", "out/page.md"},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got := TargetFor("out", types.InputFile{RelPath: tt.rel})
			assert.Equal(t, filepath.FromSlash(tt.want), got.Path)
		})
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	target := types.OutputTarget{Path: filepath.Join(dir, "x", "y", "doc.md")}

	require.NoError(t, WriteOutput(target, "# first version, longer\n"))
	require.NoError(t, WriteOutput(target, "# second\n"))

	data, err := os.ReadFile(target.Path)
	require.NoError(t, err)
	assert.Equal(t, "# second\n", string(data))

	info, err := os.Stat(target.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(target.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteOutput_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	err := WriteOutput(types.OutputTarget{Path: filepath.Join(blocker, "doc.md")}, "# x")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrWrite)
}

func TestWriteReport(t *testing.T) {
	r := BatchResult{
		Converted: 1,
		Failed:    1,
		Outcomes: []types.FileOutcome{
			{Input: types.InputFile{RelPath: "a.html"}, Status: types.ConversionDone},
			{
				Input:    types.InputFile{RelPath: "b.html"},
				Target:   types.OutputTarget{Path: "out/b.md"},
				Status:   types.ConversionFailed,
				Kind:     types.KindTransient,
				Error:    "503",
				Attempts: 4,
			},
		},
	}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, r, ReportYAML))

		var got report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, 2, got.Total)
		assert.Equal(t, ExitPartial, got.ExitCode)
		require.Len(t, got.Failures, 1)
		assert.Equal(t, "b.html", got.Failures[0].Input.RelPath)
		assert.Equal(t, types.KindTransient, got.Failures[0].Kind)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, r, ReportJSON))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.EqualValues(t, 1, got["converted"])
		assert.EqualValues(t, 1, got["failed"])
	})

	t.Run("text writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, r, ReportText))
		assert.Empty(t, buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, WriteReport(&bytes.Buffer{}, r, "xml"))
	})
}
