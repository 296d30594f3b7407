// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/htmlmd/pkg/types"
)

// TargetFor maps an input file to its output path: outputDir joined with the
// input's relative path, extension replaced by .md.
func TargetFor(outputDir string, in types.InputFile) types.OutputTarget {
	rel := filepath.FromSlash(in.RelPath)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + types.MarkdownExt
	return types.OutputTarget{Path: filepath.Join(outputDir, rel)}
}

// WriteOutput writes content to target, creating parent directories and
// replacing any existing file. The content goes to a temporary file in the
// same directory first and is renamed into place, so an interrupted run never
// leaves a half-written target. Failures wrap types.ErrWrite.
func WriteOutput(target types.OutputTarget, content string) error {
	dir := filepath.Dir(target.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w: %w", dir, types.ErrWrite, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w: %w", target.Path, types.ErrWrite, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w: %w", target.Path, types.ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w: %w", target.Path, types.ErrWrite, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w: %w", target.Path, types.ErrWrite, err)
	}
	if err := os.Rename(tmpPath, target.Path); err != nil {
		cleanup()
		return fmt.Errorf("renaming into %s: %w: %w", target.Path, types.ErrWrite, err)
	}
	return nil
}

// frontmatter is the YAML header prepended when requested. It carries no
// timestamp so re-running a batch reproduces identical files.
type frontmatter struct {
	Source string `yaml:"source"`
	Model  string `yaml:"model,omitempty"`
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(in types.InputFile, model, body string) (string, error) {
	data, err := yaml.Marshal(frontmatter{Source: in.RelPath, Model: model})
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String(), nil
}
