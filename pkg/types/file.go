// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the htmlmd conversion driver:
// discovered input files, their output targets, per-file outcomes, the error
// taxonomy, and the configuration passed to the orchestrator.
package types

// ConversionStatus indicates the final state of one file in a batch.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionFailed  ConversionStatus = "failed"
	ConversionSkipped ConversionStatus = "skipped"
)

// InputFile is an HTML file found by discovery. Content is not held here; the
// orchestrator reads it once, right before conversion.
type InputFile struct {
	// Path is the absolute filesystem path of the file.
	Path string `json:"path" yaml:"path"`

	// RelPath is the path relative to the discovery root, in slash form.
	// For a single-file root it is the file's base name.
	RelPath string `json:"rel_path" yaml:"rel_path"`
}

// OutputTarget is the destination of one converted file.
type OutputTarget struct {
	// Path is the output directory joined with the input's RelPath, with the
	// extension replaced by MarkdownExt.
	Path string `json:"path" yaml:"path"`
}

// MarkdownExt is the extension given to every output file.
const MarkdownExt = ".md"

// FileOutcome records what happened to one input file.
type FileOutcome struct {
	Input    InputFile        `json:"input" yaml:"input"`
	Target   OutputTarget     `json:"target" yaml:"target"`
	Status   ConversionStatus `json:"status" yaml:"status"`
	Kind     ErrorKind        `json:"kind,omitempty" yaml:"kind,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts int              `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}
