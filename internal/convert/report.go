// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/htmlmd/pkg/types"
)

// ReportFormat selects how WriteReport renders a batch.
type ReportFormat string

const (
	ReportText ReportFormat = "text"
	ReportYAML ReportFormat = "yaml"
	ReportJSON ReportFormat = "json"
)

// report is the machine-readable form of a BatchResult.
type report struct {
	Converted int                 `json:"converted" yaml:"converted"`
	Failed    int                 `json:"failed" yaml:"failed"`
	Skipped   int                 `json:"skipped" yaml:"skipped"`
	Total     int                 `json:"total" yaml:"total"`
	ExitCode  int                 `json:"exit_code" yaml:"exit_code"`
	Failures  []types.FileOutcome `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// WriteReport renders r as YAML or JSON. ReportText writes nothing since
// ConvertBatch already printed the text summary.
func WriteReport(w io.Writer, r BatchResult, format ReportFormat) error {
	rep := report{
		Converted: r.Converted,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
		Total:     r.Total(),
		ExitCode:  r.ExitCode(),
		Failures:  r.Failures(),
	}

	switch format {
	case ReportText, "":
		return nil
	case ReportYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encoding YAML report: %w", err)
		}
		return enc.Close()
	case ReportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encoding JSON report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func printOutcome(w io.Writer, o types.FileOutcome) {
	switch o.Status {
	case types.ConversionDone:
		fmt.Fprintf(w, "converted: %s -> %s\n", o.Input.RelPath, o.Target.Path)
	case types.ConversionFailed:
		fmt.Fprintf(w, "failed:    %s (%s: %s)\n", o.Input.RelPath, o.Kind, o.Error)
	}
}

func printSummary(w io.Writer, r BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed, %d skipped (total: %d)\n",
		r.Converted, r.Failed, r.Skipped, r.Total())
	for _, o := range r.Failures() {
		kind := o.Kind
		if kind == types.KindNone {
			kind = "not started"
		}
		fmt.Fprintf(w, "  %-8s %s [%s]\n", o.Status, o.Input.RelPath, kind)
	}
}

// progress wraps an optional progress bar; the zero value is a no-op.
type progress struct {
	bar *pb.ProgressBar
}

func startProgress(enabled bool, total int) progress {
	if !enabled || total == 0 {
		return progress{}
	}
	bar := pb.New(total)
	bar.SetWriter(progressOutput)
	return progress{bar: bar.Start()}
}

func (p progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

func (p progress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}
