// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives a batch of HTML-to-Markdown conversions: it reads
// each discovered file, hands its content to a Converter, and writes the
// result under the output directory. Files are independent; one file's
// failure never stops the batch, except an authentication failure, after
// which no further call could succeed.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/htmlmd/internal/prep"
	"github.com/pdiddy/htmlmd/pkg/types"
)

// Converter transforms HTML text into Markdown. The LLM backends implement
// it; tests supply fakes.
type Converter interface {
	Convert(ctx context.Context, html string) (string, error)
}

// Process exit codes derived from a batch.
const (
	ExitOK        = 0
	ExitFatal     = 1
	ExitPartial   = 2
	ExitAllFailed = 3
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Failed    int
	Skipped   int

	// Outcomes has one entry per input file, in discovery order.
	Outcomes []types.FileOutcome
}

// Total returns the total number of files in the batch.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed + r.Skipped
}

// HasFailures reports whether any file failed or was left unprocessed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0 || r.Skipped > 0
}

// Failures returns the outcomes that did not end in a written file.
func (r BatchResult) Failures() []types.FileOutcome {
	var out []types.FileOutcome
	for _, o := range r.Outcomes {
		if o.Status != types.ConversionDone {
			out = append(out, o)
		}
	}
	return out
}

// ExitCode maps the batch to a process exit status: 0 when every file was
// converted (an empty batch included), 3 when none was, 2 otherwise.
func (r BatchResult) ExitCode() int {
	switch {
	case !r.HasFailures():
		return ExitOK
	case r.Converted == 0:
		return ExitAllFailed
	default:
		return ExitPartial
	}
}

// backoffBase controls the base duration for exponential backoff between
// attempts on transient errors. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// progressOutput receives the progress bar when enabled.
var progressOutput io.Writer = os.Stderr

// ConvertBatch converts files with c, writing Markdown under cfg.OutputDir
// and a status line per file plus a summary to w.
//
// At most cfg.Concurrency files are in flight. Transient errors are retried
// up to cfg.MaxRetries times. An authentication error cancels the rest of
// the batch: files not yet started are reported as skipped and the returned
// error wraps types.ErrAuth. Cancelling ctx likewise stops new work and the
// context error is returned. In both cases the partial result is returned.
func ConvertBatch(ctx context.Context, c Converter, files []types.InputFile, cfg types.ConversionConfig, w io.Writer) (BatchResult, error) {
	outcomes := planOutcomes(files, cfg.OutputDir)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	limit := cfg.Concurrency
	if limit <= 0 {
		limit = 1
	}

	p := newPreparer(cfg)
	bar := startProgress(cfg.Progress, len(files))

	var mu sync.Mutex
	report := func(o types.FileOutcome) {
		mu.Lock()
		defer mu.Unlock()
		printOutcome(w, o)
		bar.Increment()
	}

	for i := range outcomes {
		if outcomes[i].Status == types.ConversionFailed {
			report(outcomes[i])
		}
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range outcomes {
		if outcomes[i].Status == types.ConversionFailed {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			o := convertOne(ctx, c, p, outcomes[i], cfg)
			outcomes[i] = o
			if o.Kind == types.KindAuth {
				cancel(fmt.Errorf("%s: %s: %w", o.Input.RelPath, o.Error, types.ErrAuth))
			}
			if o.Status != types.ConversionSkipped {
				report(o)
			}
			return nil
		})
	}
	g.Wait()
	bar.Finish()

	result := tally(outcomes)
	printSummary(w, result)

	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return result, fmt.Errorf("aborting batch: %w", cause)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// planOutcomes pairs each input with its target. Inputs whose target was
// already claimed by an earlier input (e.g. page.html and page.htm in the
// same directory) are failed up front so nothing is overwritten silently.
func planOutcomes(files []types.InputFile, outputDir string) []types.FileOutcome {
	outcomes := make([]types.FileOutcome, len(files))
	claimed := make(map[string]string, len(files))
	for i, f := range files {
		target := TargetFor(outputDir, f)
		outcomes[i] = types.FileOutcome{Input: f, Target: target, Status: types.ConversionSkipped}
		if first, ok := claimed[target.Path]; ok {
			err := fmt.Errorf("output %s already claimed by %s: %w", target.Path, first, types.ErrWrite)
			outcomes[i] = fail(outcomes[i], err)
			continue
		}
		claimed[target.Path] = f.RelPath
	}
	return outcomes
}

// ConvertFile runs one file through read, prepare, convert and write.
// The returned outcome's status is converted or failed; a file interrupted by
// cancellation is reported as skipped.
func ConvertFile(ctx context.Context, c Converter, in types.InputFile, cfg types.ConversionConfig) types.FileOutcome {
	o := types.FileOutcome{Input: in, Target: TargetFor(cfg.OutputDir, in)}
	return convertOne(ctx, c, newPreparer(cfg), o, cfg)
}

// newPreparer returns nil when no pre-processing pass is selected.
func newPreparer(cfg types.ConversionConfig) *prep.Preparer {
	opts := prep.Options{Sanitize: cfg.Sanitize, Minify: cfg.Minify}
	if !opts.Enabled() {
		return nil
	}
	return prep.New(opts)
}

func convertOne(ctx context.Context, c Converter, p *prep.Preparer, o types.FileOutcome, cfg types.ConversionConfig) types.FileOutcome {
	log := slog.With("file", o.Input.RelPath)
	start := time.Now()

	raw, err := os.ReadFile(o.Input.Path)
	if err != nil {
		return fail(o, fmt.Errorf("reading %s: %w: %w", o.Input.Path, types.ErrRead, err))
	}

	html := string(raw)
	if p != nil {
		if html, err = p.Prepare(html); err != nil {
			return fail(o, fmt.Errorf("preparing %s: %v: %w", o.Input.RelPath, err, types.ErrConversion))
		}
		log.Debug("prepared input", "bytes_before", len(raw), "bytes_after", len(html))
	}

	md, attempts, err := callWithRetry(ctx, c, html, cfg.MaxRetries)
	o.Attempts = attempts
	if err != nil {
		if ctx.Err() != nil && types.KindOf(err) == types.KindCanceled {
			o.Status = types.ConversionSkipped
			o.Kind = types.KindCanceled
			o.Error = err.Error()
			return o
		}
		return fail(o, err)
	}

	content := md
	if cfg.Frontmatter {
		content, err = addFrontmatter(o.Input, cfg.Model, md)
		if err != nil {
			return fail(o, fmt.Errorf("%v: %w", err, types.ErrWrite))
		}
	}

	if err := WriteOutput(o.Target, content); err != nil {
		return fail(o, err)
	}

	log.Debug("converted", "target", o.Target.Path, "attempts", attempts, "elapsed", time.Since(start))
	o.Status = types.ConversionDone
	return o
}

func fail(o types.FileOutcome, err error) types.FileOutcome {
	o.Status = types.ConversionFailed
	o.Kind = types.KindOf(err)
	o.Error = err.Error()
	return o
}

// callWithRetry calls the converter, retrying only transient errors with
// exponential backoff. It returns the number of attempts made.
func callWithRetry(ctx context.Context, c Converter, html string, maxRetries int) (string, int, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			slog.Warn("transient error, retrying", "error", lastErr, "attempt", attempt, "max", maxRetries, "delay", backoff)
			select {
			case <-ctx.Done():
				return "", attempt, ctx.Err()
			case <-time.After(backoff):
			}
		}

		md, err := c.Convert(ctx, html)
		if err == nil {
			return md, attempt + 1, nil
		}
		if !errors.Is(err, types.ErrTransient) {
			return "", attempt + 1, err
		}
		lastErr = err
	}
	return "", maxRetries + 1, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func tally(outcomes []types.FileOutcome) BatchResult {
	r := BatchResult{Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case types.ConversionDone:
			r.Converted++
		case types.ConversionFailed:
			r.Failed++
		default:
			r.Skipped++
		}
	}
	return r
}
