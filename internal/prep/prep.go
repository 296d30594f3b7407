// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prep shrinks HTML before it is uploaded for conversion. It never
// converts anything itself; it only removes bytes the service would ignore.
package prep

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2/minify"
)

// Options selects which passes run. Passes run in order: sanitize, minify.
type Options struct {
	Sanitize bool
	Minify   bool
}

// Enabled reports whether any pass is selected.
func (o Options) Enabled() bool {
	return o.Sanitize || o.Minify
}

// Preparer applies the selected passes. Safe for concurrent use.
type Preparer struct {
	opts   Options
	policy *bluemonday.Policy
}

// New builds a Preparer for opts.
func New(opts Options) *Preparer {
	p := &Preparer{opts: opts}
	if opts.Sanitize {
		// UGC keeps structure (headings, lists, tables, links, code) and drops
		// scripts, styles, event handlers and javascript: URLs.
		policy := bluemonday.UGCPolicy()
		policy.AllowDataURIImages()
		p.policy = policy
	}
	return p
}

// Prepare returns doc after the selected passes.
func (p *Preparer) Prepare(doc string) (string, error) {
	out := doc
	if p.policy != nil {
		out = p.policy.Sanitize(out)
	}
	if p.opts.Minify {
		m, err := minify.HTML(out)
		if err != nil {
			return "", fmt.Errorf("minifying HTML: %w", err)
		}
		out = m
	}
	return out, nil
}
