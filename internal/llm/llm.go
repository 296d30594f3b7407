// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements the conversion backends that send HTML to a hosted
// text-generation API and return the Markdown it produces. Each backend is a
// thin request/response wrapper; failures are mapped onto the error taxonomy
// in pkg/types so the orchestrator can decide what to retry or abort.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/htmlmd/pkg/types"
)

// Backend converts one HTML document to Markdown.
type Backend interface {
	Convert(ctx context.Context, html string) (string, error)
}

// New builds the backend selected by cfg.Provider. maxInputBytes is the
// local payload limit (0 disables it); client may be nil.
func New(cfg types.AIConfig, maxInputBytes int, client *http.Client) (Backend, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	switch cfg.Provider {
	case types.ProviderOpenAI:
		return &OpenAIBackend{
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			BaseURL:       cfg.BaseURL,
			MaxInputBytes: maxInputBytes,
			Client:        client,
		}, nil
	case types.ProviderAnthropic:
		return &AnthropicBackend{
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			BaseURL:       cfg.BaseURL,
			MaxInputBytes: maxInputBytes,
			Client:        client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p types.Provider) string {
	if p == types.ProviderAnthropic {
		return types.DefaultClaudeModel
	}
	return types.DefaultOpenAIModel
}

func endpoint(baseURL, fallback, path string) string {
	if baseURL == "" {
		baseURL = fallback
	}
	return strings.TrimRight(baseURL, "/") + path
}
