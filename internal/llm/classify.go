// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/htmlmd/pkg/types"
)

// tooLongMarkers are error codes and message fragments both providers use
// when the prompt exceeds the model's context window.
var tooLongMarkers = []string{
	"context_length_exceeded",
	"string_above_max_length",
	"request_too_large",
	"prompt is too long",
	"maximum context length",
}

// classifyStatus maps a non-200 API response onto the error taxonomy.
// code is the provider's machine-readable error code or type, msg its
// human-readable message.
func classifyStatus(provider string, status int, code, msg string) error {
	detail := msg
	if code != "" {
		detail = code + ": " + msg
	}
	base := fmt.Sprintf("%s API returned %d (%s)", provider, status, detail)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", base, types.ErrAuth)
	case status == http.StatusRequestEntityTooLarge || mentionsTooLong(code, msg):
		return fmt.Errorf("%s: %w", base, types.ErrPayloadTooLarge)
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return fmt.Errorf("%s: %w", base, types.ErrTransient)
	default:
		return fmt.Errorf("%s: %w", base, types.ErrConversion)
	}
}

func mentionsTooLong(code, msg string) bool {
	haystack := strings.ToLower(code + " " + msg)
	for _, m := range tooLongMarkers {
		if strings.Contains(haystack, m) {
			return true
		}
	}
	return false
}

// transportError wraps a failure to reach the service. When the caller's
// context is done the context error is returned instead, so an interrupt is
// not mistaken for a flaky network and retried.
func transportError(ctx context.Context, provider string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("calling %s API: %w", provider, ctxErr)
	}
	return fmt.Errorf("calling %s API: %v: %w", provider, err, types.ErrTransient)
}
