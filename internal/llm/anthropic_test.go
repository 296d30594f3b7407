// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/htmlmd/pkg/types"
)

func newAnthropic(t *testing.T, h http.HandlerFunc) *AnthropicBackend {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &AnthropicBackend{
		APIKey:           "ak-test",
		Model:            types.DefaultClaudeModel,
		BaseURL:          ts.URL,
		RateLimitRetries: 1,
		Client:           ts.Client(),
	}
}

func TestAnthropicBackend_Convert(t *testing.T) {
	var got claudeRequest
	b := newAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, anthropicPath, r.URL.Path)
		assert.Equal(t, "ak-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"content":[{"type":"text","text":"# Hello\n\nWorld"}],"stop_reason":"end_turn"}`))
	})

	md, err := b.Convert(context.Background(), "<h1>Hello</h1><p>World</p>")
	require.NoError(t, err)
	assert.Equal(t, "# Hello\n\nWorld", md)

	assert.Equal(t, systemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "without a surrounding code fence")
	assert.Contains(t, got.Messages[0].Content, "<h1>Hello</h1><p>World</p>")
}

func TestAnthropicBackend_StripsFence(t *testing.T) {
	b := newAnthropic(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"` + "```markdown\\n# Hi\\n```" + `"}],"stop_reason":"end_turn"}`))
	})

	md, err := b.Convert(context.Background(), "<h1>Hi</h1>")
	require.NoError(t, err)
	assert.Equal(t, "# Hi\n", md)
}

func TestAnthropicBackend_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind types.ErrorKind
	}{
		{
			name:     "bad key",
			status:   http.StatusUnauthorized,
			body:     `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`,
			wantKind: types.KindAuth,
		},
		{
			name:     "request too large",
			status:   http.StatusRequestEntityTooLarge,
			body:     `{"type":"error","error":{"type":"request_too_large","message":"Request exceeds the maximum allowed number of bytes."}}`,
			wantKind: types.KindPayloadTooLarge,
		},
		{
			name:     "prompt too long",
			status:   http.StatusBadRequest,
			body:     `{"type":"error","error":{"type":"invalid_request_error","message":"prompt is too long: 250000 tokens > 200000 maximum"}}`,
			wantKind: types.KindPayloadTooLarge,
		},
		{
			name:     "overloaded",
			status:   529,
			body:     `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
			wantKind: types.KindTransient,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: must be positive"}}`,
			wantKind: types.KindConversion,
		},
		{
			name:     "no text block",
			status:   http.StatusOK,
			body:     `{"content":[{"type":"tool_use"}],"stop_reason":"end_turn"}`,
			wantKind: types.KindConversion,
		},
		{
			name:     "truncated",
			status:   http.StatusOK,
			body:     `{"content":[{"type":"text","text":"# Half"}],"stop_reason":"max_tokens"}`,
			wantKind: types.KindConversion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newAnthropic(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := b.Convert(context.Background(), "<p>hi</p>")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, types.KindOf(err), "error: %v", err)
		})
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "# A\n", "# A\n"},
		{"fenced", "```md\n# A\n\ntext\n```", "# A\n\ntext\n"},
		{"several blocks", "```go\nx\n```\n\n```js\ny\n```", "```go\nx\n```\n\n```js\ny\n```"},
		{"bare fence", "```", "```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFence(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	b, err := New(types.AIConfig{Provider: types.ProviderOpenAI, Model: "m", APIKey: "k"}, 10, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIBackend{}, b)
	assert.Equal(t, 10, b.(*OpenAIBackend).MaxInputBytes)

	b, err = New(types.AIConfig{Provider: types.ProviderAnthropic, Model: "m", APIKey: "k"}, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicBackend{}, b)

	_, err = New(types.AIConfig{Provider: "gemini"}, 0, nil)
	assert.Error(t, err)

	assert.Equal(t, types.DefaultOpenAIModel, DefaultModel(types.ProviderOpenAI))
	assert.Equal(t, types.DefaultClaudeModel, DefaultModel(types.ProviderAnthropic))
}
