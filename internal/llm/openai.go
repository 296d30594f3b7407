// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/htmlmd/internal/httputil"
	"github.com/pdiddy/htmlmd/pkg/types"
)

const (
	openAIName       = "OpenAI"
	openAIDefaultURL = "https://api.openai.com"
	openAIChatPath   = "/v1/chat/completions"
)

// OpenAIBackend calls the Chat Completions API with a JSON-schema response
// format so the Markdown comes back in a single named field.
type OpenAIBackend struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxInputBytes rejects larger documents before calling (0 disables).
	MaxInputBytes int
	// RateLimitRetries bounds 429 backoff inside one call (0 uses the
	// httputil default).
	RateLimitRetries int
	Client           *http.Client
}

type openAIRequest struct {
	Model          string               `json:"model"`
	MaxTokens      int                  `json:"max_tokens"`
	Messages       []openAIMessage      `json:"messages"`
	ResponseFormat openAIResponseFormat `json:"response_format"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema openAIJSONSchema `json:"json_schema"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	FinishReason string `json:"finish_reason"`
	Message      struct {
		Content string `json:"content"`
		Refusal string `json:"refusal"`
	} `json:"message"`
}

type openAIErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// markdownResponse is the structured output the schema asks for.
type markdownResponse struct {
	MarkdownContent string `json:"markdown_content"`
}

var markdownSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"markdown_content": map[string]any{"type": "string"},
	},
	"required":             []string{"markdown_content"},
	"additionalProperties": false,
}

// Convert sends html to the Chat Completions API and returns the Markdown.
func (o *OpenAIBackend) Convert(ctx context.Context, html string) (string, error) {
	if err := checkInput(html, o.MaxInputBytes); err != nil {
		return "", err
	}

	prompt, err := renderPrompt(html, false)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := openAIRequest{
		Model:     o.Model,
		MaxTokens: maxOutputTokens,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: openAIResponseFormat{
			Type: "json_schema",
			JSONSchema: openAIJSONSchema{
				Name:   "markdown_response",
				Strict: true,
				Schema: markdownSchema,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint(o.BaseURL, openAIDefaultURL, openAIChatPath), bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, o.RateLimitRetries)
	if err != nil {
		return "", transportError(ctx, openAIName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb openAIErrorBody
		code, msg := "", strings.TrimSpace(string(body))
		if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
			code, msg = firstNonEmpty(eb.Error.Code, eb.Error.Type), eb.Error.Message
		}
		return "", classifyStatus(openAIName, resp.StatusCode, code, msg)
	}

	var oResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding %s response: %v: %w", openAIName, err, types.ErrConversion)
	}
	if len(oResp.Choices) == 0 {
		return "", fmt.Errorf("%s API returned no choices: %w", openAIName, types.ErrConversion)
	}

	choice := oResp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("model refused: %s: %w", choice.Message.Refusal, types.ErrConversion)
	}
	if choice.FinishReason == "length" {
		return "", fmt.Errorf("output truncated at %d tokens: %w", maxOutputTokens, types.ErrConversion)
	}

	var md markdownResponse
	if err := json.Unmarshal([]byte(choice.Message.Content), &md); err != nil {
		return "", fmt.Errorf("parsing structured output: %v: %w", err, types.ErrConversion)
	}
	if strings.TrimSpace(md.MarkdownContent) == "" {
		return "", fmt.Errorf("%s API returned empty markdown: %w", openAIName, types.ErrConversion)
	}

	return md.MarkdownContent, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
