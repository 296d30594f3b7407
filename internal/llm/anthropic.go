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
	anthropicName       = "Anthropic"
	anthropicDefaultURL = "https://api.anthropic.com"
	anthropicPath       = "/v1/messages"
	anthropicVersion    = "2023-06-01"
)

// AnthropicBackend calls the Claude Messages API. The Markdown is the text
// of the first text block in the reply.
type AnthropicBackend struct {
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

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content    []claudeContent `json:"content"`
	StopReason string          `json:"stop_reason"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Convert sends html to the Messages API and returns the Markdown.
func (c *AnthropicBackend) Convert(ctx context.Context, html string) (string, error) {
	if err := checkInput(html, c.MaxInputBytes); err != nil {
		return "", err
	}

	prompt, err := renderPrompt(html, true)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := claudeRequest{
		Model:     c.Model,
		MaxTokens: maxOutputTokens,
		System:    systemPrompt,
		Messages: []claudeMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint(c.BaseURL, anthropicDefaultURL, anthropicPath), bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.RateLimitRetries)
	if err != nil {
		return "", transportError(ctx, anthropicName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb claudeErrorBody
		code, msg := "", strings.TrimSpace(string(body))
		if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
			code, msg = eb.Error.Type, eb.Error.Message
		}
		return "", classifyStatus(anthropicName, resp.StatusCode, code, msg)
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding %s response: %v: %w", anthropicName, err, types.ErrConversion)
	}
	if cResp.StopReason == "max_tokens" {
		return "", fmt.Errorf("output truncated at %d tokens: %w", maxOutputTokens, types.ErrConversion)
	}

	for _, block := range cResp.Content {
		if block.Type != "text" {
			continue
		}
		md := stripFence(block.Text)
		if strings.TrimSpace(md) == "" {
			break
		}
		return md, nil
	}

	return "", fmt.Errorf("%s API returned no markdown: %w", anthropicName, types.ErrConversion)
}

// stripFence removes a single code fence wrapped around the whole reply.
// Replies holding several fenced blocks are returned unchanged.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	nl := strings.IndexByte(t, '\n')
	if nl < 0 {
		return s
	}
	inner := t[nl+1 : len(t)-3]
	if strings.Contains(inner, "```") {
		return s
	}
	return strings.TrimRight(inner, "\n") + "\n"
}
