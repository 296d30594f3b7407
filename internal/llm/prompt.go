// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/htmlmd/pkg/types"
)

// systemPrompt frames the model's role for every request.
const systemPrompt = "You are a helpful assistant that converts HTML to Markdown."

// conversionPromptTmpl is the user message sent with each file. It asks for
// the main content only so boilerplate chrome does not end up in the output.
var conversionPromptTmpl = template.Must(template.New("conversion").Parse(`Convert the following HTML to Markdown, focusing only on the main content. Ignore navigation items, headers, footers, and other non-essential elements. Preserve the important content structure{{if .PlainText}}. Respond with the Markdown only, without a surrounding code fence or commentary{{end}}:

{{.HTML}}`))

// maxOutputTokens is the completion budget for one file.
const maxOutputTokens = 16384

// renderPrompt executes the conversion prompt template for one document.
// plainText adds the "Markdown only" instruction for backends without
// structured output.
func renderPrompt(html string, plainText bool) (string, error) {
	var buf bytes.Buffer
	data := struct {
		HTML      string
		PlainText bool
	}{HTML: html, PlainText: plainText}
	if err := conversionPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// checkInput rejects documents that would waste a call: empty ones and ones
// above the configured byte limit. A limit of 0 disables the size check.
func checkInput(html string, limit int) error {
	if strings.TrimSpace(html) == "" {
		return fmt.Errorf("empty HTML input: %w", types.ErrConversion)
	}
	if limit > 0 && len(html) > limit {
		return fmt.Errorf("input is %d bytes, limit is %d: %w", len(html), limit, types.ErrPayloadTooLarge)
	}
	return nil
}
