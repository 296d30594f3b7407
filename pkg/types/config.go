// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Provider identifies the text-generation service used for conversion.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Defaults applied by the CLI when neither a flag, an env var, nor the config
// file sets a value.
const (
	DefaultOutputDir     = "output"
	DefaultConcurrency   = 4
	MaxConcurrency       = 16
	DefaultMaxRetries    = 3
	DefaultMaxInputBytes = 1 << 20
	DefaultTimeout       = 5 * time.Minute
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultClaudeModel   = "claude-haiku-4-5"
)

// AIConfig holds settings for calling a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: openai or anthropic.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API. Never read from the
	// config file; resolved from the environment or .secrets/ at startup.
	APIKey string `json:"-" yaml:"-" mapstructure:"-"`

	// BaseURL overrides the provider's API root (proxies, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single HTTP request to the service.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ConversionConfig is everything the batch orchestrator needs. It is passed
// explicitly so the orchestrator never reads the process environment.
type ConversionConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// OutputDir is the root under which Markdown files are written.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Recursive enables walking the input directory's whole subtree.
	Recursive bool `json:"recursive" yaml:"recursive" mapstructure:"recursive"`

	// Concurrency caps how many files are converted at once (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MaxInputBytes rejects larger inputs with ErrPayloadTooLarge before any call.
	MaxInputBytes int `json:"max_input_bytes" yaml:"max_input_bytes" mapstructure:"max_input_bytes"`

	// Sanitize strips scripts, styles and event handlers before upload.
	Sanitize bool `json:"sanitize" yaml:"sanitize" mapstructure:"sanitize"`

	// Minify collapses whitespace and optional markup before upload.
	Minify bool `json:"minify" yaml:"minify" mapstructure:"minify"`

	// Frontmatter prepends a YAML header naming the source file and model.
	Frontmatter bool `json:"frontmatter" yaml:"frontmatter" mapstructure:"frontmatter"`

	// Progress renders a progress bar on stderr.
	Progress bool `json:"progress" yaml:"progress" mapstructure:"progress"`
}

// Validate checks the configuration after defaults and overrides are applied.
func (c ConversionConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(MaxConcurrency)),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&c.MaxInputBytes, validation.Min(1)),
		validation.Field(&c.AIConfig),
	)
}

// Validate checks the provider settings. The API key is required here so a
// missing credential fails before any file is processed.
func (a AIConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Provider, validation.Required, validation.In(ProviderOpenAI, ProviderAnthropic)),
		validation.Field(&a.Model, validation.Required),
		validation.Field(&a.APIKey, validation.Required.Error("no API key configured")),
		validation.Field(&a.Timeout, validation.Min(time.Duration(0))),
	)
}
