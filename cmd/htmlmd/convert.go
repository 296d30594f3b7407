package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/htmlmd/internal/convert"
	"github.com/pdiddy/htmlmd/internal/discover"
	"github.com/pdiddy/htmlmd/internal/llm"
	"github.com/pdiddy/htmlmd/internal/secrets"
	"github.com/pdiddy/htmlmd/pkg/types"
)

// convertFlags maps each flag to its viper key under "convert.".
var convertFlags = map[string]string{
	"recursive":       "convert.recursive",
	"output":          "convert.output_dir",
	"provider":        "convert.provider",
	"model":           "convert.model",
	"base-url":        "convert.base_url",
	"concurrency":     "convert.concurrency",
	"max-retries":     "convert.max_retries",
	"max-input-bytes": "convert.max_input_bytes",
	"timeout":         "convert.timeout",
	"sanitize":        "convert.sanitize",
	"minify":          "convert.minify",
	"frontmatter":     "convert.frontmatter",
	"progress":        "convert.progress",
	"summary":         "convert.summary",
}

func newConvertCmd(v *viper.Viper) *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert <path>",
		Short: "Convert an HTML file or directory to Markdown",
		Long: `Convert sends each HTML file under <path> to the configured language model
and writes the returned Markdown to the output directory, mirroring the input
tree with the extension changed to .md. A single file is converted whatever
its extension.

Exit status: 0 when every file converted, 1 on a startup or authentication
error, 2 when some files failed, 3 when all files failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, v, args[0])
		},
	}

	f := convertCmd.Flags()
	f.BoolP("recursive", "r", false, "walk subdirectories")
	f.StringP("output", "o", types.DefaultOutputDir, "output directory")
	f.String("provider", string(types.ProviderOpenAI), "text-generation service: openai or anthropic")
	f.String("model", "", "model identifier (default depends on provider)")
	f.String("base-url", "", "override the provider API root")
	f.Int("concurrency", types.DefaultConcurrency, "files converted at once")
	f.Int("max-retries", types.DefaultMaxRetries, "retries per file on transient errors")
	f.Int("max-input-bytes", types.DefaultMaxInputBytes, "reject larger inputs without calling the service")
	f.Duration("timeout", types.DefaultTimeout, "timeout for a single API request")
	f.Bool("sanitize", false, "strip scripts, styles and event handlers before upload")
	f.Bool("minify", false, "minify HTML before upload")
	f.Bool("frontmatter", false, "prepend YAML frontmatter naming the source file and model")
	f.Bool("progress", false, "show a progress bar on stderr")
	f.String("summary", string(convert.ReportText), "final report format: text, yaml, or json")

	for flag, key := range convertFlags {
		v.BindPFlag(key, f.Lookup(flag))
	}

	return convertCmd
}

// loadConversionConfig assembles the orchestrator's configuration from flags,
// environment, and config file, then fills provider-dependent defaults.
func loadConversionConfig(v *viper.Viper) types.ConversionConfig {
	cfg := types.ConversionConfig{
		AIConfig: types.AIConfig{
			Provider:   types.Provider(v.GetString("convert.provider")),
			Model:      v.GetString("convert.model"),
			BaseURL:    v.GetString("convert.base_url"),
			MaxRetries: v.GetInt("convert.max_retries"),
			Timeout:    v.GetDuration("convert.timeout"),
		},
		OutputDir:     v.GetString("convert.output_dir"),
		Recursive:     v.GetBool("convert.recursive"),
		Concurrency:   v.GetInt("convert.concurrency"),
		MaxInputBytes: v.GetInt("convert.max_input_bytes"),
		Sanitize:      v.GetBool("convert.sanitize"),
		Minify:        v.GetBool("convert.minify"),
		Frontmatter:   v.GetBool("convert.frontmatter"),
		Progress:      v.GetBool("convert.progress"),
	}
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModel(cfg.Provider)
	}
	return cfg
}

func runConvert(cmd *cobra.Command, v *viper.Viper, path string) error {
	ctx := cmd.Context()
	cfg := loadConversionConfig(v)

	summary := convert.ReportFormat(v.GetString("convert.summary"))
	switch summary {
	case convert.ReportText, convert.ReportYAML, convert.ReportJSON:
	default:
		return fmt.Errorf("unknown summary format %q", summary)
	}

	if cfg.Provider != types.ProviderOpenAI && cfg.Provider != types.ProviderAnthropic {
		return fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	key, source, err := secrets.Resolver{}.APIKey(cfg.Provider)
	if err != nil {
		return err
	}
	cfg.APIKey = key
	slog.Debug("credential resolved", "provider", cfg.Provider, "source", source)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	files, err := discover.Discover(path, cfg.Recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		slog.Warn("no HTML files found", "path", path, "recursive", cfg.Recursive)
	}
	slog.Info("starting batch", "files", len(files), "provider", cfg.Provider,
		"model", cfg.Model, "output", cfg.OutputDir, "concurrency", cfg.Concurrency)

	backend, err := llm.New(cfg.AIConfig, cfg.MaxInputBytes, nil)
	if err != nil {
		return err
	}

	// A YAML or JSON report owns stdout; status lines move to stderr.
	out, status := cmd.OutOrStdout(), cmd.OutOrStdout()
	if summary != convert.ReportText {
		status = cmd.ErrOrStderr()
	}
	result, batchErr := convert.ConvertBatch(ctx, backend, files, cfg, status)

	if err := convert.WriteReport(out, result, summary); err != nil {
		return err
	}

	switch {
	case batchErr == nil:
	case errors.Is(batchErr, types.ErrAuth):
		return &exitError{code: convert.ExitFatal, err: batchErr}
	case ctx.Err() != nil:
		return &exitError{code: exitInterrupted, err: fmt.Errorf("interrupted: %w", batchErr)}
	default:
		return &exitError{code: convert.ExitFatal, err: batchErr}
	}

	if code := result.ExitCode(); code != convert.ExitOK {
		return &exitError{
			code: code,
			err:  fmt.Errorf("%d of %d files not converted", result.Failed+result.Skipped, result.Total()),
		}
	}
	return nil
}
