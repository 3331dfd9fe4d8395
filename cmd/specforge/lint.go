package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jingkaihe/specforge/pkg/lint"
	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LintConfig holds configuration for the lint command
type LintConfig struct {
	Type    string
	Strict  bool
	Format  string
	Disable []string
}

// NewLintConfig creates a LintConfig with default values
func NewLintConfig() *LintConfig {
	return &LintConfig{
		Format: "text",
	}
}

// Validate checks the configured type and format
func (c *LintConfig) Validate() error {
	if c.Type != "" {
		if _, err := lint.ParseDocType(c.Type); err != nil {
			return err
		}
	}
	if c.Format != "text" && c.Format != "json" {
		return errors.Errorf("invalid format %q, must be one of: text, json", c.Format)
	}
	return nil
}

// FileReport is the JSON form of one linted file
type FileReport struct {
	File string `json:"file"`
	lint.Result
	Failed bool `json:"failed"`
}

var lintCmd = &cobra.Command{
	Use:   "lint <file-or-glob>...",
	Short: "Lint PRDs, tech specs and SKILL.md files",
	Long: `Lint checks markdown specs for required sections, evidence lines, story
quality, numeric metrics and other quality gates. The document type is
inferred unless --type is given. Arguments may be doublestar globs such as
'docs/**/*.md'.

Exit status is 1 when any file has an ERROR finding. --strict escalates the
important warnings to errors.

Examples:
  specforge lint spec.md
  specforge lint --type tech --strict 'docs/**/tech-*.md'
  specforge lint --disable 'EVIDENCE_*' --format json spec.md`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getLintConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			setExitCode(exitFailure)
			return
		}
		setExitCode(runLint(cmd.Context(), config, args, cmd.OutOrStdout()))
	},
}

func init() {
	defaults := NewLintConfig()
	lintCmd.Flags().StringP("type", "t", defaults.Type, "Document type (prd, tech, skill); inferred when omitted")
	lintCmd.Flags().Bool("strict", defaults.Strict, "Treat important warnings as errors")
	lintCmd.Flags().StringP("format", "f", defaults.Format, "Output format (text, json)")
	lintCmd.Flags().StringSlice("disable", defaults.Disable, "Finding codes to drop, glob patterns allowed (e.g. 'EVIDENCE_*')")
}

func getLintConfigFromFlags(cmd *cobra.Command) *LintConfig {
	config := NewLintConfig()
	flags := cmd.Flags()

	if viper.IsSet("strict") {
		config.Strict = viper.GetBool("strict")
	}
	config.Disable = viper.GetStringSlice("lint.disable")

	if t, err := flags.GetString("type"); err == nil {
		config.Type = t
	}
	if flags.Changed("strict") {
		config.Strict, _ = flags.GetBool("strict")
	}
	if f, err := flags.GetString("format"); err == nil {
		config.Format = f
	}
	if disable, err := flags.GetStringSlice("disable"); err == nil && len(disable) > 0 {
		config.Disable = append(config.Disable, disable...)
	}

	return config
}

// expandPaths resolves glob arguments. Plain paths are kept even when they
// do not exist so that the caller can report them.
func expandPaths(args []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		if !doublestar.ValidatePathPattern(arg) {
			return nil, errors.Errorf("invalid glob pattern %q", arg)
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to expand %q", arg)
		}
		if len(matches) == 0 {
			add(arg)
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return paths, nil
}

func runLint(ctx context.Context, config *LintConfig, args []string, out io.Writer) int {
	var docType lint.DocType
	if config.Type != "" {
		docType, _ = lint.ParseDocType(config.Type)
	}

	engine, err := lint.NewEngine(lint.WithStrict(config.Strict), lint.WithDisabled(config.Disable...))
	if err != nil {
		presenter.Error(err, "Invalid configuration")
		return exitFailure
	}

	paths, err := expandPaths(args)
	if err != nil {
		presenter.Error(err, "Invalid arguments")
		return exitFailure
	}

	code := exitOK
	reports := make([]FileReport, 0, len(paths))
	for i, path := range paths {
		text, err := os.ReadFile(path)
		if err != nil {
			presenter.Error(err, fmt.Sprintf("Failed to read %s", path))
			code = exitFailure
			continue
		}

		result := engine.Run(ctx, string(text), docType)
		logger.G(ctx).WithField("file", path).WithField("findings", len(result.Findings)).Debug("linted")
		if result.Failed() {
			code = exitFailure
		}

		if config.Format == "json" {
			reports = append(reports, FileReport{File: path, Result: result, Failed: result.Failed()})
			continue
		}
		if i > 0 {
			presenter.Separator()
		}
		presenter.Findings(path, result)
	}

	if config.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(reports); err != nil {
			presenter.Error(err, "Failed to encode report")
			return exitFailure
		}
	}
	return code
}
