package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/jingkaihe/specforge/pkg/spec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// TemplateExportConfig holds configuration for the template export command
type TemplateExportConfig struct {
	Out      string
	Validate bool
}

// NewTemplateExportConfig creates a TemplateExportConfig with default values
func NewTemplateExportConfig() *TemplateExportConfig {
	return &TemplateExportConfig{}
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Work with the Template Metadata section of a spec",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var templateExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export Template Metadata as JSON",
	Long: `Export parses the "Template Metadata" section of a spec into JSON with
sorted keys. With --validate nothing is exported; every missing or invalid
field is reported and the exit status is 1 when any exists.

Examples:
  specforge template export spec.md
  specforge template export spec.md --out template.json
  specforge template export spec.md --validate`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getTemplateExportConfigFromFlags(cmd)
		setExitCode(runTemplateExport(cmd.Context(), config, args[0], cmd.OutOrStdout()))
	},
}

func init() {
	defaults := NewTemplateExportConfig()
	templateExportCmd.Flags().StringP("out", "o", defaults.Out, "Output JSON path (defaults to stdout)")
	templateExportCmd.Flags().Bool("validate", defaults.Validate, "Validate required fields instead of exporting")

	templateCmd.AddCommand(withTracing(templateExportCmd))
}

func getTemplateExportConfigFromFlags(cmd *cobra.Command) *TemplateExportConfig {
	config := NewTemplateExportConfig()
	if out, err := cmd.Flags().GetString("out"); err == nil {
		config.Out = out
	}
	if validate, err := cmd.Flags().GetBool("validate"); err == nil {
		config.Validate = validate
	}
	return config
}

func runTemplateExport(_ context.Context, config *TemplateExportConfig, path string, out io.Writer) int {
	text, err := os.ReadFile(path)
	if err != nil {
		presenter.Error(err, "Failed to read spec")
		return exitFailure
	}

	tm, found := spec.ExtractTemplateMetadata(string(text))
	if !found {
		presenter.Error(errors.New("Template Metadata section not found"), path)
		return exitFailure
	}

	if config.Validate {
		if err := tm.Validate(); err != nil {
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					presenter.Error(e, "Template Metadata")
				}
			} else {
				presenter.Error(err, "Template Metadata")
			}
			return exitFailure
		}
		presenter.Success(fmt.Sprintf("Template Metadata in %s is valid", path))
		return exitOK
	}

	data, err := templateJSON(tm)
	if err != nil {
		presenter.Error(err, "Failed to encode Template Metadata")
		return exitFailure
	}

	if config.Out == "" {
		_, err = out.Write(data)
	} else {
		err = os.WriteFile(config.Out, data, 0o644)
	}
	if err != nil {
		presenter.Error(err, "Failed to write Template Metadata")
		return exitFailure
	}
	return exitOK
}

// templateJSON renders tm with sorted keys and a trailing newline
func templateJSON(tm *spec.TemplateMetadata) ([]byte, error) {
	raw, err := json.Marshal(tm)
	if err != nil {
		return nil, err
	}
	var sorted map[string]any
	if err := json.Unmarshal(raw, &sorted); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sorted); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
