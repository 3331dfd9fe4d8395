package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jingkaihe/specforge/pkg/evidence"
	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/spf13/cobra"
)

// EvidenceConfig holds configuration for the evidence command
type EvidenceConfig struct {
	InPlace       bool
	AppendMissing bool
	GapLine       string
	UpdateMap     bool
}

// NewEvidenceConfig creates an EvidenceConfig with default values
func NewEvidenceConfig() *EvidenceConfig {
	return &EvidenceConfig{
		GapLine: evidence.DefaultGapLine,
	}
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence <file>",
	Short: "Append evidence gaps and rebuild the Evidence Map",
	Long: `Evidence rewrites a spec's evidence bookkeeping.

--append-missing adds a gap line after every substantive paragraph that cites
no evidence. --update-map replaces (or appends) the "## Evidence Map" section
with a table built from the document's Evidence: lines. The result is printed
unless --in-place is given.

Examples:
  specforge evidence --append-missing --update-map spec.md
  specforge evidence --update-map --in-place spec.md`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getEvidenceConfigFromFlags(cmd)
		setExitCode(runEvidence(cmd.Context(), config, args[0], cmd.OutOrStdout()))
	},
}

func init() {
	defaults := NewEvidenceConfig()
	evidenceCmd.Flags().BoolP("in-place", "i", defaults.InPlace, "Write changes back to the input file")
	evidenceCmd.Flags().Bool("append-missing", defaults.AppendMissing, "Append gap lines to paragraphs missing evidence")
	evidenceCmd.Flags().String("gap-line", defaults.GapLine, "Line to append for missing evidence")
	evidenceCmd.Flags().Bool("update-map", defaults.UpdateMap, "Replace or add the Evidence Map section")
}

func getEvidenceConfigFromFlags(cmd *cobra.Command) *EvidenceConfig {
	config := NewEvidenceConfig()

	if b, err := cmd.Flags().GetBool("in-place"); err == nil {
		config.InPlace = b
	}
	if b, err := cmd.Flags().GetBool("append-missing"); err == nil {
		config.AppendMissing = b
	}
	if s, err := cmd.Flags().GetString("gap-line"); err == nil && s != "" {
		config.GapLine = s
	}
	if b, err := cmd.Flags().GetBool("update-map"); err == nil {
		config.UpdateMap = b
	}

	return config
}

func runEvidence(_ context.Context, config *EvidenceConfig, path string, out io.Writer) int {
	opts := evidence.Options{
		AppendMissing: config.AppendMissing,
		GapLine:       config.GapLine,
		UpdateMap:     config.UpdateMap,
	}

	if !config.InPlace {
		text, err := os.ReadFile(path)
		if err != nil {
			presenter.Error(err, "Failed to read input")
			return exitFailure
		}
		fmt.Fprintln(out, evidence.Apply(string(text), opts))
		return exitOK
	}

	if _, err := os.Stat(path); err != nil {
		presenter.Error(err, "Failed to read input")
		return exitFailure
	}

	// rewrite under the file lock so concurrent edits are not lost
	err := lockedfile.Transform(path, func(current []byte) ([]byte, error) {
		if len(current) == 0 {
			return nil, errors.Errorf("%s is empty", path)
		}
		return []byte(evidence.Apply(string(current), opts)), nil
	})
	if err != nil {
		presenter.Error(err, "Failed to update input")
		return exitFailure
	}

	var done []string
	if config.AppendMissing {
		done = append(done, "evidence gaps")
	}
	if config.UpdateMap {
		done = append(done, evidence.MapHeading)
	}
	if len(done) == 0 {
		presenter.Info(fmt.Sprintf("%s unchanged; pass --append-missing or --update-map", path))
		return exitOK
	}
	presenter.Success(fmt.Sprintf("Updated %s in %s", strings.Join(done, " and "), path))
	return exitOK
}
