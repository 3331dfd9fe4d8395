package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jingkaihe/specforge/pkg/lint"
	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/jingkaihe/specforge/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// SkillGateConfig holds configuration for the skill gate command
type SkillGateConfig struct {
	Format      string
	StrictLine1 bool
	Options     skills.GateOptions
}

// NewSkillGateConfig creates a SkillGateConfig with the gold-standard gate
func NewSkillGateConfig() *SkillGateConfig {
	return &SkillGateConfig{
		Format:  "text",
		Options: skills.DefaultGateOptions(),
	}
}

// Validate checks the output format and budgets
func (c *SkillGateConfig) Validate() error {
	if c.Format != "text" && c.Format != "json" {
		return errors.Errorf("invalid format %q, must be one of: text, json", c.Format)
	}
	if c.Options.MaxLines <= 0 || c.Options.MaxCodeBlockLines <= 0 {
		return errors.New("line budgets must be positive")
	}
	return nil
}

// GateReport is the JSON form of a gate run
type GateReport struct {
	Skill    string         `json:"skill"`
	Name     string         `json:"name"`
	Failed   bool           `json:"failed"`
	Findings []lint.Finding `json:"findings"`
}

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Gate and list SKILL.md skills",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillGateCmd = &cobra.Command{
	Use:   "gate <skill-dir-or-SKILL.md>",
	Short: "Check a skill against the gold-standard quality gate",
	Long: `Gate checks a skill's frontmatter, required sections, size budgets, safety
language, references/contract.yaml and references/evals.yaml, and bundled
resources.

Exit status: 0 pass, 1 the skill could not be loaded, 2 the gate failed.

Examples:
  specforge skill gate skills/prd-writer
  specforge skill gate skills/prd-writer/SKILL.md --format json
  specforge skill gate skills/prd-writer --no-require-evals --require-fail-fast`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getSkillGateConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			setExitCode(exitFailure)
			return
		}
		setExitCode(runSkillGate(cmd.Context(), config, args[0], cmd.OutOrStdout()))
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered skills",
	Long: `List the skills found in the configured skill directories (skills.dirs),
by default ./skills, ./.specforge/skills and ~/.specforge/skills.`,
	Run: func(cmd *cobra.Command, _ []string) {
		setExitCode(runSkillList(cmd.Context(), cmd.OutOrStdout()))
	},
}

func init() {
	defaults := NewSkillGateConfig()
	flags := skillGateCmd.Flags()
	flags.StringP("format", "f", defaults.Format, "Output format (text, json)")
	flags.Int("max-lines", defaults.Options.MaxLines, "Max allowed lines in SKILL.md")
	flags.Int("max-codeblock-lines", defaults.Options.MaxCodeBlockLines, "Warn if a code block exceeds this many lines")
	flags.Int("min-description-len", defaults.Options.MinDescriptionLen, "Warn if the description is shorter than this")
	flags.Bool("strict-frontmatter-line1", defaults.StrictLine1, "Require frontmatter to start on line 1")
	flags.Bool("no-require-contract", false, "Do not require references/contract.yaml")
	flags.Bool("no-require-evals", false, "Do not require references/evals.yaml")
	flags.Bool("no-require-philosophy", false, "Do not require a Philosophy/Principles section")
	flags.Bool("no-require-redaction", false, "Do not require redaction language in Constraints/Safety")
	flags.Bool("require-fail-fast", defaults.Options.RequireFailFast, "Require fail-fast language in the Validation section")

	skillCmd.AddCommand(withTracing(skillGateCmd))
	skillCmd.AddCommand(skillListCmd)
}

func getSkillGateConfigFromFlags(cmd *cobra.Command) *SkillGateConfig {
	config := NewSkillGateConfig()
	flags := cmd.Flags()

	if f, err := flags.GetString("format"); err == nil {
		config.Format = f
	}
	if n, err := flags.GetInt("max-lines"); err == nil {
		config.Options.MaxLines = n
	}
	if n, err := flags.GetInt("max-codeblock-lines"); err == nil {
		config.Options.MaxCodeBlockLines = n
	}
	if n, err := flags.GetInt("min-description-len"); err == nil {
		config.Options.MinDescriptionLen = n
	}
	if b, err := flags.GetBool("strict-frontmatter-line1"); err == nil {
		config.StrictLine1 = b
	}
	if b, err := flags.GetBool("no-require-contract"); err == nil && b {
		config.Options.RequireContract = false
	}
	if b, err := flags.GetBool("no-require-evals"); err == nil && b {
		config.Options.RequireEvals = false
	}
	if b, err := flags.GetBool("no-require-philosophy"); err == nil && b {
		config.Options.RequirePhilosophy = false
	}
	if b, err := flags.GetBool("no-require-redaction"); err == nil && b {
		config.Options.RequireRedaction = false
	}
	if b, err := flags.GetBool("require-fail-fast"); err == nil {
		config.Options.RequireFailFast = b
	}

	return config
}

func runSkillGate(ctx context.Context, config *SkillGateConfig, pathLike string, out io.Writer) int {
	skill, err := skills.Load(pathLike, config.StrictLine1)
	if err != nil {
		presenter.Error(err, "Failed to load skill")
		return exitFailure
	}

	result, err := skills.Gate(ctx, skill, config.Options)
	if err != nil {
		presenter.Error(err, "Gate failed to run")
		return exitFailure
	}

	if config.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		report := GateReport{
			Skill:    skill.Path,
			Name:     skill.Name,
			Failed:   result.Failed(),
			Findings: result.Findings,
		}
		if report.Findings == nil {
			report.Findings = []lint.Finding{}
		}
		if err := enc.Encode(report); err != nil {
			presenter.Error(err, "Failed to encode report")
			return exitFailure
		}
	} else {
		name := skill.Name
		if name == "" {
			name = "unknown"
		}
		presenter.Info(fmt.Sprintf("Skill: %s", name))
		presenter.Info(fmt.Sprintf("Path:  %s", skill.Path))
		presenter.Findings("", result)
	}

	if result.Failed() {
		return exitGateFailed
	}
	return exitOK
}

func runSkillList(ctx context.Context, out io.Writer) int {
	discovery, err := skills.DiscoveryFromConfig(ctx)
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		return exitFailure
	}

	found, err := discovery.DiscoverSkills()
	if err != nil {
		presenter.Error(err, "Failed to discover skills")
		return exitFailure
	}
	if len(found) == 0 {
		presenter.Info("No skills found")
		return exitOK
	}

	names, _ := discovery.ListSkillNames()
	presenter.Section(fmt.Sprintf("Skills (%d)", len(names)))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tDIRECTORY")
	for _, name := range names {
		s := found[name]
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, truncate(s.Description, 60), s.Directory)
	}
	if err := w.Flush(); err != nil {
		presenter.Error(err, "Failed to write skill list")
		return exitFailure
	}
	return exitOK
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
