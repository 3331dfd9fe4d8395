package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/jingkaihe/specforge/pkg/prd"
	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/jingkaihe/specforge/pkg/spec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const unknownBranch = "unknown-branch"

// CompileConfig holds configuration for the compile command
type CompileConfig struct {
	Spec        string
	Out         string
	Existing    string
	Branch      string
	Project     string
	FinalTests  []string
	Strict      bool
	KeepRemoved bool
	DryRun      bool
	Watch       bool
	Debounce    int
}

// NewCompileConfig creates a CompileConfig with default values
func NewCompileConfig() *CompileConfig {
	return &CompileConfig{
		Out:         "prd.json",
		KeepRemoved: true,
		Debounce:    300,
	}
}

// Validate checks flag combinations
func (c *CompileConfig) Validate() error {
	if c.Spec == "" {
		return errors.New("--spec is required")
	}
	if c.Out == "" {
		return errors.New("--out must not be empty")
	}
	if c.DryRun && c.Watch {
		return errors.New("--dry-run and --watch cannot be used together")
	}
	if c.Debounce < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.Debounce)
	}
	return nil
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the user stories of a PRD into prd.json",
	Long: `Compile extracts the user stories of a PRD spec into a prd.json work queue.

Execution state (status, passes, attempts, timestamps, notes) is carried over
from the previous prd.json for every story whose ID still exists. Stories that
disappeared from the spec are kept with status "removed" unless
--no-keep-removed is given.

Examples:
  specforge compile --spec .spec/spec-export.md
  specforge compile --spec spec.md --out build/prd.json --final-test "go test ./..."
  specforge compile --spec spec.md --dry-run
  specforge compile --spec spec.md --watch`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getCompileConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			setExitCode(exitFailure)
			return
		}

		if config.Watch {
			if err := watchCompile(ctx, config); err != nil {
				presenter.Error(err, "Watch failed")
				setExitCode(exitFailure)
			}
			return
		}
		setExitCode(runCompile(ctx, config))
	},
}

func init() {
	defaults := NewCompileConfig()
	compileCmd.Flags().String("spec", defaults.Spec, "Path to the PRD spec markdown")
	compileCmd.Flags().StringP("out", "o", defaults.Out, "Output path for prd.json")
	compileCmd.Flags().String("existing", defaults.Existing, "Existing prd.json to merge state from (default: --out if it exists)")
	compileCmd.Flags().String("branch", defaults.Branch, "Branch name (default: current git branch)")
	compileCmd.Flags().String("project", defaults.Project, "Override the project name")
	compileCmd.Flags().StringArray("final-test", defaults.FinalTests, "Final test command (repeatable)")
	compileCmd.Flags().Bool("strict", defaults.Strict, "Fail on missing titles, priorities or acceptance criteria")
	compileCmd.Flags().Bool("keep-removed", defaults.KeepRemoved, "Keep stories removed from the spec with status \"removed\"")
	compileCmd.Flags().Bool("no-keep-removed", false, "Drop stories removed from the spec")
	compileCmd.Flags().Bool("dry-run", defaults.DryRun, "Print a diff against the current output instead of writing it")
	compileCmd.Flags().BoolP("watch", "w", defaults.Watch, "Recompile whenever the spec file changes")
	compileCmd.Flags().IntP("debounce", "d", defaults.Debounce, "Debounce time in milliseconds for --watch")
}

// getCompileConfigFromFlags reads flags, falling back to the strict,
// keep_removed and compile.out settings when a flag was not given.
func getCompileConfigFromFlags(cmd *cobra.Command) *CompileConfig {
	config := NewCompileConfig()
	flags := cmd.Flags()

	if viper.IsSet("compile.out") {
		config.Out = viper.GetString("compile.out")
	}
	if viper.IsSet("strict") {
		config.Strict = viper.GetBool("strict")
	}
	config.KeepRemoved = viper.GetBool("keep_removed")

	if s, err := flags.GetString("spec"); err == nil {
		config.Spec = s
	}
	if flags.Changed("out") {
		config.Out, _ = flags.GetString("out")
	}
	if s, err := flags.GetString("existing"); err == nil {
		config.Existing = s
	}
	if s, err := flags.GetString("branch"); err == nil {
		config.Branch = s
	}
	if s, err := flags.GetString("project"); err == nil {
		config.Project = s
	}
	if tests, err := flags.GetStringArray("final-test"); err == nil {
		config.FinalTests = tests
	}
	if flags.Changed("strict") {
		config.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("keep-removed") {
		config.KeepRemoved, _ = flags.GetBool("keep-removed")
	}
	if drop, err := flags.GetBool("no-keep-removed"); err == nil && drop {
		config.KeepRemoved = false
	}
	if b, err := flags.GetBool("dry-run"); err == nil {
		config.DryRun = b
	}
	if b, err := flags.GetBool("watch"); err == nil {
		config.Watch = b
	}
	if d, err := flags.GetInt("debounce"); err == nil {
		config.Debounce = d
	}

	return config
}

// runCompile performs one compile and returns the process exit code
func runCompile(ctx context.Context, config *CompileConfig) int {
	doc, current, err := compileSpec(ctx, config)
	if err != nil {
		if spec.IsStructural(err) {
			presenter.Error(err, "Spec is structurally invalid")
		} else {
			presenter.Error(err, "Compile failed")
		}
		return exitFailure
	}

	if config.DryRun {
		diff, err := prd.Diff(config.Out, current, doc)
		if err != nil {
			presenter.Error(err, "Failed to diff output")
			return exitFailure
		}
		presenter.Diff(diff)
		return exitOK
	}

	if err := prd.WriteFile(config.Out, doc, prd.GeneratedAt(current)); err != nil {
		if errors.Is(err, prd.ErrStaleDocument) {
			presenter.Error(err, "Output was rewritten by another compile; re-run to merge its state")
		} else {
			presenter.Error(err, "Failed to write output")
		}
		return exitFailure
	}

	presenter.CompileSummary(config.Out, prd.Summarize(doc))
	return exitOK
}

// compileSpec compiles the configured spec. It returns the new document and
// the document currently at the output path (nil when absent).
func compileSpec(ctx context.Context, config *CompileConfig) (*prd.Document, *prd.Document, error) {
	specPath, err := filepath.Abs(config.Spec)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to resolve spec path")
	}
	text, err := os.ReadFile(specPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Errorf("spec not found: %s", specPath)
		}
		return nil, nil, errors.Wrap(err, "failed to read spec")
	}

	current, err := prd.ReadFile(config.Out)
	if err != nil {
		return nil, nil, err
	}
	prior := current
	if config.Existing != "" {
		if prior, err = prd.ReadFile(config.Existing); err != nil {
			return nil, nil, err
		}
	}

	branch := config.Branch
	if branch == "" {
		branch = gitBranch(ctx, filepath.Dir(specPath))
	}

	logger.G(ctx).WithField("spec", specPath).WithField("prior", prior != nil).Debug("compiling spec")

	doc, err := prd.Compile(ctx, string(text), prior, prd.Options{
		ProjectName: config.Project,
		BranchName:  branch,
		SpecRef:     specPath,
		FinalTests:  config.FinalTests,
		Strict:      config.Strict,
		DropRemoved: !config.KeepRemoved,
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, current, nil
}

// gitBranch returns the current branch of the repository containing dir,
// or unknown-branch outside a repository.
func gitBranch(ctx context.Context, dir string) string {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		logger.G(ctx).WithError(err).Debug("git branch lookup failed")
		return unknownBranch
	}
	branch := strings.TrimSpace(string(out))
	if branch == "" {
		return unknownBranch
	}
	return branch
}
