// Package presenter renders user-facing CLI output: status messages, lint
// findings, compile summaries and diffs. Color follows NO_COLOR and
// SPECFORGE_COLOR; quiet mode suppresses everything except errors and
// findings that fail a gate.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jingkaihe/specforge/pkg/lint"
	"github.com/jingkaihe/specforge/pkg/prd"
)

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Findings(source string, result lint.Result)
	CompileSummary(path string, sum prd.Summary)
	Diff(diff string)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto lets the color package detect terminal support
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output
	ColorAlways
	// ColorNever disables colored output
	ColorNever
)

// New creates a TerminalPresenter writing to stdout and stderr
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
	}
}

func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("SPECFORGE_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	color.New(color.FgYellow, color.Bold).Fprintf(p.output, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays an underlined header
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Findings prints one line per finding followed by the tally. In quiet mode
// only errors are printed.
func (p *TerminalPresenter) Findings(source string, result lint.Result) {
	if source != "" && !p.quiet {
		color.New(color.Bold).Fprintf(p.output, "%s\n", source)
	}

	for _, f := range result.Findings {
		if p.quiet && f.Severity < lint.SeverityError {
			continue
		}
		severityColor(f.Severity).Fprintf(p.output, "%s\n", f)
	}

	if p.quiet {
		return
	}
	if result.Failed() {
		color.New(color.FgRed, color.Bold).Fprintf(p.output, "FAIL %s\n", result.Summary())
	} else {
		color.New(color.FgGreen).Fprintf(p.output, "OK %s\n", result.Summary())
	}
}

func severityColor(s lint.Severity) *color.Color {
	switch s {
	case lint.SeverityError:
		return color.New(color.FgRed)
	case lint.SeverityWarn:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Faint)
	}
}

// CompileSummary reports a written PRD document
func (p *TerminalPresenter) CompileSummary(path string, sum prd.Summary) {
	if p.quiet {
		return
	}

	parts := make([]string, 0, len(sum.Statuses))
	for _, s := range sum.Statuses {
		parts = append(parts, fmt.Sprintf("%s: %d", s.Status, s.Count))
	}
	p.Success(fmt.Sprintf("Wrote %s: %d stories, %d passing (%s)",
		path, sum.Total, sum.Passing, strings.Join(parts, ", ")))
}

// Diff prints a unified diff with added and removed lines colored. An
// empty diff is reported as no changes.
func (p *TerminalPresenter) Diff(diff string) {
	if diff == "" {
		p.Info("No changes")
		return
	}

	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			color.New(color.Bold).Fprint(p.output, line)
		case strings.HasPrefix(line, "@@"):
			color.New(color.FgCyan).Fprint(p.output, line)
		case strings.HasPrefix(line, "+"):
			color.New(color.FgGreen).Fprint(p.output, line)
		case strings.HasPrefix(line, "-"):
			color.New(color.FgRed).Fprint(p.output, line)
		default:
			fmt.Fprint(p.output, line)
		}
	}
}

// Separator displays a visual separator
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	color.New(color.Faint).Fprintf(p.output, "%s\n", strings.Repeat("-", 60))
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

var defaultPresenter Presenter = New()

// SetDefault replaces the package-level presenter, typically with one
// writing to the command's output streams.
func SetDefault(p Presenter) {
	defaultPresenter = p
}

// Error displays an error message using the default presenter.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Success displays a success message using the default presenter.
func Success(message string) {
	defaultPresenter.Success(message)
}

// Warning displays a warning message using the default presenter.
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// Info displays an informational message using the default presenter.
func Info(message string) {
	defaultPresenter.Info(message)
}

// Section displays a section header using the default presenter.
func Section(title string) {
	defaultPresenter.Section(title)
}

// Findings displays lint findings using the default presenter.
func Findings(source string, result lint.Result) {
	defaultPresenter.Findings(source, result)
}

// CompileSummary displays a compile summary using the default presenter.
func CompileSummary(path string, sum prd.Summary) {
	defaultPresenter.CompileSummary(path, sum)
}

// Diff displays a unified diff using the default presenter.
func Diff(diff string) {
	defaultPresenter.Diff(diff)
}

// Separator displays a visual separator using the default presenter.
func Separator() {
	defaultPresenter.Separator()
}

// SetQuiet enables or disables quiet mode for the default presenter.
func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

// IsQuiet returns whether quiet mode is enabled for the default presenter.
func IsQuiet() bool {
	return defaultPresenter.IsQuiet()
}
