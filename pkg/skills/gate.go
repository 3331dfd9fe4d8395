package skills

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/jingkaihe/specforge/pkg/lint"
	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/jingkaihe/specforge/pkg/markdown"
	"github.com/jingkaihe/specforge/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// Gate finding codes. Section and body hygiene findings reuse the lint codes.
const (
	CodeNameMissing     = "FM_NAME_MISSING"
	CodeNameMultiline   = "FM_NAME_MULTILINE"
	CodeNameTooLong     = "FM_NAME_TOO_LONG"
	CodeNameStyle       = "FM_NAME_STYLE"
	CodeDescMissing     = "FM_DESC_MISSING"
	CodeDescMultiline   = "FM_DESC_MULTILINE"
	CodeDescTooLong     = "FM_DESC_TOO_LONG"
	CodeDescShort       = "FM_DESC_SHORT"
	CodeDescWhatWhen    = "FM_DESC_WHAT_WHEN"
	CodeTooLong         = "PD_SKILLMD_TOO_LONG"
	CodeLargeCodeBlock  = "PD_LARGE_CODEBLOCK"
	CodeContractMissing = "CONTRACT_MISSING"
	CodeContractInvalid = "CONTRACT_INVALID"
	CodeContractKeys    = "CONTRACT_KEYS_MISSING"
	CodeContractShape   = "CONTRACT_SHAPE"
	CodeEvalsMissing    = "EVALS_MISSING"
	CodeEvalsInvalid    = "EVALS_INVALID"
	CodeEvalsShape      = "EVALS_SHAPE"
	CodeEvalsTooFew     = "EVALS_TOO_FEW"
	CodeEvalsCase       = "EVALS_CASE_INVALID"
	CodeEvalsCaseKeys   = "EVALS_CASE_KEYS"
	CodeEvalsAcceptance = "EVALS_ACCEPTANCE_SHAPE"
	CodeUnreferenced    = "REPO_%s_UNREFERENCED"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
	minEvalCases      = 3
)

var kebabRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	whenSignals = []string{"when ", "if ", "whenever ", "use this skill", "use this when", "trigger"}
	whatSignals = []string{
		"draft", "generate", "analyze", "extract", "validate", "convert", "build",
		"create", "summarize", "review", "audit", "lint", "plan", "scaffold",
	}
	contractKeys     = []string{"purpose", "triggers", "inputs", "outputs", "non_goals", "risks"}
	contractLists    = []string{"triggers", "inputs", "outputs"}
	evalCaseKeys     = []string{"name", "prompt", "acceptance"}
	bundledResources = []string{"scripts", "references", "assets"}
)

// GateOptions tunes the skill gate
type GateOptions struct {
	MaxLines          int
	MaxCodeBlockLines int
	MinDescriptionLen int

	RequireContract   bool
	RequireEvals      bool
	RequirePhilosophy bool
	RequireRedaction  bool
	RequireFailFast   bool
}

// DefaultGateOptions returns the gold-standard gate settings
func DefaultGateOptions() GateOptions {
	return GateOptions{
		MaxLines:          500,
		MaxCodeBlockLines: 120,
		MinDescriptionLen: 120,
		RequireContract:   true,
		RequireEvals:      true,
		RequirePhilosophy: true,
		RequireRedaction:  true,
	}
}

// Gate checks a loaded skill and returns its findings ordered by severity
// (errors first) and code. The gate fails when any finding is an error.
func Gate(ctx context.Context, s *Skill, opts GateOptions) (lint.Result, error) {
	result := lint.Result{Type: lint.DocSkill, Findings: []lint.Finding{}}

	err := telemetry.WithSpan(ctx, "skills.gate", func(ctx context.Context) error {
		bodyFindings, err := lintBody(ctx, s, opts)
		if err != nil {
			return err
		}

		result.Findings = append(result.Findings, checkFrontmatter(s, opts)...)
		result.Findings = append(result.Findings, checkDisclosure(s, opts)...)
		result.Findings = append(result.Findings, bodyFindings...)
		if s.Directory != "" {
			result.Findings = append(result.Findings, checkContract(s.Directory, opts)...)
			result.Findings = append(result.Findings, checkEvals(s.Directory, opts)...)
			result.Findings = append(result.Findings, checkResources(s)...)
		}

		sort.SliceStable(result.Findings, func(i, j int) bool {
			a, b := result.Findings[i], result.Findings[j]
			if a.Severity != b.Severity {
				return a.Severity > b.Severity
			}
			return a.Code < b.Code
		})

		telemetry.SetAttributes(ctx,
			attribute.Int("skills.errors", result.Count(lint.SeverityError)),
			attribute.Int("skills.warnings", result.Count(lint.SeverityWarn)),
		)
		return nil
	}, attribute.String("skills.name", s.Name))
	if err != nil {
		return lint.Result{}, err
	}

	logger.G(ctx).WithField("skill", s.Name).WithField("findings", len(result.Findings)).Debug("skill gated")
	return result, nil
}

// lintBody runs the skill rules of the lint engine over the body and
// translates their lines to file lines.
func lintBody(ctx context.Context, s *Skill, opts GateOptions) ([]lint.Finding, error) {
	policy := lint.NewPolicy()
	if opts.RequireRedaction {
		policy.Escalate(lint.CodeSkillRedaction)
	}
	if opts.RequireFailFast {
		policy.Escalate(lint.CodeSkillFailFast)
	}

	engine, err := lint.NewEngine(lint.WithPolicy(policy))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create lint engine")
	}

	philosophy := "Missing required section: " + lint.SectionTitle("skill_philosophy")
	offset := s.BodyLine - 1
	if offset < 0 {
		offset = 0
	}

	var out []lint.Finding
	for _, f := range engine.Run(ctx, s.Content, lint.DocSkill).Findings {
		if !opts.RequirePhilosophy && f.Code == lint.CodeSectionMissing && f.Message == philosophy {
			continue
		}
		if f.Line > 0 {
			f.Line += offset
		}
		out = append(out, f)
	}
	return out, nil
}

func finding(sev lint.Severity, code string, line int, format string, args ...any) lint.Finding {
	return lint.Finding{Severity: sev, Code: code, Line: line, Message: fmt.Sprintf(format, args...)}
}

func checkFrontmatter(s *Skill, opts GateOptions) []lint.Finding {
	var out []lint.Finding
	line := s.FrontmatterStart

	name, _ := s.Frontmatter["name"].(string)
	if strings.TrimSpace(name) == "" {
		out = append(out, finding(lint.SeverityError, CodeNameMissing, line, "Missing/invalid `name` (required)."))
	} else {
		if strings.ContainsAny(name, "\r\n") {
			out = append(out, finding(lint.SeverityError, CodeNameMultiline, line, "`name` must be single-line."))
		}
		if len(name) > maxNameLen {
			out = append(out, finding(lint.SeverityError, CodeNameTooLong, line,
				"`name` too long (%d > %d).", len(name), maxNameLen))
		}
		if !kebabRE.MatchString(strings.TrimSpace(name)) {
			out = append(out, finding(lint.SeverityWarn, CodeNameStyle, line,
				"Consider kebab-case name (lowercase + hyphens)."))
		}
	}

	desc, _ := s.Frontmatter["description"].(string)
	if strings.TrimSpace(desc) == "" {
		return append(out, finding(lint.SeverityError, CodeDescMissing, line, "Missing/invalid `description` (required)."))
	}
	if strings.ContainsAny(desc, "\r\n") {
		out = append(out, finding(lint.SeverityError, CodeDescMultiline, line, "`description` must be single-line."))
	}
	if len(desc) > maxDescriptionLen {
		out = append(out, finding(lint.SeverityError, CodeDescTooLong, line,
			"`description` too long (%d > %d).", len(desc), maxDescriptionLen))
	}
	if len(strings.TrimSpace(desc)) < opts.MinDescriptionLen {
		out = append(out, finding(lint.SeverityWarn, CodeDescShort, line,
			"Description is brief (< %d); expand for better discovery.", opts.MinDescriptionLen))
	}
	if !containsAny(desc, whenSignals...) || !containsAny(desc, whatSignals...) {
		out = append(out, finding(lint.SeverityError, CodeDescWhatWhen, line,
			"Description must include WHAT the skill does and WHEN to use it (trigger contexts). description: %s",
			strings.TrimSpace(desc)))
	}
	return out
}

func checkDisclosure(s *Skill, opts GateOptions) []lint.Finding {
	var out []lint.Finding

	if total := lineCount(s.Raw); total > opts.MaxLines {
		out = append(out, finding(lint.SeverityError, CodeTooLong, 0,
			"SKILL.md exceeds line budget (%d > %d). Move bulk content to references/ and scripts/.",
			total, opts.MaxLines))
	}

	for _, b := range fencedBlocks(s.Content) {
		if b.lines <= opts.MaxCodeBlockLines {
			continue
		}
		out = append(out, finding(lint.SeverityWarn, CodeLargeCodeBlock, b.line+s.BodyLine-1,
			"Large code block detected (%d lines). Prefer scripts/ and reference them from SKILL.md.", b.lines))
	}
	return out
}

type fencedBlock struct {
	line  int // line of the opening fence within the body
	lines int
}

// fencedBlocks walks the goldmark AST of body for fenced code blocks
func fencedBlocks(body string) []fencedBlock {
	source := []byte(body)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []fencedBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		segs := fcb.Lines()
		if segs.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		blocks = append(blocks, fencedBlock{
			line:  markdown.LineAt(body, segs.At(0).Start) - 1,
			lines: segs.Len(),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

func checkContract(dir string, opts GateOptions) []lint.Finding {
	if !opts.RequireContract {
		return nil
	}
	path := filepath.Join(dir, "references", "contract.yaml")
	contract, found, err := readYAMLMapping(path)
	if !found {
		return []lint.Finding{finding(lint.SeverityError, CodeContractMissing, 0,
			"Missing references/contract.yaml (required for gold).")}
	}
	if err != nil {
		return []lint.Finding{finding(lint.SeverityError, CodeContractInvalid, 0, "contract.yaml invalid: %v", err)}
	}

	var out []lint.Finding
	var missing []string
	for _, k := range contractKeys {
		if _, ok := contract[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		out = append(out, finding(lint.SeverityError, CodeContractKeys, 0,
			"contract.yaml missing keys: %s", strings.Join(missing, ", ")))
	}
	for _, k := range contractLists {
		v, ok := contract[k]
		if !ok {
			continue
		}
		if _, isList := v.([]any); !isList {
			out = append(out, finding(lint.SeverityError, CodeContractShape, 0, "`%s` must be a list.", k))
		}
	}
	return out
}

func checkEvals(dir string, opts GateOptions) []lint.Finding {
	if !opts.RequireEvals {
		return nil
	}
	path := filepath.Join(dir, "references", "evals.yaml")
	evals, found, err := readYAMLMapping(path)
	if !found {
		return []lint.Finding{finding(lint.SeverityError, CodeEvalsMissing, 0,
			"Missing references/evals.yaml (required for gold).")}
	}
	if err != nil {
		return []lint.Finding{finding(lint.SeverityError, CodeEvalsInvalid, 0, "evals.yaml invalid: %v", err)}
	}

	cases, ok := evals["cases"].([]any)
	if !ok {
		return []lint.Finding{finding(lint.SeverityError, CodeEvalsShape, 0,
			"evals.yaml must be a mapping with `cases: [ ... ]`.")}
	}

	var out []lint.Finding
	if len(cases) < minEvalCases {
		out = append(out, finding(lint.SeverityError, CodeEvalsTooFew, 0,
			"Provide at least %d evaluation cases (happy/edge/failure).", minEvalCases))
	}
	for i, c := range cases {
		n := i + 1
		m, ok := c.(map[string]any)
		if !ok {
			out = append(out, finding(lint.SeverityError, CodeEvalsCase, 0, "Case #%d must be a mapping.", n))
			continue
		}
		for _, k := range evalCaseKeys {
			if _, ok := m[k]; !ok {
				out = append(out, finding(lint.SeverityError, CodeEvalsCaseKeys, 0, "Case #%d missing `%s`.", n, k))
			}
		}
		if acc, ok := m["acceptance"]; ok {
			if _, isList := acc.([]any); !isList {
				out = append(out, finding(lint.SeverityError, CodeEvalsAcceptance, 0,
					"Case #%d `acceptance` must be a list.", n))
			}
		}
	}
	return out
}

// readYAMLMapping reads a YAML mapping. found is false when the file does
// not exist; an empty file is an empty mapping.
func readYAMLMapping(path string) (m map[string]any, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, true, errors.Wrapf(err, "failed to read %s", path)
	}

	var obj any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, true, err
	}
	if obj == nil {
		return map[string]any{}, true, nil
	}
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, true, errors.Errorf("%s must be a YAML mapping", filepath.Base(path))
	}
	return m, true, nil
}

// checkResources warns about bundled resource directories that the body
// never mentions, either by directory or by file name.
func checkResources(s *Skill) []lint.Finding {
	var out []lint.Finding
	for _, rel := range bundledResources {
		names := resourceFiles(filepath.Join(s.Directory, rel))
		if len(names) == 0 {
			continue
		}
		if containsAny(s.Content, append([]string{rel + "/"}, names...)...) {
			continue
		}
		out = append(out, finding(lint.SeverityWarn, fmt.Sprintf(CodeUnreferenced, strings.ToUpper(rel)), 0,
			"%s/ exists but is not referenced in SKILL.md.", rel))
	}
	return out
}

func resourceFiles(dir string) []string {
	var names []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			names = append(names, d.Name())
		}
		return nil
	})
	sort.Strings(names)
	return names
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}

func containsAny(s string, needles ...string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
