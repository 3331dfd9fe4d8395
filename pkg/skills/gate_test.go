package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jingkaihe/specforge/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldDescription = "Draft product requirement documents from briefs. Use this skill when a product brief needs to become a structured PRD with stories and metrics."

const goldBody = `# PRD Writer

## When to use
Use when a product brief must become a PRD.

## Inputs
- A product brief.

## Outputs
- A PRD markdown file checked against references/evals.yaml.

## Procedure
1. Read the brief.
2. Draft each section.

## Validation
Run the linter. If it fails, stop and do not proceed.

## Anti-patterns
- Inventing metrics.

## Constraints
Redact secrets and PII before quoting.

## Philosophy
Evidence over opinion.

## Examples
- "Draft a PRD for the export feature."
`

const goldContract = `purpose: Draft PRDs
triggers: [brief]
inputs: [brief]
outputs: [prd]
non_goals: [code]
risks: [hallucination]
`

const goldEvals = `cases:
  - name: happy
    prompt: Draft a PRD
    acceptance: [has stories]
  - name: edge
    prompt: Empty brief
    acceptance: [asks questions]
  - name: failure
    prompt: Nonsense
    acceptance: [refuses]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// goldSkill writes a skill that passes the default gate and returns its dir
func goldSkill(t *testing.T, body string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "prd-writer")
	writeSkill(t, dir, skillDoc("prd-writer", goldDescription, body))
	writeFile(t, filepath.Join(dir, "references", "contract.yaml"), goldContract)
	writeFile(t, filepath.Join(dir, "references", "evals.yaml"), goldEvals)
	return dir
}

func gate(t *testing.T, dir string, opts GateOptions) lint.Result {
	t.Helper()
	s, err := Load(dir, true)
	require.NoError(t, err)
	result, err := Gate(context.Background(), s, opts)
	require.NoError(t, err)
	return result
}

func gateCodes(result lint.Result) []string {
	codes := make([]string, 0, len(result.Findings))
	for _, f := range result.Findings {
		codes = append(codes, f.Code)
	}
	return codes
}

func findingFor(result lint.Result, code string) (lint.Finding, bool) {
	for _, f := range result.Findings {
		if f.Code == code {
			return f, true
		}
	}
	return lint.Finding{}, false
}

func TestGateGoldSkillPasses(t *testing.T) {
	result := gate(t, goldSkill(t, goldBody), DefaultGateOptions())

	assert.False(t, result.Failed(), "unexpected findings: %v", result.Findings)
	assert.Empty(t, result.Findings)
	assert.Equal(t, lint.DocSkill, result.Type)
}

func TestGateFrontmatter(t *testing.T) {
	tests := []struct {
		name    string
		fm      string
		present []string
		absent  []string
	}{
		{
			name:    "missing fields",
			fm:      "license: MIT\n",
			present: []string{CodeNameMissing, CodeDescMissing},
			absent:  []string{CodeDescWhatWhen},
		},
		{
			name:    "style and short description",
			fm:      "name: PRD Writer\ndescription: Draft PRDs when asked.\n",
			present: []string{CodeNameStyle, CodeDescShort},
			absent:  []string{CodeNameMissing, CodeDescWhatWhen},
		},
		{
			name:    "description without trigger",
			fm:      "name: prd-writer\ndescription: Draft PRDs.\n",
			present: []string{CodeDescWhatWhen},
		},
		{
			name:    "multiline values",
			fm:      "name: |\n  prd\n  writer\ndescription: |\n  Draft PRDs\n  when asked.\n",
			present: []string{CodeNameMultiline, CodeDescMultiline},
		},
		{
			name:    "too long",
			fm:      "name: " + strings.Repeat("a", 101) + "\ndescription: Draft when " + strings.Repeat("x", 500) + "\n",
			present: []string{CodeNameTooLong, CodeDescTooLong},
		},
		{
			name:    "non-string name",
			fm:      "name: 42\ndescription: " + goldDescription + "\n",
			present: []string{CodeNameMissing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("---\n"+tt.fm+"---\n\n"+goldBody, true)
			require.NoError(t, err)

			result, err := Gate(context.Background(), s, DefaultGateOptions())
			require.NoError(t, err)
			codes := gateCodes(result)
			for _, c := range tt.present {
				assert.Contains(t, codes, c)
			}
			for _, c := range tt.absent {
				assert.NotContains(t, codes, c)
			}

			f, ok := findingFor(result, tt.present[0])
			require.True(t, ok)
			assert.Equal(t, 1, f.Line)
		})
	}
}

func TestGateLineBudget(t *testing.T) {
	opts := DefaultGateOptions()
	opts.MaxLines = 10

	result := gate(t, goldSkill(t, goldBody), opts)
	f, ok := findingFor(result, CodeTooLong)
	require.True(t, ok)
	assert.Equal(t, lint.SeverityError, f.Severity)
	assert.True(t, result.Failed())
}

func TestGateLargeCodeBlock(t *testing.T) {
	body := "# T\n\n```sh\na\nb\nc\nd\n```\n\n" + strings.TrimPrefix(goldBody, "# PRD Writer\n")
	opts := DefaultGateOptions()
	opts.MaxCodeBlockLines = 3

	result := gate(t, goldSkill(t, body), opts)
	f, ok := findingFor(result, CodeLargeCodeBlock)
	require.True(t, ok)
	assert.Equal(t, lint.SeverityWarn, f.Severity)
	assert.Equal(t, 8, f.Line)
	assert.Contains(t, f.Message, "4 lines")

	opts.MaxCodeBlockLines = 4
	result = gate(t, goldSkill(t, body), opts)
	assert.NotContains(t, gateCodes(result), CodeLargeCodeBlock)
}

func TestGateBodyRules(t *testing.T) {
	t.Run("philosophy can be waived", func(t *testing.T) {
		body := strings.Replace(goldBody, "## Philosophy\nEvidence over opinion.\n", "", 1)
		dir := goldSkill(t, body)

		result := gate(t, dir, DefaultGateOptions())
		f, ok := findingFor(result, lint.CodeSectionMissing)
		require.True(t, ok)
		assert.Contains(t, f.Message, "Philosophy")
		assert.True(t, result.Failed())

		opts := DefaultGateOptions()
		opts.RequirePhilosophy = false
		result = gate(t, dir, opts)
		assert.NotContains(t, gateCodes(result), lint.CodeSectionMissing)
		assert.False(t, result.Failed())
	})

	t.Run("redaction required by default", func(t *testing.T) {
		body := strings.Replace(goldBody, "Redact secrets and PII before quoting.", "Quote carefully.", 1)
		dir := goldSkill(t, body)

		f, ok := findingFor(gate(t, dir, DefaultGateOptions()), lint.CodeSkillRedaction)
		require.True(t, ok)
		assert.Equal(t, lint.SeverityError, f.Severity)

		opts := DefaultGateOptions()
		opts.RequireRedaction = false
		f, ok = findingFor(gate(t, dir, opts), lint.CodeSkillRedaction)
		require.True(t, ok)
		assert.Equal(t, lint.SeverityWarn, f.Severity)
	})

	t.Run("fail fast escalation", func(t *testing.T) {
		body := strings.Replace(goldBody, "If it fails, stop and do not proceed.", "Read the report.", 1)
		dir := goldSkill(t, body)

		f, ok := findingFor(gate(t, dir, DefaultGateOptions()), lint.CodeSkillFailFast)
		require.True(t, ok)
		assert.Equal(t, lint.SeverityWarn, f.Severity)

		opts := DefaultGateOptions()
		opts.RequireFailFast = true
		f, ok = findingFor(gate(t, dir, opts), lint.CodeSkillFailFast)
		require.True(t, ok)
		assert.Equal(t, lint.SeverityError, f.Severity)
	})

	t.Run("lines are file lines", func(t *testing.T) {
		body := strings.Replace(goldBody, "1. Read the brief.", "1. Read ../shared/brief.md.", 1)
		result := gate(t, goldSkill(t, body), DefaultGateOptions())

		f, ok := findingFor(result, lint.CodeSkillPathTraversal)
		require.True(t, ok)
		// frontmatter takes four lines and a blank line precedes the body
		assert.Equal(t, 18, f.Line)
	})
}

func TestGateContract(t *testing.T) {
	tests := []struct {
		name     string
		contract string
		want     []string
	}{
		{"missing keys", "purpose: x\ntriggers: [a]\n", []string{CodeContractKeys}},
		{"wrong shapes", "purpose: x\ntriggers: a\ninputs: b\noutputs: [c]\nnon_goals: []\nrisks: []\n", []string{CodeContractShape, CodeContractShape}},
		{"not a mapping", "- a\n- b\n", []string{CodeContractInvalid}},
		{"invalid yaml", "purpose: [x\n", []string{CodeContractInvalid}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := goldSkill(t, goldBody)
			writeFile(t, filepath.Join(dir, "references", "contract.yaml"), tt.contract)

			var got []string
			for _, f := range gate(t, dir, DefaultGateOptions()).Findings {
				if strings.HasPrefix(f.Code, "CONTRACT_") {
					got = append(got, f.Code)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		dir := goldSkill(t, goldBody)
		require.NoError(t, os.Remove(filepath.Join(dir, "references", "contract.yaml")))

		result := gate(t, dir, DefaultGateOptions())
		assert.Contains(t, gateCodes(result), CodeContractMissing)

		opts := DefaultGateOptions()
		opts.RequireContract = false
		assert.NotContains(t, gateCodes(gate(t, dir, opts)), CodeContractMissing)
	})
}

func TestGateEvals(t *testing.T) {
	tests := []struct {
		name  string
		evals string
		want  []string
	}{
		{"no cases", "suite: x\n", []string{CodeEvalsShape}},
		{"too few", "cases:\n  - name: a\n    prompt: p\n    acceptance: [ok]\n", []string{CodeEvalsTooFew}},
		{
			"bad cases",
			"cases:\n  - just a string\n  - name: b\n    prompt: p\n    acceptance: ok\n  - name: c\n",
			[]string{CodeEvalsCase, CodeEvalsAcceptance, CodeEvalsCaseKeys, CodeEvalsCaseKeys},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := goldSkill(t, goldBody)
			writeFile(t, filepath.Join(dir, "references", "evals.yaml"), tt.evals)

			var got []string
			for _, f := range gate(t, dir, DefaultGateOptions()).Findings {
				if strings.HasPrefix(f.Code, "EVALS_") {
					got = append(got, f.Code)
				}
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		dir := goldSkill(t, goldBody)
		require.NoError(t, os.Remove(filepath.Join(dir, "references", "evals.yaml")))
		assert.Contains(t, gateCodes(gate(t, dir, DefaultGateOptions())), CodeEvalsMissing)
	})
}

func TestGateUnreferencedResources(t *testing.T) {
	dir := goldSkill(t, goldBody)
	writeFile(t, filepath.Join(dir, "scripts", "check.sh"), "#!/bin/sh\n")
	writeFile(t, filepath.Join(dir, "assets", "logo.png"), "png")

	result := gate(t, dir, DefaultGateOptions())
	codes := gateCodes(result)
	assert.Contains(t, codes, "REPO_SCRIPTS_UNREFERENCED")
	assert.Contains(t, codes, "REPO_ASSETS_UNREFERENCED")
	assert.NotContains(t, codes, "REPO_REFERENCES_UNREFERENCED")

	body := goldBody + "\nRun check.sh and embed assets/logo.png.\n"
	writeSkill(t, dir, skillDoc("prd-writer", goldDescription, body))
	result = gate(t, dir, DefaultGateOptions())
	assert.NotContains(t, gateCodes(result), "REPO_SCRIPTS_UNREFERENCED")
	assert.NotContains(t, gateCodes(result), "REPO_ASSETS_UNREFERENCED")
}

func TestGateOrdering(t *testing.T) {
	s, err := Parse("---\nname: Bad Name\n---\n\n# Empty\n", true)
	require.NoError(t, err)

	result, err := Gate(context.Background(), s, DefaultGateOptions())
	require.NoError(t, err)
	require.NotEmpty(t, result.Findings)

	for i := 1; i < len(result.Findings); i++ {
		prev, cur := result.Findings[i-1], result.Findings[i]
		assert.GreaterOrEqual(t, int(prev.Severity), int(cur.Severity))
		if prev.Severity == cur.Severity {
			assert.LessOrEqual(t, prev.Code, cur.Code)
		}
	}
	assert.Equal(t, lint.SeverityError, result.Findings[0].Severity)
}
