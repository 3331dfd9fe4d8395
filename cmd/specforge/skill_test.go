package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jingkaihe/specforge/pkg/skills"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewerSkill = `---
name: spec-reviewer
description: Review spec documents for missing sections and weak evidence. Use this skill when a PRD or tech spec needs a quality pass before sign-off.
---

# Spec Reviewer

## When to use
Use before a spec is signed off.

## Inputs
- A spec markdown file.

## Outputs
- A review checked against references/evals.yaml.

## Procedure
1. Lint the spec.
2. Summarize the findings.

## Validation
If the linter cannot run, stop and do not proceed.

## Anti-patterns
- Rewriting the spec.

## Constraints
Redact secrets and PII in quotes.

## Philosophy
Findings over opinions.

## Examples
- "Review docs/prd-search.md."
`

const reviewerContract = `purpose: Review specs
triggers: [review]
inputs: [spec]
outputs: [review]
non_goals: [rewrite]
risks: [false positives]
`

const reviewerEvals = `cases:
  - name: happy
    prompt: Review a complete spec
    acceptance: [no findings]
  - name: edge
    prompt: Review an empty spec
    acceptance: [reports missing sections]
  - name: failure
    prompt: Review a binary file
    acceptance: [refuses]
`

func reviewerSkillDir(t *testing.T, withEvals bool) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "spec-reviewer")
	writeTestFile(t, dir, "SKILL.md", reviewerSkill)
	writeTestFile(t, dir, filepath.Join("references", "contract.yaml"), reviewerContract)
	if withEvals {
		writeTestFile(t, dir, filepath.Join("references", "evals.yaml"), reviewerEvals)
	}
	return dir
}

func TestSkillGateConfigFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test", Run: func(_ *cobra.Command, _ []string) {}}
	cmd.Flags().AddFlagSet(skillGateCmd.Flags())

	require.NoError(t, cmd.ParseFlags([]string{
		"--format", "json", "--max-lines", "200", "--no-require-evals",
		"--no-require-philosophy", "--require-fail-fast", "--strict-frontmatter-line1",
	}))
	config := getSkillGateConfigFromFlags(cmd)

	expected := skills.DefaultGateOptions()
	expected.MaxLines = 200
	expected.RequireEvals = false
	expected.RequirePhilosophy = false
	expected.RequireFailFast = true

	assert.Equal(t, "json", config.Format)
	assert.True(t, config.StrictLine1)
	assert.Equal(t, expected, config.Options)
	assert.NoError(t, config.Validate())

	config.Options.MaxLines = 0
	assert.Error(t, config.Validate())
}

func TestRunSkillGatePass(t *testing.T) {
	out := capturePresenter(t)
	dir := reviewerSkillDir(t, true)

	code := runSkillGate(context.Background(), NewSkillGateConfig(), dir, &bytes.Buffer{})
	assert.Equal(t, exitOK, code, out.String())
	assert.Contains(t, out.String(), "Skill: spec-reviewer")
	assert.Contains(t, out.String(), "OK 0 error(s), 0 warning(s) [skill]")
}

func TestRunSkillGateFailJSON(t *testing.T) {
	capturePresenter(t)
	dir := reviewerSkillDir(t, false)

	config := NewSkillGateConfig()
	config.Format = "json"

	var stdout bytes.Buffer
	code := runSkillGate(context.Background(), config, filepath.Join(dir, "SKILL.md"), &stdout)
	assert.Equal(t, exitGateFailed, code)

	var report GateReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.Equal(t, "spec-reviewer", report.Name)
	assert.True(t, report.Failed)
	assert.Equal(t, filepath.Join(dir, "SKILL.md"), report.Skill)

	var codes []string
	for _, f := range report.Findings {
		codes = append(codes, f.Code)
	}
	assert.Contains(t, codes, skills.CodeEvalsMissing)

	// waiving evals makes the same skill pass
	config.Options.RequireEvals = false
	stdout.Reset()
	assert.Equal(t, exitOK, runSkillGate(context.Background(), config, dir, &stdout))
}

func TestRunSkillGateLoadError(t *testing.T) {
	out := capturePresenter(t)
	dir := t.TempDir()
	writeTestFile(t, dir, "SKILL.md", "# No frontmatter\n")

	assert.Equal(t, exitFailure, runSkillGate(context.Background(), NewSkillGateConfig(), dir, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "Failed to load skill")
	assert.Contains(t, out.String(), "missing YAML frontmatter")
}

func TestRunSkillList(t *testing.T) {
	out := capturePresenter(t)
	root := t.TempDir()
	dir := filepath.Join(root, "spec-reviewer")
	writeTestFile(t, dir, "SKILL.md", reviewerSkill)

	viper.Set("skills.dirs", []string{root})
	t.Cleanup(func() { viper.Set("skills.dirs", nil) })

	var stdout bytes.Buffer
	require.Equal(t, exitOK, runSkillList(context.Background(), &stdout))
	assert.Contains(t, stdout.String(), "NAME")
	assert.Contains(t, stdout.String(), "spec-reviewer")
	assert.Contains(t, stdout.String(), "Review spec documents for missing sections and weak evide...")
	assert.Equal(t, "Skills (1)\n----------\n", out.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
