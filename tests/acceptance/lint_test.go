package acceptance

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestLintReportsMissingSections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "prd-search.md"), searchSpec)

	output, code := run(t, dir, "lint", "docs/**/*.md")
	if code != 1 {
		t.Fatalf("Expected exit 1, got %d: %s", code, output)
	}
	for _, want := range []string{"docs/prd-search.md", "Missing required section: Risks", "FAIL"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output. Got: %s", want, output)
		}
	}
}

func TestLintJSONWithDisabledCodes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "spec.md"), searchSpec)

	output, code := run(t, dir, "lint", "--format", "json", "--disable", "*", "spec.md")
	if code != 0 {
		t.Fatalf("Expected exit 0 with every code disabled, got %d: %s", code, output)
	}

	var reports []struct {
		File     string `json:"file"`
		Type     string `json:"type"`
		Failed   bool   `json:"failed"`
		Findings []any  `json:"findings"`
	}
	if err := json.Unmarshal([]byte(output), &reports); err != nil {
		t.Fatalf("Invalid JSON report: %v\n%s", err, output)
	}
	if len(reports) != 1 || reports[0].Type != "prd" || reports[0].Failed || len(reports[0].Findings) != 0 {
		t.Errorf("Unexpected report: %+v", reports)
	}
}
