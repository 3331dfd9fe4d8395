package acceptance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const searchSpec = `# PRD: Order Search

## User Stories

1) **Story [STORY-001]:** As a support agent, I want to search orders by email so that I can answer tickets faster
   **Priority:** Must
   **Acceptance criteria:**
   - [ ] Results return in under 2 seconds

2) **Story [STORY-002]:** As a support agent, I want to filter by date so that I can narrow results
   **Priority:** Should
   **Acceptance criteria:**
   - [ ] Date range filter applies
`

type story struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Passes   bool   `json:"passes"`
	Attempts int    `json:"attempts"`
}

type document struct {
	ProjectName string  `json:"projectName"`
	BranchName  string  `json:"branchName"`
	UserStories []story `json:"userStories"`
}

func readDocument(t *testing.T, path string) (document, map[string]any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Invalid prd.json: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Invalid prd.json: %v", err)
	}
	return doc, raw
}

func TestCompileKeepsExecutionState(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "spec.md"), searchSpec)
	out := filepath.Join(dir, "prd.json")

	output, code := run(t, dir, "compile", "--spec", "spec.md", "--branch", "feature/search")
	if code != 0 {
		t.Fatalf("compile exited with %d: %s", code, output)
	}
	if !strings.Contains(output, "2 stories") {
		t.Errorf("Expected a compile summary. Got: %s", output)
	}

	doc, raw := readDocument(t, out)
	if doc.ProjectName != "Order Search" || doc.BranchName != "feature/search" {
		t.Errorf("Unexpected header: %+v", doc)
	}
	if len(doc.UserStories) != 2 || doc.UserStories[0].Status != "open" {
		t.Fatalf("Unexpected stories: %+v", doc.UserStories)
	}

	// simulate the execution loop finishing the first story
	stories := raw["userStories"].([]any)
	first := stories[0].(map[string]any)
	first["status"] = "done"
	first["passes"] = true
	first["attempts"] = 3
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode prd.json: %v", err)
	}
	writeFile(t, out, string(data)+"\n")

	// STORY-002 disappears from the spec
	trimmed := searchSpec[:strings.Index(searchSpec, "2) **Story")]
	writeFile(t, filepath.Join(dir, "spec.md"), trimmed)

	output, code = run(t, dir, "compile", "--spec", "spec.md", "--branch", "feature/search")
	if code != 0 {
		t.Fatalf("recompile exited with %d: %s", code, output)
	}

	doc, _ = readDocument(t, out)
	if len(doc.UserStories) != 2 {
		t.Fatalf("Expected the removed story to be kept. Got: %+v", doc.UserStories)
	}
	if s := doc.UserStories[0]; s.ID != "STORY-001" || s.Status != "done" || !s.Passes || s.Attempts != 3 {
		t.Errorf("Execution state was not preserved: %+v", s)
	}
	if s := doc.UserStories[1]; s.ID != "STORY-002" || s.Status != "removed" {
		t.Errorf("Expected STORY-002 to be marked removed: %+v", s)
	}
}

func TestCompileDryRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "spec.md"), searchSpec)

	output, code := run(t, dir, "compile", "--spec", "spec.md", "--branch", "main", "--dry-run")
	if code != 0 {
		t.Fatalf("dry run exited with %d: %s", code, output)
	}
	if !strings.Contains(output, `+  "projectName": "Order Search",`) {
		t.Errorf("Expected a diff of the new document. Got: %s", output)
	}
	if _, err := os.Stat(filepath.Join(dir, "prd.json")); !os.IsNotExist(err) {
		t.Errorf("dry run must not write prd.json")
	}
}

func TestCompileStructuralError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "spec.md"), "# PRD: Empty\n\nNothing yet.\n")

	output, code := run(t, dir, "compile", "--spec", "spec.md", "--branch", "main", "--strict")
	if code != 1 {
		t.Fatalf("Expected exit 1, got %d: %s", code, output)
	}
	if !strings.Contains(output, "structurally invalid") {
		t.Errorf("Expected a structural error. Got: %s", output)
	}
	if _, err := os.Stat(filepath.Join(dir, "prd.json")); !os.IsNotExist(err) {
		t.Errorf("a structurally invalid spec must not write prd.json")
	}
}

func TestCompileLenientWithoutStories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "spec.md"), "# PRD: Empty\n\nNothing yet.\n")

	output, code := run(t, dir, "compile", "--spec", "spec.md", "--branch", "main")
	if code != 0 {
		t.Fatalf("Expected exit 0, got %d: %s", code, output)
	}

	doc, _ := readDocument(t, filepath.Join(dir, "prd.json"))
	if doc.ProjectName != "Empty" || len(doc.UserStories) != 0 {
		t.Errorf("Expected an empty document. Got: %+v", doc)
	}
}
