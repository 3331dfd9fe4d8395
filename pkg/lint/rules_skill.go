package lint

import (
	"regexp"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
)

const parentTraversal = "../"

var (
	windowsPathRE  = regexp.MustCompile(`(?m)^[A-Za-z]:\\`)
	absolutePathRE = regexp.MustCompile(`(?m)^[ \t]*/`)
)

var (
	failFastSignals = []string{
		"fail fast", "do not proceed", "stop", "abort", "on failure",
		"if fails", "must stop", "exit early",
	}
	redactionSignals = []string{
		"redact", "redaction", "secrets", "tokens", "api key", "credentials",
		"pii", "personal data", "sensitive",
	}
	schemaSignals = []string{
		"output schema", "schema.json", "json schema", "zod", "schema_version",
		"strict json", "machine-checkable", "validator", "contract",
	}
)

// skillSection returns the text of the first H2 section matching key
func skillSection(doc *Document, key string) (string, bool) {
	h := markdown.FindHeading(levelOnly(doc.Headings, 2), sectionSpecs[key].Match)
	if h == nil {
		return "", false
	}
	return strings.TrimSpace(markdown.SectionText(doc.Text, doc.Headings, *h)), true
}

func checkSkillFailFast(doc *Document) []Finding {
	sec, ok := skillSection(doc, "skill_validation")
	if !ok || sec == "" || containsAny(sec, failFastSignals...) {
		return nil
	}
	return []Finding{newFinding(SeverityWarn, CodeSkillFailFast, 0,
		"Validation section should specify fail-fast behavior (stop at first failed gate; do not proceed).")}
}

func checkSkillRedaction(doc *Document) []Finding {
	corpus, ok := skillSection(doc, "skill_constraints")
	if !ok || corpus == "" {
		corpus = doc.Text
	}
	if containsAny(corpus, redactionSignals...) {
		return nil
	}
	return []Finding{newFinding(SeverityWarn, CodeSkillRedaction, 0,
		"Constraints/Safety should mention redaction of secrets/tokens/PII by default.")}
}

func checkSkillSchemaVersion(doc *Document) []Finding {
	if !containsAny(doc.Text, schemaSignals...) || strings.Contains(strings.ToLower(doc.Text), "schema_version") {
		return nil
	}
	return []Finding{newFinding(SeverityWarn, CodeSkillSchemaVersion, 0,
		"Schema-bound outputs detected; consider including `schema_version` in the output contract.")}
}

func checkSkillPathSafety(doc *Document) []Finding {
	var out []Finding
	if m := windowsPathRE.FindStringIndex(doc.Text); m != nil {
		out = append(out, newFinding(SeverityWarn, CodeSkillPathWindows, markdown.LineAt(doc.Text, m[0]),
			"Windows-style paths detected; prefer POSIX-style relative paths."))
	}
	if m := absolutePathRE.FindStringIndex(doc.Text); m != nil {
		out = append(out, newFinding(SeverityWarn, CodeSkillPathAbsolute, markdown.LineAt(doc.Text, m[0]),
			"Absolute paths detected; prefer repo-relative paths."))
	}
	if i := strings.Index(doc.Text, parentTraversal); i >= 0 {
		out = append(out, newFinding(SeverityWarn, CodeSkillPathTraversal, markdown.LineAt(doc.Text, i),
			"Parent directory traversal (`../`) mentioned; avoid in references."))
	}
	return out
}
