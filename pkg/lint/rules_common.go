package lint

import (
	"regexp"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
	"github.com/jingkaihe/specforge/pkg/spec"
)

var (
	bareNARE       = regexp.MustCompile(`(?im)^[ \t]*(?:[-*][ \t]*)?N/A[ \t]*$`)
	evidenceLineRE = regexp.MustCompile(`(?im)^[ \t]*Evidence:[ \t]+|^[ \t]*Evidence gap:[ \t]+`)
	evidenceGapRE  = regexp.MustCompile(`(?i)\bGap:|\bEvidence gap\b`)
	evidenceMapRE  = regexp.MustCompile(`(?i)\|\s*Section\s*/\s*Claim\s*\|\s*Evidence\s*\|`)
	citationRE     = regexp.MustCompile(`(?i)https?://|\b\w+\.md\b`)
	isoDateRE      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	datedRowRE     = regexp.MustCompile(`(?m)^\|\s*\d{4}-\d{2}-\d{2}\s*\|`)
	adrLinkRE      = regexp.MustCompile(`(?i)ADR link:\s*\S`)
)

func checkBareNA(doc *Document) []Finding {
	var out []Finding
	for _, m := range bareNARE.FindAllStringIndex(doc.Text, -1) {
		out = append(out, newFinding(SeverityError, CodeBareNA, markdown.LineAt(doc.Text, m[0]),
			"Found bare 'N/A' with no explanation. Add 1-2 lines explaining why."))
	}
	return out
}

func checkEvidenceLines(doc *Document) []Finding {
	var out []Finding
	for _, b := range markdown.SplitBlocks(doc.Text) {
		if !b.Substantive() || evidenceLineRE.MatchString(b.Text) {
			continue
		}
		out = append(out, newFinding(SeverityError, CodeEvidenceMissing, b.Line,
			"Missing Evidence line in paragraph block."))
	}
	return out
}

func checkTemplateMetadata(doc *Document) []Finding {
	tm := doc.Template
	if tm == nil {
		// reported by required-sections
		return nil
	}

	var out []Finding
	for _, field := range spec.TemplateFields {
		if !tm.Present[field] || templateFieldEmpty(tm, field) {
			out = append(out, newFinding(SeverityError, CodeTemplateFieldMissing, tm.Line,
				"Template Metadata missing '%s'.", field))
		}
	}
	if tm.TitleTemplate != "" && !tm.HasPlaceholder() {
		out = append(out, newFinding(SeverityError, CodeTemplatePlaceholder, tm.Line,
			"Template Metadata 'title_template' must include {variable} placeholders."))
	}
	if len(tm.AcceptanceCriteria) == 0 {
		out = append(out, newFinding(SeverityWarn, CodeTemplateACEmpty, tm.Line,
			"Template Metadata acceptance_criteria list appears empty."))
	}
	return out
}

// templateFieldEmpty reports scalar fields that were declared without a value.
// List and map fields may legitimately be empty.
func templateFieldEmpty(tm *spec.TemplateMetadata, field string) bool {
	switch field {
	case spec.FieldName:
		return tm.Name == ""
	case spec.FieldDescription:
		return tm.Description == ""
	case spec.FieldTitleTemplate:
		return tm.TitleTemplate == ""
	}
	return false
}

func checkRequiredSections(doc *Document) []Finding {
	headings := doc.Headings
	if doc.Type == DocSkill {
		headings = levelOnly(headings, 2)
	}

	var out []Finding
	for _, req := range RequiredSections(doc.Type) {
		s := sectionSpecs[req.Key]
		if markdown.FindHeading(headings, s.Match) != nil {
			continue
		}
		kind := "required"
		if req.Severity < SeverityError {
			kind = "recommended"
		}
		out = append(out, newFinding(req.Severity, CodeSectionMissing, 0,
			"Missing %s section: %s", kind, s.Title))
	}
	return out
}

// checkDuplicateSections flags required sections whose exact title appears
// more than once. Only the first occurrence is ever read by other rules.
func checkDuplicateSections(doc *Document) []Finding {
	var out []Finding
	for _, req := range RequiredSections(doc.Type) {
		matches := markdown.FindAll(doc.Headings, sectionSpecs[req.Key].Match)
		if len(matches) < 2 {
			continue
		}
		first := matches[0]
		for _, h := range matches[1:] {
			if !strings.EqualFold(h.Title, first.Title) {
				continue
			}
			out = append(out, newFinding(SeverityInfo, CodeSectionDuplicate, h.Line,
				"Duplicate section %q; only the first occurrence at L%d is used.", h.Title, first.Line))
		}
	}
	return out
}

func levelOnly(headings []markdown.Heading, level int) []markdown.Heading {
	var out []markdown.Heading
	for _, h := range headings {
		if h.Level == level {
			out = append(out, h)
		}
	}
	return out
}

func checkEvidenceSections(doc *Document) []Finding {
	var out []Finding
	if h, sec, ok := doc.Section("evidence_map"); ok && !evidenceMapRE.MatchString(sec) {
		out = append(out, newFinding(SeverityWarn, CodeEvidenceMapHeader, h.Line,
			"Evidence Map section missing table header."))
	}
	if h, sec, ok := doc.Section("evidence_gaps"); ok && !evidenceGapRE.MatchString(sec) {
		out = append(out, newFinding(SeverityWarn, CodeEvidenceGapsEmpty, h.Line,
			"Evidence Gaps section appears empty."))
	}
	return out
}

var featureCreepChecks = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Core problem validated", regexp.MustCompile(`(?i)Core problem validated\?\s*\S`)},
	{"Smallest shippable version", regexp.MustCompile(`(?i)Smallest shippable version:\s*\S`)},
	{"What we are NOT building", regexp.MustCompile(`(?i)NOT building.*:\s*\S`)},
	{"Success measure", regexp.MustCompile(`(?i)Success measure.*:\s*\S`)},
	{"48-hour rule", regexp.MustCompile(`(?i)48[- ]hour rule.*:\s*\S`)},
}

func checkFeatureCreep(doc *Document) []Finding {
	h, sec, ok := doc.Section("feature_creep")
	if !ok {
		return nil
	}

	var out []Finding
	for _, c := range featureCreepChecks {
		if !c.re.MatchString(sec) {
			out = append(out, newFinding(SeverityWarn, CodeFeatureCreepMissing, h.Line,
				"Feature creep guardrails missing: %s.", c.label))
		}
	}
	if !citationRE.MatchString(sec) {
		out = append(out, newFinding(SeverityWarn, CodeFeatureCreepCitation, h.Line,
			"Feature creep guardrails should cite evidence (link or doc path)."))
	}
	if !isoDateRE.MatchString(sec) {
		out = append(out, newFinding(SeverityWarn, CodeFeatureCreepDate, h.Line,
			"Feature creep guardrails should include a date for the 48-hour rule."))
	}
	return out
}

func checkScopeDecisionLog(doc *Document) []Finding {
	h, sec, ok := doc.Section("scope_decision_log")
	if !ok || datedRowRE.MatchString(sec) {
		return nil
	}
	return []Finding{newFinding(SeverityWarn, CodeScopeLogUndated, h.Line,
		"Scope Decision Log missing any dated entries.")}
}

func checkADRLinks(doc *Document) []Finding {
	h, sec, ok := doc.Section("decision_log")
	if !ok {
		return nil
	}

	var out []Finding
	if !adrLinkRE.MatchString(sec) {
		out = append(out, newFinding(SeverityWarn, CodeADRLinkMissing, h.Line,
			"Decision Log missing 'ADR link' entry."))
	}
	if !citationRE.MatchString(sec) {
		out = append(out, newFinding(SeverityWarn, CodeADRPathMissing, h.Line,
			"Decision Log should include a path or URL to ADR."))
	}
	return out
}
