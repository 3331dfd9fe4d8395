package spec

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/specforge/pkg/markdown"
	"github.com/pkg/errors"
)

// TemplateMetadataSection matches the heading of the Template Metadata block
var TemplateMetadataSection = markdown.Patterns(`\bTemplate Metadata\b`)

// Recognized Template Metadata fields
const (
	FieldName               = "name"
	FieldDescription        = "description"
	FieldTitleTemplate      = "title_template"
	FieldAcceptanceCriteria = "acceptance_criteria"
	FieldPriority           = "priority"
	FieldVariables          = "variables"
	FieldMetadata           = "metadata"
)

// TemplateFields lists the recognized fields in their canonical order
var TemplateFields = []string{
	FieldName, FieldDescription, FieldTitleTemplate, FieldAcceptanceCriteria,
	FieldPriority, FieldVariables, FieldMetadata,
}

const defaultTemplatePriority = "medium"

var (
	fieldBulletRE = regexp.MustCompile(`^\s*-\s+\*\*(.+?):\*\*\s*(.*)$`)
	bareBulletRE  = regexp.MustCompile(`^\s*[-*]\s+(.+?)\s*$`)
	placeholderRE = regexp.MustCompile(`\{[^{}]+\}`)
)

// TemplateMetadata is the flat key/value block describing how a spec is
// turned into work items.
type TemplateMetadata struct {
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	TitleTemplate      string         `json:"title_template"`
	AcceptanceCriteria []string       `json:"acceptance_criteria"`
	Priority           string         `json:"priority"`
	Variables          []string       `json:"variables"`
	Metadata           map[string]any `json:"metadata"`

	// Present records which recognized fields had a bullet line
	Present map[string]bool `json:"-"`
	// Line is the line of the Template Metadata heading
	Line int `json:"-"`
}

// fieldState is the scanner state: either outside any field (empty name) or
// inside the named field.
type fieldState struct {
	field string
}

func (s fieldState) in(field string) bool { return s.field == field }

// ExtractTemplateMetadata parses the Template Metadata section. The second
// return value is false when the document has no such section.
func ExtractTemplateMetadata(text string) (*TemplateMetadata, bool) {
	headings := markdown.ParseHeadings(text)
	h := markdown.FindHeading(headings, TemplateMetadataSection)
	if h == nil {
		return nil, false
	}
	return parseTemplateSection(markdown.SectionText(text, headings, *h), h.Line), true
}

func parseTemplateSection(section string, line int) *TemplateMetadata {
	tm := &TemplateMetadata{
		AcceptanceCriteria: []string{},
		Priority:           defaultTemplatePriority,
		Variables:          []string{},
		Metadata:           map[string]any{},
		Present:            map[string]bool{},
		Line:               line,
	}

	var state fieldState
	for _, raw := range strings.Split(section, "\n") {
		if m := fieldBulletRE.FindStringSubmatch(raw); m != nil {
			state = tm.enter(strings.ToLower(strings.TrimSpace(m[1])), strings.TrimSpace(m[2]))
			continue
		}
		if state.in(FieldAcceptanceCriteria) {
			if m := bareBulletRE.FindStringSubmatch(raw); m != nil {
				tm.AcceptanceCriteria = append(tm.AcceptanceCriteria, m[1])
			}
		}
	}
	return tm
}

// enter applies a field bullet and returns the next scanner state. An
// unrecognized field leaves every field, so following bullets are not
// attributed to the previous one.
func (tm *TemplateMetadata) enter(field, value string) fieldState {
	switch field {
	case FieldName:
		tm.Name = value
	case FieldDescription:
		tm.Description = value
	case FieldTitleTemplate:
		tm.TitleTemplate = value
	case FieldAcceptanceCriteria:
		tm.AcceptanceCriteria = []string{}
	case FieldPriority:
		tm.Priority = value
		if value == "" {
			tm.Priority = defaultTemplatePriority
		}
	case FieldVariables:
		tm.Variables = parseInlineList(value)
	case FieldMetadata:
		tm.Metadata = parseMetadataValue(value)
	default:
		return fieldState{}
	}
	tm.Present[field] = true
	return fieldState{field: field}
}

func parseInlineList(value string) []string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseMetadataValue(value string) map[string]any {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "{") || !strings.HasSuffix(value, "}") {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return map[string]any{}
	}
	return out
}

// HasPlaceholder reports whether the title template contains a {variable}
func (tm *TemplateMetadata) HasPlaceholder() bool {
	return placeholderRE.MatchString(tm.TitleTemplate)
}

// Validate returns every problem with the metadata at once. Absent
// variables and metadata bullets are not problems; they default to empty.
func (tm *TemplateMetadata) Validate() error {
	var result *multierror.Error

	if tm.Name == "" {
		result = multierror.Append(result, errors.New("'name' is required"))
	}
	if tm.Description == "" {
		result = multierror.Append(result, errors.New("'description' is required"))
	}
	switch {
	case tm.TitleTemplate == "":
		result = multierror.Append(result, errors.New("'title_template' is required"))
	case !tm.HasPlaceholder():
		result = multierror.Append(result, errors.New("'title_template' must include {variable} placeholders"))
	}
	if len(tm.AcceptanceCriteria) == 0 {
		result = multierror.Append(result, errors.New("'acceptance_criteria' must include at least one item"))
	}
	if tm.Priority == "" {
		result = multierror.Append(result, errors.New("'priority' is required"))
	}

	return result.ErrorOrNil()
}
