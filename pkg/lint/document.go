package lint

import (
	"regexp"
	"strings"

	"github.com/jingkaihe/specforge/pkg/markdown"
	"github.com/jingkaihe/specforge/pkg/spec"
	"github.com/pkg/errors"
)

// DocType selects the section table and rule set applied to a document
type DocType string

const (
	DocPRD   DocType = "prd"
	DocTech  DocType = "tech"
	DocSkill DocType = "skill"
)

// ParseDocType validates a user supplied document type
func ParseDocType(s string) (DocType, error) {
	switch t := DocType(strings.ToLower(strings.TrimSpace(s))); t {
	case DocPRD, DocTech, DocSkill:
		return t, nil
	}
	return "", errors.Errorf("unknown document type %q (expected prd, tech or skill)", s)
}

var (
	techMarkerRE    = regexp.MustCompile(`(?i)\bTechnical Specification\b|\bTech Spec\b`)
	prdMarkerRE     = regexp.MustCompile(`(?i)\bPRD\b|Product Requirements Document|#\s*PRD`)
	techStructureRE = regexp.MustCompile(`(?i)\bSystem Architecture\b|\bComponent Design\b|\bObservability\b`)
)

// InferDocType guesses whether text is a PRD or a tech spec. Explicit tech
// spec markers win over PRD markers; PRD is the fallback.
func InferDocType(text string) DocType {
	switch {
	case techMarkerRE.MatchString(text):
		return DocTech
	case prdMarkerRE.MatchString(text):
		return DocPRD
	case techStructureRE.MatchString(text):
		return DocTech
	default:
		return DocPRD
	}
}

// Document is the parsed view every rule receives
type Document struct {
	Text     string
	Type     DocType
	Headings []markdown.Heading

	// Stories are the ID-bearing story blocks
	Stories []spec.StoryBlock
	// Template is nil when the document has no Template Metadata section
	Template *spec.TemplateMetadata
}

// NewDocument normalizes text and runs the section parser and extractors once.
func NewDocument(text string, docType DocType) *Document {
	text = markdown.Normalize(text)
	doc := &Document{
		Text:     text,
		Type:     docType,
		Headings: markdown.ParseHeadings(text),
		Stories:  spec.StoryBlocks(text),
	}
	if tm, ok := spec.ExtractTemplateMetadata(text); ok {
		doc.Template = tm
	}
	return doc
}

// Find returns the first heading matching the named section, or nil
func (d *Document) Find(key string) *markdown.Heading {
	return markdown.FindHeading(d.Headings, sectionSpecs[key].Match)
}

// Section returns the heading and text of the named section
func (d *Document) Section(key string) (*markdown.Heading, string, bool) {
	h := d.Find(key)
	if h == nil {
		return nil, "", false
	}
	return h, markdown.SectionText(d.Text, d.Headings, *h), true
}
