// Package prd compiles spec documents into the prd.json consumed by the
// story execution loop. Story content always comes from the spec text;
// execution state is carried over from the previously compiled document.
package prd

import (
	"bytes"
	"encoding/json"

	"github.com/jingkaihe/specforge/pkg/spec"
	"github.com/pkg/errors"
)

// Story statuses written by the compiler. The execution loop may write
// others (in_progress, done, ...); they are preserved verbatim.
const (
	StatusOpen    = "open"
	StatusRemoved = "removed"
)

// ExecutionState is the progress the execution loop records per story. It
// is never derived from spec text.
type ExecutionState struct {
	Status      string  `json:"status" jsonschema:"description=Execution status such as open or removed"`
	Passes      bool    `json:"passes"`
	StartedAt   *string `json:"startedAt" jsonschema:"oneof_type=string;null"`
	CompletedAt *string `json:"completedAt" jsonschema:"oneof_type=string;null"`
	Attempts    int     `json:"attempts" jsonschema:"minimum=0"`
	LastError   *string `json:"lastError" jsonschema:"oneof_type=string;null"`
}

// DefaultState is the state of a story seen for the first time
func DefaultState() ExecutionState {
	return ExecutionState{Status: StatusOpen}
}

func (s ExecutionState) clone() ExecutionState {
	out := s
	out.StartedAt = cloneString(s.StartedAt)
	out.CompletedAt = cloneString(s.CompletedAt)
	out.LastError = cloneString(s.LastError)
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// UserStory is one compiled story
type UserStory struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Priority           spec.Priority `json:"priority" jsonschema:"enum=0,enum=1,enum=2,description=0 Must / 1 Should / 2 Could"`
	AcceptanceCriteria []string      `json:"acceptanceCriteria"`
	Tests              []string      `json:"tests"`
	ExecutionState
}

// UnmarshalJSON fills fields missing from older documents with first-seen
// defaults and a Should priority.
func (s *UserStory) UnmarshalJSON(data []byte) error {
	type plain UserStory
	p := plain{
		Priority:       spec.PriorityShould,
		ExecutionState: DefaultState(),
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = UserStory(p)
	return nil
}

// Document is the persisted prd.json
type Document struct {
	ProjectName string      `json:"projectName"`
	BranchName  string      `json:"branchName"`
	SpecRef     string      `json:"specRef"`
	GeneratedAt string      `json:"generatedAt" jsonschema:"description=UTC timestamp of the compile run (RFC 3339 with Z suffix)"`
	FinalTests  []string    `json:"finalTests"`
	UserStories []UserStory `json:"userStories"`
}

// Story returns the story with the given ID
func (d *Document) Story(id string) (*UserStory, bool) {
	for i := range d.UserStories {
		if d.UserStories[i].ID == id {
			return &d.UserStories[i], true
		}
	}
	return nil, false
}

// Marshal renders the document as indented JSON with a trailing newline.
// Nil lists are written as [].
func (d *Document) Marshal() ([]byte, error) {
	out := *d
	out.FinalTests = nonNil(d.FinalTests)
	out.UserStories = make([]UserStory, len(d.UserStories))
	for i, s := range d.UserStories {
		s.AcceptanceCriteria = nonNil(s.AcceptanceCriteria)
		s.Tests = nonNil(s.Tests)
		out.UserStories[i] = s
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, errors.Wrap(err, "failed to marshal prd document")
	}
	return buf.Bytes(), nil
}

// Parse decodes a compiled document
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse prd document")
	}
	return &doc, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
