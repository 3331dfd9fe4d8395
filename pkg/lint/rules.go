package lint

import (
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// CheckFunc inspects a document and returns findings at their base severity
type CheckFunc func(doc *Document) []Finding

// Rule is one independent check. A rule with no Types applies to every
// document type.
type Rule struct {
	ID    string
	Types []DocType
	Check CheckFunc
}

// Applies reports whether the rule runs for the given document type
func (r Rule) Applies(t DocType) bool {
	return len(r.Types) == 0 || slices.Contains(r.Types, t)
}

// Registry holds rules in registration order. Findings are reported in that
// order, so registration order is part of the output contract.
type Registry struct {
	rules []Rule
	ids   map[string]struct{}
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{ids: map[string]struct{}{}}
}

// Register adds a rule. Rule IDs must be unique.
func (r *Registry) Register(rule Rule) error {
	if rule.ID == "" || rule.Check == nil {
		return errors.New("rule requires an id and a check function")
	}
	if _, ok := r.ids[rule.ID]; ok {
		return errors.Errorf("rule %q already registered", rule.ID)
	}
	r.ids[rule.ID] = struct{}{}
	r.rules = append(r.rules, rule)
	return nil
}

// MustRegister is Register for package-level setup
func (r *Registry) MustRegister(rules ...Rule) *Registry {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}

// Rules returns the rules that apply to t, in registration order
func (r *Registry) Rules(t DocType) []Rule {
	var out []Rule
	for _, rule := range r.rules {
		if rule.Applies(t) {
			out = append(out, rule)
		}
	}
	return out
}

// IDs lists every registered rule ID
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		ids = append(ids, rule.ID)
	}
	return ids
}

var specTypes = []DocType{DocPRD, DocTech}

// DefaultRegistry returns the built-in rule set for PRDs, tech specs and
// skill documents.
func DefaultRegistry() *Registry {
	return NewRegistry().MustRegister(
		Rule{ID: "bare-na", Types: specTypes, Check: checkBareNA},
		Rule{ID: "evidence-lines", Types: specTypes, Check: checkEvidenceLines},
		Rule{ID: "template-metadata", Types: specTypes, Check: checkTemplateMetadata},
		Rule{ID: "required-sections", Check: checkRequiredSections},
		Rule{ID: "duplicate-sections", Check: checkDuplicateSections},
		Rule{ID: "story-quality", Types: []DocType{DocPRD}, Check: checkStoryQuality},
		Rule{ID: "story-ids", Types: []DocType{DocPRD}, Check: checkStoryIDs},
		Rule{ID: "numeric-metrics", Types: specTypes, Check: checkNumericMetrics},
		Rule{ID: "feature-creep", Types: specTypes, Check: checkFeatureCreep},
		Rule{ID: "scope-decision-log", Types: specTypes, Check: checkScopeDecisionLog},
		Rule{ID: "adr-links", Types: specTypes, Check: checkADRLinks},
		Rule{ID: "prd-impl-leak", Types: []DocType{DocPRD}, Check: checkImplLeak},
		Rule{ID: "component-state-machines", Types: []DocType{DocTech}, Check: checkComponentStateMachines},
		Rule{ID: "deployment-rollback", Types: []DocType{DocTech}, Check: checkDeploymentRollback},
		Rule{ID: "evidence-sections", Types: specTypes, Check: checkEvidenceSections},
		Rule{ID: "skill-fail-fast", Types: []DocType{DocSkill}, Check: checkSkillFailFast},
		Rule{ID: "skill-redaction", Types: []DocType{DocSkill}, Check: checkSkillRedaction},
		Rule{ID: "skill-schema-version", Types: []DocType{DocSkill}, Check: checkSkillSchemaVersion},
		Rule{ID: "skill-path-safety", Types: []DocType{DocSkill}, Check: checkSkillPathSafety},
	)
}

// containsAny reports whether text contains any needle, case-insensitively
func containsAny(text string, needles ...string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
