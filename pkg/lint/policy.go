package lint

// policyKey identifies a finding by code and the severity its rule emitted
type policyKey struct {
	Code string
	Base Severity
}

// Policy maps (code, base severity) to the final severity of a finding.
// Pairs absent from the table keep their base severity.
type Policy struct {
	table map[policyKey]Severity
}

// NewPolicy returns an empty (identity) policy
func NewPolicy() *Policy {
	return &Policy{table: map[policyKey]Severity{}}
}

// Set maps code at base severity to final
func (p *Policy) Set(code string, base, final Severity) *Policy {
	p.table[policyKey{Code: code, Base: base}] = final
	return p
}

// Escalate maps every listed code from WARN to ERROR
func (p *Policy) Escalate(codes ...string) *Policy {
	for _, code := range codes {
		p.Set(code, SeverityWarn, SeverityError)
	}
	return p
}

// Apply returns the final severity for a finding
func (p *Policy) Apply(f Finding) Severity {
	if p == nil {
		return f.Severity
	}
	if final, ok := p.table[policyKey{Code: f.Code, Base: f.Severity}]; ok {
		return final
	}
	return f.Severity
}

// LenientPolicy keeps every base severity
func LenientPolicy() *Policy {
	return NewPolicy()
}

// StrictPolicy escalates the advisory findings that strict mode treats as
// fatal. Purely stylistic warnings (citations, dates, implementation leaks,
// path hygiene) stay advisory.
func StrictPolicy() *Policy {
	return NewPolicy().Escalate(
		CodeSectionMissing,
		CodeNoAcceptanceCriteria,
		CodeMetricsNoDigits,
		CodeComponentStateMachine,
		CodeDeploymentRollback,
		CodeEvidenceMapHeader,
		CodeEvidenceGapsEmpty,
		CodeFeatureCreepMissing,
		CodeScopeLogUndated,
		CodeADRLinkMissing,
		CodeSkillFailFast,
		CodeSkillRedaction,
	)
}
