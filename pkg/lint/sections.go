package lint

import "github.com/jingkaihe/specforge/pkg/markdown"

// SectionSpec names a section and the title patterns that identify it
type SectionSpec struct {
	Title string
	Match markdown.Matcher
}

// Requirement declares that a document type must contain a section. The
// severity is the base severity of the finding when the section is absent.
type Requirement struct {
	Key      string
	Severity Severity
}

// sectionSpecs is the single table of section matchers. Rules look sections
// up by key instead of carrying their own patterns.
var sectionSpecs = map[string]SectionSpec{
	"template_metadata":     {"Template Metadata", markdown.Patterns(`\bTemplate Metadata\b`)},
	"executive_summary":     {"Executive Summary", markdown.Patterns(`\bExecutive Summary\b`)},
	"problem":               {"Problem / Opportunity", markdown.Patterns(`\bProblem\b.*\bOpportunity\b`, `\bProblem Statement\b`)},
	"target_users":          {"Target Users / Personas", markdown.Patterns(`\bTarget Users\b`, `\bPersonas\b`)},
	"user_stories":          {"User Stories", markdown.Patterns(`\bUser Stories\b`, `\bUse Cases\b`)},
	"acceptance_criteria":   {"Acceptance Criteria", markdown.Patterns(`\bAcceptance Criteria\b`)},
	"decision_log":          {"Decision Log / ADRs", markdown.Patterns(`\bDecision Log\b`, `\bADRs\b`)},
	"data_lifecycle":        {"Data Lifecycle & Retention", markdown.Patterns(`\bData Lifecycle\b`, `\bLifecycle & Retention\b`)},
	"functional":            {"Functional Requirements", markdown.Patterns(`\bFunctional Requirements\b`)},
	"non_functional":        {"Non-Functional Requirements", markdown.Patterns(`\bNon[- ]Functional Requirements\b`)},
	"success_metrics":       {"Success Metrics / KPIs", markdown.Patterns(`\bSuccess Metrics\b`, `\bKPIs\b`)},
	"scope":                 {"Scope", markdown.Patterns(`\bScope\b`)},
	"feature_creep":         {"Feature Creep Guardrails", markdown.Patterns(`\bFeature Creep Guardrails\b`)},
	"scope_decision_log":    {"Scope Decision Log", markdown.Patterns(`\bScope Decision Log\b`)},
	"dependencies":          {"Dependencies", markdown.Patterns(`\bDependencies\b`)},
	"risks":                 {"Risks", markdown.Patterns(`\bRisks\b`)},
	"launch_rollback":       {"Launch & Rollback Guardrails", markdown.Patterns(`\bLaunch\b.*\bRollback\b`, `\bRollback Guardrails\b`)},
	"post_launch":           {"Post-Launch Monitoring Plan", markdown.Patterns(`\bPost[- ]Launch\b.*\bMonitoring\b`)},
	"support_ops":           {"Support / Ops Impact", markdown.Patterns(`\bSupport\b.*\bOps\b`, `\bOps Impact\b`)},
	"compliance":            {"Compliance & Regulatory Review Triggers", markdown.Patterns(`\bCompliance\b.*\bRegulatory\b`, `\bRegulatory Review Triggers\b`)},
	"ownership":             {"Ownership & RACI", markdown.Patterns(`\bOwnership\b.*\bRACI\b`, `\bRACI\b`)},
	"security_privacy":      {"Security & Privacy Classification", markdown.Patterns(`\bSecurity\b.*\bPrivacy\b.*\bClassification\b`)},
	"dependency_slas":       {"Dependency SLAs & Vendor Risk", markdown.Patterns(`\bDependency SLAs\b`, `\bVendor Risk\b`)},
	"cost_model":            {"Cost Model & Budget Guardrails", markdown.Patterns(`\bCost Model\b`, `\bBudget Guardrails\b`)},
	"localization":          {"Localization & Internationalization", markdown.Patterns(`\bLocalization\b`, `\bInternationalization\b`, `\bI18n\b`)},
	"backward_compat":       {"Backward Compatibility & Deprecation", markdown.Patterns(`\bBackward Compatibility\b`, `\bDeprecation\b`)},
	"experimentation":       {"Experimentation & Feature Flags", markdown.Patterns(`\bExperimentation\b`, `\bFeature Flags?\b`)},
	"kill_criteria":         {"Kill Criteria", markdown.Patterns(`\bKill Criteria\b`, `\bStop conditions\b`)},
	"evidence_gaps":         {"Evidence Gaps", markdown.Patterns(`\bEvidence Gaps\b`)},
	"evidence_map":          {"Evidence Map", markdown.Patterns(`\bEvidence Map\b`)},
	"assumptions_questions": {"Assumptions & Open Questions", markdown.Patterns(`\bAssumptions\b.*\bOpen Questions\b`, `\bOpen Questions\b`)},
	"prd_integrity":         {"PRD Integrity Rule", markdown.Patterns(`\bPRD Integrity\b`, `\bIntegrity Rule\b`)},

	"overview":         {"Overview / Context", markdown.Patterns(`\bOverview\b`, `\bContext\b`)},
	"goals":            {"Goals and Non-Goals", markdown.Patterns(`\bGoals\b.*\bNon[- ]Goals\b`)},
	"architecture":     {"System Architecture", markdown.Patterns(`\bSystem Architecture\b`, `\bArchitecture\b`)},
	"component_design": {"Component Design", markdown.Patterns(`\bComponent Design\b`)},
	"api_design":       {"API Design", markdown.Patterns(`\bAPI Design\b`)},
	"data_models":      {"Data Models", markdown.Patterns(`\bData Models\b`, `\bDatabase Schema\b`)},
	"infrastructure":   {"Infrastructure Requirements", markdown.Patterns(`\bInfrastructure Requirements\b`)},
	"security":         {"Security Considerations", markdown.Patterns(`\bSecurity Considerations\b`, `\bSecurity\b`)},
	"error_handling":   {"Error Handling Strategy", markdown.Patterns(`\bError Handling\b`)},
	"performance":      {"Performance Requirements", markdown.Patterns(`\bPerformance\b`, `\bSLAs?\b`, `\bSLOs?\b`)},
	"observability":    {"Observability", markdown.Patterns(`\bObservability\b`)},
	"testing":          {"Testing Strategy", markdown.Patterns(`\bTesting Strategy\b`, `\bTesting\b`)},
	"deployment":       {"Deployment Strategy", markdown.Patterns(`\bDeployment Strategy\b`, `\bDeployment\b`)},
	"open_questions":   {"Open Questions", markdown.Patterns(`\bOpen Questions\b`, `\bFuture Considerations\b`)},

	"skill_when_to_use":  {"When to use", markdown.Patterns(`when to use`, `usage`, `triggers`, `invocation`)},
	"skill_inputs":       {"Inputs", markdown.Patterns(`inputs`, `assumptions`, `requirements`)},
	"skill_outputs":      {"Outputs", markdown.Patterns(`outputs`, `deliverables`, `result`)},
	"skill_procedure":    {"Procedure", markdown.Patterns(`workflow`, `procedure`, `steps`, `process`)},
	"skill_validation":   {"Validation", markdown.Patterns(`validation`, `checks`, `verify`, `acceptance`, `gates`)},
	"skill_antipatterns": {"Anti-patterns", markdown.Patterns(`anti-pattern`, `anti patterns`, `what to avoid`, `pitfalls`)},
	"skill_constraints":  {"Constraints", markdown.Patterns(`constraints`, `safety`)},
	"skill_philosophy":   {"Philosophy", markdown.Patterns(`philosophy`, `principles`, `mental model`)},
	"skill_examples":     {"Examples", markdown.Patterns(`examples`, `example prompts`)},
}

func required(keys ...string) []Requirement {
	reqs := make([]Requirement, 0, len(keys))
	for _, k := range keys {
		reqs = append(reqs, Requirement{Key: k, Severity: SeverityError})
	}
	return reqs
}

func recommended(keys ...string) []Requirement {
	reqs := make([]Requirement, 0, len(keys))
	for _, k := range keys {
		reqs = append(reqs, Requirement{Key: k, Severity: SeverityWarn})
	}
	return reqs
}

func concat(lists ...[]Requirement) []Requirement {
	var out []Requirement
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// sharedGuardrails are required by both PRDs and tech specs
var sharedGuardrails = []string{
	"scope", "feature_creep", "scope_decision_log", "decision_log", "data_lifecycle",
	"launch_rollback", "post_launch", "support_ops", "compliance", "ownership",
	"security_privacy", "dependency_slas", "cost_model", "localization",
	"backward_compat", "experimentation", "kill_criteria", "evidence_gaps", "evidence_map",
}

// requiredSections is the declarative per-type table. Acceptance Criteria is
// advisory in lenient mode and becomes an error under the strict policy.
var requiredSections = map[DocType][]Requirement{
	DocPRD: concat(
		required("template_metadata", "executive_summary", "problem", "target_users", "user_stories"),
		recommended("acceptance_criteria"),
		required("functional", "non_functional", "success_metrics", "dependencies", "risks"),
		required(sharedGuardrails...),
		required("assumptions_questions", "prd_integrity"),
	),
	DocTech: concat(
		required("overview", "goals", "template_metadata"),
		recommended("acceptance_criteria"),
		required("architecture", "component_design", "api_design", "data_models", "infrastructure",
			"security", "error_handling", "performance", "observability", "testing", "deployment"),
		required(sharedGuardrails...),
		required("open_questions"),
	),
	DocSkill: concat(
		required("skill_when_to_use", "skill_inputs", "skill_outputs", "skill_procedure",
			"skill_validation", "skill_antipatterns", "skill_constraints", "skill_philosophy"),
		recommended("skill_examples"),
	),
}

// RequiredSections returns the section requirements for a document type
func RequiredSections(t DocType) []Requirement {
	return requiredSections[t]
}

// SectionTitle returns the display title of a section key
func SectionTitle(key string) string {
	return sectionSpecs[key].Title
}
