package lint

// Finding codes. Codes are stable identifiers used by the severity policy
// and by --disable filters.
const (
	CodeSectionMissing   = "SECTION_MISSING"
	CodeSectionDuplicate = "SECTION_DUPLICATE"

	CodeBareNA          = "BARE_NA"
	CodeEvidenceMissing = "EVIDENCE_MISSING"

	CodeTemplateFieldMissing = "TEMPLATE_FIELD_MISSING"
	CodeTemplatePlaceholder  = "TEMPLATE_PLACEHOLDER"
	CodeTemplateACEmpty      = "TEMPLATE_AC_EMPTY"

	CodeStoryFormat          = "STORY_FORMAT"
	CodeStoryACMissing       = "STORY_AC_MISSING"
	CodeStoryACEmpty         = "STORY_AC_EMPTY"
	CodeStoryDuplicateID     = "STORY_DUPLICATE_ID"
	CodeNoStories            = "STORY_NONE"
	CodeNoAcceptanceCriteria = "STORY_NO_ACCEPTANCE_CRITERIA"

	CodeMetricsNoDigits = "METRICS_NO_DIGITS"
	CodePRDImplLeak     = "PRD_IMPL_LEAK"

	CodeComponentStateMachine = "TECH_COMPONENT_STATE_MACHINE"
	CodeDeploymentRollback    = "TECH_DEPLOYMENT_ROLLBACK"

	CodeEvidenceMapHeader = "EVIDENCE_MAP_HEADER"
	CodeEvidenceGapsEmpty = "EVIDENCE_GAPS_EMPTY"

	CodeFeatureCreepMissing  = "SCOPE_CREEP_GUARDRAIL"
	CodeFeatureCreepCitation = "SCOPE_CREEP_CITATION"
	CodeFeatureCreepDate     = "SCOPE_CREEP_DATE"
	CodeScopeLogUndated      = "SCOPE_LOG_UNDATED"

	CodeADRLinkMissing = "ADR_LINK_MISSING"
	CodeADRPathMissing = "ADR_PATH_MISSING"

	CodeSkillFailFast      = "SKILL_FAIL_FAST"
	CodeSkillRedaction     = "SKILL_REDACTION"
	CodeSkillSchemaVersion = "SKILL_SCHEMA_VERSION"
	CodeSkillPathWindows   = "SKILL_PATH_WINDOWS"
	CodeSkillPathAbsolute  = "SKILL_PATH_ABSOLUTE"
	CodeSkillPathTraversal = "SKILL_PATH_TRAVERSAL"
)
