package diagnostics

// Code classifies migration limitations and defects.
type Code string

const (
	CodeCycleDetected            Code = "cycle_detected"
	CodeStageDisconnected        Code = "stage_disconnected"
	CodeConnectorEndpointUnknown Code = "connector_endpoint_unknown"
	CodeMissingJoinCondition     Code = "missing_join_condition"
	CodeMissingAggregates        Code = "missing_aggregates"
	CodeMissingRouterGroups      Code = "missing_router_groups"
	CodeMissingDefaultGroup      Code = "missing_default_group"
	CodeMissingLookupSource      Code = "missing_lookup_source"
	CodeMissingUpstreamSorter    Code = "missing_upstream_sorter"
	CodeStageKindUnsupported     Code = "stage_kind_unsupported"
	CodeDatatypeUnmapped         Code = "datatype_unmapped"
	CodeFunctionUnmapped         Code = "function_unmapped"
	CodeUnterminatedLiteral      Code = "unterminated_literal"
	CodePartialConfiguration     Code = "partial_configuration"
	CodeBrokenConnector          Code = "broken_connector"
	CodeFieldUnknown             Code = "connector_field_unknown"
	CodeOutputExists             Code = "output_exists"
	CodeOutputInvalid            Code = "output_invalid"
)

// Stage identifies the migration pipeline stage where a diagnostic was raised.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageTranslate Stage = "translate"
	StageEmit      Stage = "emit"
)

// Severity indicates diagnostic impact.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Definition is canonical metadata for one diagnostic code.
type Definition struct {
	Code            Code
	DefaultStage    Stage
	DefaultSeverity Severity
}

var definitions = map[Code]Definition{
	CodeCycleDetected:            {Code: CodeCycleDetected, DefaultStage: StageValidate, DefaultSeverity: SeverityError},
	CodeStageDisconnected:        {Code: CodeStageDisconnected, DefaultStage: StageValidate, DefaultSeverity: SeverityWarning},
	CodeConnectorEndpointUnknown: {Code: CodeConnectorEndpointUnknown, DefaultStage: StageValidate, DefaultSeverity: SeverityError},
	CodeMissingJoinCondition:     {Code: CodeMissingJoinCondition, DefaultStage: StageValidate, DefaultSeverity: SeverityError},
	CodeMissingAggregates:        {Code: CodeMissingAggregates, DefaultStage: StageValidate, DefaultSeverity: SeverityError},
	CodeMissingRouterGroups:      {Code: CodeMissingRouterGroups, DefaultStage: StageValidate, DefaultSeverity: SeverityError},
	CodeMissingDefaultGroup:      {Code: CodeMissingDefaultGroup, DefaultStage: StageValidate, DefaultSeverity: SeverityWarning},
	CodeMissingLookupSource:      {Code: CodeMissingLookupSource, DefaultStage: StageValidate, DefaultSeverity: SeverityError},
	CodeMissingUpstreamSorter:    {Code: CodeMissingUpstreamSorter, DefaultStage: StageValidate, DefaultSeverity: SeverityWarning},
	CodeStageKindUnsupported:     {Code: CodeStageKindUnsupported, DefaultStage: StageTranslate, DefaultSeverity: SeverityError},
	CodeDatatypeUnmapped:         {Code: CodeDatatypeUnmapped, DefaultStage: StageTranslate, DefaultSeverity: SeverityWarning},
	CodeFunctionUnmapped:         {Code: CodeFunctionUnmapped, DefaultStage: StageTranslate, DefaultSeverity: SeverityWarning},
	CodeUnterminatedLiteral:      {Code: CodeUnterminatedLiteral, DefaultStage: StageTranslate, DefaultSeverity: SeverityWarning},
	CodePartialConfiguration:     {Code: CodePartialConfiguration, DefaultStage: StageTranslate, DefaultSeverity: SeverityWarning},
	CodeBrokenConnector:          {Code: CodeBrokenConnector, DefaultStage: StageTranslate, DefaultSeverity: SeverityWarning},
	CodeFieldUnknown:             {Code: CodeFieldUnknown, DefaultStage: StageTranslate, DefaultSeverity: SeverityWarning},
	CodeOutputExists:             {Code: CodeOutputExists, DefaultStage: StageEmit, DefaultSeverity: SeverityWarning},
	CodeOutputInvalid:            {Code: CodeOutputInvalid, DefaultStage: StageEmit, DefaultSeverity: SeverityError},
}

// DefinitionFor resolves canonical metadata for a diagnostic code.
func DefinitionFor(code Code) Definition {
	if definition, ok := definitions[code]; ok {
		return definition
	}

	return Definition{
		Code:            code,
		DefaultStage:    StageValidate,
		DefaultSeverity: SeverityWarning,
	}
}

// Issue is a single migration diagnostic attached to a mapping entity.
type Issue struct {
	Code     Code     `json:"code"`
	Stage    Stage    `json:"stage,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	Message  string   `json:"message"`
}

// New builds an issue with the code's canonical stage and severity.
func New(code Code, subject string, message string) Issue {
	definition := DefinitionFor(code)

	return Issue{
		Code:     code,
		Stage:    definition.DefaultStage,
		Subject:  subject,
		Severity: definition.DefaultSeverity,
		Message:  message,
	}
}

// HasErrors reports whether any issue is error-severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}

	return false
}
