// Package verify checks emitted dataflow JSON against the structural
// requirements of the target platform before the artifact is written.
package verify

import (
	"encoding/json"
	"fmt"

	"github.com/theory/jsonpath"

	"github.com/pcmigrate/pc2adf/internal/diagnostics"
)

// DataFlow inspects a rendered dataflow document and reports structural
// defects as diagnostics; it never fails the run.
func DataFlow(payload []byte) []diagnostics.Issue {
	var document any
	if err := json.Unmarshal(payload, &document); err != nil {
		return []diagnostics.Issue{diagnostics.New(
			diagnostics.CodeOutputInvalid,
			"",
			fmt.Sprintf("generated dataflow is not valid JSON: %v", err),
		)}
	}

	var issues []diagnostics.Issue

	name, ok := selectString(document, "$.name")
	if !ok || name == "" {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeOutputInvalid, "",
			"generated dataflow has no name",
		))
	}

	flowType, ok := selectString(document, "$.properties.type")
	if !ok || flowType != "MappingDataFlow" {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeOutputInvalid, name,
			fmt.Sprintf("properties.type = %q, expected MappingDataFlow", flowType),
		))
	}

	issues = append(issues, checkEndpoints(document, name, "sources")...)
	issues = append(issues, checkEndpoints(document, name, "sinks")...)
	issues = append(issues, checkTransformations(document, name)...)

	return issues
}

func checkEndpoints(document any, subject string, section string) []diagnostics.Issue {
	var issues []diagnostics.Issue

	entries := selectAll(document, fmt.Sprintf("$.properties.typeProperties.%s[*]", section))
	if len(entries) == 0 {
		issues = append(issues, diagnostics.Issue{
			Code:     diagnostics.CodeOutputInvalid,
			Stage:    diagnostics.StageEmit,
			Subject:  subject,
			Severity: diagnostics.SeverityWarning,
			Message:  fmt.Sprintf("dataflow defines no %s", section),
		})
		return issues
	}

	names := selectAll(document, fmt.Sprintf("$.properties.typeProperties.%s[*].name", section))
	if len(names) != len(entries) {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeOutputInvalid, subject,
			fmt.Sprintf("%d of %d %s entries have no name", len(entries)-len(names), len(entries), section),
		))
	}

	references := selectAll(document, fmt.Sprintf("$.properties.typeProperties.%s[*].dataset.referenceName", section))
	if len(references) != len(entries) {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeOutputInvalid, subject,
			fmt.Sprintf("%d of %d %s entries have no dataset reference", len(entries)-len(references), len(entries), section),
		))
	}

	return issues
}

func checkTransformations(document any, subject string) []diagnostics.Issue {
	var issues []diagnostics.Issue

	entries := selectAll(document, "$.properties.typeProperties.transformations[*]")
	names := selectAll(document, "$.properties.typeProperties.transformations[*].name")
	types := selectAll(document, "$.properties.typeProperties.transformations[*].type")

	if len(names) != len(entries) {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeOutputInvalid, subject,
			fmt.Sprintf("%d of %d transformations have no name", len(entries)-len(names), len(entries)),
		))
	}
	if len(types) != len(entries) {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeOutputInvalid, subject,
			fmt.Sprintf("%d of %d transformations have no type", len(entries)-len(types), len(entries)),
		))
	}

	return issues
}

func selectAll(document any, expression string) []any {
	path, err := jsonpath.Parse(expression)
	if err != nil {
		return nil
	}

	return path.Select(document)
}

func selectString(document any, expression string) (string, bool) {
	results := selectAll(document, expression)
	if len(results) == 0 {
		return "", false
	}

	value, ok := results[0].(string)
	return value, ok
}
