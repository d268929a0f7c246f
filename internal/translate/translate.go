// Package translate produces a target-side dataflow from a validated
// mapping graph. Each stage is dispatched through a flat kind→rule
// table and classified Translated, Partial, or Unsupported; defects
// accumulate as diagnostics and never abort the run.
package translate

import (
	"fmt"

	"github.com/pcmigrate/pc2adf/internal/adf"
	"github.com/pcmigrate/pc2adf/internal/diagnostics"
	"github.com/pcmigrate/pc2adf/internal/graph"
	"github.com/pcmigrate/pc2adf/internal/rewrite"
	"github.com/pcmigrate/pc2adf/internal/rules"
)

// Status is a stage's terminal translation state.
type Status string

const (
	StatusTranslated  Status = "translated"
	StatusPartial     Status = "partial"
	StatusUnsupported Status = "unsupported"
)

// StageStatus records one input stage's outcome. Every input stage
// appears exactly once in Result.Statuses.
type StageStatus struct {
	Name    string `json:"name"`
	RawKind string `json:"kind"`
	Status  Status `json:"status"`
}

// Result is the complete account of one translation run.
type Result struct {
	Flow     adf.DataFlow
	Statuses []StageStatus
	Issues   []diagnostics.Issue
}

// Engine translates mapping graphs using injected rule tables. Engines
// hold no per-run state; one engine may serve many runs, and runs with
// different tables are fully isolated.
type Engine struct {
	tables   rules.Tables
	rewriter *rewrite.Rewriter
	dispatch map[graph.Kind]ruleFunc
}

type outcome struct {
	status         Status
	transformation *adf.Transformation
	issues         []diagnostics.Issue
}

type ruleFunc func(*Engine, *graph.Stage) outcome

// New builds an engine around one rule set.
func New(tables rules.Tables) *Engine {
	return &Engine{
		tables:   tables,
		rewriter: rewrite.New(tables.Functions, tables.Operators),
		dispatch: map[graph.Kind]ruleFunc{
			graph.KindSourceQualifier: translateSourceQualifier,
			graph.KindExpression:      translateExpression,
			graph.KindFilter:          translateFilter,
			graph.KindAggregator:      translateAggregator,
			graph.KindJoiner:          translateJoiner,
			graph.KindSorter:          translateSorter,
			graph.KindRouter:          translateRouter,
			graph.KindLookup:          translateLookup,
			graph.KindUpdateStrategy:  translateUpdateStrategy,
		},
	}
}

// Translate converts the graph into a target dataflow plus one status
// entry per input stage and the accumulated diagnostics.
func (e *Engine) Translate(g *graph.MappingGraph) Result {
	result := Result{
		Flow: adf.DataFlow{Name: g.Name},
	}

	for _, source := range g.Sources() {
		schema, issues := e.mapSchema(source.Fields, source.Name)
		result.Issues = append(result.Issues, issues...)
		result.Flow.Sources = append(result.Flow.Sources, adf.Endpoint{
			Name:        source.Name,
			DatasetType: datasetType(source.StoreType),
			Table:       source.Attributes[graph.AttrTableName],
			Schema:      schema,
		})
	}

	for _, target := range g.Targets() {
		schema, issues := e.mapSchema(target.Fields, target.Name)
		result.Issues = append(result.Issues, issues...)
		result.Flow.Sinks = append(result.Flow.Sinks, adf.Endpoint{
			Name:        target.Name,
			DatasetType: datasetType(target.StoreType),
			Table:       target.Attributes[graph.AttrTableName],
			Schema:      schema,
		})
	}

	omitted := make(map[string]bool)

	stages := g.Stages()
	for index := range stages {
		stage := &stages[index]
		stageOutcome := e.translateStage(stage)

		result.Issues = append(result.Issues, stageOutcome.issues...)
		result.Statuses = append(result.Statuses, StageStatus{
			Name:    stage.Name,
			RawKind: stage.RawKind,
			Status:  stageOutcome.status,
		})

		if stageOutcome.transformation != nil {
			result.Flow.Transformations = append(result.Flow.Transformations, *stageOutcome.transformation)
		} else {
			omitted[stage.Name] = true
		}
	}

	streams, streamIssues := e.translateConnectors(g, &result.Flow, omitted)
	result.Flow.Streams = streams
	result.Issues = append(result.Issues, streamIssues...)

	return result
}

// translateStage runs the per-kind state machine: unregistered kinds
// terminate Unsupported and are omitted from the target graph.
func (e *Engine) translateStage(stage *graph.Stage) outcome {
	rule, registered := e.dispatch[stage.Kind]
	if !registered || stage.Kind == graph.KindUnsupported {
		return unsupportedOutcome(stage)
	}

	if _, known := e.tables.TargetKind(stage.RawKind); !known {
		return unsupportedOutcome(stage)
	}

	return rule(e, stage)
}

func unsupportedOutcome(stage *graph.Stage) outcome {
	return outcome{
		status: StatusUnsupported,
		issues: []diagnostics.Issue{diagnostics.New(
			diagnostics.CodeStageKindUnsupported,
			stage.Name,
			fmt.Sprintf("stage %q has unsupported kind %q and was omitted from the target graph", stage.Name, stage.RawKind),
		)},
	}
}

// translateConnectors is structural only: endpoints and field names
// pass through, field names re-validated against the upstream node's
// translated field set. Connectors touching an omitted stage are kept
// but flagged broken.
func (e *Engine) translateConnectors(g *graph.MappingGraph, flow *adf.DataFlow, omitted map[string]bool) ([]adf.Stream, []diagnostics.Issue) {
	var streams []adf.Stream
	var issues []diagnostics.Issue

	for _, connector := range g.Connectors() {
		stream := adf.Stream{
			From:   connector.From,
			To:     connector.To,
			Fields: connector.Fields,
		}

		if omitted[connector.From] || omitted[connector.To] {
			stream.Broken = true
			issues = append(issues, diagnostics.New(
				diagnostics.CodeBrokenConnector,
				connector.From,
				fmt.Sprintf("connector %s -> %s references an untranslated stage", connector.From, connector.To),
			))
			streams = append(streams, stream)
			continue
		}

		for _, field := range connector.Fields {
			if !upstreamHasField(g, flow, connector.From, field) {
				issues = append(issues, diagnostics.New(
					diagnostics.CodeFieldUnknown,
					connector.From,
					fmt.Sprintf("connector %s -> %s carries unknown field %q", connector.From, connector.To, field),
				))
			}
		}

		streams = append(streams, stream)
	}

	return streams, issues
}

func upstreamHasField(g *graph.MappingGraph, flow *adf.DataFlow, name string, field string) bool {
	if transformation, ok := flow.TransformationByName(name); ok {
		for _, column := range transformation.Schema {
			if column.Name == field {
				return true
			}
		}
		return false
	}

	node, ok := g.NodeByName(name)
	if !ok {
		// Unknown endpoints are the validator's finding, not a field defect.
		return true
	}

	for _, nodeField := range node.Fields() {
		if nodeField.Name == field {
			return true
		}
	}

	return false
}

// mapSchema maps field datatypes through the datatype table. Unmapped
// tags default to the target's most general string-like type.
func (e *Engine) mapSchema(fields []graph.Field, subject string) ([]adf.Column, []diagnostics.Issue) {
	columns := make([]adf.Column, 0, len(fields))
	var issues []diagnostics.Issue

	for _, field := range fields {
		mapped, ok := e.tables.DatatypeFor(field.Datatype, field.Precision, field.Scale)
		if !ok {
			mapped = e.tables.StringFallback()
			issues = append(issues, diagnostics.New(
				diagnostics.CodeDatatypeUnmapped,
				subject,
				fmt.Sprintf("datatype %q of field %q is unmapped, defaulting to %s", field.Datatype, field.Name, mapped),
			))
		}
		columns = append(columns, adf.Column{Name: field.Name, Type: mapped})
	}

	return columns, issues
}

// rewriteExpression rewrites one attribute value that is expression
// text, surfacing the rewriter's side conditions as diagnostics here at
// the call site.
func (e *Engine) rewriteExpression(expression string, subject string) (string, []diagnostics.Issue) {
	var issues []diagnostics.Issue

	if rewrite.UnterminatedLiteral(expression) {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeUnterminatedLiteral,
			subject,
			fmt.Sprintf("expression of %q has an unterminated string literal; text past it was left untouched", subject),
		))
	}

	for _, name := range e.rewriter.UnmappedFunctions(expression) {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeFunctionUnmapped,
			subject,
			fmt.Sprintf("function %q has no mapping and was left unrewritten in %q", name, subject),
		))
	}

	return e.rewriter.Rewrite(expression), issues
}

var datasetTypes = map[string]string{
	"Oracle":               "OracleTable",
	"Microsoft SQL Server": "AzureSqlTable",
	"Flat File":            "DelimitedText",
}

func datasetType(storeType string) string {
	if mapped, ok := datasetTypes[storeType]; ok {
		return mapped
	}

	return "AzureSqlTable"
}
