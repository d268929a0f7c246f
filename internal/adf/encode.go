package adf

import (
	"encoding/json"
	"fmt"
)

type columnJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type datasetJSON struct {
	ReferenceName string `json:"referenceName"`
	Type          string `json:"type"`
}

type endpointJSON struct {
	Name    string       `json:"name"`
	Type    string       `json:"type"`
	Dataset datasetJSON  `json:"dataset"`
	Table   string       `json:"table,omitempty"`
	Schema  []columnJSON `json:"schema,omitempty"`
}

type expressionJSON struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type derivedColumnJSON struct {
	Name       string         `json:"name"`
	Expression expressionJSON `json:"expression"`
}

type joinConditionJSON struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Op    string `json:"op"`
}

type sortColumnJSON struct {
	Name  string `json:"name"`
	Order string `json:"order"`
}

type splitConditionJSON struct {
	Stream    string          `json:"stream"`
	Condition *expressionJSON `json:"condition,omitempty"`
	Default   bool            `json:"default,omitempty"`
}

type transformationJSON struct {
	Name            string               `json:"name"`
	Type            string               `json:"type"`
	Schema          []columnJSON         `json:"schema,omitempty"`
	Columns         []derivedColumnJSON  `json:"columns,omitempty"`
	Condition       *expressionJSON      `json:"condition,omitempty"`
	GroupBy         []string             `json:"groupBy,omitempty"`
	Aggregates      []derivedColumnJSON  `json:"aggregates,omitempty"`
	JoinType        string               `json:"joinType,omitempty"`
	JoinConditions  []joinConditionJSON  `json:"joinConditions,omitempty"`
	SortColumns     []sortColumnJSON     `json:"sortColumns,omitempty"`
	SplitConditions []splitConditionJSON `json:"conditions,omitempty"`
	DefaultStream   string               `json:"defaultStream,omitempty"`
	LookupDataset   string               `json:"lookupDataset,omitempty"`
	LookupCondition string               `json:"lookupCondition,omitempty"`
	RowPolicy       string               `json:"rowPolicy,omitempty"`
	Query           string               `json:"query,omitempty"`
	Notes           []string             `json:"notes,omitempty"`
}

type streamJSON struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Fields []string `json:"fields,omitempty"`
	Broken bool     `json:"broken,omitempty"`
}

type dataFlowPropertiesJSON struct {
	Type           string                `json:"type"`
	TypeProperties dataFlowTypePropsJSON `json:"typeProperties"`
	Annotations    []string              `json:"annotations,omitempty"`
}

type dataFlowTypePropsJSON struct {
	Sources         []endpointJSON       `json:"sources"`
	Transformations []transformationJSON `json:"transformations"`
	Sinks           []endpointJSON       `json:"sinks"`
	Streams         []streamJSON         `json:"streams,omitempty"`
}

type dataFlowJSON struct {
	Name       string                 `json:"name"`
	Properties dataFlowPropertiesJSON `json:"properties"`
}

// EncodeDataFlow renders the translated graph as an ADF mapping
// dataflow JSON document.
func EncodeDataFlow(flow DataFlow) ([]byte, error) {
	document := dataFlowJSON{
		Name: "dataflow_" + flow.Name,
		Properties: dataFlowPropertiesJSON{
			Type: "MappingDataFlow",
			TypeProperties: dataFlowTypePropsJSON{
				Sources:         mapEndpoints(flow.Sources, "source"),
				Transformations: mapTransformations(flow.Transformations),
				Sinks:           mapEndpoints(flow.Sinks, "sink"),
				Streams:         mapStreams(flow.Streams),
			},
			Annotations: []string{"Migrated from PowerCenter"},
		},
	}

	payload, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode dataflow: %w", err)
	}

	return payload, nil
}

type activityPolicyJSON struct {
	Timeout                string `json:"timeout"`
	Retry                  int    `json:"retry"`
	RetryIntervalInSeconds int    `json:"retryIntervalInSeconds"`
}

type activityJSON struct {
	Name           string                 `json:"name"`
	Type           string                 `json:"type"`
	DependsOn      []string               `json:"dependsOn"`
	Policy         activityPolicyJSON     `json:"policy"`
	TypeProperties map[string]interface{} `json:"typeProperties"`
}

type pipelinePropertiesJSON struct {
	Activities  []activityJSON `json:"activities"`
	Annotations []string       `json:"annotations,omitempty"`
}

type pipelineJSON struct {
	Name       string                 `json:"name"`
	Properties pipelinePropertiesJSON `json:"properties"`
}

// EncodePipeline renders the wrapping pipeline that executes the
// dataflow.
func EncodePipeline(flow DataFlow) ([]byte, error) {
	document := pipelineJSON{
		Name: "pipeline_" + flow.Name,
		Properties: pipelinePropertiesJSON{
			Activities: []activityJSON{{
				Name:      "ExecuteDataFlow",
				Type:      "ExecuteDataFlow",
				DependsOn: []string{},
				Policy: activityPolicyJSON{
					Timeout:                "1.00:00:00",
					Retry:                  0,
					RetryIntervalInSeconds: 30,
				},
				TypeProperties: map[string]interface{}{
					"dataFlow": map[string]interface{}{
						"referenceName": "dataflow_" + flow.Name,
						"type":          "DataFlowReference",
					},
					"compute": map[string]interface{}{
						"coreCount":   8,
						"computeType": "General",
					},
				},
			}},
			Annotations: []string{"Migrated from PowerCenter"},
		},
	}

	payload, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode pipeline: %w", err)
	}

	return payload, nil
}

func mapEndpoints(endpoints []Endpoint, kind string) []endpointJSON {
	out := make([]endpointJSON, 0, len(endpoints))
	for _, endpoint := range endpoints {
		out = append(out, endpointJSON{
			Name: endpoint.Name,
			Type: kind,
			Dataset: datasetJSON{
				ReferenceName: "ds_" + endpoint.Name,
				Type:          "DatasetReference",
			},
			Table:  endpoint.Table,
			Schema: mapColumns(endpoint.Schema),
		})
	}

	return out
}

func mapColumns(columns []Column) []columnJSON {
	out := make([]columnJSON, 0, len(columns))
	for _, column := range columns {
		out = append(out, columnJSON(column))
	}

	return out
}

func mapTransformations(transformations []Transformation) []transformationJSON {
	out := make([]transformationJSON, 0, len(transformations))
	for _, transformation := range transformations {
		out = append(out, mapTransformation(transformation))
	}

	return out
}

func mapTransformation(t Transformation) transformationJSON {
	mapped := transformationJSON{
		Name:            t.Name,
		Type:            t.Type,
		Schema:          mapColumns(t.Schema),
		Columns:         mapDerivedColumns(t.Columns),
		GroupBy:         t.GroupBy,
		Aggregates:      mapDerivedColumns(t.Aggregates),
		JoinType:        t.JoinType,
		DefaultStream:   t.DefaultStream,
		LookupDataset:   t.LookupDataset,
		LookupCondition: t.LookupCondition,
		RowPolicy:       t.RowPolicy,
		Query:           t.Query,
		Notes:           t.Notes,
	}

	if t.Condition != "" {
		mapped.Condition = &expressionJSON{Value: t.Condition, Type: "Expression"}
	}

	for _, condition := range t.JoinConditions {
		mapped.JoinConditions = append(mapped.JoinConditions, joinConditionJSON(condition))
	}

	for _, column := range t.SortColumns {
		order := "asc"
		if column.Descending {
			order = "desc"
		}
		mapped.SortColumns = append(mapped.SortColumns, sortColumnJSON{Name: column.Name, Order: order})
	}

	for _, split := range t.SplitConditions {
		entry := splitConditionJSON{Stream: split.Stream, Default: split.Default}
		if split.Condition != "" {
			entry.Condition = &expressionJSON{Value: split.Condition, Type: "Expression"}
		}
		mapped.SplitConditions = append(mapped.SplitConditions, entry)
	}

	return mapped
}

func mapDerivedColumns(columns []DerivedColumn) []derivedColumnJSON {
	out := make([]derivedColumnJSON, 0, len(columns))
	for _, column := range columns {
		out = append(out, derivedColumnJSON{
			Name:       column.Name,
			Expression: expressionJSON{Value: column.Expression, Type: "Expression"},
		})
	}

	return out
}

func mapStreams(streams []Stream) []streamJSON {
	out := make([]streamJSON, 0, len(streams))
	for _, stream := range streams {
		out = append(out, streamJSON(stream))
	}

	return out
}
