package adf

import (
	"fmt"
	"strings"
)

// Script renders the translated graph as ADF data flow script text:
// one block per node, inputs before the transformation call, output
// stream name after "~>". Broken streams are skipped; they carry no
// translated upstream.
func Script(flow DataFlow) string {
	inputs := make(map[string][]string)
	for _, stream := range flow.Streams {
		if stream.Broken {
			continue
		}
		inputs[stream.To] = append(inputs[stream.To], stream.From)
	}

	var lines []string

	for _, source := range flow.Sources {
		lines = append(lines, sourceScript(source)...)
	}

	for _, transformation := range flow.Transformations {
		lines = append(lines, transformationScript(transformation, inputs[transformation.Name])...)
	}

	for _, sink := range flow.Sinks {
		lines = append(lines, sinkScript(sink, inputs[sink.Name])...)
	}

	return strings.Join(lines, "\n") + "\n"
}

func sourceScript(source Endpoint) []string {
	lines := []string{"source(output("}
	for index, column := range source.Schema {
		separator := ","
		if index == len(source.Schema)-1 {
			separator = ""
		}
		lines = append(lines, fmt.Sprintf("\t\t%s as %s%s", column.Name, scriptType(column.Type), separator))
	}
	lines = append(lines,
		"\t),",
		"\tallowSchemaDrift: true,",
		fmt.Sprintf("\tvalidateSchema: false) ~> %s", source.Name),
	)

	return lines
}

func sinkScript(sink Endpoint, inputs []string) []string {
	return []string{
		fmt.Sprintf("%s sink(allowSchemaDrift: true,", inputList(inputs)),
		fmt.Sprintf("\tvalidateSchema: false) ~> %s", sink.Name),
	}
}

func transformationScript(t Transformation, inputs []string) []string {
	prefix := inputList(inputs)

	switch t.Type {
	case "derive":
		return assignmentScript(prefix, "derive", t.Columns, t.Name)
	case "filter":
		return []string{fmt.Sprintf("%s filter(%s) ~> %s", prefix, t.Condition, t.Name)}
	case "aggregate":
		return aggregateScript(prefix, t)
	case "join":
		return joinScript(prefix, t)
	case "sort":
		return sortScript(prefix, t)
	case "split":
		return splitScript(prefix, t)
	case "lookup":
		return []string{fmt.Sprintf("%s lookup(%s, broadcast: 'auto') ~> %s", prefix, t.LookupCondition, t.Name)}
	case "alterRow":
		return []string{fmt.Sprintf("%s alterRow(%s) ~> %s", prefix, t.RowPolicy, t.Name)}
	default:
		return []string{fmt.Sprintf("%s select() ~> %s", prefix, t.Name)}
	}
}

func assignmentScript(prefix string, verb string, columns []DerivedColumn, name string) []string {
	lines := []string{fmt.Sprintf("%s %s(", prefix, verb)}
	for index, column := range columns {
		separator := ","
		if index == len(columns)-1 {
			separator = ""
		}
		lines = append(lines, fmt.Sprintf("\t\t%s = %s%s", column.Name, column.Expression, separator))
	}
	lines = append(lines, fmt.Sprintf("\t) ~> %s", name))

	return lines
}

func aggregateScript(prefix string, t Transformation) []string {
	var lines []string
	if len(t.GroupBy) > 0 {
		lines = append(lines, fmt.Sprintf("%s aggregate(groupBy(%s),", prefix, strings.Join(t.GroupBy, ", ")))
	} else {
		lines = append(lines, fmt.Sprintf("%s aggregate(", prefix))
	}

	for index, aggregate := range t.Aggregates {
		separator := ","
		if index == len(t.Aggregates)-1 {
			separator = fmt.Sprintf(") ~> %s", t.Name)
		}
		lines = append(lines, fmt.Sprintf("\t%s = %s%s", aggregate.Name, aggregate.Expression, separator))
	}
	if len(t.Aggregates) == 0 {
		lines = append(lines, fmt.Sprintf("\t) ~> %s", t.Name))
	}

	return lines
}

func joinScript(prefix string, t Transformation) []string {
	var lines []string
	for index, condition := range t.JoinConditions {
		pair := fmt.Sprintf("%s %s %s", condition.Left, condition.Op, condition.Right)
		switch index {
		case 0:
			lines = append(lines, fmt.Sprintf("%s join(%s,", prefix, pair))
		default:
			lines = append(lines, fmt.Sprintf("\t%s,", pair))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, fmt.Sprintf("%s join(", prefix))
	}

	lines = append(lines,
		fmt.Sprintf("\tjoinType: '%s',", t.JoinType),
		fmt.Sprintf("\tbroadcast: 'auto') ~> %s", t.Name),
	)

	return lines
}

func sortScript(prefix string, t Transformation) []string {
	keys := make([]string, 0, len(t.SortColumns))
	for _, column := range t.SortColumns {
		if column.Descending {
			keys = append(keys, "desc("+column.Name+", true)")
			continue
		}
		keys = append(keys, "asc("+column.Name+", true)")
	}

	return []string{fmt.Sprintf("%s sort(%s) ~> %s", prefix, strings.Join(keys, ", "), t.Name)}
}

func splitScript(prefix string, t Transformation) []string {
	var conditions []string
	var streams []string
	for _, split := range t.SplitConditions {
		if split.Default {
			streams = append(streams, split.Stream)
			continue
		}
		conditions = append(conditions, split.Condition)
		streams = append(streams, split.Stream)
	}

	lines := []string{fmt.Sprintf("%s split(%s,", prefix, strings.Join(conditions, ",\n\t"))}
	lines = append(lines, fmt.Sprintf("\tdisjoint: false) ~> %s@(%s)", t.Name, strings.Join(streams, ", ")))

	return lines
}

func inputList(inputs []string) string {
	return strings.Join(inputs, ", ")
}

var scriptTypes = map[string]string{
	"String":   "string",
	"Int32":    "integer",
	"Int64":    "long",
	"Double":   "double",
	"Decimal":  "decimal",
	"DateTime": "timestamp",
	"Binary":   "binary",
	"Boolean":  "boolean",
}

func scriptType(datasetType string) string {
	if mapped, ok := scriptTypes[datasetType]; ok {
		return mapped
	}

	return "string"
}
