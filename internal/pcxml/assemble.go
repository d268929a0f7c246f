package pcxml

import (
	"strings"

	"github.com/pcmigrate/pc2adf/internal/graph"
)

// attribute aliases: the export spells configuration as display names;
// the graph model wants stable snake_case keys.
var attributeAliases = map[string]string{
	"sql_query":               graph.AttrQuery,
	"lookup_table_name":       graph.AttrLookupTable,
	"lookup_sql_override":     graph.AttrSQLOverride,
	"lookup_source_type":      graph.AttrSourceType,
	"lookup_caching_enabled":  graph.AttrCachePolicy,
	"lookup_cache_policy":     graph.AttrCachePolicy,
	"lookup_source_file_name": graph.AttrFlatFile,
	"lookup_source_filename":  graph.AttrFlatFile,
	"update_strategy":         graph.AttrUpdateStrategy,
}

// normalizeAttributeName lowercases and underscores a display name,
// then resolves known aliases onto the graph model's keys.
func normalizeAttributeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.Join(strings.Fields(normalized), "_")

	if alias, ok := attributeAliases[normalized]; ok {
		return alias
	}

	return normalized
}

func assemble(
	name string,
	version string,
	sources []xmlSource,
	targets []xmlTarget,
	transformations []xmlTransformation,
	connectors []xmlConnector,
) (*graph.MappingGraph, error) {
	if version == "" {
		version = "10.x"
	}

	graphSources := make([]graph.Source, 0, len(sources))
	for _, raw := range sources {
		source := graph.Source{
			Name:       raw.Name,
			StoreType:  raw.DatabaseType,
			Fields:     toFields(pick(raw.Fields, raw.SourceFields)),
			Attributes: toAttributes(raw.Attributes),
		}
		if raw.TableName != "" {
			source.Attributes[graph.AttrTableName] = raw.TableName
		}
		graphSources = append(graphSources, source)
	}

	graphTargets := make([]graph.Target, 0, len(targets))
	for _, raw := range targets {
		target := graph.Target{
			Name:       raw.Name,
			StoreType:  raw.DatabaseType,
			Fields:     toFields(pick(raw.Fields, raw.TargetFields)),
			Attributes: toAttributes(raw.Attributes),
		}
		if raw.TableName != "" {
			target.Attributes[graph.AttrTableName] = raw.TableName
		}
		graphTargets = append(graphTargets, target)
	}

	graphStages := make([]graph.Stage, 0, len(transformations))
	for _, raw := range transformations {
		stage := graph.NewStage(raw.Name, raw.Type)
		stage.Fields = toFields(raw.Fields)

		for _, attribute := range raw.Attributes {
			stage.Attributes[normalizeAttributeName(attribute.Name)] = attribute.Value
		}

		// Inline element attributes win over table attributes of the
		// same name; newer exports carry both.
		if raw.JoinType != "" {
			stage.Attributes[graph.AttrJoinType] = raw.JoinType
		}
		if raw.JoinCondition != "" {
			stage.Attributes[graph.AttrJoinCondition] = raw.JoinCondition
		}
		if raw.FilterCondition != "" {
			stage.Attributes[graph.AttrFilterCondition] = raw.FilterCondition
		}

		for _, group := range raw.Groups {
			stage.Groups = append(stage.Groups, graph.Group{
				Name:      group.Name,
				Condition: group.Expression,
				Default:   strings.Contains(strings.ToUpper(group.Type), "DEFAULT"),
			})
		}

		graphStages = append(graphStages, stage)
	}

	return graph.New(name, version, graphSources, graphTargets, graphStages, mergeConnectors(connectors))
}

func pick(primary []xmlField, fallback []xmlField) []xmlField {
	if len(primary) > 0 {
		return primary
	}

	return fallback
}

func toAttributes(attributes []xmlTableAttribute) map[string]string {
	out := make(map[string]string, len(attributes))
	for _, attribute := range attributes {
		out[normalizeAttributeName(attribute.Name)] = attribute.Value
	}

	return out
}

// mergeConnectors collapses the export's one-edge-per-field connectors
// into one edge per (from, to) pair, fields unioned in document order.
func mergeConnectors(connectors []xmlConnector) []graph.Connector {
	type key struct {
		from string
		to   string
	}

	index := make(map[key]int)
	var merged []graph.Connector

	for _, raw := range connectors {
		k := key{from: raw.FromInstance, to: raw.ToInstance}
		position, ok := index[k]
		if !ok {
			position = len(merged)
			index[k] = position
			merged = append(merged, graph.Connector{From: raw.FromInstance, To: raw.ToInstance})
		}

		if raw.FromField != "" {
			merged[position].Fields = appendUnique(merged[position].Fields, raw.FromField)
		}
		for _, fieldMap := range raw.FieldMaps {
			if fieldMap.FromField != "" {
				merged[position].Fields = appendUnique(merged[position].Fields, fieldMap.FromField)
			}
		}
	}

	return merged
}

func appendUnique(fields []string, field string) []string {
	for _, existing := range fields {
		if existing == field {
			return fields
		}
	}

	return append(fields, field)
}
