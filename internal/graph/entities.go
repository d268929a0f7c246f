package graph

import "strings"

// Family is the closed semantic datatype enumeration.
type Family string

const (
	FamilyString  Family = "string"
	FamilyNumber  Family = "number"
	FamilyDate    Family = "date"
	FamilyBinary  Family = "binary"
	FamilyBoolean Family = "boolean"
	FamilyUnknown Family = "unknown"
)

var families = map[string]Family{
	"string":        FamilyString,
	"nstring":       FamilyString,
	"text":          FamilyString,
	"char":          FamilyString,
	"nchar":         FamilyString,
	"varchar":       FamilyString,
	"varchar2":      FamilyString,
	"nvarchar2":     FamilyString,
	"number":        FamilyNumber,
	"numeric":       FamilyNumber,
	"decimal":       FamilyNumber,
	"integer":       FamilyNumber,
	"int":           FamilyNumber,
	"bigint":        FamilyNumber,
	"small integer": FamilyNumber,
	"smallint":      FamilyNumber,
	"double":        FamilyNumber,
	"float":         FamilyNumber,
	"real":          FamilyNumber,
	"date":          FamilyDate,
	"datetime":      FamilyDate,
	"date/time":     FamilyDate,
	"timestamp":     FamilyDate,
	"binary":        FamilyBinary,
	"raw":           FamilyBinary,
	"boolean":       FamilyBoolean,
	"bit":           FamilyBoolean,
}

// FamilyFromRaw classifies a raw datatype tag, case-insensitively.
func FamilyFromRaw(raw string) Family {
	if family, ok := families[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return family
	}

	return FamilyUnknown
}

// SortOrder is a sort key direction.
type SortOrder string

const (
	SortAscending  SortOrder = "ascending"
	SortDescending SortOrder = "descending"
)

// Field is one named port of a source, target, or stage.
type Field struct {
	Name       string
	Datatype   string
	Family     Family
	Precision  int
	Scale      int
	Expression string
	GroupBy    bool
	SortKey    bool
	SortOrder  SortOrder
}

// NewField resolves the datatype family once at construction.
func NewField(name string, datatype string) Field {
	return Field{
		Name:     name,
		Datatype: datatype,
		Family:   FamilyFromRaw(datatype),
	}
}

// Kind is the resolved stage kind tag.
type Kind string

const (
	KindSourceQualifier Kind = "SourceQualifier"
	KindExpression      Kind = "Expression"
	KindFilter          Kind = "Filter"
	KindAggregator      Kind = "Aggregator"
	KindJoiner          Kind = "Joiner"
	KindSorter          Kind = "Sorter"
	KindRouter          Kind = "Router"
	KindLookup          Kind = "Lookup"
	KindUpdateStrategy  Kind = "UpdateStrategy"
	KindUnsupported     Kind = "Unsupported"
)

var kinds = map[string]Kind{
	"source qualifier": KindSourceQualifier,
	"expression":       KindExpression,
	"filter":           KindFilter,
	"aggregator":       KindAggregator,
	"joiner":           KindJoiner,
	"sorter":           KindSorter,
	"router":           KindRouter,
	"lookup":           KindLookup,
	"lookup procedure": KindLookup,
	"update strategy":  KindUpdateStrategy,
}

// KindFromRaw resolves a raw source kind string; unknown kinds map to
// KindUnsupported, with the raw string retained on the stage.
func KindFromRaw(raw string) Kind {
	if kind, ok := kinds[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return kind
	}

	return KindUnsupported
}

// Normalized stage attribute keys. Readers are responsible for mapping
// the serialized format's attribute names onto these.
const (
	AttrJoinCondition   = "join_condition"
	AttrJoinType        = "join_type"
	AttrFilterCondition = "filter_condition"
	AttrSortedInput     = "sorted_input"
	AttrLookupTable     = "lookup_table"
	AttrLookupCondition = "lookup_condition"
	AttrSQLOverride     = "sql_override"
	AttrSourceType      = "source_type"
	AttrCachePolicy     = "cache_policy"
	AttrFlatFile        = "flat_file"
	AttrUpdateStrategy  = "update_strategy_expression"
	AttrQuery           = "source_query"
	AttrSourceFilter    = "source_filter"
	AttrDelimiter       = "delimiter"
	AttrTableName       = "table_name"
)

// Group is one router output group.
type Group struct {
	Name      string
	Condition string
	Default   bool
}

// Stage is a single transformation node.
type Stage struct {
	Name       string
	Kind       Kind
	RawKind    string
	Fields     []Field
	Attributes map[string]string
	Groups     []Group
}

// NewStage resolves the kind exactly once from the raw kind string.
func NewStage(name string, rawKind string) Stage {
	return Stage{
		Name:       name,
		Kind:       KindFromRaw(rawKind),
		RawKind:    rawKind,
		Attributes: make(map[string]string),
	}
}

// Attribute returns a trimmed attribute value, empty when absent.
func (s *Stage) Attribute(key string) string {
	return strings.TrimSpace(s.Attributes[key])
}

// Source is a backing data source feeding the graph.
type Source struct {
	Name       string
	StoreType  string
	Fields     []Field
	Attributes map[string]string
}

// Target is a backing data sink terminating the graph.
type Target struct {
	Name       string
	StoreType  string
	Fields     []Field
	Attributes map[string]string
}

// Connector is a directed edge carrying named fields between two nodes.
type Connector struct {
	From   string
	To     string
	Fields []string
}
