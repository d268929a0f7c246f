// Package rules holds the injected lookup tables driving translation:
// stage-kind dispatch, function and operator substitution, and datatype
// mapping. Tables are data, not code; swapping them never changes engine
// behavior.
package rules

import (
	"strings"

	"github.com/pcmigrate/pc2adf/internal/rewrite"
)

// Tables is one immutable rule set. Engines and validators receive their
// own copy, so concurrent runs with different rule sets stay isolated.
type Tables struct {
	// Kinds maps a raw source kind string to the target kind tag.
	Kinds map[string]string
	// Functions maps source function names to target names, case-insensitively.
	Functions map[string]string
	// Operators is the ordered fixed-width operator substitution table.
	Operators []rewrite.Operator
	// Datatypes maps source datatype tags to target type tags.
	Datatypes map[string]string
}

// Default returns the built-in rule set.
func Default() Tables {
	return Tables{
		Kinds: map[string]string{
			"Source Qualifier": "source",
			"Expression":       "derive",
			"Filter":           "filter",
			"Aggregator":       "aggregate",
			"Joiner":           "join",
			"Sorter":           "sort",
			"Router":           "split",
			"Lookup":           "lookup",
			"Lookup Procedure": "lookup",
			"Update Strategy":  "alterRow",
		},
		Functions: map[string]string{
			"TO_DATE":           "toDate",
			"TO_CHAR":           "toString",
			"TO_INTEGER":        "toInteger",
			"TO_DECIMAL":        "toDecimal",
			"TO_FLOAT":          "toFloat",
			"SYSDATE":           "currentTimestamp()",
			"CURRENT_TIMESTAMP": "currentTimestamp",
			"CURRENT_DATE":      "currentDate",
			"LAST_DAY":          "lastDayOfMonth",
			"SUBSTR":            "substring",
			"INSTR":             "indexOf",
			"REPLACE":           "replace",
			"REPLACE_CHAR":      "replace",
			"CONCAT":            "concat",
			"TRIM":              "trim",
			"LTRIM":             "ltrim",
			"RTRIM":             "rtrim",
			"UPPER":             "upper",
			"LOWER":             "lower",
			"LENGTH":            "length",
			"LPAD":              "lpad",
			"RPAD":              "rpad",
			"IIF":               "iif",
			"DECODE":            "case",
			"ISNULL":            "isNull",
			"IS_NULL":           "isNull",
			"NVL":               "coalesce",
			"COALESCE":          "coalesce",
			"ROUND":             "round",
			"CEIL":              "ceil",
			"FLOOR":             "floor",
			"ABS":               "abs",
			"POWER":             "power",
			"SQRT":              "sqrt",
			"SUM":               "sum",
			"AVG":               "avg",
			"COUNT":             "count",
			"MIN":               "min",
			"MAX":               "max",
			"FIRST":             "first",
			"LAST":              "last",
		},
		Operators: []rewrite.Operator{
			{From: "||", To: "+"},
			{From: "!=", To: "<>"},
		},
		Datatypes: map[string]string{
			"string":        "String",
			"nstring":       "String",
			"text":          "String",
			"char":          "String",
			"nchar":         "String",
			"varchar":       "String",
			"varchar2":      "String",
			"nvarchar2":     "String",
			"integer":       "Int32",
			"int":           "Int32",
			"smallint":      "Int32",
			"small integer": "Int32",
			"bigint":        "Int64",
			"double":        "Double",
			"float":         "Double",
			"real":          "Double",
			"date":          "DateTime",
			"datetime":      "DateTime",
			"date/time":     "DateTime",
			"timestamp":     "DateTime",
			"binary":        "Binary",
			"raw":           "Binary",
			"boolean":       "Boolean",
			"bit":           "Boolean",
		},
	}
}

// TargetKind resolves the target kind tag for a raw source kind string.
func (t Tables) TargetKind(rawKind string) (string, bool) {
	rawKind = strings.ToLower(strings.TrimSpace(rawKind))
	for source, target := range t.Kinds {
		if strings.ToLower(source) == rawKind {
			return target, true
		}
	}

	return "", false
}

// decimalFamily are the numeric tags whose target type depends on
// precision and scale rather than a flat table entry.
var decimalFamily = map[string]struct{}{
	"decimal": {},
	"number":  {},
	"numeric": {},
}

// DatatypeFor maps a source datatype tag, branching on precision/scale
// for the decimal family. The second return is false when the tag is
// unmapped and the caller should fall back to StringFallback.
func (t Tables) DatatypeFor(raw string, precision int, scale int) (string, bool) {
	tag := strings.ToLower(strings.TrimSpace(raw))

	if _, ok := decimalFamily[tag]; ok {
		switch {
		case scale > 0:
			return "Decimal", true
		case precision > 0 && precision <= 9:
			return "Int32", true
		case precision > 0 && precision <= 18:
			return "Int64", true
		default:
			return "Decimal", true
		}
	}

	if target, ok := t.Datatypes[tag]; ok {
		return target, true
	}

	return "", false
}

// StringFallback is the target's most general string-like type, used for
// unmapped datatypes.
func (t Tables) StringFallback() string {
	return "String"
}
