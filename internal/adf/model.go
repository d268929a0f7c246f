// Package adf models the target-side dataflow graph and renders it as
// Azure Data Factory artifacts. The model mirrors the source mapping
// graph's shape with translated attribute values.
package adf

// Column is a schema entry with a target-side type tag.
type Column struct {
	Name string
	Type string
}

// Endpoint is a dataflow source or sink backed by a dataset.
type Endpoint struct {
	Name        string
	DatasetType string
	Table       string
	Schema      []Column
}

// DerivedColumn is one computed column with a rewritten expression.
type DerivedColumn struct {
	Name       string
	Expression string
}

// JoinCondition is one explicit join-key pair. The target format
// requires an ordered pair list rather than one boolean expression.
type JoinCondition struct {
	Left  string
	Right string
	Op    string
}

// SortColumn is one ordered sort key.
type SortColumn struct {
	Name       string
	Descending bool
}

// SplitCondition is one conditional-split branch. The default branch
// receives rows matching no other condition.
type SplitCondition struct {
	Stream    string
	Condition string
	Default   bool
}

// Transformation is one translated stage. Type selects which of the
// kind-specific fields are meaningful.
type Transformation struct {
	Name            string
	Type            string
	Schema          []Column
	Columns         []DerivedColumn
	Condition       string
	GroupBy         []string
	Aggregates      []DerivedColumn
	JoinType        string
	JoinConditions  []JoinCondition
	SortColumns     []SortColumn
	SplitConditions []SplitCondition
	DefaultStream   string
	LookupDataset   string
	LookupCondition string
	RowPolicy       string
	Query           string
	Notes           []string
}

// Stream is a translated connector. Broken streams reference a stage
// that could not be translated; they are retained and flagged so the
// writer can report them instead of silently dropping the edge.
type Stream struct {
	From   string
	To     string
	Fields []string
	Broken bool
}

// DataFlow is the complete target-side graph for one mapping.
type DataFlow struct {
	Name            string
	Sources         []Endpoint
	Transformations []Transformation
	Sinks           []Endpoint
	Streams         []Stream
}

// TransformationByName resolves a translated stage, linear over the
// (small) transformation list.
func (f *DataFlow) TransformationByName(name string) (*Transformation, bool) {
	for index := range f.Transformations {
		if f.Transformations[index].Name == name {
			return &f.Transformations[index], true
		}
	}

	return nil, false
}
