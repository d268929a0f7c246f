package rules

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/pcmigrate/pc2adf/internal/rewrite"
)

// ErrDecode indicates rule-table YAML decoding failures.
var ErrDecode = fmt.Errorf("rule table decode error")

type fileTables struct {
	Kinds     map[string]string `yaml:"kinds"`
	Functions map[string]string `yaml:"functions"`
	Operators []fileOperator    `yaml:"operators"`
	Datatypes map[string]string `yaml:"datatypes"`
}

type fileOperator struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Load reads rule-table YAML and overlays it onto the defaults: map
// entries add or replace, a non-empty operator list replaces wholesale
// since operator order is significant.
func Load(r io.Reader) (Tables, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return Tables{}, fmt.Errorf("read rule tables: %w", err)
	}

	var file fileTables
	if err := yaml.Unmarshal(payload, &file); err != nil {
		return Tables{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	tables := Default()

	for source, target := range file.Kinds {
		tables.Kinds[source] = target
	}
	for source, target := range file.Functions {
		tables.Functions[source] = target
	}
	for source, target := range file.Datatypes {
		tables.Datatypes[source] = target
	}

	if len(file.Operators) > 0 {
		tables.Operators = tables.Operators[:0]
		for _, operator := range file.Operators {
			if operator.From == "" {
				return Tables{}, fmt.Errorf("%w: operator entry missing 'from'", ErrDecode)
			}
			tables.Operators = append(tables.Operators, operatorRule(operator))
		}
	}

	return tables, nil
}

func operatorRule(operator fileOperator) rewrite.Operator {
	return rewrite.Operator{From: operator.From, To: operator.To}
}
