// Package pcxml reads PowerCenter workbook XML exports into the mapping
// graph model. Elements are collected wherever they appear in the
// document since repository exports nest folders arbitrarily.
package pcxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pcmigrate/pc2adf/internal/graph"
)

// ErrSyntax marks a malformed workbook document.
var ErrSyntax = errors.New("invalid workbook XML")

// ErrNoMapping marks a document that carries no MAPPING element.
var ErrNoMapping = errors.New("no mapping in workbook")

type xmlField struct {
	Name       string `xml:"NAME,attr"`
	Datatype   string `xml:"DATATYPE,attr"`
	Precision  string `xml:"PRECISION,attr"`
	Scale      string `xml:"SCALE,attr"`
	Expression string `xml:"EXPRESSION,attr"`
	PortType   string `xml:"PORTTYPE,attr"`
	GroupBy    string `xml:"GROUPBY,attr"`
	SortKey    string `xml:"SORTKEY,attr"`
	SortOrder  string `xml:"SORTORDER,attr"`
}

type xmlTableAttribute struct {
	Name  string `xml:"NAME,attr"`
	Value string `xml:"VALUE,attr"`
}

type xmlGroup struct {
	Name       string `xml:"NAME,attr"`
	Type       string `xml:"TYPE,attr"`
	Expression string `xml:"EXPRESSION,attr"`
}

type xmlSource struct {
	Name         string              `xml:"NAME,attr"`
	DatabaseType string              `xml:"DATABASETYPE,attr"`
	TableName    string              `xml:"TABLENAME,attr"`
	Fields       []xmlField          `xml:"TRANSFORMFIELD"`
	SourceFields []xmlField          `xml:"SOURCEFIELD"`
	Attributes   []xmlTableAttribute `xml:"TABLEATTRIBUTE"`
}

type xmlTarget struct {
	Name         string              `xml:"NAME,attr"`
	DatabaseType string              `xml:"DATABASETYPE,attr"`
	TableName    string              `xml:"TABLENAME,attr"`
	Fields       []xmlField          `xml:"TRANSFORMFIELD"`
	TargetFields []xmlField          `xml:"TARGETFIELD"`
	Attributes   []xmlTableAttribute `xml:"TABLEATTRIBUTE"`
}

type xmlTransformation struct {
	Name            string              `xml:"NAME,attr"`
	Type            string              `xml:"TYPE,attr"`
	JoinType        string              `xml:"JOINTYPE,attr"`
	JoinCondition   string              `xml:"JOINCONDITION,attr"`
	FilterCondition string              `xml:"FILTERCONDITION,attr"`
	Fields          []xmlField          `xml:"TRANSFORMFIELD"`
	Attributes      []xmlTableAttribute `xml:"TABLEATTRIBUTE"`
	Groups          []xmlGroup          `xml:"GROUP"`
}

type xmlFieldMap struct {
	FromField string `xml:"FROMFIELD,attr"`
	ToField   string `xml:"TOFIELD,attr"`
}

type xmlConnector struct {
	FromInstance string        `xml:"FROMINSTANCE,attr"`
	ToInstance   string        `xml:"TOINSTANCE,attr"`
	FromField    string        `xml:"FROMFIELD,attr"`
	FieldMaps    []xmlFieldMap `xml:"FIELDMAP"`
}

// Read parses one workbook export into a mapping graph.
func Read(r io.Reader) (*graph.MappingGraph, error) {
	decoder := xml.NewDecoder(r)

	var mappingName string
	var version string
	var sources []xmlSource
	var targets []xmlTarget
	var transformations []xmlTransformation
	var connectors []xmlConnector

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "POWERMART":
			version = attrValue(start, "REPOSITORY_VERSION")
		case "MAPPING":
			// Only the name is taken here; the mapping's children keep
			// flowing through the same token scan.
			if mappingName == "" {
				mappingName = attrValue(start, "NAME")
			}
		case "SOURCE":
			var element xmlSource
			if err := decoder.DecodeElement(&element, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			sources = append(sources, element)
		case "TARGET":
			var element xmlTarget
			if err := decoder.DecodeElement(&element, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			targets = append(targets, element)
		case "TRANSFORMATION":
			var element xmlTransformation
			if err := decoder.DecodeElement(&element, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			transformations = append(transformations, element)
		case "CONNECTOR":
			var element xmlConnector
			if err := decoder.DecodeElement(&element, &start); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
			}
			connectors = append(connectors, element)
		}
	}

	if mappingName == "" {
		return nil, ErrNoMapping
	}

	return assemble(mappingName, version, sources, targets, transformations, connectors)
}

func attrValue(start xml.StartElement, name string) string {
	for _, attr := range start.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}

	return ""
}

func toFields(fields []xmlField) []graph.Field {
	out := make([]graph.Field, 0, len(fields))
	for _, raw := range fields {
		field := graph.NewField(raw.Name, raw.Datatype)
		field.Precision = parseInt(raw.Precision)
		field.Scale = parseInt(raw.Scale)
		field.Expression = strings.TrimSpace(raw.Expression)
		field.GroupBy = strings.EqualFold(raw.GroupBy, "YES")
		field.SortKey = strings.EqualFold(raw.SortKey, "YES")
		if strings.HasPrefix(strings.ToUpper(raw.SortOrder), "DESC") {
			field.SortOrder = graph.SortDescending
		} else {
			field.SortOrder = graph.SortAscending
		}
		out = append(out, field)
	}

	return out
}

func parseInt(s string) int {
	value, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}

	return value
}
