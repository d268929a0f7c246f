package graph

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	_, err := New("m", "10.x",
		[]Source{{Name: "S"}, {Name: "S"}},
		nil, nil, nil,
	)
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}

	var structural *StructureError
	if !errors.As(err, &structural) {
		t.Fatalf("err = %T, want *StructureError", err)
	}
	if structural.Class != "source" || structural.Name != "S" {
		t.Fatalf("structural = %+v", structural)
	}
}

func TestNewAllowsSameNameAcrossClasses(t *testing.T) {
	t.Parallel()

	g, err := New("m", "10.x",
		[]Source{{Name: "CUSTOMERS"}},
		[]Target{{Name: "CUSTOMERS"}},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	node, ok := g.NodeByName("CUSTOMERS")
	if !ok {
		t.Fatal("NodeByName failed")
	}
	// Sources shadow targets on endpoint resolution.
	if node.Type != NodeSource {
		t.Fatalf("node.Type = %q", node.Type)
	}
}

func TestLookupsAndNodeNames(t *testing.T) {
	t.Parallel()

	stage := NewStage("EXP_NAMES", "Expression")
	g, err := New("m", "10.x",
		[]Source{{Name: "SRC"}},
		[]Target{{Name: "TGT"}},
		[]Stage{stage},
		[]Connector{{From: "SRC", To: "EXP_NAMES"}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := g.StageByName("EXP_NAMES"); !ok {
		t.Fatal("StageByName failed")
	}
	if _, ok := g.SourceByName("TGT"); ok {
		t.Fatal("SourceByName resolved a target")
	}
	if _, ok := g.NodeByName("missing"); ok {
		t.Fatal("NodeByName resolved an unknown name")
	}

	want := []string{"SRC", "EXP_NAMES", "TGT"}
	if got := g.NodeNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("NodeNames = %v, want %v", got, want)
	}
}

func TestKindFromRaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Kind
	}{
		{raw: "Source Qualifier", want: KindSourceQualifier},
		{raw: "expression", want: KindExpression},
		{raw: "AGGREGATOR", want: KindAggregator},
		{raw: "Lookup Procedure", want: KindLookup},
		{raw: " Update Strategy ", want: KindUpdateStrategy},
		{raw: "Stored Procedure", want: KindUnsupported},
		{raw: "", want: KindUnsupported},
	}

	for _, tt := range tests {
		if got := KindFromRaw(tt.raw); got != tt.want {
			t.Fatalf("KindFromRaw(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFamilyFromRaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Family
	}{
		{raw: "varchar2", want: FamilyString},
		{raw: "Decimal", want: FamilyNumber},
		{raw: "date/time", want: FamilyDate},
		{raw: "raw", want: FamilyBinary},
		{raw: "bit", want: FamilyBoolean},
		{raw: "geometry", want: FamilyUnknown},
	}

	for _, tt := range tests {
		if got := FamilyFromRaw(tt.raw); got != tt.want {
			t.Fatalf("FamilyFromRaw(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStageAttributeTrims(t *testing.T) {
	t.Parallel()

	stage := NewStage("JNR", "Joiner")
	stage.Attributes[AttrJoinCondition] = "  a = b  "

	if got := stage.Attribute(AttrJoinCondition); got != "a = b" {
		t.Fatalf("Attribute = %q", got)
	}
	if got := stage.Attribute("absent"); got != "" {
		t.Fatalf("Attribute(absent) = %q", got)
	}
}

func TestNewFieldResolvesFamily(t *testing.T) {
	t.Parallel()

	field := NewField("AMOUNT", "decimal")
	if field.Family != FamilyNumber {
		t.Fatalf("Family = %q", field.Family)
	}
}
