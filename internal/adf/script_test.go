package adf

import (
	"strings"
	"testing"
)

func TestScriptRendersAllNodes(t *testing.T) {
	t.Parallel()

	script := Script(fixtureFlow())

	for _, want := range []string{
		"source(output(",
		"ID as integer,",
		"AMOUNT as decimal",
		"~> ORDERS",
		"ORDERS filter(STATUS <> 'closed') ~> FLT_OPEN",
		"FLT_OPEN sink(allowSchemaDrift: true,",
		"~> ORDERS_OUT",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}

func TestScriptSkipsBrokenStreams(t *testing.T) {
	t.Parallel()

	flow := fixtureFlow()
	flow.Streams[0].Broken = true

	script := Script(flow)
	if strings.Contains(script, "ORDERS filter(") {
		t.Fatalf("broken stream still feeds the filter:\n%s", script)
	}
	// The transformation itself survives with no inputs.
	if !strings.Contains(script, "filter(STATUS <> 'closed') ~> FLT_OPEN") {
		t.Fatalf("filter missing:\n%s", script)
	}
}

func TestScriptJoin(t *testing.T) {
	t.Parallel()

	flow := DataFlow{
		Name: "m_join",
		Transformations: []Transformation{{
			Name:     "JNR",
			Type:     "join",
			JoinType: "left",
			JoinConditions: []JoinCondition{
				{Left: "a.id", Right: "b.id", Op: "=="},
			},
		}},
		Streams: []Stream{
			{From: "A", To: "JNR"},
			{From: "B", To: "JNR"},
		},
	}

	script := Script(flow)
	if !strings.Contains(script, "A, B join(a.id == b.id,") {
		t.Fatalf("script = %s", script)
	}
	if !strings.Contains(script, "joinType: 'left',") {
		t.Fatalf("script = %s", script)
	}
}

func TestScriptSplitNamesStreams(t *testing.T) {
	t.Parallel()

	flow := DataFlow{
		Name: "m_split",
		Transformations: []Transformation{{
			Name:          "RTR",
			Type:          "split",
			DefaultStream: "REST",
			SplitConditions: []SplitCondition{
				{Stream: "HIGH", Condition: "amount > 100"},
				{Stream: "REST", Default: true},
			},
		}},
		Streams: []Stream{{From: "SRC", To: "RTR"}},
	}

	script := Script(flow)
	if !strings.Contains(script, "SRC split(amount > 100,") {
		t.Fatalf("script = %s", script)
	}
	if !strings.Contains(script, "~> RTR@(HIGH, REST)") {
		t.Fatalf("script = %s", script)
	}
}

func TestScriptDerive(t *testing.T) {
	t.Parallel()

	flow := DataFlow{
		Name: "m_derive",
		Transformations: []Transformation{{
			Name: "EXP",
			Type: "derive",
			Columns: []DerivedColumn{
				{Name: "FULL_NAME", Expression: "concat(first, last)"},
			},
		}},
		Streams: []Stream{{From: "SRC", To: "EXP"}},
	}

	script := Script(flow)
	if !strings.Contains(script, "SRC derive(") {
		t.Fatalf("script = %s", script)
	}
	if !strings.Contains(script, "FULL_NAME = concat(first, last)") {
		t.Fatalf("script = %s", script)
	}
	if !strings.Contains(script, ") ~> EXP") {
		t.Fatalf("script = %s", script)
	}
}
