package rewrite

import (
	"reflect"
	"testing"
)

func testRewriter() *Rewriter {
	return New(map[string]string{
		"TO_DATE": "toDate",
		"CONCAT":  "concat",
		"TRIM":    "trim",
		"LTRIM":   "ltrim",
		"RTRIM":   "rtrim",
		"IIF":     "iif",
		"SYSDATE": "currentTimestamp()",
	}, []Operator{
		{From: "||", To: "+"},
		{From: "!=", To: "<>"},
	})
}

func TestRewriteFunctions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		expression string
		want       string
	}{
		{
			name:       "simple call",
			expression: "TO_DATE(col)",
			want:       "toDate(col)",
		},
		{
			name:       "case insensitive",
			expression: "to_date(col)",
			want:       "toDate(col)",
		},
		{
			name:       "nested calls keep token boundaries",
			expression: "LTRIM(RTRIM(name))",
			want:       "ltrim(rtrim(name))",
		},
		{
			name:       "bare identifier substitution",
			expression: "SYSDATE",
			want:       "currentTimestamp()",
		},
		{
			name:       "column names are untouched",
			expression: "CONCAT(first_name, last_name)",
			want:       "concat(first_name, last_name)",
		},
	}

	rewriter := testRewriter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := rewriter.Rewrite(tt.expression); got != tt.want {
				t.Fatalf("Rewrite(%q) = %q, want %q", tt.expression, got, tt.want)
			}
		})
	}
}

func TestRewriteLeavesStringLiteralsAlone(t *testing.T) {
	t.Parallel()

	rewriter := testRewriter()

	got := rewriter.Rewrite("CONCAT(a, 'TO_DATE')")
	want := "concat(a, 'TO_DATE')"
	if got != want {
		t.Fatalf("Rewrite = %q, want %q", got, want)
	}

	got = rewriter.Rewrite("IIF(x = 'a || b', TRIM(y), z)")
	want = "iif(x = 'a || b', trim(y), z)"
	if got != want {
		t.Fatalf("Rewrite = %q, want %q", got, want)
	}
}

func TestRewriteOperators(t *testing.T) {
	t.Parallel()

	rewriter := testRewriter()

	got := rewriter.Rewrite("a || b")
	if got != "a + b" {
		t.Fatalf("Rewrite = %q", got)
	}

	got = rewriter.Rewrite("a != b")
	if got != "a <> b" {
		t.Fatalf("Rewrite = %q", got)
	}
}

func TestRewriteCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	rewriter := testRewriter()

	got := rewriter.Rewrite("  TRIM( a )   ||\n\tb ")
	want := "trim( a ) + b"
	if got != want {
		t.Fatalf("Rewrite = %q, want %q", got, want)
	}
}

func TestRewriteWhitespaceInsideLiteralSurvives(t *testing.T) {
	t.Parallel()

	rewriter := testRewriter()

	got := rewriter.Rewrite("CONCAT(a, '  two  spaces ')")
	want := "concat(a, '  two  spaces ')"
	if got != want {
		t.Fatalf("Rewrite = %q, want %q", got, want)
	}
}

func TestUnterminatedLiteral(t *testing.T) {
	t.Parallel()

	if UnterminatedLiteral("TRIM('closed')") {
		t.Fatal("closed literal reported unterminated")
	}
	if !UnterminatedLiteral("TRIM('open") {
		t.Fatal("open literal not reported")
	}
	if UnterminatedLiteral("no literal at all") {
		t.Fatal("plain text reported unterminated")
	}
}

func TestRewriteStopsAtUnterminatedLiteral(t *testing.T) {
	t.Parallel()

	rewriter := testRewriter()

	// Everything from the open quote onward is literal text.
	got := rewriter.Rewrite("TRIM(a) || 'open TO_DATE(b)")
	want := "trim(a) + 'open TO_DATE(b)"
	if got != want {
		t.Fatalf("Rewrite = %q, want %q", got, want)
	}
}

func TestFunctionCalls(t *testing.T) {
	t.Parallel()

	got := FunctionCalls("SUM(a) + trim(CONCAT(b, 'MAX(c)'))")
	want := []string{"SUM", "trim", "CONCAT"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FunctionCalls = %v, want %v", got, want)
	}

	if calls := FunctionCalls("plain_column + other"); calls != nil {
		t.Fatalf("FunctionCalls = %v, want none", calls)
	}
}

func TestUnmappedFunctions(t *testing.T) {
	t.Parallel()

	rewriter := testRewriter()

	got := rewriter.UnmappedFunctions("MD5(a) || TRIM(MD5(b)) || CRC32(c)")
	want := []string{"MD5", "CRC32"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UnmappedFunctions = %v, want %v", got, want)
	}

	if unmapped := rewriter.UnmappedFunctions("TRIM(a)"); unmapped != nil {
		t.Fatalf("UnmappedFunctions = %v, want none", unmapped)
	}
}
