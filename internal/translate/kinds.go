package translate

import (
	"fmt"
	"strings"

	"github.com/pcmigrate/pc2adf/internal/adf"
	"github.com/pcmigrate/pc2adf/internal/diagnostics"
	"github.com/pcmigrate/pc2adf/internal/graph"
	"github.com/pcmigrate/pc2adf/internal/rewrite"
)

// base builds the shared transformation skeleton: translated type tag,
// mapped schema. Every rule starts from this and fills in its own
// kind-specific fields.
func (e *Engine) base(stage *graph.Stage) (*adf.Transformation, []diagnostics.Issue) {
	target, _ := e.tables.TargetKind(stage.RawKind)
	schema, issues := e.mapSchema(stage.Fields, stage.Name)

	return &adf.Transformation{
		Name:   stage.Name,
		Type:   target,
		Schema: schema,
	}, issues
}

func translateSourceQualifier(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)
	status := StatusTranslated

	if override := stage.Attribute(graph.AttrQuery); override != "" {
		transformation.Query = override
		transformation.Notes = append(transformation.Notes,
			"SQL override carried over verbatim; review against the target dialect")
		status = StatusPartial
		issues = append(issues, diagnostics.New(
			diagnostics.CodePartialConfiguration,
			stage.Name,
			fmt.Sprintf("source qualifier %q uses a SQL override that requires manual review", stage.Name),
		))
	}

	if filter := stage.Attribute(graph.AttrSourceFilter); filter != "" {
		condition, rewriteIssues := e.rewriteExpression(filter, stage.Name)
		transformation.Condition = condition
		if len(rewriteIssues) > 0 {
			status = StatusPartial
			issues = append(issues, rewriteIssues...)
		}
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

func translateExpression(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)
	status := StatusTranslated

	for _, field := range stage.Fields {
		if field.Expression == "" || field.Expression == field.Name {
			continue
		}

		rewritten, rewriteIssues := e.rewriteExpression(field.Expression, stage.Name)
		if len(rewriteIssues) > 0 {
			status = StatusPartial
			issues = append(issues, rewriteIssues...)
		}
		transformation.Columns = append(transformation.Columns, adf.DerivedColumn{
			Name:       field.Name,
			Expression: rewritten,
		})
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

func translateFilter(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)
	status := StatusTranslated

	condition := stage.Attribute(graph.AttrFilterCondition)
	if condition == "" {
		// An empty filter passes every row on the source platform too.
		transformation.Condition = "true()"
		return outcome{status: status, transformation: transformation, issues: issues}
	}

	rewritten, rewriteIssues := e.rewriteExpression(condition, stage.Name)
	transformation.Condition = rewritten
	if len(rewriteIssues) > 0 {
		status = StatusPartial
		issues = append(issues, rewriteIssues...)
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

func translateAggregator(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)
	status := StatusTranslated

	for _, field := range stage.Fields {
		if field.GroupBy {
			transformation.GroupBy = append(transformation.GroupBy, field.Name)
		}
	}

	for _, field := range stage.Fields {
		if field.Expression == "" || !containsAggregate(field.Expression) {
			continue
		}

		rewritten, rewriteIssues := e.rewriteExpression(field.Expression, stage.Name)
		if len(rewriteIssues) > 0 {
			status = StatusPartial
			issues = append(issues, rewriteIssues...)
		}
		transformation.Aggregates = append(transformation.Aggregates, adf.DerivedColumn{
			Name:       field.Name,
			Expression: rewritten,
		})
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

var joinTypes = map[string]string{
	"normal":       "inner",
	"master outer": "left",
	"detail outer": "right",
	"full outer":   "outer",
}

func translateJoiner(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)
	status := StatusTranslated

	rawType := strings.ToLower(stage.Attribute(graph.AttrJoinType))
	joinType, ok := joinTypes[rawType]
	if !ok {
		joinType = "inner"
	}
	transformation.JoinType = joinType

	condition := stage.Attribute(graph.AttrJoinCondition)
	for _, conjunct := range splitTopLevelAnd(condition) {
		pair, ok := parseComparison(conjunct)
		if !ok {
			status = StatusPartial
			issues = append(issues, diagnostics.New(
				diagnostics.CodePartialConfiguration,
				stage.Name,
				fmt.Sprintf("join condition clause %q of %q is not a simple comparison", conjunct, stage.Name),
			))
			continue
		}
		transformation.JoinConditions = append(transformation.JoinConditions, pair)
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

func translateSorter(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)

	for _, field := range stage.Fields {
		if !field.SortKey {
			continue
		}
		transformation.SortColumns = append(transformation.SortColumns, adf.SortColumn{
			Name:       field.Name,
			Descending: field.SortOrder == graph.SortDescending,
		})
	}

	return outcome{status: StatusTranslated, transformation: transformation, issues: issues}
}

func translateRouter(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)
	status := StatusTranslated

	for _, group := range stage.Groups {
		if group.Default {
			transformation.DefaultStream = group.Name
			transformation.SplitConditions = append(transformation.SplitConditions, adf.SplitCondition{
				Stream:  group.Name,
				Default: true,
			})
			continue
		}

		rewritten, rewriteIssues := e.rewriteExpression(group.Condition, stage.Name)
		if len(rewriteIssues) > 0 {
			status = StatusPartial
			issues = append(issues, rewriteIssues...)
		}
		transformation.SplitConditions = append(transformation.SplitConditions, adf.SplitCondition{
			Stream:    group.Name,
			Condition: rewritten,
		})
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

func translateLookup(e *Engine, stage *graph.Stage) outcome {
	table := stage.Attribute(graph.AttrLookupTable)
	override := stage.Attribute(graph.AttrSQLOverride)

	if table == "" && override == "" {
		return outcome{
			status: StatusUnsupported,
			issues: []diagnostics.Issue{diagnostics.New(
				diagnostics.CodeMissingLookupSource,
				stage.Name,
				fmt.Sprintf("lookup %q names no table and no SQL override; it cannot resolve rows", stage.Name),
			)},
		}
	}

	transformation, issues := e.base(stage)
	status := StatusTranslated
	transformation.LookupDataset = table

	if condition := stage.Attribute(graph.AttrLookupCondition); condition != "" {
		rewritten, rewriteIssues := e.rewriteExpression(condition, stage.Name)
		transformation.LookupCondition = rewritten
		if len(rewriteIssues) > 0 {
			status = StatusPartial
			issues = append(issues, rewriteIssues...)
		}
	}

	if override != "" {
		transformation.Query = override
		transformation.Notes = append(transformation.Notes,
			"lookup SQL override carried over verbatim; review against the target dialect")
		status = StatusPartial
		issues = append(issues, diagnostics.New(
			diagnostics.CodePartialConfiguration,
			stage.Name,
			fmt.Sprintf("lookup %q uses a SQL override that requires manual review", stage.Name),
		))
	}

	if stage.Attribute(graph.AttrCachePolicy) == "" {
		status = StatusPartial
		issues = append(issues, diagnostics.New(
			diagnostics.CodePartialConfiguration,
			stage.Name,
			fmt.Sprintf("lookup %q has no cache policy; the target default will apply", stage.Name),
		))
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

var rowPolicies = map[string]string{
	"dd_insert": "insertIf(true())",
	"dd_update": "updateIf(true())",
	"dd_delete": "deleteIf(true())",
	"0":         "insertIf(true())",
	"1":         "updateIf(true())",
	"2":         "deleteIf(true())",
}

func translateUpdateStrategy(e *Engine, stage *graph.Stage) outcome {
	transformation, issues := e.base(stage)
	status := StatusTranslated

	expression := stage.Attribute(graph.AttrUpdateStrategy)
	policy, ok := rowPolicies[strings.ToLower(expression)]
	switch {
	case ok:
		transformation.RowPolicy = policy
	case strings.EqualFold(expression, "dd_reject") || expression == "3":
		transformation.RowPolicy = "deleteIf(true())"
		transformation.Notes = append(transformation.Notes,
			"reject policy has no direct equivalent; route rejects with a conditional split")
		status = StatusPartial
		issues = append(issues, diagnostics.New(
			diagnostics.CodePartialConfiguration,
			stage.Name,
			fmt.Sprintf("update strategy %q rejects rows; the target has no reject policy", stage.Name),
		))
	case expression == "":
		transformation.RowPolicy = "insertIf(true())"
	default:
		rewritten, rewriteIssues := e.rewriteExpression(expression, stage.Name)
		transformation.RowPolicy = rewritten
		transformation.Notes = append(transformation.Notes,
			"conditional row policy requires manual review")
		status = StatusPartial
		issues = append(issues, rewriteIssues...)
		issues = append(issues, diagnostics.New(
			diagnostics.CodePartialConfiguration,
			stage.Name,
			fmt.Sprintf("update strategy %q uses a conditional policy expression", stage.Name),
		))
	}

	return outcome{status: status, transformation: transformation, issues: issues}
}

var aggregateFunctions = map[string]bool{
	"sum":   true,
	"avg":   true,
	"count": true,
	"min":   true,
	"max":   true,
	"first": true,
	"last":  true,
}

// containsAggregate reports whether the expression calls an aggregate
// function outside string literals.
func containsAggregate(expression string) bool {
	for _, name := range rewrite.FunctionCalls(expression) {
		if aggregateFunctions[strings.ToLower(name)] {
			return true
		}
	}

	return false
}

// splitTopLevelAnd splits a boolean expression on AND conjunctions that
// sit outside parentheses and string literals. A condition with no
// top-level AND comes back as a single element.
func splitTopLevelAnd(condition string) []string {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return nil
	}

	var parts []string
	depth := 0
	start := 0
	inLiteral := false

	for i := 0; i < len(condition); i++ {
		c := condition[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
		case inLiteral:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && isWordBoundary(condition, i) && hasKeyword(condition[i:], "AND"):
			parts = append(parts, strings.TrimSpace(condition[start:i]))
			i += 2
			start = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(condition[start:]))

	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}

// comparators in scan order: two-character forms before their
// one-character prefixes.
var comparators = []struct {
	source string
	target string
}{
	{"<>", "!="},
	{"!=", "!="},
	{">=", ">="},
	{"<=", "<="},
	{"=", "=="},
	{">", ">"},
	{"<", "<"},
}

// parseComparison splits one conjunct into (left, right, op) with the
// comparator mapped to the target's spelling.
func parseComparison(conjunct string) (adf.JoinCondition, bool) {
	inLiteral := false
	depth := 0

	for i := 0; i < len(conjunct); i++ {
		c := conjunct[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			continue
		case inLiteral:
			continue
		case c == '(':
			depth++
			continue
		case c == ')':
			depth--
			continue
		case depth != 0:
			continue
		}

		for _, comparator := range comparators {
			if !strings.HasPrefix(conjunct[i:], comparator.source) {
				continue
			}

			left := strings.TrimSpace(conjunct[:i])
			right := strings.TrimSpace(conjunct[i+len(comparator.source):])
			if left == "" || right == "" {
				return adf.JoinCondition{}, false
			}

			return adf.JoinCondition{Left: left, Right: right, Op: comparator.target}, true
		}
	}

	return adf.JoinCondition{}, false
}

func isWordBoundary(s string, i int) bool {
	if i == 0 {
		return true
	}

	return !isIdentChar(s[i-1])
}

// hasKeyword reports a case-insensitive keyword at the head of s,
// terminated by a non-identifier character.
func hasKeyword(s string, keyword string) bool {
	if len(s) < len(keyword) {
		return false
	}
	if !strings.EqualFold(s[:len(keyword)], keyword) {
		return false
	}

	return len(s) == len(keyword) || !isIdentChar(s[len(keyword)])
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
