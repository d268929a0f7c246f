// Package rewrite substitutes function names and operators between two
// expression grammars without a real parser. Substitution is whole-token,
// case-insensitive for functions, fixed-width for operators, and never
// touches text inside quoted string literals.
package rewrite

import (
	"strings"
)

// Operator is one fixed-width literal substitution, applied in order.
type Operator struct {
	From string
	To   string
}

// Rewriter is a pure text transform; it never fails and carries no
// diagnostic side channel. Callers surface unmapped functions and
// malformed literals through UnmappedFunctions and UnterminatedLiteral.
type Rewriter struct {
	functions map[string]string
	operators []Operator
}

// New builds a rewriter from a case-insensitive function table and an
// ordered operator table.
func New(functions map[string]string, operators []Operator) *Rewriter {
	normalized := make(map[string]string, len(functions))
	for name, target := range functions {
		normalized[strings.ToLower(name)] = target
	}

	return &Rewriter{
		functions: normalized,
		operators: operators,
	}
}

// Rewrite translates expression text into the target vocabulary.
// Function substitution runs before operator substitution so compound
// operator tokens are never matched against unsubstituted call text.
func (r *Rewriter) Rewrite(expression string) string {
	if strings.TrimSpace(expression) == "" {
		return expression
	}

	rewritten := collapseWhitespace(expression)
	rewritten = r.rewriteFunctions(rewritten)
	rewritten = r.rewriteOperators(rewritten)

	return rewritten
}

// span is a half-open [start, end) string-literal region, quotes included.
type span struct {
	start int
	end   int
}

// literalSpans locates quoted regions. An unterminated literal extends to
// the end of the expression, so nothing past it is ever substituted.
func literalSpans(s string) []span {
	var spans []span

	for i := 0; i < len(s); i++ {
		quote := s[i]
		if quote != '\'' && quote != '"' {
			continue
		}

		closing := strings.IndexByte(s[i+1:], quote)
		if closing < 0 {
			spans = append(spans, span{start: i, end: len(s)})
			break
		}

		end := i + 1 + closing + 1
		spans = append(spans, span{start: i, end: end})
		i = end - 1
	}

	return spans
}

// UnterminatedLiteral reports whether the expression ends inside an open
// string literal.
func UnterminatedLiteral(expression string) bool {
	spans := literalSpans(expression)
	if len(spans) == 0 {
		return false
	}

	last := spans[len(spans)-1]
	return last.end == len(expression) && !closedSpan(expression, last)
}

func closedSpan(s string, sp span) bool {
	return sp.end-sp.start >= 2 && s[sp.end-1] == s[sp.start]
}

func collapseWhitespace(s string) string {
	spans := literalSpans(s)
	var out strings.Builder
	out.Grow(len(s))

	spanIndex := 0
	for i := 0; i < len(s); {
		if spanIndex < len(spans) && i == spans[spanIndex].start {
			out.WriteString(s[spans[spanIndex].start:spans[spanIndex].end])
			i = spans[spanIndex].end
			spanIndex++
			continue
		}

		if isSpace(s[i]) {
			for i < len(s) && isSpace(s[i]) {
				i++
			}
			out.WriteByte(' ')
			continue
		}

		out.WriteByte(s[i])
		i++
	}

	return strings.TrimSpace(out.String())
}

func (r *Rewriter) rewriteFunctions(s string) string {
	spans := literalSpans(s)
	var out strings.Builder
	out.Grow(len(s))

	spanIndex := 0
	for i := 0; i < len(s); {
		if spanIndex < len(spans) && i == spans[spanIndex].start {
			out.WriteString(s[spans[spanIndex].start:spans[spanIndex].end])
			i = spans[spanIndex].end
			spanIndex++
			continue
		}

		if !isIdentStart(s[i]) {
			out.WriteByte(s[i])
			i++
			continue
		}

		end := i + 1
		for end < len(s) && isIdentPart(s[end]) {
			end++
		}

		token := s[i:end]
		if target, ok := r.functions[strings.ToLower(token)]; ok {
			out.WriteString(target)
		} else {
			out.WriteString(token)
		}
		i = end
	}

	return out.String()
}

func (r *Rewriter) rewriteOperators(s string) string {
	spans := literalSpans(s)
	var out strings.Builder
	out.Grow(len(s))

	spanIndex := 0
	for i := 0; i < len(s); {
		if spanIndex < len(spans) && i == spans[spanIndex].start {
			out.WriteString(s[spans[spanIndex].start:spans[spanIndex].end])
			i = spans[spanIndex].end
			spanIndex++
			continue
		}

		matched := false
		for _, operator := range r.operators {
			if strings.HasPrefix(s[i:], operator.From) {
				out.WriteString(operator.To)
				i += len(operator.From)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		out.WriteByte(s[i])
		i++
	}

	return out.String()
}

// FunctionCalls lists the function-call identifiers of the expression
// in source order, skipping string literals. An identifier counts as a
// call when its next non-space character is an opening parenthesis.
func FunctionCalls(expression string) []string {
	spans := literalSpans(expression)

	var calls []string

	spanIndex := 0
	for i := 0; i < len(expression); {
		if spanIndex < len(spans) && i == spans[spanIndex].start {
			i = spans[spanIndex].end
			spanIndex++
			continue
		}

		if !isIdentStart(expression[i]) {
			i++
			continue
		}

		end := i + 1
		for end < len(expression) && isIdentPart(expression[end]) {
			end++
		}

		token := expression[i:end]
		i = end

		if followedByCall(expression, end) {
			calls = append(calls, token)
		}
	}

	return calls
}

// UnmappedFunctions lists function-call identifiers in source order that
// are absent from the function table. Duplicates are reported once.
func (r *Rewriter) UnmappedFunctions(expression string) []string {
	var unmapped []string
	seen := make(map[string]struct{})

	for _, token := range FunctionCalls(expression) {
		key := strings.ToLower(token)
		if _, ok := r.functions[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		unmapped = append(unmapped, token)
	}

	return unmapped
}

func followedByCall(s string, index int) bool {
	for index < len(s) && isSpace(s[index]) {
		index++
	}

	return index < len(s) && s[index] == '('
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
