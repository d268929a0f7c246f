// Package validate proves a mapping graph is translatable-in-principle.
// Every check accumulates diagnostics and none halts the pass; the
// engine proceeds regardless, so a defective mapping still yields a
// complete account of everything wrong with it.
package validate

import (
	"fmt"
	"strings"

	"github.com/pcmigrate/pc2adf/internal/diagnostics"
	"github.com/pcmigrate/pc2adf/internal/graph"
	"github.com/pcmigrate/pc2adf/internal/stack"
)

// Validator runs the read-only structural pass. It holds no state
// between calls, so validating the same graph twice yields identical
// diagnostics.
type Validator struct{}

// New builds a validator.
func New() *Validator {
	return &Validator{}
}

// Validate returns ordered diagnostics for the graph without mutating it.
func (v *Validator) Validate(g *graph.MappingGraph) []diagnostics.Issue {
	var issues []diagnostics.Issue

	issues = append(issues, checkConnectorEndpoints(g)...)
	issues = append(issues, checkCycles(g)...)
	issues = append(issues, checkConnectivity(g)...)
	issues = append(issues, checkStagePrerequisites(g)...)
	issues = append(issues, checkUpstreamOrdering(g)...)

	return issues
}

func checkConnectorEndpoints(g *graph.MappingGraph) []diagnostics.Issue {
	var issues []diagnostics.Issue

	for _, connector := range g.Connectors() {
		if _, ok := g.NodeByName(connector.From); !ok {
			issues = append(issues, diagnostics.New(
				diagnostics.CodeConnectorEndpointUnknown,
				connector.From,
				fmt.Sprintf("connector %s -> %s references unknown entity %q", connector.From, connector.To, connector.From),
			))
		}
		if _, ok := g.NodeByName(connector.To); !ok {
			issues = append(issues, diagnostics.New(
				diagnostics.CodeConnectorEndpointUnknown,
				connector.To,
				fmt.Sprintf("connector %s -> %s references unknown entity %q", connector.From, connector.To, connector.To),
			))
		}
	}

	return issues
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

type dfsFrame struct {
	node string
	edge int
}

// checkCycles runs a three-color depth-first traversal with an explicit
// work stack. Recursion depth is unbounded on large mappings, so the
// language stack is never used.
func checkCycles(g *graph.MappingGraph) []diagnostics.Issue {
	adjacency := forwardAdjacency(g)
	colors := make(map[string]int)

	var issues []diagnostics.Issue

	for _, root := range g.NodeNames() {
		if colors[root] != colorWhite {
			continue
		}

		work := stack.New[dfsFrame](len(adjacency))
		colors[root] = colorGray
		work.Push(dfsFrame{node: root})

		for !work.IsEmpty() {
			frame := work.PeekRef()
			edges := adjacency[frame.node]

			if frame.edge >= len(edges) {
				colors[frame.node] = colorBlack
				work.Pop()
				continue
			}

			next := edges[frame.edge]
			frame.edge++

			switch colors[next] {
			case colorGray:
				// Back edge: next is an ancestor on the current path.
				issues = append(issues, diagnostics.New(
					diagnostics.CodeCycleDetected,
					frame.node,
					fmt.Sprintf("cycle detected: connector %s -> %s closes a dependency loop", frame.node, next),
				))
			case colorWhite:
				colors[next] = colorGray
				work.Push(dfsFrame{node: next})
			}
		}
	}

	return issues
}

func checkConnectivity(g *graph.MappingGraph) []diagnostics.Issue {
	inbound := make(map[string]int)
	outbound := make(map[string]int)
	for _, connector := range g.Connectors() {
		outbound[connector.From]++
		inbound[connector.To]++
	}

	var issues []diagnostics.Issue

	disconnected := func(name string, direction string) diagnostics.Issue {
		return diagnostics.New(
			diagnostics.CodeStageDisconnected,
			name,
			fmt.Sprintf("%q has no %s connector and is disconnected from the dataflow", name, direction),
		)
	}

	for _, source := range g.Sources() {
		if outbound[source.Name] == 0 {
			issues = append(issues, disconnected(source.Name, "outbound"))
		}
	}
	for _, stage := range g.Stages() {
		if inbound[stage.Name] == 0 {
			issues = append(issues, disconnected(stage.Name, "inbound"))
		}
		if outbound[stage.Name] == 0 {
			issues = append(issues, disconnected(stage.Name, "outbound"))
		}
	}
	for _, target := range g.Targets() {
		if inbound[target.Name] == 0 {
			issues = append(issues, disconnected(target.Name, "inbound"))
		}
	}

	return issues
}

// prerequisites is the table-driven per-kind structural rule set.
// Adding a kind is a table insertion.
var prerequisites = map[graph.Kind]func(*graph.Stage) []diagnostics.Issue{
	graph.KindJoiner:     joinerPrerequisites,
	graph.KindAggregator: aggregatorPrerequisites,
	graph.KindRouter:     routerPrerequisites,
	graph.KindLookup:     lookupPrerequisites,
}

func checkStagePrerequisites(g *graph.MappingGraph) []diagnostics.Issue {
	var issues []diagnostics.Issue

	stages := g.Stages()
	for index := range stages {
		stage := &stages[index]
		if check, ok := prerequisites[stage.Kind]; ok {
			issues = append(issues, check(stage)...)
		}
	}

	return issues
}

func joinerPrerequisites(stage *graph.Stage) []diagnostics.Issue {
	if stage.Attribute(graph.AttrJoinCondition) != "" {
		return nil
	}

	return []diagnostics.Issue{diagnostics.New(
		diagnostics.CodeMissingJoinCondition,
		stage.Name,
		fmt.Sprintf("joiner %q has no join condition", stage.Name),
	)}
}

func aggregatorPrerequisites(stage *graph.Stage) []diagnostics.Issue {
	for _, field := range stage.Fields {
		if field.GroupBy || strings.TrimSpace(field.Expression) != "" {
			return nil
		}
	}

	return []diagnostics.Issue{diagnostics.New(
		diagnostics.CodeMissingAggregates,
		stage.Name,
		fmt.Sprintf("aggregator %q has neither group-by fields nor aggregate expressions", stage.Name),
	)}
}

func routerPrerequisites(stage *graph.Stage) []diagnostics.Issue {
	var issues []diagnostics.Issue

	if len(stage.Groups) == 0 {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeMissingRouterGroups,
			stage.Name,
			fmt.Sprintf("router %q has no output groups", stage.Name),
		))
		return issues
	}

	hasDefault := false
	for _, group := range stage.Groups {
		if group.Default {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeMissingDefaultGroup,
			stage.Name,
			fmt.Sprintf("router %q has no default group; unmatched rows will be dropped", stage.Name),
		))
	}

	return issues
}

func lookupPrerequisites(stage *graph.Stage) []diagnostics.Issue {
	var issues []diagnostics.Issue

	if strings.EqualFold(stage.Attribute(graph.AttrSourceType), "Flat File") {
		if stage.Attribute(graph.AttrFlatFile) == "" {
			issues = append(issues, diagnostics.Issue{
				Code:     diagnostics.CodeMissingLookupSource,
				Stage:    diagnostics.StageValidate,
				Subject:  stage.Name,
				Severity: diagnostics.SeverityWarning,
				Message:  fmt.Sprintf("lookup %q reads a flat file but has no file configuration", stage.Name),
			})
		}
		return issues
	}

	if stage.Attribute(graph.AttrLookupTable) == "" && stage.Attribute(graph.AttrSQLOverride) == "" {
		issues = append(issues, diagnostics.New(
			diagnostics.CodeMissingLookupSource,
			stage.Name,
			fmt.Sprintf("lookup %q has neither a lookup table nor a SQL override", stage.Name),
		))
	}

	if stage.Attribute(graph.AttrLookupCondition) == "" {
		issues = append(issues, diagnostics.Issue{
			Code:     diagnostics.CodePartialConfiguration,
			Stage:    diagnostics.StageValidate,
			Subject:  stage.Name,
			Severity: diagnostics.SeverityWarning,
			Message:  fmt.Sprintf("lookup %q has no lookup condition", stage.Name),
		})
	}

	return issues
}

// checkUpstreamOrdering is advisory: a stage that declares sorted input
// should have a sorter somewhere in its connector ancestry.
func checkUpstreamOrdering(g *graph.MappingGraph) []diagnostics.Issue {
	reverse := reverseAdjacency(g)

	var issues []diagnostics.Issue

	for _, stage := range g.Stages() {
		if stage.Kind != graph.KindAggregator && stage.Kind != graph.KindJoiner {
			continue
		}
		if !isTruthy(stage.Attribute(graph.AttrSortedInput)) {
			continue
		}

		if !hasUpstreamSorter(g, reverse, stage.Name) {
			issues = append(issues, diagnostics.New(
				diagnostics.CodeMissingUpstreamSorter,
				stage.Name,
				fmt.Sprintf("%q declares sorted input but no sorter was found upstream", stage.Name),
			))
		}
	}

	return issues
}

// hasUpstreamSorter walks the connector ancestry breadth-first.
func hasUpstreamSorter(g *graph.MappingGraph, reverse map[string][]string, name string) bool {
	visited := map[string]bool{name: true}
	queue := []string{name}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, upstream := range reverse[current] {
			if visited[upstream] {
				continue
			}
			visited[upstream] = true

			if stage, ok := g.StageByName(upstream); ok && stage.Kind == graph.KindSorter {
				return true
			}
			queue = append(queue, upstream)
		}
	}

	return false
}

func forwardAdjacency(g *graph.MappingGraph) map[string][]string {
	adjacency := make(map[string][]string)
	for _, connector := range g.Connectors() {
		adjacency[connector.From] = append(adjacency[connector.From], connector.To)
	}

	return adjacency
}

func reverseAdjacency(g *graph.MappingGraph) map[string][]string {
	adjacency := make(map[string][]string)
	for _, connector := range g.Connectors() {
		adjacency[connector.To] = append(adjacency[connector.To], connector.From)
	}

	return adjacency
}

func isTruthy(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "true", "1":
		return true
	}

	return false
}
