package graph

import (
	"errors"
	"fmt"
)

// ErrDuplicateName indicates two entities of the same class share a name.
// A graph with duplicate names cannot be represented and aborts the run.
var ErrDuplicateName = errors.New("duplicate name")

// StructureError is the only fatal, construction-time failure class.
type StructureError struct {
	Class string
	Name  string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Class, e.Name, ErrDuplicateName)
}

func (e *StructureError) Unwrap() error {
	return ErrDuplicateName
}

// NodeType distinguishes the three connector endpoint classes.
type NodeType string

const (
	NodeSource NodeType = "source"
	NodeStage  NodeType = "stage"
	NodeTarget NodeType = "target"
)

// Node is a resolved connector endpoint.
type Node struct {
	Type   NodeType
	Source *Source
	Stage  *Stage
	Target *Target
}

// Name returns the endpoint's entity name.
func (n Node) Name() string {
	switch n.Type {
	case NodeSource:
		return n.Source.Name
	case NodeStage:
		return n.Stage.Name
	case NodeTarget:
		return n.Target.Name
	}

	return ""
}

// Fields returns the endpoint's ordered field list.
func (n Node) Fields() []Field {
	switch n.Type {
	case NodeSource:
		return n.Source.Fields
	case NodeStage:
		return n.Stage.Fields
	case NodeTarget:
		return n.Target.Fields
	}

	return nil
}

// MappingGraph is one mapping's immutable dataflow description.
// Construction is permissive: everything except duplicate names is
// deferred to the validator so diagnostics can accumulate.
type MappingGraph struct {
	Name    string
	Version string

	sources    []Source
	targets    []Target
	stages     []Stage
	connectors []Connector

	sourceIndex map[string]int
	targetIndex map[string]int
	stageIndex  map[string]int
}

// New builds a mapping graph and its name indexes.
func New(name string, version string, sources []Source, targets []Target, stages []Stage, connectors []Connector) (*MappingGraph, error) {
	g := &MappingGraph{
		Name:        name,
		Version:     version,
		sources:     sources,
		targets:     targets,
		stages:      stages,
		connectors:  connectors,
		sourceIndex: make(map[string]int, len(sources)),
		targetIndex: make(map[string]int, len(targets)),
		stageIndex:  make(map[string]int, len(stages)),
	}

	for index, source := range sources {
		if _, exists := g.sourceIndex[source.Name]; exists {
			return nil, &StructureError{Class: "source", Name: source.Name}
		}
		g.sourceIndex[source.Name] = index
	}

	for index, target := range targets {
		if _, exists := g.targetIndex[target.Name]; exists {
			return nil, &StructureError{Class: "target", Name: target.Name}
		}
		g.targetIndex[target.Name] = index
	}

	for index, stage := range stages {
		if _, exists := g.stageIndex[stage.Name]; exists {
			return nil, &StructureError{Class: "stage", Name: stage.Name}
		}
		g.stageIndex[stage.Name] = index
	}

	return g, nil
}

// Sources returns the ordered source list.
func (g *MappingGraph) Sources() []Source {
	return g.sources
}

// Targets returns the ordered target list.
func (g *MappingGraph) Targets() []Target {
	return g.targets
}

// Stages returns the ordered stage list.
func (g *MappingGraph) Stages() []Stage {
	return g.stages
}

// Connectors returns the ordered connector list.
func (g *MappingGraph) Connectors() []Connector {
	return g.connectors
}

// SourceByName resolves a source in constant time.
func (g *MappingGraph) SourceByName(name string) (*Source, bool) {
	index, ok := g.sourceIndex[name]
	if !ok {
		return nil, false
	}

	return &g.sources[index], true
}

// TargetByName resolves a target in constant time.
func (g *MappingGraph) TargetByName(name string) (*Target, bool) {
	index, ok := g.targetIndex[name]
	if !ok {
		return nil, false
	}

	return &g.targets[index], true
}

// StageByName resolves a stage in constant time.
func (g *MappingGraph) StageByName(name string) (*Stage, bool) {
	index, ok := g.stageIndex[name]
	if !ok {
		return nil, false
	}

	return &g.stages[index], true
}

// NodeByName resolves any connector endpoint.
func (g *MappingGraph) NodeByName(name string) (Node, bool) {
	if source, ok := g.SourceByName(name); ok {
		return Node{Type: NodeSource, Source: source}, true
	}
	if stage, ok := g.StageByName(name); ok {
		return Node{Type: NodeStage, Stage: stage}, true
	}
	if target, ok := g.TargetByName(name); ok {
		return Node{Type: NodeTarget, Target: target}, true
	}

	return Node{}, false
}

// NodeNames lists every endpoint name in declaration order: sources,
// then stages, then targets.
func (g *MappingGraph) NodeNames() []string {
	names := make([]string, 0, len(g.sources)+len(g.stages)+len(g.targets))
	for _, source := range g.sources {
		names = append(names, source.Name)
	}
	for _, stage := range g.stages {
		names = append(names, stage.Name)
	}
	for _, target := range g.targets {
		names = append(names, target.Name)
	}

	return names
}
