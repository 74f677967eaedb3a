package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dominikbraun/graph"
)

// ErrUnknownType is returned for a generator selector that names no generator.
var ErrUnknownType = errors.New("unknown generator type")

// Stage is one extraction pass.
type Stage string

const (
	StageSubsystems     Stage = "subsystems"
	StageInterfaces     Stage = "interfaces"
	StageDeviceInfo     Stage = "deviceinfo"
	StageObjects        Stage = "objects"
	StageEvents         Stage = "events"
	StageReturnValues   Stage = "returnvalues"
	StageSubservices    Stage = "subservices"
	StageDeviceCommands Stage = "devicecommands"
	StagePacketContent  Stage = "packetcontent"
)

// SelectAll runs every generator.
const SelectAll = "all"

// Generators are the stages whose tables are exported, in selector order.
var Generators = []Stage{
	StageObjects,
	StageEvents,
	StageReturnValues,
	StageSubservices,
	StageDeviceCommands,
	StagePacketContent,
}

// dependencies maps a stage to the stages whose output it reads.
var dependencies = map[Stage][]Stage{
	StageEvents:         {StageSubsystems},
	StageReturnValues:   {StageInterfaces},
	StageDeviceCommands: {StageDeviceInfo},
}

var allStages = []Stage{
	StageSubsystems, StageInterfaces, StageDeviceInfo,
	StageObjects, StageEvents, StageReturnValues,
	StageSubservices, StageDeviceCommands, StagePacketContent,
}

// Select resolves a selector to the generators it names.
func Select(selector string) ([]Stage, error) {
	s := strings.ToLower(strings.TrimSpace(selector))
	if s == SelectAll || s == "" {
		return slices.Clone(Generators), nil
	}
	if slices.Contains(Generators, Stage(s)) {
		return []Stage{Stage(s)}, nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownType, selector, SelectorNames())
}

// SelectorNames lists the accepted selector values.
func SelectorNames() string {
	names := make([]string, 0, len(Generators)+1)
	for _, g := range Generators {
		names = append(names, string(g))
	}
	return strings.Join(append(names, SelectAll), " | ")
}

func newStageGraph() (graph.Graph[Stage, Stage], error) {
	g := graph.New(func(s Stage) Stage { return s }, graph.Directed(), graph.Acyclic(), graph.PreventCycles())
	for _, s := range allStages {
		if err := g.AddVertex(s); err != nil {
			return nil, fmt.Errorf("failed to add stage %s: %w", s, err)
		}
	}
	for stage, deps := range dependencies {
		for _, dep := range deps {
			if err := g.AddEdge(dep, stage); err != nil {
				return nil, fmt.Errorf("failed to add dependency %s -> %s: %w", dep, stage, err)
			}
		}
	}
	return g, nil
}

// Plan returns the stages needed to produce targets, each after the stages
// it depends on. Peers are ordered by name so plans are reproducible.
func Plan(targets []Stage) ([]Stage, error) {
	g, err := newStageGraph()
	if err != nil {
		return nil, err
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read stage graph: %w", err)
	}

	needed := make(map[Stage]bool)
	var require func(Stage)
	require = func(s Stage) {
		if needed[s] {
			return
		}
		needed[s] = true
		for dep := range predecessors[s] {
			require(dep)
		}
	}
	for _, t := range targets {
		if _, ok := predecessors[t]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
		}
		require(t)
	}

	order, err := graph.StableTopologicalSort(g, func(a, b Stage) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to order stages: %w", err)
	}

	plan := make([]Stage, 0, len(needed))
	for _, s := range order {
		if needed[s] {
			plan = append(plan, s)
		}
	}
	return plan, nil
}
