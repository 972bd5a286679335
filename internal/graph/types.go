package graph

import "github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"

// Edge is a dependency constraint between two tasks known to the graph.
type Edge struct {
	From string
	To   string
	Type plan.DependencyType
	Lag  int // days
}

// Graph is the dependency graph of a plan. Adjacency lists keep relation
// input order; that order decides ties in the scheduler.
type Graph struct {
	Tasks  map[string]*plan.Task
	Order  []string          // task ids in input order
	Edges  []Edge            // all edges in relation input order
	Adj    map[string][]Edge // task -> outgoing edges
	RevAdj map[string][]Edge // task -> incoming edges
	Roots  []string          // tasks with no incoming edges
	Leaves []string          // tasks with no outgoing edges

	// Dropped holds relations that referenced a task not in the plan.
	Dropped []plan.Relation
}
