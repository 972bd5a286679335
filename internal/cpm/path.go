package cpm

import (
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/graph"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
)

// CalculateCriticalPath returns the ordered ids of the longest dependency
// chain through the plan, or an empty slice when there is none.
//
// Relations pointing at unknown tasks are ignored. A cycle anywhere in the
// remaining graph, a self loop included, yields an empty slice; use Analyze
// to get the reason. The inputs are not modified.
func CalculateCriticalPath(tasks []plan.Task, rels []plan.Relation) []string {
	g, err := graph.Build(tasks, rels)
	if err != nil {
		return []string{}
	}
	result, err := Analyze(g)
	if err != nil {
		return []string{}
	}
	return result.CriticalPath
}
