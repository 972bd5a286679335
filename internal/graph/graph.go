package graph

import (
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
)

// Build constructs a Graph from a plan's tasks and relations.
//
// Relations whose endpoints are not both present are left out of the
// adjacency lists and recorded in Dropped. Self loops are kept so cycle
// detection sees them. Duplicate task ids keep the first occurrence.
// Cycles are not an error here; callers check DetectCycle or TopoOrder.
func Build(tasks []plan.Task, rels []plan.Relation) (*Graph, error) {
	g := &Graph{
		Tasks:  make(map[string]*plan.Task, len(tasks)),
		Order:  make([]string, 0, len(tasks)),
		Adj:    make(map[string][]Edge),
		RevAdj: make(map[string][]Edge),
	}

	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			return nil, invalidf("task at index %d has an empty id", i)
		}
		if _, dup := g.Tasks[t.ID]; dup {
			continue
		}
		g.Tasks[t.ID] = t
		g.Order = append(g.Order, t.ID)
	}

	for _, r := range rels {
		_, fromOK := g.Tasks[r.FromLineID]
		_, toOK := g.Tasks[r.ToLineID]
		if !fromOK || !toOK {
			g.Dropped = append(g.Dropped, r)
			continue
		}
		typ := r.DependencyType
		if typ == "" {
			typ = plan.FinishToStart
		}
		e := Edge{From: r.FromLineID, To: r.ToLineID, Type: typ, Lag: r.Lag}
		g.Edges = append(g.Edges, e)
		g.Adj[e.From] = append(g.Adj[e.From], e)
		g.RevAdj[e.To] = append(g.RevAdj[e.To], e)
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	return g, nil
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// A self loop on a is reported as [a a].
// Uses DFS with coloring: white (unvisited), gray (on the stack), black (done).
// The walk is iterative so long chains do not grow the goroutine stack.
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	type frame struct {
		node string
		next int // index of the next outgoing edge to explore
	}

	color := make(map[string]int, len(g.Order))
	stackPos := make(map[string]int)

	for _, root := range g.Order {
		if color[root] != white {
			continue
		}

		stack := []frame{{node: root}}
		color[root] = gray
		stackPos[root] = 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.Adj[top.node]
			if top.next == len(edges) {
				color[top.node] = black
				delete(stackPos, top.node)
				stack = stack[:len(stack)-1]
				continue
			}

			next := edges[top.next].To
			top.next++

			switch color[next] {
			case gray:
				cycle := make([]string, 0, len(stack)-stackPos[next]+1)
				for _, f := range stack[stackPos[next]:] {
					cycle = append(cycle, f.node)
				}
				return append(cycle, next)
			case white:
				color[next] = gray
				stackPos[next] = len(stack)
				stack = append(stack, frame{node: next})
			}
		}
	}
	return nil
}

// TopoOrder returns task ids in topological order using Kahn's algorithm.
// Ready tasks are released in input order, so the result is deterministic.
func (g *Graph) TopoOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.Order))
	queue := make([]string, 0, len(g.Order))
	for _, id := range g.Order {
		inDegree[id] = len(g.RevAdj[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for head := 0; head < len(queue); head++ {
		for _, e := range g.Adj[queue[head]] {
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}

	if len(queue) != len(g.Order) {
		cycle := g.DetectCycle()
		if cycle == nil {
			return nil, invalidf("topological sort stopped at %d of %d tasks", len(queue), len(g.Order))
		}
		return nil, NewCycleError(cycle)
	}
	return queue, nil
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.Order)
}

// EdgeCount returns the number of edges that survived validation.
func (g *Graph) EdgeCount() int {
	return len(g.Edges)
}

// HasEdges reports whether any dependency survived validation.
func (g *Graph) HasEdges() bool {
	return len(g.Adj) > 0
}

// Connected reports whether the task has at least one incoming or outgoing edge.
func (g *Graph) Connected(id string) bool {
	return len(g.Adj[id]) > 0 || len(g.RevAdj[id]) > 0
}

// Filter returns a new Graph containing only tasks matching the predicate.
// Relations touching a filtered-out task are dropped. Surviving edges keep
// their relation input order.
func (g *Graph) Filter(pred func(*plan.Task) bool) (*Graph, error) {
	var tasks []plan.Task
	for _, id := range g.Order {
		if t := g.Tasks[id]; pred(t) {
			tasks = append(tasks, *t)
		}
	}
	rels := make([]plan.Relation, 0, len(g.Edges))
	for _, e := range g.Edges {
		rels = append(rels, plan.Relation{
			FromLineID:     e.From,
			ToLineID:       e.To,
			DependencyType: e.Type,
			Lag:            e.Lag,
		})
	}
	filtered, err := Build(tasks, rels)
	if err != nil {
		return nil, err
	}
	// Relations dropped by the filter itself are not data problems.
	filtered.Dropped = nil
	return filtered, nil
}
