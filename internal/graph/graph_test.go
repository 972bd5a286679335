package graph

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func tasks(ids ...string) []plan.Task {
	out := make([]plan.Task, len(ids))
	for i, id := range ids {
		out[i] = plan.Task{ID: id, StartDate: start}
	}
	return out
}

func fs(from, to string) plan.Relation {
	return plan.Relation{FromLineID: from, ToLineID: to, DependencyType: plan.FinishToStart}
}

func TestBuild_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	g, err := Build(tasks("a", "b", "c", "d"), []plan.Relation{
		fs("a", "b"), fs("a", "c"), fs("b", "d"), fs("c", "d"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.TaskCount() != 4 {
		t.Errorf("expected 4 tasks, got %d", g.TaskCount())
	}
	if g.EdgeCount() != 4 {
		t.Errorf("expected 4 edges, got %d", g.EdgeCount())
	}
	if diff := cmp.Diff([]string{"a"}, g.Roots); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"d"}, g.Leaves); diff != "" {
		t.Errorf("leaves mismatch (-want +got):\n%s", diff)
	}
	if adj := g.Adj["a"]; len(adj) != 2 {
		t.Errorf("expected a to have 2 successors, got %v", adj)
	}
	if rev := g.RevAdj["d"]; len(rev) != 2 {
		t.Errorf("expected d to have 2 predecessors, got %v", rev)
	}
}

func TestBuild_KeepsRelationOrder(t *testing.T) {
	g, err := Build(tasks("a", "b", "c"), []plan.Relation{
		fs("c", "b"),
		{FromLineID: "a", ToLineID: "b", DependencyType: plan.StartToStart, Lag: 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Edge{
		{From: "c", To: "b", Type: plan.FinishToStart},
		{From: "a", To: "b", Type: plan.StartToStart, Lag: 3},
	}
	if diff := cmp.Diff(want, g.RevAdj["b"]); diff != "" {
		t.Errorf("incoming edges mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_DefaultsEmptyDependencyType(t *testing.T) {
	g, err := Build(tasks("a", "b"), []plan.Relation{{FromLineID: "a", ToLineID: "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := g.Adj["a"][0].Type; got != plan.FinishToStart {
		t.Errorf("expected finish-to-start, got %q", got)
	}
}

func TestBuild_SingleTask(t *testing.T) {
	g, err := Build(tasks("x"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TaskCount() != 1 {
		t.Errorf("expected 1 task, got %d", g.TaskCount())
	}
	if g.HasEdges() {
		t.Error("expected no edges")
	}
	if g.Connected("x") {
		t.Error("isolated task should not be connected")
	}
	if len(g.Roots) != 1 || len(g.Leaves) != 1 {
		t.Errorf("expected x to be both root and leaf, got roots=%v leaves=%v", g.Roots, g.Leaves)
	}
}

func TestBuild_MissingEndpointsDropped(t *testing.T) {
	rels := []plan.Relation{fs("a", "z"), fs("y", "b"), fs("a", "b")}
	g, err := Build(tasks("a", "b"), rels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.EdgeCount() != 1 {
		t.Errorf("expected only a -> b to survive, got %d edges", g.EdgeCount())
	}
	if _, ok := g.Adj["y"]; ok {
		t.Error("unknown source should not get an adjacency entry")
	}
	if _, ok := g.RevAdj["z"]; ok {
		t.Error("unknown target should not get a reverse adjacency entry")
	}
	if diff := cmp.Diff(rels[:2], g.Dropped); diff != "" {
		t.Errorf("dropped mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_SelfLoopKept(t *testing.T) {
	g, err := Build(tasks("a"), []plan.Relation{fs("a", "a")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Adj["a"]) != 1 || len(g.RevAdj["a"]) != 1 {
		t.Errorf("expected self loop in both adjacency maps, got adj=%v rev=%v", g.Adj["a"], g.RevAdj["a"])
	}
}

func TestBuild_DuplicateIDsKeepFirst(t *testing.T) {
	in := tasks("a", "a", "b")
	in[1].Name = "second"
	g, err := Build(in, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TaskCount() != 2 {
		t.Errorf("expected 2 tasks, got %d", g.TaskCount())
	}
	if g.Tasks["a"].Name != "" {
		t.Errorf("expected first occurrence of a, got %q", g.Tasks["a"].Name)
	}
}

func TestBuild_EmptyIDRejected(t *testing.T) {
	_, err := Build([]plan.Task{{StartDate: start}}, nil)
	if !errors.Is(err, ErrInvalidGraph) {
		t.Fatalf("expected ErrInvalidGraph, got %v", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	g, err := Build(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.TaskCount() != 0 {
		t.Errorf("expected 0 tasks, got %d", g.TaskCount())
	}
	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	in := tasks("a", "b")
	rels := []plan.Relation{{FromLineID: "a", ToLineID: "b"}}
	if _, err := Build(in, rels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rels[0].DependencyType != "" {
		t.Errorf("input relation was modified: %+v", rels[0])
	}
}

func TestDetectCycle_NoCycle(t *testing.T) {
	g, _ := Build(tasks("a", "b", "c"), []plan.Relation{fs("a", "b"), fs("a", "c"), fs("b", "c")})
	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}

func TestDetectCycle_TwoNode(t *testing.T) {
	g, _ := Build(tasks("a", "b"), []plan.Relation{fs("a", "b"), fs("b", "a")})
	cycle := g.DetectCycle()
	if diff := cmp.Diff([]string{"a", "b", "a"}, cycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectCycle_ThreeNode(t *testing.T) {
	// A -> B -> C -> A, reached from an acyclic prefix
	g, _ := Build(tasks("s", "a", "b", "c"), []plan.Relation{
		fs("s", "a"), fs("a", "b"), fs("b", "c"), fs("c", "a"),
	})
	cycle := g.DetectCycle()
	if diff := cmp.Diff([]string{"a", "b", "c", "a"}, cycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectCycle_SelfLoop(t *testing.T) {
	g, _ := Build(tasks("a", "b"), []plan.Relation{fs("a", "b"), fs("b", "b")})
	cycle := g.DetectCycle()
	if diff := cmp.Diff([]string{"b", "b"}, cycle); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectCycle_DisconnectedComponent(t *testing.T) {
	// The cycle lives in a component that is not reachable from the first task.
	g, _ := Build(tasks("a", "b", "x", "y"), []plan.Relation{
		fs("a", "b"), fs("x", "y"), fs("y", "x"),
	})
	if cycle := g.DetectCycle(); cycle == nil {
		t.Fatal("expected cycle in second component, got nil")
	}
}

func TestDetectCycle_LongChain(t *testing.T) {
	const n = 20000
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "t" + strconv.Itoa(i)
	}
	var rels []plan.Relation
	for i := 1; i < n; i++ {
		rels = append(rels, fs(ids[i-1], ids[i]))
	}
	g, _ := Build(tasks(ids...), rels)
	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle in a chain, got cycle of length %d", len(cycle))
	}
}

func TestTopoOrder(t *testing.T) {
	g, _ := Build(tasks("d", "c", "b", "a"), []plan.Relation{
		fs("a", "b"), fs("a", "c"), fs("b", "d"), fs("c", "d"),
	})
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestTopoOrder_Cycle(t *testing.T) {
	g, _ := Build(tasks("a", "b", "c"), []plan.Relation{fs("a", "b"), fs("b", "c"), fs("c", "a")})
	_, err := g.TopoOrder()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	var ge *GraphError
	if !errors.As(err, &ge) || len(ge.Cycle) != 4 {
		t.Errorf("expected cycle path of 4 ids, got %v", err)
	}
	t.Logf("cycle error (expected): %v", err)
}

func TestFilter(t *testing.T) {
	in := tasks("a", "b", "c")
	in[2].TimelineID = "other"
	g, _ := Build(in, []plan.Relation{fs("a", "b"), fs("b", "c")})

	filtered, err := g.Filter(func(t *plan.Task) bool { return t.TimelineID == "" })
	if err != nil {
		t.Fatalf("unexpected filter error: %v", err)
	}
	if filtered.TaskCount() != 2 {
		t.Errorf("expected 2 tasks after filter, got %d", filtered.TaskCount())
	}
	if _, ok := filtered.Tasks["c"]; ok {
		t.Error("task c should have been filtered out")
	}
	if filtered.EdgeCount() != 1 {
		t.Errorf("expected only a -> b to remain, got %d edges", filtered.EdgeCount())
	}
	if len(filtered.Dropped) != 0 {
		t.Errorf("filter should not report dropped relations, got %v", filtered.Dropped)
	}
}

func TestFilter_KeepsRelationOrder(t *testing.T) {
	// Edges into x are listed a first, but b comes first in task order.
	g, _ := Build(tasks("b", "a", "x"), []plan.Relation{fs("a", "x"), fs("b", "x")})

	filtered, err := g.Filter(func(*plan.Task) bool { return true })
	if err != nil {
		t.Fatalf("unexpected filter error: %v", err)
	}
	if diff := cmp.Diff(g.Edges, filtered.Edges); diff != "" {
		t.Errorf("edge order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.RevAdj["x"], filtered.RevAdj["x"]); diff != "" {
		t.Errorf("incoming edge order mismatch (-want +got):\n%s", diff)
	}
}
