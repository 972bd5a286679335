package cpm

import (
	"sort"

	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/graph"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
)

// Analyze performs critical path method analysis on a task graph.
// Task duration is end date minus start date in days; milestones have duration 0.
// A graph with a cycle (self loops included) yields a *graph.GraphError
// wrapping graph.ErrCycle.
func Analyze(g *graph.Graph) (*Result, error) {
	if cycle := g.DetectCycle(); cycle != nil {
		return nil, graph.NewCycleError(cycle)
	}
	order, err := g.TopoOrder()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Tasks:        make(map[string]*TaskSchedule, len(order)),
		CriticalPath: []string{},
		TopoOrder:    order,
	}

	for _, id := range order {
		result.Tasks[id] = &TaskSchedule{TaskID: id, Duration: g.Tasks[id].Duration()}
	}

	forwardPass(g, result)

	for _, id := range order {
		if ef := result.Tasks[id].EF; ef > result.ProjectFinish {
			result.ProjectFinish = ef
		}
	}

	backwardPass(g, result)

	result.CriticalPath = extractPath(g, result)
	result.Waves = computeWaves(result)

	return result, nil
}

// forwardPass computes ES and EF in topological order. ES is the largest
// candidate over all incoming edges; on equal candidates the edge listed
// first wins. Tasks without incoming edges start at day 0.
func forwardPass(g *graph.Graph, result *Result) {
	for _, id := range result.TopoOrder {
		ts := result.Tasks[id]
		incoming := g.RevAdj[id]

		for i := range incoming {
			e := &incoming[i]
			cand := startCandidate(e, result.Tasks[e.From], ts.Duration)
			if ts.Predecessor == nil || cand > ts.ES {
				ts.ES = cand
				ts.Predecessor = e
			}
		}
		ts.EF = ts.ES + ts.Duration
	}
}

// startCandidate is the earliest start the edge allows for its target.
func startCandidate(e *graph.Edge, from *TaskSchedule, dur int) int {
	switch e.Type {
	case plan.StartToStart:
		return from.ES + e.Lag
	case plan.FinishToFinish:
		return from.EF + e.Lag - dur
	case plan.StartToFinish:
		return from.ES + e.Lag - dur
	default:
		return from.EF + e.Lag
	}
}

// backwardPass computes LF, LS and slack in reverse topological order.
// No task may finish later than the project finish.
func backwardPass(g *graph.Graph, result *Result) {
	for i := len(result.TopoOrder) - 1; i >= 0; i-- {
		id := result.TopoOrder[i]
		ts := result.Tasks[id]

		lf := result.ProjectFinish
		for j := range g.Adj[id] {
			e := &g.Adj[id][j]
			if bound := finishBound(e, result.Tasks[e.To], ts.Duration); bound < lf {
				lf = bound
			}
		}
		ts.LF = lf
		ts.LS = lf - ts.Duration
		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0 && g.Connected(id)
	}
}

// finishBound is the latest finish the edge allows for its source.
func finishBound(e *graph.Edge, to *TaskSchedule, dur int) int {
	switch e.Type {
	case plan.StartToStart:
		return to.LS - e.Lag + dur
	case plan.FinishToFinish:
		return to.LF - e.Lag
	case plan.StartToFinish:
		return to.LF - e.Lag + dur
	default:
		return to.LS - e.Lag
	}
}

// extractPath walks predecessor links back from the task with the largest
// earliest finish. Only tasks touching at least one edge are candidates;
// ties go to the task listed first. Without edges there is no path.
func extractPath(g *graph.Graph, result *Result) []string {
	end := ""
	best := 0
	for _, id := range g.Order {
		if !g.Connected(id) {
			continue
		}
		if ef := result.Tasks[id].EF; end == "" || ef > best {
			end, best = id, ef
		}
	}
	if end == "" {
		return []string{}
	}

	var path []string
	for cur := end; ; {
		path = append(path, cur)
		pred := result.Tasks[cur].Predecessor
		if pred == nil || len(path) > len(result.TopoOrder) {
			break
		}
		cur = pred.From
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// computeWaves groups tasks by their earliest start day.
func computeWaves(result *Result) []Wave {
	// Group tasks by ES
	esGroups := make(map[int][]string)
	for _, id := range result.TopoOrder {
		es := result.Tasks[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	days := make([]int, 0, len(esGroups))
	for es := range esGroups {
		days = append(days, es)
	}
	sort.Ints(days)

	waves := make([]Wave, len(days))
	for i, day := range days {
		taskIDs := esGroups[day]

		hasCritical := false
		for _, id := range taskIDs {
			result.Tasks[id].Wave = i
			if result.Tasks[id].IsCritical {
				hasCritical = true
			}
		}

		// Critical tasks first, otherwise keep topological order
		sort.SliceStable(taskIDs, func(a, b int) bool {
			return result.Tasks[taskIDs[a]].IsCritical && !result.Tasks[taskIDs[b]].IsCritical
		})

		waves[i] = Wave{
			Index:      i,
			Day:        day,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}

	return waves
}
