package cpm

import "github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/graph"

// Result holds the complete critical path analysis. All times are day
// offsets from the project start (day 0).
type Result struct {
	Tasks         map[string]*TaskSchedule
	CriticalPath  []string // ordered task IDs, first to last
	ProjectFinish int      // latest earliest-finish over all tasks
	Waves         []Wave   // tasks grouped by earliest start day
	TopoOrder     []string
}

// TaskSchedule holds the scheduling info for a single task.
type TaskSchedule struct {
	TaskID     string
	Duration   int
	ES, EF     int // earliest start/finish
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
	Wave       int

	// Predecessor is the incoming edge that fixed ES; nil for tasks
	// without incoming edges.
	Predecessor *graph.Edge
}

// Wave is a group of tasks that can start on the same day.
type Wave struct {
	Index      int
	Day        int
	TaskIDs    []string
	IsCritical bool // true if wave contains critical tasks
}
