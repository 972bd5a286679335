package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DependencyType says which boundary of the predecessor constrains which
// boundary of the successor.
type DependencyType string

const (
	FinishToStart  DependencyType = "finish-to-start"
	StartToStart   DependencyType = "start-to-start"
	FinishToFinish DependencyType = "finish-to-finish"
	StartToFinish  DependencyType = "start-to-finish"
)

// ParseDependencyType accepts the long and the two-letter spellings in any
// case. An empty string means finish-to-start.
func ParseDependencyType(s string) (DependencyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fs", string(FinishToStart):
		return FinishToStart, nil
	case "ss", string(StartToStart):
		return StartToStart, nil
	case "ff", string(FinishToFinish):
		return FinishToFinish, nil
	case "sf", string(StartToFinish):
		return StartToFinish, nil
	}
	return "", fmt.Errorf("unknown dependency type %q", s)
}

// Short returns the two-letter abbreviation (FS, SS, FF, SF).
func (d DependencyType) Short() string {
	switch d {
	case StartToStart:
		return "SS"
	case FinishToFinish:
		return "FF"
	case StartToFinish:
		return "SF"
	default:
		return "FS"
	}
}

// Timeline is a named lane of tasks. Only the CLI uses it, for grouping.
type Timeline struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is a single schedulable line on a timeline.
type Task struct {
	ID         string          `json:"id"`
	TimelineID string          `json:"timelineId,omitempty"`
	Name       string          `json:"name,omitempty"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    *time.Time      `json:"endDate,omitempty"` // nil for milestones
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// IsMilestone reports whether the task has no end date.
func (t *Task) IsMilestone() bool {
	return t.EndDate == nil
}

// Duration returns the task length in whole days. Milestones and tasks whose
// end precedes their start have duration 0.
func (t *Task) Duration() int {
	if t.IsMilestone() {
		return 0
	}
	d := daysBetween(t.StartDate, *t.EndDate)
	if d < 0 {
		return 0
	}
	return d
}

// daysBetween counts calendar days between the two dates, ignoring the time
// of day and DST shifts. Both dates are read in the location of from.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.In(from.Location()).Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Relation is a directed dependency between two tasks.
type Relation struct {
	ID             string         `json:"id,omitempty"`
	FromLineID     string         `json:"fromLineId"`
	ToLineID       string         `json:"toLineId"`
	DependencyType DependencyType `json:"dependencyType"`
	Lag            int            `json:"lag,omitempty"` // days, may be negative
}

// IsSelfLoop reports whether the relation points a task at itself.
func (r *Relation) IsSelfLoop() bool {
	return r.FromLineID == r.ToLineID
}

func (r Relation) String() string {
	s := fmt.Sprintf("%s -%s-> %s", r.FromLineID, r.DependencyType.Short(), r.ToLineID)
	if r.Lag != 0 {
		s += fmt.Sprintf(" (lag %+d)", r.Lag)
	}
	return s
}

// Plan is a loaded plan document.
type Plan struct {
	Timelines []Timeline `json:"timelines"`
	Tasks     []Task     `json:"lines"`
	Relations []Relation `json:"relations"`
}

// TimelineName returns the display name of a timeline, falling back to its id.
func (p *Plan) TimelineName(id string) string {
	for _, tl := range p.Timelines {
		if tl.ID == id && tl.Name != "" {
			return tl.Name
		}
	}
	return id
}
