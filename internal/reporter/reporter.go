package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/cpm"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/graph"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/ui"
)

const dateLayout = "2006-01-02"

// Reporter renders a critical path analysis for the terminal or as JSON.
type Reporter struct {
	Plan   *plan.Plan
	Graph  *graph.Graph
	Result *cpm.Result // nil when the graph has a cycle
	Cycle  []string
	Anchor time.Time // calendar date of day 0
}

// New creates a new Reporter. Day 0 is anchored at the earliest task start.
func New(p *plan.Plan, g *graph.Graph, result *cpm.Result, cycle []string) *Reporter {
	r := &Reporter{Plan: p, Graph: g, Result: result, Cycle: cycle}
	for i, id := range g.Order {
		if sd := g.Tasks[id].StartDate; i == 0 || sd.Before(r.Anchor) {
			r.Anchor = sd
		}
	}
	return r
}

func (r *Reporter) date(day int) string {
	if r.Anchor.IsZero() {
		return fmt.Sprintf("day %d", day)
	}
	return r.Anchor.AddDate(0, 0, day).Format(dateLayout)
}

func (r *Reporter) criticalPath() []string {
	if r.Result == nil {
		return []string{}
	}
	return r.Result.CriticalPath
}

// PrintPath writes the ordered critical path with per-task dates.
func (r *Reporter) PrintPath(w io.Writer) {
	path := r.criticalPath()
	if len(path) == 0 {
		fmt.Fprintf(w, "%s %s\n", ui.BoldCyan("Critical path:"), ui.Dim("none"))
		if r.Cycle != nil {
			fmt.Fprintf(w, "  %s\n", ui.Red("dependency cycle: "+strings.Join(r.Cycle, " → ")))
		} else if !r.Graph.HasEdges() {
			fmt.Fprintf(w, "  %s\n", ui.Dim("no dependencies between tasks"))
		}
		return
	}

	last := r.Result.Tasks[path[len(path)-1]]
	fmt.Fprintf(w, "%s %s  %s\n",
		ui.BoldCyan("Critical path:"),
		ui.BoldYellow("⚡ "+strings.Join(path, " → ")),
		ui.Dim(fmt.Sprintf("[%d tasks, finishes %s]", len(path), r.date(last.EF))))

	for i, id := range path {
		ts := r.Result.Tasks[id]
		via := ""
		if p := ts.Predecessor; p != nil {
			via = ui.Dim(" via ") + ui.DependencyLabel(p.Type)
			if p.Lag != 0 {
				via += ui.Dim(fmt.Sprintf(" %+dd", p.Lag))
			}
		}
		fmt.Fprintf(w, "  %2d. %s %-30s %s → %s  (%dd)%s\n",
			i+1, ui.BoldMagenta(id), r.taskName(id),
			r.date(ts.ES), r.date(ts.EF), ts.Duration, via)
	}
}

// PrintSchedule writes the full schedule grouped by start day.
func (r *Reporter) PrintSchedule(w io.Writer) {
	if r.Result == nil {
		r.PrintPath(w)
		return
	}

	fmt.Fprintf(w, "%s %s — %d tasks, %d dependencies, finishes %s %s\n\n",
		ui.BoldCyan("📅 Schedule"),
		ui.Dim(r.date(0)),
		r.Graph.TaskCount(), r.Graph.EdgeCount(),
		ui.Bold(r.date(r.Result.ProjectFinish)),
		ui.Dim(fmt.Sprintf("[%d days]", r.Result.ProjectFinish)))

	for _, wave := range r.Result.Waves {
		marker := ""
		if wave.IsCritical {
			marker = " " + ui.BoldYellow("⚡")
		}
		fmt.Fprintf(w, "  %s %s (%d tasks)%s\n", ui.BoldWhite("START"), r.date(wave.Day), len(wave.TaskIDs), marker)

		for _, id := range wave.TaskIDs {
			r.printTask(w, id)
		}
		fmt.Fprintln(w)
	}

	r.PrintPath(w)
}

func (r *Reporter) printTask(w io.Writer, id string) {
	ts := r.Result.Tasks[id]
	t := r.Graph.Tasks[id]

	name := truncate(r.taskName(id), 30)

	fmt.Fprintf(w, "    %s %-10s %-30s ES %-10s EF %-10s slack %s  %s\n",
		ui.CriticalMarker(ts.IsCritical),
		ui.BoldMagenta(id), name,
		r.date(ts.ES), r.date(ts.EF),
		ui.Slack(ts.Slack),
		ui.TimelineLabel(t.TimelineID, r.Plan.TimelineName(t.TimelineID)))
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func (r *Reporter) taskName(id string) string {
	if t, ok := r.Graph.Tasks[id]; ok && t.Name != "" {
		return t.Name
	}
	return ""
}

// PrintValidation writes data-quality findings and reports whether a
// critical path can be computed.
func (r *Reporter) PrintValidation(w io.Writer) bool {
	ok := r.Cycle == nil

	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Plan validation"))
	fmt.Fprintf(w, "  %s %d tasks, %d dependencies\n", ui.CheckStatus(true), r.Graph.TaskCount(), r.Graph.EdgeCount())

	if len(r.Graph.Dropped) == 0 {
		fmt.Fprintf(w, "  %s all relations reference known tasks\n", ui.CheckStatus(true))
	} else {
		fmt.Fprintf(w, "  %s %s\n", ui.Yellow("!"),
			ui.Yellow(fmt.Sprintf("%d relations reference unknown tasks and are ignored:", len(r.Graph.Dropped))))
		for _, rel := range r.Graph.Dropped {
			fmt.Fprintf(w, "      %s %s\n", ui.Dim(rel.ID), rel.String())
		}
	}

	for _, rel := range r.Plan.Relations {
		if rel.IsSelfLoop() {
			fmt.Fprintf(w, "  %s %s %s\n", ui.CheckStatus(false), rel.String(), ui.Red("depends on itself"))
		}
	}

	if ok {
		fmt.Fprintf(w, "  %s no dependency cycles\n", ui.CheckStatus(true))
	} else {
		fmt.Fprintf(w, "  %s %s\n", ui.CheckStatus(false), ui.Red("dependency cycle: "+strings.Join(r.Cycle, " → ")))
	}
	return ok
}

type taskJSON struct {
	TaskID      string `json:"task_id"`
	Name        string `json:"name,omitempty"`
	TimelineID  string `json:"timeline_id,omitempty"`
	Duration    int    `json:"duration"`
	ES          int    `json:"es"`
	EF          int    `json:"ef"`
	LS          int    `json:"ls"`
	LF          int    `json:"lf"`
	Slack       int    `json:"slack"`
	IsCritical  bool   `json:"is_critical"`
	Wave        int    `json:"wave"`
	StartDate   string `json:"start_date,omitempty"`
	FinishDate  string `json:"finish_date,omitempty"`
	Predecessor string `json:"predecessor,omitempty"`
}

type relationJSON struct {
	ID             string `json:"id,omitempty"`
	FromLineID     string `json:"from_line_id"`
	ToLineID       string `json:"to_line_id"`
	DependencyType string `json:"dependency_type"`
	Lag            int    `json:"lag"`
}

type output struct {
	CriticalPath     []string       `json:"critical_path"`
	ProjectFinish    int            `json:"project_finish"`
	StartDate        string         `json:"start_date,omitempty"`
	FinishDate       string         `json:"finish_date,omitempty"`
	Cycle            []string       `json:"cycle,omitempty"`
	DroppedRelations []relationJSON `json:"dropped_relations"`
	Tasks            []taskJSON     `json:"tasks"`
}

// JSON returns the machine-readable analysis. Tasks are listed in
// topological order.
func (r *Reporter) JSON() ([]byte, error) {
	o := output{
		CriticalPath:     r.criticalPath(),
		Cycle:            r.Cycle,
		DroppedRelations: []relationJSON{},
		Tasks:            []taskJSON{},
	}

	for _, rel := range r.Graph.Dropped {
		o.DroppedRelations = append(o.DroppedRelations, relationJSON{
			ID:             rel.ID,
			FromLineID:     rel.FromLineID,
			ToLineID:       rel.ToLineID,
			DependencyType: string(rel.DependencyType),
			Lag:            rel.Lag,
		})
	}

	if r.Result != nil {
		o.ProjectFinish = r.Result.ProjectFinish
		if !r.Anchor.IsZero() {
			o.StartDate = r.date(0)
			o.FinishDate = r.date(r.Result.ProjectFinish)
		}
		for _, id := range r.Result.TopoOrder {
			ts := r.Result.Tasks[id]
			t := r.Graph.Tasks[id]
			tj := taskJSON{
				TaskID:     id,
				Name:       t.Name,
				TimelineID: t.TimelineID,
				Duration:   ts.Duration,
				ES:         ts.ES,
				EF:         ts.EF,
				LS:         ts.LS,
				LF:         ts.LF,
				Slack:      ts.Slack,
				IsCritical: ts.IsCritical,
				Wave:       ts.Wave,
			}
			if !r.Anchor.IsZero() {
				tj.StartDate = r.date(ts.ES)
				tj.FinishDate = r.date(ts.EF)
			}
			if ts.Predecessor != nil {
				tj.Predecessor = ts.Predecessor.From
			}
			o.Tasks = append(o.Tasks, tj)
		}
	}

	return json.MarshalIndent(o, "", "  ")
}
