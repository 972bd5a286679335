package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultLayouts are the date layouts tried, in order, when none are configured.
var DefaultLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// Load reads a plan document from disk.
func Load(path string, layouts []string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	p, err := Parse(data, layouts)
	if err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a plan document exported by the planning store. Lines need an
// id and a start date; everything else is optional. Relations are kept even
// when they reference unknown lines so the graph layer can decide what to do
// with them.
func Parse(data []byte, layouts []string) (*Plan, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	doc := gjson.ParseBytes(data)
	p := &Plan{}

	for _, tl := range doc.Get("timelines").Array() {
		p.Timelines = append(p.Timelines, Timeline{
			ID:   tl.Get("id").String(),
			Name: tl.Get("name").String(),
		})
	}

	for i, ln := range doc.Get("lines").Array() {
		t, err := parseTask(ln, layouts)
		if err != nil {
			return nil, fmt.Errorf("lines[%d]: %w", i, err)
		}
		p.Tasks = append(p.Tasks, t)
	}

	for i, rel := range doc.Get("relations").Array() {
		r, err := parseRelation(rel)
		if err != nil {
			return nil, fmt.Errorf("relations[%d]: %w", i, err)
		}
		p.Relations = append(p.Relations, r)
	}

	return p, nil
}

func parseTask(ln gjson.Result, layouts []string) (Task, error) {
	id := ln.Get("id").String()
	if id == "" {
		return Task{}, errors.New("missing id")
	}
	t := Task{
		ID:         id,
		TimelineID: ln.Get("timelineId").String(),
		Name:       ln.Get("name").String(),
	}

	start, err := parseDate(ln.Get("startDate").String(), layouts)
	if err != nil {
		return Task{}, fmt.Errorf("line %s startDate: %w", id, err)
	}
	t.StartDate = start

	if end := ln.Get("endDate"); end.Exists() && end.Type != gjson.Null && end.String() != "" {
		ed, err := parseDate(end.String(), layouts)
		if err != nil {
			return Task{}, fmt.Errorf("line %s endDate: %w", id, err)
		}
		t.EndDate = &ed
	}

	if attrs := ln.Get("attributes"); attrs.IsObject() {
		t.Attributes = json.RawMessage(attrs.Raw)
	}
	return t, nil
}

func parseRelation(rel gjson.Result) (Relation, error) {
	dt, err := ParseDependencyType(rel.Get("dependencyType").String())
	if err != nil {
		return Relation{}, err
	}
	return Relation{
		ID:             rel.Get("id").String(),
		FromLineID:     rel.Get("fromLineId").String(),
		ToLineID:       rel.Get("toLineId").String(),
		DependencyType: dt,
		Lag:            int(rel.Get("lag").Int()),
	}, nil
}

func parseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (layouts: %s)", s, strings.Join(layouts, ", "))
}
