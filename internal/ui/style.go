package ui

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// SetColor turns ANSI output on or off for every style in this package.
// fatih/color already disables itself when stdout is not a terminal.
func SetColor(enabled bool) {
	if !enabled {
		color.NoColor = true
	}
}

// timelineColors is a palette of distinct bold colors for differentiating timelines.
var timelineColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// timelineColorIndex hashes a timeline ID to a palette index.
func timelineColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(timelineColors)))
}

// TimelineLabel returns a colored [name] label. Each timeline id gets a
// stable color from the palette.
func TimelineLabel(id, name string) string {
	if name == "" {
		name = id
	}
	if name == "" {
		return ""
	}
	c := timelineColors[timelineColorIndex(id)]
	return Dim("[") + c(name) + Dim("]")
}

// CriticalMarker returns the marker shown next to critical tasks.
func CriticalMarker(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// Slack returns a colored slack column value.
func Slack(days int) string {
	switch {
	case days == 0:
		return BoldRed("0d")
	case days <= 2:
		return Yellow(fmt.Sprintf("%dd", days))
	default:
		return Green(fmt.Sprintf("%dd", days))
	}
}

// DependencyLabel returns the short, colored dependency type.
func DependencyLabel(t plan.DependencyType) string {
	switch t {
	case plan.StartToStart:
		return Cyan(t.Short())
	case plan.FinishToFinish:
		return Yellow(t.Short())
	case plan.StartToFinish:
		return BoldMagenta(t.Short())
	default:
		return Dim(t.Short())
	}
}

// CheckStatus returns a colored ok/fail icon for validation output.
func CheckStatus(ok bool) string {
	if ok {
		return Green("✓")
	}
	return Red("✗")
}
