package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan, color.Bold)
)

func statusColor(s Status) *color.Color {
	switch s {
	case Passed:
		return green
	case Failed:
		return red
	}
	return yellow
}

// Print writes one line per result followed by the totals.
func (r *Run) Print(w io.Writer) {
	r.mu.Lock()
	results := append([]Result(nil), r.Results...)
	r.mu.Unlock()

	cyan.Fprintf(w, "Course run %s (%s)\n", r.ID, r.Browser)
	for _, res := range results {
		statusColor(res.Status).Fprintf(w, "  %-8s", res.Status)
		fmt.Fprintf(w, " %s/%s (%v)\n", res.Lesson, res.Name, res.Duration.Round(time.Millisecond))
		if res.Error != "" {
			fmt.Fprintf(w, "           %s\n", res.Error)
		}
		if res.Screenshot != "" {
			fmt.Fprintf(w, "           screenshot: %s\n", res.Screenshot)
		}
	}
	s := r.Summary()
	fmt.Fprintf(w, "%d scenarios: ", s.Total)
	green.Fprintf(w, "%d passed", s.Passed)
	fmt.Fprint(w, ", ")
	red.Fprintf(w, "%d failed", s.Failed)
	fmt.Fprint(w, ", ")
	yellow.Fprintf(w, "%d skipped", s.Skipped)
	fmt.Fprintln(w)
}
