// Package variance derives expected progress and delay for planning rows.
//
// Expected progress assumes linear progress between a task's start and end
// dates, evaluated as of a reference date. Delay is the shortfall of the
// reported progress against that expectation, never negative. Both values
// are undefined when either date is missing.
package variance

import (
	"math"
	"time"

	"github.com/harrisonrobin/planboard/pkg/model"
)

// Today returns now normalized to a date with no time component.
func Today(now time.Time) model.Date {
	return model.DateOf(now)
}

// Compute returns the expected progress and delay of a task as of ref.
// A nil reported progress counts as 0 for the delay.
func Compute(start, end *model.Date, reported *float64, ref model.Date) (expected, delay *float64) {
	if start == nil || end == nil {
		return nil, nil
	}

	var exp float64
	// Order matters: a same-day range evaluated on that day hits the first
	// branch and expects 0.
	switch {
	case !ref.After(start.Time):
		exp = 0
	case !ref.Before(end.Time):
		exp = 100
	default:
		total := end.DaysSince(*start)
		elapsed := ref.DaysSince(*start)
		if total > 0 {
			exp = math.Floor(float64(elapsed) / float64(total) * 100)
		}
	}

	done := 0.0
	if reported != nil {
		done = *reported
	}
	return model.Float(exp), model.Float(math.Max(0, exp-done))
}

// Apply returns a copy of tasks with Expected and Delay recomputed for every
// row as of the same reference date. The input slice is left untouched.
func Apply(tasks []model.Task, ref model.Date) []model.Task {
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		c := t.Clone()
		c.Expected, c.Delay = Compute(c.Start, c.End, c.Progress, ref)
		out[i] = c
	}
	return out
}

// Summary holds the KPI counts of a dataset.
type Summary struct {
	Total        int            `json:"total"`
	ByStatus     map[string]int `json:"by_status"`
	MeanProgress float64        `json:"mean_progress"`
	Delayed      int            `json:"delayed"`
}

// Summarize counts rows, rows per status and delayed rows, and averages the
// reported progress over rows where it is defined (0 when none are). Rows
// with no status count toward Total only.
func Summarize(tasks []model.Task) Summary {
	s := Summary{Total: len(tasks), ByStatus: make(map[string]int)}
	var sum float64
	var n int
	for _, t := range tasks {
		if t.Status != "" {
			s.ByStatus[t.Status]++
		}
		if t.Progress != nil {
			sum += *t.Progress
			n++
		}
		if t.Late() {
			s.Delayed++
		}
	}
	if n > 0 {
		s.MeanProgress = sum / float64(n)
	}
	return s
}
