package session

import (
	"cmp"
	"slices"

	"github.com/harrisonrobin/planboard/pkg/model"
)

// Alert selects rows by delay.
type Alert string

const (
	AlertAll  Alert = ""
	AlertLate Alert = "late"
	AlertOK   Alert = "ok"
)

// Filter narrows the table. Empty owner or status sets match every row.
type Filter struct {
	Owners   []string
	Statuses []string
	Alert    Alert
}

// Match reports whether t passes the filter.
func (f Filter) Match(t model.Task) bool {
	if len(f.Owners) > 0 && !slices.Contains(f.Owners, t.Owner) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	switch f.Alert {
	case AlertLate:
		return t.Late()
	case AlertOK:
		return !t.Late()
	}
	return true
}

// Filtered returns copies of the rows matching f, in table order.
func (s *Session) Filtered(f Filter) []model.Task {
	var out []model.Task
	for _, t := range s.ds.Tasks {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Owners returns the distinct non-empty owners, sorted.
func (s *Session) Owners() []string {
	return distinct(s.ds.Tasks, func(t model.Task) string { return t.Owner })
}

// Statuses returns the distinct non-empty statuses, sorted.
func (s *Session) Statuses() []string {
	return distinct(s.ds.Tasks, func(t model.Task) string { return t.Status })
}

// DefaultOwners is the owner preselection of the dashboard: the first three
// owners when there are more than three, otherwise all of them.
func (s *Session) DefaultOwners() []string {
	owners := s.Owners()
	if len(owners) > 3 {
		return owners[:3]
	}
	return owners
}

// TopDelays returns up to n rows with a defined delay, largest first. Ties
// keep table order.
func (s *Session) TopDelays(n int) []model.Task {
	var rows []model.Task
	for _, t := range s.ds.Tasks {
		if t.Delay != nil {
			rows = append(rows, t.Clone())
		}
	}
	slices.SortStableFunc(rows, func(a, b model.Task) int {
		return cmp.Compare(*b.Delay, *a.Delay)
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Cell is one owner x status count.
type Cell struct {
	Owner  string `json:"owner"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Breakdown counts rows per owner and status, sorted by owner then status.
// Rows without an owner or status are left out.
func (s *Session) Breakdown() []Cell {
	counts := make(map[[2]string]int)
	for _, t := range s.ds.Tasks {
		if t.Owner == "" || t.Status == "" {
			continue
		}
		counts[[2]string{t.Owner, t.Status}]++
	}
	out := make([]Cell, 0, len(counts))
	for k, n := range counts {
		out = append(out, Cell{Owner: k[0], Status: k[1], Count: n})
	}
	slices.SortFunc(out, func(a, b Cell) int {
		return cmp.Or(cmp.Compare(a.Owner, b.Owner), cmp.Compare(a.Status, b.Status))
	})
	return out
}

func distinct(tasks []model.Task, key func(model.Task) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tasks {
		k := key(t)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
