package model

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Known status labels. Status is free text; these are the values the
// add form offers and the KPI line counts explicitly.
const (
	StatusPlanned    = "Planned"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
	StatusBlocked    = "Blocked"
)

// Statuses lists the known labels in display order.
var Statuses = []string{StatusPlanned, StatusInProgress, StatusDone, StatusBlocked}

// Task is one row of the planning sheet.
type Task struct {
	ID       string   `json:"id"`
	Project  string   `json:"project"`
	Owner    string   `json:"owner"`
	Start    *Date    `json:"start_date,omitempty"`
	End      *Date    `json:"end_date,omitempty"`
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"`

	// Derived by the variance engine; never set by hand.
	Expected *float64 `json:"expected_progress,omitempty"`
	Delay    *float64 `json:"delay,omitempty"`

	// Values of sheet columns outside the six-column contract, keyed by header.
	Extra map[string]string `json:"extra,omitempty"`
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	c.Start = t.Start.clone()
	c.End = t.End.clone()
	c.Progress = cloneFloat(t.Progress)
	c.Expected = cloneFloat(t.Expected)
	c.Delay = cloneFloat(t.Delay)
	if t.Extra != nil {
		c.Extra = maps.Clone(t.Extra)
	}
	return c
}

// Late reports whether the task has a defined, positive delay.
func (t Task) Late() bool {
	return t.Delay != nil && *t.Delay > 0
}

// Dataset is the ordered working table plus the names of the extra columns
// it carries, in sheet order.
type Dataset struct {
	Extra []string `json:"extra_columns,omitempty"`
	Tasks []Task   `json:"tasks"`
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	c := Dataset{Extra: slices.Clone(d.Extra)}
	if d.Tasks != nil {
		c.Tasks = make([]Task, len(d.Tasks))
		for i, t := range d.Tasks {
			c.Tasks[i] = t.Clone()
		}
	}
	return c
}

// AssignIDs gives every task without an ID a fresh one.
func (d *Dataset) AssignIDs() {
	for i := range d.Tasks {
		if d.Tasks[i].ID == "" {
			d.Tasks[i].ID = NewID()
		}
	}
}

// NewID returns a new row identifier.
func NewID() string {
	return uuid.NewString()
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
