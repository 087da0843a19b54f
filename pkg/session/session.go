// Package session holds the working dataset of one interactive session.
//
// Every mutation builds a new task slice, re-derives it with the variance
// engine as of the session's reference date, and only then swaps it in, so
// a failed edit leaves the previous table intact. A Session is not safe for
// concurrent use.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/variance"
)

var ErrRowNotFound = errors.New("row not found")

// MinIDPrefix is the shortest ID prefix Resolve accepts.
const MinIDPrefix = 4

// Session owns a derived dataset and the date it is evaluated against.
type Session struct {
	ds    model.Dataset
	asOf  *model.Date
	clock func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the wall clock used when no fixed reference date is set.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.clock = now }
}

// AsOf pins the reference date.
func AsOf(d model.Date) Option {
	return func(s *Session) { s.asOf = &d }
}

// New starts a session on a copy of ds and derives it.
func New(ds model.Dataset, opts ...Option) *Session {
	s := &Session{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.Replace(ds)
	return s
}

// RefDate returns the date the dataset is evaluated against.
func (s *Session) RefDate() model.Date {
	if s.asOf != nil {
		return *s.asOf
	}
	return variance.Today(s.clock())
}

// Dataset returns a copy of the current derived dataset.
func (s *Session) Dataset() model.Dataset {
	return s.ds.Clone()
}

// Tasks returns a copy of the current derived rows.
func (s *Session) Tasks() []model.Task {
	return s.ds.Clone().Tasks
}

// Len returns the number of rows.
func (s *Session) Len() int {
	return len(s.ds.Tasks)
}

// Replace discards the current table and loads ds in its place.
func (s *Session) Replace(ds model.Dataset) {
	c := ds.Clone()
	c.AssignIDs()
	c.Tasks = variance.Apply(c.Tasks, s.RefDate())
	s.ds = c
}

// Refresh re-derives the table, e.g. after the reference date moved.
func (s *Session) Refresh() {
	s.ds.Tasks = variance.Apply(s.ds.Tasks, s.RefDate())
}

// Summary returns the KPI counts of the current table.
func (s *Session) Summary() variance.Summary {
	return variance.Summarize(s.ds.Tasks)
}

// Get returns a copy of the row with the given ID.
func (s *Session) Get(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	return s.ds.Tasks[i].Clone(), nil
}

// Add appends a row and returns it with its ID and derived values set.
func (s *Session) Add(t model.Task) model.Task {
	row := t.Clone()
	row.ID = model.NewID()
	row.Expected, row.Delay = nil, nil
	if len(s.ds.Extra) > 0 && row.Extra == nil {
		row.Extra = make(map[string]string, len(s.ds.Extra))
	}
	for name := range row.Extra {
		if !slices.Contains(s.ds.Extra, name) {
			s.ds.Extra = append(s.ds.Extra, name)
		}
	}

	s.commit(append(s.ds.Clone().Tasks, row))
	return s.ds.Tasks[len(s.ds.Tasks)-1].Clone()
}

// Edit applies p to the row with the given ID.
func (s *Session) Edit(id string, p Patch) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	if err := p.Validate(); err != nil {
		return model.Task{}, err
	}

	tasks := s.ds.Clone().Tasks
	p.apply(&tasks[i])
	for name := range p.Extra {
		if !slices.Contains(s.ds.Extra, name) {
			s.ds.Extra = append(s.ds.Extra, name)
		}
	}
	s.commit(tasks)
	return s.ds.Tasks[i].Clone(), nil
}

// Delete removes the rows with the given IDs. Unknown IDs fail the whole
// call and nothing is removed.
func (s *Session) Delete(ids ...string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.indexOf(id) < 0 {
			return fmt.Errorf("%w: %s", ErrRowNotFound, id)
		}
		drop[id] = true
	}
	tasks := make([]model.Task, 0, len(s.ds.Tasks))
	for _, t := range s.ds.Tasks {
		if !drop[t.ID] {
			tasks = append(tasks, t.Clone())
		}
	}
	s.commit(tasks)
	return nil
}

// Resolve maps a row reference to an ID. A reference is a row ID, a
// 1-based row number or an unambiguous ID prefix of at least MinIDPrefix
// characters.
func (s *Session) Resolve(ref string) (string, error) {
	if s.indexOf(ref) >= 0 {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.ds.Tasks) {
		return s.ds.Tasks[n-1].ID, nil
	}
	if len(ref) >= MinIDPrefix {
		match := ""
		for _, t := range s.ds.Tasks {
			if strings.HasPrefix(t.ID, ref) {
				if match != "" {
					return "", fmt.Errorf("%w: %s is ambiguous", ErrRowNotFound, ref)
				}
				match = t.ID
			}
		}
		if match != "" {
			return match, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrRowNotFound, ref)
}

func (s *Session) commit(tasks []model.Task) {
	s.ds.Tasks = variance.Apply(tasks, s.RefDate())
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.ds.Tasks, func(t model.Task) bool { return t.ID == id })
}
