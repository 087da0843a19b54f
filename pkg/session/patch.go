package session

import (
	"errors"
	"fmt"

	"github.com/harrisonrobin/planboard/pkg/model"
)

var ErrInvalidPatch = errors.New("invalid patch")

// Patch is a cell-level edit of one row. Nil fields are left untouched; the
// Clear flags set an optional field back to absent.
type Patch struct {
	Project  *string
	Owner    *string
	Status   *string
	Start    *model.Date
	End      *model.Date
	Progress *float64
	Extra    map[string]string

	ClearStart    bool
	ClearEnd      bool
	ClearProgress bool
}

// Validate rejects contradictory or out-of-range edits.
func (p Patch) Validate() error {
	if p.ClearStart && p.Start != nil {
		return fmt.Errorf("%w: start both set and cleared", ErrInvalidPatch)
	}
	if p.ClearEnd && p.End != nil {
		return fmt.Errorf("%w: end both set and cleared", ErrInvalidPatch)
	}
	if p.ClearProgress && p.Progress != nil {
		return fmt.Errorf("%w: progress both set and cleared", ErrInvalidPatch)
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return fmt.Errorf("%w: progress %v outside [0,100]", ErrInvalidPatch, *p.Progress)
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Project == nil && p.Owner == nil && p.Status == nil &&
		p.Start == nil && p.End == nil && p.Progress == nil && len(p.Extra) == 0 &&
		!p.ClearStart && !p.ClearEnd && !p.ClearProgress
}

func (p Patch) apply(t *model.Task) {
	if p.Project != nil {
		t.Project = *p.Project
	}
	if p.Owner != nil {
		t.Owner = *p.Owner
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	switch {
	case p.ClearStart:
		t.Start = nil
	case p.Start != nil:
		t.Start = p.Start.Ptr()
	}
	switch {
	case p.ClearEnd:
		t.End = nil
	case p.End != nil:
		t.End = p.End.Ptr()
	}
	switch {
	case p.ClearProgress:
		t.Progress = nil
	case p.Progress != nil:
		t.Progress = model.Float(*p.Progress)
	}
	for k, v := range p.Extra {
		if t.Extra == nil {
			t.Extra = make(map[string]string)
		}
		t.Extra[k] = v
	}
}
