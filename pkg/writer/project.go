// Package writer generates a long text page range by page range through a
// language model and bundles the result.
package writer

import (
	"errors"
	"fmt"
	"strings"
)

// Bounds of a writing project.
const (
	MaxPages        = 10000
	MinWordsPerPage = 50
	MaxWordsPerPage = 2000
	MaxPagesPerLot  = 100
)

var ErrInvalidProject = errors.New("invalid project")

// Project describes the text to generate.
type Project struct {
	Title        string
	TotalPages   int
	WordsPerPage int
	PagesPerLot  int
	Language     string
}

// Validate checks the project against the supported bounds.
func (p Project) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: title is empty", ErrInvalidProject)
	case p.TotalPages < 1 || p.TotalPages > MaxPages:
		return fmt.Errorf("%w: pages must be between 1 and %d", ErrInvalidProject, MaxPages)
	case p.WordsPerPage < MinWordsPerPage || p.WordsPerPage > MaxWordsPerPage:
		return fmt.Errorf("%w: words per page must be between %d and %d", ErrInvalidProject, MinWordsPerPage, MaxWordsPerPage)
	case p.PagesPerLot < 1 || p.PagesPerLot > MaxPagesPerLot:
		return fmt.Errorf("%w: pages per lot must be between 1 and %d", ErrInvalidProject, MaxPagesPerLot)
	}
	return nil
}

// Lot is an inclusive 1-based page range generated in one request.
type Lot struct {
	Start int
	End   int
}

func (l Lot) String() string {
	return fmt.Sprintf("p%d-p%d", l.Start, l.End)
}

// Lots splits total pages into consecutive ranges of at most per pages.
func Lots(total, per int) []Lot {
	if total < 1 || per < 1 {
		return nil
	}
	lots := make([]Lot, 0, (total+per-1)/per)
	for s := 1; s <= total; s += per {
		lots = append(lots, Lot{Start: s, End: min(s+per-1, total)})
	}
	return lots
}

// SystemPrompt sets the model's role and length constraint.
func (p Project) SystemPrompt() string {
	return fmt.Sprintf("You are a writer. Keep strictly to %d words per page and to the requested format.", p.WordsPerPage)
}

// UserPrompt asks for one lot of pages.
func (p Project) UserPrompt(l Lot) string {
	lang := p.Language
	if lang == "" {
		lang = "French"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write pages %d to %d of '%s'. Constraints:\n", l.Start, l.End, p.Title)
	fmt.Fprintf(&b, "• Each page is about %d words\n", p.WordsPerPage)
	b.WriteString("• Footnotes at the end of each page\n")
	b.WriteString("• Subheadings where needed\n")
	b.WriteString("• No intermediate summary\n")
	fmt.Fprintf(&b, "• Language: %s, clear and structured\n", lang)
	return b.String()
}
