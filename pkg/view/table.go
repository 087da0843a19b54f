package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// grid is a static table with optional per-cell styles.
type grid struct {
	title   string
	headers []string
	rows    [][]string
	// style, if set, overrides the body style of a cell.
	style func(row, col int) (lipgloss.Style, bool)
}

func (g *grid) add(row ...string) {
	g.rows = append(g.rows, row)
}

func (g *grid) render(styles Styles) string {
	var sb strings.Builder
	if g.title != "" {
		sb.WriteString(styles.Title.Render(g.title))
		sb.WriteString("\n")
	}
	if len(g.rows) == 0 {
		sb.WriteString(styles.Muted.Render("(no rows)"))
		sb.WriteString("\n")
		return sb.String()
	}

	widths := make([]int, len(g.headers))
	for i, h := range g.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range g.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	// Width includes padding.
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	header := styles.Bold.Padding(0, 1)
	body := styles.Body.Padding(0, 1)
	sep := styles.Muted.Render("|")

	for i, h := range g.headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(header.Width(widths[i]).Render(h))
	}
	sb.WriteString("\n")
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for r, row := range g.rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				sb.WriteString(sep)
			}
			st := body
			if g.style != nil {
				if s, ok := g.style(r, i); ok {
					st = s.Padding(0, 1)
				}
			}
			sb.WriteString(st.Width(widths[i]).Render(cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
