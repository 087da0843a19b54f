package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harrisonrobin/planboard/pkg/colors"
	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/session"
	"github.com/harrisonrobin/planboard/pkg/util"
	"github.com/harrisonrobin/planboard/pkg/variance"
)

// ShortID is the number of ID characters shown in tables.
const ShortID = 8

// Row is a task with its 1-based position in the dataset.
type Row struct {
	N    int
	Task model.Task
}

// Renderer turns planning data into styled text.
type Renderer struct {
	Styles  Styles
	Palette *colors.Palette
}

// New returns a Renderer with the default styles and owner palette.
func New() *Renderer {
	return &Renderer{Styles: DefaultStyles(), Palette: colors.NewPalette()}
}

// Rows numbers tasks by their position in all. Tasks not found in all get 0.
func Rows(all, tasks []model.Task) []Row {
	pos := make(map[string]int, len(all))
	for i, t := range all {
		pos[t.ID] = i + 1
	}
	rows := make([]Row, len(tasks))
	for i, t := range tasks {
		rows[i] = Row{N: pos[t.ID], Task: t}
	}
	return rows
}

// Summary renders the KPI block.
func (r *Renderer) Summary(s variance.Summary, ref model.Date) string {
	st := r.Styles
	kpi := func(label, value string) string {
		return st.Label.Render(label) + " " + st.Value.Render(value)
	}

	parts := []string{kpi("Total projects", strconv.Itoa(s.Total))}
	for _, status := range statusOrder(s.ByStatus) {
		parts = append(parts, kpi(status, strconv.Itoa(s.ByStatus[status])))
	}
	parts = append(parts, kpi("Mean progress", fmt.Sprintf("%.1f%%", s.MeanProgress)))

	delayed := kpi("Delayed", strconv.Itoa(s.Delayed))
	if s.Delayed > 0 {
		delayed = st.Label.Render("Delayed") + " " + st.Late.Render(strconv.Itoa(s.Delayed))
	}
	parts = append(parts, delayed)

	return st.Title.Render("Planning as of "+ref.String()) + "\n" +
		strings.Join(parts, st.Muted.Render("  ·  ")) + "\n"
}

// Tasks renders the task table. Late rows are flagged in the last column.
func (r *Renderer) Tasks(title string, rows []Row) string {
	g := &grid{
		title:   title,
		headers: []string{"#", "ID", "Project", "Owner", "Start", "End", "Status", "Progress%", "Expected%", "Delay%", "Alert"},
	}
	for _, row := range rows {
		t := row.Task
		alert := ""
		if t.Late() {
			alert = "LATE"
		}
		g.add(strconv.Itoa(row.N), short(t.ID), t.Project, t.Owner,
			util.FormatDate(t.Start), util.FormatDate(t.End), t.Status,
			util.FormatFloat(t.Progress), util.FormatFloat(t.Expected), util.FormatFloat(t.Delay), alert)
	}
	g.style = func(i, col int) (lipgloss.Style, bool) {
		t := rows[i].Task
		switch {
		case col == 3:
			return r.owner(t.Owner), true
		case col >= 9 && t.Late():
			return r.Styles.Late, true
		}
		return lipgloss.Style{}, false
	}
	return g.render(r.Styles)
}

// Top renders the largest delays.
func (r *Renderer) Top(rows []Row) string {
	g := &grid{title: "Top delays", headers: []string{"#", "Project", "Owner", "Delay%"}}
	for _, row := range rows {
		g.add(strconv.Itoa(row.N), row.Task.Project, row.Task.Owner, util.FormatFloat(row.Task.Delay))
	}
	g.style = func(i, col int) (lipgloss.Style, bool) {
		if col == 2 {
			return r.owner(rows[i].Task.Owner), true
		}
		return lipgloss.Style{}, false
	}
	return g.render(r.Styles)
}

// Breakdown renders row counts per owner and status as a matrix.
func (r *Renderer) Breakdown(cells []session.Cell) string {
	counts := make(map[string]map[string]int)
	var owners []string
	seenStatus := make(map[string]int)
	for _, c := range cells {
		if counts[c.Owner] == nil {
			counts[c.Owner] = make(map[string]int)
			owners = append(owners, c.Owner)
		}
		counts[c.Owner][c.Status] += c.Count
		seenStatus[c.Status] += c.Count
	}
	statuses := statusOrder(seenStatus)

	g := &grid{title: "Projects by owner and status", headers: append([]string{"Owner"}, statuses...)}
	for _, o := range owners {
		row := []string{o}
		for _, s := range statuses {
			row = append(row, strconv.Itoa(counts[o][s]))
		}
		g.add(row...)
	}
	g.style = func(i, col int) (lipgloss.Style, bool) {
		if col == 0 {
			return r.owner(owners[i]), true
		}
		return lipgloss.Style{}, false
	}
	return g.render(r.Styles)
}

func (r *Renderer) owner(name string) lipgloss.Style {
	if r.Palette == nil {
		return r.Styles.Body
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(r.Palette.Color(name)))
}

// statusOrder lists the known statuses first, then any others sorted.
func statusOrder(counts map[string]int) []string {
	var out []string
	known := make(map[string]bool)
	for _, s := range model.Statuses {
		known[s] = true
		if counts[s] > 0 {
			out = append(out, s)
		}
	}
	var rest []string
	for s, n := range counts {
		if !known[s] && n > 0 {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func short(id string) string {
	if len(id) > ShortID {
		return id[:ShortID]
	}
	return id
}
