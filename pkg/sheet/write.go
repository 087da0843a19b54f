package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/util"
	"github.com/harrisonrobin/planboard/pkg/variance"
)

const (
	DashboardSheet = "Dashboard"
	dateFormat     = "yyyy-mm-dd"
)

// WriteOptions control the XLSX layout.
type WriteOptions struct {
	Options
	// Caption goes in A1 of the Dashboard sheet.
	Caption string
}

// Headers returns the export header row for ds.
func Headers(ds model.Dataset) []string {
	h := slices.Concat(Contract, Derived)
	return append(h, ds.Extra...)
}

// WriteXLSX writes ds as a workbook: the planning sheet with its header on
// the configured row, and a Dashboard sheet holding the caption and the KPI
// counts.
func WriteXLSX(w io.Writer, ds model.Dataset, opts WriteOptions) error {
	opts.Options = opts.Options.withDefaults()
	name := opts.SheetName

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("failed to name sheet %q: %w", name, err)
	}

	headers := Headers(ds)
	if err := setRow(f, name, opts.HeaderRow, &headers); err != nil {
		return err
	}
	for i, t := range ds.Tasks {
		values := rowValues(t, ds.Extra)
		if err := setRow(f, name, opts.HeaderRow+1+i, &values); err != nil {
			return err
		}
	}

	if len(ds.Tasks) > 0 {
		customFmt := dateFormat
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &customFmt})
		if err != nil {
			return fmt.Errorf("failed to create date style: %w", err)
		}
		first, last := opts.HeaderRow+1, opts.HeaderRow+len(ds.Tasks)
		// Start and End are the third and fourth contract columns.
		top, _ := excelize.CoordinatesToCellName(3, first)
		bottom, _ := excelize.CoordinatesToCellName(4, last)
		if err := f.SetCellStyle(name, top, bottom, style); err != nil {
			return fmt.Errorf("failed to style date cells: %w", err)
		}
	}

	if err := writeDashboard(f, ds, opts.Caption); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeDashboard(f *excelize.File, ds model.Dataset, caption string) error {
	if _, err := f.NewSheet(DashboardSheet); err != nil {
		return fmt.Errorf("failed to add %s sheet: %w", DashboardSheet, err)
	}
	if caption == "" {
		caption = "Generated by planboard"
	}
	sum := variance.Summarize(ds.Tasks)

	rows := [][]interface{}{
		{caption},
		{},
		{"Total projects", sum.Total},
	}
	for _, s := range statusOrder(sum) {
		rows = append(rows, []interface{}{s, sum.ByStatus[s]})
	}
	rows = append(rows,
		[]interface{}{"Mean progress%", sum.MeanProgress},
		[]interface{}{"Delayed", sum.Delayed},
	)
	for i := range rows {
		if len(rows[i]) == 0 {
			continue
		}
		if err := setRow(f, DashboardSheet, i+1, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// statusOrder lists the known statuses first, then any others sorted.
func statusOrder(sum variance.Summary) []string {
	order := slices.Clone(model.Statuses)
	var other []string
	for s := range sum.ByStatus {
		if !slices.Contains(model.Statuses, s) {
			other = append(other, s)
		}
	}
	slices.Sort(other)
	return append(order, other...)
}

func setRow(f *excelize.File, sheet string, row int, values any) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, ref, values); err != nil {
		return fmt.Errorf("failed to write row %d of %q: %w", row, sheet, err)
	}
	return nil
}

func rowValues(t model.Task, extra []string) []interface{} {
	values := []interface{}{
		t.Project,
		t.Owner,
		dateValue(t.Start),
		dateValue(t.End),
		t.Status,
		floatValue(t.Progress),
		floatValue(t.Expected),
		floatValue(t.Delay),
	}
	for _, name := range extra {
		values = append(values, t.Extra[name])
	}
	return values
}

func dateValue(d *model.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.Time
}

func floatValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// WriteCSV writes ds as comma-separated UTF-8 text with a header line.
func WriteCSV(w io.Writer, ds model.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers(ds)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, t := range ds.Tasks {
		rec := []string{
			t.Project,
			t.Owner,
			util.FormatDate(t.Start),
			util.FormatDate(t.End),
			t.Status,
			util.FormatFloat(t.Progress),
			util.FormatFloat(t.Expected),
			util.FormatFloat(t.Delay),
		}
		for _, name := range ds.Extra {
			rec = append(rec, t.Extra[name])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
