// Package sheet reads and writes the planning workbook.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/util"
)

const (
	DefaultSheetName = "Planning_Projets"
	// DefaultHeaderRow leaves two rows above the header for the legend.
	DefaultHeaderRow = 3
)

var ErrSheetNotFound = errors.New("sheet not found")

// Options locate the table inside the workbook.
type Options struct {
	SheetName string
	// HeaderRow is 1-based.
	HeaderRow int
}

func (o Options) withDefaults() Options {
	if o.SheetName == "" {
		o.SheetName = DefaultSheetName
	}
	if o.HeaderRow < 1 {
		o.HeaderRow = DefaultHeaderRow
	}
	return o
}

// LoadResult is a loaded dataset plus the contract columns the sheet lacked.
type LoadResult struct {
	Dataset model.Dataset
	Missing []string
}

// Load reads the planning table from an XLSX workbook. Dates and progress
// values that cannot be parsed are loaded as absent. Derived columns found
// in the sheet are dropped; callers recompute them.
func Load(r io.Reader, opts Options) (*LoadResult, error) {
	opts = opts.withDefaults()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(opts.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet %q: %w", opts.SheetName, err)
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, opts.SheetName)
	}

	raw, err := f.GetRows(opts.SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", opts.SheetName, err)
	}
	formatted, err := f.GetRows(opts.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", opts.SheetName, err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	headerIdx := opts.HeaderRow - 1
	if headerIdx >= len(formatted) {
		return &LoadResult{Missing: append([]string(nil), Contract...)}, nil
	}

	cols := make(map[string]int)
	extraCols := make(map[string]int)
	var ds model.Dataset
	for i, h := range formatted[headerIdx] {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		c := canonical(h)
		switch {
		case c == "":
			if _, dup := extraCols[h]; !dup {
				extraCols[h] = i
				ds.Extra = append(ds.Extra, h)
			}
		case isDerived(c):
		default:
			if _, dup := cols[c]; !dup {
				cols[c] = i
			}
		}
	}

	var missing []string
	for _, c := range Contract {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}

	text := func(row []string, col string) string {
		i, ok := cols[col]
		if !ok {
			return ""
		}
		return cell(row, i)
	}

	for r := headerIdx + 1; r < len(formatted); r++ {
		frow := formatted[r]
		var rrow []string
		if r < len(raw) {
			rrow = raw[r]
		}
		if blank(frow) {
			continue
		}

		t := model.Task{
			ID:       model.NewID(),
			Project:  strings.TrimSpace(text(frow, ColProject)),
			Owner:    strings.TrimSpace(text(frow, ColOwner)),
			Start:    util.ParseDate(text(rrow, ColStart), date1904),
			End:      util.ParseDate(text(rrow, ColEnd), date1904),
			Status:   strings.TrimSpace(text(frow, ColStatus)),
			Progress: util.ReadProgress(text(rrow, ColProgress), text(frow, ColProgress)),
		}
		if len(ds.Extra) > 0 {
			t.Extra = make(map[string]string, len(ds.Extra))
			for _, name := range ds.Extra {
				t.Extra[name] = cell(frow, extraCols[name])
			}
		}
		ds.Tasks = append(ds.Tasks, t)
	}

	return &LoadResult{Dataset: ds, Missing: missing}, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
