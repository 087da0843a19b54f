package util

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/planboard/pkg/model"
)

// MaxSerialDate is the Excel serial for 9999-12-31, the last day a
// workbook can hold.
const MaxSerialDate = 2958465

// StampLayout is the timestamp suffix used in export and archive file names.
const StampLayout = "20060102_1504"

// Text date layouts tried in order. Month-first comes before day-first, so
// "03/04/2024" is March 4th and "13/04/2024" falls through to April 13th.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
	"1/2/06",
	"2/1/2006",
	"02.01.2006",
}

// ParseProgress reads a progress cell such as "30", "30%", " 42.5 % " or
// "12,5". Empty or unparseable input yields nil.
func ParseProgress(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ReadProgress reads a progress cell from its stored value raw. When the
// cell is shown with a percent number format the stored value is a
// fraction, so it is scaled to 0..100.
func ReadProgress(raw, shown string) *float64 {
	v := ParseProgress(raw)
	if v == nil || strings.Contains(raw, "%") || !strings.Contains(shown, "%") {
		return v
	}
	scaled := math.Round(*v*1e11) / 1e9
	return &scaled
}

// ParseDate reads a raw date cell. Numeric input is an Excel serial date in
// the workbook's epoch; text is tried against the known layouts. Anything
// else yields nil.
func ParseDate(raw string, date1904 bool) *model.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial <= 0 || serial > MaxSerialDate {
			return nil
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return nil
		}
		return model.DateOf(t).Ptr()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return model.DateOf(t).Ptr()
		}
	}
	return nil
}

// FormatFloat renders v without a trailing ".0" for whole numbers.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatDate renders d as YYYY-MM-DD, or "" when absent.
func FormatDate(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// FileStem turns a free-text title into a file name stem.
func FileStem(title string) string {
	stem := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, stem)
}

// Stamp formats t for use in file names.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}
