package util

import (
	"testing"
	"time"
)

func TestParseProgress(t *testing.T) {
	cases := map[string]*float64{
		"30":       ptr(30),
		"30%":      ptr(30),
		" 42.5 % ": ptr(42.5),
		"12,5":     ptr(12.5),
		"":         nil,
		"%":        nil,
		"n/a":      nil,
		"NaN":      nil,
	}
	for in, want := range cases {
		got := ParseProgress(in)
		switch {
		case want == nil && got != nil:
			t.Errorf("ParseProgress(%q) = %v, want nil", in, *got)
		case want != nil && got == nil:
			t.Errorf("ParseProgress(%q) = nil, want %v", in, *want)
		case want != nil && *got != *want:
			t.Errorf("ParseProgress(%q) = %v, want %v", in, *got, *want)
		}
	}
}

func TestReadProgress(t *testing.T) {
	cases := []struct {
		raw, shown string
		want       *float64
	}{
		{"42.5", "43", ptr(42.5)},
		{"0.305", "31%", ptr(30.5)},
		{"1", "100%", ptr(100)},
		{"30%", "30%", ptr(30)},
		{"", "", nil},
		{"n/a", "n/a%", nil},
	}
	for _, c := range cases {
		got := ReadProgress(c.raw, c.shown)
		switch {
		case c.want == nil && got != nil:
			t.Errorf("ReadProgress(%q, %q) = %v, want nil", c.raw, c.shown, *got)
		case c.want != nil && got == nil:
			t.Errorf("ReadProgress(%q, %q) = nil, want %v", c.raw, c.shown, *c.want)
		case c.want != nil && *got != *c.want:
			t.Errorf("ReadProgress(%q, %q) = %v, want %v", c.raw, c.shown, *got, *c.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		raw      string
		date1904 bool
		want     string
	}{
		{"45292", false, "2024-01-01"},
		{"45292.75", false, "2024-01-01"},
		{"2024-01-11", false, "2024-01-11"},
		{"2024-01-11 08:30:00", false, "2024-01-11"},
		{"03/04/2024", false, "2024-03-04"},
		{"13/04/2024", false, "2024-04-13"},
		{"", false, ""},
		{"soon", false, ""},
		{"0", false, ""},
		{"2958466", false, ""},
		{"20240106", false, ""},
	}
	for _, c := range cases {
		got := FormatDate(ParseDate(c.raw, c.date1904))
		if got != c.want {
			t.Errorf("ParseDate(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestParseDate1904(t *testing.T) {
	// The 1904 epoch is 1462 days later than the 1900 one.
	got := FormatDate(ParseDate("43830", true))
	if got != "2024-01-01" {
		t.Errorf("expected 2024-01-01, got %s", got)
	}
}

func TestFileStem(t *testing.T) {
	if got := FileStem("Grand Traité Universel"); got != "Grand_Traité_Universel" {
		t.Errorf("unexpected stem %q", got)
	}
	if got := FileStem("a/b: c"); got != "a-b-_c" {
		t.Errorf("unexpected stem %q", got)
	}
}

func TestStamp(t *testing.T) {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	if got := Stamp(ts); got != "20240203_0405" {
		t.Errorf("unexpected stamp %q", got)
	}
}

func TestFormatFloat(t *testing.T) {
	if got := FormatFloat(ptr(50)); got != "50" {
		t.Errorf("got %q", got)
	}
	if got := FormatFloat(ptr(12.5)); got != "12.5" {
		t.Errorf("got %q", got)
	}
	if got := FormatFloat(nil); got != "" {
		t.Errorf("got %q", got)
	}
}

func ptr(v float64) *float64 { return &v }
