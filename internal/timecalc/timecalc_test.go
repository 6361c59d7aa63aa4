package timecalc_test

import (
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/Tiliavir/maintenance-notebook/internal/timecalc"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"00:00", 0, true},
		{"9:05", 545, true},
		{"09:05", 545, true},
		{"23:59", 1439, true},
		{"25:00", 1500, true},
		{"47:59", 2879, true},
		{"48:00", 0, false},
		{"12:60", 0, false},
		{"9", 0, false},
		{"", 0, false},
		{"9:5", 0, false},
		{" 09:00", 0, false},
		{"123:00", 0, false},
		{"ab:cd", 0, false},
	}
	for _, tt := range tests {
		got, ok := timecalc.ParseClock(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseClock(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
		wantOK     bool
	}{
		{"09:00", "17:00", 480, true},
		{"23:30", "00:15", 45, true},
		{"22:00", "06:00", 480, true},
		{"08:00", "08:00", 0, true},
		{"25:00", "26:00", 60, true},
		{"9", "17:00", 0, false},
		{"09:00", "", 0, false},
	}
	for _, tt := range tests {
		got, ok := timecalc.Duration(tt.start, tt.end)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Duration(%q, %q) = (%d, %v), want (%d, %v)", tt.start, tt.end, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWorkedHours(t *testing.T) {
	tests := []struct {
		start, end, brk string
		want            float64
		wantOK          bool
	}{
		{"08:00", "17:00", "01:00", 8, true},
		{"08:00", "17:00", "", 9, true},
		{"08:00", "17:00", "garbage", 9, true},
		{"08:00", "08:30", "01:00", 0, true},
		{"22:00", "06:30", "00:30", 8, true},
		{"8", "17:00", "00:00", 0, false},
	}
	for _, tt := range tests {
		got, ok := timecalc.WorkedHours(tt.start, tt.end, tt.brk)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("WorkedHours(%q, %q, %q) = (%v, %v), want (%v, %v)",
				tt.start, tt.end, tt.brk, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestOvertime(t *testing.T) {
	tests := []struct {
		worked, contractual float64
		want                float64
	}{
		{10, 8, 2},
		{5, 8, 0},
		{5, 0, 5},
		{5, -3, 5},
		{5, math.NaN(), 5},
		{math.Inf(1), 8, 0},
	}
	for _, tt := range tests {
		got := timecalc.Overtime(tt.worked, tt.contractual)
		if got != tt.want {
			t.Errorf("Overtime(%v, %v) = %v, want %v", tt.worked, tt.contractual, got, tt.want)
		}
	}
}

func TestDecimalToClock(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "00:00"},
		{1.5, "01:30"},
		{7.25, "07:15"},
		{8.999, "09:00"},
		{0.0083, "00:00"},
		{26.5, "26:30"},
		{math.NaN(), "00:00"},
		{-1, "00:00"},
	}
	for _, tt := range tests {
		got := timecalc.DecimalToClock(tt.hours)
		if got != tt.want {
			t.Errorf("DecimalToClock(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0,00"},
		{7.5, "7,50"},
		{1.234, "1,23"},
		{12, "12,00"},
		{math.Inf(1), "0,00"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDecimal(tt.hours)
		if got != tt.want {
			t.Errorf("FormatDecimal(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestGenerateID(t *testing.T) {
	ts := time.Date(2026, 2, 27, 8, 32, 10, 0, time.UTC)
	id := timecalc.GenerateID(ts)
	if !regexp.MustCompile(`^R20260227_083210_[0-9A-F]{6}$`).MatchString(id) {
		t.Errorf("GenerateID = %q, want R20260227_083210_XXXXXX", id)
	}
	if other := timecalc.GenerateID(ts); other == id {
		t.Errorf("GenerateID returned the same ID twice: %q", id)
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 2, 27, 8, 32, 10, 0, time.FixedZone("CET", 3600))
	if got := timecalc.Timestamp(ts); got != "2026-02-27T07:32:10.000Z" {
		t.Errorf("Timestamp = %q", got)
	}
	if got := timecalc.Today(ts); got != "2026-02-27" {
		t.Errorf("Today = %q", got)
	}
}
