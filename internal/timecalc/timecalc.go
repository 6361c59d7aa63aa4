package timecalc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinutesPerDay is added to a negative shift length to wrap it past midnight.
const MinutesPerDay = 24 * 60

// maxClockHour allows callers to pre-encode next-day times (e.g. "25:30").
const maxClockHour = 47

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// GenerateID creates a record ID like "R20260227_083210_3FA2C1" from the
// timestamp and a random suffix.
func GenerateID(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("R%s_%s", t.Format("20060102_150405"), suffix)
}

// ParseClock converts "H:MM" or "HH:MM" into minutes since 00:00.
// Hours range over 0–47 and minutes over 0–59; anything else is invalid.
func ParseClock(s string) (int, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if hh > maxClockHour || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}

// Duration returns the minutes between start and end. An end before the
// start is treated as a shift crossing midnight.
func Duration(start, end string) (int, bool) {
	a, ok := ParseClock(start)
	if !ok {
		return 0, false
	}
	b, ok := ParseClock(end)
	if !ok {
		return 0, false
	}
	d := b - a
	if d < 0 {
		d += MinutesPerDay
	}
	return d, true
}

// WorkedHours is the shift length minus the break, in decimal hours.
// An invalid break counts as no break; the result is never negative.
func WorkedHours(start, end, brk string) (float64, bool) {
	d, ok := Duration(start, end)
	if !ok {
		return 0, false
	}
	rest, ok := ParseClock(brk)
	if !ok {
		rest = 0
	}
	return float64(max(0, d-rest)) / 60, true
}

// Overtime returns the worked hours exceeding the contractual hours.
// A negative or non-finite contractual value counts as 0, so every worked
// hour is overtime.
func Overtime(worked, contractual float64) float64 {
	worked = finiteOrZero(worked)
	contractual = finiteOrZero(contractual)
	if contractual < 0 {
		contractual = 0
	}
	return math.Max(0, worked-contractual)
}

// DecimalToClock formats decimal hours as "HH:MM", rounding to the nearest
// minute. Hours are not clamped at 24.
func DecimalToClock(hours float64) string {
	total := int64(math.Floor(finiteOrZero(hours)*60 + 0.5))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatDecimal renders hours with two decimals and a comma separator ("7,50").
func FormatDecimal(hours float64) string {
	return strings.Replace(strconv.FormatFloat(finiteOrZero(hours), 'f', 2, 64), ".", ",", 1)
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	return monday, sunday
}

// Today returns the current UTC calendar date as "2006-01-02".
func Today(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// Timestamp formats t the way records store createdAt.
func Timestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
